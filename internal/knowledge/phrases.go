package knowledge

import (
	"encoding/json"
	"fmt"
	"os"

	"souschef/internal/logging"
)

// Phrase group names referenced by the utterance composer. Kept here, next to
// the data they index, so the composer and the example data cannot drift apart
// silently.
const (
	GroupConfirmTask        = "confirm_task"
	GroupNoTask             = "no_task"
	GroupTaskInProgress     = "task_in_progress"
	GroupOtherTask          = "other_task"
	GroupListTasks          = "list_tasks"
	GroupNewStep            = "new_step"
	GroupFirstStepReached   = "first_step_reached"
	GroupStepQuantity       = "step_quantity"
	GroupExplainStep        = "explain_step"
	GroupDetailStep         = "detail_step"
	GroupMotivateStep       = "motivate_step"
	GroupRepeatStep         = "repeat_step"
	GroupExplainTechnique   = "explain_technique"
	GroupIntroTechnique     = "introduce_technique"
	GroupIntroUtensils      = "introduce_utensils"
	GroupIntroIngredients   = "introduce_ingredients"
	GroupAcceptGratitude    = "accept_gratitude"
	GroupAcceptUnderstood   = "accept_understood"
	GroupAcceptAcknowledged = "accept_acknowledged"
	GroupConfirmEndTask     = "confirm_end_task"
	GroupCloseActivity      = "close_activity"
	GroupNotUnderstood      = "not_understood"
)

// PhraseGroup holds interchangeable utterance templates for one situation.
// Regular is always present; Fallback covers the "no authored content" render
// path; First/Last override Regular at the edges of a step sequence.
type PhraseGroup struct {
	Regular  []string `json:"regular"`
	Fallback []string `json:"fallback,omitempty"`
	First    []string `json:"first,omitempty"`
	Last     []string `json:"last,omitempty"`
}

// PhraseBank maps group names to their template lists.
type PhraseBank map[string]PhraseGroup

// Group returns the named phrase group.
func (pb PhraseBank) Group(name string) (PhraseGroup, bool) {
	g, ok := pb[name]
	return g, ok
}

// LoadPhraseBank reads and validates a phrase bank from a JSON file. Groups
// with an empty regular list are rejected here so the composer never has to
// pick from nothing.
func LoadPhraseBank(path string) (PhraseBank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read phrase bank: %w", err)
	}

	var bank PhraseBank
	if err := json.Unmarshal(data, &bank); err != nil {
		return nil, fmt.Errorf("failed to parse phrase bank: %w", err)
	}

	if len(bank) == 0 {
		return nil, fmt.Errorf("phrase bank %s contains no groups", path)
	}
	for name, group := range bank {
		if len(group.Regular) == 0 {
			return nil, fmt.Errorf("phrase group %q has no regular variants", name)
		}
	}

	logging.Info("knowledge", "Loaded %d phrase groups from %s", len(bank), path)
	return bank, nil
}
