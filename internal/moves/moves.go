// Package moves defines the agent's conversation moves: named rules pairing a
// trigger condition with an effect on the information state. The ordered
// standard set is the selector's only conflict-resolution policy: earlier
// registration wins.
package moves

import (
	"strings"

	"souschef/internal/knowledge"
	"souschef/internal/state"
)

// User intents, logged as user moves by the turn controller. These are the
// predecessor names the rule triggers match against.
const (
	IntentStartTask          = "start_task"
	IntentContinueTask       = "continue_task"
	IntentSwitchTask         = "switch_task"
	IntentListTasks          = "list_tasks"
	IntentEndTask            = "end_task"
	IntentPreviousStep       = "previous_step"
	IntentAskHowMuch         = "ask_howmuch"
	IntentAskHowTo           = "ask_howto"
	IntentAskDetail          = "ask_detail"
	IntentAskMotivate        = "ask_motivate"
	IntentAskRepeat          = "ask_repeat"
	IntentAcceptGratitude    = "accept_gratitude"
	IntentAcceptUnderstood   = "accept_understood"
	IntentAcceptAcknowledged = "accept_acknowledged"
)

// Agent move names. The composer dispatches on these; adding a move means
// adding a rule here and a render arm there.
const (
	ConfirmTask             = "confirm_task"
	ConfirmNoTask           = "confirm_no_task"
	DeclineNewTask          = "decline_new_task"
	OtherTask               = "other_task"
	SelectTask              = "select_task"
	SurfaceDetermination    = "surface_determination"
	SurfaceUtensils         = "surface_utensils"
	SurfaceIngredients      = "surface_ingredients"
	InstructStep            = "instruct_step"
	InstructPrevStep        = "instruct_previous_step"
	InstructPrevFallback    = "instruct_previous_step_fallback"
	ClarifyQuantity         = "clarify_step_quantity"
	ClarifyQuantityFallback = "clarify_step_quantity_fallback"
	ClarifyRepeat           = "clarify_step_repeat"
	ClarifyDetail           = "clarify_step_detail"
	ClarifyDetailFallback   = "clarify_step_detail_fallback"
	ClarifyExplain          = "clarify_step_explain"
	ClarifyExplainFallback  = "clarify_step_explain_fallback"
	ClarifyTechnique        = "clarify_technique"
	ClarifyMotivate         = "clarify_step_motivate"
	ClarifyMotivateFallback = "clarify_step_motivate_fallback"
	CloseClarGratitude      = "close_clarification_gratitude"
	CloseClarUnderstood     = "close_clarification_understood"
	CloseClarAcknowledged   = "close_clarification_acknowledged"
	CloseTask               = "close_task"
	CloseActivity           = "close_activity"
)

// EntityTask is the entity key carrying the requested task (recipe) name.
const EntityTask = "task"

// Move is a stateless dialogue rule. Constructed once, registered into the
// ordered rule set, never mutated afterwards.
type Move struct {
	Name           string
	Triggers       []string // exact predecessor move names
	TriggerClasses []string // name prefixes ("inquiry_" style classes)
	Context        []state.ContextDirective
	Suggestions    []string

	// When is the move-specific precondition beyond the trigger match; nil
	// means the trigger alone decides.
	When func(s *state.InformationState, kb *knowledge.Book) bool
	// Apply is the move-specific effect beyond the base logging; nil means
	// logging the move is the whole effect.
	Apply func(s *state.InformationState, kb *knowledge.Book)
}

// Triggered reports whether the single most recent log entry matches this
// move's trigger set or one of its trigger classes. Deeper history is never
// inspected here; a move's When may look at whatever state it needs.
func (m *Move) Triggered(s *state.InformationState) bool {
	last, ok := s.LastMove()
	if !ok {
		return false
	}
	for _, name := range m.Triggers {
		if last.Move == name {
			return true
		}
	}
	for _, prefix := range m.TriggerClasses {
		if strings.HasPrefix(last.Move, prefix) {
			return true
		}
	}
	return false
}

// Preconditions reports whether the move may fire in the current state.
func (m *Move) Preconditions(s *state.InformationState, kb *knowledge.Book) bool {
	if !m.Triggered(s) {
		return false
	}
	if m.When != nil {
		return m.When(s, kb)
	}
	return true
}

// Effects applies the move: the name is appended to the shared move log, the
// static context and suggestion directives are staged for delivery, and the
// specific effect (if any) runs last. Effects are atomic per move; nothing
// here can fail partway.
func (m *Move) Effects(s *state.InformationState, kb *knowledge.Book) {
	s.Shared.Moves = append(s.Shared.Moves, state.LoggedMove{
		Speaker:    s.Shared.LastSpeaker,
		Move:       m.Name,
		Confidence: 1,
	})
	s.AppendContext(m.Context...)
	s.AppendSuggestions(m.Suggestions...)
	if m.Apply != nil {
		m.Apply(s, kb)
	}
}
