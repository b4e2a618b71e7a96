// Package compose turns the agent moves selected for a turn into one
// utterance. Each move contributes a fragment rendered from the phrase bank
// and the active recipe; fragments are joined in move order. Dispatch on move
// names is exhaustive: a name without a render arm is an error, never silence.
package compose

import (
	"errors"
	"fmt"
	"strings"

	"souschef/internal/knowledge"
	"souschef/internal/moves"
	"souschef/internal/state"
)

var (
	// ErrUnknownMove means the selector produced a move the composer has no
	// render arm for. The turn degrades to a fallback utterance, loudly.
	ErrUnknownMove = errors.New("no utterance template for move")
	// ErrMissingKnowledge means the phrase bank or recipe book lacks content
	// a render arm needed. The turn degrades to a fallback utterance.
	ErrMissingKnowledge = errors.New("missing knowledge for move")
)

// Result is the rendered turn: the utterance text and at most one image. When
// several fragments stage an image the last one wins.
type Result struct {
	Text  string
	Image string
}

// Composer renders agent turns. Safe for concurrent use: the book, bank and
// picker are never written after construction.
type Composer struct {
	book   *knowledge.Book
	bank   knowledge.PhraseBank
	picker Picker
}

// New returns a composer over the given knowledge. A nil picker defaults to a
// time-seeded one.
func New(book *knowledge.Book, bank knowledge.PhraseBank, picker Picker) *Composer {
	if picker == nil {
		picker = NewRandomPicker()
	}
	return &Composer{book: book, bank: bank, picker: picker}
}

// Fallback renders the generic did-not-understand utterance. Used both for an
// empty move list and as the degraded output after a compose error.
func (c *Composer) Fallback() string {
	group, ok := c.bank.Group(knowledge.GroupNotUnderstood)
	if !ok {
		return "Sorry, I did not understand that."
	}
	return c.picker.Pick(group.Regular)
}

// Compose renders the moves of one turn into a single utterance. An empty
// move list yields the fallback utterance and no error.
func (c *Composer) Compose(s *state.InformationState, turnMoves []string) (Result, error) {
	if len(turnMoves) == 0 {
		return Result{Text: c.Fallback()}, nil
	}

	var fragments []string
	var image string
	for _, move := range turnMoves {
		text, img, err := c.fragment(s, move)
		if err != nil {
			return Result{}, fmt.Errorf("move %q: %w", move, err)
		}
		if text != "" {
			fragments = append(fragments, text)
		}
		if img != "" {
			image = img
		}
	}
	return Result{Text: c.fill(s, strings.Join(fragments, " ")), Image: image}, nil
}

func (c *Composer) fragment(s *state.InformationState, move string) (string, string, error) {
	switch move {
	case moves.ConfirmTask:
		text, err := c.pick(knowledge.GroupConfirmTask, variantRegular)
		return text, "", err
	case moves.ConfirmNoTask:
		text, err := c.pick(knowledge.GroupNoTask, variantRegular)
		return text, "", err
	case moves.DeclineNewTask:
		text, err := c.pick(knowledge.GroupTaskInProgress, variantRegular)
		return text, "", err
	case moves.OtherTask:
		text, err := c.pick(knowledge.GroupOtherTask, variantRegular)
		return text, "", err
	case moves.SelectTask:
		text, err := c.pick(knowledge.GroupListTasks, variantRegular)
		return text, "", err

	case moves.SurfaceDetermination:
		return c.preliminary(s, knowledge.PrelimDetermination, knowledge.GroupIntroTechnique)
	case moves.SurfaceUtensils:
		return c.preliminary(s, knowledge.PrelimUtensils, knowledge.GroupIntroUtensils)
	case moves.SurfaceIngredients:
		return c.preliminary(s, knowledge.PrelimIngredients, knowledge.GroupIntroIngredients)

	case moves.InstructStep, moves.InstructPrevStep:
		return c.instruct(s)
	case moves.InstructPrevFallback:
		text, err := c.pick(knowledge.GroupFirstStepReached, variantRegular)
		return text, "", err

	case moves.ClarifyQuantity:
		return c.clarify(s, knowledge.GroupStepQuantity, knowledge.FieldHowMuch)
	case moves.ClarifyQuantityFallback:
		text, err := c.pick(knowledge.GroupStepQuantity, variantFallback)
		return text, "", err
	case moves.ClarifyExplain:
		return c.clarify(s, knowledge.GroupExplainStep, knowledge.FieldHowTo)
	case moves.ClarifyExplainFallback:
		text, err := c.pick(knowledge.GroupExplainStep, variantFallback)
		return text, "", err
	case moves.ClarifyDetail:
		return c.clarify(s, knowledge.GroupDetailStep, knowledge.FieldDetail)
	case moves.ClarifyDetailFallback:
		text, err := c.pick(knowledge.GroupDetailStep, variantFallback)
		return text, "", err
	case moves.ClarifyMotivate:
		return c.clarify(s, knowledge.GroupMotivateStep, knowledge.FieldMotivate)
	case moves.ClarifyMotivateFallback:
		text, err := c.pick(knowledge.GroupMotivateStep, variantFallback)
		return text, "", err
	case moves.ClarifyRepeat:
		return c.clarify(s, knowledge.GroupRepeatStep, knowledge.FieldInstruction)
	case moves.ClarifyTechnique:
		return c.technique(s)

	case moves.CloseClarGratitude:
		text, err := c.pick(knowledge.GroupAcceptGratitude, variantRegular)
		return text, "", err
	case moves.CloseClarUnderstood:
		text, err := c.pick(knowledge.GroupAcceptUnderstood, variantRegular)
		return text, "", err
	case moves.CloseClarAcknowledged:
		text, err := c.pick(knowledge.GroupAcceptAcknowledged, variantRegular)
		return text, "", err
	case moves.CloseTask:
		text, err := c.pick(knowledge.GroupConfirmEndTask, variantRegular)
		return text, "", err
	case moves.CloseActivity:
		text, err := c.pick(knowledge.GroupCloseActivity, variantRegular)
		return text, "", err
	}
	return "", "", ErrUnknownMove
}

// instruct renders the current head of the plan. The first and last steps use
// their own template variants when the phrase bank provides them.
func (c *Composer) instruct(s *state.InformationState) (string, string, error) {
	step := s.CurrentStep()
	if step == state.NoStep {
		return "", "", fmt.Errorf("no current step: %w", ErrMissingKnowledge)
	}
	record, ok := s.Private.Explanations[step]
	if !ok {
		return "", "", fmt.Errorf("step %q not in plan knowledge: %w", step, ErrMissingKnowledge)
	}

	variant := variantRegular
	switch {
	case len(s.Private.Plan) == 1:
		variant = variantLast
	case step == "1" && len(s.Shared.Beliefs.Done) == 0:
		variant = variantFirst
	}
	intro, err := c.pick(knowledge.GroupNewStep, variant)
	if err != nil {
		return "", "", err
	}
	return intro + " " + record.Instruction, record.Image, nil
}

// clarify renders an intro phrase followed by the authored field text of the
// current step.
func (c *Composer) clarify(s *state.InformationState, group, field string) (string, string, error) {
	step := s.CurrentStep()
	if step == state.NoStep {
		return "", "", fmt.Errorf("no current step: %w", ErrMissingKnowledge)
	}
	record, ok := s.Private.Explanations[step]
	if !ok {
		return "", "", fmt.Errorf("step %q not in plan knowledge: %w", step, ErrMissingKnowledge)
	}
	content := record.Field(field)
	if content == "" {
		return "", "", fmt.Errorf("step %q has no %s content: %w", step, field, ErrMissingKnowledge)
	}
	intro, err := c.pick(group, variantRegular)
	if err != nil {
		return "", "", err
	}
	return intro + " " + content, record.Image, nil
}

// preliminary renders a preamble section: intro phrase, then the section text
// and its items.
func (c *Composer) preliminary(s *state.InformationState, topic, group string) (string, string, error) {
	section, err := c.section(s, topic)
	if err != nil {
		return "", "", err
	}
	intro, err := c.pick(group, variantRegular)
	if err != nil {
		return "", "", err
	}
	parts := []string{intro}
	if section.Text != "" {
		parts = append(parts, section.Text)
	}
	if len(section.Items) > 0 {
		parts = append(parts, strings.Join(section.Items, ", ")+".")
	}
	return strings.Join(parts, " "), section.Image, nil
}

// technique renders the answer to a how-question about the recipe's cooking
// technique.
func (c *Composer) technique(s *state.InformationState) (string, string, error) {
	section, err := c.section(s, knowledge.PrelimDetermination)
	if err != nil {
		return "", "", err
	}
	intro, err := c.pick(knowledge.GroupExplainTechnique, variantRegular)
	if err != nil {
		return "", "", err
	}
	if section.Text == "" {
		return "", "", fmt.Errorf("no technique text for %q: %w", s.Private.Agenda, ErrMissingKnowledge)
	}
	return intro + " " + section.Text, section.Image, nil
}

func (c *Composer) section(s *state.InformationState, topic string) (knowledge.Preliminary, error) {
	recipe, ok := c.book.Recipe(s.Private.Agenda)
	if !ok {
		return knowledge.Preliminary{}, fmt.Errorf("no recipe %q: %w", s.Private.Agenda, ErrMissingKnowledge)
	}
	section, ok := recipe.Preliminaries[topic]
	if !ok {
		return knowledge.Preliminary{}, fmt.Errorf("recipe %q has no %s section: %w", s.Private.Agenda, topic, ErrMissingKnowledge)
	}
	return section, nil
}

const (
	variantRegular  = "regular"
	variantFallback = "fallback"
	variantFirst    = "first"
	variantLast     = "last"
)

// pick chooses one template from the named group and variant. An empty
// variant list is a missing-knowledge error, not an empty utterance.
func (c *Composer) pick(group, variant string) (string, error) {
	g, ok := c.bank.Group(group)
	if !ok {
		return "", fmt.Errorf("no phrase group %q: %w", group, ErrMissingKnowledge)
	}
	options := g.Regular
	switch variant {
	case variantFallback:
		options = g.Fallback
	case variantFirst:
		if len(g.First) > 0 {
			options = g.First
		}
	case variantLast:
		if len(g.Last) > 0 {
			options = g.Last
		}
	}
	if len(options) == 0 {
		return "", fmt.Errorf("phrase group %q has no %s templates: %w", group, variant, ErrMissingKnowledge)
	}
	return c.picker.Pick(options), nil
}

// fill substitutes the placeholders an utterance may carry. A placeholder
// whose value is unknown in the current state stays in the text untouched.
func (c *Composer) fill(s *state.InformationState, text string) string {
	task := s.Shared.Beliefs.Task
	if task == "" {
		task = s.Private.Agenda
	}
	replace := func(text, placeholder, value string) string {
		if value == "" {
			return text
		}
		return strings.ReplaceAll(text, placeholder, value)
	}
	text = replace(text, "[task]", task)
	text = replace(text, "[step]", s.CurrentStep())
	text = replace(text, "[topic]", s.Shared.QUD)
	options := strings.Join(c.book.RecipeNames(), ", ")
	text = replace(text, "[task_options]", options)
	text = replace(text, "[topics_known]", options)
	return text
}
