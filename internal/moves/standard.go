package moves

import (
	"strconv"
	"strings"

	"souschef/internal/knowledge"
	"souschef/internal/state"
)

// Context directive names staged by the standard set. Lifespans follow the
// dialogue platform convention: 1 keeps a context alive for the immediate
// reply, 5 spans a short stretch of turns.
const (
	ContextTaskConfirm  = "task_confirm"
	ContextTaskSteps    = "task_steps"
	ContextTaskQuantity = "task_quantity"
	ContextTaskClarify  = "task_clarify"
	ContextTaskDone     = "task_done"
)

func ctx(name string, lifespan int) state.ContextDirective {
	return state.ContextDirective{
		Name:     name,
		Lifespan: lifespan,
		Params:   map[string]float64{"no-input": 0, "no-match": 0},
	}
}

// taskEntity returns the normalized task name from the latest utterance.
func taskEntity(s *state.InformationState) string {
	return strings.ToLower(strings.TrimSpace(s.LastEntities()[EntityTask]))
}

// knownTask reports whether the entity names a recipe in the book.
func knownTask(s *state.InformationState, kb *knowledge.Book) bool {
	name := taskEntity(s)
	if name == "" {
		return false
	}
	_, ok := kb.Recipe(name)
	return ok
}

// recentMove reports whether name appears among the last n move log entries.
func recentMove(s *state.InformationState, name string, n int) bool {
	log := s.Shared.Moves
	for i := len(log) - 1; i >= 0 && i >= len(log)-n; i-- {
		if log[i].Move == name {
			return true
		}
	}
	return false
}

// loadTask resets the planning side of the state and installs the named
// recipe: agenda, plan, plan-wide knowledge, per-step explanations and the
// preamble queue. The turn logs are left untouched.
func loadTask(s *state.InformationState, kb *knowledge.Book, name string) {
	recipe, ok := kb.Recipe(name)
	if !ok {
		return
	}
	s.Private.Agenda = name
	s.Private.Plan = recipe.StepOrder()
	s.Private.PlanWide = make(map[string][]string, len(recipe.Steps))
	s.Private.Explanations = make(map[string]knowledge.Step, len(recipe.Steps))
	for id, step := range recipe.Steps {
		s.Private.PlanWide[id] = step.AuthoredFields()
		s.Private.Explanations[id] = step
	}
	s.Private.Preliminaries = recipe.PreliminaryOrder()
	s.Shared.Beliefs.Task = name
	s.Shared.Beliefs.Done = nil
	s.Shared.QUD = ""
}

// popStep moves the head of the plan into the done list.
func popStep(s *state.InformationState) {
	if len(s.Private.Plan) == 0 {
		return
	}
	s.Shared.Beliefs.Done = append(s.Shared.Beliefs.Done, s.Private.Plan[0])
	s.Private.Plan = s.Private.Plan[1:]
}

// prevStepID returns the id numerically before the given step id.
func prevStepID(id string) string {
	n, err := strconv.Atoi(id)
	if err != nil || n <= 1 {
		return ""
	}
	return strconv.Itoa(n - 1)
}

// clarify builds a clarification rule: on the trigger intent, when the field
// is authored for the current step, open the question under discussion for it.
func clarify(name, intent, field string) *Move {
	return &Move{
		Name:     name,
		Triggers: []string{intent},
		Context:  []state.ContextDirective{ctx(ContextTaskClarify, 1)},
		Suggestions: []string{
			"got it", "thanks", "next",
		},
		When: func(s *state.InformationState, kb *knowledge.Book) bool {
			return s.StepAuthored(field)
		},
		Apply: func(s *state.InformationState, kb *knowledge.Book) {
			s.Shared.QUD = s.CurrentStep() + "_" + field
		},
	}
}

// clarifyFallback builds the counterpart rule for steps without authored
// content: same trigger, same question under discussion, rendered from the
// fallback templates.
func clarifyFallback(name, intent, field string) *Move {
	return &Move{
		Name:     name,
		Triggers: []string{intent},
		Context:  []state.ContextDirective{ctx(ContextTaskClarify, 1)},
		Suggestions: []string{
			"got it", "next",
		},
		When: func(s *state.InformationState, kb *knowledge.Book) bool {
			return s.CurrentStep() != state.NoStep && !s.StepAuthored(field)
		},
		Apply: func(s *state.InformationState, kb *knowledge.Book) {
			s.Shared.QUD = s.CurrentStep() + "_" + field
		},
	}
}

// closeClarification builds the rule that answers an acceptance by closing
// the open question under discussion.
func closeClarification(name, intent string) *Move {
	return &Move{
		Name:     name,
		Triggers: []string{intent},
		Context:  []state.ContextDirective{ctx(ContextTaskSteps, 5)},
		When: func(s *state.InformationState, kb *knowledge.Book) bool {
			return s.Shared.QUD != ""
		},
		Apply: func(s *state.InformationState, kb *knowledge.Book) {
			s.Shared.QUD = ""
		},
	}
}

// surface builds a preamble rule: when the named topic heads the preliminary
// queue, surface it and pop it.
func surface(name, topic string, triggers ...string) *Move {
	return &Move{
		Name:        name,
		Triggers:    triggers,
		Context:     []state.ContextDirective{ctx(ContextTaskSteps, 5)},
		Suggestions: []string{"next"},
		When: func(s *state.InformationState, kb *knowledge.Book) bool {
			return s.PendingPreliminary() == topic
		},
		Apply: func(s *state.InformationState, kb *knowledge.Book) {
			s.Private.Preliminaries = s.Private.Preliminaries[1:]
		},
	}
}

// Standard returns the standard rule set in registration order. Order is the
// whole conflict-resolution story: the selector fires the first rule whose
// preconditions hold, so rules competing for the same trigger must be listed
// most-specific first.
func Standard() []*Move {
	return []*Move{
		{
			Name:        ConfirmTask,
			Triggers:    []string{IntentStartTask},
			Context:     []state.ContextDirective{ctx(ContextTaskConfirm, 1)},
			Suggestions: []string{"next"},
			When: func(s *state.InformationState, kb *knowledge.Book) bool {
				if !knownTask(s, kb) {
					return false
				}
				// A task switch mid-activity only goes through the
				// explicit list/confirm path.
				return s.Shared.Beliefs.Task == "" || recentMove(s, SelectTask, 4)
			},
			Apply: func(s *state.InformationState, kb *knowledge.Book) {
				loadTask(s, kb, taskEntity(s))
			},
		},
		{
			Name:        ConfirmNoTask,
			Triggers:    []string{IntentStartTask},
			Suggestions: []string{"what can you make?"},
			When: func(s *state.InformationState, kb *knowledge.Book) bool {
				return !knownTask(s, kb)
			},
		},
		{
			Name:     DeclineNewTask,
			Triggers: []string{IntentStartTask},
			When: func(s *state.InformationState, kb *knowledge.Book) bool {
				return knownTask(s, kb) &&
					s.Shared.Beliefs.Task != "" &&
					!recentMove(s, SelectTask, 4)
			},
		},
		{
			Name:        OtherTask,
			Triggers:    []string{IntentSwitchTask},
			Context:     []state.ContextDirective{ctx(ContextTaskConfirm, 1)},
			Suggestions: []string{"next"},
			When: func(s *state.InformationState, kb *knowledge.Book) bool {
				last, _ := s.LastMove()
				return knownTask(s, kb) && last.Confidence >= 0.7
			},
			Apply: func(s *state.InformationState, kb *knowledge.Book) {
				loadTask(s, kb, taskEntity(s))
			},
		},
		{
			Name:        SelectTask,
			Triggers:    []string{IntentListTasks},
			Suggestions: []string{"start"},
		},

		surface(SurfaceDetermination, knowledge.PrelimDetermination, ConfirmTask, OtherTask),
		surface(SurfaceUtensils, knowledge.PrelimUtensils, ConfirmTask, OtherTask, IntentContinueTask),
		surface(SurfaceIngredients, knowledge.PrelimIngredients, ConfirmTask, OtherTask, IntentContinueTask),

		{
			Name:        InstructStep,
			Triggers:    []string{ConfirmTask, OtherTask, IntentContinueTask},
			Context:     []state.ContextDirective{ctx(ContextTaskSteps, 5)},
			Suggestions: []string{"next", "how?", "how much?", "why?"},
			When: func(s *state.InformationState, kb *knowledge.Book) bool {
				return len(s.Private.Preliminaries) == 0 && len(s.Private.Plan) > 1
			},
			Apply: func(s *state.InformationState, kb *knowledge.Book) {
				// The head is popped only once it has been rendered. Until a
				// first instruct happened after the task confirmation (the
				// same-turn cascade, or the first continue after the
				// preamble), the head must stay so the composer can show it.
				log := s.Shared.Moves
				for i := len(log) - 2; i >= 0; i-- {
					switch log[i].Move {
					case InstructStep, InstructPrevStep:
						popStep(s)
						return
					case ConfirmTask, OtherTask:
						return
					}
				}
			},
		},
		{
			Name:        InstructPrevStep,
			Triggers:    []string{IntentPreviousStep},
			Context:     []state.ContextDirective{ctx(ContextTaskSteps, 5)},
			Suggestions: []string{"next"},
			When: func(s *state.InformationState, kb *knowledge.Book) bool {
				return len(s.Private.Preliminaries) == 0 && prevStepID(s.CurrentStep()) != ""
			},
			Apply: func(s *state.InformationState, kb *knowledge.Book) {
				prev := prevStepID(s.CurrentStep())
				s.Private.Plan = append([]string{prev}, s.Private.Plan...)
			},
		},
		{
			Name:        InstructPrevFallback,
			Triggers:    []string{IntentPreviousStep},
			Suggestions: []string{"next"},
			When: func(s *state.InformationState, kb *knowledge.Book) bool {
				return len(s.Private.Preliminaries) > 0 || prevStepID(s.CurrentStep()) == ""
			},
		},

		clarify(ClarifyQuantity, IntentAskHowMuch, knowledge.FieldHowMuch),
		clarifyFallback(ClarifyQuantityFallback, IntentAskHowMuch, knowledge.FieldHowMuch),
		{
			Name:        ClarifyTechnique,
			Triggers:    []string{IntentAskHowTo},
			Context:     []state.ContextDirective{ctx(ContextTaskClarify, 1)},
			Suggestions: []string{"got it", "next"},
			When: func(s *state.InformationState, kb *knowledge.Book) bool {
				if len(s.Shared.Beliefs.Done) > 0 || s.Private.Agenda == "" {
					return false
				}
				recipe, ok := kb.Recipe(s.Private.Agenda)
				if !ok {
					return false
				}
				_, ok = recipe.Preliminaries[knowledge.PrelimDetermination]
				return ok
			},
			Apply: func(s *state.InformationState, kb *knowledge.Book) {
				s.Shared.QUD = knowledge.PrelimDetermination + "_" + knowledge.FieldHowTo
			},
		},
		clarify(ClarifyExplain, IntentAskHowTo, knowledge.FieldHowTo),
		clarifyFallback(ClarifyExplainFallback, IntentAskHowTo, knowledge.FieldHowTo),
		clarify(ClarifyDetail, IntentAskDetail, knowledge.FieldDetail),
		clarifyFallback(ClarifyDetailFallback, IntentAskDetail, knowledge.FieldDetail),
		clarify(ClarifyMotivate, IntentAskMotivate, knowledge.FieldMotivate),
		clarifyFallback(ClarifyMotivateFallback, IntentAskMotivate, knowledge.FieldMotivate),
		{
			Name:        ClarifyRepeat,
			Triggers:    []string{IntentAskRepeat},
			Context:     []state.ContextDirective{ctx(ContextTaskClarify, 1)},
			Suggestions: []string{"next"},
			When: func(s *state.InformationState, kb *knowledge.Book) bool {
				return s.CurrentStep() != state.NoStep
			},
			Apply: func(s *state.InformationState, kb *knowledge.Book) {
				s.Shared.QUD = s.CurrentStep() + "_repeat"
			},
		},

		closeClarification(CloseClarGratitude, IntentAcceptGratitude),
		closeClarification(CloseClarUnderstood, IntentAcceptUnderstood),
		closeClarification(CloseClarAcknowledged, IntentAcceptAcknowledged),

		{
			Name:        CloseTask,
			Triggers:    []string{IntentContinueTask, IntentEndTask},
			Context:     []state.ContextDirective{ctx(ContextTaskDone, 1)},
			Suggestions: []string{"thanks", "another recipe"},
			When: func(s *state.InformationState, kb *knowledge.Book) bool {
				return len(s.Private.Preliminaries) == 0 && len(s.Private.Plan) == 1
			},
		},
		{
			Name:           CloseActivity,
			Triggers:       []string{CloseTask, IntentContinueTask, IntentEndTask},
			TriggerClasses: []string{"close_clarification_"},
			When: func(s *state.InformationState, kb *knowledge.Book) bool {
				return s.Shared.Beliefs.Task != "" && len(s.Private.Plan) <= 1
			},
			Apply: func(s *state.InformationState, kb *knowledge.Book) {
				s.Private.Agenda = ""
				s.Private.Plan = nil
				s.Private.PlanWide = make(map[string][]string)
				s.Private.Explanations = make(map[string]knowledge.Step)
				s.Private.Preliminaries = nil
				s.Shared.Beliefs.Task = ""
				s.Shared.QUD = ""
			},
		},
	}
}
