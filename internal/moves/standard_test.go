package moves

import (
	"reflect"
	"testing"

	"souschef/internal/knowledge"
	"souschef/internal/state"
)

func testBook() *knowledge.Book {
	return &knowledge.Book{Recipes: map[string]knowledge.Recipe{
		"pancakes": {
			Steps: map[string]knowledge.Step{
				"1": {Instruction: "Whisk the flour, milk and eggs into a smooth batter.", HowMuch: "Use 200 grams of flour and 300 ml of milk."},
				"2": {Instruction: "Heat a little butter in a frying pan.", HowTo: "Keep the pan on medium heat so the butter does not brown."},
				"3": {Instruction: "Serve the pancakes with syrup."},
			},
		},
		"shakshuka": {
			Steps: map[string]knowledge.Step{
				"1": {Instruction: "Soften the onions and peppers in olive oil."},
				"2": {Instruction: "Crack the eggs into the sauce and cover the pan."},
			},
			Preliminaries: map[string]knowledge.Preliminary{
				knowledge.PrelimDetermination: {Items: []string{"simmering"}, Text: "This dish is done in one pan over low heat."},
				knowledge.PrelimIngredients:   {Items: []string{"eggs", "tomatoes", "onions"}},
			},
		},
	}}
}

// runRules mimics the selector's greedy loop: scan in order, fire the first
// rule whose preconditions hold, restart until a full pass fires nothing.
func runRules(t *testing.T, s *state.InformationState, kb *knowledge.Book) []string {
	t.Helper()
	rules := Standard()
	var fired []string
	for i := 0; i < 4*len(rules); i++ {
		hit := false
		for _, m := range rules {
			if m.Preconditions(s, kb) {
				m.Effects(s, kb)
				fired = append(fired, m.Name)
				hit = true
				break
			}
		}
		if !hit {
			return fired
		}
	}
	t.Fatalf("rule set did not reach a fixpoint, fired: %v", fired)
	return nil
}

func userTurn(s *state.InformationState, move string, entities map[string]string) {
	s.RecordUtterance(state.SpeakerUser, move, 1, entities, "")
	s.SetSpeaker(state.SpeakerAgent)
}

func TestConfirmTaskLoadsPlan(t *testing.T) {
	kb := testBook()
	s := state.New()
	userTurn(s, IntentStartTask, map[string]string{EntityTask: "pancakes"})

	fired := runRules(t, s, kb)
	want := []string{ConfirmTask, InstructStep}
	if !reflect.DeepEqual(fired, want) {
		t.Fatalf("fired = %v, want %v", fired, want)
	}
	if s.Shared.Beliefs.Task != "pancakes" || s.Private.Agenda != "pancakes" {
		t.Errorf("task not bound: beliefs=%q agenda=%q", s.Shared.Beliefs.Task, s.Private.Agenda)
	}
	// The chained instruct must leave the first step at the head.
	if got := s.CurrentStep(); got != "1" {
		t.Errorf("current step = %q, want 1", got)
	}
	if len(s.Shared.Beliefs.Done) != 0 {
		t.Errorf("done = %v, want empty on the confirming turn", s.Shared.Beliefs.Done)
	}
}

func TestConfirmTaskNormalizesEntity(t *testing.T) {
	kb := testBook()
	s := state.New()
	userTurn(s, IntentStartTask, map[string]string{EntityTask: "  Pancakes "})

	fired := runRules(t, s, kb)
	if len(fired) == 0 || fired[0] != ConfirmTask {
		t.Fatalf("fired = %v, want confirm_task first", fired)
	}
}

func TestConfirmNoTaskOnUnknownRecipe(t *testing.T) {
	kb := testBook()
	s := state.New()
	userTurn(s, IntentStartTask, map[string]string{EntityTask: "lasagna"})

	fired := runRules(t, s, kb)
	want := []string{ConfirmNoTask}
	if !reflect.DeepEqual(fired, want) {
		t.Fatalf("fired = %v, want %v", fired, want)
	}
	if s.Shared.Beliefs.Task != "" {
		t.Errorf("no task should be bound, got %q", s.Shared.Beliefs.Task)
	}
}

func TestDeclineNewTaskWhileActive(t *testing.T) {
	kb := testBook()
	s := state.New()
	userTurn(s, IntentStartTask, map[string]string{EntityTask: "pancakes"})
	runRules(t, s, kb)

	userTurn(s, IntentStartTask, map[string]string{EntityTask: "shakshuka"})
	fired := runRules(t, s, kb)
	want := []string{DeclineNewTask}
	if !reflect.DeepEqual(fired, want) {
		t.Fatalf("fired = %v, want %v", fired, want)
	}
	if s.Shared.Beliefs.Task != "pancakes" {
		t.Errorf("active task changed to %q", s.Shared.Beliefs.Task)
	}
}

func TestStartAfterListTasksIsAllowed(t *testing.T) {
	kb := testBook()
	s := state.New()
	userTurn(s, IntentStartTask, map[string]string{EntityTask: "pancakes"})
	runRules(t, s, kb)

	userTurn(s, IntentListTasks, nil)
	fired := runRules(t, s, kb)
	if !reflect.DeepEqual(fired, []string{SelectTask}) {
		t.Fatalf("fired = %v, want select_task", fired)
	}

	userTurn(s, IntentStartTask, map[string]string{EntityTask: "shakshuka"})
	fired = runRules(t, s, kb)
	if len(fired) == 0 || fired[0] != ConfirmTask {
		t.Fatalf("fired = %v, want confirm_task first after listing", fired)
	}
	if s.Shared.Beliefs.Task != "shakshuka" {
		t.Errorf("task = %q, want shakshuka", s.Shared.Beliefs.Task)
	}
}

func TestInstructStepPopsExactlyOne(t *testing.T) {
	kb := testBook()
	s := state.New()
	userTurn(s, IntentStartTask, map[string]string{EntityTask: "pancakes"})
	runRules(t, s, kb)

	userTurn(s, IntentContinueTask, nil)
	fired := runRules(t, s, kb)
	if !reflect.DeepEqual(fired, []string{InstructStep}) {
		t.Fatalf("fired = %v, want instruct_step", fired)
	}
	if got := s.CurrentStep(); got != "2" {
		t.Errorf("current step = %q, want 2", got)
	}
	if !reflect.DeepEqual(s.Shared.Beliefs.Done, []string{"1"}) {
		t.Errorf("done = %v, want [1]", s.Shared.Beliefs.Done)
	}
}

func TestPreliminariesSurfaceBeforeSteps(t *testing.T) {
	kb := testBook()
	s := state.New()
	userTurn(s, IntentStartTask, map[string]string{EntityTask: "shakshuka"})

	fired := runRules(t, s, kb)
	if !reflect.DeepEqual(fired, []string{ConfirmTask, SurfaceDetermination}) {
		t.Fatalf("fired = %v, want confirm then determination", fired)
	}

	userTurn(s, IntentContinueTask, nil)
	fired = runRules(t, s, kb)
	if !reflect.DeepEqual(fired, []string{SurfaceIngredients}) {
		t.Fatalf("fired = %v, want ingredients next", fired)
	}

	userTurn(s, IntentContinueTask, nil)
	fired = runRules(t, s, kb)
	if !reflect.DeepEqual(fired, []string{InstructStep}) {
		t.Fatalf("fired = %v, want instruct_step after preamble", fired)
	}
	if got := s.CurrentStep(); got != "1" {
		t.Errorf("current step = %q, want 1 on first instruct", got)
	}
	if len(s.Shared.Beliefs.Done) != 0 {
		t.Errorf("done = %v, want empty after first instruct following preamble", s.Shared.Beliefs.Done)
	}
}

func TestPreviousStepReinsertsHead(t *testing.T) {
	kb := testBook()
	s := state.New()
	userTurn(s, IntentStartTask, map[string]string{EntityTask: "pancakes"})
	runRules(t, s, kb)
	userTurn(s, IntentContinueTask, nil)
	runRules(t, s, kb) // now at step 2

	userTurn(s, IntentPreviousStep, nil)
	fired := runRules(t, s, kb)
	if !reflect.DeepEqual(fired, []string{InstructPrevStep}) {
		t.Fatalf("fired = %v, want previous-step instruct", fired)
	}
	if !reflect.DeepEqual(s.Private.Plan, []string{"1", "2", "3"}) {
		t.Errorf("plan = %v, want [1 2 3]", s.Private.Plan)
	}
}

func TestPreviousStepFallbackAtFirstStep(t *testing.T) {
	kb := testBook()
	s := state.New()
	userTurn(s, IntentStartTask, map[string]string{EntityTask: "pancakes"})
	runRules(t, s, kb)

	userTurn(s, IntentPreviousStep, nil)
	fired := runRules(t, s, kb)
	if !reflect.DeepEqual(fired, []string{InstructPrevFallback}) {
		t.Fatalf("fired = %v, want fallback at step 1", fired)
	}
	if !reflect.DeepEqual(s.Private.Plan, []string{"1", "2", "3"}) {
		t.Errorf("plan = %v, want unchanged", s.Private.Plan)
	}
}

func TestClarifyAuthoredVersusFallback(t *testing.T) {
	kb := testBook()
	s := state.New()
	userTurn(s, IntentStartTask, map[string]string{EntityTask: "pancakes"})
	runRules(t, s, kb)

	// Step 1 has a quantity but no howto.
	userTurn(s, IntentAskHowMuch, nil)
	fired := runRules(t, s, kb)
	if !reflect.DeepEqual(fired, []string{ClarifyQuantity}) {
		t.Fatalf("fired = %v, want authored quantity clarification", fired)
	}
	if s.Shared.QUD != "1_howmuch" {
		t.Errorf("qud = %q, want 1_howmuch", s.Shared.QUD)
	}

	userTurn(s, IntentAskHowTo, nil)
	fired = runRules(t, s, kb)
	if !reflect.DeepEqual(fired, []string{ClarifyExplainFallback}) {
		t.Fatalf("fired = %v, want howto fallback", fired)
	}
	if s.Shared.QUD != "1_howto" {
		t.Errorf("qud = %q, want 1_howto", s.Shared.QUD)
	}
}

func TestTechniqueQuestionDuringPreamble(t *testing.T) {
	kb := testBook()
	s := state.New()
	userTurn(s, IntentStartTask, map[string]string{EntityTask: "shakshuka"})
	runRules(t, s, kb)

	userTurn(s, IntentAskHowTo, nil)
	fired := runRules(t, s, kb)
	if !reflect.DeepEqual(fired, []string{ClarifyTechnique}) {
		t.Fatalf("fired = %v, want technique explanation during preamble", fired)
	}
	if s.Shared.QUD != "determination_howto" {
		t.Errorf("qud = %q", s.Shared.QUD)
	}
}

func TestAcceptanceClosesClarification(t *testing.T) {
	kb := testBook()
	s := state.New()
	userTurn(s, IntentStartTask, map[string]string{EntityTask: "pancakes"})
	runRules(t, s, kb)
	userTurn(s, IntentAskHowMuch, nil)
	runRules(t, s, kb)

	userTurn(s, IntentAcceptGratitude, nil)
	fired := runRules(t, s, kb)
	if !reflect.DeepEqual(fired, []string{CloseClarGratitude}) {
		t.Fatalf("fired = %v, want close via gratitude", fired)
	}
	if s.Shared.QUD != "" {
		t.Errorf("qud = %q, want cleared", s.Shared.QUD)
	}
}

func TestAcceptanceWithoutOpenQuestionFiresNothing(t *testing.T) {
	kb := testBook()
	s := state.New()
	userTurn(s, IntentStartTask, map[string]string{EntityTask: "pancakes"})
	runRules(t, s, kb)

	userTurn(s, IntentAcceptUnderstood, nil)
	fired := runRules(t, s, kb)
	if len(fired) != 0 {
		t.Fatalf("fired = %v, want nothing", fired)
	}
}

func TestCloseTaskThenCloseActivity(t *testing.T) {
	kb := testBook()
	s := state.New()
	userTurn(s, IntentStartTask, map[string]string{EntityTask: "pancakes"})
	runRules(t, s, kb)
	userTurn(s, IntentContinueTask, nil)
	runRules(t, s, kb) // step 2
	userTurn(s, IntentContinueTask, nil)
	runRules(t, s, kb) // step 3, plan = [3]

	userTurn(s, IntentContinueTask, nil)
	fired := runRules(t, s, kb)
	want := []string{CloseTask, CloseActivity}
	if !reflect.DeepEqual(fired, want) {
		t.Fatalf("fired = %v, want %v", fired, want)
	}
	if s.Shared.Beliefs.Task != "" || s.Private.Agenda != "" {
		t.Errorf("task not cleared: beliefs=%q agenda=%q", s.Shared.Beliefs.Task, s.Private.Agenda)
	}
	if len(s.Private.Plan) != 0 {
		t.Errorf("plan = %v, want empty", s.Private.Plan)
	}
}

func TestCloseActivityAfterLastStepClarification(t *testing.T) {
	kb := testBook()
	s := state.New()
	userTurn(s, IntentStartTask, map[string]string{EntityTask: "pancakes"})
	runRules(t, s, kb)
	userTurn(s, IntentContinueTask, nil)
	runRules(t, s, kb)
	userTurn(s, IntentContinueTask, nil)
	runRules(t, s, kb) // plan = [3]
	userTurn(s, IntentAskRepeat, nil)
	runRules(t, s, kb)

	userTurn(s, IntentAcceptGratitude, nil)
	fired := runRules(t, s, kb)
	want := []string{CloseClarGratitude, CloseActivity}
	if !reflect.DeepEqual(fired, want) {
		t.Fatalf("fired = %v, want %v", fired, want)
	}
	if s.Shared.Beliefs.Task != "" {
		t.Errorf("task = %q, want cleared", s.Shared.Beliefs.Task)
	}
}

func TestContinueWithoutTaskFiresNothing(t *testing.T) {
	kb := testBook()
	s := state.New()
	userTurn(s, IntentContinueTask, nil)
	if fired := runRules(t, s, kb); len(fired) != 0 {
		t.Fatalf("fired = %v, want nothing without an active task", fired)
	}
}

func TestSwitchTaskNeedsConfidence(t *testing.T) {
	kb := testBook()
	s := state.New()
	userTurn(s, IntentStartTask, map[string]string{EntityTask: "pancakes"})
	runRules(t, s, kb)

	s.RecordUtterance(state.SpeakerUser, IntentSwitchTask, 0.4, map[string]string{EntityTask: "shakshuka"}, "")
	s.SetSpeaker(state.SpeakerAgent)
	if fired := runRules(t, s, kb); len(fired) != 0 {
		t.Fatalf("fired = %v, want nothing at low confidence", fired)
	}

	s.RecordUtterance(state.SpeakerUser, IntentSwitchTask, 0.9, map[string]string{EntityTask: "shakshuka"}, "")
	s.SetSpeaker(state.SpeakerAgent)
	fired := runRules(t, s, kb)
	if len(fired) == 0 || fired[0] != OtherTask {
		t.Fatalf("fired = %v, want other_task first", fired)
	}
	if s.Shared.Beliefs.Task != "shakshuka" {
		t.Errorf("task = %q, want shakshuka", s.Shared.Beliefs.Task)
	}
}

func TestEffectsStageContextAndSuggestions(t *testing.T) {
	kb := testBook()
	s := state.New()
	userTurn(s, IntentStartTask, map[string]string{EntityTask: "pancakes"})
	runRules(t, s, kb)

	ctxs := s.DrainContext()
	if len(ctxs) == 0 {
		t.Fatal("no context directives staged")
	}
	if ctxs[0].Name != ContextTaskConfirm || ctxs[0].Lifespan != 1 {
		t.Errorf("first directive = %+v", ctxs[0])
	}
	if sugg := s.DrainSuggestions(); len(sugg) == 0 {
		t.Error("no suggestions staged")
	}
	// Drained buffers stay empty until the next fire.
	if got := s.DrainContext(); len(got) != 0 {
		t.Errorf("second drain returned %v", got)
	}
}
