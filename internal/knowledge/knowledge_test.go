package knowledge

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadBook(t *testing.T) {
	path := writeFile(t, "recipes.json", `{
		"Recipe": {
			"soup": {
				"steps": {
					"1": {"instruction": "Chop the onions.", "howmuch": "Two onions."},
					"2": {"instruction": "Simmer for an hour."}
				},
				"preliminaries": {
					"ingredients": {"items": ["onions", "stock"]}
				}
			}
		}
	}`)

	book, err := LoadBook(path)
	if err != nil {
		t.Fatal(err)
	}
	recipe, ok := book.Recipe("soup")
	if !ok {
		t.Fatal("soup not loaded")
	}
	if got := recipe.StepOrder(); !reflect.DeepEqual(got, []string{"1", "2"}) {
		t.Errorf("step order = %v", got)
	}
	if got := recipe.PreliminaryOrder(); !reflect.DeepEqual(got, []string{PrelimIngredients}) {
		t.Errorf("preliminary order = %v", got)
	}
}

func TestLoadBookRejectsBadData(t *testing.T) {
	cases := map[string]string{
		"no recipes":     `{"Recipe": {}}`,
		"no steps":       `{"Recipe": {"soup": {"steps": {}}}}`,
		"no instruction": `{"Recipe": {"soup": {"steps": {"1": {"howmuch": "two"}}}}}`,
		"not json":       `{`,
	}
	for name, content := range cases {
		if _, err := LoadBook(writeFile(t, "recipes.json", content)); err == nil {
			t.Errorf("%s: accepted", name)
		}
	}
	if _, err := LoadBook(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("missing file: accepted")
	}
}

func TestStepOrderIsNumeric(t *testing.T) {
	recipe := Recipe{Steps: map[string]Step{
		"10": {Instruction: "j"}, "2": {Instruction: "b"}, "1": {Instruction: "a"},
	}}
	if got := recipe.StepOrder(); !reflect.DeepEqual(got, []string{"1", "2", "10"}) {
		t.Errorf("step order = %v, want numeric, not lexicographic", got)
	}
}

func TestPreliminaryOrderIsFixed(t *testing.T) {
	recipe := Recipe{Preliminaries: map[string]Preliminary{
		PrelimIngredients:   {Items: []string{"eggs"}},
		PrelimDetermination: {Text: "low heat"},
	}}
	want := []string{PrelimDetermination, PrelimIngredients}
	if got := recipe.PreliminaryOrder(); !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestAuthoredFields(t *testing.T) {
	step := Step{Instruction: "Chop.", HowTo: "Small cubes.", Image: "chop.jpg"}
	want := []string{FieldInstruction, FieldHowTo}
	if got := step.AuthoredFields(); !reflect.DeepEqual(got, want) {
		t.Errorf("fields = %v, want %v (image is not a clarification)", got, want)
	}
	if step.Field(FieldHowTo) != "Small cubes." {
		t.Errorf("Field(howto) = %q", step.Field(FieldHowTo))
	}
	if step.Field("nonsense") != "" {
		t.Error("unknown field not empty")
	}
}

func TestLoadPhraseBank(t *testing.T) {
	path := writeFile(t, "responses.json", `{
		"new_step": {"regular": ["Step [step]:"], "first": ["Let's start:"]},
		"not_understood": {"regular": ["Sorry?"]}
	}`)
	bank, err := LoadPhraseBank(path)
	if err != nil {
		t.Fatal(err)
	}
	group, ok := bank.Group(GroupNewStep)
	if !ok || len(group.First) != 1 {
		t.Errorf("group = %+v ok = %v", group, ok)
	}
}

func TestLoadPhraseBankRejectsEmptyRegular(t *testing.T) {
	path := writeFile(t, "responses.json", `{"new_step": {"fallback": ["x"]}}`)
	if _, err := LoadPhraseBank(path); err == nil {
		t.Error("group without regular variants accepted")
	}
}

// The shipped data files must satisfy the same validation, and the phrase
// bank must cover every group the composer can ask for.
func TestShippedDataFiles(t *testing.T) {
	book, err := LoadBook(filepath.Join("..", "..", "data", "recipes.json"))
	if err != nil {
		t.Fatal(err)
	}
	if len(book.RecipeNames()) < 2 {
		t.Errorf("recipes = %v", book.RecipeNames())
	}

	bank, err := LoadPhraseBank(filepath.Join("..", "..", "data", "responses.json"))
	if err != nil {
		t.Fatal(err)
	}
	groups := []string{
		GroupConfirmTask, GroupNoTask, GroupTaskInProgress, GroupOtherTask,
		GroupListTasks, GroupNewStep, GroupFirstStepReached, GroupStepQuantity,
		GroupExplainStep, GroupDetailStep, GroupMotivateStep, GroupRepeatStep,
		GroupExplainTechnique, GroupIntroTechnique, GroupIntroUtensils,
		GroupIntroIngredients, GroupAcceptGratitude, GroupAcceptUnderstood,
		GroupAcceptAcknowledged, GroupConfirmEndTask, GroupCloseActivity,
		GroupNotUnderstood,
	}
	for _, name := range groups {
		if _, ok := bank.Group(name); !ok {
			t.Errorf("shipped bank lacks group %q", name)
		}
	}
	for _, name := range []string{GroupStepQuantity, GroupExplainStep, GroupDetailStep, GroupMotivateStep} {
		group, _ := bank.Group(name)
		if len(group.Fallback) == 0 {
			t.Errorf("shipped group %q lacks fallback variants", name)
		}
	}
}
