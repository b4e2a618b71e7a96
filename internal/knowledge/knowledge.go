// Package knowledge holds the agent's read-only content: the recipe book the
// agent can instruct and the phrase bank it draws utterance templates from.
// Both are loaded from JSON once at startup and shared, immutable, across all
// conversations.
package knowledge

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"

	"souschef/internal/logging"
)

// Clarification field names on a step. The move rule set checks these to decide
// between a real clarification and its fallback.
const (
	FieldInstruction = "instruction"
	FieldHowMuch     = "howmuch"
	FieldHowTo       = "howto"
	FieldDetail      = "detail"
	FieldMotivate    = "motivate"
)

// Preliminary topic names, in the order they are surfaced before step-by-step
// instruction begins.
const (
	PrelimDetermination = "determination"
	PrelimUtensils      = "cooking_utensils"
	PrelimIngredients   = "ingredients"
)

// Step is one instruction step of a recipe with its optional clarifications.
type Step struct {
	Instruction string `json:"instruction"`
	HowMuch     string `json:"howmuch,omitempty"`
	HowTo       string `json:"howto,omitempty"`
	Detail      string `json:"detail,omitempty"`
	Motivate    string `json:"motivate,omitempty"`
	Image       string `json:"image,omitempty"`
}

// Field returns the named clarification field, or "" if unauthored.
func (s Step) Field(name string) string {
	switch name {
	case FieldInstruction:
		return s.Instruction
	case FieldHowMuch:
		return s.HowMuch
	case FieldHowTo:
		return s.HowTo
	case FieldDetail:
		return s.Detail
	case FieldMotivate:
		return s.Motivate
	}
	return ""
}

// AuthoredFields lists which clarification fields have content, used to build
// the per-step plan-wide knowledge in the information state.
func (s Step) AuthoredFields() []string {
	var fields []string
	for _, name := range []string{FieldInstruction, FieldHowMuch, FieldHowTo, FieldDetail, FieldMotivate} {
		if s.Field(name) != "" {
			fields = append(fields, name)
		}
	}
	return fields
}

// Preliminary is a preamble section of a recipe: the cooking technique to
// settle on, the utensils to lay out, or the ingredients to gather.
type Preliminary struct {
	Items []string `json:"items"`
	Text  string   `json:"text,omitempty"`
	Image string   `json:"image,omitempty"`
}

// Recipe is an ordered set of steps plus its preamble sections.
type Recipe struct {
	Steps         map[string]Step        `json:"steps"`
	Preliminaries map[string]Preliminary `json:"preliminaries,omitempty"`
}

// StepOrder returns the step ids sorted numerically ("1", "2", ... "10").
func (r Recipe) StepOrder() []string {
	ids := make([]string, 0, len(r.Steps))
	for id := range r.Steps {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, _ := strconv.Atoi(ids[i])
		b, _ := strconv.Atoi(ids[j])
		return a < b
	})
	return ids
}

// PreliminaryOrder returns the recipe's pending preamble topics in surfacing
// order: technique determination, then utensils, then ingredients. Topics the
// recipe does not define are skipped.
func (r Recipe) PreliminaryOrder() []string {
	var order []string
	for _, topic := range []string{PrelimDetermination, PrelimUtensils, PrelimIngredients} {
		if _, ok := r.Preliminaries[topic]; ok {
			order = append(order, topic)
		}
	}
	return order
}

// Book is the loaded recipe knowledge base.
type Book struct {
	Recipes map[string]Recipe `json:"Recipe"`
}

// Recipe looks up a recipe by name.
func (b *Book) Recipe(name string) (Recipe, bool) {
	r, ok := b.Recipes[name]
	return r, ok
}

// RecipeNames returns all recipe names, sorted for stable output.
func (b *Book) RecipeNames() []string {
	names := make([]string, 0, len(b.Recipes))
	for name := range b.Recipes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadBook reads and validates a recipe book from a JSON file.
func LoadBook(path string) (*Book, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recipe book: %w", err)
	}

	var book Book
	if err := json.Unmarshal(data, &book); err != nil {
		return nil, fmt.Errorf("failed to parse recipe book: %w", err)
	}

	if len(book.Recipes) == 0 {
		return nil, fmt.Errorf("recipe book %s contains no recipes", path)
	}
	for name, recipe := range book.Recipes {
		if len(recipe.Steps) == 0 {
			return nil, fmt.Errorf("recipe %q has no steps", name)
		}
		for id, step := range recipe.Steps {
			if step.Instruction == "" {
				return nil, fmt.Errorf("recipe %q step %q has no instruction text", name, id)
			}
		}
	}

	logging.Info("knowledge", "Loaded %d recipes from %s", len(book.Recipes), path)
	return &book, nil
}
