package effectors

import (
	"strings"
	"testing"

	"souschef/internal/dialogue"
)

func TestBuildContentTextOnly(t *testing.T) {
	got := buildContent(dialogue.Response{Text: "Whisk the batter."})
	if got != "Whisk the batter." {
		t.Errorf("content = %q", got)
	}
}

func TestBuildContentWithImageAndSuggestions(t *testing.T) {
	got := buildContent(dialogue.Response{
		Text:        "Whisk the batter.",
		Image:       "https://example.com/batter.jpg",
		Suggestions: []string{"next", "how much?"},
	})
	lines := strings.Split(got, "\n")
	if len(lines) != 3 {
		t.Fatalf("content = %q, want three lines", got)
	}
	if lines[1] != "https://example.com/batter.jpg" {
		t.Errorf("image line = %q", lines[1])
	}
	if !strings.Contains(lines[2], "next, how much?") {
		t.Errorf("suggestion line = %q", lines[2])
	}
}
