// Package intent maps free text to user moves with ordered regular
// expression rules loaded from YAML. Named capture groups become entities.
// This is the recognizer for surfaces that deliver raw text; surfaces backed
// by a full NLU platform hand moves over directly and skip it.
package intent

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"souschef/internal/dialogue"
	"souschef/internal/logging"
)

// Rule is one recognition rule: any of its patterns maps the text to Move.
type Rule struct {
	Move       string   `yaml:"move"`
	Patterns   []string `yaml:"patterns"`
	Confidence float64  `yaml:"confidence,omitempty"`

	compiled []*regexp.Regexp
}

// Matcher holds an ordered rule list; the first matching pattern wins.
type Matcher struct {
	rules []*Rule
}

// Load reads a rule file and compiles every pattern. Patterns match case
// insensitively against the whole utterance.
func Load(path string) (*Matcher, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read intent rules: %w", err)
	}

	var rules []*Rule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse intent rules: %w", err)
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("intent rule file %s contains no rules", path)
	}

	for _, rule := range rules {
		if rule.Move == "" {
			return nil, fmt.Errorf("intent rule without a move in %s", path)
		}
		if len(rule.Patterns) == 0 {
			return nil, fmt.Errorf("intent rule %q has no patterns", rule.Move)
		}
		if rule.Confidence == 0 {
			rule.Confidence = 1
		}
		for _, pattern := range rule.Patterns {
			re, err := regexp.Compile("(?i)" + pattern)
			if err != nil {
				return nil, fmt.Errorf("intent rule %q pattern %q: %w", rule.Move, pattern, err)
			}
			rule.compiled = append(rule.compiled, re)
		}
	}

	logging.Info("intent", "Loaded %d intent rules from %s", len(rules), path)
	return &Matcher{rules: rules}, nil
}

// Match recognizes one utterance. Named capture groups in the winning
// pattern become entities; an empty capture is omitted.
func (m *Matcher) Match(text string) (dialogue.Request, bool) {
	for _, rule := range m.rules {
		for _, re := range rule.compiled {
			groups := re.FindStringSubmatch(text)
			if groups == nil {
				continue
			}
			entities := make(map[string]string)
			for i, name := range re.SubexpNames() {
				if name != "" && groups[i] != "" {
					entities[name] = groups[i]
				}
			}
			return dialogue.Request{
				Move:       rule.Move,
				Text:       text,
				Entities:   entities,
				Confidence: rule.Confidence,
			}, true
		}
	}
	return dialogue.Request{Text: text}, false
}
