// Package dialogue runs one conversation turn: log the user's move, fire the
// rule set to a fixpoint, render the agent's reply and drain the delivery
// buffers.
package dialogue

import (
	"errors"
	"fmt"

	"souschef/internal/knowledge"
	"souschef/internal/logging"
	"souschef/internal/moves"
	"souschef/internal/state"
)

// ErrStuckDialogue means the rule set kept firing past the per-turn ceiling.
// Only a misconfigured rule set can cause it; the standard set always reaches
// a fixpoint.
var ErrStuckDialogue = errors.New("rule set did not reach a fixpoint")

// Selector fires rules greedily: scan the ordered set, fire the first rule
// whose preconditions hold, restart the scan from the top, stop when a full
// pass fires nothing.
type Selector struct {
	rules []*moves.Move
}

// NewSelector returns a selector over the given ordered rule set.
func NewSelector(rules []*moves.Move) *Selector {
	return &Selector{rules: rules}
}

// Run fires rules until the fixpoint and returns the fired move names in
// order. The fire count is capped at four times the rule-set size; hitting
// the cap aborts the turn with ErrStuckDialogue.
func (sel *Selector) Run(s *state.InformationState, kb *knowledge.Book) ([]string, error) {
	limit := 4 * len(sel.rules)
	var fired []string
	for {
		hit := false
		for _, m := range sel.rules {
			if m.Preconditions(s, kb) {
				m.Effects(s, kb)
				fired = append(fired, m.Name)
				logging.Debug("dialogue", "fired %s", m.Name)
				hit = true
				break
			}
		}
		if !hit {
			return fired, nil
		}
		if len(fired) > limit {
			return fired, fmt.Errorf("%w after %d fires", ErrStuckDialogue, len(fired))
		}
	}
}
