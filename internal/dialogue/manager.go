package dialogue

import (
	"souschef/internal/compose"
	"souschef/internal/knowledge"
	"souschef/internal/logging"
	"souschef/internal/moves"
	"souschef/internal/state"
)

// Request is one recognized user utterance: the move it maps to, the raw
// text, extracted entities and the recognizer's confidence. A zero confidence
// is treated as full confidence so callers without a scoring recognizer are
// not locked out of confidence-gated moves.
type Request struct {
	Move       string
	Text       string
	Entities   map[string]string
	Confidence float64
}

// Response is the agent's side of the turn.
type Response struct {
	Text        string
	Image       string
	Moves       []string
	Suggestions []string
	Context     []state.ContextDirective
}

// Manager is the turn controller: stateless itself, it applies turns to the
// information state handed to it. One manager serves all conversations.
type Manager struct {
	book     *knowledge.Book
	selector *Selector
	composer *compose.Composer
}

// NewManager wires a turn controller over the given knowledge and rule set.
func NewManager(book *knowledge.Book, bank knowledge.PhraseBank, rules []*moves.Move, picker compose.Picker) *Manager {
	return &Manager{
		book:     book,
		selector: NewSelector(rules),
		composer: compose.New(book, bank, picker),
	}
}

// Turn applies one user utterance to the conversation state and returns the
// agent's reply. Selection and composition failures never surface to the
// user: the reply degrades to the generic fallback and the cause is logged.
// The delivery buffers are drained exactly once per turn, on every path.
func (m *Manager) Turn(s *state.InformationState, req Request) Response {
	confidence := req.Confidence
	if confidence == 0 {
		confidence = 1
	}
	s.RecordUtterance(state.SpeakerUser, req.Move, confidence, req.Entities, req.Text)
	s.SetSpeaker(state.SpeakerAgent)

	fired, err := m.selector.Run(s, m.book)
	var result compose.Result
	if err != nil {
		logging.Warn("dialogue", "selection aborted: %v", err)
		result = compose.Result{Text: m.composer.Fallback()}
	} else {
		result, err = m.composer.Compose(s, s.AgentMovesSinceLastUser())
		if err != nil {
			logging.Warn("dialogue", "composition failed: %v", err)
			result = compose.Result{Text: m.composer.Fallback()}
		}
	}
	s.RecordAgentText(result.Text)

	logging.Debug("dialogue", "move %s -> %v: %s", req.Move, fired, logging.Truncate(result.Text, 80))
	return Response{
		Text:        result.Text,
		Image:       result.Image,
		Moves:       fired,
		Suggestions: s.DrainSuggestions(),
		Context:     s.DrainContext(),
	}
}
