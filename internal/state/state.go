// Package state holds the information state of one conversation: the agent's
// private plan and the shared record both speakers can be assumed to know.
// The layout follows the Larsson/Traum information-state tradition: a private
// side (agenda, plan, per-step knowledge, pending preliminaries) and a shared
// side (beliefs, question under discussion, turn logs, delivery buffers).
package state

import "souschef/internal/knowledge"

// Speaker markers for the turn log.
const (
	SpeakerUser  = "U"
	SpeakerAgent = "A"
)

// NoStep is returned by CurrentStep when the plan is empty.
const NoStep = ""

// ContextDirective is an intent-recognition context handed to the dialogue
// platform along with an utterance: a name, a lifespan in turns, and tuning
// parameters (e.g. no-input / no-match weights).
type ContextDirective struct {
	Name     string
	Lifespan int
	Params   map[string]float64
}

// LoggedMove is one entry of the shared move log.
type LoggedMove struct {
	Speaker    string
	Move       string
	Confidence float64
}

// Beliefs is the shared picture of task progress.
type Beliefs struct {
	Done []string // step ids instructed so far, in order
	Task string   // active task name, or ""
}

// Private is the agent-side information state.
type Private struct {
	Agenda        string                    // task currently pursued, or ""
	Plan          []string                  // remaining step ids, head = current step
	PlanWide      map[string][]string       // step id -> authored clarification fields
	Explanations  map[string]knowledge.Step // step id -> step record from the knowledge base
	Preliminaries []string                  // pending preamble topics, in surfacing order
}

// Shared is the information state both speakers can be aware of.
type Shared struct {
	Beliefs      Beliefs
	QUD          string // open clarification topic ("<step>_<kind>"), or ""
	Conversation []string
	Moves        []LoggedMove
	Entities     []map[string]string
	Context      []ContextDirective // write-then-drain
	Suggestions  []string           // write-then-drain
	LastSpeaker  string
}

// InformationState is the single source of truth for one conversation.
type InformationState struct {
	Private Private
	Shared  Shared
}

// New returns an empty information state; the agent is considered the last
// speaker until the first utterance is recorded.
func New() *InformationState {
	s := &InformationState{}
	s.init()
	return s
}

func (s *InformationState) init() {
	s.Private = Private{
		PlanWide:     make(map[string][]string),
		Explanations: make(map[string]knowledge.Step),
	}
	s.Shared = Shared{
		LastSpeaker: SpeakerAgent,
	}
}

// Reset restores the initial empty state, used when a task is abandoned and a
// new one begins.
func (s *InformationState) Reset() {
	s.init()
}

// RecordUtterance appends one turn contribution to the parallel logs and sets
// the last speaker.
func (s *InformationState) RecordUtterance(speaker, move string, confidence float64, entities map[string]string, text string) {
	s.Shared.LastSpeaker = speaker
	s.Shared.Moves = append(s.Shared.Moves, LoggedMove{Speaker: speaker, Move: move, Confidence: confidence})
	s.Shared.Entities = append(s.Shared.Entities, entities)
	s.Shared.Conversation = append(s.Shared.Conversation, text)
}

// RecordAgentText appends the agent's rendered utterance to the conversation
// log. The agent's moves were already logged one by one by their effects.
func (s *InformationState) RecordAgentText(text string) {
	s.Shared.Conversation = append(s.Shared.Conversation, text)
}

// SetSpeaker marks who acts next; move effects log under this marker.
func (s *InformationState) SetSpeaker(speaker string) {
	s.Shared.LastSpeaker = speaker
}

// LastMove returns the most recent move log entry, or false on an empty log.
func (s *InformationState) LastMove() (LoggedMove, bool) {
	if len(s.Shared.Moves) == 0 {
		return LoggedMove{}, false
	}
	return s.Shared.Moves[len(s.Shared.Moves)-1], true
}

// LastEntities returns the entity map of the most recent utterance.
func (s *InformationState) LastEntities() map[string]string {
	if len(s.Shared.Entities) == 0 {
		return nil
	}
	return s.Shared.Entities[len(s.Shared.Entities)-1]
}

// AgentMovesSinceLastUser scans the move log backward to the most recent
// user-authored entry and returns every move logged after it, in order. This
// is how the composer learns what the agent decided to say this turn. Returns
// nil when no user entry exists yet.
func (s *InformationState) AgentMovesSinceLastUser() []string {
	last := -1
	for i := len(s.Shared.Moves) - 1; i >= 0; i-- {
		if s.Shared.Moves[i].Speaker == SpeakerUser {
			last = i
			break
		}
	}
	if last == -1 {
		return nil
	}
	var moves []string
	for _, m := range s.Shared.Moves[last+1:] {
		moves = append(moves, m.Move)
	}
	return moves
}

// CurrentStep returns the head of the plan, or NoStep when the plan is empty.
func (s *InformationState) CurrentStep() string {
	if len(s.Private.Plan) == 0 {
		return NoStep
	}
	return s.Private.Plan[0]
}

// StepAuthored reports whether the given clarification field is authored for
// the current step.
func (s *InformationState) StepAuthored(field string) bool {
	step := s.CurrentStep()
	if step == NoStep {
		return false
	}
	for _, f := range s.Private.PlanWide[step] {
		if f == field {
			return true
		}
	}
	return false
}

// PendingPreliminary returns the preamble topic to surface next, or "".
func (s *InformationState) PendingPreliminary() string {
	if len(s.Private.Preliminaries) == 0 {
		return ""
	}
	return s.Private.Preliminaries[0]
}

// HasPreliminary reports whether the topic is still pending.
func (s *InformationState) HasPreliminary(topic string) bool {
	for _, t := range s.Private.Preliminaries {
		if t == topic {
			return true
		}
	}
	return false
}

// AppendContext stages context directives for delivery with this turn.
func (s *InformationState) AppendContext(directives ...ContextDirective) {
	s.Shared.Context = append(s.Shared.Context, directives...)
}

// AppendSuggestions stages reply suggestions for delivery with this turn.
func (s *InformationState) AppendSuggestions(suggestions ...string) {
	s.Shared.Suggestions = append(s.Shared.Suggestions, suggestions...)
}

// DrainContext returns the staged context directives and empties the buffer,
// guaranteeing at-most-once delivery per turn.
func (s *InformationState) DrainContext() []ContextDirective {
	out := s.Shared.Context
	s.Shared.Context = nil
	return out
}

// DrainSuggestions returns the staged suggestions and empties the buffer.
func (s *InformationState) DrainSuggestions() []string {
	out := s.Shared.Suggestions
	s.Shared.Suggestions = nil
	return out
}
