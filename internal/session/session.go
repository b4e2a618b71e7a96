// Package session keys live conversations by an opaque id so one process can
// serve many users. Each conversation owns its information state and a lock
// that serializes its turns; the registry map itself has its own lock.
package session

import (
	"sync"

	"github.com/google/uuid"

	"souschef/internal/dialogue"
	"souschef/internal/logging"
	"souschef/internal/state"
)

// Conversation is one user's dialogue: the state plus a turn lock.
type Conversation struct {
	mu sync.Mutex
	st *state.InformationState
}

// Turn applies one utterance under the conversation lock.
func (c *Conversation) Turn(m *dialogue.Manager, req dialogue.Request) dialogue.Response {
	c.mu.Lock()
	defer c.mu.Unlock()
	return m.Turn(c.st, req)
}

// Reset clears the conversation back to the initial state.
func (c *Conversation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.st.Reset()
}

// Registry holds all live conversations.
type Registry struct {
	mu            sync.Mutex
	conversations map[string]*Conversation
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{conversations: make(map[string]*Conversation)}
}

// Get returns the conversation for the id, creating it on first use. An
// empty id gets a fresh generated one; the id actually used is returned so
// the caller can hand it back to the client.
func (r *Registry) Get(id string) (*Conversation, string) {
	if id == "" {
		id = uuid.NewString()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[id]
	if !ok {
		c = &Conversation{st: state.New()}
		r.conversations[id] = c
		logging.Debug("session", "new conversation %s (%d live)", id, len(r.conversations))
	}
	return c, id
}

// Reset clears the conversation for the id if it exists.
func (r *Registry) Reset(id string) bool {
	r.mu.Lock()
	c, ok := r.conversations[id]
	r.mu.Unlock()
	if ok {
		c.Reset()
	}
	return ok
}

// Len reports the number of live conversations.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conversations)
}
