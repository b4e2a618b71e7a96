// Package webhook exposes the dialogue engine over HTTP: a native /turn
// endpoint for direct clients and a /webhook endpoint speaking the Dialogflow
// fulfillment shapes, so an NLU platform can drive the engine unchanged.
package webhook

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"souschef/internal/dialogue"
	"souschef/internal/logging"
	"souschef/internal/session"
	"souschef/internal/state"
)

// Server routes turn requests to per-conversation state.
type Server struct {
	mgr      *dialogue.Manager
	sessions *session.Registry
	mux      *http.ServeMux
}

// NewServer wires the endpoints over a shared manager and registry.
func NewServer(mgr *dialogue.Manager, sessions *session.Registry) *Server {
	s := &Server{mgr: mgr, sessions: sessions, mux: http.NewServeMux()}
	s.mux.HandleFunc("POST /turn", s.handleTurn)
	s.mux.HandleFunc("POST /webhook", s.handleDialogflow)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	return s
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	return s.mux
}

type contextJSON struct {
	Name     string             `json:"name"`
	Lifespan int                `json:"lifespan"`
	Params   map[string]float64 `json:"params"`
}

func contextsJSON(directives []state.ContextDirective) []contextJSON {
	out := make([]contextJSON, 0, len(directives))
	for _, d := range directives {
		out = append(out, contextJSON{Name: d.Name, Lifespan: d.Lifespan, Params: d.Params})
	}
	return out
}

// imageJSON encodes the image slot as either the image reference or false,
// never an empty string.
func imageJSON(image string) any {
	if image == "" {
		return false
	}
	return image
}

type turnRequest struct {
	ConversationID string            `json:"conversation_id"`
	Move           string            `json:"move"`
	Text           string            `json:"text"`
	Entities       map[string]string `json:"entities"`
	Confidence     float64           `json:"confidence"`
}

type turnResponse struct {
	ConversationID string        `json:"conversation_id"`
	Text           string        `json:"text"`
	Image          any           `json:"image"`
	Moves          []string      `json:"moves"`
	Suggestions    []string      `json:"suggestions"`
	Context        []contextJSON `json:"context"`
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	var req turnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if req.Move == "" {
		http.Error(w, "move is required", http.StatusBadRequest)
		return
	}

	conv, id := s.sessions.Get(req.ConversationID)
	resp := conv.Turn(s.mgr, dialogue.Request{
		Move:       req.Move,
		Text:       req.Text,
		Entities:   req.Entities,
		Confidence: req.Confidence,
	})

	writeJSON(w, turnResponse{
		ConversationID: id,
		Text:           resp.Text,
		Image:          imageJSON(resp.Image),
		Moves:          resp.Moves,
		Suggestions:    resp.Suggestions,
		Context:        contextsJSON(resp.Context),
	})
}

type dialogflowRequest struct {
	Session     string `json:"session"`
	QueryResult struct {
		QueryText  string         `json:"queryText"`
		Parameters map[string]any `json:"parameters"`
		Intent     struct {
			DisplayName string `json:"displayName"`
		} `json:"intent"`
		IntentDetectionConfidence float64 `json:"intentDetectionConfidence"`
	} `json:"queryResult"`
}

type dialogflowContext struct {
	Name          string             `json:"name"`
	LifespanCount int                `json:"lifespanCount"`
	Parameters    map[string]float64 `json:"parameters,omitempty"`
}

type dialogflowResponse struct {
	FulfillmentText string              `json:"fulfillmentText"`
	OutputContexts  []dialogflowContext `json:"outputContexts,omitempty"`
	Payload         map[string]any      `json:"payload"`
}

func (s *Server) handleDialogflow(w http.ResponseWriter, r *http.Request) {
	var req dialogflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	move := req.QueryResult.Intent.DisplayName
	if move == "" {
		http.Error(w, "queryResult.intent.displayName is required", http.StatusBadRequest)
		return
	}

	entities := make(map[string]string)
	for key, value := range req.QueryResult.Parameters {
		text := strings.TrimSpace(fmt.Sprintf("%v", value))
		if text != "" {
			entities[key] = text
		}
	}

	conv, id := s.sessions.Get(req.Session)
	resp := conv.Turn(s.mgr, dialogue.Request{
		Move:       move,
		Text:       req.QueryResult.QueryText,
		Entities:   entities,
		Confidence: req.QueryResult.IntentDetectionConfidence,
	})
	logging.Debug("webhook", "session %s intent %s -> %v", id, move, resp.Moves)

	contexts := make([]dialogflowContext, 0, len(resp.Context))
	for _, d := range resp.Context {
		contexts = append(contexts, dialogflowContext{
			Name:          fmt.Sprintf("%s/contexts/%s", id, d.Name),
			LifespanCount: d.Lifespan,
			Parameters:    d.Params,
		})
	}
	writeJSON(w, dialogflowResponse{
		FulfillmentText: resp.Text,
		OutputContexts:  contexts,
		Payload: map[string]any{
			"image":       imageJSON(resp.Image),
			"suggestions": resp.Suggestions,
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"status": "ok", "conversations": s.sessions.Len()})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("webhook", "failed to encode response: %v", err)
	}
}
