package agent

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/freeeve/openforest/pkg/wire"
)

// Server adapts a BotFunc to the HTTP /act transport. Commitments
// persist across requests, so one Server must serve a whole match.
type Server struct {
	bot BotFunc

	mu      sync.Mutex
	pending map[int]pendingReveal
}

// NewServer wraps bot as an /act endpoint handler.
func NewServer(bot BotFunc) *Server {
	return &Server{bot: bot, pending: make(map[int]pendingReveal)}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req wire.ActRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, wire.ErrorReply{Error: "bad_request"})
		return
	}

	switch req.Phase {
	case wire.PhaseCommit:
		p, hash := commitActions(s.bot(decodeObservation(req.Observation)))
		s.mu.Lock()
		s.pending[req.Tick] = p
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, wire.CommitReply{Commit: hash})
	case wire.PhaseReveal:
		s.mu.Lock()
		p, ok := s.pending[req.Tick]
		delete(s.pending, req.Tick)
		s.mu.Unlock()
		if !ok {
			p = pendingReveal{actions: emptyActions}
		}
		writeJSON(w, http.StatusOK, wire.RevealReply{Actions: p.actions, Nonce: p.nonce})
	default:
		writeJSON(w, http.StatusOK, wire.ErrorReply{Error: "unknown_phase"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
