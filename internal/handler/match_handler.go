package handler

import (
	"net/http"
	"strconv"

	"github.com/freeeve/openforest/internal/repository"
	"github.com/freeeve/openforest/internal/service"
)

// MatchHandler handles match status and archive read endpoints.
type MatchHandler struct {
	match   *service.MatchService
	hub     *Hub
	matches repository.MatchRepository
	ticks   repository.TickRepository
	cache   repository.LiveCache
}

// NewMatchHandler creates a MatchHandler. The repositories and cache may
// be nil when the server runs without Postgres or Redis; the endpoints
// backed by them answer 503.
func NewMatchHandler(match *service.MatchService, hub *Hub, matches repository.MatchRepository, ticks repository.TickRepository, cache repository.LiveCache) *MatchHandler {
	return &MatchHandler{match: match, hub: hub, matches: matches, ticks: ticks, cache: cache}
}

// Status handles GET /status
func (h *MatchHandler) Status(w http.ResponseWriter, r *http.Request) {
	tick, matchTicks, players := h.match.Status()
	writeJSON(w, http.StatusOK, map[string]any{
		"tick":        tick,
		"match_ticks": matchTicks,
		"players":     players,
		"agents":      h.hub.ConnectionCount(),
		"spectators":  h.hub.SpectatorCount(),
	})
}

// ListMatches handles GET /api/matches
func (h *MatchHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	if h.matches == nil {
		writeError(w, http.StatusServiceUnavailable, "match archive not configured")
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}
	matches, err := h.matches.ListRecent(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if matches == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, matches)
}

// GetMatch handles GET /api/matches/{id}
func (h *MatchHandler) GetMatch(w http.ResponseWriter, r *http.Request) {
	if h.matches == nil {
		writeError(w, http.StatusServiceUnavailable, "match archive not configured")
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid match id")
		return
	}
	match, err := h.matches.FindByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if match == nil {
		writeError(w, http.StatusNotFound, "match not found")
		return
	}
	writeJSON(w, http.StatusOK, match)
}

// ScoreTimeline handles GET /api/matches/{id}/scores
func (h *MatchHandler) ScoreTimeline(w http.ResponseWriter, r *http.Request) {
	if h.ticks == nil {
		writeError(w, http.StatusServiceUnavailable, "match archive not configured")
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid match id")
		return
	}
	scores, err := h.ticks.ScoreTimeline(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if scores == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, scores)
}

// LiveSnapshot handles GET /api/matches/{id}/snapshot
func (h *MatchHandler) LiveSnapshot(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		writeError(w, http.StatusServiceUnavailable, "live cache not configured")
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid match id")
		return
	}
	snapshot, err := h.cache.GetSnapshot(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if snapshot == nil {
		writeError(w, http.StatusNotFound, "no live snapshot")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(snapshot)
}

// LiveObservation handles GET /api/matches/{id}/observations/{playerId}
func (h *MatchHandler) LiveObservation(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		writeError(w, http.StatusServiceUnavailable, "live cache not configured")
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid match id")
		return
	}
	playerID, err := strconv.Atoi(r.PathValue("playerId"))
	if err != nil || playerID < 0 {
		writeError(w, http.StatusBadRequest, "invalid player id")
		return
	}
	obs, err := h.cache.GetObservation(r.Context(), id, playerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if obs == nil {
		writeError(w, http.StatusNotFound, "no live observation")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(obs)
}
