package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/openforest/internal/model"
	"github.com/freeeve/openforest/internal/repository"
	"github.com/freeeve/openforest/pkg/openforest"
)

// MatchDeps wires a MatchService. State and Agents are required;
// everything else may be nil (or false) and the corresponding concern
// is skipped: no archive row, no score timeline, no live cache, no
// replay file, no spectator pushes, no wall-clock pacing.
type MatchDeps struct {
	State       *openforest.State
	Agents      []AgentConn
	Broadcaster Broadcaster
	Replay      *ReplayWriter
	Matches     repository.MatchRepository
	Ticks       repository.TickRepository
	Cache       repository.LiveCache
	Pace        bool
}

// MatchService owns one match from first observation to archive. The
// engine state is mutated only by Run's goroutine; handlers read
// progress through Status.
type MatchService struct {
	state       *openforest.State
	agents      []AgentConn
	coordinator *Coordinator
	broadcaster Broadcaster
	replay      *ReplayWriter
	matches     repository.MatchRepository
	ticksRepo   repository.TickRepository
	cache       repository.LiveCache
	pace        bool
	names       []string

	matchID int64

	mu   sync.RWMutex
	tick int
}

// NewMatchService creates a MatchService around a freshly generated
// engine state.
func NewMatchService(deps MatchDeps) *MatchService {
	broadcaster := deps.Broadcaster
	if broadcaster == nil {
		broadcaster = NoopBroadcaster{}
	}
	names := make([]string, len(deps.State.Players))
	for i := range deps.State.Players {
		names[i] = deps.State.Players[i].Name
	}
	cfg := deps.State.Config
	return &MatchService{
		state:       deps.State,
		agents:      deps.Agents,
		coordinator: NewCoordinator(cfg.CommitTimeoutMs, cfg.RevealTimeoutMs),
		broadcaster: broadcaster,
		replay:      deps.Replay,
		matches:     deps.Matches,
		ticksRepo:   deps.Ticks,
		cache:       deps.Cache,
		pace:        deps.Pace,
		names:       names,
	}
}

// Status reports the last completed tick, the configured match length,
// and the player names. Safe to call while the match runs.
func (s *MatchService) Status() (tick, matchTicks int, players []string) {
	s.mu.RLock()
	tick = s.tick
	s.mu.RUnlock()
	return tick, s.state.Config.MatchTicks, s.names
}

// MatchID returns the archive row id, or 0 when persistence is off.
func (s *MatchService) MatchID() int64 {
	return s.matchID
}

// Run drives the full match: observations at tick 0, then match_ticks
// commit-reveal rounds. Each round coordinates the agents, advances
// the engine, rebuilds per-player observations from the snapshot's
// scan lists, records the replay line, refreshes the live cache, and
// pushes state to spectators. Persistence failures are logged and
// skipped; only engine-side problems end the match early.
func (s *MatchService) Run(ctx context.Context) error {
	cfg := s.state.Config

	if s.matches != nil {
		replayPath := ""
		if s.replay != nil {
			replayPath = s.replay.Path()
		}
		m, err := s.matches.Create(ctx, cfg.Seed, cfg.MatchTicks, replayPath)
		if err != nil {
			return fmt.Errorf("create match record: %w", err)
		}
		s.matchID = m.ID
	}

	log.Info().Int64("matchId", s.matchID).Int64("seed", cfg.Seed).
		Int("ticks", cfg.MatchTicks).Int("players", len(s.names)).
		Msg("Match starting")

	observations := s.buildObservations(nil)

	for s.state.Tick < cfg.MatchTicks {
		if ctx.Err() != nil {
			return s.abort(ctx.Err())
		}
		roundStart := time.Now()
		tick := s.state.Tick

		verified := s.coordinator.RunRound(ctx, tick, s.agents, observations)
		if ctx.Err() != nil {
			return s.abort(ctx.Err())
		}

		actionsByPlayer := make(map[int][]openforest.Action, len(verified))
		for playerID, raw := range verified {
			actionsByPlayer[playerID] = openforest.DecodeActions(raw)
		}

		snapshot := s.state.AdvanceTick(actionsByPlayer)
		observations = s.buildObservations(snapshot.Scans)

		s.record(ctx, snapshot, observations, verified)

		s.mu.Lock()
		s.tick = s.state.Tick
		s.mu.Unlock()

		s.broadcaster.BroadcastState(snapshot.Tick, s.marshalWorld(), observations)

		if s.pace && cfg.TickMs > 0 {
			wait := time.Duration(cfg.TickMs)*time.Millisecond - time.Since(roundStart)
			if wait > 0 {
				select {
				case <-ctx.Done():
					return s.abort(ctx.Err())
				case <-time.After(wait):
				}
			}
		}
	}

	return s.finish()
}

// buildObservations marshals every player's fogged view. scans holds
// the planet ids revealed to each player during the tick that just
// resolved; nil means no scans (the initial round).
func (s *MatchService) buildObservations(scans map[int][]int) map[int]json.RawMessage {
	out := make(map[int]json.RawMessage, len(s.names))
	for playerID := range s.names {
		obs := s.state.ObservationFor(playerID, scans[playerID])
		raw, err := json.Marshal(obs)
		if err != nil {
			log.Error().Err(err).Int("playerId", playerID).Msg("Failed to marshal observation")
			continue
		}
		out[playerID] = raw
	}
	return out
}

func (s *MatchService) marshalWorld() json.RawMessage {
	raw, err := json.Marshal(s.state.OmniscientObservation())
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal world view")
		return nil
	}
	return raw
}

// record persists everything derived from one resolved tick: the
// replay line, the live cache entries, and the score timeline row per
// player. All of it is best-effort.
func (s *MatchService) record(ctx context.Context, snapshot *openforest.Snapshot, observations, actions map[int]json.RawMessage) {
	stateJSON, err := json.Marshal(snapshot)
	if err != nil {
		log.Error().Err(err).Int("tick", snapshot.Tick).Msg("Failed to marshal snapshot")
		return
	}

	if s.replay != nil {
		rec := &ReplayRecord{Tick: snapshot.Tick, State: stateJSON, Observations: observations, Actions: actions}
		if err := s.replay.WriteRecord(rec); err != nil {
			log.Error().Err(err).Int("tick", snapshot.Tick).Msg("Failed to write replay record")
		}
	}

	if s.cache != nil {
		if err := s.cache.SetSnapshot(ctx, s.matchID, stateJSON); err != nil {
			log.Warn().Err(err).Int("tick", snapshot.Tick).Msg("Failed to cache snapshot")
		}
		for playerID, obs := range observations {
			if err := s.cache.SetObservation(ctx, s.matchID, playerID, obs); err != nil {
				log.Warn().Err(err).Int("playerId", playerID).Msg("Failed to cache observation")
			}
		}
		if err := s.cache.SetTick(ctx, s.matchID, snapshot.Tick); err != nil {
			log.Warn().Err(err).Msg("Failed to cache tick counter")
		}
	}

	if s.ticksRepo != nil {
		scores := make([]model.TickScore, 0, len(snapshot.Scores))
		for _, sv := range snapshot.Scores {
			scores = append(scores, model.TickScore{
				MatchID:  s.matchID,
				Tick:     snapshot.Tick,
				PlayerID: sv.ID,
				Score:    sv.Score,
			})
		}
		if err := s.ticksRepo.SaveScores(ctx, scores); err != nil {
			log.Warn().Err(err).Int("tick", snapshot.Tick).Msg("Failed to save tick scores")
		}
	}
}

// finish closes the replay and archives the final standings.
func (s *MatchService) finish() error {
	results := s.Standings()

	winner := ""
	if len(results) > 0 {
		winner = results[0].PlayerName
	}
	log.Info().Int64("matchId", s.matchID).Int("ticks", s.state.Tick).
		Str("winner", winner).Msg("Match finished")

	if s.replay != nil {
		if err := s.replay.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close replay file")
		}
	}

	if s.matches != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.matches.Finish(ctx, s.matchID, s.state.Tick, results); err != nil {
			return fmt.Errorf("archive match result: %w", err)
		}
	}
	return nil
}

// abort records the early end and surfaces the cancellation cause.
func (s *MatchService) abort(cause error) error {
	log.Info().Int64("matchId", s.matchID).Int("tick", s.state.Tick).
		Msg("Match aborted")

	if s.replay != nil {
		if err := s.replay.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close replay file")
		}
	}

	if s.matches != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.matches.Abort(ctx, s.matchID, s.state.Tick); err != nil {
			log.Warn().Err(err).Int64("matchId", s.matchID).Msg("Failed to mark match aborted")
		}
	}
	return cause
}

// Standings ranks players by score, ties broken by player id. Call it
// after Run returns for the final placements.
func (s *MatchService) Standings() []model.MatchResult {
	players := s.state.Players
	order := make([]int, len(players))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		pa, pb := players[order[a]], players[order[b]]
		if pa.Score != pb.Score {
			return pa.Score > pb.Score
		}
		return pa.ID < pb.ID
	})

	results := make([]model.MatchResult, len(order))
	for rank, idx := range order {
		p := players[idx]
		results[rank] = model.MatchResult{
			MatchID:        s.matchID,
			PlayerID:       p.ID,
			PlayerName:     p.Name,
			Score:          p.Score,
			TerritoryScore: p.TerritoryScore,
			ArtifactScore:  p.ArtifactScore,
			Placement:      rank + 1,
		}
	}
	return results
}
