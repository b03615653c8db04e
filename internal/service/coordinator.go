package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/openforest/pkg/wire"
)

// Coordinator runs the commit-reveal exchange for one round. Agents
// that time out, error, or reveal actions that do not hash to their
// commit are dropped for the round; a dropped agent submits nothing
// and the match carries on without it.
type Coordinator struct {
	commitTimeout time.Duration
	revealTimeout time.Duration
}

// NewCoordinator creates a Coordinator with per-phase timeouts in
// milliseconds, matching the commit_timeout_ms and reveal_timeout_ms
// match config fields.
func NewCoordinator(commitTimeoutMs, revealTimeoutMs int) *Coordinator {
	return &Coordinator{
		commitTimeout: time.Duration(commitTimeoutMs) * time.Millisecond,
		revealTimeout: time.Duration(revealTimeoutMs) * time.Millisecond,
	}
}

// RunRound performs the full exchange for one tick:
// 1. Fan out commit requests with the tick's observations
// 2. Collect commit digests from agents that answered in time
// 3. Fan out reveal requests, but only to agents holding a commit
// 4. Verify each reveal against its commit digest
// It returns the verified raw action lists keyed by player id.
// Commits never carry over to the next round.
func (c *Coordinator) RunRound(ctx context.Context, tick int, agents []AgentConn, observations map[int]json.RawMessage) map[int]json.RawMessage {
	type commitResult struct {
		playerID int
		commit   string
		err      error
	}
	commitCh := make(chan commitResult, len(agents))

	for _, a := range agents {
		go func(a AgentConn) {
			cctx, cancel := context.WithTimeout(ctx, c.commitTimeout)
			defer cancel()
			commit, err := a.Commit(cctx, tick, observations[a.PlayerID()])
			commitCh <- commitResult{playerID: a.PlayerID(), commit: commit, err: err}
		}(a)
	}

	commits := make(map[int]string)
	for range agents {
		res := <-commitCh
		if res.err != nil {
			log.Debug().Err(res.err).Int("playerId", res.playerID).Int("tick", tick).
				Msg("Commit failed, dropping player for this round")
			continue
		}
		commits[res.playerID] = res.commit
	}

	verified := make(map[int]json.RawMessage, len(commits))
	if len(commits) == 0 {
		return verified
	}

	type revealResult struct {
		playerID int
		actions  json.RawMessage
		nonce    string
		err      error
	}
	revealCh := make(chan revealResult, len(commits))

	pending := 0
	for _, a := range agents {
		if _, ok := commits[a.PlayerID()]; !ok {
			continue
		}
		pending++
		go func(a AgentConn) {
			rctx, cancel := context.WithTimeout(ctx, c.revealTimeout)
			defer cancel()
			actions, nonce, err := a.Reveal(rctx, tick)
			revealCh <- revealResult{playerID: a.PlayerID(), actions: actions, nonce: nonce, err: err}
		}(a)
	}

	for i := 0; i < pending; i++ {
		res := <-revealCh
		if res.err != nil {
			log.Debug().Err(res.err).Int("playerId", res.playerID).Int("tick", tick).
				Msg("Reveal failed, dropping player for this round")
			continue
		}
		ok, err := wire.VerifyReveal(commits[res.playerID], res.actions, res.nonce)
		if err != nil {
			log.Debug().Err(err).Int("playerId", res.playerID).Int("tick", tick).
				Msg("Reveal unparseable, dropping player for this round")
			continue
		}
		if !ok {
			log.Warn().Int("playerId", res.playerID).Int("tick", tick).
				Msg("Reveal does not match commit, dropping actions")
			continue
		}
		verified[res.playerID] = res.actions
	}

	return verified
}
