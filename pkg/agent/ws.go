package agent

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"

	"github.com/freeeve/openforest/pkg/wire"
)

// Play connects to a coordinator's player endpoint and serves bot until
// the socket closes or ctx is canceled.
func Play(ctx context.Context, url string, bot BotFunc) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", url, err)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	pending := make(map[int]pendingReveal)
	for {
		var req wire.PhaseRequest
		if err := conn.ReadJSON(&req); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("reading frame: %w", err)
		}

		switch req.Type {
		case wire.PhaseCommit:
			p, hash := commitActions(bot(decodeObservation(req.Observation)))
			pending[req.Tick] = p
			frame := wire.CommitFrame{Type: wire.PhaseCommit, Tick: req.Tick, Commit: hash}
			if err := conn.WriteJSON(frame); err != nil {
				return fmt.Errorf("writing commit: %w", err)
			}
		case wire.PhaseReveal:
			p, ok := pending[req.Tick]
			if !ok {
				p = pendingReveal{actions: emptyActions}
			}
			delete(pending, req.Tick)
			frame := wire.RevealFrame{Type: wire.PhaseReveal, Tick: req.Tick, Actions: p.actions, Nonce: p.nonce}
			if err := conn.WriteJSON(frame); err != nil {
				return fmt.Errorf("writing reveal: %w", err)
			}
		}
	}
}
