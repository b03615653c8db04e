package bot

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Orchestrator runs a fleet of seat clients against one server, one
// goroutine per seat, and returns when every seat has finished.
type Orchestrator struct {
	baseURL string
	clients []*SeatClient
}

// NewOrchestrator creates an Orchestrator for the given seat→strategy
// assignment.
func NewOrchestrator(baseURL string, seats map[int]Strategy) *Orchestrator {
	ids := make([]int, 0, len(seats))
	for id := range seats {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	o := &Orchestrator{baseURL: baseURL}
	for _, id := range ids {
		o.clients = append(o.clients, NewSeatClient(id, seats[id], baseURL))
	}
	return o
}

// Run waits for the server, then plays every seat to completion.
func (o *Orchestrator) Run(ctx context.Context) error {
	if len(o.clients) == 0 {
		return fmt.Errorf("no seats assigned")
	}

	status, err := o.waitForServer(ctx)
	if err != nil {
		return err
	}
	log.Info().Int("tick", status.Tick).Int("matchTicks", status.MatchTicks).
		Strs("players", status.Players).Msg("Server ready")

	for _, c := range o.clients {
		if c.PlayerID() >= len(status.Players) {
			return fmt.Errorf("seat %d does not exist, server has %d players", c.PlayerID(), len(status.Players))
		}
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(o.clients))
	for _, c := range o.clients {
		wg.Add(1)
		go func(c *SeatClient) {
			defer wg.Done()
			if err := c.Play(ctx); err != nil && ctx.Err() == nil {
				errs <- fmt.Errorf("seat %d: %w", c.PlayerID(), err)
			}
		}(c)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		return err
	}
	return ctx.Err()
}

// waitForServer polls /status until the server answers or the attempt
// window closes. Bots may be started before the server comes up.
func (o *Orchestrator) waitForServer(ctx context.Context) (*ServerStatus, error) {
	deadline := time.Now().Add(30 * time.Second)
	for {
		status, err := o.clients[0].Status(ctx)
		if err == nil {
			return status, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("server not reachable: %w", err)
		}
		log.Debug().Err(err).Str("url", o.baseURL).Msg("Waiting for server")
		select {
		case <-time.After(500 * time.Millisecond):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
