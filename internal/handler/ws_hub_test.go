package handler

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/freeeve/openforest/pkg/wire"
)

func newTestSeat(playerID int) *playerConn {
	return &playerConn{
		conn:     nil, // no real connection for hub tests
		playerID: playerID,
		inbound:  make(chan wire.AgentFrame, inboundBufSize),
		done:     make(chan struct{}),
	}
}

func newTestSpectator() *spectatorConn {
	return &spectatorConn{
		conn:       nil,
		send:       make(chan []byte, sendBufSize),
		omniscient: true,
	}
}

func TestHubAttachDetach(t *testing.T) {
	hub := NewHub()
	pc := newTestSeat(0)

	if prev := hub.attach(pc); prev != nil {
		t.Errorf("expected no displaced connection, got %v", prev)
	}
	if !hub.PlayerConnected(0) {
		t.Error("seat 0 should be connected")
	}
	if hub.ConnectionCount() != 1 {
		t.Errorf("expected 1 connection, got %d", hub.ConnectionCount())
	}

	hub.detach(pc)
	if hub.PlayerConnected(0) {
		t.Error("seat 0 should be free after detach")
	}
	if hub.ConnectionCount() != 0 {
		t.Errorf("expected 0 connections, got %d", hub.ConnectionCount())
	}
}

func TestHubSeatTakeover(t *testing.T) {
	hub := NewHub()
	first := newTestSeat(1)
	second := newTestSeat(1)

	hub.attach(first)
	if prev := hub.attach(second); prev != first {
		t.Errorf("expected first connection to be displaced, got %v", prev)
	}
	if hub.seat(1) != second {
		t.Error("seat 1 should hold the second connection")
	}

	// A stale detach from the displaced connection must not free the seat.
	hub.detach(first)
	if hub.seat(1) != second {
		t.Error("stale detach removed the live connection")
	}

	hub.detach(second)
	if hub.PlayerConnected(1) {
		t.Error("seat 1 should be free")
	}
}

func TestHubSpectatorAddRemove(t *testing.T) {
	hub := NewHub()
	sc := newTestSpectator()

	hub.addSpectator(sc)
	if hub.SpectatorCount() != 1 {
		t.Errorf("expected 1 spectator, got %d", hub.SpectatorCount())
	}

	hub.removeSpectator(sc)
	if hub.SpectatorCount() != 0 {
		t.Errorf("expected 0 spectators, got %d", hub.SpectatorCount())
	}
	if _, ok := <-sc.send; ok {
		t.Error("send channel should be closed after remove")
	}

	// Removing twice must not close the channel twice.
	hub.removeSpectator(sc)
}

func TestAwaitSkipsMismatchedFrames(t *testing.T) {
	pc := newTestSeat(0)
	pc.inbound <- wire.AgentFrame{Type: wire.PhaseCommit, Tick: 2, Commit: "stale"}
	pc.inbound <- wire.AgentFrame{Type: wire.PhaseReveal, Tick: 3, Nonce: "wrongphase"}
	pc.inbound <- wire.AgentFrame{Type: wire.PhaseCommit, Tick: 3, Commit: "abc123"}

	frame, err := pc.await(context.Background(), wire.PhaseCommit, 3)
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	if frame.Commit != "abc123" {
		t.Errorf("expected commit abc123, got %q", frame.Commit)
	}
}

func TestAwaitContextDeadline(t *testing.T) {
	pc := newTestSeat(0)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := pc.await(ctx, wire.PhaseCommit, 1); err != context.DeadlineExceeded {
		t.Errorf("await returned %v, want context.DeadlineExceeded", err)
	}
}

func TestAwaitDisconnect(t *testing.T) {
	pc := newTestSeat(0)
	close(pc.done)

	if _, err := pc.await(context.Background(), wire.PhaseCommit, 1); err == nil {
		t.Error("await on a disconnected seat should fail")
	}
}

func TestSeatAgentNotConnected(t *testing.T) {
	hub := NewHub()
	agent := hub.AgentFor(2)

	if agent.PlayerID() != 2 {
		t.Errorf("expected player 2, got %d", agent.PlayerID())
	}
	if _, err := agent.Commit(context.Background(), 1, nil); err == nil {
		t.Error("commit on an empty seat should fail")
	}
	if _, _, err := agent.Reveal(context.Background(), 1); err == nil {
		t.Error("reveal on an empty seat should fail")
	}
}

func TestBroadcastStatePerspectives(t *testing.T) {
	hub := NewHub()
	world := json.RawMessage(`{"tick":5,"planets":[]}`)
	obs0 := json.RawMessage(`{"tick":5,"player_id":0}`)
	observations := map[int]json.RawMessage{0: obs0}

	omniscient := newTestSpectator()
	locked := newTestSpectator()
	id0 := 0
	locked.setPerspective(&id0, false)
	fallback := newTestSpectator()
	id9 := 9 // no observation for this seat this tick
	fallback.setPerspective(&id9, false)

	hub.addSpectator(omniscient)
	hub.addSpectator(locked)
	hub.addSpectator(fallback)

	hub.BroadcastState(5, world, observations)

	assertPayload := func(sc *spectatorConn, want json.RawMessage, label string) {
		t.Helper()
		select {
		case msg := <-sc.send:
			var frame wire.StateFrame
			if err := json.Unmarshal(msg, &frame); err != nil {
				t.Fatalf("%s: decode frame: %v", label, err)
			}
			if frame.Type != wire.TypeState {
				t.Errorf("%s: expected type state, got %s", label, frame.Type)
			}
			if string(frame.Payload) != string(want) {
				t.Errorf("%s: payload = %s, want %s", label, frame.Payload, want)
			}
		case <-time.After(time.Second):
			t.Errorf("%s did not receive a state frame", label)
		}
	}

	assertPayload(omniscient, world, "omniscient spectator")
	assertPayload(locked, obs0, "locked spectator")
	assertPayload(fallback, world, "fallback spectator")
}

func TestBroadcastStateBufferFull(t *testing.T) {
	hub := NewHub()
	sc := &spectatorConn{send: make(chan []byte, 1), omniscient: true}
	sc.send <- []byte("blocking")
	hub.addSpectator(sc)

	done := make(chan struct{})
	go func() {
		hub.BroadcastState(1, json.RawMessage(`{}`), nil)
		close(done)
	}()

	select {
	case <-done:
		// dropped, not blocked
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a full spectator buffer")
	}
}

func TestHubConcurrentAccess(t *testing.T) {
	hub := NewHub()
	var wg sync.WaitGroup

	for i := range 50 {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			pc := newTestSeat(id % 4)
			hub.attach(pc)
			sc := newTestSpectator()
			hub.addSpectator(sc)
			hub.BroadcastState(id, json.RawMessage(`{}`), nil)
			hub.removeSpectator(sc)
			hub.detach(pc)
		}(i)
	}

	wg.Wait()
	if hub.SpectatorCount() != 0 {
		t.Errorf("expected 0 spectators after concurrent test, got %d", hub.SpectatorCount())
	}
}
