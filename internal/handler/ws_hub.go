package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/openforest/internal/service"
	"github.com/freeeve/openforest/pkg/wire"
)

// playerConn wraps one agent WebSocket bound to a seat. Inbound frames
// are queued so the coordinator can skip stale or mismatched answers.
type playerConn struct {
	conn     *websocket.Conn
	playerID int
	inbound  chan wire.AgentFrame
	done     chan struct{}
	writeMu  sync.Mutex
}

// writeJSON sends one frame to the agent. Safe for concurrent callers.
func (pc *playerConn) writeJSON(v any) error {
	pc.writeMu.Lock()
	defer pc.writeMu.Unlock()
	pc.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return pc.conn.WriteJSON(v)
}

func (pc *playerConn) ping() error {
	pc.writeMu.Lock()
	defer pc.writeMu.Unlock()
	pc.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return pc.conn.WriteMessage(websocket.PingMessage, nil)
}

// await consumes queued frames until one echoes the requested phase and
// tick. Frames left over from earlier rounds are skipped.
func (pc *playerConn) await(ctx context.Context, phase string, tick int) (wire.AgentFrame, error) {
	for {
		select {
		case frame := <-pc.inbound:
			if frame.Type != phase || frame.Tick != tick {
				continue
			}
			return frame, nil
		case <-pc.done:
			return wire.AgentFrame{}, errors.New("agent disconnected")
		case <-ctx.Done():
			return wire.AgentFrame{}, ctx.Err()
		}
	}
}

// spectatorConn wraps one spectator WebSocket with its chosen perspective.
type spectatorConn struct {
	conn *websocket.Conn
	send chan []byte

	mu         sync.Mutex
	playerID   *int
	omniscient bool
}

func (sc *spectatorConn) setPerspective(playerID *int, omniscient bool) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.playerID = playerID
	sc.omniscient = omniscient
}

func (sc *spectatorConn) perspective() (*int, bool) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.playerID, sc.omniscient
}

// Hub manages agent seats and spectator connections. Each seat holds at
// most one live connection; a reconnect displaces the previous socket.
type Hub struct {
	mu         sync.RWMutex
	seats      map[int]*playerConn
	spectators map[*spectatorConn]bool
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		seats:      make(map[int]*playerConn),
		spectators: make(map[*spectatorConn]bool),
	}
}

// attach binds a connection to its seat and returns the connection it
// displaced, if any. The caller closes the old socket.
func (h *Hub) attach(pc *playerConn) *playerConn {
	h.mu.Lock()
	defer h.mu.Unlock()
	prev := h.seats[pc.playerID]
	h.seats[pc.playerID] = pc
	return prev
}

// detach removes a connection from its seat unless a newer connection
// has already taken it over.
func (h *Hub) detach(pc *playerConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.seats[pc.playerID] == pc {
		delete(h.seats, pc.playerID)
	}
}

// seat returns the live connection for a seat, or nil.
func (h *Hub) seat(playerID int) *playerConn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.seats[playerID]
}

// PlayerConnected reports whether a seat has a live connection.
func (h *Hub) PlayerConnected(playerID int) bool {
	return h.seat(playerID) != nil
}

// ConnectionCount returns the number of connected agent seats.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.seats)
}

func (h *Hub) addSpectator(sc *spectatorConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.spectators[sc] = true
}

func (h *Hub) removeSpectator(sc *spectatorConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.spectators[sc] {
		delete(h.spectators, sc)
		close(sc.send)
	}
}

// SpectatorCount returns the number of connected spectators.
func (h *Hub) SpectatorCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.spectators)
}

// AgentFor returns the coordinator-facing side of a seat. The returned
// agent resolves the live connection on every call, so a seat can
// reconnect between rounds without the match noticing.
func (h *Hub) AgentFor(playerID int) service.AgentConn {
	return &SeatAgent{hub: h, playerID: playerID}
}

// SeatAgent drives one WebSocket seat through the commit and reveal
// phases. An unconnected seat fails immediately and costs the agent its
// turn, matching the treatment of any other agent fault.
type SeatAgent struct {
	hub      *Hub
	playerID int
}

// PlayerID returns the seat this agent answers for.
func (a *SeatAgent) PlayerID() int { return a.playerID }

// Commit sends the tick's observation and waits for the commit digest.
func (a *SeatAgent) Commit(ctx context.Context, tick int, observation json.RawMessage) (string, error) {
	pc := a.hub.seat(a.playerID)
	if pc == nil {
		return "", fmt.Errorf("seat %d not connected", a.playerID)
	}
	req := wire.PhaseRequest{Type: wire.PhaseCommit, Tick: tick, Observation: observation}
	if err := pc.writeJSON(req); err != nil {
		return "", fmt.Errorf("send commit request: %w", err)
	}
	frame, err := pc.await(ctx, wire.PhaseCommit, tick)
	if err != nil {
		return "", err
	}
	if frame.Commit == "" {
		return "", errors.New("empty commit")
	}
	return frame.Commit, nil
}

// Reveal asks for the actions and nonce behind the tick's commit.
func (a *SeatAgent) Reveal(ctx context.Context, tick int) (json.RawMessage, string, error) {
	pc := a.hub.seat(a.playerID)
	if pc == nil {
		return nil, "", fmt.Errorf("seat %d not connected", a.playerID)
	}
	req := wire.PhaseRequest{Type: wire.PhaseReveal, Tick: tick}
	if err := pc.writeJSON(req); err != nil {
		return nil, "", fmt.Errorf("send reveal request: %w", err)
	}
	frame, err := pc.await(ctx, wire.PhaseReveal, tick)
	if err != nil {
		return nil, "", err
	}
	return frame.Actions, frame.Nonce, nil
}

var _ service.AgentConn = (*SeatAgent)(nil)

// marshalStateFrame wraps a payload in the spectator state envelope.
func marshalStateFrame(payload json.RawMessage) []byte {
	data, err := json.Marshal(wire.StateFrame{Type: wire.TypeState, Payload: payload})
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal state frame")
		return nil
	}
	return data
}
