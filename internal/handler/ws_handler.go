package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gorilla/websocket"

	"github.com/freeeve/openforest/pkg/wire"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second // Must be less than pongWait
	maxMsgSize     = 4096
	sendBufSize    = 256
	inboundBufSize = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS handled by middleware; tighten in production
	},
}

// WSHandler handles agent and spectator WebSocket connections.
type WSHandler struct {
	hub     *Hub
	players int
}

// NewWSHandler creates a WSHandler for a match with the given seat count.
func NewWSHandler(hub *Hub, players int) *WSHandler {
	return &WSHandler{hub: hub, players: players}
}

// ServePlayer handles GET /ws/player/{id}: upgrades an agent socket and
// binds it to its seat. A reconnect displaces the previous socket.
func (h *WSHandler) ServePlayer(w http.ResponseWriter, r *http.Request) {
	playerID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || playerID < 0 || playerID >= h.players {
		http.Error(w, `{"error":"unknown player id"}`, http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Int("playerId", playerID).Msg("WebSocket upgrade failed")
		return
	}

	pc := &playerConn{
		conn:     conn,
		playerID: playerID,
		inbound:  make(chan wire.AgentFrame, inboundBufSize),
		done:     make(chan struct{}),
	}
	if prev := h.hub.attach(pc); prev != nil {
		prev.conn.Close()
		log.Warn().Int("playerId", playerID).Msg("Seat taken over, dropping previous connection")
	}

	go h.playerReadPump(pc)
	go h.playerPingLoop(pc)

	log.Info().Int("playerId", playerID).Int("total", h.hub.ConnectionCount()).Msg("Agent connected")
}

// playerReadPump queues inbound agent frames for the coordinator.
func (h *WSHandler) playerReadPump(pc *playerConn) {
	defer func() {
		h.hub.detach(pc)
		close(pc.done)
		pc.conn.Close()
		log.Info().Int("playerId", pc.playerID).Msg("Agent disconnected")
	}()

	pc.conn.SetReadLimit(maxMsgSize)
	pc.conn.SetReadDeadline(time.Now().Add(pongWait))
	pc.conn.SetPongHandler(func(string) error {
		pc.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := pc.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Int("playerId", pc.playerID).Msg("WebSocket unexpected close")
			}
			break
		}
		pc.conn.SetReadDeadline(time.Now().Add(pongWait))

		var frame wire.AgentFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			continue
		}

		select {
		case pc.inbound <- frame:
		default:
			log.Warn().Int("playerId", pc.playerID).Msg("Dropping agent frame, inbound buffer full")
		}
	}
}

// playerPingLoop keeps an agent socket alive between phase requests.
func (h *WSHandler) playerPingLoop(pc *playerConn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := pc.ping(); err != nil {
				return
			}
		case <-pc.done:
			return
		}
	}
}

// ServeSpectator handles GET /ws/spectator: upgrades a spectator socket.
// Spectators start omniscient and may switch perspective at any time.
func (h *WSHandler) ServeSpectator(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	sc := &spectatorConn{
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		omniscient: true,
	}
	h.hub.addSpectator(sc)

	go h.spectatorWritePump(sc)
	go h.spectatorReadPump(sc)

	log.Info().Int("total", h.hub.SpectatorCount()).Msg("Spectator connected")
}

// spectatorReadPump handles perspective switches from the spectator.
func (h *WSHandler) spectatorReadPump(sc *spectatorConn) {
	defer func() {
		h.hub.removeSpectator(sc)
		sc.conn.Close()
		log.Info().Msg("Spectator disconnected")
	}()

	sc.conn.SetReadLimit(maxMsgSize)
	sc.conn.SetReadDeadline(time.Now().Add(pongWait))
	sc.conn.SetPongHandler(func(string) error {
		sc.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := sc.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("WebSocket unexpected close")
			}
			break
		}
		sc.conn.SetReadDeadline(time.Now().Add(pongWait))

		var frame wire.PerspectiveFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			continue
		}
		if frame.Type == wire.TypeSetPerspective {
			sc.setPerspective(frame.PlayerID, frame.Omniscient)
		}
	}
}

// spectatorWritePump pushes state frames to the spectator connection.
func (h *WSHandler) spectatorWritePump(sc *spectatorConn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		sc.conn.Close()
	}()

	for {
		select {
		case message, ok := <-sc.send:
			sc.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				sc.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := sc.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			sc.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sc.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
