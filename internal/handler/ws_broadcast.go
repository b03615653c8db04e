package handler

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// BroadcastState implements service.Broadcaster using the WebSocket hub.
// Omniscient spectators receive the full world view; spectators locked
// to a seat receive that player's fogged observation, falling back to
// the world view when the seat has no observation this tick.
func (h *Hub) BroadcastState(tick int, world json.RawMessage, observations map[int]json.RawMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.spectators) == 0 {
		return
	}

	worldFrame := marshalStateFrame(world)
	playerFrames := make(map[int][]byte)

	for sc := range h.spectators {
		frame := worldFrame
		if playerID, omniscient := sc.perspective(); !omniscient && playerID != nil {
			if obs, ok := observations[*playerID]; ok {
				cached, seen := playerFrames[*playerID]
				if !seen {
					cached = marshalStateFrame(obs)
					playerFrames[*playerID] = cached
				}
				frame = cached
			}
		}
		if frame == nil {
			continue
		}
		select {
		case sc.send <- frame:
		default:
			log.Warn().Int("tick", tick).Msg("Dropping state frame, spectator buffer full")
		}
	}
}
