package service

import "encoding/json"

// Broadcaster pushes post-tick views to connected spectators.
// Implemented by the WebSocket hub.
type Broadcaster interface {
	BroadcastState(tick int, world json.RawMessage, observations map[int]json.RawMessage)
}

// NoopBroadcaster is a no-op implementation for runner mode or when WS is disabled.
type NoopBroadcaster struct{}

func (NoopBroadcaster) BroadcastState(int, json.RawMessage, map[int]json.RawMessage) {}
