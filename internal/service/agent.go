package service

import (
	"context"
	"encoding/json"
)

// AgentConn is the transport-facing side of one player seat. The
// coordinator drives it through the two phases of a round; every
// implementation (websocket seat, child process, HTTP endpoint,
// in-process bot) answers the same way.
//
// Commit delivers the tick's observation and returns the agent's
// commit digest. Reveal returns the raw action JSON and nonce the
// agent committed to. Both honor the context deadline the coordinator
// imposes; an error from either simply costs the agent its turn.
type AgentConn interface {
	PlayerID() int
	Commit(ctx context.Context, tick int, observation json.RawMessage) (string, error)
	Reveal(ctx context.Context, tick int) (json.RawMessage, string, error)
}
