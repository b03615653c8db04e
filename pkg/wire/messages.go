package wire

import "encoding/json"

// Phase names double as the "type" field on stream frames and the
// "phase" field on HTTP /act payloads.
const (
	PhaseCommit = "commit"
	PhaseReveal = "reveal"
)

// Spectator frame types.
const (
	TypeState          = "state"
	TypeSetPerspective = "set_perspective"
)

// PhaseRequest is a frame the coordinator sends to a player agent over
// a stream transport (websocket or stdio). Commit requests carry the
// player's observation; reveal requests carry only the tick.
type PhaseRequest struct {
	Type        string          `json:"type"`
	Tick        int             `json:"tick"`
	Observation json.RawMessage `json:"observation,omitempty"`
}

// CommitFrame is an agent's answer to a commit request.
type CommitFrame struct {
	Type   string `json:"type"`
	Tick   int    `json:"tick"`
	Commit string `json:"commit"`
}

// RevealFrame is an agent's answer to a reveal request. Actions and
// Nonce are always present, even when the agent has nothing pending
// and reveals an empty list with an empty nonce.
type RevealFrame struct {
	Type    string          `json:"type"`
	Tick    int             `json:"tick"`
	Actions json.RawMessage `json:"actions"`
	Nonce   string          `json:"nonce"`
}

// AgentFrame is the loose envelope the coordinator decodes inbound
// agent frames into before dispatching on Type.
type AgentFrame struct {
	Type    string          `json:"type"`
	Tick    int             `json:"tick"`
	Commit  string          `json:"commit"`
	Actions json.RawMessage `json:"actions"`
	Nonce   string          `json:"nonce"`
}

// ActRequest is the POST /act payload sent to HTTP-transport bots.
type ActRequest struct {
	Phase       string          `json:"phase"`
	Tick        int             `json:"tick"`
	Observation json.RawMessage `json:"observation,omitempty"`
}

// CommitReply is the HTTP bot's response to a commit-phase /act call.
type CommitReply struct {
	Commit string `json:"commit"`
}

// RevealReply is the HTTP bot's response to a reveal-phase /act call.
type RevealReply struct {
	Actions json.RawMessage `json:"actions"`
	Nonce   string          `json:"nonce"`
}

// ActReply is the loose envelope the coordinator decodes /act responses
// into; only the fields for the requested phase are populated.
type ActReply struct {
	Commit  string          `json:"commit"`
	Actions json.RawMessage `json:"actions"`
	Nonce   string          `json:"nonce"`
	Error   string          `json:"error"`
}

// ErrorReply reports a rejected /act call.
type ErrorReply struct {
	Error string `json:"error"`
}

// PerspectiveFrame lets a spectator choose whose view it receives.
// A nil PlayerID with Omniscient set selects the full-state view.
type PerspectiveFrame struct {
	Type       string `json:"type"`
	PlayerID   *int   `json:"player_id"`
	Omniscient bool   `json:"omniscient"`
}

// StateFrame wraps the observation pushed to spectators after each tick.
type StateFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}
