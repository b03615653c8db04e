// Package agent implements the player side of the commit-reveal
// protocol over stdio, HTTP, and websocket transports. A bot supplies
// only a BotFunc; the transport handles commitment bookkeeping.
package agent

import (
	"encoding/json"

	"github.com/freeeve/openforest/pkg/openforest"
	"github.com/freeeve/openforest/pkg/wire"
)

// BotFunc decides one tick's orders from the player's observation.
type BotFunc func(obs *openforest.Observation) []openforest.Action

// pendingReveal is a committed action list held until its reveal
// request arrives.
type pendingReveal struct {
	actions json.RawMessage
	nonce   string
}

var emptyActions = json.RawMessage("[]")

// commitActions marshals the bot's orders, draws a nonce, and returns
// the reveal payload alongside its commitment hash. Orders that fail
// to marshal commit as an empty list rather than stalling the match.
func commitActions(actions []openforest.Action) (pendingReveal, string) {
	raw, err := json.Marshal(actions)
	if err != nil || actions == nil {
		raw = emptyActions
	}
	nonce := wire.NewNonce()
	hash, err := wire.CommitHash(json.RawMessage(raw), nonce)
	if err != nil {
		raw = emptyActions
		hash, _ = wire.CommitHash(emptyActions, nonce)
	}
	return pendingReveal{actions: raw, nonce: nonce}, hash
}

func decodeObservation(raw json.RawMessage) *openforest.Observation {
	var obs openforest.Observation
	if len(raw) == 0 || json.Unmarshal(raw, &obs) != nil {
		return &openforest.Observation{}
	}
	return &obs
}
