package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/freeeve/openforest/pkg/openforest"
	"github.com/freeeve/openforest/pkg/wire"
)

// LocalAgent runs a builtin strategy in-process behind the agent
// contract, producing an honest commit with a fresh nonce each round.
type LocalAgent struct {
	id       int
	strategy Strategy

	mu      sync.Mutex
	pending map[int]localPending
}

type localPending struct {
	raw   json.RawMessage
	nonce string
}

// NewLocalAgent seats the strategy at player id.
func NewLocalAgent(id int, strategy Strategy) *LocalAgent {
	return &LocalAgent{id: id, strategy: strategy, pending: make(map[int]localPending)}
}

func (a *LocalAgent) PlayerID() int { return a.id }

// Name returns the seated strategy's name.
func (a *LocalAgent) Name() string { return a.strategy.Name() }

// Commit runs the strategy over the observation and returns the digest
// of its actions, holding the raw list back for the reveal.
func (a *LocalAgent) Commit(_ context.Context, tick int, observation json.RawMessage) (string, error) {
	var obs openforest.Observation
	if len(observation) > 0 {
		if err := json.Unmarshal(observation, &obs); err != nil {
			return "", fmt.Errorf("local agent %d: decode observation: %w", a.id, err)
		}
	}

	actions := a.strategy.Act(&obs)
	if actions == nil {
		actions = []openforest.Action{}
	}
	raw, err := json.Marshal(actions)
	if err != nil {
		return "", fmt.Errorf("local agent %d: marshal actions: %w", a.id, err)
	}
	nonce := wire.NewNonce()
	commit, err := wire.CommitHash(json.RawMessage(raw), nonce)
	if err != nil {
		return "", fmt.Errorf("local agent %d: hash actions: %w", a.id, err)
	}

	a.mu.Lock()
	a.pending[tick] = localPending{raw: raw, nonce: nonce}
	a.mu.Unlock()
	return commit, nil
}

// Reveal returns the actions committed for tick. A reveal with nothing
// pending answers an empty list, mirroring the SDK default.
func (a *LocalAgent) Reveal(_ context.Context, tick int) (json.RawMessage, string, error) {
	a.mu.Lock()
	p, ok := a.pending[tick]
	delete(a.pending, tick)
	a.mu.Unlock()

	if !ok {
		return json.RawMessage("[]"), "", nil
	}
	return p.raw, p.nonce, nil
}
