package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/freeeve/openforest/pkg/wire"
)

// HTTPAgent drives a bot that serves the HTTP transport: each phase is
// one POST to the bot's /act endpoint. Deadlines ride in on the request
// context, so the client itself carries no timeout.
type HTTPAgent struct {
	id      int
	baseURL string
	client  *http.Client
}

// NewHTTPAgent seats the bot serving baseURL at player id.
func NewHTTPAgent(id int, baseURL string) *HTTPAgent {
	return &HTTPAgent{
		id:      id,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
	}
}

func (a *HTTPAgent) PlayerID() int { return a.id }

// Name returns the bot's base URL, which is the only identity it has.
func (a *HTTPAgent) Name() string { return a.baseURL }

// Commit posts the commit-phase request and returns the bot's digest.
func (a *HTTPAgent) Commit(ctx context.Context, tick int, observation json.RawMessage) (string, error) {
	reply, err := a.act(ctx, wire.ActRequest{Phase: wire.PhaseCommit, Tick: tick, Observation: observation})
	if err != nil {
		return "", err
	}
	if reply.Commit == "" {
		return "", fmt.Errorf("http agent %d: empty commit for tick %d", a.id, tick)
	}
	return reply.Commit, nil
}

// Reveal posts the reveal-phase request and returns the bot's actions
// and nonce.
func (a *HTTPAgent) Reveal(ctx context.Context, tick int) (json.RawMessage, string, error) {
	reply, err := a.act(ctx, wire.ActRequest{Phase: wire.PhaseReveal, Tick: tick})
	if err != nil {
		return nil, "", err
	}
	return reply.Actions, reply.Nonce, nil
}

func (a *HTTPAgent) act(ctx context.Context, actReq wire.ActRequest) (*wire.ActReply, error) {
	data, err := json.Marshal(actReq)
	if err != nil {
		return nil, fmt.Errorf("http agent %d: marshal request: %w", a.id, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/act", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("http agent %d: build request: %w", a.id, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http agent %d: POST /act: %w", a.id, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("http agent %d: POST /act: status %d: %s", a.id, resp.StatusCode, body)
	}

	var reply wire.ActReply
	if err := json.Unmarshal(body, &reply); err != nil {
		return nil, fmt.Errorf("http agent %d: decode %s reply: %w", a.id, actReq.Phase, err)
	}
	if reply.Error != "" {
		return nil, fmt.Errorf("http agent %d: bot rejected %s: %s", a.id, actReq.Phase, reply.Error)
	}
	return &reply, nil
}
