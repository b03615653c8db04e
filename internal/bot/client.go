package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/openforest/pkg/agent"
	"github.com/freeeve/openforest/pkg/openforest"
)

// ServerStatus mirrors the GET /status payload.
type ServerStatus struct {
	Tick       int      `json:"tick"`
	MatchTicks int      `json:"match_ticks"`
	Players    []string `json:"players"`
}

// SeatClient puts one builtin strategy behind a remote seat. The commit
// and reveal bookkeeping runs through the agent SDK, so a SeatClient is
// held to the same protocol as any third-party bot.
type SeatClient struct {
	playerID int
	strategy Strategy
	baseURL  string
	httpC    *http.Client
}

// NewSeatClient creates a client for one seat of the server at baseURL.
func NewSeatClient(playerID int, strategy Strategy, baseURL string) *SeatClient {
	return &SeatClient{
		playerID: playerID,
		strategy: strategy,
		baseURL:  strings.TrimRight(baseURL, "/"),
		httpC:    &http.Client{Timeout: 10 * time.Second},
	}
}

// PlayerID returns the seat this client plays.
func (c *SeatClient) PlayerID() int { return c.playerID }

// Status fetches the server's match status.
func (c *SeatClient) Status(ctx context.Context) (*ServerStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/status", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpC.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET /status: status %d: %s", resp.StatusCode, body)
	}
	var status ServerStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}
	return &status, nil
}

// wsURL derives the seat endpoint from the HTTP base URL.
func (c *SeatClient) wsURL() string {
	return strings.Replace(c.baseURL, "http", "ws", 1) + fmt.Sprintf("/ws/player/%d", c.playerID)
}

// Play serves the strategy over the seat socket until the server closes
// it or ctx is canceled.
func (c *SeatClient) Play(ctx context.Context) error {
	log.Info().Int("playerId", c.playerID).Str("strategy", c.strategy.Name()).Msg("Taking seat")
	err := agent.Play(ctx, c.wsURL(), func(obs *openforest.Observation) []openforest.Action {
		return c.strategy.Act(obs)
	})
	if err != nil {
		return err
	}
	log.Info().Int("playerId", c.playerID).Msg("Seat closed by server")
	return nil
}
