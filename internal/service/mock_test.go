package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/freeeve/openforest/internal/model"
	"github.com/freeeve/openforest/pkg/openforest"
	"github.com/freeeve/openforest/pkg/wire"
)

type mockMatchRepo struct {
	mu      sync.Mutex
	matches map[int64]*model.Match
	nextID  int64
}

func newMockMatchRepo() *mockMatchRepo {
	return &mockMatchRepo{matches: make(map[int64]*model.Match), nextID: 1}
}

func (m *mockMatchRepo) Create(_ context.Context, seed int64, matchTicks int, replayPath string) (*model.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	match := &model.Match{
		ID:         m.nextID,
		Seed:       seed,
		Status:     model.MatchStatusRunning,
		MatchTicks: matchTicks,
		ReplayPath: replayPath,
		CreatedAt:  time.Now(),
	}
	m.nextID++
	m.matches[match.ID] = match
	return match, nil
}

func (m *mockMatchRepo) FindByID(_ context.Context, id int64) (*model.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	match, ok := m.matches[id]
	if !ok {
		return nil, nil
	}
	cp := *match
	return &cp, nil
}

func (m *mockMatchRepo) ListRecent(_ context.Context, limit int) ([]model.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Match
	for _, match := range m.matches {
		result = append(result, *match)
	}
	return result, nil
}

func (m *mockMatchRepo) Finish(_ context.Context, id int64, ticksRun int, results []model.MatchResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	match := m.matches[id]
	now := time.Now()
	match.Status = model.MatchStatusFinished
	match.TicksRun = ticksRun
	match.FinishedAt = &now
	match.Results = results
	return nil
}

func (m *mockMatchRepo) Abort(_ context.Context, id int64, ticksRun int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	match := m.matches[id]
	now := time.Now()
	match.Status = model.MatchStatusAborted
	match.TicksRun = ticksRun
	match.FinishedAt = &now
	return nil
}

type mockTickRepo struct {
	mu     sync.Mutex
	scores []model.TickScore
}

func newMockTickRepo() *mockTickRepo {
	return &mockTickRepo{}
}

func (m *mockTickRepo) SaveScores(_ context.Context, scores []model.TickScore) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scores = append(m.scores, scores...)
	return nil
}

func (m *mockTickRepo) ScoreTimeline(_ context.Context, matchID int64) ([]model.TickScore, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.TickScore
	for _, s := range m.scores {
		if s.MatchID == matchID {
			result = append(result, s)
		}
	}
	return result, nil
}

type mockCache struct {
	mu           sync.Mutex
	snapshots    map[int64]json.RawMessage
	observations map[int64]map[int]json.RawMessage
	ticks        map[int64]int
}

func newMockCache() *mockCache {
	return &mockCache{
		snapshots:    make(map[int64]json.RawMessage),
		observations: make(map[int64]map[int]json.RawMessage),
		ticks:        make(map[int64]int),
	}
}

func (m *mockCache) SetSnapshot(_ context.Context, matchID int64, snapshot json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[matchID] = snapshot
	return nil
}

func (m *mockCache) GetSnapshot(_ context.Context, matchID int64) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshots[matchID], nil
}

func (m *mockCache) SetObservation(_ context.Context, matchID int64, playerID int, obs json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.observations[matchID] == nil {
		m.observations[matchID] = make(map[int]json.RawMessage)
	}
	m.observations[matchID][playerID] = obs
	return nil
}

func (m *mockCache) GetObservation(_ context.Context, matchID int64, playerID int) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.observations[matchID][playerID], nil
}

func (m *mockCache) SetTick(_ context.Context, matchID int64, tick int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticks[matchID] = tick
	return nil
}

func (m *mockCache) GetTick(_ context.Context, matchID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tick, ok := m.ticks[matchID]
	if !ok {
		return -1, nil
	}
	return tick, nil
}

func (m *mockCache) DeleteMatchData(_ context.Context, matchID int64, playerCount int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snapshots, matchID)
	delete(m.observations, matchID)
	delete(m.ticks, matchID)
	return nil
}

type mockBroadcaster struct {
	mu    sync.Mutex
	ticks []int
	last  json.RawMessage
}

func (m *mockBroadcaster) BroadcastState(tick int, world json.RawMessage, observations map[int]json.RawMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticks = append(m.ticks, tick)
	m.last = world
}

// fakeAgent implements AgentConn in-process with switchable failure
// modes. The zero behavior is an honest agent committing its fixed
// action list every round.
type fakeAgent struct {
	id      int
	actions []openforest.Action

	failCommit  bool
	failReveal  bool
	commitDelay time.Duration
	tamper      bool
	wrongNonce  bool

	mu          sync.Mutex
	pending     map[int]fakePending
	revealCalls int
}

type fakePending struct {
	raw   json.RawMessage
	nonce string
}

func newFakeAgent(id int, actions []openforest.Action) *fakeAgent {
	return &fakeAgent{id: id, actions: actions, pending: make(map[int]fakePending)}
}

func (a *fakeAgent) PlayerID() int { return a.id }

func (a *fakeAgent) Commit(ctx context.Context, tick int, _ json.RawMessage) (string, error) {
	if a.commitDelay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(a.commitDelay):
		}
	}
	if a.failCommit {
		return "", context.DeadlineExceeded
	}

	actions := a.actions
	if actions == nil {
		actions = []openforest.Action{}
	}
	raw, err := json.Marshal(actions)
	if err != nil {
		return "", err
	}
	nonce := wire.NewNonce()
	commit, err := wire.CommitHash(json.RawMessage(raw), nonce)
	if err != nil {
		return "", err
	}

	a.mu.Lock()
	a.pending[tick] = fakePending{raw: raw, nonce: nonce}
	a.mu.Unlock()
	return commit, nil
}

func (a *fakeAgent) Reveal(_ context.Context, tick int) (json.RawMessage, string, error) {
	a.mu.Lock()
	a.revealCalls++
	p := a.pending[tick]
	delete(a.pending, tick)
	a.mu.Unlock()

	if a.failReveal {
		return nil, "", context.DeadlineExceeded
	}
	if a.tamper {
		return json.RawMessage(`[{"type":"scan","x":0.9,"y":0.9,"radius":0.4}]`), p.nonce, nil
	}
	if a.wrongNonce {
		return p.raw, "ffffffffffffffff", nil
	}
	return p.raw, p.nonce, nil
}

func (a *fakeAgent) revealCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.revealCalls
}
