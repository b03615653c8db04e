//go:build integration

package postgres

import (
	"context"
	"database/sql"
	"testing"

	"github.com/freeeve/openforest/internal/model"
	"github.com/freeeve/openforest/internal/testutil"
)

var testDB *sql.DB

func TestMain(m *testing.M) {
	m.Run()
}

func setup(t *testing.T) {
	t.Helper()
	if testDB == nil {
		testDB = testutil.SetupDB(t)
	}
	testutil.CleanupDB(t, testDB)
}

// --- MatchRepo Tests ---

func TestMatchCreate(t *testing.T) {
	setup(t)
	repo := NewMatchRepo(testDB)
	ctx := context.Background()

	m, err := repo.Create(ctx, 42, 300, "replays/match-42.jsonl")
	if err != nil {
		t.Fatalf("create match: %v", err)
	}
	if m.ID == 0 {
		t.Fatal("expected non-zero match ID")
	}
	if m.Status != model.MatchStatusRunning {
		t.Fatalf("expected status %q, got %q", model.MatchStatusRunning, m.Status)
	}
	if m.Seed != 42 {
		t.Fatalf("expected seed 42, got %d", m.Seed)
	}
	if m.MatchTicks != 300 {
		t.Fatalf("expected match_ticks 300, got %d", m.MatchTicks)
	}
	if m.TicksRun != 0 {
		t.Fatalf("expected ticks_run 0, got %d", m.TicksRun)
	}
	if m.ReplayPath != "replays/match-42.jsonl" {
		t.Fatalf("unexpected replay path %q", m.ReplayPath)
	}
	if m.CreatedAt.IsZero() {
		t.Fatal("expected created_at to be set")
	}
	if m.FinishedAt != nil {
		t.Fatal("expected finished_at to be unset for a running match")
	}
}

func TestMatchCreateWithoutReplay(t *testing.T) {
	setup(t)
	repo := NewMatchRepo(testDB)

	m, err := repo.Create(context.Background(), 7, 100, "")
	if err != nil {
		t.Fatalf("create match: %v", err)
	}
	if m.ReplayPath != "" {
		t.Fatalf("expected empty replay path, got %q", m.ReplayPath)
	}
}

func TestMatchFindByID(t *testing.T) {
	setup(t)
	repo := NewMatchRepo(testDB)
	ctx := context.Background()

	created, err := repo.Create(ctx, 99, 200, "")
	if err != nil {
		t.Fatalf("create match: %v", err)
	}

	found, err := repo.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("find match: %v", err)
	}
	if found == nil {
		t.Fatal("expected match to be found")
	}
	if found.Seed != 99 {
		t.Fatalf("expected seed 99, got %d", found.Seed)
	}
	if len(found.Results) != 0 {
		t.Fatalf("expected no results for a running match, got %d", len(found.Results))
	}

	missing, err := repo.FindByID(ctx, 999999)
	if err != nil {
		t.Fatalf("find missing match: %v", err)
	}
	if missing != nil {
		t.Fatal("expected nil for missing match")
	}
}

func TestMatchListRecent(t *testing.T) {
	setup(t)
	repo := NewMatchRepo(testDB)
	ctx := context.Background()

	for seed := int64(1); seed <= 3; seed++ {
		if _, err := repo.Create(ctx, seed, 100, ""); err != nil {
			t.Fatalf("create match %d: %v", seed, err)
		}
	}

	matches, err := repo.ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].Seed != 3 {
		t.Fatalf("expected newest match first, got seed %d", matches[0].Seed)
	}

	// Non-positive limits fall back to the default.
	all, err := repo.ListRecent(ctx, 0)
	if err != nil {
		t.Fatalf("list recent with default limit: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(all))
	}
}

func TestMatchFinishWithResults(t *testing.T) {
	setup(t)
	repo := NewMatchRepo(testDB)
	ctx := context.Background()

	m, err := repo.Create(ctx, 5, 300, "")
	if err != nil {
		t.Fatalf("create match: %v", err)
	}

	results := []model.MatchResult{
		{MatchID: m.ID, PlayerID: 1, PlayerName: "bot-rush", Score: 12.5, TerritoryScore: 9.5, ArtifactScore: 3.0, Placement: 2},
		{MatchID: m.ID, PlayerID: 0, PlayerName: "bot-expansion", Score: 18.25, TerritoryScore: 15.25, ArtifactScore: 3.0, Placement: 1},
	}
	if err := repo.Finish(ctx, m.ID, 300, results); err != nil {
		t.Fatalf("finish match: %v", err)
	}

	found, err := repo.FindByID(ctx, m.ID)
	if err != nil {
		t.Fatalf("find finished match: %v", err)
	}
	if found.Status != model.MatchStatusFinished {
		t.Fatalf("expected status %q, got %q", model.MatchStatusFinished, found.Status)
	}
	if found.TicksRun != 300 {
		t.Fatalf("expected ticks_run 300, got %d", found.TicksRun)
	}
	if found.FinishedAt == nil {
		t.Fatal("expected finished_at to be set")
	}
	if len(found.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(found.Results))
	}
	// Results come back ordered by placement.
	if found.Results[0].Placement != 1 || found.Results[0].PlayerID != 0 {
		t.Fatalf("expected winner first, got %+v", found.Results[0])
	}
	if found.Results[1].Score != 12.5 {
		t.Fatalf("expected runner-up score 12.5, got %f", found.Results[1].Score)
	}
}

func TestMatchFinishWithoutResults(t *testing.T) {
	setup(t)
	repo := NewMatchRepo(testDB)
	ctx := context.Background()

	m, err := repo.Create(ctx, 6, 50, "")
	if err != nil {
		t.Fatalf("create match: %v", err)
	}
	if err := repo.Finish(ctx, m.ID, 50, nil); err != nil {
		t.Fatalf("finish match without results: %v", err)
	}

	found, _ := repo.FindByID(ctx, m.ID)
	if found.Status != model.MatchStatusFinished {
		t.Fatalf("expected status %q, got %q", model.MatchStatusFinished, found.Status)
	}
	if len(found.Results) != 0 {
		t.Fatalf("expected no results, got %d", len(found.Results))
	}
}

func TestMatchAbort(t *testing.T) {
	setup(t)
	repo := NewMatchRepo(testDB)
	ctx := context.Background()

	m, err := repo.Create(ctx, 8, 300, "")
	if err != nil {
		t.Fatalf("create match: %v", err)
	}
	if err := repo.Abort(ctx, m.ID, 120); err != nil {
		t.Fatalf("abort match: %v", err)
	}

	found, _ := repo.FindByID(ctx, m.ID)
	if found.Status != model.MatchStatusAborted {
		t.Fatalf("expected status %q, got %q", model.MatchStatusAborted, found.Status)
	}
	if found.TicksRun != 120 {
		t.Fatalf("expected ticks_run 120, got %d", found.TicksRun)
	}
	if found.FinishedAt == nil {
		t.Fatal("expected finished_at to be set on abort")
	}
}

// --- TickRepo Tests ---

func TestTickScoresSaveAndTimeline(t *testing.T) {
	setup(t)
	matches := NewMatchRepo(testDB)
	ticks := NewTickRepo(testDB)
	ctx := context.Background()

	m, err := matches.Create(ctx, 11, 100, "")
	if err != nil {
		t.Fatalf("create match: %v", err)
	}

	scores := []model.TickScore{
		{MatchID: m.ID, Tick: 1, PlayerID: 1, Score: 0.21},
		{MatchID: m.ID, Tick: 0, PlayerID: 0, Score: 0.24},
		{MatchID: m.ID, Tick: 0, PlayerID: 1, Score: 0.20},
		{MatchID: m.ID, Tick: 1, PlayerID: 0, Score: 0.48},
	}
	if err := ticks.SaveScores(ctx, scores); err != nil {
		t.Fatalf("save scores: %v", err)
	}

	timeline, err := ticks.ScoreTimeline(ctx, m.ID)
	if err != nil {
		t.Fatalf("score timeline: %v", err)
	}
	if len(timeline) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(timeline))
	}
	// Rows come back ordered by tick, then player.
	want := []struct {
		tick, player int
		score        float64
	}{
		{0, 0, 0.24},
		{0, 1, 0.20},
		{1, 0, 0.48},
		{1, 1, 0.21},
	}
	for i, w := range want {
		got := timeline[i]
		if got.Tick != w.tick || got.PlayerID != w.player || got.Score != w.score {
			t.Fatalf("row %d: expected %+v, got %+v", i, w, got)
		}
	}
}

func TestTickScoresIdempotent(t *testing.T) {
	setup(t)
	matches := NewMatchRepo(testDB)
	ticks := NewTickRepo(testDB)
	ctx := context.Background()

	m, err := matches.Create(ctx, 12, 100, "")
	if err != nil {
		t.Fatalf("create match: %v", err)
	}

	scores := []model.TickScore{
		{MatchID: m.ID, Tick: 0, PlayerID: 0, Score: 0.24},
		{MatchID: m.ID, Tick: 0, PlayerID: 1, Score: 0.20},
	}
	if err := ticks.SaveScores(ctx, scores); err != nil {
		t.Fatalf("save scores: %v", err)
	}
	// Replaying the same batch is a no-op.
	if err := ticks.SaveScores(ctx, scores); err != nil {
		t.Fatalf("save scores again: %v", err)
	}

	timeline, _ := ticks.ScoreTimeline(ctx, m.ID)
	if len(timeline) != 2 {
		t.Fatalf("expected 2 rows after replay, got %d", len(timeline))
	}
}

func TestTickScoresEmptyBatch(t *testing.T) {
	setup(t)
	ticks := NewTickRepo(testDB)

	if err := ticks.SaveScores(context.Background(), nil); err != nil {
		t.Fatalf("save empty batch: %v", err)
	}
}
