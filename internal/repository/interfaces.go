package repository

import (
	"context"
	"encoding/json"

	"github.com/freeeve/openforest/internal/model"
)

// MatchRepository defines match archive operations.
type MatchRepository interface {
	Create(ctx context.Context, seed int64, matchTicks int, replayPath string) (*model.Match, error)
	FindByID(ctx context.Context, id int64) (*model.Match, error)
	ListRecent(ctx context.Context, limit int) ([]model.Match, error)
	Finish(ctx context.Context, id int64, ticksRun int, results []model.MatchResult) error
	Abort(ctx context.Context, id int64, ticksRun int) error
}

// TickRepository defines score timeline operations.
type TickRepository interface {
	SaveScores(ctx context.Context, scores []model.TickScore) error
	ScoreTimeline(ctx context.Context, matchID int64) ([]model.TickScore, error)
}

// LiveCache defines live match state operations (Redis).
type LiveCache interface {
	SetSnapshot(ctx context.Context, matchID int64, snapshot json.RawMessage) error
	GetSnapshot(ctx context.Context, matchID int64) (json.RawMessage, error)
	SetObservation(ctx context.Context, matchID int64, playerID int, observation json.RawMessage) error
	GetObservation(ctx context.Context, matchID int64, playerID int) (json.RawMessage, error)
	SetTick(ctx context.Context, matchID int64, tick int) error
	GetTick(ctx context.Context, matchID int64) (int, error)
	DeleteMatchData(ctx context.Context, matchID int64, playerCount int) error
}
