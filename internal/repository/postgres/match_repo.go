package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/freeeve/openforest/internal/model"
)

// MatchRepo handles match and match_result database operations.
type MatchRepo struct {
	db *sql.DB
}

// NewMatchRepo creates a MatchRepo.
func NewMatchRepo(db *sql.DB) *MatchRepo {
	return &MatchRepo{db: db}
}

// Create inserts a new match in running status.
func (r *MatchRepo) Create(ctx context.Context, seed int64, matchTicks int, replayPath string) (*model.Match, error) {
	var m model.Match
	var replay sql.NullString
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO matches (seed, status, match_ticks, replay_path)
		 VALUES ($1, 'running', $2, NULLIF($3, ''))
		 RETURNING id, seed, status, match_ticks, ticks_run, replay_path, created_at`,
		seed, matchTicks, replayPath,
	).Scan(&m.ID, &m.Seed, &m.Status, &m.MatchTicks, &m.TicksRun, &replay, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create match: %w", err)
	}
	m.ReplayPath = replay.String
	return &m, nil
}

// FindByID returns a match by ID with its results, or nil when absent.
func (r *MatchRepo) FindByID(ctx context.Context, id int64) (*model.Match, error) {
	var m model.Match
	var replay sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, seed, status, match_ticks, ticks_run, replay_path, created_at, finished_at
		 FROM matches WHERE id = $1`, id,
	).Scan(&m.ID, &m.Seed, &m.Status, &m.MatchTicks, &m.TicksRun, &replay, &m.CreatedAt, &m.FinishedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find match: %w", err)
	}
	m.ReplayPath = replay.String

	results, err := r.listResults(ctx, id)
	if err != nil {
		return nil, err
	}
	m.Results = results
	return &m, nil
}

// ListRecent returns the most recently created matches, newest first.
func (r *MatchRepo) ListRecent(ctx context.Context, limit int) ([]model.Match, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, seed, status, match_ticks, ticks_run, replay_path, created_at, finished_at
		 FROM matches ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	var matches []model.Match
	for rows.Next() {
		var m model.Match
		var replay sql.NullString
		if err := rows.Scan(&m.ID, &m.Seed, &m.Status, &m.MatchTicks, &m.TicksRun, &replay, &m.CreatedAt, &m.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		m.ReplayPath = replay.String
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// Finish marks a match finished and stores the final placements.
func (r *MatchRepo) Finish(ctx context.Context, id int64, ticksRun int, results []model.MatchResult) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE matches SET status = 'finished', ticks_run = $1, finished_at = now() WHERE id = $2`,
		ticksRun, id,
	)
	if err != nil {
		return fmt.Errorf("finish match: %w", err)
	}

	for _, res := range results {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO match_results (match_id, player_id, player_name, score, territory_score, artifact_score, placement)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			id, res.PlayerID, res.PlayerName, res.Score, res.TerritoryScore, res.ArtifactScore, res.Placement,
		)
		if err != nil {
			return fmt.Errorf("insert result: %w", err)
		}
	}

	return tx.Commit()
}

// Abort marks a match aborted at the tick it reached.
func (r *MatchRepo) Abort(ctx context.Context, id int64, ticksRun int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE matches SET status = 'aborted', ticks_run = $1, finished_at = now() WHERE id = $2`,
		ticksRun, id,
	)
	if err != nil {
		return fmt.Errorf("abort match: %w", err)
	}
	return nil
}

func (r *MatchRepo) listResults(ctx context.Context, matchID int64) ([]model.MatchResult, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT match_id, player_id, player_name, score, territory_score, artifact_score, placement
		 FROM match_results WHERE match_id = $1 ORDER BY placement`, matchID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var results []model.MatchResult
	for rows.Next() {
		var res model.MatchResult
		if err := rows.Scan(&res.MatchID, &res.PlayerID, &res.PlayerName, &res.Score,
			&res.TerritoryScore, &res.ArtifactScore, &res.Placement); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		results = append(results, res)
	}
	return results, rows.Err()
}
