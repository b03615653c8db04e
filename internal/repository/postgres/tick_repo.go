package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/freeeve/openforest/internal/model"
)

// TickRepo stores the per-tick score timeline of a match.
type TickRepo struct {
	db *sql.DB
}

// NewTickRepo creates a TickRepo.
func NewTickRepo(db *sql.DB) *TickRepo {
	return &TickRepo{db: db}
}

// SaveScores inserts one tick's score rows. Duplicate (match, tick,
// player) rows from an import re-run are ignored.
func (r *TickRepo) SaveScores(ctx context.Context, scores []model.TickScore) error {
	if len(scores) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO match_ticks (match_id, tick, player_id, score)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (match_id, tick, player_id) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("prepare tick insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range scores {
		if _, err := stmt.ExecContext(ctx, s.MatchID, s.Tick, s.PlayerID, s.Score); err != nil {
			return fmt.Errorf("insert tick score: %w", err)
		}
	}

	return tx.Commit()
}

// ScoreTimeline returns every stored score row for a match, ordered by
// tick then player.
func (r *TickRepo) ScoreTimeline(ctx context.Context, matchID int64) ([]model.TickScore, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT match_id, tick, player_id, score
		 FROM match_ticks WHERE match_id = $1 ORDER BY tick, player_id`, matchID)
	if err != nil {
		return nil, fmt.Errorf("score timeline: %w", err)
	}
	defer rows.Close()

	var scores []model.TickScore
	for rows.Next() {
		var s model.TickScore
		if err := rows.Scan(&s.MatchID, &s.Tick, &s.PlayerID, &s.Score); err != nil {
			return nil, fmt.Errorf("scan tick score: %w", err)
		}
		scores = append(scores, s)
	}
	return scores, rows.Err()
}
