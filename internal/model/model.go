package model

import "time"

// Match status values.
const (
	MatchStatusRunning  = "running"
	MatchStatusFinished = "finished"
	MatchStatusAborted  = "aborted"
)

// Match represents one archived or in-progress match.
type Match struct {
	ID         int64         `json:"id"`
	Seed       int64         `json:"seed"`
	Status     string        `json:"status"` // running, finished, aborted
	MatchTicks int           `json:"match_ticks"`
	TicksRun   int           `json:"ticks_run"`
	ReplayPath string        `json:"replay_path,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	FinishedAt *time.Time    `json:"finished_at,omitempty"`
	Results    []MatchResult `json:"results,omitempty"`
}

// MatchResult is one player's final line in a finished match.
type MatchResult struct {
	MatchID        int64   `json:"match_id"`
	PlayerID       int     `json:"player_id"`
	PlayerName     string  `json:"player_name"`
	Score          float64 `json:"score"`
	TerritoryScore float64 `json:"territory_score"`
	ArtifactScore  float64 `json:"artifact_score"`
	Placement      int     `json:"placement"`
}

// TickScore is one player's score at one tick, forming the match's
// score timeline.
type TickScore struct {
	MatchID  int64   `json:"match_id"`
	Tick     int     `json:"tick"`
	PlayerID int     `json:"player_id"`
	Score    float64 `json:"score"`
}
