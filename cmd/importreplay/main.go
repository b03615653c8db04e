// Command importreplay reads a match replay file and imports the match
// summary and score timeline into the Postgres archive, so replays from
// offline arenas or other servers are browsable through the REST API.
//
// Usage:
//
//	go run ./cmd/importreplay/ --input match.jsonl.lz4 --db postgres://...
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"github.com/freeeve/openforest/internal/model"
	"github.com/freeeve/openforest/internal/repository/postgres"
	"github.com/freeeve/openforest/internal/service"
	"github.com/freeeve/openforest/pkg/openforest"
)

func main() {
	inputFile := flag.String("input", "", "Path to replay file (.jsonl or .jsonl.lz4)")
	dbURL := flag.String("db", os.Getenv("DATABASE_URL"), "Postgres connection URL")
	seed := flag.Int64("seed", 0, "World seed the replay was recorded with (0 = unknown)")
	flag.Parse()

	if *inputFile == "" {
		log.Fatal("--input is required")
	}
	if *dbURL == "" {
		log.Fatal("--db or DATABASE_URL is required")
	}

	timeline, final, err := readReplay(*inputFile)
	if err != nil {
		log.Fatalf("read replay: %v", err)
	}
	if final == nil {
		log.Fatalf("replay %s holds no records", *inputFile)
	}

	ctx := context.Background()
	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	db, err := postgres.Connect(connectCtx, *dbURL)
	cancel()
	if err != nil {
		log.Fatalf("connect to postgres: %v", err)
	}
	defer db.Close()

	matchRepo := postgres.NewMatchRepo(db)
	tickRepo := postgres.NewTickRepo(db)

	m, err := matchRepo.Create(ctx, *seed, final.Tick, *inputFile)
	if err != nil {
		log.Fatalf("create match record: %v", err)
	}

	for i := range timeline {
		timeline[i].MatchID = m.ID
	}
	if err := tickRepo.SaveScores(ctx, timeline); err != nil {
		log.Fatalf("save score timeline: %v", err)
	}

	if err := matchRepo.Finish(ctx, m.ID, final.Tick, standings(m.ID, final)); err != nil {
		log.Fatalf("finish match record: %v", err)
	}

	log.Printf("imported %s -> match %d (%d ticks, %d players)",
		*inputFile, m.ID, final.Tick, len(final.Scores))
}

// readReplay walks the record stream, checks it is a contiguous run of
// ticks, and returns the score timeline plus the final snapshot.
func readReplay(path string) ([]model.TickScore, *openforest.Snapshot, error) {
	rr, err := service.NewReplayReader(path)
	if err != nil {
		return nil, nil, err
	}
	defer rr.Close()

	var (
		timeline []model.TickScore
		final    *openforest.Snapshot
		prevTick int
	)
	for {
		rec, err := rr.Next()
		if err != nil {
			return nil, nil, err
		}
		if rec == nil {
			break
		}
		if rec.Tick != prevTick+1 {
			return nil, nil, fmt.Errorf("tick %d follows tick %d, replay is not contiguous", rec.Tick, prevTick)
		}
		prevTick = rec.Tick

		var snapshot openforest.Snapshot
		if err := json.Unmarshal(rec.State, &snapshot); err != nil {
			return nil, nil, fmt.Errorf("tick %d: decode state: %w", rec.Tick, err)
		}
		if snapshot.Tick != rec.Tick {
			return nil, nil, fmt.Errorf("record tick %d carries state for tick %d", rec.Tick, snapshot.Tick)
		}

		for _, sv := range snapshot.Scores {
			timeline = append(timeline, model.TickScore{
				Tick:     snapshot.Tick,
				PlayerID: sv.ID,
				Score:    sv.Score,
			})
		}
		final = &snapshot
	}
	return timeline, final, nil
}

// standings ranks the final snapshot's scoreboard the way a live match
// does: score descending, ties broken by player id.
func standings(matchID int64, final *openforest.Snapshot) []model.MatchResult {
	scores := make([]openforest.ScoreView, len(final.Scores))
	copy(scores, final.Scores)
	sort.Slice(scores, func(a, b int) bool {
		if scores[a].Score != scores[b].Score {
			return scores[a].Score > scores[b].Score
		}
		return scores[a].ID < scores[b].ID
	})

	results := make([]model.MatchResult, len(scores))
	for rank, sv := range scores {
		results[rank] = model.MatchResult{
			MatchID:        matchID,
			PlayerID:       sv.ID,
			PlayerName:     sv.Name,
			Score:          sv.Score,
			TerritoryScore: sv.TerritoryScore,
			ArtifactScore:  sv.ArtifactScore,
			Placement:      rank + 1,
		}
	}
	return results
}
