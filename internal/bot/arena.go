package bot

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/openforest/internal/model"
	"github.com/freeeve/openforest/internal/repository"
	"github.com/freeeve/openforest/internal/service"
	"github.com/freeeve/openforest/pkg/openforest"
)

// execPrefix marks an arena seat spec that launches a subprocess agent
// instead of a builtin strategy, e.g. "exec:./mybot --depth 3".
const execPrefix = "exec:"

// ArenaConfig configures a single offline bot-vs-bot match.
type ArenaConfig struct {
	Match  openforest.MatchConfig
	Seats  []string // per seat: builtin strategy name or "exec:argv"
	DryRun bool     // skip archive writes
	Replay string   // replay file path, empty disables
}

// ArenaResult describes the outcome of a completed arena match.
type ArenaResult struct {
	MatchID  int64
	Seed     int64
	TicksRun int
	Winner   string
	Results  []model.MatchResult
}

// ParseSeatConfig expands a "0=rush,1=exec:./mybot,*=random" spec into
// one seat spec per player. The wildcard entry sets the default for
// unlisted seats.
func ParseSeatConfig(spec string, players int) ([]string, error) {
	seats := make([]string, players)
	def := "random"

	if spec != "" {
		for _, part := range strings.Split(spec, ",") {
			key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
			if !ok || value == "" {
				return nil, fmt.Errorf("expected seat=strategy, got %q", part)
			}
			if err := validateSeatSpec(value); err != nil {
				return nil, err
			}
			if key == "*" {
				def = value
				continue
			}
			id, err := strconv.Atoi(key)
			if err != nil || id < 0 || id >= players {
				return nil, fmt.Errorf("seat %q out of range [0,%d)", key, players)
			}
			seats[id] = value
		}
	}

	for i := range seats {
		if seats[i] == "" {
			seats[i] = def
		}
	}
	return seats, nil
}

func validateSeatSpec(spec string) error {
	if strings.HasPrefix(spec, execPrefix) {
		if strings.TrimSpace(strings.TrimPrefix(spec, execPrefix)) == "" {
			return fmt.Errorf("empty exec spec %q", spec)
		}
		return nil
	}
	if !slices.Contains(StrategyNames, spec) {
		return fmt.Errorf("unknown strategy %q (known: %s)", spec, strings.Join(StrategyNames, ", "))
	}
	return nil
}

// seatName derives a standings name from a seat spec.
func seatName(spec string, id int) string {
	if strings.HasPrefix(spec, execPrefix) {
		argv := strings.Fields(strings.TrimPrefix(spec, execPrefix))
		return fmt.Sprintf("%s-%d", filepath.Base(argv[0]), id)
	}
	return fmt.Sprintf("%s-%d", spec, id)
}

// RunMatch plays one full match between the configured seats, archiving
// the result unless DryRun is set. Pass nil repos to skip the archive
// regardless.
func RunMatch(ctx context.Context, cfg ArenaConfig, matches repository.MatchRepository, ticks repository.TickRepository) (*ArenaResult, error) {
	if len(cfg.Seats) < 1 {
		return nil, fmt.Errorf("no seats configured")
	}
	if cfg.DryRun {
		matches, ticks = nil, nil
	}

	names := make([]string, len(cfg.Seats))
	for i, spec := range cfg.Seats {
		names[i] = seatName(spec, i)
	}

	agents := make([]service.AgentConn, len(cfg.Seats))
	for i, spec := range cfg.Seats {
		if strings.HasPrefix(spec, execPrefix) {
			argv := strings.Fields(strings.TrimPrefix(spec, execPrefix))
			ext, err := NewExternalAgent(i, names[i], argv)
			if err != nil {
				return nil, fmt.Errorf("start %s: %w", spec, err)
			}
			defer func() {
				if err := ext.Close(); err != nil {
					log.Warn().Err(err).Str("agent", ext.Name()).Msg("External agent close failed")
				}
			}()
			agents[i] = ext
			continue
		}
		agents[i] = NewLocalAgent(i, StrategyForName(spec))
	}

	var replay *service.ReplayWriter
	if cfg.Replay != "" {
		var err error
		replay, err = service.NewReplayWriter(cfg.Replay)
		if err != nil {
			return nil, fmt.Errorf("open replay: %w", err)
		}
	}

	state := openforest.NewState(cfg.Match, names)
	matchSvc := service.NewMatchService(service.MatchDeps{
		State:   state,
		Agents:  agents,
		Replay:  replay,
		Matches: matches,
		Ticks:   ticks,
	})

	if err := matchSvc.Run(ctx); err != nil {
		return nil, err
	}

	standings := matchSvc.Standings()
	result := &ArenaResult{
		MatchID:  matchSvc.MatchID(),
		Seed:     cfg.Match.Seed,
		TicksRun: state.Tick,
		Results:  standings,
	}
	if len(standings) > 0 {
		result.Winner = standings[0].PlayerName
	}
	log.Info().Int64("seed", result.Seed).Str("winner", result.Winner).
		Int("ticks", result.TicksRun).Msg("Arena match finished")
	return result, nil
}
