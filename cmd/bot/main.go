package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/openforest/internal/bot"
)

// parseSeats expands "0=rush,1=expansion" into the orchestrator's seat
// assignment. A bare strategy name plays seat 0.
func parseSeats(spec string) (map[int]bot.Strategy, error) {
	seats := make(map[int]bot.Strategy)
	for _, part := range strings.Split(spec, ",") {
		key, name, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			name = key
			key = "0"
		}
		id, err := strconv.Atoi(key)
		if err != nil || id < 0 {
			return nil, fmt.Errorf("bad seat id %q", key)
		}
		if !slices.Contains(bot.StrategyNames, name) {
			return nil, fmt.Errorf("unknown strategy %q (known: %s)", name, strings.Join(bot.StrategyNames, ", "))
		}
		seats[id] = bot.StrategyForName(name)
	}
	return seats, nil
}

func main() {
	url := flag.String("url", "http://localhost:8011", "server base URL")
	seatSpec := flag.String("seats", "0=random", "seat assignment, e.g. 0=rush,1=expansion")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	seats, err := parseSeats(*seatSpec)
	if err != nil {
		log.Fatal().Err(err).Str("seats", *seatSpec).Msg("Invalid seat assignment")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info().Msg("Received shutdown signal")
		cancel()
	}()

	orch := bot.NewOrchestrator(*url, seats)
	if err := orch.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("Bot orchestrator failed")
	}
	log.Info().Msg("Match completed")
}
