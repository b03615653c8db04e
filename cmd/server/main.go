package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/openforest/internal/bot"
	"github.com/freeeve/openforest/internal/config"
	"github.com/freeeve/openforest/internal/handler"
	"github.com/freeeve/openforest/internal/logger"
	"github.com/freeeve/openforest/internal/middleware"
	"github.com/freeeve/openforest/internal/repository"
	"github.com/freeeve/openforest/internal/repository/postgres"
	redisrepo "github.com/freeeve/openforest/internal/repository/redis"
	"github.com/freeeve/openforest/internal/service"
	"github.com/freeeve/openforest/pkg/openforest"
)

// seatList collects repeatable "id=value" flags.
type seatList []string

func (s *seatList) String() string { return strings.Join(*s, ",") }

func (s *seatList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// parseSeat splits an "id=value" flag into its parts.
func parseSeat(spec string, players int) (int, string, error) {
	idStr, value, ok := strings.Cut(spec, "=")
	if !ok {
		return 0, "", fmt.Errorf("expected id=value, got %q", spec)
	}
	id, err := strconv.Atoi(idStr)
	if err != nil || id < 0 || id >= players {
		return 0, "", fmt.Errorf("seat id %q out of range [0,%d)", idStr, players)
	}
	return id, value, nil
}

func main() {
	var (
		configPath = flag.String("config", "", "match config JSON file (defaults apply when empty)")
		players    = flag.Int("players", 2, "number of player seats")
		localBots  seatList
		httpBots   seatList
		replayName = flag.String("replay", "", "replay file name (.jsonl or .jsonl.lz4); empty disables")
	)
	flag.Var(&localBots, "local-bot", "seat a builtin bot: id=strategy (repeatable)")
	flag.Var(&httpBots, "http-bot", "seat an HTTP bot: id=baseURL (repeatable)")
	flag.Parse()

	logger.Init()
	cfg := config.Load()

	matchCfg := openforest.DefaultConfig()
	if *configPath != "" {
		var err error
		matchCfg, err = openforest.LoadConfig(*configPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load match config")
		}
	}
	if *players < 1 {
		log.Fatal().Int("players", *players).Msg("Need at least one player seat")
	}

	names := make([]string, *players)
	for i := range names {
		names[i] = fmt.Sprintf("player-%d", i)
	}
	state := openforest.NewState(matchCfg, names)
	log.Info().Int64("seed", matchCfg.Seed).Int("players", *players).
		Int("planets", len(state.Planets)).Msg("World generated")

	// Postgres (optional; the archive endpoints answer 503 without it)
	var (
		matches repository.MatchRepository
		ticks   repository.TickRepository
	)
	connectCtx, connectCancel := context.WithTimeout(context.Background(), 5*time.Second)
	db, err := postgres.Connect(connectCtx, cfg.DatabaseURL)
	connectCancel()
	if err != nil {
		log.Warn().Err(err).Msg("Postgres unavailable, match archive disabled")
	} else {
		defer db.Close()
		matches = postgres.NewMatchRepo(db)
		ticks = postgres.NewTickRepo(db)
	}

	// Redis (optional; live cache reads answer 503 without it)
	var cache repository.LiveCache
	redisClient, err := redisrepo.NewClient(cfg.RedisURL)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, live cache disabled")
	} else {
		defer redisClient.Close()
		cache = redisClient
	}

	// Replay sink
	var replay *service.ReplayWriter
	if *replayName != "" {
		path := *replayName
		if !strings.ContainsRune(path, os.PathSeparator) {
			if err := os.MkdirAll(cfg.ReplayDir, 0o755); err != nil {
				log.Fatal().Err(err).Str("dir", cfg.ReplayDir).Msg("Failed to create replay directory")
			}
			path = filepath.Join(cfg.ReplayDir, path)
		}
		replay, err = service.NewReplayWriter(path)
		if err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("Failed to open replay file")
		}
		log.Info().Str("path", path).Msg("Replay enabled")
	}

	// WebSocket hub and seats. Every seat defaults to a websocket agent;
	// --local-bot and --http-bot override individual seats.
	wsHub := handler.NewHub()
	agents := make([]service.AgentConn, *players)
	for i := range agents {
		agents[i] = wsHub.AgentFor(i)
	}
	for _, spec := range localBots {
		id, name, err := parseSeat(spec, *players)
		if err != nil {
			log.Fatal().Err(err).Msg("Bad --local-bot flag")
		}
		if !slices.Contains(bot.StrategyNames, name) {
			log.Fatal().Str("strategy", name).Strs("known", bot.StrategyNames).Msg("Unknown strategy")
		}
		agents[id] = bot.NewLocalAgent(id, bot.StrategyForName(name))
		log.Info().Int("playerId", id).Str("strategy", name).Msg("Seated builtin bot")
	}
	for _, spec := range httpBots {
		id, baseURL, err := parseSeat(spec, *players)
		if err != nil {
			log.Fatal().Err(err).Msg("Bad --http-bot flag")
		}
		agents[id] = bot.NewHTTPAgent(id, baseURL)
		log.Info().Int("playerId", id).Str("url", baseURL).Msg("Seated HTTP bot")
	}

	// Services
	matchSvc := service.NewMatchService(service.MatchDeps{
		State:       state,
		Agents:      agents,
		Broadcaster: wsHub,
		Replay:      replay,
		Matches:     matches,
		Ticks:       ticks,
		Cache:       cache,
		Pace:        true,
	})

	// Handlers
	matchHandler := handler.NewMatchHandler(matchSvc, wsHub, matches, ticks, cache)
	wsHandler := handler.NewWSHandler(wsHub, *players)

	// Router
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	mux.HandleFunc("GET /status", matchHandler.Status)
	mux.HandleFunc("GET /api/matches", matchHandler.ListMatches)
	mux.HandleFunc("GET /api/matches/{id}", matchHandler.GetMatch)
	mux.HandleFunc("GET /api/matches/{id}/scores", matchHandler.ScoreTimeline)
	mux.HandleFunc("GET /api/matches/{id}/snapshot", matchHandler.LiveSnapshot)
	mux.HandleFunc("GET /api/matches/{id}/observations/{playerId}", matchHandler.LiveObservation)

	mux.HandleFunc("GET /ws/player/{id}", wsHandler.ServePlayer)
	mux.HandleFunc("GET /ws/spectator", wsHandler.ServeSpectator)

	root := middleware.Chain(mux,
		middleware.Logger,
		middleware.CORS(cfg.AllowedOrigins),
		middleware.JSON,
		middleware.RateLimit(50, 100),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// The match starts at boot; unconnected seats simply lose turns
	// until their agent dials in.
	matchCtx, matchCancel := context.WithCancel(context.Background())
	defer matchCancel()
	matchDone := make(chan struct{})
	go func() {
		defer close(matchDone)
		if err := matchSvc.Run(matchCtx); err != nil {
			log.Error().Err(err).Msg("Match ended with error")
		}
	}()

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server")

	matchCancel()
	<-matchDone

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server shutdown error")
	}
	log.Info().Msg("Server stopped")
}
