package main

import (
	"context"
	"flag"
	"math/rand"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/lottoza/predictor/config"
	"github.com/lottoza/predictor/internal/backtest"
	"github.com/lottoza/predictor/internal/database"
	"github.com/lottoza/predictor/internal/engine"
	"github.com/lottoza/predictor/internal/history"
	"github.com/lottoza/predictor/models"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}
}

// main runs one engine sweep: for every game type, validate any
// pending prediction against newly ingested draws and make sure the
// next Pending prediction exists. An external scheduler invokes this
// after the ingestion pipeline lands new results.
func main() {
	backtestTargets := flag.Int("backtest", 0, "replay the last N draws per game instead of running a sweep")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	db, err := database.New(database.ConnectionParams{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	seed := cfg.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	if *backtestTargets > 0 {
		runBacktest(db, cfg, rng, *backtestTargets)
		return
	}

	orchestrator := engine.New(db, cfg, rng)

	// Pace the per-game passes so a sweep never hammers the database.
	limiter := rate.NewLimiter(rate.Every(time.Second), 2)
	ctx := context.Background()

	failures := 0
	for _, gameType := range models.AllGameTypes {
		if err := limiter.Wait(ctx); err != nil {
			log.Fatal().Err(err).Msg("Rate limiter interrupted")
		}

		validated, pending, err := orchestrator.ProcessLatest(gameType)
		if err != nil {
			failures++
			log.Error().Err(err).Str("game_type", string(gameType)).Msg("Engine pass failed")
			continue
		}
		event := log.Info().Str("game_type", string(gameType))
		if validated != nil {
			event = event.
				Int("main_matches", validated.MainMatches).
				Str("prize_tier", validated.PrizeTier)
		}
		if pending != nil {
			event = event.
				Time("target_draw_date", pending.TargetDrawDate).
				Str("method", string(pending.Method)).
				Float64("confidence", pending.ConfidenceScore)
		}
		event.Msg("Engine pass complete")
	}

	if failures > 0 {
		log.Warn().Int("failures", failures).Msg("Sweep finished with failures")
		os.Exit(1)
	}
	log.Info().Msg("Sweep finished")
}

// runBacktest replays recent draws for every game and reports how the
// tiers would have scored, without touching stored predictions.
func runBacktest(db *database.DB, cfg *config.Config, rng *rand.Rand, targets int) {
	accessor := history.NewAccessor(db, cfg.HistoryCap)
	runner := backtest.NewRunner(cfg, rng)

	failures := 0
	for _, gameType := range models.AllGameTypes {
		draws, err := accessor.FetchHistory(gameType, cfg.LookbackDays)
		if err != nil {
			failures++
			log.Error().Err(err).Str("game_type", string(gameType)).Msg("Failed to fetch history")
			continue
		}
		report, err := runner.Run(gameType, draws, targets)
		if err != nil {
			failures++
			log.Error().Err(err).Str("game_type", string(gameType)).Msg("Backtest failed")
			continue
		}
		log.Info().
			Str("game_type", string(gameType)).
			Int("evaluated", report.Evaluated).
			Float64("mean_accuracy", report.MeanAccuracy).
			Int("best_main_matches", report.BestMainMatches).
			Str("prizes", report.PrizeSummary()).
			Msg("Backtest report")
	}
	if failures > 0 {
		os.Exit(1)
	}
}
