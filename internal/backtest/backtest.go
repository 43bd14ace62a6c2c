package backtest

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lottoza/predictor/config"
	"github.com/lottoza/predictor/internal/features"
	"github.com/lottoza/predictor/internal/strategy"
	"github.com/lottoza/predictor/internal/validation"
	"github.com/lottoza/predictor/models"
)

// MethodStats aggregates replay outcomes for one prediction tier.
type MethodStats struct {
	Evaluated    int     `json:"evaluated"`
	MeanAccuracy float64 `json:"mean_accuracy"`
}

// Report is the outcome of a walk-forward replay over stored history.
type Report struct {
	GameType        models.GameType                            `json:"game_type"`
	Evaluated       int                                        `json:"evaluated"`
	MeanAccuracy    float64                                    `json:"mean_accuracy"`
	BestMainMatches int                                        `json:"best_main_matches"`
	PrizeWins       map[string]int                             `json:"prize_wins"`
	LongestStreak   int                                        `json:"longest_prize_streak"`
	PerMethod       map[models.PredictionMethod]*MethodStats   `json:"per_method"`
}

// Runner replays the prediction tiers over historical draws: each past
// draw is predicted from the window strictly before it and scored
// against what actually came up. Nothing is persisted; the replay is a
// read-only evaluation pass.
type Runner struct {
	engineer   *features.Engineer
	frequency  *strategy.FrequencyAnalyzer
	scoring    *strategy.ScoringEngine
	thresholds strategy.Thresholds
	minDraws   int
	confBase   float64
	confCap    float64
	rng        *rand.Rand
	logger     zerolog.Logger
}

// NewRunner wires a replay runner from the same config the live
// engine uses, so backtest results reflect production behavior.
func NewRunner(cfg *config.Config, rng *rand.Rand) *Runner {
	engineer := features.NewEngineer()
	return &Runner{
		engineer:  engineer,
		frequency: strategy.NewFrequencyAnalyzer(rng, cfg.FrequencyConfidenceMin, cfg.FrequencyConfidenceMax),
		scoring:   strategy.NewScoringEngine(engineer, rng, cfg.ScoringConfidenceBase, cfg.ScoringConfidenceCap),
		thresholds: strategy.Thresholds{
			FeatureScoringMin: cfg.FeatureScoringMinDraws,
			EnsembleMin:       cfg.EnsembleMinDraws,
		},
		minDraws: cfg.EnsembleMinDraws,
		confBase: cfg.EnsembleConfidenceBase,
		confCap:  cfg.EnsembleConfidenceCap,
		rng:      rng,
		logger:   log.With().Str("component", "backtest").Logger(),
	}
}

// Run replays up to maxTargets draws from the front of the history
// window (most recent first). Each target draw is predicted using only
// the draws before it; a target with an empty prior window is skipped.
func (r *Runner) Run(gameType models.GameType, history []models.DrawResult, maxTargets int) (*Report, error) {
	rules, err := models.RulesFor(gameType)
	if err != nil {
		return nil, err
	}
	if maxTargets <= 0 || maxTargets > len(history)-1 {
		maxTargets = len(history) - 1
	}
	if maxTargets < 1 {
		return nil, fmt.Errorf("backtest for %s needs at least two draws, got %d", gameType, len(history))
	}

	report := &Report{
		GameType:  gameType,
		PrizeWins: make(map[string]int),
		PerMethod: make(map[models.PredictionMethod]*MethodStats),
	}

	totalAccuracy := 0.0
	streak := 0
	for i := 0; i < maxTargets; i++ {
		target := history[i]
		window := history[i+1:]

		result, err := r.predict(rules, window, target)
		if err != nil {
			r.logger.Warn().Err(err).
				Int("draw_number", target.DrawNumber).
				Msg("Skipping replay target")
			continue
		}

		outcome, err := validation.Validate(models.Prediction{
			ID:               fmt.Sprintf("replay-%d", target.DrawNumber),
			GameType:         gameType,
			TargetDrawDate:   target.DrawDate,
			PredictedNumbers: result.Main,
			PredictedBonus:   result.Bonus,
		}, target)
		if err != nil {
			return nil, fmt.Errorf("score replay target %d: %w", target.DrawNumber, err)
		}

		report.Evaluated++
		totalAccuracy += outcome.AccuracyPercentage
		if outcome.MainMatches > report.BestMainMatches {
			report.BestMainMatches = outcome.MainMatches
		}
		if outcome.PrizeTier != validation.NoPrize {
			report.PrizeWins[outcome.PrizeTier]++
			streak++
			if streak > report.LongestStreak {
				report.LongestStreak = streak
			}
		} else {
			streak = 0
		}

		stats, ok := report.PerMethod[result.Method]
		if !ok {
			stats = &MethodStats{}
			report.PerMethod[result.Method] = stats
		}
		n := float64(stats.Evaluated)
		stats.MeanAccuracy = (stats.MeanAccuracy*n + outcome.AccuracyPercentage) / (n + 1)
		stats.Evaluated++
	}

	if report.Evaluated == 0 {
		return nil, fmt.Errorf("backtest for %s evaluated no targets", gameType)
	}
	report.MeanAccuracy = totalAccuracy / float64(report.Evaluated)

	r.logger.Info().
		Str("game_type", string(gameType)).
		Int("evaluated", report.Evaluated).
		Float64("mean_accuracy", report.MeanAccuracy).
		Int("best_main_matches", report.BestMainMatches).
		Msg("Backtest complete")
	return report, nil
}

// predict dispatches a replay window to the tier the live selector
// would pick. The ensemble gets fresh default weights per target; the
// replay measures the strategies, not the evolved weight state.
func (r *Runner) predict(rules models.GameRules, window []models.DrawResult, target models.DrawResult) (*strategy.Result, error) {
	if len(window) == 0 {
		return nil, fmt.Errorf("empty prior window for draw %d", target.DrawNumber)
	}
	switch strategy.Select(len(window), r.thresholds) {
	case models.MethodFrequencyAnalysis:
		return r.frequency.Predict(rules, window)
	case models.MethodFeatureScoring:
		return r.scoring.Predict(rules, window, target.DrawDate, nil)
	default:
		ensemble := strategy.NewEnsemble(r.engineer, r.scoring, r.rng, r.minDraws, models.DefaultEnsembleWeights(rules.GameType), r.confBase, r.confCap)
		return ensemble.Predict(rules, window, target.DrawDate, nil)
	}
}

// PrizeSummary renders the prize counts in division order for logs.
func (rep *Report) PrizeSummary() string {
	if len(rep.PrizeWins) == 0 {
		return "no prizes"
	}
	tiers := make([]string, 0, len(rep.PrizeWins))
	for tier := range rep.PrizeWins {
		tiers = append(tiers, tier)
	}
	sort.Strings(tiers)
	out := ""
	for i, tier := range tiers {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%s x%d", tier, rep.PrizeWins[tier])
	}
	return out
}
