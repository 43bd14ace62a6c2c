package engine

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lottoza/predictor/config"
	"github.com/lottoza/predictor/internal/calibration"
	"github.com/lottoza/predictor/internal/features"
	"github.com/lottoza/predictor/internal/history"
	"github.com/lottoza/predictor/internal/strategy"
	"github.com/lottoza/predictor/internal/validation"
	"github.com/lottoza/predictor/models"
)

// Orchestrator is the engine's entry point. It drives the prediction
// state machine per (game_type, target_draw_date):
//
//	NoPrediction -> Pending -> Validated
//
// The Validated transition immediately generates the next Pending
// prediction, so a game with history never sits without exactly one
// Pending forecast.
type Orchestrator struct {
	store      Store
	accessor   *history.Accessor
	engineer   *features.Engineer
	frequency  *strategy.FrequencyAnalyzer
	scoring    *strategy.ScoringEngine
	calibrator *calibration.Calibrator
	thresholds strategy.Thresholds

	lookbackDays     int
	ensembleConfBase float64
	ensembleConfCap  float64
	rng              *rand.Rand
	now              func() time.Time
	logger           zerolog.Logger

	// Generation for the same game must be serialized: the Pending
	// uniqueness invariant would race otherwise. Different games run
	// freely in parallel.
	locks map[models.GameType]*sync.Mutex
}

// New wires the orchestrator from config. Pass a seeded rand.Rand for
// reproducible runs; all sampling in every tier draws from it.
func New(store Store, cfg *config.Config, rng *rand.Rand) *Orchestrator {
	engineer := features.NewEngineer()
	scoring := strategy.NewScoringEngine(engineer, rng, cfg.ScoringConfidenceBase, cfg.ScoringConfidenceCap)

	locks := make(map[models.GameType]*sync.Mutex, len(models.AllGameTypes))
	for _, gt := range models.AllGameTypes {
		locks[gt] = &sync.Mutex{}
	}

	return &Orchestrator{
		store:      store,
		accessor:   history.NewAccessor(store, cfg.HistoryCap),
		engineer:   engineer,
		frequency:  strategy.NewFrequencyAnalyzer(rng, cfg.FrequencyConfidenceMin, cfg.FrequencyConfidenceMax),
		scoring:    scoring,
		calibrator: calibration.NewCalibrator(store, cfg.CalibrationMinSamples, cfg.CalibrationClampMin, cfg.CalibrationClampMax),
		thresholds: strategy.Thresholds{
			FeatureScoringMin: cfg.FeatureScoringMinDraws,
			EnsembleMin:       cfg.EnsembleMinDraws,
		},
		lookbackDays:     cfg.LookbackDays,
		ensembleConfBase: cfg.EnsembleConfidenceBase,
		ensembleConfCap:  cfg.EnsembleConfidenceCap,
		rng:              rng,
		now:              time.Now,
		logger:           log.With().Str("component", "orchestrator").Logger(),
		locks:            locks,
	}
}

// GeneratePrediction runs selector -> strategy -> calibrator and
// persists a PENDING prediction for the target draw date. If one
// already exists it is returned unchanged: at most one PENDING
// prediction per (game_type, target_draw_date).
func (o *Orchestrator) GeneratePrediction(gameType models.GameType, targetDate time.Time) (*models.Prediction, error) {
	rules, err := models.RulesFor(gameType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	lock := o.locks[gameType]
	lock.Lock()
	defer lock.Unlock()

	if existing, err := o.store.PendingPrediction(gameType, targetDate); err != nil {
		return nil, fmt.Errorf("check pending prediction: %w", err)
	} else if existing != nil {
		return existing, nil
	}

	draws, err := o.accessor.FetchHistory(gameType, o.lookbackDays)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	cross, err := o.crossGame(gameType, draws)
	if err != nil {
		return nil, err
	}

	result, err := o.runStrategy(rules, draws, targetDate, cross)
	if err != nil {
		return nil, err
	}
	if len(result.Main) < rules.MainCount {
		return nil, fmt.Errorf("%w: produced %d of %d numbers for %s", ErrInsufficientData, len(result.Main), rules.MainCount, gameType)
	}

	calibrated := o.calibrator.Calibrate(result.Confidence, gameType, result.Method)

	prediction := &models.Prediction{
		ID:               uuid.NewString(),
		GameType:         gameType,
		TargetDrawDate:   targetDate,
		PredictedNumbers: result.Main,
		PredictedBonus:   result.Bonus,
		ConfidenceScore:  calibrated,
		Method:           result.Method,
		Reasoning:        result.Reasoning,
		CreatedAt:        o.now(),
		ValidationStatus: models.StatusPending,
	}
	if err := o.store.SavePrediction(prediction); err != nil {
		return nil, fmt.Errorf("save prediction: %w", err)
	}

	o.logger.Info().
		Str("game_type", string(gameType)).
		Time("target_draw_date", targetDate).
		Str("method", string(result.Method)).
		Ints("numbers", result.Main).
		Float64("confidence", calibrated).
		Msg("Prediction generated")
	return prediction, nil
}

// ValidatePrediction scores a stored prediction against its realized
// draw, persists the result, updates calibration and ensemble
// weights, and generates the next Pending prediction for the game.
func (o *Orchestrator) ValidatePrediction(predictionID string, actual models.DrawResult) (*models.ValidationResult, error) {
	prediction, err := o.store.PredictionByID(predictionID)
	if err != nil {
		return nil, fmt.Errorf("load prediction: %w", err)
	}
	if prediction == nil {
		return nil, fmt.Errorf("%w: %s", ErrPredictionNotFound, predictionID)
	}
	if prediction.ValidationStatus == models.StatusValidated {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateValidation, predictionID)
	}

	result, err := validation.Validate(*prediction, actual)
	if err != nil {
		return nil, err
	}
	result.ValidatedAt = o.now()

	if err := o.store.SaveValidation(result); err != nil {
		return nil, fmt.Errorf("save validation: %w", err)
	}
	if err := o.store.MarkValidated(prediction.ID, actual.ID); err != nil {
		return nil, fmt.Errorf("mark prediction validated: %w", err)
	}

	if err := o.calibrator.Record(prediction.GameType, prediction.Method, result.AccuracyPercentage, prediction.ConfidenceScore); err != nil {
		o.logger.Warn().Err(err).
			Str("game_type", string(prediction.GameType)).
			Msg("Failed to update calibration profile")
	}
	if prediction.Method == models.MethodEnsemble {
		o.adjustEnsembleWeights(prediction.GameType, actual)
	}

	o.logger.Info().
		Str("game_type", string(prediction.GameType)).
		Int("main_matches", result.MainMatches).
		Int("bonus_matches", result.BonusMatches).
		Str("prize_tier", result.PrizeTier).
		Float64("accuracy", result.AccuracyPercentage).
		Msg("Prediction validated")

	// Terminal transition: this prediction is done, and the next draw
	// date re-enters the cycle right away.
	next := models.NextDrawDate(prediction.GameType, actual.DrawDate)
	if _, err := o.GeneratePrediction(prediction.GameType, next); err != nil {
		o.logger.Warn().Err(err).
			Str("game_type", string(prediction.GameType)).
			Time("next_draw", next).
			Msg("Failed to generate follow-up prediction")
	}

	return &result, nil
}

// ProcessDraw is the Pending -> Validated trigger: when a draw
// arrives, validate the prediction that targeted its date, if any.
func (o *Orchestrator) ProcessDraw(draw models.DrawResult) (*models.ValidationResult, error) {
	pending, err := o.store.PendingPrediction(draw.GameType, draw.DrawDate)
	if err != nil {
		return nil, fmt.Errorf("find pending prediction: %w", err)
	}
	if pending == nil {
		return nil, nil
	}
	return o.ValidatePrediction(pending.ID, draw)
}

// ProcessLatest runs one engine pass for a game: validate pending
// predictions against every ingested draw, then make sure a Pending
// prediction exists for the next scheduled draw. The returned result
// is the most recent validation of the pass.
func (o *Orchestrator) ProcessLatest(gameType models.GameType) (*models.ValidationResult, *models.Prediction, error) {
	draws, err := o.accessor.FetchHistory(gameType, o.lookbackDays)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch history: %w", err)
	}

	// Several draws can land between sweeps (a missed day is enough
	// for DAILY_LOTTO). Replay them oldest first so every stranded
	// pending prediction is validated and each validation seeds the
	// next one in order.
	var result *models.ValidationResult
	for i := len(draws) - 1; i >= 0; i-- {
		r, err := o.ProcessDraw(draws[i])
		if err != nil {
			return nil, nil, err
		}
		if r != nil {
			result = r
		}
	}

	pending, err := o.EnsurePending(gameType)
	if err != nil {
		return result, nil, err
	}
	return result, pending, nil
}

// EnsurePending guarantees the game has a Pending prediction for its
// next scheduled draw, generating one if needed.
func (o *Orchestrator) EnsurePending(gameType models.GameType) (*models.Prediction, error) {
	draws, err := o.accessor.FetchHistory(gameType, o.lookbackDays)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	after := o.now()
	if len(draws) > 0 && draws[0].DrawDate.After(after) {
		after = draws[0].DrawDate
	}
	return o.GeneratePrediction(gameType, models.NextDrawDate(gameType, after))
}

// GetCalibration exposes the calibration profile for a game/method
// pair. A missing profile comes back empty with a neutral factor.
func (o *Orchestrator) GetCalibration(gameType models.GameType, method models.PredictionMethod) (*models.CalibrationProfile, error) {
	profile, err := o.store.Profile(gameType, method)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		profile = &models.CalibrationProfile{
			GameType:         gameType,
			Method:           method,
			QualityBucket:    models.QualityPoor,
			AdjustmentFactor: 1.0,
		}
	}
	return profile, nil
}

// AccuracySummary reports every method's calibration profile for a
// game, for the presentation layer's accuracy dashboards.
func (o *Orchestrator) AccuracySummary(gameType models.GameType) (map[models.PredictionMethod]*models.CalibrationProfile, error) {
	methods := []models.PredictionMethod{
		models.MethodFrequencyAnalysis,
		models.MethodFeatureScoring,
		models.MethodEnsemble,
	}
	summary := make(map[models.PredictionMethod]*models.CalibrationProfile, len(methods))
	for _, m := range methods {
		profile, err := o.GetCalibration(gameType, m)
		if err != nil {
			return nil, err
		}
		summary[m] = profile
	}
	return summary, nil
}

// runStrategy dispatches to the tier chosen by history volume.
func (o *Orchestrator) runStrategy(rules models.GameRules, draws []models.DrawResult, targetDate time.Time, cross *features.CrossGame) (*strategy.Result, error) {
	switch strategy.Select(len(draws), o.thresholds) {
	case models.MethodFrequencyAnalysis:
		return o.frequency.Predict(rules, draws)
	case models.MethodFeatureScoring:
		return o.scoring.Predict(rules, draws, targetDate, cross)
	default:
		ensemble, err := o.ensembleFor(rules.GameType)
		if err != nil {
			return nil, err
		}
		return ensemble.Predict(rules, draws, targetDate, cross)
	}
}

// crossGame assembles the family histories behind the cross-game
// boost. Games without siblings get a boost source that always
// returns zero.
func (o *Orchestrator) crossGame(gameType models.GameType, own []models.DrawResult) (*features.CrossGame, error) {
	histories := map[models.GameType][]models.DrawResult{gameType: own}
	for _, sibling := range models.FamilyMembers(gameType) {
		draws, err := o.accessor.FetchHistory(sibling, o.lookbackDays)
		if err != nil {
			return nil, fmt.Errorf("fetch sibling history for %s: %w", sibling, err)
		}
		histories[sibling] = draws
	}
	return features.NewCrossGame(gameType, histories), nil
}

// ensembleFor builds the tier-3 strategy with the game's persisted
// vote weights.
func (o *Orchestrator) ensembleFor(gameType models.GameType) (*strategy.Ensemble, error) {
	weights, err := o.store.Weights(gameType)
	if err != nil {
		return nil, fmt.Errorf("load ensemble weights: %w", err)
	}
	if weights == nil {
		w := models.DefaultEnsembleWeights(gameType)
		weights = &w
	}
	return strategy.NewEnsemble(o.engineer, o.scoring, o.rng, o.thresholds.EnsembleMin, *weights, o.ensembleConfBase, o.ensembleConfCap), nil
}

// adjustEnsembleWeights replays each model's solo picks against the
// pre-draw window and nudges the vote weights toward the better
// performers.
func (o *Orchestrator) adjustEnsembleWeights(gameType models.GameType, actual models.DrawResult) {
	rules, err := models.RulesFor(gameType)
	if err != nil {
		return
	}
	draws, err := o.accessor.FetchHistory(gameType, o.lookbackDays)
	if err != nil {
		o.logger.Warn().Err(err).Msg("Failed to fetch history for weight adjustment")
		return
	}
	// Only draws strictly before the validated one may inform the
	// replay, the actual draw is already ingested by now.
	preDraw := draws[:0:0]
	for _, d := range draws {
		if d.DrawDate.Before(actual.DrawDate) {
			preDraw = append(preDraw, d)
		}
	}

	ensemble, err := o.ensembleFor(gameType)
	if err != nil {
		o.logger.Warn().Err(err).Msg("Failed to load ensemble for weight adjustment")
		return
	}
	cross, err := o.crossGame(gameType, preDraw)
	if err != nil {
		o.logger.Warn().Err(err).Msg("Failed to build cross-game data for weight adjustment")
		return
	}

	accuracies := ensemble.ModelAccuracies(rules, preDraw, actual.DrawDate, cross, actual)
	updated := strategy.AdjustWeights(ensemble.Weights(), accuracies)
	if err := o.store.SaveWeights(updated); err != nil {
		o.logger.Warn().Err(err).Msg("Failed to persist adjusted ensemble weights")
		return
	}
	o.logger.Info().
		Str("game_type", string(gameType)).
		Float64("tree", updated.Tree).
		Float64("boost", updated.Boost).
		Float64("net", updated.Net).
		Msg("Ensemble weights adjusted")
}
