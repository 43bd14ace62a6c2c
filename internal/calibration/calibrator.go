package calibration

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lottoza/predictor/models"
)

// ErrProfileConflict is returned by a ProfileStore when an optimistic
// version check fails; Record retries the read-modify-write.
var ErrProfileConflict = errors.New("calibration profile version conflict")

// Quality bucket thresholds on mean accuracy, in percent.
// Informational only: buckets never gate prediction generation.
const (
	excellentThreshold = 70.0
	goodThreshold      = 50.0
	fairThreshold      = 30.0
)

const conflictRetries = 3

// ProfileStore persists calibration profiles. Profile returns
// (nil, nil) when no profile exists yet. SaveProfile must enforce the
// profile's version for concurrent validators of the same game and
// return ErrProfileConflict on a lost race.
type ProfileStore interface {
	Profile(gameType models.GameType, method models.PredictionMethod) (*models.CalibrationProfile, error)
	SaveProfile(profile *models.CalibrationProfile) error
}

// Calibrator adjusts raw strategy confidence against the tracked
// historical accuracy of that (game_type, method) pair.
type Calibrator struct {
	store      ProfileStore
	minSamples int
	clampMin   float64
	clampMax   float64
	logger     zerolog.Logger
}

// NewCalibrator creates a calibrator. minSamples is how much
// validation history a profile needs before it is trusted (reference
// 5); the clamp bounds (reference [0.5, 1.5]) prevent runaway
// correction.
func NewCalibrator(store ProfileStore, minSamples int, clampMin, clampMax float64) *Calibrator {
	return &Calibrator{
		store:      store,
		minSamples: minSamples,
		clampMin:   clampMin,
		clampMax:   clampMax,
		logger:     log.With().Str("component", "calibrator").Logger(),
	}
}

// Calibrate multiplies the raw confidence by the profile's adjustment
// factor. With fewer than minSamples validations the raw value passes
// through unmodified.
func (c *Calibrator) Calibrate(raw float64, gameType models.GameType, method models.PredictionMethod) float64 {
	if raw < 0 {
		raw = 0
	}
	profile, err := c.store.Profile(gameType, method)
	if err != nil {
		c.logger.Warn().Err(err).
			Str("game_type", string(gameType)).
			Str("method", string(method)).
			Msg("Calibration profile unavailable, using raw confidence")
		return raw
	}
	if profile == nil || profile.SampleCount < c.minSamples {
		return raw
	}
	return raw * profile.AdjustmentFactor
}

// Record folds one validated accuracy into the profile: incremental
// means, a refreshed adjustment factor, and a quality bucket. Retries
// on optimistic-version conflicts.
func (c *Calibrator) Record(gameType models.GameType, method models.PredictionMethod, accuracy, claimedConfidence float64) error {
	for attempt := 0; attempt < conflictRetries; attempt++ {
		profile, err := c.store.Profile(gameType, method)
		if err != nil {
			return fmt.Errorf("load calibration profile: %w", err)
		}
		if profile == nil {
			profile = &models.CalibrationProfile{
				GameType:         gameType,
				Method:           method,
				AdjustmentFactor: 1.0,
			}
		}

		n := float64(profile.SampleCount)
		profile.MeanAccuracy = (profile.MeanAccuracy*n + accuracy) / (n + 1)
		profile.MeanConfidence = (profile.MeanConfidence*n + claimedConfidence) / (n + 1)
		profile.SampleCount++
		profile.AdjustmentFactor = c.adjustmentFactor(profile)
		profile.QualityBucket = BucketFor(profile.MeanAccuracy)

		err = c.store.SaveProfile(profile)
		if err == nil {
			c.logger.Info().
				Str("game_type", string(gameType)).
				Str("method", string(method)).
				Int("samples", profile.SampleCount).
				Float64("mean_accuracy", profile.MeanAccuracy).
				Float64("adjustment_factor", profile.AdjustmentFactor).
				Msg("Calibration profile updated")
			return nil
		}
		if !errors.Is(err, ErrProfileConflict) {
			return fmt.Errorf("save calibration profile: %w", err)
		}
	}
	return fmt.Errorf("save calibration profile for %s/%s: %w", gameType, method, ErrProfileConflict)
}

// adjustmentFactor is the ratio of what the method actually achieved
// to what it claimed: above 1 it has historically under-claimed,
// below 1 it over-claimed. Clamped to the configured bounds.
func (c *Calibrator) adjustmentFactor(profile *models.CalibrationProfile) float64 {
	if profile.MeanConfidence <= 0 {
		return 1.0
	}
	factor := profile.MeanAccuracy / profile.MeanConfidence
	if factor < c.clampMin {
		return c.clampMin
	}
	if factor > c.clampMax {
		return c.clampMax
	}
	return factor
}

// BucketFor grades a mean accuracy percentage.
func BucketFor(meanAccuracy float64) models.QualityBucket {
	switch {
	case meanAccuracy >= excellentThreshold:
		return models.QualityExcellent
	case meanAccuracy >= goodThreshold:
		return models.QualityGood
	case meanAccuracy >= fairThreshold:
		return models.QualityFair
	default:
		return models.QualityPoor
	}
}
