package engine

import (
	"time"

	"github.com/lottoza/predictor/internal/calibration"
	"github.com/lottoza/predictor/internal/history"
	"github.com/lottoza/predictor/models"
)

// Store is the persistence surface the orchestrator needs. The
// engine owns predictions, validation results, calibration profiles
// and ensemble weights; draw rows belong to the ingestion pipeline
// and are read-only here.
type Store interface {
	history.DrawSource
	calibration.ProfileStore

	SavePrediction(prediction *models.Prediction) error
	PredictionByID(id string) (*models.Prediction, error)
	// PendingPrediction returns the PENDING prediction for the target
	// date, or (nil, nil) when none exists.
	PendingPrediction(gameType models.GameType, targetDate time.Time) (*models.Prediction, error)
	// MarkValidated flips a prediction to VALIDATED and links it to
	// the draw it was scored against.
	MarkValidated(predictionID string, linkedDrawID int64) error

	SaveValidation(result models.ValidationResult) error
	// ValidationFor returns the stored result for a prediction, or
	// (nil, nil) when it has not been validated.
	ValidationFor(predictionID string) (*models.ValidationResult, error)

	// Weights returns the persisted ensemble vote weights for a game,
	// or (nil, nil) when none have been stored yet.
	Weights(gameType models.GameType) (*models.EnsembleWeights, error)
	SaveWeights(weights models.EnsembleWeights) error
}
