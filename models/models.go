package models

import (
	"time"
)

// GameType identifies one of the six South African lottery games.
type GameType string

const (
	GameLotto         GameType = "LOTTO"
	GameLottoPlus1    GameType = "LOTTO_PLUS_1"
	GameLottoPlus2    GameType = "LOTTO_PLUS_2"
	GamePowerball     GameType = "POWERBALL"
	GamePowerballPlus GameType = "POWERBALL_PLUS"
	GameDailyLotto    GameType = "DAILY_LOTTO"
)

// AllGameTypes lists every supported game in a stable order.
var AllGameTypes = []GameType{
	GameLotto,
	GameLottoPlus1,
	GameLottoPlus2,
	GamePowerball,
	GamePowerballPlus,
	GameDailyLotto,
}

// GameFamily groups games that draw from the same number pool.
type GameFamily string

const (
	FamilyLotto     GameFamily = "LOTTO_FAMILY"
	FamilyPowerball GameFamily = "POWERBALL_FAMILY"
	FamilyDaily     GameFamily = "DAILY_FAMILY"
)

// PredictionMethod names the strategy tier that produced a prediction.
type PredictionMethod string

const (
	MethodFrequencyAnalysis PredictionMethod = "FREQUENCY_ANALYSIS"
	MethodFeatureScoring    PredictionMethod = "FEATURE_SCORING"
	MethodEnsemble          PredictionMethod = "ENSEMBLE"
)

// ValidationStatus tracks a prediction through its lifecycle.
type ValidationStatus string

const (
	StatusPending   ValidationStatus = "PENDING"
	StatusValidated ValidationStatus = "VALIDATED"
)

// QualityBucket is an informational grade for a calibration profile.
type QualityBucket string

const (
	QualityExcellent QualityBucket = "EXCELLENT"
	QualityGood      QualityBucket = "GOOD"
	QualityFair      QualityBucket = "FAIR"
	QualityPoor      QualityBucket = "POOR"
)

// DrawResult is one official draw outcome. Rows are created by the
// ingestion pipeline and are read-only inside the engine.
type DrawResult struct {
	ID           int64     `json:"id"`
	GameType     GameType  `json:"game_type"`
	DrawNumber   int       `json:"draw_number"`
	DrawDate     time.Time `json:"draw_date"`
	MainNumbers  []int     `json:"main_numbers"`
	BonusNumbers []int     `json:"bonus_numbers,omitempty"`
}

// FeatureVector holds the engineered signals for a single candidate
// number. All scores are in [0,1]. Vectors are recomputed per request
// and never persisted.
type FeatureVector struct {
	Number        int     `json:"number"`
	Frequency     float64 `json:"frequency_score"`
	Recency       float64 `json:"recency_score"`
	TemporalDecay float64 `json:"temporal_decay_score"`
	Momentum      float64 `json:"momentum_score"`
	Cooccurrence  float64 `json:"cooccurrence_score"`
	CrossGame     float64 `json:"cross_game_score"`
	Gap           float64 `json:"gap_score"`
	Seasonality   float64 `json:"seasonality_score"`
	Composite     float64 `json:"composite_score"`
}

// Prediction stores one generated forecast for a future draw.
type Prediction struct {
	ID               string           `json:"id"`
	GameType         GameType         `json:"game_type"`
	TargetDrawDate   time.Time        `json:"target_draw_date"`
	LinkedDrawID     *int64           `json:"linked_draw_id,omitempty"`
	PredictedNumbers []int            `json:"predicted_numbers"`
	PredictedBonus   []int            `json:"predicted_bonus,omitempty"`
	ConfidenceScore  float64          `json:"confidence_score"`
	Method           PredictionMethod `json:"prediction_method"`
	Reasoning        []string         `json:"reasoning"`
	CreatedAt        time.Time        `json:"created_at"`
	ValidationStatus ValidationStatus `json:"validation_status"`
}

// ValidationResult is the outcome of comparing a prediction against
// its realized draw. One-to-one with Prediction, immutable once saved.
type ValidationResult struct {
	PredictionID       string    `json:"prediction_id"`
	MainMatches        int       `json:"main_matches"`
	BonusMatches       int       `json:"bonus_matches"`
	AccuracyPercentage float64   `json:"accuracy_percentage"`
	PrizeTier          string    `json:"prize_tier"`
	MatchedMain        []int     `json:"matched_main_numbers"`
	MatchedBonus       []int     `json:"matched_bonus_numbers"`
	ValidatedAt        time.Time `json:"validated_at"`
}

// CalibrationProfile is the rolling accuracy summary for one
// (game_type, method) pair. Derived state: it can always be rebuilt
// from validation history.
type CalibrationProfile struct {
	GameType         GameType         `json:"game_type"`
	Method           PredictionMethod `json:"prediction_method"`
	SampleCount      int              `json:"sample_count"`
	MeanAccuracy     float64          `json:"mean_accuracy"`
	MeanConfidence   float64          `json:"mean_confidence"`
	QualityBucket    QualityBucket    `json:"quality_bucket"`
	AdjustmentFactor float64          `json:"adjustment_factor"`
	Version          int64            `json:"version"`
}

// EnsembleWeights holds the vote weights of the three ensemble models
// for one game type. Persisted next to calibration profiles so weight
// evolution survives restarts.
type EnsembleWeights struct {
	GameType  GameType  `json:"game_type"`
	Tree      float64   `json:"tree_weight"`
	Boost     float64   `json:"boost_weight"`
	Net       float64   `json:"net_weight"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultEnsembleWeights returns the back-tested starting weights:
// the boosted ensemble carries the most weight, the net the least.
func DefaultEnsembleWeights(gt GameType) EnsembleWeights {
	return EnsembleWeights{GameType: gt, Tree: 0.35, Boost: 0.40, Net: 0.25}
}
