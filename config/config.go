package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all engine configuration. Tier thresholds and
// confidence bounds are empirically chosen constants; they are
// exposed here as tunables but the defaults are the reference values
// and tests depend on them.
type Config struct {
	// Database connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// History window
	LookbackDays int
	HistoryCap   int

	// Strategy tier thresholds (draw counts)
	FeatureScoringMinDraws int
	EnsembleMinDraws       int

	// Confidence bounds per tier, in percent
	FrequencyConfidenceMin float64
	FrequencyConfidenceMax float64
	ScoringConfidenceBase  float64
	ScoringConfidenceCap   float64
	EnsembleConfidenceBase float64
	EnsembleConfidenceCap  float64

	// Calibration
	CalibrationMinSamples int
	CalibrationClampMin   float64
	CalibrationClampMax   float64

	// RandomSeed seeds all weighted sampling; 0 means derive from the
	// clock (non-reproducible runs).
	RandomSeed int64

	LogLevel string
}

// Load initializes configuration from environment variables.
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	cfg := &Config{
		DBHost:     getEnvWithDefault("DB_HOST", "localhost"),
		DBPort:     getEnvWithDefault("DB_PORT", "5432"),
		DBUser:     getEnvWithDefault("DB_USER", "postgres"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnvWithDefault("DB_NAME", "lottery"),
		DBSSLMode:  getEnvWithDefault("DB_SSLMODE", "disable"),

		LookbackDays: getEnvIntWithDefault("LOOKBACK_DAYS", 365),
		HistoryCap:   getEnvIntWithDefault("HISTORY_CAP", 100),

		FeatureScoringMinDraws: getEnvIntWithDefault("FEATURE_SCORING_MIN_DRAWS", 30),
		EnsembleMinDraws:       getEnvIntWithDefault("ENSEMBLE_MIN_DRAWS", 50),

		FrequencyConfidenceMin: getEnvFloatWithDefault("FREQUENCY_CONFIDENCE_MIN", 1.5),
		FrequencyConfidenceMax: getEnvFloatWithDefault("FREQUENCY_CONFIDENCE_MAX", 4.5),
		ScoringConfidenceBase:  getEnvFloatWithDefault("SCORING_CONFIDENCE_BASE", 45),
		ScoringConfidenceCap:   getEnvFloatWithDefault("SCORING_CONFIDENCE_CAP", 85),
		EnsembleConfidenceBase: getEnvFloatWithDefault("ENSEMBLE_CONFIDENCE_BASE", 50),
		EnsembleConfidenceCap:  getEnvFloatWithDefault("ENSEMBLE_CONFIDENCE_CAP", 90),

		CalibrationMinSamples: getEnvIntWithDefault("CALIBRATION_MIN_SAMPLES", 5),
		CalibrationClampMin:   getEnvFloatWithDefault("CALIBRATION_CLAMP_MIN", 0.5),
		CalibrationClampMax:   getEnvFloatWithDefault("CALIBRATION_CLAMP_MAX", 1.5),

		RandomSeed: getEnvInt64WithDefault("RANDOM_SEED", 0),

		LogLevel: getEnvWithDefault("LOG_LEVEL", "info"),
	}

	return cfg, nil
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64WithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
