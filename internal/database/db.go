package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/lib/pq"

	"github.com/lottoza/predictor/internal/calibration"
	"github.com/lottoza/predictor/internal/history"
	"github.com/lottoza/predictor/models"
)

// DB represents a database connection
type DB struct {
	*sql.DB
}

// ConnectionParams holds PostgreSQL connection parameters
type ConnectionParams struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// New creates a new database connection, retrying the initial ping
// with exponential backoff, and bootstraps the engine's tables.
func New(params ConnectionParams) (*DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		params.Host, params.Port, params.User, params.Password, params.DBName, params.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	backoffStrategy := backoff.NewExponentialBackOff()
	backoffStrategy.MaxElapsedTime = 30 * time.Second
	if err := backoff.Retry(db.Ping, backoffStrategy); err != nil {
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	if err := createTables(db); err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// createTables creates the engine-owned tables if they don't exist.
// lottery_results is owned by the ingestion pipeline; it is created
// here only so a fresh database is usable end to end.
func createTables(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS lottery_results (
			id BIGSERIAL PRIMARY KEY,
			game_type TEXT NOT NULL,
			draw_number INTEGER NOT NULL,
			draw_date TIMESTAMP NOT NULL,
			main_numbers TEXT NOT NULL,
			bonus_numbers TEXT,
			UNIQUE (game_type, draw_number)
		)`,
		`CREATE TABLE IF NOT EXISTS predictions (
			id TEXT PRIMARY KEY,
			game_type TEXT NOT NULL,
			target_draw_date TIMESTAMP NOT NULL,
			linked_draw_id BIGINT,
			predicted_numbers TEXT NOT NULL,
			predicted_bonus TEXT,
			confidence_score DOUBLE PRECISION NOT NULL,
			prediction_method TEXT NOT NULL,
			reasoning TEXT,
			created_at TIMESTAMP NOT NULL,
			validation_status TEXT NOT NULL
		)`,
		// At most one PENDING prediction per game and target date.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_predictions_pending
			ON predictions (game_type, target_draw_date)
			WHERE validation_status = 'PENDING'`,
		`CREATE TABLE IF NOT EXISTS validation_results (
			prediction_id TEXT PRIMARY KEY REFERENCES predictions (id),
			main_matches INTEGER NOT NULL,
			bonus_matches INTEGER NOT NULL,
			accuracy_percentage DOUBLE PRECISION NOT NULL,
			prize_tier TEXT NOT NULL,
			matched_main TEXT,
			matched_bonus TEXT,
			validated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS calibration_profiles (
			game_type TEXT NOT NULL,
			prediction_method TEXT NOT NULL,
			sample_count INTEGER NOT NULL,
			mean_accuracy DOUBLE PRECISION NOT NULL,
			mean_confidence DOUBLE PRECISION NOT NULL,
			quality_bucket TEXT NOT NULL,
			adjustment_factor DOUBLE PRECISION NOT NULL,
			version BIGINT NOT NULL,
			PRIMARY KEY (game_type, prediction_method)
		)`,
		`CREATE TABLE IF NOT EXISTS ensemble_weights (
			game_type TEXT PRIMARY KEY,
			tree_weight DOUBLE PRECISION NOT NULL,
			boost_weight DOUBLE PRECISION NOT NULL,
			net_weight DOUBLE PRECISION NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
	}
	return nil
}

// DrawsSince returns the stored draws for a game on or after the
// given date, most recent first. Number lists stay in their stored
// text encoding; the history accessor normalizes them.
func (db *DB) DrawsSince(gameType models.GameType, since time.Time) ([]history.RawDraw, error) {
	rows, err := db.Query(`
		SELECT id, game_type, draw_number, draw_date, main_numbers, bonus_numbers
		FROM lottery_results
		WHERE game_type = $1 AND draw_date >= $2
		ORDER BY draw_date DESC
	`, gameType, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var draws []history.RawDraw
	for rows.Next() {
		var raw history.RawDraw
		var bonus sql.NullString
		if err := rows.Scan(&raw.ID, &raw.GameType, &raw.DrawNumber, &raw.DrawDate, &raw.MainNumbers, &bonus); err != nil {
			return nil, err
		}
		if bonus.Valid {
			raw.BonusNumbers = bonus.String
		}
		draws = append(draws, raw)
	}
	return draws, rows.Err()
}

// SavePrediction inserts a new prediction row.
func (db *DB) SavePrediction(p *models.Prediction) error {
	reasoning, err := json.Marshal(p.Reasoning)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		INSERT INTO predictions (
			id, game_type, target_draw_date, linked_draw_id,
			predicted_numbers, predicted_bonus, confidence_score,
			prediction_method, reasoning, created_at, validation_status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		p.ID, p.GameType, p.TargetDrawDate, p.LinkedDrawID,
		history.FormatNumberList(p.PredictedNumbers), bonusText(p.PredictedBonus),
		p.ConfidenceScore, p.Method, string(reasoning), p.CreatedAt, p.ValidationStatus)
	return err
}

// PredictionByID retrieves one prediction, or (nil, nil) if absent.
func (db *DB) PredictionByID(id string) (*models.Prediction, error) {
	return db.scanPrediction(db.QueryRow(`
		SELECT id, game_type, target_draw_date, linked_draw_id,
			predicted_numbers, predicted_bonus, confidence_score,
			prediction_method, reasoning, created_at, validation_status
		FROM predictions
		WHERE id = $1
	`, id))
}

// PendingPrediction retrieves the PENDING prediction for a game and
// target draw date, or (nil, nil) when none exists.
func (db *DB) PendingPrediction(gameType models.GameType, targetDate time.Time) (*models.Prediction, error) {
	return db.scanPrediction(db.QueryRow(`
		SELECT id, game_type, target_draw_date, linked_draw_id,
			predicted_numbers, predicted_bonus, confidence_score,
			prediction_method, reasoning, created_at, validation_status
		FROM predictions
		WHERE game_type = $1
			AND validation_status = $2
			AND target_draw_date::date = $3::date
	`, gameType, models.StatusPending, targetDate))
}

func (db *DB) scanPrediction(row *sql.Row) (*models.Prediction, error) {
	var p models.Prediction
	var linkedDrawID sql.NullInt64
	var mainText string
	var bonus, reasoning sql.NullString

	err := row.Scan(
		&p.ID, &p.GameType, &p.TargetDrawDate, &linkedDrawID,
		&mainText, &bonus, &p.ConfidenceScore,
		&p.Method, &reasoning, &p.CreatedAt, &p.ValidationStatus,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	if linkedDrawID.Valid {
		p.LinkedDrawID = &linkedDrawID.Int64
	}
	if p.PredictedNumbers, err = history.ParseNumberList(mainText); err != nil {
		return nil, fmt.Errorf("prediction %s: %w", p.ID, err)
	}
	if bonus.Valid && bonus.String != "" {
		if p.PredictedBonus, err = history.ParseNumberList(bonus.String); err != nil {
			return nil, fmt.Errorf("prediction %s: %w", p.ID, err)
		}
	}
	if reasoning.Valid && reasoning.String != "" {
		if err := json.Unmarshal([]byte(reasoning.String), &p.Reasoning); err != nil {
			return nil, fmt.Errorf("prediction %s reasoning: %w", p.ID, err)
		}
	}
	return &p, nil
}

// MarkValidated flips a prediction to VALIDATED and links the draw it
// was scored against.
func (db *DB) MarkValidated(predictionID string, linkedDrawID int64) error {
	_, err := db.Exec(`
		UPDATE predictions
		SET validation_status = $1, linked_draw_id = $2
		WHERE id = $3
	`, models.StatusValidated, linkedDrawID, predictionID)
	return err
}

// SaveValidation inserts an immutable validation result.
func (db *DB) SaveValidation(v models.ValidationResult) error {
	_, err := db.Exec(`
		INSERT INTO validation_results (
			prediction_id, main_matches, bonus_matches,
			accuracy_percentage, prize_tier, matched_main, matched_bonus, validated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		v.PredictionID, v.MainMatches, v.BonusMatches,
		v.AccuracyPercentage, v.PrizeTier,
		history.FormatNumberList(v.MatchedMain), history.FormatNumberList(v.MatchedBonus),
		v.ValidatedAt)
	return err
}

// ValidationFor returns the stored result for a prediction, or
// (nil, nil) when it has not been validated yet.
func (db *DB) ValidationFor(predictionID string) (*models.ValidationResult, error) {
	var v models.ValidationResult
	var matchedMain, matchedBonus sql.NullString

	err := db.QueryRow(`
		SELECT prediction_id, main_matches, bonus_matches,
			accuracy_percentage, prize_tier, matched_main, matched_bonus, validated_at
		FROM validation_results
		WHERE prediction_id = $1
	`, predictionID).Scan(
		&v.PredictionID, &v.MainMatches, &v.BonusMatches,
		&v.AccuracyPercentage, &v.PrizeTier, &matchedMain, &matchedBonus, &v.ValidatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	v.MatchedMain = parseMatched(matchedMain)
	v.MatchedBonus = parseMatched(matchedBonus)
	return &v, nil
}

// Profile loads a calibration profile, or (nil, nil) if none exists.
func (db *DB) Profile(gameType models.GameType, method models.PredictionMethod) (*models.CalibrationProfile, error) {
	var p models.CalibrationProfile
	err := db.QueryRow(`
		SELECT game_type, prediction_method, sample_count, mean_accuracy,
			mean_confidence, quality_bucket, adjustment_factor, version
		FROM calibration_profiles
		WHERE game_type = $1 AND prediction_method = $2
	`, gameType, method).Scan(
		&p.GameType, &p.Method, &p.SampleCount, &p.MeanAccuracy,
		&p.MeanConfidence, &p.QualityBucket, &p.AdjustmentFactor, &p.Version,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// SaveProfile upserts a calibration profile with an optimistic
// version check, so concurrent validators of the same (game, method)
// row lose the race cleanly instead of silently dropping updates.
func (db *DB) SaveProfile(p *models.CalibrationProfile) error {
	if p.Version == 0 {
		_, err := db.Exec(`
			INSERT INTO calibration_profiles (
				game_type, prediction_method, sample_count, mean_accuracy,
				mean_confidence, quality_bucket, adjustment_factor, version
			) VALUES ($1, $2, $3, $4, $5, $6, $7, 1)
		`, p.GameType, p.Method, p.SampleCount, p.MeanAccuracy,
			p.MeanConfidence, p.QualityBucket, p.AdjustmentFactor)
		if err != nil {
			if isUniqueViolation(err) {
				return calibration.ErrProfileConflict
			}
			return err
		}
		p.Version = 1
		return nil
	}

	res, err := db.Exec(`
		UPDATE calibration_profiles
		SET sample_count = $1, mean_accuracy = $2, mean_confidence = $3,
			quality_bucket = $4, adjustment_factor = $5, version = version + 1
		WHERE game_type = $6 AND prediction_method = $7 AND version = $8
	`, p.SampleCount, p.MeanAccuracy, p.MeanConfidence,
		p.QualityBucket, p.AdjustmentFactor, p.GameType, p.Method, p.Version)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return calibration.ErrProfileConflict
	}
	p.Version++
	return nil
}

// Weights loads the persisted ensemble vote weights for a game, or
// (nil, nil) when none have been stored.
func (db *DB) Weights(gameType models.GameType) (*models.EnsembleWeights, error) {
	var w models.EnsembleWeights
	err := db.QueryRow(`
		SELECT game_type, tree_weight, boost_weight, net_weight, updated_at
		FROM ensemble_weights
		WHERE game_type = $1
	`, gameType).Scan(&w.GameType, &w.Tree, &w.Boost, &w.Net, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &w, nil
}

// SaveWeights upserts the ensemble vote weights for a game.
func (db *DB) SaveWeights(w models.EnsembleWeights) error {
	_, err := db.Exec(`
		INSERT INTO ensemble_weights (game_type, tree_weight, boost_weight, net_weight, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (game_type)
		DO UPDATE SET
			tree_weight = EXCLUDED.tree_weight,
			boost_weight = EXCLUDED.boost_weight,
			net_weight = EXCLUDED.net_weight,
			updated_at = EXCLUDED.updated_at
	`, w.GameType, w.Tree, w.Boost, w.Net, w.UpdatedAt)
	return err
}

func bonusText(bonus []int) sql.NullString {
	if len(bonus) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: history.FormatNumberList(bonus), Valid: true}
}

// parseMatched tolerates empty intersections, which serialize as "[]".
func parseMatched(s sql.NullString) []int {
	if !s.Valid || s.String == "" || s.String == "[]" {
		return nil
	}
	nums, err := history.ParseNumberList(s.String)
	if err != nil {
		return nil
	}
	return nums
}

func isUniqueViolation(err error) bool {
	// lib/pq unique_violation SQLSTATE
	type sqlState interface{ SQLState() string }
	var st sqlState
	if errors.As(err, &st) {
		return st.SQLState() == "23505"
	}
	return false
}
