package engine

import "errors"

var (
	// ErrInsufficientData means zero history exists and the random
	// fallback could not satisfy the game's count/range constraint.
	// Non-fatal: retry once history accumulates.
	ErrInsufficientData = errors.New("insufficient historical data for prediction")
	// ErrMalformedRecord marks a historical record that failed to
	// parse; individual records are skipped, never the whole batch.
	ErrMalformedRecord = errors.New("malformed history record")
	// ErrDuplicateValidation rejects validating an already-validated
	// prediction; the original result is preserved so calibration is
	// never double-counted.
	ErrDuplicateValidation = errors.New("prediction already validated")
	// ErrConfiguration means a game's declared counts and ranges are
	// internally inconsistent. Fatal: no valid prediction can ever be
	// produced.
	ErrConfiguration = errors.New("invalid game configuration")
	// ErrPredictionNotFound means no stored prediction matches the
	// requested ID.
	ErrPredictionNotFound = errors.New("prediction not found")
)
