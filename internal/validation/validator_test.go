package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lottoza/predictor/models"
)

func TestValidateLottoPartialMatch(t *testing.T) {
	prediction := models.Prediction{
		ID:               "p-1",
		GameType:         models.GameLotto,
		PredictedNumbers: []int{5, 12, 19, 27, 38, 45},
		PredictedBonus:   []int{20},
	}
	actual := models.DrawResult{
		GameType:     models.GameLotto,
		MainNumbers:  []int{5, 12, 19, 20, 33, 50},
		BonusNumbers: []int{7},
	}

	result, err := Validate(prediction, actual)
	require.NoError(t, err)
	assert.Equal(t, "p-1", result.PredictionID)
	assert.Equal(t, 3, result.MainMatches)
	assert.Equal(t, 0, result.BonusMatches)
	assert.Equal(t, []int{5, 12, 19}, result.MatchedMain)
	assert.Empty(t, result.MatchedBonus)
	assert.Equal(t, "Division 7", result.PrizeTier)
	// 3 of 7 predicted numbers landed.
	assert.InDelta(t, 42.857, result.AccuracyPercentage, 0.001)
	assert.True(t, result.ValidatedAt.IsZero(), "the orchestrator stamps the timestamp")
}

func TestValidateIsIdempotent(t *testing.T) {
	prediction := models.Prediction{
		ID:               "p-2",
		GameType:         models.GameDailyLotto,
		PredictedNumbers: []int{2, 9, 16, 23, 30},
	}
	actual := models.DrawResult{
		GameType:    models.GameDailyLotto,
		MainNumbers: []int{2, 9, 17, 24, 31},
	}

	first, err := Validate(prediction, actual)
	require.NoError(t, err)
	second, err := Validate(prediction, actual)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestValidateRejectsGameTypeMismatch(t *testing.T) {
	prediction := models.Prediction{
		ID:               "p-3",
		GameType:         models.GameLotto,
		PredictedNumbers: []int{1, 2, 3, 4, 5, 6},
	}
	actual := models.DrawResult{GameType: models.GamePowerball, MainNumbers: []int{1, 2, 3, 4, 5}}

	_, err := Validate(prediction, actual)
	require.Error(t, err)
}

func TestValidateRejectsEmptyPrediction(t *testing.T) {
	prediction := models.Prediction{ID: "p-4", GameType: models.GameLotto}
	actual := models.DrawResult{GameType: models.GameLotto, MainNumbers: []int{1, 2, 3, 4, 5, 6}}

	_, err := Validate(prediction, actual)
	require.Error(t, err)
}

func TestValidatePerfectDailyLotto(t *testing.T) {
	prediction := models.Prediction{
		ID:               "p-5",
		GameType:         models.GameDailyLotto,
		PredictedNumbers: []int{3, 11, 22, 29, 35},
	}
	actual := models.DrawResult{
		GameType:    models.GameDailyLotto,
		MainNumbers: []int{3, 11, 22, 29, 35},
	}

	result, err := Validate(prediction, actual)
	require.NoError(t, err)
	assert.Equal(t, 5, result.MainMatches)
	assert.Equal(t, "Division 1", result.PrizeTier)
	assert.InDelta(t, 100.0, result.AccuracyPercentage, 1e-9)
}

func TestPrizeTierTables(t *testing.T) {
	tests := []struct {
		name     string
		gameType models.GameType
		main     int
		bonus    int
		want     string
	}{
		{"lotto jackpot", models.GameLotto, 6, 0, "Division 1"},
		{"lotto five plus bonus", models.GameLotto, 5, 1, "Division 2"},
		{"lotto five", models.GameLotto, 5, 0, "Division 3"},
		{"lotto two plus bonus", models.GameLotto, 2, 1, "Division 8"},
		{"lotto two alone", models.GameLotto, 2, 0, NoPrize},
		{"lotto nothing", models.GameLotto, 0, 0, NoPrize},
		{"powerball jackpot", models.GamePowerball, 5, 1, "Division 1"},
		{"powerball five alone", models.GamePowerball, 5, 0, "Division 2"},
		{"powerball ball only", models.GamePowerball, 0, 1, "Division 9"},
		{"powerball one main alone", models.GamePowerball, 1, 0, NoPrize},
		{"powerball plus shares table", models.GamePowerballPlus, 2, 1, "Division 7"},
		{"daily top", models.GameDailyLotto, 5, 0, "Division 1"},
		{"daily two", models.GameDailyLotto, 2, 0, "Division 4"},
		{"daily one", models.GameDailyLotto, 1, 0, NoPrize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PrizeTier(tt.gameType, tt.main, tt.bonus))
		})
	}
}
