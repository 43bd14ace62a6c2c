package strategy

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lottoza/predictor/internal/features"
	"github.com/lottoza/predictor/models"
)

func newScoringEngine(seed int64) *ScoringEngine {
	return NewScoringEngine(features.NewEngineer(), rand.New(rand.NewSource(seed)), 45, 85)
}

func TestScoringPredictSatisfiesDrawStructure(t *testing.T) {
	target := time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC)
	for _, gameType := range models.AllGameTypes {
		rules, err := models.RulesFor(gameType)
		require.NoError(t, err)

		result, err := newScoringEngine(7).Predict(rules, buildHistory(gameType, 40), target, nil)
		require.NoError(t, err, "game %s", gameType)
		assertValidPick(t, rules, result)
		assert.Equal(t, models.MethodFeatureScoring, result.Method)
		assert.GreaterOrEqual(t, result.Confidence, 45.0)
		assert.LessOrEqual(t, result.Confidence, 85.0)
		assert.Len(t, result.Scores, rules.MainMax)
	}
}

func TestScoringRanksFrequentNumberAboveRareOne(t *testing.T) {
	rules, err := models.RulesFor(models.GameLotto)
	require.NoError(t, err)

	base := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	history := make([]models.DrawResult, 42)
	for i := range history {
		history[i] = models.DrawResult{
			GameType:    models.GameLotto,
			DrawDate:    base.AddDate(0, 0, -i*3),
			MainNumbers: []int{7, 10, 20, 30, 40, 50},
		}
	}
	// 45 appears only in the two oldest draws.
	history[40].MainNumbers = []int{45, 10, 20, 30, 40, 50}
	history[41].MainNumbers = []int{45, 10, 20, 30, 40, 50}

	result, err := newScoringEngine(7).Predict(rules, history, base.AddDate(0, 0, 3), nil)
	require.NoError(t, err)
	assert.Contains(t, result.Main, 7)
	assert.Greater(t, result.Scores[7], result.Scores[45])
}

func TestScoringIsDeterministicForLottoFamily(t *testing.T) {
	// The LOTTO bonus ball shares the main pool, so the whole
	// prediction is rank-based and seed independent.
	rules, err := models.RulesFor(models.GameLotto)
	require.NoError(t, err)
	history := buildHistory(models.GameLotto, 40)
	target := time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC)

	first, err := newScoringEngine(1).Predict(rules, history, target, nil)
	require.NoError(t, err)
	second, err := newScoringEngine(999).Predict(rules, history, target, nil)
	require.NoError(t, err)

	assert.Equal(t, first.Main, second.Main)
	assert.Equal(t, first.Bonus, second.Bonus)
	assert.Equal(t, first.Confidence, second.Confidence)
}

func TestScoringTieBreaksTowardLowerNumber(t *testing.T) {
	// With no history every composite is zero, so selection must walk
	// the range from the bottom.
	rules, err := models.RulesFor(models.GameDailyLotto)
	require.NoError(t, err)

	result, err := newScoringEngine(7).Predict(rules, nil, time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC), nil)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, result.Main)
}

func TestScoringConfidenceGainsSiblingSupport(t *testing.T) {
	rules, err := models.RulesFor(models.GameLotto)
	require.NoError(t, err)
	history := buildHistory(models.GameLotto, 40)
	selected := []int{5, 12, 19, 27, 38, 45}
	engine := newScoringEngine(7)

	solo, _ := engine.confidence(rules, history, nil, selected)

	cross := features.NewCrossGame(models.GameLotto, map[models.GameType][]models.DrawResult{
		models.GameLotto:      history,
		models.GameLottoPlus1: buildHistory(models.GameLottoPlus1, 40),
	})
	supported, factors := engine.confidence(rules, history, cross, selected)

	assert.Greater(t, supported, solo, "sibling draws must add confidence")
	assert.LessOrEqual(t, supported, 85.0)
	assert.NotEmpty(t, factors)
}
