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

func newEnsemble(seed int64, gameType models.GameType) *Ensemble {
	rng := rand.New(rand.NewSource(seed))
	engineer := features.NewEngineer()
	fallback := NewScoringEngine(engineer, rng, 45, 85)
	return NewEnsemble(engineer, fallback, rng, 50, models.DefaultEnsembleWeights(gameType), 50, 90)
}

func TestEnsemblePredictSatisfiesDrawStructure(t *testing.T) {
	rules, err := models.RulesFor(models.GameLotto)
	require.NoError(t, err)
	history := buildHistory(models.GameLotto, 60)
	target := time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC)

	result, err := newEnsemble(7, models.GameLotto).Predict(rules, history, target, nil)
	require.NoError(t, err)
	assertValidPick(t, rules, result)
	assert.Equal(t, models.MethodEnsemble, result.Method)
	assert.GreaterOrEqual(t, result.Confidence, 50.0)
	assert.LessOrEqual(t, result.Confidence, 90.0)
	assert.Len(t, result.Scores, rules.MainMax)
	assert.NotEmpty(t, result.Reasoning)
}

func TestEnsembleConfidenceHonorsConfiguredBand(t *testing.T) {
	rules, err := models.RulesFor(models.GameDailyLotto)
	require.NoError(t, err)
	history := buildHistory(models.GameDailyLotto, 60)
	target := time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC)

	rng := rand.New(rand.NewSource(7))
	engineer := features.NewEngineer()
	fallback := NewScoringEngine(engineer, rng, 45, 85)
	ensemble := NewEnsemble(engineer, fallback, rng, 50, models.DefaultEnsembleWeights(models.GameDailyLotto), 60, 75)

	result, err := ensemble.Predict(rules, history, target, nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.Confidence, 60.0)
	assert.LessOrEqual(t, result.Confidence, 75.0)
}

func TestEnsembleFavorsDominantNumber(t *testing.T) {
	rules, err := models.RulesFor(models.GameLotto)
	require.NoError(t, err)

	base := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	history := make([]models.DrawResult, 60)
	for i := range history {
		history[i] = models.DrawResult{
			GameType:    models.GameLotto,
			DrawDate:    base.AddDate(0, 0, -i*3),
			MainNumbers: []int{7, 10, 20, 30, 40, 50},
		}
	}
	// 45 appears only near the bottom of the window.
	history[57].MainNumbers = []int{45, 10, 20, 30, 40, 50}
	history[58].MainNumbers = []int{45, 10, 20, 30, 40, 50}

	result, err := newEnsemble(7, models.GameLotto).Predict(rules, history, base.AddDate(0, 0, 3), nil)
	require.NoError(t, err)
	assert.Greater(t, result.Scores[7], result.Scores[45])
	assert.Contains(t, result.Main, 7)
}

func TestEnsembleFallsBackBelowMinimumDraws(t *testing.T) {
	rules, err := models.RulesFor(models.GameLotto)
	require.NoError(t, err)
	history := buildHistory(models.GameLotto, 49)
	target := time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC)

	result, err := newEnsemble(7, models.GameLotto).Predict(rules, history, target, nil)
	require.NoError(t, err)
	assert.Equal(t, models.MethodFeatureScoring, result.Method, "below the draw floor the scoring tier answers")
}

func TestAdjustWeightsMovesTowardBetterModel(t *testing.T) {
	old := models.DefaultEnsembleWeights(models.GameLotto)
	adjusted := AdjustWeights(old, [3]float64{0.5, 0.1, 0.1})

	assert.Greater(t, adjusted.Tree, old.Tree, "the winning model gains weight")
	assert.Less(t, adjusted.Boost, old.Boost)
	assert.Equal(t, old.GameType, adjusted.GameType)
}

func TestAdjustWeightsKeepsBoundsAndSum(t *testing.T) {
	cases := [][3]float64{
		{0, 0, 0},
		{1, 0, 0},
		{0, 1, 1},
		{1, 1, 1},
		{0.33, 0.17, 0.5},
	}
	weights := models.DefaultEnsembleWeights(models.GamePowerball)
	for _, accuracy := range cases {
		weights = AdjustWeights(weights, accuracy)
		sum := weights.Tree + weights.Boost + weights.Net
		assert.InDelta(t, 1.0, sum, 0.01, "accuracy %v", accuracy)
		for _, w := range []float64{weights.Tree, weights.Boost, weights.Net} {
			assert.GreaterOrEqual(t, w, 0.15)
			assert.LessOrEqual(t, w, 0.50)
		}
	}
}

func TestAdjustWeightsEqualAccuracyLeavesWeightsStable(t *testing.T) {
	old := models.DefaultEnsembleWeights(models.GameLotto)
	adjusted := AdjustWeights(old, [3]float64{0.4, 0.4, 0.4})
	assert.InDelta(t, old.Tree, adjusted.Tree, 1e-9)
	assert.InDelta(t, old.Boost, adjusted.Boost, 1e-9)
	assert.InDelta(t, old.Net, adjusted.Net, 1e-9)
}

func TestModelAccuraciesAreFractionsOfMainCount(t *testing.T) {
	rules, err := models.RulesFor(models.GameDailyLotto)
	require.NoError(t, err)
	history := buildHistory(models.GameDailyLotto, 60)
	actual := history[0]

	ensemble := newEnsemble(7, models.GameDailyLotto)
	accuracy := ensemble.ModelAccuracies(rules, history[1:], actual.DrawDate, nil, actual)
	for i, a := range accuracy {
		assert.GreaterOrEqual(t, a, 0.0, "model %d", i)
		assert.LessOrEqual(t, a, 1.0, "model %d", i)
	}
}

func TestModelAccuraciesZeroBelowMinimumDraws(t *testing.T) {
	rules, err := models.RulesFor(models.GameLotto)
	require.NoError(t, err)
	history := buildHistory(models.GameLotto, 20)

	ensemble := newEnsemble(7, models.GameLotto)
	accuracy := ensemble.ModelAccuracies(rules, history, time.Now(), nil, history[0])
	assert.Equal(t, [3]float64{}, accuracy)
}

func TestTopByScoreBreaksTiesTowardLowerNumber(t *testing.T) {
	scores := map[int]float64{1: 0.5, 2: 0.9, 3: 0.5, 4: 0.5, 5: 0.1}
	assert.Equal(t, []int{1, 2, 3}, topByScore(scores, 3, 5))
}
