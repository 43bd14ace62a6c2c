package backtest

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lottoza/predictor/config"
	"github.com/lottoza/predictor/models"
)

func testConfig() *config.Config {
	return &config.Config{
		FeatureScoringMinDraws: 30,
		EnsembleMinDraws:       50,
		FrequencyConfidenceMin: 1.5,
		FrequencyConfidenceMax: 4.5,
		ScoringConfidenceBase:  45,
		ScoringConfidenceCap:   85,
		EnsembleConfidenceBase: 50,
		EnsembleConfidenceCap:  90,
	}
}

func replayHistory(gameType models.GameType, n int, seed int64) []models.DrawResult {
	rules, _ := models.RulesFor(gameType)
	rng := rand.New(rand.NewSource(seed))
	base := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	draws := make([]models.DrawResult, n)
	for i := 0; i < n; i++ {
		picked := make(map[int]bool)
		main := make([]int, 0, rules.MainCount)
		for len(main) < rules.MainCount {
			c := rng.Intn(rules.MainMax) + 1
			if !picked[c] {
				picked[c] = true
				main = append(main, c)
			}
		}
		draws[i] = models.DrawResult{
			GameType:    gameType,
			DrawNumber:  4000 - i,
			DrawDate:    base.AddDate(0, 0, -i),
			MainNumbers: main,
		}
	}
	return draws
}

func TestRunReplaysRequestedTargets(t *testing.T) {
	runner := NewRunner(testConfig(), rand.New(rand.NewSource(7)))
	history := replayHistory(models.GameDailyLotto, 40, 3)

	report, err := runner.Run(models.GameDailyLotto, history, 10)
	require.NoError(t, err)
	assert.Equal(t, models.GameDailyLotto, report.GameType)
	assert.Equal(t, 10, report.Evaluated)
	assert.GreaterOrEqual(t, report.MeanAccuracy, 0.0)
	assert.LessOrEqual(t, report.MeanAccuracy, 100.0)
	assert.LessOrEqual(t, report.BestMainMatches, 5)
	assert.NotEmpty(t, report.PerMethod)
}

func TestRunSplitsStatsByMethod(t *testing.T) {
	runner := NewRunner(testConfig(), rand.New(rand.NewSource(7)))
	// 45 draws: the windows behind the 10 most recent targets span
	// 35-44 prior draws, straddling the scoring threshold.
	history := replayHistory(models.GameDailyLotto, 45, 3)

	report, err := runner.Run(models.GameDailyLotto, history, 20)
	require.NoError(t, err)
	assert.Equal(t, 20, report.Evaluated)
	assert.Contains(t, report.PerMethod, models.MethodFeatureScoring)
	assert.Contains(t, report.PerMethod, models.MethodFrequencyAnalysis)

	total := 0
	for _, stats := range report.PerMethod {
		total += stats.Evaluated
	}
	assert.Equal(t, report.Evaluated, total)
}

func TestRunNeedsAtLeastTwoDraws(t *testing.T) {
	runner := NewRunner(testConfig(), rand.New(rand.NewSource(7)))
	_, err := runner.Run(models.GameDailyLotto, replayHistory(models.GameDailyLotto, 1, 3), 5)
	require.Error(t, err)
}

func TestRunRejectsUnknownGame(t *testing.T) {
	runner := NewRunner(testConfig(), rand.New(rand.NewSource(7)))
	_, err := runner.Run(models.GameType("KENO"), nil, 5)
	require.Error(t, err)
}

func TestPrizeSummary(t *testing.T) {
	report := &Report{PrizeWins: map[string]int{}}
	assert.Equal(t, "no prizes", report.PrizeSummary())

	report.PrizeWins["Division 4"] = 3
	report.PrizeWins["Division 3"] = 1
	assert.Equal(t, "Division 3 x1, Division 4 x3", report.PrizeSummary())
}
