package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRulesForKnownGames(t *testing.T) {
	tests := []struct {
		gameType   GameType
		mainCount  int
		mainMax    int
		bonusCount int
		bonusMax   int
	}{
		{GameLotto, 6, 52, 1, 52},
		{GameLottoPlus1, 6, 52, 1, 52},
		{GameLottoPlus2, 6, 52, 1, 52},
		{GamePowerball, 5, 50, 1, 20},
		{GamePowerballPlus, 5, 50, 1, 20},
		{GameDailyLotto, 5, 36, 0, 0},
	}
	for _, tt := range tests {
		rules, err := RulesFor(tt.gameType)
		require.NoError(t, err, "game %s", tt.gameType)
		assert.Equal(t, tt.mainCount, rules.MainCount)
		assert.Equal(t, tt.mainMax, rules.MainMax)
		assert.Equal(t, tt.bonusCount, rules.BonusCount)
		assert.Equal(t, tt.bonusMax, rules.BonusMax)
		assert.NoError(t, rules.Validate())
	}
}

func TestRulesForUnknownGame(t *testing.T) {
	_, err := RulesFor(GameType("EUROMILLIONS"))
	require.Error(t, err)
}

func TestFamilyMembersExcludeSelfAndOtherFamilies(t *testing.T) {
	assert.ElementsMatch(t, []GameType{GameLottoPlus1, GameLottoPlus2}, FamilyMembers(GameLotto))
	assert.ElementsMatch(t, []GameType{GamePowerball}, FamilyMembers(GamePowerballPlus))
	assert.Empty(t, FamilyMembers(GameDailyLotto))
}

func TestNextDrawDateFollowsSchedule(t *testing.T) {
	// 2025-07-01 is a Tuesday.
	tuesday := time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)

	lotto := NextDrawDate(GameLotto, tuesday)
	assert.Equal(t, time.Wednesday, lotto.Weekday())
	assert.Equal(t, time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC), lotto)

	powerball := NextDrawDate(GamePowerball, tuesday)
	assert.Equal(t, time.Friday, powerball.Weekday())
	assert.Equal(t, time.Date(2025, 7, 4, 0, 0, 0, 0, time.UTC), powerball)

	daily := NextDrawDate(GameDailyLotto, tuesday)
	assert.Equal(t, time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC), daily)
}

func TestNextDrawDateIsStrictlyAfter(t *testing.T) {
	// A draw-day query still moves forward: Saturday asks, Wednesday answers.
	saturday := time.Date(2025, 7, 5, 0, 0, 0, 0, time.UTC)
	require.Equal(t, time.Saturday, saturday.Weekday())

	next := NextDrawDate(GameLotto, saturday)
	assert.True(t, next.After(saturday))
	assert.Equal(t, time.Wednesday, next.Weekday())
}

func TestDefaultEnsembleWeightsSumToOne(t *testing.T) {
	w := DefaultEnsembleWeights(GameLotto)
	assert.Equal(t, GameLotto, w.GameType)
	assert.InDelta(t, 1.0, w.Tree+w.Boost+w.Net, 1e-9)
	assert.Equal(t, 0.40, w.Boost, "the boosted model carries the most weight")
}
