package features

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lottoza/predictor/models"
)

func drawsWithNumber(gameType models.GameType, n, number int) []models.DrawResult {
	rules, _ := models.RulesFor(gameType)
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	draws := make([]models.DrawResult, n)
	for i := 0; i < n; i++ {
		main := []int{number}
		next := number
		for len(main) < rules.MainCount {
			next++
			if next > rules.MainMax {
				next = 1
			}
			if next != number {
				main = append(main, next)
			}
		}
		draws[i] = models.DrawResult{
			GameType:    gameType,
			DrawDate:    base.AddDate(0, 0, i),
			MainNumbers: main,
		}
	}
	return draws
}

func TestBoostRewardsFamilyWideHotNumbers(t *testing.T) {
	// 13 is cold in LOTTO itself but hot in both plus variants.
	histories := map[models.GameType][]models.DrawResult{
		models.GameLotto:      drawsWithNumber(models.GameLotto, 20, 40),
		models.GameLottoPlus1: drawsWithNumber(models.GameLottoPlus1, 20, 13),
		models.GameLottoPlus2: drawsWithNumber(models.GameLottoPlus2, 20, 13),
	}
	cross := NewCrossGame(models.GameLotto, histories)

	boost := cross.Boost(models.GameLotto, 13)
	assert.Greater(t, boost, 0.0)
	assert.LessOrEqual(t, boost, 1.0)

	// A number hot only in the solo game gets no excess.
	assert.Zero(t, cross.Boost(models.GameLotto, 40))
}

func TestBoostIgnoresOtherFamilies(t *testing.T) {
	// POWERBALL draws handed to a LOTTO cross-game source must be
	// filtered out entirely.
	histories := map[models.GameType][]models.DrawResult{
		models.GameLotto:     drawsWithNumber(models.GameLotto, 10, 40),
		models.GamePowerball: drawsWithNumber(models.GamePowerball, 50, 13),
	}
	cross := NewCrossGame(models.GameLotto, histories)
	assert.Zero(t, cross.Boost(models.GameLotto, 13))
	assert.Zero(t, cross.SiblingDrawCount(models.GameLotto))
}

func TestBoostIsZeroForGamesWithoutSiblings(t *testing.T) {
	histories := map[models.GameType][]models.DrawResult{
		models.GameDailyLotto: drawsWithNumber(models.GameDailyLotto, 30, 13),
	}
	cross := NewCrossGame(models.GameDailyLotto, histories)
	for n := 1; n <= 36; n++ {
		assert.Zero(t, cross.Boost(models.GameDailyLotto, n))
	}
}

func TestBoostIsZeroWithoutSoloHistory(t *testing.T) {
	histories := map[models.GameType][]models.DrawResult{
		models.GameLottoPlus1: drawsWithNumber(models.GameLottoPlus1, 20, 13),
	}
	cross := NewCrossGame(models.GameLotto, histories)
	assert.Zero(t, cross.Boost(models.GameLotto, 13))
}

func TestSiblingDrawCountSumsFamilyHistories(t *testing.T) {
	histories := map[models.GameType][]models.DrawResult{
		models.GameLotto:      drawsWithNumber(models.GameLotto, 10, 7),
		models.GameLottoPlus1: drawsWithNumber(models.GameLottoPlus1, 15, 7),
		models.GameLottoPlus2: drawsWithNumber(models.GameLottoPlus2, 5, 7),
	}
	cross := NewCrossGame(models.GameLotto, histories)
	assert.Equal(t, 20, cross.SiblingDrawCount(models.GameLotto))
}
