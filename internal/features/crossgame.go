package features

import (
	"github.com/lottoza/predictor/models"
)

// CrossGame supplies the sibling-pool frequency boost. It holds the
// recent histories of every game in one family and rewards numbers
// that run hot across the whole family rather than a single variant.
// Unrelated families never share data: a CrossGame instance is built
// for exactly one family.
type CrossGame struct {
	family    models.GameFamily
	histories map[models.GameType][]models.DrawResult
}

// NewCrossGame builds the boost source for the family of gameType.
// The histories map should hold the recent window for gameType itself
// and each of its siblings; entries from other families are ignored.
func NewCrossGame(gameType models.GameType, histories map[models.GameType][]models.DrawResult) *CrossGame {
	rules, err := models.RulesFor(gameType)
	if err != nil {
		return &CrossGame{histories: map[models.GameType][]models.DrawResult{}}
	}

	filtered := make(map[models.GameType][]models.DrawResult, len(histories))
	for gt, h := range histories {
		r, err := models.RulesFor(gt)
		if err != nil || r.Family != rules.Family {
			continue
		}
		filtered[gt] = h
	}
	return &CrossGame{family: rules.Family, histories: filtered}
}

// Boost returns the normalized excess of the number's frequency in
// the combined family history over its solo-game frequency, in [0,1].
// Games without siblings (DAILY_LOTTO) always get 0.
func (c *CrossGame) Boost(gameType models.GameType, number int) float64 {
	siblings := models.FamilyMembers(gameType)
	if len(siblings) == 0 {
		return 0
	}
	rules, err := models.RulesFor(gameType)
	if err != nil || rules.Family != c.family {
		return 0
	}

	soloDraws := c.histories[gameType]
	familyDraws := len(soloDraws)
	familyHits := countAppearances(soloDraws, number)
	for _, sib := range siblings {
		h := c.histories[sib]
		familyDraws += len(h)
		familyHits += countAppearances(h, number)
	}
	if familyDraws == 0 || len(soloDraws) == 0 {
		return 0
	}

	combinedFreq := float64(familyHits) / float64(familyDraws)
	soloFreq := float64(countAppearances(soloDraws, number)) / float64(len(soloDraws))
	excess := combinedFreq - soloFreq
	if excess <= 0 {
		return 0
	}

	// Normalize against the expected per-number hit rate for this
	// pool so the score saturates when the family-wide excess matches
	// a full expected appearance share.
	expected := float64(rules.MainCount) / float64(rules.MainMax)
	if expected <= 0 {
		return 0
	}
	return clamp01(excess / expected)
}

// SiblingDrawCount reports how many sibling draws back the boost, used
// by the scoring tier's cross-game confidence bonus.
func (c *CrossGame) SiblingDrawCount(gameType models.GameType) int {
	total := 0
	for _, sib := range models.FamilyMembers(gameType) {
		total += len(c.histories[sib])
	}
	return total
}

func countAppearances(draws []models.DrawResult, number int) int {
	count := 0
	for _, d := range draws {
		for _, n := range d.MainNumbers {
			if n == number {
				count++
				break
			}
		}
	}
	return count
}
