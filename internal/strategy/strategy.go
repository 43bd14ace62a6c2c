package strategy

import (
	"math/rand"
	"sort"

	"github.com/lottoza/predictor/models"
)

// Result is the output of any prediction tier.
type Result struct {
	Main       []int
	Bonus      []int
	Confidence float64
	Method     models.PredictionMethod
	Reasoning  []string
	Scores     map[int]float64
}

// Thresholds holds the tier-selection draw counts. The defaults
// (30/50) are the reference values: below 30 draws the richer models
// have too little data to generalize.
type Thresholds struct {
	FeatureScoringMin int
	EnsembleMin       int
}

// DefaultThresholds returns the reference tier boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{FeatureScoringMin: 30, EnsembleMin: 50}
}

// Select chooses the prediction tier from the amount of history
// available. Deterministic: <30 frequency analysis, 30-49 feature
// scoring, >=50 full ensemble.
func Select(historyLen int, t Thresholds) models.PredictionMethod {
	switch {
	case historyLen < t.FeatureScoringMin:
		return models.MethodFrequencyAnalysis
	case historyLen < t.EnsembleMin:
		return models.MethodFeatureScoring
	default:
		return models.MethodEnsemble
	}
}

// fillRandom appends distinct uniform picks from [1, maxNumber] until
// chosen has want entries.
func fillRandom(chosen []int, want, maxNumber int, rng *rand.Rand) []int {
	used := make(map[int]bool, len(chosen))
	for _, n := range chosen {
		used[n] = true
	}
	for len(chosen) < want && len(chosen) < maxNumber {
		n := rng.Intn(maxNumber) + 1
		if used[n] {
			continue
		}
		used[n] = true
		chosen = append(chosen, n)
	}
	return chosen
}

// bonusByFrequency picks bonus numbers weighted by their historical
// bonus-ball frequency, excluding any numbers in exclude (the lotto
// bonus ball comes from the same machine as the mains). Falls back to
// uniform picks when no bonus history exists.
func bonusByFrequency(rules models.GameRules, history []models.DrawResult, exclude []int, rng *rand.Rand) []int {
	if rules.BonusCount == 0 {
		return nil
	}

	excluded := make(map[int]bool, len(exclude))
	if rules.BonusMax == rules.MainMax {
		for _, n := range exclude {
			excluded[n] = true
		}
	}

	counts := make(map[int]int)
	for _, draw := range history {
		for _, n := range draw.BonusNumbers {
			if n >= 1 && n <= rules.BonusMax && !excluded[n] {
				counts[n]++
			}
		}
	}

	type entry struct {
		number int
		count  int
	}
	entries := make([]entry, 0, len(counts))
	for n, c := range counts {
		entries = append(entries, entry{n, c})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].number < entries[j].number
	})

	bonus := make([]int, 0, rules.BonusCount)
	for _, e := range entries {
		if len(bonus) == rules.BonusCount {
			break
		}
		bonus = append(bonus, e.number)
	}
	for len(bonus) < rules.BonusCount {
		n := rng.Intn(rules.BonusMax) + 1
		if excluded[n] || contains(bonus, n) {
			continue
		}
		bonus = append(bonus, n)
	}
	sort.Ints(bonus)
	return bonus
}

func contains(nums []int, target int) bool {
	for _, n := range nums {
		if n == target {
			return true
		}
	}
	return false
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
