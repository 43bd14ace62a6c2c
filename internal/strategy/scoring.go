package strategy

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lottoza/predictor/internal/features"
	"github.com/lottoza/predictor/models"
)

// ScoringEngine is the tier-2 strategy: a fixed weighted combination
// of engineered features, ranked deterministically.
type ScoringEngine struct {
	engineer *features.Engineer
	rng      *rand.Rand
	base     float64
	cap      float64
	logger   zerolog.Logger
}

// NewScoringEngine creates the tier-2 strategy. base and cap bound
// the confidence (reference 45 and 85).
func NewScoringEngine(engineer *features.Engineer, rng *rand.Rand, base, cap float64) *ScoringEngine {
	return &ScoringEngine{
		engineer: engineer,
		rng:      rng,
		base:     base,
		cap:      cap,
		logger:   log.With().Str("component", "scoring_engine").Logger(),
	}
}

// Predict ranks every candidate by composite feature score and takes
// the top main-count numbers. Selection is incremental because the
// cooccurrence signal depends on what has already been picked. Ties
// break toward the lower number, keeping the tier fully
// deterministic for a fixed history.
func (s *ScoringEngine) Predict(rules models.GameRules, history []models.DrawResult, targetDate time.Time, cross *features.CrossGame) (*Result, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}

	vectors := s.engineer.Compute(rules, history, targetDate, cross)

	selected := make([]int, 0, rules.MainCount)
	for len(selected) < rules.MainCount {
		bestNum, bestScore := 0, -1.0
		for n := 1; n <= rules.MainMax; n++ {
			if contains(selected, n) {
				continue
			}
			fv := vectors[n]
			fv.Cooccurrence = s.engineer.CooccurrenceScore(history, n, selected)
			score := features.Composite(fv)
			if score > bestScore {
				bestNum, bestScore = n, score
			}
		}
		fv := vectors[bestNum]
		fv.Composite = bestScore
		selected = append(selected, bestNum)
	}

	scores := make(map[int]float64, rules.MainMax)
	for n, fv := range vectors {
		scores[n] = fv.Composite
	}

	bonus := s.selectBonus(rules, history, vectors, selected)

	sort.Ints(selected)
	confidence, confFactors := s.confidence(rules, history, cross, selected)

	reasoning := append(s.describeSelection(vectors, selected), confFactors...)

	s.logger.Debug().
		Str("game_type", string(rules.GameType)).
		Ints("main", selected).
		Float64("confidence", confidence).
		Msg("Feature-scoring prediction generated")

	return &Result{
		Main:       selected,
		Bonus:      bonus,
		Confidence: confidence,
		Method:     models.MethodFeatureScoring,
		Reasoning:  reasoning,
		Scores:     scores,
	}, nil
}

// selectBonus picks bonus numbers. The LOTTO-family bonus ball comes
// from the same pool as the mains, so it follows the same composite
// ranking restricted to numbers not already selected. The POWERBALL
// ball is a separate machine and is picked by bonus-history
// frequency.
func (s *ScoringEngine) selectBonus(rules models.GameRules, history []models.DrawResult, vectors map[int]*models.FeatureVector, mains []int) []int {
	if rules.BonusCount == 0 {
		return nil
	}
	if rules.BonusMax == rules.MainMax {
		bonus := make([]int, 0, rules.BonusCount)
		for len(bonus) < rules.BonusCount {
			bestNum, bestScore := 0, -1.0
			for n := 1; n <= rules.BonusMax; n++ {
				if contains(mains, n) || contains(bonus, n) {
					continue
				}
				if vectors[n].Composite > bestScore {
					bestNum, bestScore = n, vectors[n].Composite
				}
			}
			bonus = append(bonus, bestNum)
		}
		sort.Ints(bonus)
		return bonus
	}
	return bonusByFrequency(rules, history, mains, s.rng)
}

// confidence builds up from the base: frequency alignment of the
// picks, sibling-family support, and the spread-balance bonus, hard
// capped.
func (s *ScoringEngine) confidence(rules models.GameRules, history []models.DrawResult, cross *features.CrossGame, selected []int) (float64, []string) {
	confidence := s.base
	var factors []string

	if len(history) > 0 {
		counts := make([]int, rules.MainMax+1)
		total := 0
		for _, draw := range history {
			for _, n := range draw.MainNumbers {
				if n >= 1 && n <= rules.MainMax {
					counts[n]++
					total++
				}
			}
		}
		avg := float64(total) / float64(rules.MainMax)
		aligned := 0
		for _, n := range selected {
			if float64(counts[n]) > avg {
				confidence += 1.5
				aligned++
			}
		}
		if aligned > 0 {
			factors = append(factors, fmt.Sprintf("%d of %d picks beat the range-average frequency", aligned, len(selected)))
		}
	}

	if cross != nil {
		siblingDraws := cross.SiblingDrawCount(rules.GameType)
		if siblingDraws > 0 {
			bonus := float64(siblingDraws) / 10
			if bonus > 10 {
				bonus = 10
			}
			confidence += bonus
			factors = append(factors, fmt.Sprintf("Cross-game support from %d sibling draws", siblingDraws))
		}
	}

	if len(selected) > 1 {
		spread := float64(selected[len(selected)-1] - selected[0])
		optimal := float64(rules.MainMax) * float64(rules.MainCount-1) / float64(rules.MainCount)
		if optimal > 0 && spread >= 0.7*optimal && spread <= 1.3*optimal {
			confidence += 5
			factors = append(factors, fmt.Sprintf("Balanced spread %d across the 1-%d range", int(spread), rules.MainMax))
		}
	}

	return clampFloat(confidence, s.base, s.cap), factors
}

// describeSelection names the dominant signal behind each pick, in
// the order the picks were ranked.
func (s *ScoringEngine) describeSelection(vectors map[int]*models.FeatureVector, selected []int) []string {
	factors := make([]string, 0, len(selected))
	for _, n := range selected {
		fv := vectors[n]
		name, _ := dominantSignal(fv)
		factors = append(factors, fmt.Sprintf("Number %d: composite %.3f, led by %s", n, fv.Composite, name))
	}
	return factors
}

// dominantSignal returns the feature contributing the most weighted
// score to a vector's composite.
func dominantSignal(fv *models.FeatureVector) (string, float64) {
	contributions := []struct {
		name  string
		value float64
	}{
		{"temporal decay", features.WeightTemporalDecay * fv.TemporalDecay},
		{"cross-game boost", features.WeightCrossGame * fv.CrossGame},
		{"recency", features.WeightRecency * fv.Recency},
		{"momentum", features.WeightMomentum * fv.Momentum},
		{"cooccurrence", features.WeightCooccurrence * fv.Cooccurrence},
		{"overdue gap", features.WeightGap * fv.Gap},
		{"seasonality", features.WeightSeasonality * fv.Seasonality},
	}
	best := contributions[0]
	for _, c := range contributions[1:] {
		if c.value > best.value {
			best = c
		}
	}
	return best.name, best.value
}
