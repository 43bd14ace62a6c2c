package features

import (
	"math"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lottoza/predictor/models"
)

// Composite weights for the feature-scoring tier. Fixed design
// constants, not learned.
const (
	WeightTemporalDecay = 0.35
	WeightCrossGame     = 0.15
	WeightRecency       = 0.18
	WeightMomentum      = 0.12
	WeightCooccurrence  = 0.08
	WeightGap           = 0.06
	WeightSeasonality   = 0.06
)

// decayLambda is fixed so that an appearance 20 draws old contributes
// ~10% of a fresh one: exp(-lambda*20) = 0.1.
var decayLambda = math.Log(10) / 20

// Engineer computes per-number feature vectors from a historical
// window. History is always ordered most-recent-first.
type Engineer struct {
	logger zerolog.Logger
}

func NewEngineer() *Engineer {
	return &Engineer{logger: log.With().Str("component", "features").Logger()}
}

// Compute builds a feature vector for every number in the game's main
// range. The cooccurrence score is left at zero here: it depends on
// the numbers already picked and is filled in incrementally during
// selection via CooccurrenceScore. Composite reflects the weights
// above with cooccurrence excluded until then.
func (e *Engineer) Compute(rules models.GameRules, history []models.DrawResult, targetDate time.Time, cross *CrossGame) map[int]*models.FeatureVector {
	if len(history) == 0 {
		e.logger.Debug().
			Str("game_type", string(rules.GameType)).
			Msg("No history available, feature scores zeroed")
	}

	vectors := make(map[int]*models.FeatureVector, rules.MainMax)

	counts := make([]int, rules.MainMax+1)
	lastSeen := make([]int, rules.MainMax+1) // index of most recent appearance, -1 if never
	decaySums := make([]float64, rules.MainMax+1)
	for n := 1; n <= rules.MainMax; n++ {
		lastSeen[n] = -1
	}
	for idx, draw := range history {
		for _, n := range draw.MainNumbers {
			if n < 1 || n > rules.MainMax {
				continue
			}
			counts[n]++
			if lastSeen[n] < 0 {
				lastSeen[n] = idx
			}
			decaySums[n] += math.Exp(-decayLambda * float64(idx))
		}
	}

	maxCount, maxDecay := 0, 0.0
	for n := 1; n <= rules.MainMax; n++ {
		if counts[n] > maxCount {
			maxCount = counts[n]
		}
		if decaySums[n] > maxDecay {
			maxDecay = decaySums[n]
		}
	}

	for n := 1; n <= rules.MainMax; n++ {
		fv := &models.FeatureVector{Number: n}
		if len(history) > 0 {
			if maxCount > 0 {
				fv.Frequency = float64(counts[n]) / float64(maxCount)
			}
			if lastSeen[n] >= 0 {
				fv.Recency = 1.0 / float64(lastSeen[n]+1)
			}
			if maxDecay > 0 {
				fv.TemporalDecay = decaySums[n] / maxDecay
			}
			fv.Momentum = e.momentum(history, n)
			fv.Gap = e.gap(history, n, counts[n], lastSeen[n])
			fv.Seasonality = e.seasonality(history, n, counts[n], targetDate)
		}
		if cross != nil {
			fv.CrossGame = cross.Boost(rules.GameType, n)
		}
		fv.Composite = Composite(fv)
		vectors[n] = fv
	}
	return vectors
}

// Composite is the fixed weighted sum over a vector's scores.
func Composite(fv *models.FeatureVector) float64 {
	return WeightTemporalDecay*fv.TemporalDecay +
		WeightCrossGame*fv.CrossGame +
		WeightRecency*fv.Recency +
		WeightMomentum*fv.Momentum +
		WeightCooccurrence*fv.Cooccurrence +
		WeightGap*fv.Gap +
		WeightSeasonality*fv.Seasonality
}

// momentum compares the appearance rate in the most recent 20% of the
// window against the remaining 80%. 0.5 is neutral, above 0.5 the
// number is trending hot.
func (e *Engineer) momentum(history []models.DrawResult, number int) float64 {
	recentLen := len(history) / 5
	if recentLen < 1 {
		recentLen = 1
	}
	if recentLen >= len(history) {
		return 0.5
	}

	recentHits, restHits := 0, 0
	for idx, draw := range history {
		if !contains(draw.MainNumbers, number) {
			continue
		}
		if idx < recentLen {
			recentHits++
		} else {
			restHits++
		}
	}

	recentRate := float64(recentHits) / float64(recentLen)
	restRate := float64(restHits) / float64(len(history)-recentLen)
	return clamp01((recentRate - restRate + 1) / 2)
}

// gap scores a number against its own rhythm: the current drought
// relative to its historical average gap. At twice its average gap
// the number saturates at 1.0; at or below its average it sits at or
// below 0.5.
func (e *Engineer) gap(history []models.DrawResult, number, count, lastSeenIdx int) float64 {
	if count == 0 || lastSeenIdx < 0 {
		return 0
	}
	avgGap := float64(len(history)) / float64(count)
	if avgGap <= 0 {
		return 0
	}
	return clamp01(float64(lastSeenIdx) / (2 * avgGap))
}

// seasonality measures how much more often the number appears on
// draws sharing the target date's weekday than it does overall.
// Ratio 1 (no seasonal signal) maps to 0.5.
func (e *Engineer) seasonality(history []models.DrawResult, number, count int, targetDate time.Time) float64 {
	if count == 0 {
		return 0
	}
	weekday := targetDate.Weekday()

	sameDayDraws, sameDayHits := 0, 0
	for _, draw := range history {
		if draw.DrawDate.Weekday() != weekday {
			continue
		}
		sameDayDraws++
		if contains(draw.MainNumbers, number) {
			sameDayHits++
		}
	}
	// Too few same-weekday draws to condition on: fall back to the
	// target month.
	if sameDayDraws < 4 {
		month := targetDate.Month()
		sameDayDraws, sameDayHits = 0, 0
		for _, draw := range history {
			if draw.DrawDate.Month() != month {
				continue
			}
			sameDayDraws++
			if contains(draw.MainNumbers, number) {
				sameDayHits++
			}
		}
	}
	if sameDayDraws == 0 {
		return 0
	}

	conditional := float64(sameDayHits) / float64(sameDayDraws)
	unconditional := float64(count) / float64(len(history))
	if unconditional == 0 {
		return 0
	}
	return clamp01(conditional / unconditional / 2)
}

// CooccurrenceScore is the incremental signal used during selection:
// the average conditional frequency of candidate appearing in the
// same draw as each provisionally selected number.
func (e *Engineer) CooccurrenceScore(history []models.DrawResult, candidate int, selected []int) float64 {
	if len(selected) == 0 || len(history) == 0 {
		return 0
	}
	total := 0.0
	for _, s := range selected {
		withS, together := 0, 0
		for _, draw := range history {
			if !contains(draw.MainNumbers, s) {
				continue
			}
			withS++
			if contains(draw.MainNumbers, candidate) {
				together++
			}
		}
		if withS > 0 {
			total += float64(together) / float64(withS)
		}
	}
	return clamp01(total / float64(len(selected)))
}

func contains(nums []int, target int) bool {
	for _, n := range nums {
		if n == target {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
