package strategy

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lottoza/predictor/models"
)

// Pool construction constants for the frequency tier: hot numbers
// carry the most weight, recent-trend numbers slightly less, cold
// numbers a mean-reversion hedge, plus a few random entries for
// diversity.
const (
	hotPoolSize     = 15
	recentPoolSize  = 8
	coldPoolSize    = 10
	randomPoolSize  = 5
	hotWeight       = 4.0
	recentWeight    = 3.0
	coldWeight      = 2.0
	randomWeight    = 1.0
	recentDrawsSpan = 20
)

// FrequencyAnalyzer is the tier-1 baseline: hot/cold/neutral weighted
// sampling over raw appearance counts. Used when history is too
// sparse for the feature models.
type FrequencyAnalyzer struct {
	rng     *rand.Rand
	confMin float64
	confMax float64
	logger  zerolog.Logger
}

// NewFrequencyAnalyzer creates the tier-1 strategy. Confidence is
// clamped to [confMin, confMax] (reference band 1.5-4.5%), reflecting
// how little a frequency heuristic can actually claim.
func NewFrequencyAnalyzer(rng *rand.Rand, confMin, confMax float64) *FrequencyAnalyzer {
	return &FrequencyAnalyzer{
		rng:     rng,
		confMin: confMin,
		confMax: confMax,
		logger:  log.With().Str("component", "frequency_analyzer").Logger(),
	}
}

// Predict draws the game's main and bonus numbers from a weighted
// candidate pool. Zero history is not an error: the pool is empty and
// every slot is filled uniformly at random.
func (f *FrequencyAnalyzer) Predict(rules models.GameRules, history []models.DrawResult) (*Result, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}

	pool := f.buildPool(rules, history)
	main := f.sampleWithoutReplacement(pool, rules.MainCount)
	filled := rules.MainCount - len(main)
	main = fillRandom(main, rules.MainCount, rules.MainMax, f.rng)
	sort.Ints(main)

	bonus := bonusByFrequency(rules, history, main, f.rng)

	confidence := f.confidence(len(history), len(pool), rules)

	reasoning := []string{
		fmt.Sprintf("Frequency analysis over %d draws with a weighted pool of %d candidates", len(history), len(pool)),
	}
	if filled > 0 {
		reasoning = append(reasoning, fmt.Sprintf("%d of %d numbers filled uniformly at random", filled, rules.MainCount))
	}
	if hot := topCounts(history, rules.MainMax, 3); len(hot) > 0 {
		reasoning = append(reasoning, fmt.Sprintf("Hottest numbers in window: %v", hot))
	}

	f.logger.Debug().
		Str("game_type", string(rules.GameType)).
		Ints("main", main).
		Float64("confidence", confidence).
		Msg("Frequency prediction generated")

	return &Result{
		Main:       main,
		Bonus:      bonus,
		Confidence: confidence,
		Method:     models.MethodFrequencyAnalysis,
		Reasoning:  reasoning,
	}, nil
}

// buildPool assembles the weighted candidate pool. A number that
// qualifies for several buckets keeps its highest weight.
func (f *FrequencyAnalyzer) buildPool(rules models.GameRules, history []models.DrawResult) map[int]float64 {
	pool := make(map[int]float64)
	if len(history) == 0 {
		return pool
	}

	counts := make([]int, rules.MainMax+1)
	for _, draw := range history {
		for _, n := range draw.MainNumbers {
			if n >= 1 && n <= rules.MainMax {
				counts[n]++
			}
		}
	}

	addWeight := func(n int, w float64) {
		if w > pool[n] {
			pool[n] = w
		}
	}

	// Hot: top numbers by raw frequency.
	for _, n := range rankByCount(counts, hotPoolSize, true) {
		addWeight(n, hotWeight)
	}

	// Recent trend: frequency within the most recent draws only.
	span := recentDrawsSpan
	if span > len(history) {
		span = len(history)
	}
	recentCounts := make([]int, rules.MainMax+1)
	for _, draw := range history[:span] {
		for _, n := range draw.MainNumbers {
			if n >= 1 && n <= rules.MainMax {
				recentCounts[n]++
			}
		}
	}
	for _, n := range rankByCount(recentCounts, recentPoolSize, true) {
		addWeight(n, recentWeight)
	}

	// Cold: the mean-reversion hedge, lowest counts first.
	for _, n := range rankByCount(counts, coldPoolSize, false) {
		addWeight(n, coldWeight)
	}

	// Random diversity entries.
	for i := 0; i < randomPoolSize; i++ {
		n := f.rng.Intn(rules.MainMax) + 1
		if _, ok := pool[n]; !ok {
			pool[n] = randomWeight
		}
	}

	return pool
}

// sampleWithoutReplacement repeatedly picks from the pool by
// cumulative weight, removing each winner, until k numbers are chosen
// or the pool runs dry.
func (f *FrequencyAnalyzer) sampleWithoutReplacement(pool map[int]float64, k int) []int {
	type entry struct {
		number int
		weight float64
	}
	entries := make([]entry, 0, len(pool))
	for n, w := range pool {
		entries = append(entries, entry{n, w})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].number < entries[j].number })

	chosen := make([]int, 0, k)
	for len(chosen) < k && len(entries) > 0 {
		total := 0.0
		for _, e := range entries {
			total += e.weight
		}
		r := f.rng.Float64() * total
		idx := len(entries) - 1
		for i, e := range entries {
			r -= e.weight
			if r < 0 {
				idx = i
				break
			}
		}
		chosen = append(chosen, entries[idx].number)
		entries = append(entries[:idx], entries[idx+1:]...)
	}
	return chosen
}

// confidence scales with sample size and pool diversity but never
// leaves the tier's band.
func (f *FrequencyAnalyzer) confidence(historyLen, poolSize int, rules models.GameRules) float64 {
	sampleFactor := float64(historyLen) / 100
	if sampleFactor > 1 {
		sampleFactor = 1
	}
	diversity := float64(poolSize) / float64(3*rules.MainCount)
	if diversity > 1 {
		diversity = 1
	}
	return clampFloat(f.confMin+(f.confMax-f.confMin)*sampleFactor*diversity, f.confMin, f.confMax)
}

// rankByCount returns up to limit numbers ordered by count
// (descending when hot, ascending when cold), ties broken by the
// lower number. Hot ranking skips numbers never seen.
func rankByCount(counts []int, limit int, hot bool) []int {
	type entry struct {
		number int
		count  int
	}
	entries := make([]entry, 0, len(counts))
	for n := 1; n < len(counts); n++ {
		if hot && counts[n] == 0 {
			continue
		}
		entries = append(entries, entry{n, counts[n]})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			if hot {
				return entries[i].count > entries[j].count
			}
			return entries[i].count < entries[j].count
		}
		return entries[i].number < entries[j].number
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	nums := make([]int, len(entries))
	for i, e := range entries {
		nums[i] = e.number
	}
	return nums
}

func topCounts(history []models.DrawResult, maxNumber, limit int) []int {
	counts := make([]int, maxNumber+1)
	for _, draw := range history {
		for _, n := range draw.MainNumbers {
			if n >= 1 && n <= maxNumber {
				counts[n]++
			}
		}
	}
	return rankByCount(counts, limit, true)
}
