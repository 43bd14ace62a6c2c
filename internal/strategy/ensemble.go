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

const (
	// cvFolds is the k for cross-validation during training.
	cvFolds = 5
	// trainingDrawLimit caps how many past draws become training
	// targets; older draws beyond it only contribute features.
	trainingDrawLimit = 40
	// weightLearningRate controls how hard a single validation
	// nudges the vote weights.
	weightLearningRate = 0.05
	// Vote weights stay inside these bounds however the nudging goes.
	weightFloor = 0.15
	weightCeil  = 0.50
)

// Ensemble is the tier-3 strategy: three independently trained models
// scoring every candidate from the same feature vectors, combined by
// weighted vote. With fewer than minDraws of history it falls back to
// the scoring engine; the selector enforces the same threshold, this
// is a redundant safety net.
type Ensemble struct {
	engineer *features.Engineer
	fallback *ScoringEngine
	rng      *rand.Rand
	minDraws int
	weights  models.EnsembleWeights
	confBase float64
	confCap  float64
	logger   zerolog.Logger
}

// NewEnsemble creates the tier-3 strategy with the given vote weights
// (use models.DefaultEnsembleWeights for a fresh game). confBase and
// confCap bound the confidence (reference 50 and 90).
func NewEnsemble(engineer *features.Engineer, fallback *ScoringEngine, rng *rand.Rand, minDraws int, weights models.EnsembleWeights, confBase, confCap float64) *Ensemble {
	return &Ensemble{
		engineer: engineer,
		fallback: fallback,
		rng:      rng,
		minDraws: minDraws,
		weights:  weights,
		confBase: confBase,
		confCap:  confCap,
		logger:   log.With().Str("component", "ensemble").Logger(),
	}
}

// Weights returns the current vote weights.
func (e *Ensemble) Weights() models.EnsembleWeights { return e.weights }

// SetWeights replaces the vote weights, typically after a validation
// round adjusted them.
func (e *Ensemble) SetWeights(w models.EnsembleWeights) { e.weights = w }

// Predict trains the three models on the historical window, scores
// every candidate, and takes the top numbers by weighted vote.
func (e *Ensemble) Predict(rules models.GameRules, history []models.DrawResult, targetDate time.Time, cross *features.CrossGame) (*Result, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	if len(history) < e.minDraws {
		e.logger.Warn().
			Str("game_type", string(rules.GameType)).
			Int("draws", len(history)).
			Int("required", e.minDraws).
			Msg("Insufficient history for ensemble, falling back to feature scoring")
		return e.fallback.Predict(rules, history, targetDate, cross)
	}

	samples := e.buildTrainingSet(rules, history, cross)
	trained, cvAccuracy := e.trainModels(samples)

	combined := e.combinedScores(rules, history, targetDate, cross, trained)

	selected := topByScore(combined, rules.MainCount, rules.MainMax)
	bonus := bonusByFrequency(rules, history, selected, e.rng)

	meanCV := (e.weights.Tree*cvAccuracy[0] + e.weights.Boost*cvAccuracy[1] + e.weights.Net*cvAccuracy[2]) /
		(e.weights.Tree + e.weights.Boost + e.weights.Net)
	confidence := clampFloat(e.confBase+25*meanCV, e.confBase, e.confCap)

	reasoning := []string{
		fmt.Sprintf("Ensemble vote over %d draws, %d training samples", len(history), len(samples)),
		fmt.Sprintf("Vote weights: tree %.2f, boost %.2f, net %.2f", e.weights.Tree, e.weights.Boost, e.weights.Net),
		fmt.Sprintf("5-fold CV accuracy: tree %.2f, boost %.2f, net %.2f", cvAccuracy[0], cvAccuracy[1], cvAccuracy[2]),
	}
	for _, n := range selected {
		reasoning = append(reasoning, fmt.Sprintf("Number %d: weighted vote %.3f", n, combined[n]))
	}

	e.logger.Debug().
		Str("game_type", string(rules.GameType)).
		Ints("main", selected).
		Float64("confidence", confidence).
		Msg("Ensemble prediction generated")

	return &Result{
		Main:       selected,
		Bonus:      bonus,
		Confidence: confidence,
		Method:     models.MethodEnsemble,
		Reasoning:  reasoning,
		Scores:     combined,
	}, nil
}

// ModelAccuracies re-runs each model's solo ranking against the
// pre-draw history and reports the fraction of its top picks that hit
// the actual draw. Feeds AdjustWeights after a validation.
func (e *Ensemble) ModelAccuracies(rules models.GameRules, history []models.DrawResult, targetDate time.Time, cross *features.CrossGame, actual models.DrawResult) [3]float64 {
	var accuracy [3]float64
	if len(history) < e.minDraws {
		return accuracy
	}

	samples := e.buildTrainingSet(rules, history, cross)
	trained, _ := e.trainModels(samples)

	vectors := e.engineer.Compute(rules, history, targetDate, cross)
	for i, m := range trained {
		scores := make(map[int]float64, rules.MainMax)
		for n := 1; n <= rules.MainMax; n++ {
			scores[n] = m.score(featureRow(vectors[n]))
		}
		picks := topByScore(scores, rules.MainCount, rules.MainMax)
		hits := 0
		for _, n := range picks {
			if contains(actual.MainNumbers, n) {
				hits++
			}
		}
		accuracy[i] = float64(hits) / float64(rules.MainCount)
	}
	return accuracy
}

// AdjustWeights is the pure weight-evolution step: each model's vote
// weight moves toward the better performers of the latest validation,
// bounded to [0.15, 0.50] and renormalized to sum to 1.
func AdjustWeights(old models.EnsembleWeights, modelAccuracy [3]float64) models.EnsembleWeights {
	mean := (modelAccuracy[0] + modelAccuracy[1] + modelAccuracy[2]) / 3
	w := [3]float64{
		old.Tree + weightLearningRate*(modelAccuracy[0]-mean),
		old.Boost + weightLearningRate*(modelAccuracy[1]-mean),
		old.Net + weightLearningRate*(modelAccuracy[2]-mean),
	}

	// Clamping and renormalizing interact, so iterate to a stable
	// point; a handful of rounds is plenty at this learning rate.
	for round := 0; round < 4; round++ {
		sum := 0.0
		for i := range w {
			if w[i] < weightFloor {
				w[i] = weightFloor
			}
			if w[i] > weightCeil {
				w[i] = weightCeil
			}
			sum += w[i]
		}
		for i := range w {
			w[i] /= sum
		}
	}
	for i := range w {
		if w[i] < weightFloor {
			w[i] = weightFloor
		}
		if w[i] > weightCeil {
			w[i] = weightCeil
		}
	}

	return models.EnsembleWeights{
		GameType:  old.GameType,
		Tree:      w[0],
		Boost:     w[1],
		Net:       w[2],
		UpdatedAt: time.Now(),
	}
}

// buildTrainingSet labels each candidate number per past draw: the
// features are computed from the draws strictly before it, the label
// is whether the number came up.
func (e *Ensemble) buildTrainingSet(rules models.GameRules, history []models.DrawResult, cross *features.CrossGame) []sample {
	limit := trainingDrawLimit
	// Keep a feature window of at least ten draws behind every
	// training target.
	if max := len(history) - 10; limit > max {
		limit = max
	}

	samples := make([]sample, 0, limit*rules.MainMax)
	for i := 0; i < limit; i++ {
		target := history[i]
		window := history[i+1:]
		vectors := e.engineer.Compute(rules, window, target.DrawDate, cross)
		for n := 1; n <= rules.MainMax; n++ {
			label := 0.0
			if contains(target.MainNumbers, n) {
				label = 1.0
			}
			samples = append(samples, sample{features: featureRow(vectors[n]), label: label})
		}
	}
	return samples
}

// trainModels trains fresh instances of the three models and reports
// their cross-validated accuracy.
func (e *Ensemble) trainModels(samples []sample) ([3]ensembleModel, [3]float64) {
	factories := [3]func() ensembleModel{
		func() ensembleModel { return &treeBagModel{} },
		func() ensembleModel { return &boostModel{} },
		func() ensembleModel { return &neuralNetModel{} },
	}

	var trained [3]ensembleModel
	var cvAccuracy [3]float64
	for i, factory := range factories {
		cvAccuracy[i] = crossValidate(factory, samples, cvFolds, e.rng)
		m := factory()
		m.train(samples, e.rng)
		trained[i] = m
	}
	return trained, cvAccuracy
}

// combinedScores normalizes each model's candidate scores to [0,1]
// and blends them with the vote weights.
func (e *Ensemble) combinedScores(rules models.GameRules, history []models.DrawResult, targetDate time.Time, cross *features.CrossGame, trained [3]ensembleModel) map[int]float64 {
	vectors := e.engineer.Compute(rules, history, targetDate, cross)

	perModel := make([]map[int]float64, 3)
	for i, m := range trained {
		scores := make(map[int]float64, rules.MainMax)
		for n := 1; n <= rules.MainMax; n++ {
			scores[n] = m.score(featureRow(vectors[n]))
		}
		perModel[i] = normalizeScores(scores)
	}

	weights := [3]float64{e.weights.Tree, e.weights.Boost, e.weights.Net}
	combined := make(map[int]float64, rules.MainMax)
	for n := 1; n <= rules.MainMax; n++ {
		total := 0.0
		for i := range perModel {
			total += weights[i] * perModel[i][n]
		}
		combined[n] = total
	}
	return combined
}

func normalizeScores(scores map[int]float64) map[int]float64 {
	lo, hi := 0.0, 0.0
	first := true
	for _, v := range scores {
		if first {
			lo, hi = v, v
			first = false
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	out := make(map[int]float64, len(scores))
	span := hi - lo
	for n, v := range scores {
		if span > 0 {
			out[n] = (v - lo) / span
		} else {
			out[n] = 0
		}
	}
	return out
}

// topByScore takes the count highest-scored numbers, ties broken by
// the lower number, returned sorted ascending.
func topByScore(scores map[int]float64, count, maxNumber int) []int {
	nums := make([]int, 0, maxNumber)
	for n := 1; n <= maxNumber; n++ {
		nums = append(nums, n)
	}
	sort.SliceStable(nums, func(i, j int) bool {
		if scores[nums[i]] != scores[nums[j]] {
			return scores[nums[i]] > scores[nums[j]]
		}
		return nums[i] < nums[j]
	})
	selected := append([]int(nil), nums[:count]...)
	sort.Ints(selected)
	return selected
}
