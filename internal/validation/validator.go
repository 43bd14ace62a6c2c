package validation

import (
	"fmt"
	"sort"

	"github.com/lottoza/predictor/models"
)

// Validate compares a prediction to its realized draw. Pure: the same
// inputs always produce the same result, so re-validating is
// harmless here — the orchestrator enforces the once-only rule at the
// state-machine level. ValidatedAt is left zero for the caller to
// stamp.
func Validate(prediction models.Prediction, actual models.DrawResult) (models.ValidationResult, error) {
	if prediction.GameType != actual.GameType {
		return models.ValidationResult{}, fmt.Errorf("prediction game %s does not match draw game %s", prediction.GameType, actual.GameType)
	}
	if len(prediction.PredictedNumbers) == 0 {
		return models.ValidationResult{}, fmt.Errorf("prediction %s has no numbers", prediction.ID)
	}

	matchedMain := intersect(prediction.PredictedNumbers, actual.MainNumbers)
	matchedBonus := intersect(prediction.PredictedBonus, actual.BonusNumbers)

	predicted := len(prediction.PredictedNumbers) + len(prediction.PredictedBonus)
	accuracy := float64(len(matchedMain)+len(matchedBonus)) / float64(predicted) * 100

	return models.ValidationResult{
		PredictionID:       prediction.ID,
		MainMatches:        len(matchedMain),
		BonusMatches:       len(matchedBonus),
		AccuracyPercentage: accuracy,
		PrizeTier:          PrizeTier(prediction.GameType, len(matchedMain), len(matchedBonus)),
		MatchedMain:        matchedMain,
		MatchedBonus:       matchedBonus,
	}, nil
}

// intersect returns the sorted common elements of two number sets.
func intersect(a, b []int) []int {
	inB := make(map[int]bool, len(b))
	for _, n := range b {
		inB[n] = true
	}
	var out []int
	for _, n := range a {
		if inB[n] {
			out = append(out, n)
		}
	}
	sort.Ints(out)
	return out
}
