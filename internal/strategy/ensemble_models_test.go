package strategy

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// separableSamples labels rows by whether the first feature is high,
// an easy pattern every model should learn.
func separableSamples(n int, rng *rand.Rand) []sample {
	samples := make([]sample, n)
	for i := range samples {
		var s sample
		for f := 0; f < featureCount; f++ {
			s.features[f] = rng.Float64()
		}
		if s.features[0] > 0.5 {
			s.label = 1
		}
		samples[i] = s
	}
	return samples
}

func TestModelsLearnSeparablePattern(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	samples := separableSamples(400, rng)

	high := [featureCount]float64{0: 0.95}
	low := [featureCount]float64{0: 0.05}

	for _, m := range []ensembleModel{&boostModel{}, &neuralNetModel{}} {
		m.train(samples, rng)
		assert.Greater(t, m.score(high), m.score(low), "model %s", m.name())
	}

	// The bagged stumps pick random features, so the separation is
	// only guaranteed not to invert.
	bag := &treeBagModel{}
	bag.train(samples, rng)
	assert.GreaterOrEqual(t, bag.score(high), bag.score(low))
}

func TestModelScoresOnUntrainedModel(t *testing.T) {
	var features [featureCount]float64
	assert.Zero(t, (&treeBagModel{}).score(features))
	// An empty boost model degenerates to sigmoid(0).
	assert.InDelta(t, 0.5, (&boostModel{}).score(features), 1e-9)
}

func TestCrossValidateSeparableData(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	samples := separableSamples(200, rng)

	acc := crossValidate(func() ensembleModel { return &boostModel{} }, samples, 5, rng)
	assert.Greater(t, acc, 0.7, "an easy pattern should cross-validate well")
	assert.LessOrEqual(t, acc, 1.0)
}

func TestCrossValidateDegenerateInputs(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	factory := func() ensembleModel { return &treeBagModel{} }
	assert.Zero(t, crossValidate(factory, nil, 5, rng))
	assert.Zero(t, crossValidate(factory, separableSamples(3, rng), 5, rng))
	assert.Zero(t, crossValidate(factory, separableSamples(10, rng), 1, rng))
}

func TestQuantileOrdering(t *testing.T) {
	samples := []sample{
		{features: [featureCount]float64{0: 0.1}},
		{features: [featureCount]float64{0: 0.4}},
		{features: [featureCount]float64{0: 0.7}},
		{features: [featureCount]float64{0: 0.9}},
	}
	lo := quantile(samples, 0, 0.25)
	mid := quantile(samples, 0, 0.5)
	hi := quantile(samples, 0, 0.75)
	require.LessOrEqual(t, lo, mid)
	require.LessOrEqual(t, mid, hi)
	assert.Zero(t, quantile(nil, 0, 0.5))
}

func TestSigmoidBounds(t *testing.T) {
	assert.InDelta(t, 0.5, sigmoid(0), 1e-9)
	assert.Greater(t, sigmoid(10), 0.99)
	assert.Less(t, sigmoid(-10), 0.01)
}
