package strategy

import (
	"math"
	"math/rand"
	"sort"

	"github.com/lottoza/predictor/models"
)

// featureCount is the width of a training row: the eight engineered
// signals in a fixed order.
const featureCount = 8

type sample struct {
	features [featureCount]float64
	label    float64
}

func featureRow(fv *models.FeatureVector) [featureCount]float64 {
	return [featureCount]float64{
		fv.Frequency,
		fv.Recency,
		fv.TemporalDecay,
		fv.Momentum,
		fv.Cooccurrence,
		fv.CrossGame,
		fv.Gap,
		fv.Seasonality,
	}
}

// ensembleModel is one voter in the tier-3 ensemble. Implementations
// are cheap enough to retrain on every prediction request from the
// current window.
type ensembleModel interface {
	train(samples []sample, rng *rand.Rand)
	score(features [featureCount]float64) float64
	name() string
}

// treeBagModel is model A: a bag of randomized decision stumps,
// capturing non-linear feature interactions through majority vote.
type treeBagModel struct {
	stumps []stump
}

type stump struct {
	feature   int
	threshold float64
	direction float64
}

const treeBagSize = 25

func (m *treeBagModel) name() string { return "tree_ensemble" }

func (m *treeBagModel) train(samples []sample, rng *rand.Rand) {
	m.stumps = m.stumps[:0]
	if len(samples) == 0 {
		return
	}
	for b := 0; b < treeBagSize; b++ {
		// Bootstrap resample, then fit a stump on one random feature:
		// threshold midway between the positive and negative class
		// means.
		feature := rng.Intn(featureCount)
		posSum, negSum := 0.0, 0.0
		posN, negN := 0, 0
		for i := 0; i < len(samples); i++ {
			s := samples[rng.Intn(len(samples))]
			if s.label > 0.5 {
				posSum += s.features[feature]
				posN++
			} else {
				negSum += s.features[feature]
				negN++
			}
		}
		if posN == 0 || negN == 0 {
			continue
		}
		posMean := posSum / float64(posN)
		negMean := negSum / float64(negN)
		direction := 1.0
		if posMean < negMean {
			direction = -1.0
		}
		m.stumps = append(m.stumps, stump{
			feature:   feature,
			threshold: (posMean + negMean) / 2,
			direction: direction,
		})
	}
}

func (m *treeBagModel) score(features [featureCount]float64) float64 {
	if len(m.stumps) == 0 {
		return 0
	}
	votes := 0.0
	for _, st := range m.stumps {
		if st.direction*(features[st.feature]-st.threshold) > 0 {
			votes++
		}
	}
	return votes / float64(len(m.stumps))
}

// boostModel is model B: sequential error-correction with additive
// regression stumps fit to residuals. It carries the highest vote
// weight because it back-tests best.
type boostModel struct {
	rounds []boostRound
}

type boostRound struct {
	feature   int
	threshold float64
	leftValue float64
	rightVal  float64
}

const (
	boostRounds       = 20
	boostLearningRate = 0.3
)

func (m *boostModel) name() string { return "boosted_trees" }

func (m *boostModel) train(samples []sample, _ *rand.Rand) {
	m.rounds = m.rounds[:0]
	if len(samples) == 0 {
		return
	}

	preds := make([]float64, len(samples))
	for round := 0; round < boostRounds; round++ {
		residuals := make([]float64, len(samples))
		for i, s := range samples {
			residuals[i] = s.label - sigmoid(preds[i])
		}

		best, bestErr := boostRound{}, math.Inf(1)
		for feature := 0; feature < featureCount; feature++ {
			for _, q := range []float64{0.25, 0.5, 0.75} {
				threshold := quantile(samples, feature, q)
				left, right, leftN, rightN := 0.0, 0.0, 0, 0
				for i, s := range samples {
					if s.features[feature] <= threshold {
						left += residuals[i]
						leftN++
					} else {
						right += residuals[i]
						rightN++
					}
				}
				if leftN == 0 || rightN == 0 {
					continue
				}
				leftMean := left / float64(leftN)
				rightMean := right / float64(rightN)
				sse := 0.0
				for i, s := range samples {
					fit := leftMean
					if s.features[feature] > threshold {
						fit = rightMean
					}
					d := residuals[i] - fit
					sse += d * d
				}
				if sse < bestErr {
					bestErr = sse
					best = boostRound{feature: feature, threshold: threshold, leftValue: leftMean, rightVal: rightMean}
				}
			}
		}
		if math.IsInf(bestErr, 1) {
			break
		}

		m.rounds = append(m.rounds, best)
		for i, s := range samples {
			fit := best.leftValue
			if s.features[best.feature] > best.threshold {
				fit = best.rightVal
			}
			preds[i] += boostLearningRate * fit
		}
	}
}

func (m *boostModel) score(features [featureCount]float64) float64 {
	raw := 0.0
	for _, r := range m.rounds {
		fit := r.leftValue
		if features[r.feature] > r.threshold {
			fit = r.rightVal
		}
		raw += boostLearningRate * fit
	}
	return sigmoid(raw)
}

// neuralNetModel is model C: a small feed-forward net (one hidden
// layer) meant to pick up the temporal/sequential interactions the
// stump models miss.
type neuralNetModel struct {
	hiddenW [netHidden][featureCount]float64
	hiddenB [netHidden]float64
	outW    [netHidden]float64
	outB    float64
}

const (
	netHidden       = 6
	netEpochs       = 30
	netLearningRate = 0.5
)

func (m *neuralNetModel) name() string { return "neural_net" }

func (m *neuralNetModel) train(samples []sample, rng *rand.Rand) {
	for h := 0; h < netHidden; h++ {
		for f := 0; f < featureCount; f++ {
			m.hiddenW[h][f] = rng.NormFloat64() * 0.5
		}
		m.hiddenB[h] = rng.NormFloat64() * 0.1
		m.outW[h] = rng.NormFloat64() * 0.5
	}
	m.outB = 0
	if len(samples) == 0 {
		return
	}

	order := make([]int, len(samples))
	for i := range order {
		order[i] = i
	}

	for epoch := 0; epoch < netEpochs; epoch++ {
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		for _, idx := range order {
			s := samples[idx]

			var hidden [netHidden]float64
			for h := 0; h < netHidden; h++ {
				z := m.hiddenB[h]
				for f := 0; f < featureCount; f++ {
					z += m.hiddenW[h][f] * s.features[f]
				}
				hidden[h] = sigmoid(z)
			}
			z := m.outB
			for h := 0; h < netHidden; h++ {
				z += m.outW[h] * hidden[h]
			}
			out := sigmoid(z)

			// Backprop for squared error with sigmoid activations.
			outDelta := (out - s.label) * out * (1 - out)
			for h := 0; h < netHidden; h++ {
				hiddenDelta := outDelta * m.outW[h] * hidden[h] * (1 - hidden[h])
				m.outW[h] -= netLearningRate * outDelta * hidden[h]
				for f := 0; f < featureCount; f++ {
					m.hiddenW[h][f] -= netLearningRate * hiddenDelta * s.features[f]
				}
				m.hiddenB[h] -= netLearningRate * hiddenDelta
			}
			m.outB -= netLearningRate * outDelta
		}
	}
}

func (m *neuralNetModel) score(features [featureCount]float64) float64 {
	var hidden [netHidden]float64
	for h := 0; h < netHidden; h++ {
		z := m.hiddenB[h]
		for f := 0; f < featureCount; f++ {
			z += m.hiddenW[h][f] * features[f]
		}
		hidden[h] = sigmoid(z)
	}
	z := m.outB
	for h := 0; h < netHidden; h++ {
		z += m.outW[h] * hidden[h]
	}
	return sigmoid(z)
}

// crossValidate runs k-fold validation with fresh model instances and
// returns the mean held-out classification accuracy. Used as an
// overfitting guard on every training pass.
func crossValidate(factory func() ensembleModel, samples []sample, k int, rng *rand.Rand) float64 {
	if k < 2 || len(samples) < k {
		return 0
	}
	order := make([]int, len(samples))
	for i := range order {
		order[i] = i
	}
	rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	foldSize := len(samples) / k
	totalAcc := 0.0
	for fold := 0; fold < k; fold++ {
		start := fold * foldSize
		end := start + foldSize
		if fold == k-1 {
			end = len(samples)
		}

		train := make([]sample, 0, len(samples)-(end-start))
		test := make([]sample, 0, end-start)
		for i, idx := range order {
			if i >= start && i < end {
				test = append(test, samples[idx])
			} else {
				train = append(train, samples[idx])
			}
		}

		m := factory()
		m.train(train, rng)
		correct := 0
		for _, s := range test {
			predicted := m.score(s.features) > 0.5
			if predicted == (s.label > 0.5) {
				correct++
			}
		}
		if len(test) > 0 {
			totalAcc += float64(correct) / float64(len(test))
		}
	}
	return totalAcc / float64(k)
}

func quantile(samples []sample, feature int, q float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	values := make([]float64, len(samples))
	for i, s := range samples {
		values[i] = s.features[feature]
	}
	sort.Float64s(values)
	idx := int(q * float64(len(values)-1))
	return values[idx]
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
