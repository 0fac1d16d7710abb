package formulas

import (
	"math"
	"math/rand"
	"sort"
)

// DefaultMonteCarloPaths is the minimum simulation count used when a caller
// does not configure one.
const DefaultMonteCarloPaths = 10000

// TailLoss computes the empirical Value-at-Risk and Conditional VaR (expected
// shortfall) of a return sample at the given confidence level. Both results
// are loss fractions, non-negative, with CVaR >= VaR by construction: VaR is
// the best return inside the tail, CVaR the average of the whole tail.
func TailLoss(returns []float64, confidence float64) (varLoss, cvarLoss float64) {
	if len(returns) == 0 {
		return 0, 0
	}

	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	tailProbability := 1.0 - confidence
	tailCount := int(math.Ceil(float64(len(sorted)) * tailProbability))
	if tailCount < 1 {
		tailCount = 1
	}
	if tailCount > len(sorted) {
		tailCount = len(sorted)
	}

	varLoss = -sorted[tailCount-1]
	if varLoss < 0 {
		varLoss = 0
	}

	sum := 0.0
	for _, r := range sorted[:tailCount] {
		sum += r
	}
	cvarLoss = -sum / float64(tailCount)
	if cvarLoss < varLoss {
		cvarLoss = varLoss
	}

	return varLoss, cvarLoss
}

// ParametricVaR returns the normal-assumption loss fraction for one period:
// z(confidence) × stdDev. Never negative.
func ParametricVaR(stdDev, confidence float64) float64 {
	loss := NormalQuantile(confidence) * stdDev
	if loss < 0 || math.IsNaN(loss) {
		return 0
	}
	return loss
}

// SimulateReturns draws paths simulated daily returns from a Cornish-Fisher
// expanded normal parameterized by the sample mean, standard deviation,
// skewness and excess kurtosis. The generator is seeded explicitly so
// identical inputs produce identical samples.
func SimulateReturns(mean, stdDev, skewness, excessKurtosis float64, paths int, seed int64) []float64 {
	if paths < DefaultMonteCarloPaths {
		paths = DefaultMonteCarloPaths
	}

	rng := rand.New(rand.NewSource(seed))
	sample := make([]float64, paths)
	for i := range sample {
		z := rng.NormFloat64()
		sample[i] = mean + stdDev*CornishFisher(z, skewness, excessKurtosis)
	}
	return sample
}

// MonteCarloVaR simulates portfolio returns and returns the empirical VaR and
// CVaR loss fractions of the simulated sample.
func MonteCarloVaR(mean, stdDev, skewness, excessKurtosis float64, paths int, seed int64, confidence float64) (varLoss, cvarLoss float64) {
	sample := SimulateReturns(mean, stdDev, skewness, excessKurtosis, paths, seed)
	return TailLoss(sample, confidence)
}

// ScaleLoss converts a one-day loss fraction into a monetary loss over a
// horizon using the square-root-of-time rule.
func ScaleLoss(lossFraction, portfolioValue float64, horizonDays int) float64 {
	scaled := lossFraction * portfolioValue * math.Sqrt(float64(horizonDays))
	if scaled < 0 || math.IsNaN(scaled) || math.IsInf(scaled, 0) {
		return 0
	}
	return scaled
}
