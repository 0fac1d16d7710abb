package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTailLoss_CVaRDominatesVaR(t *testing.T) {
	returns := []float64{-0.10, -0.08, -0.05, -0.02, -0.01, 0.0, 0.01, 0.02, 0.03, 0.05}

	for _, confidence := range []float64{0.80, 0.90, 0.95, 0.99} {
		varLoss, cvarLoss := TailLoss(returns, confidence)
		assert.GreaterOrEqual(t, varLoss, 0.0, "VaR must be non-negative")
		assert.GreaterOrEqual(t, cvarLoss, varLoss, "CVaR must dominate VaR at confidence %f", confidence)
	}
}

func TestTailLoss_WorstReturnAtHighConfidence(t *testing.T) {
	returns := []float64{-0.10, -0.05, 0.01, 0.02, 0.03}

	// 99% on 5 observations leaves a single-element tail: the worst return.
	varLoss, cvarLoss := TailLoss(returns, 0.99)
	assert.InDelta(t, 0.10, varLoss, 1e-12)
	assert.InDelta(t, 0.10, cvarLoss, 1e-12)
}

func TestTailLoss_AllGains(t *testing.T) {
	returns := []float64{0.01, 0.02, 0.03, 0.04}

	varLoss, cvarLoss := TailLoss(returns, 0.95)
	assert.Equal(t, 0.0, varLoss, "all-gain sample has zero VaR")
	assert.Equal(t, 0.0, cvarLoss)
}

func TestTailLoss_Empty(t *testing.T) {
	varLoss, cvarLoss := TailLoss(nil, 0.95)
	assert.Equal(t, 0.0, varLoss)
	assert.Equal(t, 0.0, cvarLoss)
}

func TestParametricVaR_KnownQuantiles(t *testing.T) {
	// z(0.95) ≈ 1.645, z(0.99) ≈ 2.326
	assert.InDelta(t, 1.645*0.02, ParametricVaR(0.02, 0.95), 1e-4)
	assert.InDelta(t, 2.326*0.02, ParametricVaR(0.02, 0.99), 1e-3)
}

func TestNormalQuantile(t *testing.T) {
	assert.InDelta(t, 1.6449, NormalQuantile(0.95), 1e-3)
	assert.InDelta(t, 2.3263, NormalQuantile(0.99), 1e-3)
	assert.InDelta(t, 0.0, NormalQuantile(0.5), 1e-9)
}

func TestCornishFisher_NormalCaseIsIdentity(t *testing.T) {
	for _, z := range []float64{-2.0, -1.0, 0.0, 1.0, 2.0} {
		assert.InDelta(t, z, CornishFisher(z, 0, 0), 1e-12)
	}
}

func TestCornishFisher_NegativeSkewDeepensLeftTail(t *testing.T) {
	z := NormalQuantile(0.05) // left tail, negative
	adjusted := CornishFisher(z, -1.0, 0)
	assert.Less(t, adjusted, z, "negative skew should push the left-tail quantile further down")
}

func TestSimulateReturns_Deterministic(t *testing.T) {
	a := SimulateReturns(0.001, 0.02, -0.3, 1.5, 10000, 42)
	b := SimulateReturns(0.001, 0.02, -0.3, 1.5, 10000, 42)

	require.Len(t, a, 10000)
	assert.Equal(t, a, b, "same seed must reproduce the same sample")

	c := SimulateReturns(0.001, 0.02, -0.3, 1.5, 10000, 43)
	assert.NotEqual(t, a, c, "different seeds must differ")
}

func TestSimulateReturns_EnforcesMinimumPaths(t *testing.T) {
	sample := SimulateReturns(0, 0.02, 0, 0, 100, 1)
	assert.Len(t, sample, DefaultMonteCarloPaths)
}

func TestMonteCarloVaR_ApproximatesParametricForNormal(t *testing.T) {
	// With zero skew/kurtosis and zero mean the simulated VaR should land
	// near the closed-form normal quantile.
	varLoss, cvarLoss := MonteCarloVaR(0, 0.02, 0, 0, 50000, 7, 0.95)
	assert.InDelta(t, ParametricVaR(0.02, 0.95), varLoss, 0.004)
	assert.GreaterOrEqual(t, cvarLoss, varLoss)
}

func TestScaleLoss_SquareRootOfTime(t *testing.T) {
	oneDay := ScaleLoss(0.02, 100000, 1)
	tenDay := ScaleLoss(0.02, 100000, 10)

	assert.InDelta(t, 2000.0, oneDay, 1e-9)
	assert.InDelta(t, 2000.0*math.Sqrt(10), tenDay, 1e-9)
}

func TestMaxDrawdown(t *testing.T) {
	prices := []float64{100, 120, 90, 110, 80}
	dd := MaxDrawdown(prices)

	// Peak 120, trough 80: (120-80)/120 = 1/3.
	assert.InDelta(t, 1.0/3.0, dd, 1e-9)
	assert.GreaterOrEqual(t, dd, 0.0)
	assert.LessOrEqual(t, dd, 1.0)
}

func TestMaxDrawdown_MonotonicRise(t *testing.T) {
	assert.Equal(t, 0.0, MaxDrawdown([]float64{1, 2, 3, 4}))
}

func TestCalculateDrawdownMetrics(t *testing.T) {
	prices := []float64{100, 120, 90, 95}
	m := CalculateDrawdownMetrics(prices)

	require.NotNil(t, m)
	assert.InDelta(t, 0.25, m.MaxDrawdown, 1e-9)
	assert.InDelta(t, (120.0-95.0)/120.0, m.CurrentDrawdown, 1e-9)
	assert.Equal(t, 2, m.DaysInDrawdown)
	assert.Equal(t, 120.0, m.PeakValue)
}

func TestSharpeRatio(t *testing.T) {
	returns := []float64{0.01, 0.012, 0.008, 0.011, 0.009}
	sharpe := SharpeRatio(returns, 0.02, 252)
	require.NotNil(t, sharpe)
	assert.Greater(t, *sharpe, 0.0)

	flat := []float64{0.01, 0.01, 0.01}
	assert.Nil(t, SharpeRatio(flat, 0.02, 252), "zero dispersion yields no Sharpe")
}

func TestSharpeFromMoments(t *testing.T) {
	assert.InDelta(t, 0.5, SharpeFromMoments(0.13, 0.2, 0.03), 1e-9)
	assert.Zero(t, SharpeFromMoments(0.13, 0, 0.03), "no dispersion, no ratio")
	assert.Zero(t, SharpeFromMoments(0.13, -0.1, 0.03))
}
