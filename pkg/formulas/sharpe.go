package formulas

import "math"

// SharpeRatio calculates the annualized Sharpe ratio of a periodic return
// series against an annual risk-free rate.
//
//	Sharpe = (mean return − periodic risk-free) / StdDev of returns × sqrt(periods)
//
// Returns nil when fewer than 2 returns exist or the returns have zero
// dispersion.
func SharpeRatio(returns []float64, riskFreeRate float64, periodsPerYear int) *float64 {
	if len(returns) < 2 {
		return nil
	}

	stdDev := StdDev(returns)
	if stdDev == 0 {
		return nil
	}

	periodicRiskFree := riskFreeRate / float64(periodsPerYear)
	sharpe := (Mean(returns) - periodicRiskFree) / stdDev
	annualized := sharpe * math.Sqrt(float64(periodsPerYear))

	return &annualized
}

// SharpeFromMoments calculates the ratio directly from annualized expected
// return and volatility, for callers that model moments instead of holding a
// return series. Zero when the volatility is not positive.
func SharpeFromMoments(expectedReturn, volatility, riskFreeRate float64) float64 {
	if volatility <= 0 {
		return 0
	}
	return (expectedReturn - riskFreeRate) / volatility
}
