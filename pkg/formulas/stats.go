package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear is the annualization base for daily return series.
const TradingDaysPerYear = 252

// Neutral defaults used for portfolio aggregates when no usable data exists.
// Documented fallbacks, not silent zeros: volatility and drawdown assume a
// moderately risky asset, beta assumes the asset moves with the market.
const (
	DefaultVolatility  = 0.15
	DefaultMaxDrawdown = 0.20
	DefaultBeta        = 1.0
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the sample standard deviation of a slice of float64 values
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// Variance calculates the sample variance of a slice of float64 values
func Variance(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.Variance(data, nil)
}

// CalculateReturns converts prices to simple percentage returns.
// Returns[i] = (Price[i+1] - Price[i]) / Price[i]. Steps with a zero or
// non-finite previous price are skipped rather than emitted as garbage.
func CalculateReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		prev := prices[i-1]
		if prev == 0 || math.IsNaN(prev) || math.IsInf(prev, 0) {
			continue
		}
		r := (prices[i] - prev) / prev
		if math.IsNaN(r) || math.IsInf(r, 0) {
			continue
		}
		returns = append(returns, r)
	}

	return returns
}

// AnnualizedVolatility calculates annualized volatility from daily returns.
// Formula: StdDev of daily returns × sqrt(252 trading days).
func AnnualizedVolatility(dailyReturns []float64) float64 {
	if len(dailyReturns) < 2 {
		return 0
	}
	return StdDev(dailyReturns) * math.Sqrt(TradingDaysPerYear)
}

// Skewness calculates the third standardized moment of a return series.
// Defined as 0 when fewer than 3 data points exist.
func Skewness(returns []float64) float64 {
	if len(returns) < 3 {
		return 0
	}
	s := stat.Skew(returns, nil)
	if math.IsNaN(s) || math.IsInf(s, 0) {
		return 0
	}
	return s
}

// Kurtosis calculates the excess kurtosis (fourth standardized moment minus 3)
// of a return series. Defined as 0 when fewer than 3 data points exist.
func Kurtosis(returns []float64) float64 {
	if len(returns) < 3 {
		return 0
	}
	k := stat.ExKurtosis(returns, nil)
	if math.IsNaN(k) || math.IsInf(k, 0) {
		return 0
	}
	return k
}

// Covariance calculates the covariance between two equal-length datasets
func Covariance(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return 0
	}
	return stat.Covariance(x, y, nil)
}

// Correlation calculates the Pearson correlation coefficient between two datasets
func Correlation(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return 0
	}
	c := stat.Correlation(x, y, nil)
	if math.IsNaN(c) {
		return 0
	}
	return c
}

// Beta calculates covariance(asset, benchmark) / variance(benchmark).
// Returns the neutral 1.0 when the inputs mismatch in length or the benchmark
// variance is zero. Beta feeds downstream weighted aggregates that must never
// be undefined, so this is an explicit fallback rather than an error.
func Beta(assetReturns, benchmarkReturns []float64) float64 {
	if len(assetReturns) < 2 || len(assetReturns) != len(benchmarkReturns) {
		return DefaultBeta
	}
	benchVar := stat.Variance(benchmarkReturns, nil)
	if benchVar == 0 || math.IsNaN(benchVar) {
		return DefaultBeta
	}
	b := Covariance(assetReturns, benchmarkReturns) / benchVar
	if math.IsNaN(b) || math.IsInf(b, 0) {
		return DefaultBeta
	}
	return b
}

// WeightedAverage computes Σ values[k] × weights[k] over the keys present in
// both maps. The fallback is returned when no overlapping keys exist or the
// weights sum to zero.
func WeightedAverage(values, weights map[string]float64, fallback float64) float64 {
	var sum, weightSum float64
	for key, w := range weights {
		v, ok := values[key]
		if !ok {
			continue
		}
		sum += v * w
		weightSum += w
	}
	if weightSum == 0 {
		return fallback
	}
	return sum / weightSum
}

// CombineReturns builds a portfolio return series as the value-weighted
// combination of per-asset return series, truncated index-wise to the
// shortest common length. Series with no data are excluded and their weight
// is redistributed across the remainder.
func CombineReturns(returns map[string][]float64, weights map[string]float64) []float64 {
	shortest := -1
	var liveWeight float64
	for symbol, rets := range returns {
		if len(rets) == 0 {
			continue
		}
		if shortest == -1 || len(rets) < shortest {
			shortest = len(rets)
		}
		liveWeight += weights[symbol]
	}
	if shortest <= 0 || liveWeight == 0 {
		return []float64{}
	}

	combined := make([]float64, shortest)
	for symbol, rets := range returns {
		if len(rets) == 0 {
			continue
		}
		w := weights[symbol] / liveWeight
		// Use the most recent observations when a series is longer.
		offset := len(rets) - shortest
		for i := 0; i < shortest; i++ {
			combined[i] += w * rets[offset+i]
		}
	}

	return combined
}

// NormalizeWeights scales a weight map so the values sum to exactly 1.0.
// Returns false when the weights sum to zero and no valid map can exist.
func NormalizeWeights(weights map[string]float64) bool {
	var total float64
	for _, w := range weights {
		total += w
	}
	if total <= 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return false
	}
	for symbol, w := range weights {
		weights[symbol] = w / total
	}
	return true
}
