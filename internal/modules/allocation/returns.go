package allocation

import (
	"strings"

	"github.com/markcheno/go-talib"

	"github.com/mkarag/riskfolio/internal/modules/history"
	"github.com/mkarag/riskfolio/pkg/formulas"
)

// Categorical fallbacks used when an asset has too little history for an
// empirical estimate. Annualized figures.
const (
	stableFallbackReturn  = 0.03
	cryptoFallbackReturn  = 0.15
	defaultFallbackReturn = 0.07

	minExpectedReturn = -0.50
	maxExpectedReturn = 1.00

	rsiPeriod = 14
	// A fully overbought/oversold RSI shifts the estimate by at most 2%.
	rsiTiltScale = 0.02
)

var stableSymbols = map[string]bool{
	"usdt": true, "usdc": true, "dai": true, "busd": true, "tusd": true,
}

var cryptoSymbols = map[string]bool{
	"btc": true, "eth": true, "sol": true, "bnb": true, "xrp": true,
	"ada": true, "doge": true, "dot": true, "avax": true, "ltc": true,
}

// expectedReturn estimates the annualized expected return for one asset.
// With enough history it annualizes the mean daily return and applies a
// small RSI momentum tilt; otherwise it falls back to a category default.
func expectedReturn(symbol string, hist *history.AssetHistory) float64 {
	if hist != nil && len(hist.Returns) >= 2 {
		est := formulas.Mean(hist.Returns) * formulas.TradingDaysPerYear
		est += rsiTilt(hist.Prices)
		return clamp(est, minExpectedReturn, maxExpectedReturn)
	}
	return fallbackReturn(symbol)
}

// rsiTilt nudges the estimate toward recent momentum. RSI above 50 reads
// as positive momentum, below 50 as negative.
func rsiTilt(prices []float64) float64 {
	if len(prices) <= rsiPeriod+1 {
		return 0
	}
	rsi := talib.Rsi(prices, rsiPeriod)
	last := rsi[len(rsi)-1]
	if last <= 0 || last >= 100 {
		return 0
	}
	return (last - 50) / 50 * rsiTiltScale
}

func fallbackReturn(symbol string) float64 {
	key := strings.ToLower(strings.TrimSpace(symbol))
	switch {
	case stableSymbols[key]:
		return stableFallbackReturn
	case cryptoSymbols[key]:
		return cryptoFallbackReturn
	default:
		return defaultFallbackReturn
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
