package allocation

import (
	"math"
	"sort"

	"github.com/mkarag/riskfolio/internal/domain"
	"github.com/mkarag/riskfolio/pkg/formulas"
)

// greedyMVO builds a target allocation by handing weight to assets in
// descending order of risk-adjusted score until either the full weight or
// the risk budget is spent. riskTolerance acts as the budget: each grant
// of weight w to an asset with volatility v consumes w*v of it.
func greedyMVO(profiles []assetProfile, riskTolerance, maxAssetWeight float64) (map[string]float64, error) {
	if len(profiles) == 0 {
		return nil, domain.NoDataf("no assets to optimize")
	}

	ranked := make([]assetProfile, len(profiles))
	copy(ranked, profiles)
	sort.Slice(ranked, func(i, j int) bool {
		si, sj := score(ranked[i]), score(ranked[j])
		if si != sj {
			return si > sj
		}
		return ranked[i].Symbol < ranked[j].Symbol
	})

	weights := make(map[string]float64, len(ranked))
	remaining := 1.0
	budget := riskTolerance
	for _, p := range ranked {
		if remaining <= 0 || budget <= 0 {
			break
		}
		w := math.Min(maxAssetWeight, remaining)
		if cost := w * p.Volatility; cost > budget {
			w = budget / p.Volatility
		}
		if w <= 0 {
			continue
		}
		weights[p.Symbol] = w
		remaining -= w
		budget -= w * p.Volatility
	}

	if !formulas.NormalizeWeights(weights) {
		return nil, domain.InvalidParameterf("risk tolerance %.4f too low to allocate any asset", riskTolerance)
	}
	return weights, nil
}

// score is the Sharpe-like ranking criterion. Volatility is guaranteed
// positive by the profile builder.
func score(p assetProfile) float64 {
	return p.ExpectedReturn / p.Volatility
}

// applyViews shifts a baseline allocation by user conviction, Black-Litterman
// style. A view of 0.5 is neutral; 1.0 adds the full maxAdjustment, 0.0
// subtracts it. Adjusted weights are clamped to [0, 0.5] before
// renormalization. Views on symbols absent from the baseline are ignored.
func applyViews(base map[string]float64, views map[string]float64, maxAdjustment float64) (map[string]float64, error) {
	adjusted := make(map[string]float64, len(base))
	for sym, w := range base {
		adjusted[sym] = w
	}
	for sym, view := range views {
		w, held := adjusted[sym]
		if !held {
			continue
		}
		shifted := w + (view-0.5)*2*maxAdjustment
		adjusted[sym] = clamp(shifted, 0, 0.5)
	}
	if !formulas.NormalizeWeights(adjusted) {
		return nil, domain.InvalidParameterf("views drove every weight to zero")
	}
	return adjusted, nil
}

// portfolioVolatility computes sqrt(w' Σ w) with a constant assumed
// correlation between distinct assets.
func portfolioVolatility(weights map[string]float64, profiles map[string]assetProfile, assumedCorrelation float64) float64 {
	var variance float64
	for si, wi := range weights {
		pi, ok := profiles[si]
		if !ok {
			continue
		}
		for sj, wj := range weights {
			pj, ok := profiles[sj]
			if !ok {
				continue
			}
			cov := pi.Volatility * pj.Volatility
			if si != sj {
				cov *= assumedCorrelation
			}
			variance += wi * wj * cov
		}
	}
	if variance <= 0 {
		return 0
	}
	return math.Sqrt(variance)
}

// portfolioReturn is the weight-blended annualized expected return.
func portfolioReturn(weights map[string]float64, profiles map[string]assetProfile) float64 {
	returns := make(map[string]float64, len(profiles))
	for sym, p := range profiles {
		returns[sym] = p.ExpectedReturn
	}
	return formulas.WeightedAverage(returns, weights, 0)
}
