package allocation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGreedyMVO_RanksByScoreAndCapsWeight(t *testing.T) {
	profiles := []assetProfile{
		{Symbol: "ada", ExpectedReturn: 0.05, Volatility: 0.50},
		{Symbol: "btc", ExpectedReturn: 0.30, Volatility: 0.50},
		{Symbol: "eth", ExpectedReturn: 0.15, Volatility: 0.50},
	}

	weights, err := greedyMVO(profiles, 1.0, 0.4)
	require.NoError(t, err)

	// Generous budget: the two best scores hit the per-asset cap, the
	// laggard picks up the remainder.
	assert.InDelta(t, 1.0, sumWeights(weights), 1e-9)
	assert.InDelta(t, 0.4, weights["btc"], 1e-9)
	assert.InDelta(t, 0.4, weights["eth"], 1e-9)
	assert.InDelta(t, 0.2, weights["ada"], 1e-9)
}

func TestGreedyMVO_TightBudgetConcentratesInBestAsset(t *testing.T) {
	profiles := []assetProfile{
		{Symbol: "btc", ExpectedReturn: 0.30, Volatility: 0.60},
		{Symbol: "eth", ExpectedReturn: 0.10, Volatility: 0.60},
	}

	// Budget 0.06 is spent entirely by btc at weight 0.1 (0.1 * 0.6).
	weights, err := greedyMVO(profiles, 0.06, 0.4)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, weights["btc"], 1e-9)
	assert.Zero(t, weights["eth"])
}

func TestGreedyMVO_EqualScoresBreakTiesBySymbol(t *testing.T) {
	profiles := []assetProfile{
		{Symbol: "zec", ExpectedReturn: 0.10, Volatility: 0.20},
		{Symbol: "ada", ExpectedReturn: 0.10, Volatility: 0.20},
	}

	// Budget covers exactly one 0.4 grant (0.4 * 0.2 = 0.08), so the
	// alphabetically first symbol wins it all after renormalization.
	weights, err := greedyMVO(profiles, 0.08, 0.4)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, weights["ada"], 1e-9)
	assert.Zero(t, weights["zec"])
}

func TestGreedyMVO_NoAssetsFails(t *testing.T) {
	_, err := greedyMVO(nil, 0.5, 0.4)
	assert.Error(t, err)
}

func TestApplyViews_ShiftsByConviction(t *testing.T) {
	base := map[string]float64{"eth": 0.2, "btc": 0.3, "sol": 0.5}

	adjusted, err := applyViews(base, map[string]float64{"eth": 1.0}, 0.1)
	require.NoError(t, err)

	// eth moves 0.2 -> 0.3 before renormalizing over the 1.1 total.
	assert.InDelta(t, 0.3/1.1, adjusted["eth"], 1e-9)
	assert.InDelta(t, 0.3/1.1, adjusted["btc"], 1e-9)
	assert.InDelta(t, 0.5/1.1, adjusted["sol"], 1e-9)
	assert.InDelta(t, 1.0, sumWeights(adjusted), 1e-9)
}

func TestApplyViews_NeutralViewIsNoOp(t *testing.T) {
	base := map[string]float64{"eth": 0.4, "btc": 0.6}

	adjusted, err := applyViews(base, map[string]float64{"eth": 0.5}, 0.1)
	require.NoError(t, err)

	assert.InDelta(t, 0.4, adjusted["eth"], 1e-9)
	assert.InDelta(t, 0.6, adjusted["btc"], 1e-9)
}

func TestApplyViews_UnknownSymbolIgnored(t *testing.T) {
	base := map[string]float64{"btc": 1.0}

	adjusted, err := applyViews(base, map[string]float64{"doge": 1.0}, 0.1)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, adjusted["btc"], 1e-9)
	_, present := adjusted["doge"]
	assert.False(t, present)
}

func TestApplyViews_BearishViewClampsAtZero(t *testing.T) {
	base := map[string]float64{"eth": 0.05, "btc": 0.95}

	adjusted, err := applyViews(base, map[string]float64{"eth": 0.0}, 0.1)
	require.NoError(t, err)

	// 0.05 - 0.1 clamps to 0, leaving btc with everything.
	assert.Zero(t, adjusted["eth"])
	assert.InDelta(t, 1.0, adjusted["btc"], 1e-9)
}

func TestPortfolioVolatility_SingleAssetEqualsOwnVol(t *testing.T) {
	profiles := map[string]assetProfile{
		"btc": {Symbol: "btc", Volatility: 0.6},
	}
	got := portfolioVolatility(map[string]float64{"btc": 1.0}, profiles, 0.3)
	assert.InDelta(t, 0.6, got, 1e-9)
}

func TestPortfolioVolatility_CorrelationLowersBlend(t *testing.T) {
	profiles := map[string]assetProfile{
		"btc": {Symbol: "btc", Volatility: 0.6},
		"eth": {Symbol: "eth", Volatility: 0.6},
	}
	weights := map[string]float64{"btc": 0.5, "eth": 0.5}

	blended := portfolioVolatility(weights, profiles, 0.3)
	// Diversification: below either asset's standalone volatility.
	assert.Less(t, blended, 0.6)
	// Analytical value: sqrt(0.25*0.36*2 + 2*0.25*0.3*0.36).
	want := math.Sqrt(0.5*0.36 + 0.5*0.3*0.36)
	assert.InDelta(t, want, blended, 1e-9)
}

func TestDriftPriorityTiers(t *testing.T) {
	tests := []struct {
		drift float64
		want  int
	}{
		{0.20, 1},
		{0.151, 1},
		{0.12, 2},
		{0.07, 3},
		{0.05, 4},
		{0.02, 4},
	}
	for _, tt := range tests {
		if got := driftPriority(tt.drift); got != tt.want {
			t.Errorf("driftPriority(%v) = %d, want %d", tt.drift, got, tt.want)
		}
	}
}

func TestClassifyStatus(t *testing.T) {
	current := map[string]float64{"btc": 0.5, "eth": 0.5}
	tests := []struct {
		name   string
		target map[string]float64
		want   string
	}{
		{"no drift", map[string]float64{"btc": 0.5, "eth": 0.5}, "BALANCED"},
		{"small drift", map[string]float64{"btc": 0.53, "eth": 0.47}, "BALANCED"},
		{"moderate drift", map[string]float64{"btc": 0.6, "eth": 0.4}, "NEEDS_REBALANCING"},
		{"large drift", map[string]float64{"btc": 0.9, "eth": 0.1}, "CRITICAL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyStatus(current, tt.target)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func sumWeights(weights map[string]float64) float64 {
	var sum float64
	for _, w := range weights {
		sum += w
	}
	return sum
}
