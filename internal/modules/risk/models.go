package risk

import (
	"time"

	"github.com/mkarag/riskfolio/internal/domain"
)

// Validation bounds for VaR requests.
const (
	MinConfidence = 0.5
	MaxConfidence = 0.999
	MinHorizon    = 1
	MaxHorizon    = 365
)

// ReportBasis discriminates a fully historical computation from one that fell
// back to parametric defaults for lack of data. Callers can always tell
// "computed with fallback" apart from both success and failure.
type ReportBasis string

const (
	BasisHistorical ReportBasis = "historical"
	BasisFallback   ReportBasis = "fallback"
)

// VaRRequest carries the holding set and parameters for one VaR computation.
type VaRRequest struct {
	Holdings        []domain.Holding `json:"holdings"`
	ConfidenceLevel float64          `json:"confidence_level"`
	TimeHorizonDays int              `json:"time_horizon_days"`
}

// VaRFigure is one loss estimate, absolute and as a fraction of portfolio value.
type VaRFigure struct {
	Amount  float64 `json:"amount"`
	Percent float64 `json:"percent"`
}

// AssetStats are the per-asset statistics included in a report.
type AssetStats struct {
	Volatility  float64 `json:"volatility"`  // annualized
	Beta        float64 `json:"beta"`        // vs. the value-weighted portfolio
	Correlation float64 `json:"correlation"` // vs. the value-weighted portfolio
	MaxDrawdown float64 `json:"max_drawdown"`
}

// VaRReport is the full risk report for one request. Reports are computed
// fresh per request and never persisted.
type VaRReport struct {
	ReportID        string    `json:"report_id"`
	GeneratedAt     time.Time `json:"generated_at"`
	PortfolioValue  float64   `json:"portfolio_value"`
	ConfidenceLevel float64   `json:"confidence_level"`
	TimeHorizonDays int       `json:"time_horizon_days"`

	RiskLevel domain.RiskLevel `json:"risk_level"`
	Basis     ReportBasis      `json:"basis"`

	HistoricalVaR  VaRFigure `json:"historical_var"`
	ParametricVaR  VaRFigure `json:"parametric_var"`
	MonteCarloVaR  VaRFigure `json:"monte_carlo_var"`
	ConditionalVaR VaRFigure `json:"conditional_var"`

	Volatility     float64  `json:"volatility"` // annualized
	Skewness       float64  `json:"skewness"`
	Kurtosis       float64  `json:"kurtosis"`
	ExpectedReturn float64  `json:"expected_return"`        // annualized
	SharpeRatio    *float64 `json:"sharpe_ratio,omitempty"` // nil when history is too thin

	AssetWeights map[string]float64    `json:"asset_weights"`
	AssetReturns map[string]float64    `json:"asset_returns"` // annualized mean returns
	AssetStats   map[string]AssetStats `json:"asset_stats"`
}

func validateParams(confidence float64, horizonDays int) error {
	if confidence < MinConfidence || confidence > MaxConfidence {
		return domain.InvalidParameterf("confidence level must be in [%.1f, %.3f], got %f",
			MinConfidence, MaxConfidence, confidence)
	}
	if horizonDays < MinHorizon || horizonDays > MaxHorizon {
		return domain.InvalidParameterf("time horizon must be in [%d, %d] days, got %d",
			MinHorizon, MaxHorizon, horizonDays)
	}
	return nil
}
