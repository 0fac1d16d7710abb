package risk

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mkarag/riskfolio/internal/domain"
	"github.com/mkarag/riskfolio/internal/modules/history"
	"github.com/mkarag/riskfolio/internal/modules/portfolio"
	"github.com/mkarag/riskfolio/pkg/formulas"
)

// Risk level thresholds on the horizon-scaled historical VaR as a fraction of
// portfolio value.
const (
	riskLowThreshold    = 0.03
	riskMediumThreshold = 0.08
)

// HistorySource supplies per-asset price histories. Satisfied by the history
// provider; stubbed in tests.
type HistorySource interface {
	GetAssetHistories(ctx context.Context, symbols []string, days int) (map[string]*history.AssetHistory, error)
}

// Service computes Value-at-Risk reports. Stateless per invocation apart
// from the shared price history source.
type Service struct {
	histories       HistorySource
	historyDays     int
	monteCarloPaths int
	riskFreeRate    float64
	log             zerolog.Logger
}

// NewService creates a new VaR service.
func NewService(histories HistorySource, historyDays, monteCarloPaths int, riskFreeRate float64, log zerolog.Logger) *Service {
	if historyDays < history.MinDays || historyDays > history.MaxDays {
		historyDays = 180
	}
	return &Service{
		histories:       histories,
		historyDays:     historyDays,
		monteCarloPaths: monteCarloPaths,
		riskFreeRate:    riskFreeRate,
		log:             log.With().Str("service", "risk").Logger(),
	}
}

// ComputeVaR estimates portfolio loss under four methodologies. Parameter
// validation failures reject the request before any computation; missing
// history degrades to the documented parametric fallback instead of failing.
func (s *Service) ComputeVaR(ctx context.Context, req VaRRequest) (*VaRReport, error) {
	if err := validateParams(req.ConfidenceLevel, req.TimeHorizonDays); err != nil {
		return nil, err
	}

	snap, err := portfolio.NewSnapshot(req.Holdings)
	if err != nil {
		return nil, err
	}

	histories, err := s.histories.GetAssetHistories(ctx, snap.Symbols, s.historyDays)
	if err != nil {
		return nil, fmt.Errorf("failed to load asset histories: %w", err)
	}

	returnsBySymbol := make(map[string][]float64, len(histories))
	for sym, h := range histories {
		returnsBySymbol[sym] = h.Returns
	}
	combined := formulas.CombineReturns(returnsBySymbol, snap.Weights)

	report := &VaRReport{
		ReportID:        uuid.NewString(),
		GeneratedAt:     time.Now().UTC(),
		PortfolioValue:  snap.TotalValue,
		ConfidenceLevel: req.ConfidenceLevel,
		TimeHorizonDays: req.TimeHorizonDays,
		Basis:           BasisHistorical,
		AssetWeights:    snap.Weights,
		AssetReturns:    make(map[string]float64, len(snap.Symbols)),
		AssetStats:      make(map[string]AssetStats, len(snap.Symbols)),
	}

	var mean, dailyStdDev, skew, kurt float64
	if len(combined) >= 2 {
		mean = formulas.Mean(combined)
		dailyStdDev = formulas.StdDev(combined)
		skew = formulas.Skewness(combined)
		kurt = formulas.Kurtosis(combined)
	}

	// Insufficient usable history: every estimate degrades to the parametric
	// form under the default volatility band, and the report says so.
	if len(combined) < 2 || dailyStdDev == 0 {
		report.Basis = BasisFallback
		dailyStdDev = formulas.DefaultVolatility / math.Sqrt(formulas.TradingDaysPerYear)
		mean, skew, kurt = 0, 0, 0
	}

	histLoss, cvarLoss := formulas.TailLoss(combined, req.ConfidenceLevel)
	paraLoss := formulas.ParametricVaR(dailyStdDev, req.ConfidenceLevel)
	mcLoss, mcCVaR := formulas.MonteCarloVaR(
		mean, dailyStdDev, skew, kurt,
		s.monteCarloPaths, simulationSeed(snap.Symbols, req.ConfidenceLevel, req.TimeHorizonDays),
		req.ConfidenceLevel,
	)

	if report.Basis == BasisFallback {
		histLoss = paraLoss
		mcLoss = paraLoss
		cvarLoss = mcCVaR
	}
	// Expected shortfall dominates VaR for the same confidence by definition.
	if cvarLoss < histLoss {
		cvarLoss = histLoss
	}

	report.HistoricalVaR = s.figure(histLoss, snap.TotalValue, req.TimeHorizonDays)
	report.ParametricVaR = s.figure(paraLoss, snap.TotalValue, req.TimeHorizonDays)
	report.MonteCarloVaR = s.figure(mcLoss, snap.TotalValue, req.TimeHorizonDays)
	report.ConditionalVaR = s.figure(cvarLoss, snap.TotalValue, req.TimeHorizonDays)

	report.Volatility = dailyStdDev * math.Sqrt(formulas.TradingDaysPerYear)
	report.Skewness = skew
	report.Kurtosis = kurt
	report.ExpectedReturn = mean * formulas.TradingDaysPerYear
	report.SharpeRatio = formulas.SharpeRatio(combined, s.riskFreeRate, formulas.TradingDaysPerYear)
	report.RiskLevel = classifyRisk(report.HistoricalVaR.Percent)

	for _, sym := range snap.Symbols {
		report.AssetStats[sym] = assetStats(histories[sym], combined)
		report.AssetReturns[sym] = annualizedMeanReturn(histories[sym])
	}

	s.log.Info().
		Str("report_id", report.ReportID).
		Float64("portfolio_value", report.PortfolioValue).
		Float64("historical_var", report.HistoricalVaR.Amount).
		Str("risk_level", string(report.RiskLevel)).
		Str("basis", string(report.Basis)).
		Msg("Computed VaR report")

	return report, nil
}

// figure scales a one-day loss fraction to the horizon and caps it at the
// portfolio value; a long-only book cannot lose more than it holds.
func (s *Service) figure(lossFraction, portfolioValue float64, horizonDays int) VaRFigure {
	amount := formulas.ScaleLoss(lossFraction, portfolioValue, horizonDays)
	if amount > portfolioValue {
		amount = portfolioValue
	}
	return VaRFigure{
		Amount:  amount,
		Percent: amount / portfolioValue,
	}
}

func classifyRisk(varPercent float64) domain.RiskLevel {
	switch {
	case varPercent < riskLowThreshold:
		return domain.RiskLow
	case varPercent < riskMediumThreshold:
		return domain.RiskMedium
	default:
		return domain.RiskHigh
	}
}

func assetStats(h *history.AssetHistory, portfolioReturns []float64) AssetStats {
	if h == nil || len(h.Returns) < 2 {
		return AssetStats{
			Volatility:  formulas.DefaultVolatility,
			Beta:        formulas.DefaultBeta,
			MaxDrawdown: formulas.DefaultMaxDrawdown,
		}
	}

	// Align to the combined series length so beta compares like with like.
	aligned := h.Returns
	if len(aligned) > len(portfolioReturns) {
		aligned = aligned[len(aligned)-len(portfolioReturns):]
	}

	return AssetStats{
		Volatility:  formulas.AnnualizedVolatility(h.Returns),
		Beta:        formulas.Beta(aligned, portfolioReturns),
		Correlation: formulas.Correlation(aligned, portfolioReturns),
		MaxDrawdown: formulas.MaxDrawdown(h.Prices),
	}
}

func annualizedMeanReturn(h *history.AssetHistory) float64 {
	if h == nil || len(h.Returns) == 0 {
		return 0
	}
	return formulas.Mean(h.Returns) * formulas.TradingDaysPerYear
}

// simulationSeed derives a deterministic Monte Carlo seed from the request
// identity, so identical requests reproduce identical estimates.
func simulationSeed(symbols []string, confidence float64, horizonDays int) int64 {
	sorted := make([]string, len(symbols))
	copy(sorted, symbols)
	sort.Strings(sorted)

	h := fnv.New64a()
	h.Write([]byte(strings.Join(sorted, ",")))
	h.Write([]byte(fmt.Sprintf("|%.4f|%d", confidence, horizonDays)))
	return int64(h.Sum64())
}
