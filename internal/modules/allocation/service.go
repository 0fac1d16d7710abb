package allocation

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mkarag/riskfolio/internal/domain"
	"github.com/mkarag/riskfolio/internal/modules/history"
	"github.com/mkarag/riskfolio/internal/modules/portfolio"
	"github.com/mkarag/riskfolio/pkg/formulas"
)

// HistorySource supplies per-asset price histories. Satisfied by the history
// provider; stubbed in tests.
type HistorySource interface {
	GetAssetHistories(ctx context.Context, symbols []string, days int) (map[string]*history.AssetHistory, error)
}

// Params groups the tunables the optimizer reads from configuration.
type Params struct {
	HistoryDays        int
	RiskFreeRate       float64
	TransactionCost    float64
	MaxAssetWeight     float64
	AssumedCorrelation float64
	MaxViewAdjustment  float64
}

// Service produces rebalancing plans.
type Service struct {
	histories HistorySource
	params    Params
	log       zerolog.Logger
}

// NewService creates a new allocation service.
func NewService(histories HistorySource, params Params, log zerolog.Logger) *Service {
	if params.HistoryDays < history.MinDays || params.HistoryDays > history.MaxDays {
		params.HistoryDays = 180
	}
	return &Service{
		histories: histories,
		params:    params,
		log:       log.With().Str("service", "allocation").Logger(),
	}
}

// Plan validates the request, optimizes a target allocation and derives the
// trades needed to reach it.
func (s *Service) Plan(ctx context.Context, req RebalanceRequest) (*RebalanceReport, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	snap, err := portfolio.NewSnapshot(req.Holdings)
	if err != nil {
		return nil, err
	}

	histories, err := s.histories.GetAssetHistories(ctx, snap.Symbols, s.params.HistoryDays)
	if err != nil {
		return nil, fmt.Errorf("failed to load asset histories: %w", err)
	}

	profiles := buildProfiles(snap.Symbols, histories)
	profileList := make([]assetProfile, 0, len(profiles))
	for _, sym := range snap.Symbols {
		profileList = append(profileList, profiles[sym])
	}

	currentRisk := portfolioVolatility(snap.Weights, profiles, s.params.AssumedCorrelation)
	currentReturn := portfolioReturn(snap.Weights, profiles)

	target, err := greedyMVO(profileList, req.RiskTolerance, s.params.MaxAssetWeight)
	if err != nil {
		return nil, err
	}
	method := domain.MethodMVO
	if len(req.UserViews) > 0 {
		target, err = applyViews(target, normalizeViewKeys(req.UserViews), s.params.MaxViewAdjustment)
		if err != nil {
			return nil, err
		}
		method = domain.MethodBlackLitterman
	}

	targetRisk := portfolioVolatility(target, profiles, s.params.AssumedCorrelation)
	targetReturn := portfolioReturn(target, profiles)

	actions := generateActions(snap, target, s.params.TransactionCost)
	var totalCost float64
	for _, a := range actions {
		totalCost += a.TransactionCost
	}

	sharpe := formulas.SharpeFromMoments(targetReturn, targetRisk, s.params.RiskFreeRate)

	report := &RebalanceReport{
		ReportID:             uuid.NewString(),
		GeneratedAt:          time.Now().UTC(),
		CurrentAllocation:    snap.Weights,
		TargetAllocation:     target,
		Actions:              actions,
		CurrentRisk:          currentRisk,
		TargetRisk:           targetRisk,
		CurrentReturn:        currentReturn,
		ExpectedReturn:       targetReturn,
		RiskReduction:        currentRisk - targetRisk,
		ReturnImprovement:    targetReturn - currentReturn,
		TargetSharpe:         sharpe,
		TotalTransactionCost: totalCost,
		Method:               method,
		Status:               classifyStatus(snap.Weights, target),
	}

	s.log.Info().
		Str("report_id", report.ReportID).
		Str("method", string(method)).
		Str("status", string(report.Status)).
		Int("actions", len(actions)).
		Float64("target_risk", targetRisk).
		Msg("rebalance plan generated")

	return report, nil
}

func validateRequest(req RebalanceRequest) error {
	if math.IsNaN(req.RiskTolerance) || req.RiskTolerance <= 0 || req.RiskTolerance > 1 {
		return domain.InvalidParameterf("risk tolerance %.4f outside (0, 1]", req.RiskTolerance)
	}
	for sym, view := range req.UserViews {
		if math.IsNaN(view) || view < 0 || view > 1 {
			return domain.InvalidParameterf("view %.4f for %q outside [0, 1]", view, sym)
		}
	}
	return nil
}

func normalizeViewKeys(views map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(views))
	for sym, view := range views {
		out[strings.ToLower(strings.TrimSpace(sym))] = view
	}
	return out
}

// buildProfiles derives per-asset volatility and expected return, with
// neutral defaults when an asset lacks usable history.
func buildProfiles(symbols []string, histories map[string]*history.AssetHistory) map[string]assetProfile {
	profiles := make(map[string]assetProfile, len(symbols))
	for _, sym := range symbols {
		h := histories[sym]
		vol := formulas.DefaultVolatility
		if h != nil && len(h.Returns) >= 2 {
			if v := formulas.AnnualizedVolatility(h.Returns); v > 0 {
				vol = v
			}
		}
		profiles[sym] = assetProfile{
			Symbol:         sym,
			ExpectedReturn: expectedReturn(sym, h),
			Volatility:     vol,
		}
	}
	return profiles
}
