package allocation

import (
	"time"

	"github.com/mkarag/riskfolio/internal/domain"
)

// RebalanceRequest carries the holding set and optimization parameters.
// UserViews maps a symbol to a confidence in [0, 1], 0.5 meaning neutral;
// a non-empty map switches the optimizer to the Black-Litterman adjustment.
type RebalanceRequest struct {
	Holdings      []domain.Holding   `json:"holdings"`
	RiskTolerance float64            `json:"risk_tolerance"`
	UserViews     map[string]float64 `json:"user_views,omitempty"`
}

// RebalancingAction is one discrete buy/sell needed to move the portfolio
// toward the target allocation.
type RebalancingAction struct {
	Symbol          string                `json:"symbol"`
	Direction       domain.TradeDirection `json:"direction"`
	QuantityChange  float64               `json:"quantity_change"`
	ValueChange     float64               `json:"value_change"`
	CurrentWeight   float64               `json:"current_weight"`
	TargetWeight    float64               `json:"target_weight"`
	TransactionCost float64               `json:"transaction_cost"`
	Priority        int                   `json:"priority"` // 1 = most urgent
}

// RebalanceReport is the allocation plan produced for one request.
type RebalanceReport struct {
	ReportID    string    `json:"report_id"`
	GeneratedAt time.Time `json:"generated_at"`

	CurrentAllocation map[string]float64  `json:"current_allocation"`
	TargetAllocation  map[string]float64  `json:"target_allocation"`
	Actions           []RebalancingAction `json:"recommended_actions"`

	CurrentRisk       float64 `json:"current_risk"` // annualized portfolio volatility
	TargetRisk        float64 `json:"target_risk"`
	CurrentReturn     float64 `json:"current_return"` // annualized expected return
	ExpectedReturn    float64 `json:"expected_return"`
	RiskReduction     float64 `json:"risk_reduction"`
	ReturnImprovement float64 `json:"return_improvement"`
	TargetSharpe      float64 `json:"target_sharpe"`

	TotalTransactionCost float64                   `json:"total_transaction_cost"`
	Method               domain.OptimizationMethod `json:"optimization_method"`
	Status               domain.PortfolioStatus    `json:"portfolio_status"`
}

// assetProfile bundles what the optimizer needs per asset.
type assetProfile struct {
	Symbol         string
	ExpectedReturn float64 // annualized
	Volatility     float64 // annualized, always > 0
}
