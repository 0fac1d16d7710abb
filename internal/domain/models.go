package domain

import (
	"math"
	"strings"
	"time"
)

// Holding is a single position in the portfolio as supplied by the caller.
// InitialInvestment is always recomputed from quantity and purchase price,
// never trusted from input.
type Holding struct {
	Symbol            string  `json:"symbol"`
	Quantity          float64 `json:"quantity"`
	CurrentPrice      float64 `json:"current_price"`
	PurchasePrice     float64 `json:"purchase_price"`
	InitialInvestment float64 `json:"initial_investment"`
}

// Validate checks the holding fields and recomputes InitialInvestment.
func (h *Holding) Validate() error {
	if strings.TrimSpace(h.Symbol) == "" {
		return InvalidParameterf("holding symbol must not be empty")
	}
	if h.Quantity < 0 || math.IsNaN(h.Quantity) || math.IsInf(h.Quantity, 0) {
		return InvalidParameterf("holding %s: quantity must be >= 0", h.Symbol)
	}
	if h.CurrentPrice <= 0 || math.IsNaN(h.CurrentPrice) || math.IsInf(h.CurrentPrice, 0) {
		return InvalidParameterf("holding %s: current price must be > 0", h.Symbol)
	}
	if h.PurchasePrice <= 0 || math.IsNaN(h.PurchasePrice) || math.IsInf(h.PurchasePrice, 0) {
		return InvalidParameterf("holding %s: purchase price must be > 0", h.Symbol)
	}
	h.InitialInvestment = h.Quantity * h.PurchasePrice
	return nil
}

// MarketValue returns quantity × current price.
func (h Holding) MarketValue() float64 {
	return h.Quantity * h.CurrentPrice
}

// PricePoint is a single (timestamp, price) observation in a daily series.
type PricePoint struct {
	TimestampMillis int64   `json:"timestamp"`
	Price           float64 `json:"price"`
}

// SeriesBasis discriminates how a price series was obtained, so callers can
// tell real market data apart from the deterministic synthetic fallback.
type SeriesBasis string

const (
	BasisMarket    SeriesBasis = "market"
	BasisStore     SeriesBasis = "store"
	BasisSynthetic SeriesBasis = "synthetic"
)

// PriceSeries is an ordered (ascending by time) daily price history for a
// symbol over a requested number of days.
type PriceSeries struct {
	Symbol        string       `json:"symbol"`
	RequestedDays int          `json:"requested_days"`
	Points        []PricePoint `json:"points"`
	Basis         SeriesBasis  `json:"basis"`
	FetchedAt     time.Time    `json:"fetched_at"`
}

// Prices returns the raw price values in time order.
func (s *PriceSeries) Prices() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Price
	}
	return out
}

// LastPrice returns the most recent price, or 0 for an empty series.
func (s *PriceSeries) LastPrice() float64 {
	if len(s.Points) == 0 {
		return 0
	}
	return s.Points[len(s.Points)-1].Price
}

// Clone returns a deep copy. The provider hands out clones so callers can
// never mutate cached data.
func (s *PriceSeries) Clone() *PriceSeries {
	cp := *s
	cp.Points = make([]PricePoint, len(s.Points))
	copy(cp.Points, s.Points)
	return &cp
}

// RiskLevel is a coarse tag derived from the VaR-to-value ratio.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// PortfolioStatus is a coarse tag derived from aggregate allocation drift.
type PortfolioStatus string

const (
	StatusBalanced         PortfolioStatus = "BALANCED"
	StatusNeedsRebalancing PortfolioStatus = "NEEDS_REBALANCING"
	StatusCritical         PortfolioStatus = "CRITICAL"
)

// OptimizationMethod tags which allocation path produced a target weight map.
type OptimizationMethod string

const (
	MethodMVO            OptimizationMethod = "MVO"
	MethodBlackLitterman OptimizationMethod = "BLACK_LITTERMAN"
)

// TradeDirection is the side of a rebalancing action.
type TradeDirection string

const (
	DirectionBuy  TradeDirection = "BUY"
	DirectionSell TradeDirection = "SELL"
)
