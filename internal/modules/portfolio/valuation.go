package portfolio

import (
	"strings"

	"github.com/mkarag/riskfolio/internal/domain"
)

// Snapshot is a validated view of a holding set: total market value and the
// value weight of every asset. Weights always sum to 1 within tolerance; a
// holding set that cannot produce a valid weight map fails explicitly.
type Snapshot struct {
	Holdings   []domain.Holding
	TotalValue float64
	Weights    map[string]float64 // normalized symbol -> value weight
	Symbols    []string           // normalized, input order, deduplicated
}

// NewSnapshot validates the holdings, recomputes each InitialInvestment and
// derives the value-weight map. Duplicate symbols merge by value.
func NewSnapshot(holdings []domain.Holding) (*Snapshot, error) {
	if len(holdings) == 0 {
		return nil, domain.NoDataf("holding set is empty")
	}

	snap := &Snapshot{
		Holdings: make([]domain.Holding, len(holdings)),
		Weights:  make(map[string]float64),
	}

	values := make(map[string]float64)
	for i := range holdings {
		h := holdings[i]
		if err := h.Validate(); err != nil {
			return nil, err
		}
		snap.Holdings[i] = h

		sym := strings.ToLower(strings.TrimSpace(h.Symbol))
		if _, seen := values[sym]; !seen {
			snap.Symbols = append(snap.Symbols, sym)
		}
		values[sym] += h.MarketValue()
		snap.TotalValue += h.MarketValue()
	}

	if snap.TotalValue <= 0 {
		return nil, domain.NoDataf("portfolio has zero market value")
	}

	for sym, value := range values {
		snap.Weights[sym] = value / snap.TotalValue
	}

	return snap, nil
}

// Value returns the merged market value for a normalized symbol.
func (s *Snapshot) Value(symbol string) float64 {
	return s.Weights[symbol] * s.TotalValue
}

// PriceOf returns the current price of the first holding matching symbol.
func (s *Snapshot) PriceOf(symbol string) float64 {
	for _, h := range s.Holdings {
		if strings.EqualFold(strings.TrimSpace(h.Symbol), symbol) {
			return h.CurrentPrice
		}
	}
	return 0
}
