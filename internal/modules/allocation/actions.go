package allocation

import (
	"math"
	"sort"

	"github.com/mkarag/riskfolio/internal/domain"
	"github.com/mkarag/riskfolio/internal/modules/portfolio"
)

const (
	// Drift below this is noise; no action is emitted.
	actionDriftThreshold = 0.01

	priorityTier1Drift = 0.15
	priorityTier2Drift = 0.10
	priorityTier3Drift = 0.05
)

// generateActions turns the gap between the current snapshot and the target
// allocation into concrete trades. Actions come back sorted most urgent
// first; equal priorities order by drift descending, then symbol.
func generateActions(snap *portfolio.Snapshot, target map[string]float64, costRate float64) []RebalancingAction {
	actions := make([]RebalancingAction, 0, len(snap.Symbols))
	for _, sym := range snap.Symbols {
		current := snap.Weights[sym]
		desired := target[sym]
		drift := math.Abs(desired - current)
		if drift < actionDriftThreshold {
			continue
		}

		direction := domain.DirectionBuy
		if desired < current {
			direction = domain.DirectionSell
		}
		valueChange := drift * snap.TotalValue
		price := snap.PriceOf(sym)
		var quantityChange float64
		if price > 0 {
			quantityChange = valueChange / price
		}

		actions = append(actions, RebalancingAction{
			Symbol:          sym,
			Direction:       direction,
			QuantityChange:  quantityChange,
			ValueChange:     valueChange,
			CurrentWeight:   current,
			TargetWeight:    desired,
			TransactionCost: valueChange * costRate,
			Priority:        driftPriority(drift),
		})
	}

	sort.Slice(actions, func(i, j int) bool {
		if actions[i].Priority != actions[j].Priority {
			return actions[i].Priority < actions[j].Priority
		}
		di := math.Abs(actions[i].TargetWeight - actions[i].CurrentWeight)
		dj := math.Abs(actions[j].TargetWeight - actions[j].CurrentWeight)
		if di != dj {
			return di > dj
		}
		return actions[i].Symbol < actions[j].Symbol
	})
	return actions
}

func driftPriority(drift float64) int {
	switch {
	case drift > priorityTier1Drift:
		return 1
	case drift > priorityTier2Drift:
		return 2
	case drift > priorityTier3Drift:
		return 3
	default:
		return 4
	}
}

// classifyStatus grades total drift. Turnover is half the sum of absolute
// weight differences, so a portfolio needing 10% of its value moved reads
// as 0.10.
func classifyStatus(current, target map[string]float64) domain.PortfolioStatus {
	var sum float64
	seen := make(map[string]bool, len(current)+len(target))
	for sym, w := range current {
		sum += math.Abs(w - target[sym])
		seen[sym] = true
	}
	for sym, w := range target {
		if !seen[sym] {
			sum += w
		}
	}
	turnover := sum / 2
	switch {
	case turnover < 0.05:
		return domain.StatusBalanced
	case turnover < 0.20:
		return domain.StatusNeedsRebalancing
	default:
		return domain.StatusCritical
	}
}
