package formulas

// DrawdownMetrics represents drawdown analysis results
type DrawdownMetrics struct {
	MaxDrawdown     float64 `json:"max_drawdown"`     // Worst peak-to-trough decline (0.25 = 25%)
	CurrentDrawdown float64 `json:"current_drawdown"` // Decline from peak at the end of the series
	DaysInDrawdown  int     `json:"days_in_drawdown"` // Observations since the peak
	PeakValue       float64 `json:"peak_value"`
	CurrentValue    float64 `json:"current_value"`
}

// MaxDrawdown calculates the maximum drawdown of a price series using running
// peak tracking. Drawdown at step i = (peak − price[i]) / peak; the result is
// the worst drawdown observed, always in [0, 1] for non-negative prices.
func MaxDrawdown(prices []float64) float64 {
	if len(prices) < 2 {
		return 0
	}

	maxDrawdown := 0.0
	peak := prices[0]
	for _, price := range prices {
		if price > peak {
			peak = price
		}
		if peak > 0 {
			dd := (peak - price) / peak
			if dd > maxDrawdown {
				maxDrawdown = dd
			}
		}
	}

	return maxDrawdown
}

// CalculateDrawdownMetrics calculates full drawdown metrics for a price
// series, including the current decline from peak and time spent in drawdown.
func CalculateDrawdownMetrics(prices []float64) *DrawdownMetrics {
	if len(prices) < 2 {
		return nil
	}

	maxDrawdown := 0.0
	peak := prices[0]
	peakIndex := 0
	currentValue := prices[len(prices)-1]

	for i, price := range prices {
		if price > peak {
			peak = price
			peakIndex = i
		}
		if peak > 0 {
			dd := (peak - price) / peak
			if dd > maxDrawdown {
				maxDrawdown = dd
			}
		}
	}

	currentDrawdown := 0.0
	if peak > 0 {
		currentDrawdown = (peak - currentValue) / peak
	}

	return &DrawdownMetrics{
		MaxDrawdown:     maxDrawdown,
		CurrentDrawdown: currentDrawdown,
		DaysInDrawdown:  len(prices) - 1 - peakIndex,
		PeakValue:       peak,
		CurrentValue:    currentValue,
	}
}
