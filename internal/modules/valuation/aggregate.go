package valuation

// PortfolioMetrics is the roll-up of all symbol metrics in a portfolio
type PortfolioMetrics struct {
	TotalInvestment   float64 `json:"total_investment"`
	TotalCurrentValue float64 `json:"total_current_value"`

	// ActiveInvestment is the cost basis of currently held shares only.
	// Closed positions have no cost basis and are excluded.
	ActiveInvestment float64 `json:"active_investment"`

	TotalRealisedPL          float64 `json:"total_realised_pl"`
	TotalUnrealisedPL        float64 `json:"total_unrealised_pl"`
	TotalUnrealisedPLPercent float64 `json:"total_unrealised_pl_percent"`
}

// Exposure is one sector's share of the portfolio's current value
type Exposure struct {
	Value      float64 `json:"value"`
	Percentage float64 `json:"percentage"`
}

// Aggregate rolls symbol metrics into portfolio totals. Closed positions
// contribute their realised P&L and investment history but no current value.
func Aggregate(metrics []SymbolMetrics) PortfolioMetrics {
	var p PortfolioMetrics

	for _, m := range metrics {
		p.TotalInvestment += m.TotalInvestment
		p.TotalCurrentValue += m.CurrentValue
		p.TotalRealisedPL += m.RealisedPL

		if m.CurrentShares > 0 {
			p.ActiveInvestment += m.CurrentShares * m.AvgCost
		}
	}

	p.TotalUnrealisedPL = p.TotalCurrentValue - p.ActiveInvestment
	if p.ActiveInvestment > 0 {
		p.TotalUnrealisedPLPercent = p.TotalUnrealisedPL / p.ActiveInvestment * 100
	}

	return p
}

// SectorExposure groups current value by sector. Only symbols with positive
// current value contribute weight; when the total is zero the result is
// empty rather than dividing by zero. Percentages over the returned sectors
// sum to 100 within float tolerance.
func SectorExposure(metrics []SymbolMetrics) map[string]Exposure {
	values := make(map[string]float64)
	var total float64

	for _, m := range metrics {
		if m.CurrentValue <= 0 {
			continue
		}
		sector := m.Sector
		if sector == "" {
			sector = "Unknown"
		}
		values[sector] += m.CurrentValue
		total += m.CurrentValue
	}

	result := make(map[string]Exposure, len(values))
	if total == 0 {
		return result
	}

	for sector, value := range values {
		result[sector] = Exposure{
			Value:      value,
			Percentage: value / total * 100,
		}
	}
	return result
}
