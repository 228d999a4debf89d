// Package history reconstructs a portfolio's historical value curve by
// replaying the transaction ledger against daily closing price series.
//
// The reconstruction is an approximation by design: share-count changes
// take effect at trading-day granularity (the first trading day on or after
// the transaction date), and each day's closing price values the whole day.
package history

import (
	"math"
	"sort"

	"github.com/mgalanis/folio/internal/domain"
	"github.com/mgalanis/folio/internal/modules/ledger"
)

// Position is one symbol's ledger, keyed by ticker
type Position struct {
	Ticker       string
	Transactions []ledger.Transaction
}

// ValuePoint is the portfolio's total value on one trading day
type ValuePoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// Reconstruct replays each position's transactions against that ticker's
// daily close series and sums the per-day values into a portfolio curve.
//
// Each transaction steps the share count on the first trading day >= its
// date within the symbol's own price index; transactions dated after the
// last available trading day never take effect. Days missing from a
// symbol's index contribute 0 for that symbol. Empty input yields an
// empty, non-nil series.
func Reconstruct(positions []Position, closes map[string][]domain.DailyClose) []ValuePoint {
	totals := make(map[string]float64)

	for _, pos := range positions {
		series := closes[pos.Ticker]
		if len(series) == 0 {
			continue
		}

		// Dates are naive YYYY-MM-DD strings, so lexicographic order is
		// chronological order.
		sorted := make([]domain.DailyClose, len(series))
		copy(sorted, series)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date < sorted[j].Date })

		deltas := make([]float64, len(sorted))
		for _, t := range pos.Transactions {
			if math.IsNaN(t.Shares) || math.IsInf(t.Shares, 0) || t.Shares <= 0 {
				continue
			}

			idx := sort.Search(len(sorted), func(i int) bool { return sorted[i].Date >= t.Date })
			if idx == len(sorted) {
				// Dated after the observed window; never realized here.
				continue
			}

			switch t.Type {
			case ledger.Buy:
				deltas[idx] += t.Shares
			case ledger.Sell:
				deltas[idx] -= t.Shares
			}
		}

		var shares float64
		for i, dc := range sorted {
			shares += deltas[i]
			totals[dc.Date] += shares * dc.Close
		}
	}

	dates := make([]string, 0, len(totals))
	for d := range totals {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	points := make([]ValuePoint, 0, len(dates))
	for _, d := range dates {
		points = append(points, ValuePoint{Date: d, Value: totals[d]})
	}
	return points
}
