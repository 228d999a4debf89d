// Package valuation is the pure valuation core: it turns a symbol's
// transaction ledger plus a quote snapshot into derived metrics, and rolls
// symbol metrics up into portfolio totals and sector exposure. Functions
// here are total over well-typed inputs: no I/O, no clock, no randomness,
// and no error returns. Degraded inputs produce zeroed fields and a
// per-row skip report instead.
package valuation

import (
	"fmt"
	"math"

	"github.com/mgalanis/folio/internal/domain"
	"github.com/mgalanis/folio/internal/modules/ledger"
)

// SkippedRow records a transaction that was excluded from a computation
type SkippedRow struct {
	TransactionID int64  `json:"transaction_id"`
	Reason        string `json:"reason"`
}

// SymbolMetrics is the derived state of one symbol, computed fresh on every
// request. Never persisted.
type SymbolMetrics struct {
	SymbolID int64  `json:"symbol_id"`
	Ticker   string `json:"ticker"`
	Sector   string `json:"sector"`

	TotalBoughtShares float64 `json:"total_bought_shares"`
	TotalSoldShares   float64 `json:"total_sold_shares"`
	CurrentShares     float64 `json:"current_shares"`
	TotalInvestment   float64 `json:"total_investment"`

	// AvgCost is the weighted-average buy price including fees. It is zero
	// for a fully exited position: with no shares held there is no
	// meaningful cost basis.
	AvgCost float64 `json:"avg_cost"`

	RealisedPL          float64 `json:"realised_pl"`
	CurrentPrice        float64 `json:"current_price"`
	CurrentValue        float64 `json:"current_value"`
	UnrealisedPL        float64 `json:"unrealised_pl"`
	UnrealisedPLPercent float64 `json:"unrealised_pl_percent"`

	DayChange        float64 `json:"day_change"`
	DayChangePercent float64 `json:"day_change_percent"`

	QuoteOK    bool         `json:"quote_ok"`
	QuoteError string       `json:"quote_error,omitempty"`
	Skipped    []SkippedRow `json:"skipped_rows,omitempty"`
}

// Compute derives SymbolMetrics from a symbol's ledger and a quote snapshot.
//
// Sells are costed at the weighted-average buy price over the symbol's
// entire buy history, recomputed at query time. This is deliberately not
// FIFO/LIFO: realised P&L for an old sell can change when later buys move
// the average.
func Compute(sym ledger.Symbol, txns []ledger.Transaction, quote domain.Quote) SymbolMetrics {
	m := SymbolMetrics{
		SymbolID: sym.ID,
		Ticker:   sym.Ticker,
		Sector:   sym.Sector,
		QuoteOK:  quote.OK(),
	}
	if !quote.OK() {
		m.QuoteError = quote.Err
	}

	var (
		totalShares     float64 // shares bought
		totalInvestment float64 // buy cost including fees
		totalSoldShares float64
		totalSoldAmount float64 // sell proceeds net of fees
		sold            bool
	)

	for _, t := range txns {
		if reason := badRow(t); reason != "" {
			m.Skipped = append(m.Skipped, SkippedRow{TransactionID: t.ID, Reason: reason})
			continue
		}

		switch t.Type {
		case ledger.Buy:
			totalShares += t.Shares
			totalInvestment += t.Shares*t.Price + t.Fee
		case ledger.Sell:
			totalSoldShares += t.Shares
			totalSoldAmount += t.Shares*t.Price - t.Fee
			sold = true
		default:
			m.Skipped = append(m.Skipped, SkippedRow{TransactionID: t.ID, Reason: fmt.Sprintf("unknown type %q", t.Type)})
		}
	}

	m.TotalBoughtShares = totalShares
	m.TotalSoldShares = totalSoldShares
	m.TotalInvestment = totalInvestment

	// Oversell is tolerated arithmetically but clamped for display: the
	// share count shown is never negative even on an inconsistent ledger.
	m.CurrentShares = math.Max(totalShares-totalSoldShares, 0)

	var avgCostPerShare float64
	if totalShares > 0 {
		avgCostPerShare = totalInvestment / totalShares
	}
	if m.CurrentShares > 0 {
		m.AvgCost = avgCostPerShare
	}

	if sold {
		m.RealisedPL = totalSoldAmount - totalSoldShares*avgCostPerShare
	}

	if quote.OK() {
		m.CurrentPrice = quote.LastPrice
		m.DayChange = quote.Change
		m.DayChangePercent = quote.ChangePercent
	}

	m.CurrentValue = m.CurrentShares * m.CurrentPrice
	m.UnrealisedPL = m.CurrentValue - m.CurrentShares*m.AvgCost

	if basis := m.CurrentShares * m.AvgCost; basis > 0 {
		m.UnrealisedPLPercent = m.UnrealisedPL / basis * 100
	}

	return m
}

// badRow reports why a transaction must be skipped, or "" when it is usable.
// The store validates on entry; this guards replays of ledgers written by
// older versions or imported from elsewhere.
func badRow(t ledger.Transaction) string {
	switch {
	case math.IsNaN(t.Shares) || math.IsInf(t.Shares, 0):
		return "shares is not a number"
	case math.IsNaN(t.Price) || math.IsInf(t.Price, 0):
		return "price is not a number"
	case math.IsNaN(t.Fee) || math.IsInf(t.Fee, 0):
		return "fee is not a number"
	case t.Shares <= 0:
		return "shares must be positive"
	case t.Price < 0:
		return "price must not be negative"
	case t.Fee < 0:
		return "fee must not be negative"
	}
	return ""
}
