// Package domain holds the shared contracts between the valuation core and
// its external collaborators. It has no infrastructure dependencies.
package domain

import "context"

// Quote is a snapshot of a ticker's current market data. It is a tagged
// union: when Err is non-empty the quote is an error sentinel and every
// price field must be treated as unavailable. Callers branch on OK()
// rather than probing individual fields.
type Quote struct {
	Ticker        string  `json:"ticker" msgpack:"ticker"`
	CompanyName   string  `json:"company_name,omitempty" msgpack:"company_name"`
	LastPrice     float64 `json:"last_price" msgpack:"last_price"`
	PreviousClose float64 `json:"previous_close" msgpack:"previous_close"`
	Change        float64 `json:"change" msgpack:"change"`
	ChangePercent float64 `json:"change_percent" msgpack:"change_percent"`
	MarketTime    string  `json:"market_time,omitempty" msgpack:"market_time"`

	Err string `json:"error,omitempty" msgpack:"error"`
}

// OK reports whether the quote carries usable market data.
func (q Quote) OK() bool {
	return q.Err == ""
}

// ErrorQuote returns the error arm of the Quote union for the given ticker.
func ErrorQuote(ticker, msg string) Quote {
	return Quote{Ticker: ticker, Err: msg}
}

// DailyClose is one closing price in a daily series. Date is a naive
// calendar day formatted as YYYY-MM-DD; all timezone normalization happens
// at the provider boundary, never in the valuation core.
type DailyClose struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

// QuoteProvider supplies best-effort current quotes. Implementations never
// fail the caller: an unavailable quote is returned as the error arm of the
// Quote union.
type QuoteProvider interface {
	GetQuote(ctx context.Context, ticker string) Quote
}

// HistoricalPriceProvider supplies daily closing price series. An unknown or
// delisted ticker yields an empty series, not an error.
type HistoricalPriceProvider interface {
	GetDailyCloses(ctx context.Context, ticker, rng string) ([]DailyClose, error)
}
