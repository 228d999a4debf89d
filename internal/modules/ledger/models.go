// Package ledger implements the transaction ledger store: portfolios own
// symbols, symbols own an append-only list of buy/sell transactions.
package ledger

import "errors"

// TransactionType is the side of a ledger entry
type TransactionType string

const (
	Buy  TransactionType = "Buy"
	Sell TransactionType = "Sell"
)

// Valid reports whether t is a known transaction type
func (t TransactionType) Valid() bool {
	return t == Buy || t == Sell
}

// Portfolio is a named collection of symbols owned by a user
type Portfolio struct {
	ID        int64  `json:"portfolio_id"`
	UserID    int64  `json:"user_id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

// Symbol is a traded instrument inside a portfolio. Ticker is unique per
// portfolio; Sector defaults to "Unknown".
type Symbol struct {
	ID          int64  `json:"symbol_id"`
	PortfolioID int64  `json:"portfolio_id"`
	Ticker      string `json:"ticker"`
	Sector      string `json:"sector"`
}

// Transaction is one immutable ledger entry. Date is a naive calendar day
// (YYYY-MM-DD). Entries are never updated or deleted individually; they are
// only removed by cascade when their parent symbol/portfolio is deleted.
type Transaction struct {
	ID       int64           `json:"transaction_id"`
	SymbolID int64           `json:"symbol_id"`
	Type     TransactionType `json:"transaction_type"`
	Shares   float64         `json:"shares"`
	Price    float64         `json:"price"`
	Fee      float64         `json:"fee"`
	Date     string          `json:"transaction_date"`
}

// SymbolWithTransactions is a symbol hydrated with its full ledger,
// ordered by (date, id) for replay.
type SymbolWithTransactions struct {
	Symbol
	Transactions []Transaction `json:"transactions"`
}

// Boundary errors. Handlers translate these to HTTP statuses; nothing in
// this package panics on bad input.
var (
	ErrNotFound           = errors.New("ledger: not found")
	ErrDuplicateTicker    = errors.New("ledger: ticker already exists in portfolio")
	ErrUnknownSymbol      = errors.New("ledger: unknown symbol")
	ErrInvalidTransaction = errors.New("ledger: invalid transaction")
)
