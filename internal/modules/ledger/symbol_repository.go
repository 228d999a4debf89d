package ledger

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// SymbolRepository handles symbol database operations
type SymbolRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewSymbolRepository creates a new symbol repository
func NewSymbolRepository(db *sql.DB, log zerolog.Logger) *SymbolRepository {
	return &SymbolRepository{
		db:  db,
		log: log.With().Str("repo", "symbol").Logger(),
	}
}

// Add inserts a symbol into the portfolio. Tickers are stored uppercased
// and are unique per portfolio; ErrDuplicateTicker is returned on conflict.
func (r *SymbolRepository) Add(portfolioID int64, ticker, sector string) (int64, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return 0, fmt.Errorf("%w: empty ticker", ErrInvalidTransaction)
	}
	if sector = strings.TrimSpace(sector); sector == "" {
		sector = "Unknown"
	}

	var existing int64
	err := r.db.QueryRow(
		`SELECT symbol_id FROM symbols WHERE portfolio_id = ? AND ticker = ?`,
		portfolioID, ticker,
	).Scan(&existing)
	if err == nil {
		return 0, ErrDuplicateTicker
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("failed to check for existing ticker: %w", err)
	}

	res, err := r.db.Exec(
		`INSERT INTO symbols (portfolio_id, ticker, sector) VALUES (?, ?, ?)`,
		portfolioID, ticker, sector,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to add symbol: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get symbol id: %w", err)
	}
	return id, nil
}

// GetByPortfolio returns all symbols in the portfolio ordered by ticker
func (r *SymbolRepository) GetByPortfolio(portfolioID int64) ([]Symbol, error) {
	rows, err := r.db.Query(
		`SELECT symbol_id, portfolio_id, ticker, sector
		 FROM symbols WHERE portfolio_id = ? ORDER BY ticker`,
		portfolioID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query symbols: %w", err)
	}
	defer rows.Close()

	var symbols []Symbol
	for rows.Next() {
		var s Symbol
		if err := rows.Scan(&s.ID, &s.PortfolioID, &s.Ticker, &s.Sector); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating symbols: %w", err)
	}
	return symbols, nil
}

// GetByID returns a single symbol, ErrNotFound when missing
func (r *SymbolRepository) GetByID(symbolID int64) (*Symbol, error) {
	var s Symbol
	err := r.db.QueryRow(
		`SELECT symbol_id, portfolio_id, ticker, sector
		 FROM symbols WHERE symbol_id = ?`,
		symbolID,
	).Scan(&s.ID, &s.PortfolioID, &s.Ticker, &s.Sector)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query symbol: %w", err)
	}
	return &s, nil
}

// DistinctTickers returns every distinct ticker across all portfolios.
// Used by the quote refresh job to warm the cache in bulk.
func (r *SymbolRepository) DistinctTickers() ([]string, error) {
	rows, err := r.db.Query(`SELECT DISTINCT ticker FROM symbols ORDER BY ticker`)
	if err != nil {
		return nil, fmt.Errorf("failed to query distinct tickers: %w", err)
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan ticker: %w", err)
		}
		tickers = append(tickers, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tickers: %w", err)
	}
	return tickers, nil
}
