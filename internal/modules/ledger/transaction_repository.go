package ledger

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// TransactionRepository handles transaction database operations. The
// transactions table is append-only: there is no update or single-row
// delete here on purpose.
type TransactionRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *sql.DB, log zerolog.Logger) *TransactionRepository {
	return &TransactionRepository{
		db:  db,
		log: log.With().Str("repo", "transaction").Logger(),
	}
}

// Add appends a transaction to the symbol's ledger. Input is validated
// here so malformed rows never reach the valuation core; an unknown symbol
// is reported as ErrUnknownSymbol rather than a raw FK violation.
func (r *TransactionRepository) Add(symbolID int64, txType TransactionType, shares, price, fee float64, date string) (int64, error) {
	if !txType.Valid() {
		return 0, fmt.Errorf("%w: transaction type %q", ErrInvalidTransaction, txType)
	}
	if shares <= 0 {
		return 0, fmt.Errorf("%w: shares must be positive", ErrInvalidTransaction)
	}
	if price < 0 {
		return 0, fmt.Errorf("%w: price must not be negative", ErrInvalidTransaction)
	}
	if fee < 0 {
		return 0, fmt.Errorf("%w: fee must not be negative", ErrInvalidTransaction)
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return 0, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidTransaction)
	}

	var exists int64
	err := r.db.QueryRow(`SELECT symbol_id FROM symbols WHERE symbol_id = ?`, symbolID).Scan(&exists)
	if err == sql.ErrNoRows {
		return 0, ErrUnknownSymbol
	}
	if err != nil {
		return 0, fmt.Errorf("failed to check symbol: %w", err)
	}

	res, err := r.db.Exec(
		`INSERT INTO transactions (symbol_id, transaction_type, shares, price, fee, transaction_date)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		symbolID, string(txType), shares, price, fee, date,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to add transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get transaction id: %w", err)
	}
	return id, nil
}

// GetBySymbol returns the symbol's full ledger ordered by (date, id).
// This ordering is the replay order for all derived metrics.
func (r *TransactionRepository) GetBySymbol(symbolID int64) ([]Transaction, error) {
	rows, err := r.db.Query(
		`SELECT transaction_id, symbol_id, transaction_type, shares, price, fee, transaction_date
		 FROM transactions WHERE symbol_id = ?
		 ORDER BY transaction_date, transaction_id`,
		symbolID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txns []Transaction
	for rows.Next() {
		var t Transaction
		var txType string
		if err := rows.Scan(&t.ID, &t.SymbolID, &txType, &t.Shares, &t.Price, &t.Fee, &t.Date); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		t.Type = TransactionType(txType)
		txns = append(txns, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return txns, nil
}
