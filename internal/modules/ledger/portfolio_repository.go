package ledger

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
)

// PortfolioRepository handles portfolio database operations
type PortfolioRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewPortfolioRepository creates a new portfolio repository
func NewPortfolioRepository(db *sql.DB, log zerolog.Logger) *PortfolioRepository {
	return &PortfolioRepository{
		db:  db,
		log: log.With().Str("repo", "portfolio").Logger(),
	}
}

// Create inserts a new portfolio for the user and returns its id
func (r *PortfolioRepository) Create(userID int64, name string) (int64, error) {
	res, err := r.db.Exec(
		`INSERT INTO portfolios (user_id, name) VALUES (?, ?)`,
		userID, name,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create portfolio: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get portfolio id: %w", err)
	}
	return id, nil
}

// GetByUser returns all portfolios owned by the user
func (r *PortfolioRepository) GetByUser(userID int64) ([]Portfolio, error) {
	rows, err := r.db.Query(
		`SELECT portfolio_id, user_id, name, created_at
		 FROM portfolios WHERE user_id = ? ORDER BY portfolio_id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolios: %w", err)
	}
	defer rows.Close()

	var portfolios []Portfolio
	for rows.Next() {
		var p Portfolio
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio: %w", err)
		}
		portfolios = append(portfolios, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolios: %w", err)
	}
	return portfolios, nil
}

// GetOwned returns the portfolio only when it exists and belongs to the
// user; ErrNotFound otherwise. Ownership checks at this boundary keep
// referential violations out of the valuation core.
func (r *PortfolioRepository) GetOwned(portfolioID, userID int64) (*Portfolio, error) {
	var p Portfolio
	err := r.db.QueryRow(
		`SELECT portfolio_id, user_id, name, created_at
		 FROM portfolios WHERE portfolio_id = ? AND user_id = ?`,
		portfolioID, userID,
	).Scan(&p.ID, &p.UserID, &p.Name, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio: %w", err)
	}
	return &p, nil
}

// Delete removes the portfolio if it is owned by the user. Symbols and
// transactions go with it via ON DELETE CASCADE. Returns false when the
// portfolio does not exist or is not owned by the caller.
func (r *PortfolioRepository) Delete(portfolioID, userID int64) (bool, error) {
	res, err := r.db.Exec(
		`DELETE FROM portfolios WHERE portfolio_id = ? AND user_id = ?`,
		portfolioID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete portfolio: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected > 0, nil
}
