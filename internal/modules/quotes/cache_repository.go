// Package quotes provides cached access to current market quotes. Quotes
// are cache-first: live fetches go through the Yahoo client, results are
// persisted as msgpack blobs with an expiration timestamp, and stale data
// is served as a fallback when the provider is down.
package quotes

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/mgalanis/folio/internal/domain"
)

// CacheRepository persists quote snapshots in the cache database
type CacheRepository struct {
	db *sql.DB
}

// NewCacheRepository creates a new quote cache repository
func NewCacheRepository(db *sql.DB) *CacheRepository {
	return &CacheRepository{db: db}
}

// Store saves a quote with expiration = now + ttl. Upserts on ticker.
func (r *CacheRepository) Store(q domain.Quote, ttl time.Duration) error {
	data, err := msgpack.Marshal(q)
	if err != nil {
		return fmt.Errorf("failed to marshal quote: %w", err)
	}

	expiresAt := time.Now().Add(ttl).Unix()

	_, err = r.db.Exec(
		`INSERT OR REPLACE INTO quote_cache (ticker, data, expires_at) VALUES (?, ?, ?)`,
		strings.ToUpper(q.Ticker), data, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to store quote: %w", err)
	}
	return nil
}

// GetFresh returns the cached quote only while it is unexpired.
// Returns nil, nil when the ticker is missing or expired.
func (r *CacheRepository) GetFresh(ticker string) (*domain.Quote, error) {
	return r.get(ticker, true)
}

// GetStale returns the cached quote regardless of expiration. Used as a
// fallback when the live provider fails.
func (r *CacheRepository) GetStale(ticker string) (*domain.Quote, error) {
	return r.get(ticker, false)
}

func (r *CacheRepository) get(ticker string, freshOnly bool) (*domain.Quote, error) {
	query := `SELECT data FROM quote_cache WHERE ticker = ?`
	args := []interface{}{strings.ToUpper(ticker)}
	if freshOnly {
		query += ` AND expires_at > ?`
		args = append(args, time.Now().Unix())
	}

	var data []byte
	err := r.db.QueryRow(query, args...).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached quote: %w", err)
	}

	var q domain.Quote
	if err := msgpack.Unmarshal(data, &q); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached quote: %w", err)
	}
	return &q, nil
}

// DeleteExpired purges expired rows and returns how many were removed
func (r *CacheRepository) DeleteExpired() (int64, error) {
	res, err := r.db.Exec(`DELETE FROM quote_cache WHERE expires_at <= ?`, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired quotes: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected, nil
}
