package quotes

import (
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgalanis/folio/internal/database"
	"github.com/mgalanis/folio/internal/domain"
)

func setupCacheDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(database.CacheSchema)
	require.NoError(t, err)

	return db
}

func TestStoreAndGetFresh(t *testing.T) {
	repo := NewCacheRepository(setupCacheDB(t))

	q := domain.Quote{
		Ticker:        "AAPL",
		CompanyName:   "Apple Inc.",
		LastPrice:     187.5,
		PreviousClose: 185.0,
		Change:        2.5,
		ChangePercent: 1.3513,
	}
	require.NoError(t, repo.Store(q, 10*time.Minute))

	got, err := repo.GetFresh("AAPL")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, q, *got)
}

func TestGetFreshLowercaseTicker(t *testing.T) {
	repo := NewCacheRepository(setupCacheDB(t))

	require.NoError(t, repo.Store(domain.Quote{Ticker: "MSFT", LastPrice: 400}, time.Minute))

	got, err := repo.GetFresh("msft")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "MSFT", got.Ticker)
}

func TestGetFreshMissingTicker(t *testing.T) {
	repo := NewCacheRepository(setupCacheDB(t))

	got, err := repo.GetFresh("NOPE")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetFreshExpired(t *testing.T) {
	repo := NewCacheRepository(setupCacheDB(t))

	require.NoError(t, repo.Store(domain.Quote{Ticker: "AAPL", LastPrice: 187.5}, -time.Minute))

	got, err := repo.GetFresh("AAPL")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetStaleIgnoresExpiration(t *testing.T) {
	repo := NewCacheRepository(setupCacheDB(t))

	require.NoError(t, repo.Store(domain.Quote{Ticker: "AAPL", LastPrice: 187.5}, -time.Minute))

	got, err := repo.GetStale("AAPL")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 187.5, got.LastPrice)
}

func TestStoreUpsertsOnTicker(t *testing.T) {
	repo := NewCacheRepository(setupCacheDB(t))

	require.NoError(t, repo.Store(domain.Quote{Ticker: "AAPL", LastPrice: 180}, time.Minute))
	require.NoError(t, repo.Store(domain.Quote{Ticker: "AAPL", LastPrice: 190}, time.Minute))

	got, err := repo.GetFresh("AAPL")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 190.0, got.LastPrice)

	var count int
	require.NoError(t, repo.db.QueryRow(`SELECT COUNT(*) FROM quote_cache`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestDeleteExpired(t *testing.T) {
	repo := NewCacheRepository(setupCacheDB(t))

	require.NoError(t, repo.Store(domain.Quote{Ticker: "OLD1", LastPrice: 1}, -time.Hour))
	require.NoError(t, repo.Store(domain.Quote{Ticker: "OLD2", LastPrice: 2}, -time.Hour))
	require.NoError(t, repo.Store(domain.Quote{Ticker: "LIVE", LastPrice: 3}, time.Hour))

	removed, err := repo.DeleteExpired()
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	got, err := repo.GetFresh("LIVE")
	require.NoError(t, err)
	assert.NotNil(t, got)
}
