package quotes

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgalanis/folio/internal/domain"
	"github.com/mgalanis/folio/internal/events"
)

type stubFetcher struct {
	quote domain.Quote
	err   error
	calls int
}

func (f *stubFetcher) FetchQuote(_ context.Context, ticker string) (domain.Quote, error) {
	f.calls++
	if f.err != nil {
		return domain.Quote{}, f.err
	}
	q := f.quote
	q.Ticker = ticker
	return q, nil
}

func newTestService(t *testing.T, fetcher *stubFetcher) (*Service, *CacheRepository, *events.Bus) {
	t.Helper()
	cache := NewCacheRepository(setupCacheDB(t))
	bus := events.NewBus(zerolog.Nop())
	svc := NewService(fetcher, cache, bus, 10*time.Minute, zerolog.Nop())
	return svc, cache, bus
}

func TestGetQuoteCacheMiss(t *testing.T) {
	fetcher := &stubFetcher{quote: domain.Quote{LastPrice: 187.5, PreviousClose: 185}}
	svc, cache, _ := newTestService(t, fetcher)

	q := svc.GetQuote(context.Background(), "AAPL")

	require.True(t, q.OK())
	assert.Equal(t, "AAPL", q.Ticker)
	assert.Equal(t, 187.5, q.LastPrice)
	assert.Equal(t, 1, fetcher.calls)

	cached, err := cache.GetFresh("AAPL")
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, 187.5, cached.LastPrice)
}

func TestGetQuoteCacheHitSkipsFetcher(t *testing.T) {
	fetcher := &stubFetcher{quote: domain.Quote{LastPrice: 100}}
	svc, cache, _ := newTestService(t, fetcher)

	require.NoError(t, cache.Store(domain.Quote{Ticker: "AAPL", LastPrice: 187.5}, time.Minute))

	q := svc.GetQuote(context.Background(), "AAPL")

	require.True(t, q.OK())
	assert.Equal(t, 187.5, q.LastPrice)
	assert.Equal(t, 0, fetcher.calls)
}

func TestGetQuoteExpiredCacheRefetches(t *testing.T) {
	fetcher := &stubFetcher{quote: domain.Quote{LastPrice: 190}}
	svc, cache, _ := newTestService(t, fetcher)

	require.NoError(t, cache.Store(domain.Quote{Ticker: "AAPL", LastPrice: 187.5}, -time.Minute))

	q := svc.GetQuote(context.Background(), "AAPL")

	require.True(t, q.OK())
	assert.Equal(t, 190.0, q.LastPrice)
	assert.Equal(t, 1, fetcher.calls)
}

func TestRefreshBypassesFreshCache(t *testing.T) {
	fetcher := &stubFetcher{quote: domain.Quote{LastPrice: 190}}
	svc, cache, _ := newTestService(t, fetcher)

	require.NoError(t, cache.Store(domain.Quote{Ticker: "AAPL", LastPrice: 187.5}, time.Minute))

	q := svc.Refresh(context.Background(), "AAPL")

	assert.Equal(t, 190.0, q.LastPrice)
	assert.Equal(t, 1, fetcher.calls)
}

func TestRefreshFailureFallsBackToStale(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("provider down")}
	svc, cache, _ := newTestService(t, fetcher)

	require.NoError(t, cache.Store(domain.Quote{Ticker: "AAPL", LastPrice: 187.5}, -time.Minute))

	q := svc.Refresh(context.Background(), "AAPL")

	require.True(t, q.OK())
	assert.Equal(t, 187.5, q.LastPrice)
}

func TestRefreshFailureNoCacheReturnsErrorQuote(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("provider down")}
	svc, _, _ := newTestService(t, fetcher)

	q := svc.Refresh(context.Background(), "AAPL")

	assert.False(t, q.OK())
	assert.Equal(t, "AAPL", q.Ticker)
	assert.Equal(t, "provider down", q.Err)
}

func TestRefreshPublishesEvent(t *testing.T) {
	fetcher := &stubFetcher{quote: domain.Quote{LastPrice: 187.5}}
	svc, _, bus := newTestService(t, fetcher)

	_, ch := bus.Subscribe()

	svc.Refresh(context.Background(), "AAPL")

	select {
	case ev := <-ch:
		assert.Equal(t, events.QuoteRefreshed, ev.Type)
		assert.Equal(t, "AAPL", ev.Data["ticker"])
	case <-time.After(time.Second):
		t.Fatal("expected a quote refresh event")
	}
}

type listerFunc func() ([]string, error)

func (f listerFunc) DistinctTickers() ([]string, error) { return f() }

func TestRefreshJobWarmsAllTickers(t *testing.T) {
	fetcher := &stubFetcher{quote: domain.Quote{LastPrice: 50}}
	svc, cache, _ := newTestService(t, fetcher)

	job := NewRefreshJob(listerFunc(func() ([]string, error) {
		return []string{"AAPL", "MSFT", "NVDA"}, nil
	}), svc, zerolog.Nop())

	assert.Equal(t, "quote_refresh", job.Name())
	require.NoError(t, job.Run())
	assert.Equal(t, 3, fetcher.calls)

	for _, ticker := range []string{"AAPL", "MSFT", "NVDA"} {
		cached, err := cache.GetFresh(ticker)
		require.NoError(t, err)
		assert.NotNil(t, cached, ticker)
	}
}

func TestRefreshJobListerFailure(t *testing.T) {
	fetcher := &stubFetcher{quote: domain.Quote{LastPrice: 50}}
	svc, _, _ := newTestService(t, fetcher)

	job := NewRefreshJob(listerFunc(func() ([]string, error) {
		return nil, errors.New("db closed")
	}), svc, zerolog.Nop())

	assert.Error(t, job.Run())
	assert.Equal(t, 0, fetcher.calls)
}

func TestCleanupJobRemovesExpiredRows(t *testing.T) {
	cache := NewCacheRepository(setupCacheDB(t))
	require.NoError(t, cache.Store(domain.Quote{Ticker: "OLD", LastPrice: 1}, -time.Hour))

	job := NewCleanupJob(cache, zerolog.Nop())

	assert.Equal(t, "cache_cleanup", job.Name())
	require.NoError(t, job.Run())

	stale, err := cache.GetStale("OLD")
	require.NoError(t, err)
	assert.Nil(t, stale)
}
