package quotes

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/mgalanis/folio/internal/domain"
	"github.com/mgalanis/folio/internal/events"
)

// Fetcher is the live quote source behind the cache
type Fetcher interface {
	FetchQuote(ctx context.Context, ticker string) (domain.Quote, error)
}

// Service implements domain.QuoteProvider with a cache-first strategy.
// It never fails the caller: a provider failure degrades to a stale cached
// quote when one exists, or to the error arm of the Quote union.
type Service struct {
	fetcher Fetcher
	cache   *CacheRepository
	bus     *events.Bus
	ttl     time.Duration
	log     zerolog.Logger
}

// NewService creates a new quote service
func NewService(fetcher Fetcher, cache *CacheRepository, bus *events.Bus, ttl time.Duration, log zerolog.Logger) *Service {
	return &Service{
		fetcher: fetcher,
		cache:   cache,
		bus:     bus,
		ttl:     ttl,
		log:     log.With().Str("service", "quotes").Logger(),
	}
}

// GetQuote returns the freshest quote available for the ticker
func (s *Service) GetQuote(ctx context.Context, ticker string) domain.Quote {
	if cached, err := s.cache.GetFresh(ticker); err != nil {
		s.log.Warn().Err(err).Str("ticker", ticker).Msg("Quote cache read failed")
	} else if cached != nil {
		return *cached
	}

	return s.Refresh(ctx, ticker)
}

// Refresh fetches a live quote, bypassing the fresh-cache check, and
// updates the cache on success.
func (s *Service) Refresh(ctx context.Context, ticker string) domain.Quote {
	q, err := s.fetcher.FetchQuote(ctx, ticker)
	if err != nil {
		s.log.Warn().Err(err).Str("ticker", ticker).Msg("Live quote fetch failed")

		if stale, cacheErr := s.cache.GetStale(ticker); cacheErr == nil && stale != nil {
			s.log.Debug().Str("ticker", ticker).Msg("Serving stale cached quote")
			return *stale
		}
		return domain.ErrorQuote(ticker, err.Error())
	}

	if err := s.cache.Store(q, s.ttl); err != nil {
		s.log.Warn().Err(err).Str("ticker", ticker).Msg("Failed to cache quote")
	}

	s.bus.Publish(events.QuoteRefreshed, map[string]interface{}{
		"ticker":     q.Ticker,
		"last_price": q.LastPrice,
	})

	return q
}
