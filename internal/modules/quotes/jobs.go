package quotes

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// TickerLister enumerates the tickers the refresh job should warm.
// Implemented by the ledger service.
type TickerLister interface {
	DistinctTickers() ([]string, error)
}

// RefreshJob bulk-refreshes quotes for every ticker in the ledger so
// dashboards mostly hit a warm cache.
type RefreshJob struct {
	tickers TickerLister
	service *Service
	log     zerolog.Logger
}

// NewRefreshJob creates a new quote refresh job
func NewRefreshJob(tickers TickerLister, service *Service, log zerolog.Logger) *RefreshJob {
	return &RefreshJob{
		tickers: tickers,
		service: service,
		log:     log.With().Str("job", "quote_refresh").Logger(),
	}
}

// Name returns the job name
func (j *RefreshJob) Name() string { return "quote_refresh" }

// Run refreshes every distinct ticker. Individual failures degrade inside
// the quote service; only the ticker listing itself can fail the job.
func (j *RefreshJob) Run() error {
	tickers, err := j.tickers.DistinctTickers()
	if err != nil {
		return fmt.Errorf("failed to list tickers: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var failed int
	for _, t := range tickers {
		if q := j.service.Refresh(ctx, t); !q.OK() {
			failed++
		}
	}

	j.log.Info().Int("tickers", len(tickers)).Int("failed", failed).Msg("Quote refresh completed")
	return nil
}

// CleanupJob purges expired quote cache rows
type CleanupJob struct {
	cache *CacheRepository
	log   zerolog.Logger
}

// NewCleanupJob creates a new cache cleanup job
func NewCleanupJob(cache *CacheRepository, log zerolog.Logger) *CleanupJob {
	return &CleanupJob{
		cache: cache,
		log:   log.With().Str("job", "cache_cleanup").Logger(),
	}
}

// Name returns the job name
func (j *CleanupJob) Name() string { return "cache_cleanup" }

// Run deletes expired cache rows
func (j *CleanupJob) Run() error {
	removed, err := j.cache.DeleteExpired()
	if err != nil {
		return err
	}

	j.log.Info().Int64("removed", removed).Msg("Cache cleanup completed")
	return nil
}
