// Package main is the entry point for the folio portfolio valuation server.
// It wires the sqlite databases, the quote cache, the valuation and history
// services and the HTTP API, then runs until interrupted.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mgalanis/folio/internal/clients/yahoo"
	"github.com/mgalanis/folio/internal/config"
	"github.com/mgalanis/folio/internal/database"
	"github.com/mgalanis/folio/internal/events"
	"github.com/mgalanis/folio/internal/modules/history"
	"github.com/mgalanis/folio/internal/modules/ledger"
	"github.com/mgalanis/folio/internal/modules/quotes"
	"github.com/mgalanis/folio/internal/modules/users"
	"github.com/mgalanis/folio/internal/reliability"
	"github.com/mgalanis/folio/internal/scheduler"
	"github.com/mgalanis/folio/internal/server"
	"github.com/mgalanis/folio/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Str("data_dir", cfg.DataDir).Msg("Starting folio")

	// The ledger database is the source of truth; the cache database only
	// holds quote blobs and can be deleted at any time.
	folioDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "folio.db"),
		Profile: database.ProfileLedger,
		Name:    "folio",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open folio database")
	}
	defer folioDB.Close()

	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "cache.db"),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open cache database")
	}
	defer cacheDB.Close()

	for _, db := range []*database.DB{folioDB, cacheDB} {
		if err := db.Migrate(); err != nil {
			log.Fatal().Err(err).Str("database", db.Name()).Msg("Failed to migrate database")
		}
	}

	bus := events.NewBus(log)
	yahooClient := yahoo.NewClient(log)

	cacheRepo := quotes.NewCacheRepository(cacheDB.Conn())
	quoteService := quotes.NewService(yahooClient, cacheRepo, bus, cfg.QuoteTTL, log)

	ledgerService := ledger.NewService(
		ledger.NewPortfolioRepository(folioDB.Conn(), log),
		ledger.NewSymbolRepository(folioDB.Conn(), log),
		ledger.NewTransactionRepository(folioDB.Conn(), log),
		bus,
		log,
	)

	usersService := users.NewService(
		users.NewRepository(folioDB.Conn(), log),
		users.NewLogMailer(log),
		cfg.JWTSecret,
		log,
	)

	historyService := history.NewService(yahooClient, log)

	sched := scheduler.New(log)
	registerJob := func(schedule string, job scheduler.Job) {
		if err := sched.AddJob(schedule, job); err != nil {
			log.Fatal().Err(err).Str("job", job.Name()).Msg("Failed to register job")
		}
	}

	registerJob(cfg.QuoteRefreshSchedule, quotes.NewRefreshJob(ledgerService, quoteService, log))
	registerJob(cfg.CacheCleanupSchedule, quotes.NewCleanupJob(cacheRepo, log))

	if cfg.Backup.Bucket != "" {
		s3Client, err := reliability.NewS3Client(context.Background(), reliability.S3Config{
			Bucket:    cfg.Backup.Bucket,
			Endpoint:  cfg.Backup.Endpoint,
			Region:    cfg.Backup.Region,
			AccessKey: cfg.Backup.AccessKey,
			SecretKey: cfg.Backup.SecretKey,
		}, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create S3 client")
		}

		backupService := reliability.NewBackupService(
			[]*database.DB{folioDB, cacheDB},
			cfg.DataDir,
			s3Client,
			bus,
			cfg.Backup.Retention,
			log,
		)
		registerJob(cfg.BackupSchedule, reliability.NewBackupJob(backupService, log))
	} else {
		log.Info().Msg("Backups disabled, no bucket configured")
	}

	sched.Start()
	defer sched.Stop()

	srv := server.New(server.Config{
		Log:            log,
		Config:         cfg,
		FolioDB:        folioDB,
		CacheDB:        cacheDB,
		Bus:            bus,
		UsersService:   usersService,
		LedgerService:  ledgerService,
		QuoteProvider:  quoteService,
		HistoryService: historyService,
	})

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
