package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"finboard/internal/amqp"
	"finboard/internal/cache"
	"finboard/internal/config"
	"finboard/internal/core"
	apphttp "finboard/internal/http"
	applog "finboard/internal/log"
	"finboard/internal/mockdata"
	"finboard/internal/services"
	ports "finboard/internal/sheets"
	gsheet "finboard/internal/sheets/google"
	mem "finboard/internal/sheets/memory"
	"finboard/internal/worker"
)

func main() {
	// Load .env for local development; absent in production is fine.
	_ = godotenv.Load()

	cfg := config.Load()
	applog.Setup(cfg.LogLevel, cfg.LogFormat)
	logger := applog.With(applog.ComponentApp)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	registry, err := config.LoadRegistry(cfg.PortfolioFile)
	if err != nil {
		logger.Error("Failed to load portfolio registry", "error", err, "file", cfg.PortfolioFile)
		os.Exit(1)
	}

	var source ports.RowsReader
	switch cfg.DataBackend {
	case "google":
		cli, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		source = cli
		logger.Info("Initialized Google Sheets backend")
	default:
		store := mem.NewFromDir(cfg.FixtureDir)
		source = ports.RowsFromCSV(store)
		logger.Info("Initialized memory backend", "fixture_dir", cfg.FixtureDir)
	}

	summaryCache := cache.NewLRUCache[core.DatasetSummary](cfg.CacheSize, cfg.CacheTTL)
	cacheManager := cache.NewManager()
	cacheManager.Register(summaryCache)
	cacheManager.StartCleanup(10 * time.Minute)
	defer cacheManager.Stop()

	// AMQP is optional: without it forced refreshes are log-only and the
	// cache only expires by TTL.
	var amqpClient *amqp.Client
	var publisher apphttp.RefreshPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, refresh notifications disabled", "error", err)
		} else {
			defer client.Close()
			amqpClient = client
			publisher = client
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP disabled, refresh notifications will not be published")
	}

	mock := mockdata.New(core.AggregateConfig{
		RiskAgedShare: cfg.RiskAgedShare,
		TopN:          cfg.TopN,
	})

	dashboard := services.NewDashboardService(source, mock, summaryCache, registry, cfg)
	srv := apphttp.NewServer(":"+cfg.Port, dashboard, publisher, summaryCache)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Refresh events from the refresh worker invalidate our cache so reads
	// pick up the rebuilt snapshots before the TTL expires.
	if amqpClient != nil {
		listener := worker.NewRefreshListener(amqpClient, dashboard)
		go func() {
			if err := listener.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Refresh listener stopped", "error", err)
			}
		}()
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting finboard server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"portfolios", len(registry.Portfolios))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
