package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"finboard/internal/amqp"
	"finboard/internal/cache"
	"finboard/internal/config"
	"finboard/internal/core"
	applog "finboard/internal/log"
	"finboard/internal/mockdata"
	"finboard/internal/services"
	ports "finboard/internal/sheets"
	gsheet "finboard/internal/sheets/google"
	mem "finboard/internal/sheets/memory"
	"finboard/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	applog.Setup(cfg.LogLevel, cfg.LogFormat)
	logger := applog.With(applog.ComponentWorker)

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
	default:
		source = ports.RowsFromCSV(mem.NewFromDir(cfg.FixtureDir))
	}

	var publisher worker.Publisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing log-only", "error", err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
		}
	} else {
		logger.Info("AMQP disabled, refresh events will only be logged")
	}

	summaryCache := cache.NewLRUCache[core.DatasetSummary](cfg.CacheSize, cfg.CacheTTL)
	mock := mockdata.New(core.AggregateConfig{
		RiskAgedShare: cfg.RiskAgedShare,
		TopN:          cfg.TopN,
	})
	dashboard := services.NewDashboardService(source, mock, summaryCache, registry, cfg)

	portfolios := make([]string, 0, len(registry.Portfolios))
	for _, p := range registry.Portfolios {
		portfolios = append(portfolios, p.ID)
	}

	w := worker.NewRefreshWorker(dashboard, publisher, portfolios, cfg.RefreshInterval)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx); err != nil {
		logger.Error("Failed to start refresh worker", "error", err)
		os.Exit(1)
	}

	logger.Info("Refresh worker running",
		"interval", cfg.RefreshInterval,
		"backend", cfg.DataBackend,
		"portfolios", len(portfolios))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("Shutdown signal received", "signal", sig.String())

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if err := w.Stop(stopCtx); err != nil {
		logger.Error("Worker stop error", "error", err)
		os.Exit(1)
	}

	logger.Info("Refresh worker stopped gracefully")
}
