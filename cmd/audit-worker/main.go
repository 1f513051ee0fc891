package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"zenledger/internal/amqp"
	"zenledger/internal/config"
	ports "zenledger/internal/sheets"
	gsheet "zenledger/internal/sheets/google"
	mem "zenledger/internal/sheets/memory"
	"zenledger/internal/storage"
	"zenledger/internal/worker"
)

func main() {
	tail := flag.Int("tail", 0, "print the N most recent audit rows and exit")
	flag.Parse()

	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting audit-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.SQLiteDBPath == "" {
		logger.Error("SQLITE_DB_PATH is required for the audit worker")
		os.Exit(1)
	}
	if *tail == 0 && cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the audit worker")
		os.Exit(1)
	}

	repo, err := storage.NewSnapshotRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite snapshot", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	var audit ports.AuditWriter
	switch cfg.AuditBackend {
	case "sheets":
		cli, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		audit = cli
		logger.Info("Initialized Google Sheets audit backend", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	default:
		audit = mem.New()
		logger.Info("Initialized in-memory audit backend")
	}

	auditWorker := worker.NewAuditWorker(repo, audit)

	if *tail > 0 {
		entries, err := auditWorker.Tail(context.Background(), *tail)
		if err != nil {
			logger.Error("Failed to read audit trail", "error", err)
			os.Exit(1)
		}
		for _, e := range entries {
			fmt.Printf("%s\t%s\t%s\t%s\n", e.When.Format(time.RFC3339), e.Kind, e.ID, e.Summary)
		}
		return
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("Consuming change messages", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	err = amqpClient.ConsumeChanges(ctx, func(msg *amqp.ChangeMessage) error {
		return auditWorker.HandleChangeMessage(ctx, msg)
	})
	if err != nil && err != context.Canceled {
		logger.Error("Message consumption failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Audit worker stopped gracefully")
}
