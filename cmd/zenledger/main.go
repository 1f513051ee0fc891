package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"zenledger/internal/amqp"
	"zenledger/internal/classify"
	"zenledger/internal/config"
	"zenledger/internal/storage"
	"zenledger/internal/store"
	ledgersync "zenledger/internal/sync"
	"zenledger/internal/tools"
	"zenledger/internal/zenmoney"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	list := flag.Bool("list", false, "list available tools")
	describe := flag.String("describe", "", "describe one tool")
	argsJSON := flag.String("args", "{}", "tool arguments as a JSON object")
	flag.Parse()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client, err := zenmoney.NewClient(cfg.Token, zenmoney.WithBaseURL(cfg.BaseURL))
	if err != nil {
		logger.Error("Failed to initialize API client", "error", err)
		os.Exit(1)
	}

	opts := []ledgersync.Option{
		ledgersync.WithStaleness(cfg.Staleness),
		ledgersync.WithLogger(logger),
	}

	if cfg.SQLiteDBPath != "" {
		repo, err := storage.NewSnapshotRepository(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to initialize SQLite snapshot", "error", err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		defer repo.Close()
		opts = append(opts, ledgersync.WithSnapshotStore(repo))
	}

	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		opts = append(opts, ledgersync.WithPublisher(amqpClient))
	}

	manager := ledgersync.New(client, store.New(), opts...)
	if cfg.SQLiteDBPath != "" {
		if err := manager.Restore(ctx); err != nil {
			logger.Warn("Snapshot restore failed, starting from a full sync", "error", err)
		}
	}

	runner := tools.New(manager,
		tools.WithSuggester(client),
		tools.WithMode(classify.Preset(cfg.AnalysisMode)),
		tools.WithPeriodStartDay(cfg.PeriodStartDay),
		tools.WithRounding(cfg.RoundBalances),
	)

	switch {
	case *list:
		printJSON(runner.Catalog())
	case *describe != "":
		spec, ok := runner.Describe(*describe)
		if !ok {
			logger.Error("Unknown tool", "tool", *describe)
			os.Exit(1)
		}
		printJSON(spec)
	default:
		name := flag.Arg(0)
		if name == "" {
			fmt.Fprintln(os.Stderr, "usage: zenledger [--list] [--describe tool] [--args json] <tool>")
			os.Exit(2)
		}
		var args tools.Args
		if err := json.Unmarshal([]byte(*argsJSON), &args); err != nil {
			logger.Error("Invalid --args JSON", "error", err)
			os.Exit(1)
		}
		out, err := runner.Run(ctx, name, args)
		if err != nil {
			logger.Error("Tool call failed", "tool", name, "error", err)
			os.Exit(1)
		}
		printJSON(out)
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		slog.Error("Failed to encode output", "error", err)
		os.Exit(1)
	}
}
