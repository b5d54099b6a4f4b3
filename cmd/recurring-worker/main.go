package main

import (
	"context"
	"flag"
	"os"
	"time"

	"zenbudget/internal/backend"
	"zenbudget/internal/cli"
	"zenbudget/internal/log"
	"zenbudget/internal/recurring"
)

// recurring-worker materializes due occurrences of recurring transactions
// outside the server process. Its writes are published on the configured
// change feed, so open sessions see them when the feed is shared (amqp or
// redis).
func main() {
	once := flag.Bool("once", false, "run a single pass and exit")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentRecurring)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := cli.ShutdownContext(logger)
	defer stop()

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.ErrorContext(ctx, "Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	be, err := backend.NewFactory(logger).Create(ctx, bcfg)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer be.Close()

	materializer := recurring.NewMaterializer(be.Repo, logger)

	if *once {
		n, err := materializer.Run(ctx, time.Now())
		if err != nil {
			logger.ErrorContext(ctx, "Recurring run failed", log.FieldError, err)
			be.Close()
			os.Exit(1)
		}
		logger.InfoContext(ctx, "Recurring run complete", log.FieldCount, n)
		return
	}

	logger.InfoContext(ctx, "Starting recurring-worker",
		"interval", cfg.RecurringInterval, "backend", cfg.DataBackend, "change_feed", cfg.ChangeFeed)
	if err := materializer.Loop(ctx, cfg.RecurringInterval); err != nil {
		logger.ErrorContext(context.Background(), "Recurring loop stopped", log.FieldError, err)
	}
	logger.InfoContext(context.Background(), "Recurring-worker shutdown complete")
}
