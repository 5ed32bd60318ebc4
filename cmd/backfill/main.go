// Command backfill fills in device, browser, OS and location fields for
// clicks recorded without them.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"linkgate/internal/config"
	"linkgate/internal/repository"
	"linkgate/internal/services"

	"github.com/redis/go-redis/v9"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("backfill", flag.ContinueOnError)
	fs.SetOutput(out)
	force := fs.Bool("force", false, "reprocess every click, not only those with missing fields")
	limit := fs.Int("limit", 0, "maximum number of clicks to process (0 = no limit)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo}))

	db, err := repository.InitDB(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		if rdb, err = repository.InitRedis(cfg.RedisURL, cfg.RedisPassword, 0); err != nil {
			logger.Warn("Failed to connect to Redis, geolocation cache disabled", "error", err)
		} else {
			defer rdb.Close()
		}
	}

	locator, maxmind := services.NewConfiguredLocator(cfg, logger, rdb)
	if maxmind != nil {
		maxmind.Init()
	}

	backfill := services.NewBackfillService(repository.NewLinkRepository(db), services.NewUAClassifier(logger), locator, logger)
	report, err := backfill.Run(ctx, *force, *limit)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Processed %d clicks, updated %d, errors %d\n", report.Processed, report.Updated, report.Errors)
	return nil
}
