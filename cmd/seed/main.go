package main

import (
	"context"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/teamposts/teamposts/internal/config"
	"github.com/teamposts/teamposts/internal/database"
	"github.com/teamposts/teamposts/internal/logging"
	"github.com/teamposts/teamposts/internal/seed"
)

func main() {
	generateKeys := flag.Bool("generate-keys", false, "issue random tp_ keys instead of the fixed demo keys")
	databaseURL := flag.String("database-url", "", "database URL (defaults to DATABASE_URL)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *databaseURL != "" {
		cfg.DatabaseURL = *databaseURL
	}

	logger, err := logging.New(logging.Options{Level: cfg.LogLevel})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(context.Background(), cfg.DatabaseURL, *generateKeys, logger); err != nil {
		logger.Error("seeding failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, databaseURL string, generateKeys bool, logger *zap.Logger) error {
	db, err := database.New(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	results, err := seed.New(db.Repositories(), logger).Run(ctx, seed.DefaultTeams(), seed.Options{GenerateKeys: generateKeys})
	if err != nil {
		return err
	}

	fmt.Println("API keys for testing:")
	for _, r := range results {
		if r.Skipped {
			fmt.Printf("  %-10s already seeded\n", r.Name)
			continue
		}
		fmt.Printf("  %-10s %s (%d posts)\n", r.Name, r.Key, r.Posts)
	}
	return nil
}
