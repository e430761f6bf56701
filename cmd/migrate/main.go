package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/retailpulse/retailpulse/internal/config"
	"github.com/retailpulse/retailpulse/internal/logger"
	"github.com/retailpulse/retailpulse/internal/postgres"
)

func main() {
	// Parse command line flags
	dryRun := flag.Bool("dry-run", false, "Print migration SQL without executing it")
	skipOptional := flag.Bool("skip-optional", false, "Do not create the stores and loyalty_rules tables")
	flag.Parse()

	if *dryRun {
		statements := postgres.RequiredSchema
		if !*skipOptional {
			statements = append(append([]string{}, statements...), postgres.OptionalSchema...)
		}
		fmt.Println(strings.Join(statements, ";\n\n") + ";")
		return
	}

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := logger.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	logger.Infow("Connecting to database", "host", cfg.Postgres.Host)
	db, err := postgres.NewDB(cfg, logger)
	if err != nil {
		logger.Fatalw("Failed to connect to postgres", "error", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Info("Running database migrations...")
	if err := db.Migrate(ctx, !*skipOptional); err != nil {
		logger.Fatalw("Failed to create schema resources", "error", err)
	}

	fmt.Println("Migration process completed")
}
