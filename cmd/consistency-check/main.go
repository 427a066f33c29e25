package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"factory-backend/internal/config"
	"factory-backend/internal/database"
	"factory-backend/internal/inventory"
	"factory-backend/internal/logging"
)

// consistency-check scans the ledger once and prints every inconsistency as
// JSON. It exits 1 when anything is found, so it can run from cron or CI.
//
// Example:
//
//	go run ./cmd/consistency-check/ -timeout=2m
func main() {
	timeout := flag.Duration("timeout", time.Minute, "Abort the scan after this long")
	dsn := flag.String("dsn", "", "Database DSN (defaults to DATABASE_DSN)")
	flag.Parse()

	cfg := config.Load()
	if *dsn != "" {
		cfg.DatabaseDSN = *dsn
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg.DatabaseDSN)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	issues, err := inventory.NewService(db, logger).CheckConsistency(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "consistency check failed:", err)
		os.Exit(2)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(issues)

	if len(issues) > 0 {
		fmt.Fprintf(os.Stderr, "%d issue(s) found\n", len(issues))
		os.Exit(1)
	}
}
