package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/vitos/solidity_screener/internal/infrastructure/storage"
)

func main() {
	dbPath := flag.String("db", "screener.db", "path to the scan journal")
	limit := flag.Int("limit", 10, "number of scans to show")
	flag.Parse()

	store, err := storage.NewSQLiteStore(*dbPath)
	if err != nil {
		fmt.Printf("Failed to init sqlite: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()
	scans, err := store.ListScanReports(ctx, *limit)
	if err != nil {
		fmt.Printf("Failed to list scans: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Found %d scans:\n", len(scans))
	for _, s := range scans {
		fmt.Printf("- Scan ID: %s, Started: %s, Took: %dms, Symbols: %d, Ratio: %.1f%%\n",
			s.ID, s.StartedAt.Format("2006-01-02 15:04:05"), s.DurationMs, s.Symbols, s.Ratio)
		if s.Failed > 0 {
			fmt.Printf("  ⚠️ %d symbols failed\n", s.Failed)
		}
		if len(s.Signals) == 0 {
			fmt.Printf("  No solidity found\n")
		} else {
			fmt.Printf("  ✅ Signals: %s\n", strings.Join(s.Signals, ", "))
		}
	}
}
