// Command migrate imports a history exported from the browser page (the
// bp_history_v1 JSON array) into the configured history store.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"bpmonitor/internal/app"
	"bpmonitor/internal/config"
	"bpmonitor/internal/logger"
	"bpmonitor/internal/service/history"
)

func main() {
	cfg := config.Load()

	file := flag.String("file", "bp_history.json", "Exported history (JSON array)")
	backend := flag.String("backend", cfg.HistoryBackend, "History backend: sqlite or redis")
	dbPath := flag.String("db", cfg.DBPath, "Database path (sqlite)")
	redisURL := flag.String("redis", cfg.RedisURL, "Redis URL (redis)")
	flag.Parse()

	cfg.HistoryBackend = *backend
	cfg.DBPath = *dbPath
	cfg.RedisURL = *redisURL

	f, err := os.Open(*file)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", *file, err)
	}
	defer f.Close()

	baseline, err := history.ParseBaseline(f)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", *file, err)
	}

	ctx := context.Background()
	repo, err := app.OpenHistoryRepository(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open history store: %v", err)
	}
	defer repo.Close()

	fmt.Printf("Importing %d records from %s into %s\n", len(baseline), *file, cfg.HistoryBackend)

	records, err := history.NewService(repo, logger.NewDiscard()).Rebuild(ctx, baseline)
	if err != nil {
		log.Fatalf("Failed to import history: %v", err)
	}

	fmt.Printf("History now holds %d records\n", len(records))
	if n := len(records); n > 0 {
		first, last := records[0], records[n-1]
		fmt.Printf("   t=0:   %s\n", describe(first.Sys, first.Dia))
		fmt.Printf("   t=%d: %s\n", last.T, describe(last.Sys, last.Dia))
	}
}

func describe(sys, dia float64) string {
	return fmt.Sprintf("%.0f/%.0f", sys, dia)
}
