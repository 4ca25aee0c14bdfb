package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"bpmonitor/internal/config"
	"bpmonitor/internal/logger"
	"bpmonitor/internal/model"
	"bpmonitor/internal/repository/memory"
	"bpmonitor/internal/repository/sqlite"
)

func TestOpenHistoryRepository(t *testing.T) {
	ctx := context.Background()

	repo, err := OpenHistoryRepository(ctx, &config.Config{HistoryBackend: "memory"})
	if err != nil {
		t.Fatalf("memory backend failed: %v", err)
	}
	if _, ok := repo.(*memory.HistoryRepository); !ok {
		t.Errorf("expected a memory repository, got %T", repo)
	}

	repo, err = OpenHistoryRepository(ctx, &config.Config{
		HistoryBackend: "sqlite",
		DBPath:         filepath.Join(t.TempDir(), "history.db"),
	})
	if err != nil {
		t.Fatalf("sqlite backend failed: %v", err)
	}
	defer repo.Close()
	if _, ok := repo.(*sqlite.HistoryRepository); !ok {
		t.Errorf("expected a sqlite repository, got %T", repo)
	}
	if err := repo.Append(ctx, model.HistoryRecord{T: 0, Time: time.Now(), Sys: 120, Dia: 80}); err != nil {
		t.Errorf("Append failed: %v", err)
	}

	if _, err := OpenHistoryRepository(ctx, &config.Config{HistoryBackend: "cassandra"}); err == nil {
		t.Error("expected an error for an unknown backend")
	}
}

func TestNewApp(t *testing.T) {
	cfg := &config.Config{
		HistoryBackend: "memory",
		Recognizer:     "local",
		RowSplitMode:   "median",
		TrendK:         3,
		TrendMinPoints: 5,
	}
	a, err := NewApp(context.Background(), cfg, logger.NewDiscard())
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	defer a.Close()

	cfg.Recognizer = "remote"
	if _, err := NewApp(context.Background(), cfg, logger.NewDiscard()); err == nil {
		t.Error("expected remote recognizer without a URL to fail")
	}
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	cfg := &config.Config{HistoryBackend: "memory", Port: 0, StaticDirectory: t.TempDir()}
	a, err := NewApp(context.Background(), cfg, logger.NewDiscard())
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop")
	}
}
