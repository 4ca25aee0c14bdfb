package redis

import (
	"context"
	"math"
	"os"
	"strings"
	"testing"
	"time"

	"bpmonitor/internal/model"

	"github.com/google/uuid"
)

func TestEncodeHistory_Layout(t *testing.T) {
	pulse := 70.0
	records := []model.HistoryRecord{
		{T: 1, Time: time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC), Sys: 118, Dia: math.NaN()},
		{T: 0, Time: time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC), Sys: 121, Dia: 79, Pulse: &pulse},
	}

	data, err := encodeHistory(records)
	if err != nil {
		t.Fatalf("encodeHistory failed: %v", err)
	}

	want := `[{"t":0,"time":"2024-01-01T08:00:00Z","sys":121,"dia":79,"pulse":70},` +
		`{"t":1,"time":"2024-01-02T08:00:00Z","sys":118,"dia":null}]`
	if string(data) != want {
		t.Errorf("encoded = %s\nexpected  %s", data, want)
	}
}

func TestEncodeHistory_EmptyIsArray(t *testing.T) {
	data, err := encodeHistory(nil)
	if err != nil {
		t.Fatalf("encodeHistory failed: %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("encoded = %s, expected []", data)
	}
}

func TestDecodeHistory(t *testing.T) {
	got, err := decodeHistory([]byte(`[{"t":1,"time":"2024-01-02T08:00:00Z","sys":118,"dia":76},{"t":0,"time":"2024-01-01T08:00:00Z","sys":121,"dia":null}]`))
	if err != nil {
		t.Fatalf("decodeHistory failed: %v", err)
	}
	if len(got) != 2 || got[0].T != 0 || got[1].T != 1 {
		t.Fatalf("decoded = %+v, expected ascending t", got)
	}
	if !math.IsNaN(got[0].Dia) {
		t.Errorf("null dia should decode as NaN, got %v", got[0].Dia)
	}

	if _, err := decodeHistory([]byte(`{"t":0}`)); err == nil || !strings.Contains(err.Error(), "decode history") {
		t.Errorf("expected decode error, got %v", err)
	}
}

// TestHistoryRepository_Live runs against a real server when REDIS_TEST_URL is set.
func TestHistoryRepository_Live(t *testing.T) {
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}
	ctx := context.Background()

	repo, err := New(ctx, url, "bp_history_test_"+uuid.NewString())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer repo.Close()
	defer repo.Clear(ctx)

	now := time.Now().UTC().Truncate(time.Second)
	for i, sys := range []float64{120, 122} {
		if err := repo.Append(ctx, model.HistoryRecord{T: i, Time: now, Sys: sys, Dia: 80}); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
	if err := repo.Append(ctx, model.HistoryRecord{T: 1, Time: now, Sys: 1, Dia: 1}); err == nil {
		t.Error("expected duplicate t to fail")
	}

	got, err := repo.Load(ctx)
	if err != nil || len(got) != 2 || got[1].Sys != 122 {
		t.Fatalf("Load = %+v, %v", got, err)
	}

	if err := repo.Replace(ctx, []model.HistoryRecord{{T: 0, Time: now, Sys: 130, Dia: 85}}); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	if got, _ := repo.Load(ctx); len(got) != 1 || got[0].Sys != 130 {
		t.Errorf("after Replace = %+v", got)
	}

	if err := repo.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if got, _ := repo.Load(ctx); len(got) != 0 {
		t.Errorf("after Clear = %+v", got)
	}
}
