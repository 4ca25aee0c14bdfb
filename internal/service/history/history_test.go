package history

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"bpmonitor/internal/logger"
	"bpmonitor/internal/model"
	"bpmonitor/internal/repository/memory"
)

func newTestService() (*Service, *memory.HistoryRepository) {
	repo := memory.NewHistoryRepository()
	return NewService(repo, logger.NewDiscard()), repo
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
func msPtr(v int64) *int64        { return &v }

func TestService_AppendAssignsDenseT(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	for i, sys := range []float64{120, 121, 119} {
		rec, err := svc.Append(ctx, Entry{Sys: sys, Dia: 80})
		if err != nil {
			t.Fatalf("Append failed: %v", err)
		}
		if rec.T != i {
			t.Errorf("record %d got t=%d", i, rec.T)
		}
		if rec.Time.IsZero() {
			t.Error("Append should stamp a time")
		}
	}

	got, err := svc.Snapshot(ctx)
	if err != nil || len(got) != 3 {
		t.Fatalf("Snapshot = %+v, %v", got, err)
	}
}

func TestService_AppendIf(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	svc.Append(ctx, Entry{Sys: 120, Dia: 80})

	var seen int
	rec, kept, err := svc.AppendIf(ctx, Entry{Sys: 121, Dia: 81}, func(snapshot []model.HistoryRecord, next model.HistoryRecord) (bool, error) {
		seen = len(snapshot)
		return false, nil
	})
	if err != nil || kept {
		t.Fatalf("AppendIf = %v, %v; expected rejected", kept, err)
	}
	if seen != 1 || rec.T != 1 {
		t.Errorf("check saw %d records and t=%d, expected 1 and 1", seen, rec.T)
	}

	boom := errors.New("boom")
	if _, kept, err := svc.AppendIf(ctx, Entry{Sys: 1}, func([]model.HistoryRecord, model.HistoryRecord) (bool, error) {
		return true, boom
	}); !errors.Is(err, boom) || kept {
		t.Errorf("expected check error to abort, got %v kept=%v", err, kept)
	}

	if got, _ := svc.Snapshot(ctx); len(got) != 1 {
		t.Errorf("history should still hold one record, got %d", len(got))
	}
}

func TestService_ConcurrentAppendsStayDense(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Append(ctx, Entry{Sys: 120, Dia: 80}); err != nil {
				t.Errorf("Append failed: %v", err)
			}
		}()
	}
	wg.Wait()

	got, _ := svc.Snapshot(ctx)
	if len(got) != 20 {
		t.Fatalf("expected 20 records, got %d", len(got))
	}
	for i, rec := range got {
		if rec.T != i {
			t.Fatalf("record %d has t=%d", i, rec.T)
		}
	}
}

func TestService_RebuildAndClear(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	svc.Append(ctx, Entry{Time: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Sys: 130, Dia: 85})

	baseline := []BaselineRecord{
		{T: intPtr(0), Sys: floatPtr(120), Dia: floatPtr(80)},
		{T: intPtr(1), Sys: floatPtr(122), Dia: floatPtr(81)},
	}
	got, err := svc.Rebuild(ctx, baseline)
	if err != nil {
		t.Fatalf("Rebuild failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}
	for i, rec := range got {
		if rec.T != i {
			t.Errorf("record %d has t=%d", i, rec.T)
		}
	}

	next, err := svc.Append(ctx, Entry{Sys: 125, Dia: 82})
	if err != nil || next.T != 3 {
		t.Errorf("append after rebuild got t=%d, %v", next.T, err)
	}

	if err := svc.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if got, _ := svc.Snapshot(ctx); len(got) != 0 {
		t.Errorf("expected empty history, got %d", len(got))
	}
}

func TestMerge_Ordering(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 5, d, 8, 0, 0, 0, time.UTC) }

	baseline := []BaselineRecord{
		{Sys: floatPtr(1), Dia: floatPtr(1), TS: msPtr(day(9).UnixMilli())},
		{T: intPtr(1), Sys: floatPtr(2), Dia: floatPtr(2)},
		{Sys: floatPtr(3), Dia: floatPtr(3), TS: msPtr(day(2).UnixMilli())},
		{T: intPtr(0), Sys: floatPtr(4), Dia: floatPtr(4), Time: timePtr(day(5))},
	}
	appended := []model.HistoryRecord{
		{T: 0, Time: day(1), Sys: 5, Dia: 5},
	}

	got := Merge(baseline, appended)

	// t first (ties by time), then the records without t by time
	wantSys := []float64{5, 4, 2, 3, 1}
	if len(got) != len(wantSys) {
		t.Fatalf("expected %d records, got %d", len(wantSys), len(got))
	}
	for i, want := range wantSys {
		if got[i].Sys != want || got[i].T != i {
			t.Errorf("position %d = t%d sys %v, expected t%d sys %v", i, got[i].T, got[i].Sys, i, want)
		}
	}
	if !got[4].Time.Equal(day(9)) {
		t.Errorf("ts should convert from milliseconds, got %v", got[4].Time)
	}
}

func TestMerge_TiesKeepInputOrder(t *testing.T) {
	baseline := []BaselineRecord{
		{Sys: floatPtr(1)},
		{Sys: floatPtr(2)},
	}
	got := Merge(baseline, []model.HistoryRecord{{T: 0, Sys: 3}})

	if got[0].Sys != 3 || got[1].Sys != 1 || got[2].Sys != 2 {
		t.Errorf("unexpected order: %v %v %v", got[0].Sys, got[1].Sys, got[2].Sys)
	}
	if !math.IsNaN(got[1].Dia) {
		t.Errorf("missing dia should become NaN, got %v", got[1].Dia)
	}
}

func TestMerge_DoesNotModifyInput(t *testing.T) {
	appended := []model.HistoryRecord{{T: 7, Sys: 1}}
	Merge(nil, appended)
	if appended[0].T != 7 {
		t.Error("Merge rewrote its input")
	}
	if got := Merge(nil, nil); len(got) != 0 {
		t.Errorf("expected empty result, got %v", got)
	}
}

func TestParseBaseline(t *testing.T) {
	input := `[
		{"t":0,"sys":120,"dia":80,"ts":1717228800000},
		{"sys":121,"dia":null,"pulse":66,"time":"2024-06-02T08:00:00Z"}
	]`
	records, err := ParseBaseline(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseBaseline failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].T == nil || *records[0].T != 0 || records[0].Timestamp().UnixMilli() != 1717228800000 {
		t.Errorf("first record = %+v", records[0])
	}
	if records[1].T != nil || records[1].Dia != nil || records[1].Pulse == nil {
		t.Errorf("second record = %+v", records[1])
	}
	if got := records[1].Timestamp(); !got.Equal(time.Date(2024, 6, 2, 8, 0, 0, 0, time.UTC)) {
		t.Errorf("time = %v", got)
	}

	if _, err := ParseBaseline(strings.NewReader(`{"sys":1}`)); err == nil {
		t.Error("expected an error for a non-array baseline")
	}
}

func timePtr(v time.Time) *time.Time { return &v }
