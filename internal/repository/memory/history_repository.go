// Package memory keeps the history in process memory. Used when no durable
// backend is configured and by tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"bpmonitor/internal/model"
)

type HistoryRepository struct {
	mu      sync.RWMutex
	records []model.HistoryRecord
}

func NewHistoryRepository() *HistoryRepository {
	return &HistoryRepository{}
}

func (r *HistoryRepository) Load(ctx context.Context) ([]model.HistoryRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]model.HistoryRecord{}, r.records...), nil
}

func (r *HistoryRepository) Append(ctx context.Context, rec model.HistoryRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.records {
		if existing.T == rec.T {
			return fmt.Errorf("record t=%d already exists", rec.T)
		}
	}
	r.records = append(r.records, rec)
	sort.SliceStable(r.records, func(i, j int) bool { return r.records[i].T < r.records[j].T })
	return nil
}

func (r *HistoryRepository) Replace(ctx context.Context, records []model.HistoryRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sorted := append([]model.HistoryRecord(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].T < sorted[j].T })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].T == sorted[i-1].T {
			return fmt.Errorf("record t=%d already exists", sorted[i].T)
		}
	}

	r.mu.Lock()
	r.records = sorted
	r.mu.Unlock()
	return nil
}

func (r *HistoryRepository) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	r.records = nil
	r.mu.Unlock()
	return nil
}

func (r *HistoryRepository) Close() error { return nil }
