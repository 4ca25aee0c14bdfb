// Package history owns the ordered measurement history: the dense time index
// t, appends, and rebuilding from an imported baseline.
package history

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bpmonitor/internal/logger"
	"bpmonitor/internal/model"
	"bpmonitor/internal/repository"
)

// Entry is a measurement that has not been given a t yet.
type Entry struct {
	Time  time.Time
	Sys   float64
	Dia   float64
	Pulse *float64
}

// CheckFunc inspects the current history and the record about to be appended
// and decides whether to keep it.
type CheckFunc func(snapshot []model.HistoryRecord, next model.HistoryRecord) (keep bool, err error)

// Service serializes history changes so t stays dense.
type Service struct {
	repo   repository.HistoryRepository
	logger *logger.Logger
	mu     sync.Mutex
}

func NewService(repo repository.HistoryRepository, logger *logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Snapshot returns a copy of the history ordered by t.
func (s *Service) Snapshot(ctx context.Context) ([]model.HistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.Load(ctx)
}

// Append stores e as the next record.
func (s *Service) Append(ctx context.Context, e Entry) (model.HistoryRecord, error) {
	rec, _, err := s.AppendIf(ctx, e, nil)
	return rec, err
}

// AppendIf builds the next record (t = len(history)) and runs check against
// the snapshot while holding the history lock. The record is stored only when
// check is nil or returns true.
func (s *Service) AppendIf(ctx context.Context, e Entry, check CheckFunc) (model.HistoryRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot, err := s.repo.Load(ctx)
	if err != nil {
		return model.HistoryRecord{}, false, fmt.Errorf("load history: %w", err)
	}

	next := model.HistoryRecord{
		T:     len(snapshot),
		Time:  e.Time,
		Sys:   e.Sys,
		Dia:   e.Dia,
		Pulse: e.Pulse,
	}
	if next.Time.IsZero() {
		next.Time = time.Now().UTC()
	}

	if check != nil {
		keep, err := check(snapshot, next)
		if err != nil || !keep {
			return next, false, err
		}
	}

	if err := s.repo.Append(ctx, next); err != nil {
		return next, false, fmt.Errorf("append history: %w", err)
	}
	s.logger.Info("History t=%d appended: %.0f/%.0f", next.T, next.Sys, next.Dia)
	return next, true, nil
}

// Rebuild merges baseline with the stored history, reassigns t densely and
// replaces the stored list. It returns the new history.
func (s *Service) Rebuild(ctx context.Context, baseline []BaselineRecord) ([]model.HistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	merged := Merge(baseline, stored)
	if err := s.repo.Replace(ctx, merged); err != nil {
		return nil, fmt.Errorf("replace history: %w", err)
	}
	s.logger.Info("History rebuilt: %d baseline + %d stored = %d records", len(baseline), len(stored), len(merged))
	return merged, nil
}

// Clear drops the whole history.
func (s *Service) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Clear(ctx); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	s.logger.Info("History cleared")
	return nil
}
