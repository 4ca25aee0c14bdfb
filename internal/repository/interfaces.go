package repository

import (
	"context"

	"bpmonitor/internal/model"
)

// HistoryRepository stores the ordered measurement history.
type HistoryRepository interface {
	// Load returns all records ordered by ascending t.
	Load(ctx context.Context) ([]model.HistoryRecord, error)
	// Append adds one record at the end of the history.
	Append(ctx context.Context, rec model.HistoryRecord) error
	// Replace swaps the whole history atomically.
	Replace(ctx context.Context, records []model.HistoryRecord) error
	// Clear removes every record.
	Clear(ctx context.Context) error
	Close() error
}
