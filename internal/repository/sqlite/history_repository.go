package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"bpmonitor/internal/model"
)

// HistoryRepository implements repository.HistoryRepository for SQLite.
type HistoryRepository struct {
	db *DB
}

// NewHistoryRepository creates a new SQLite history repository.
func NewHistoryRepository(db *DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Load returns every record ordered by t.
func (r *HistoryRepository) Load(ctx context.Context) ([]model.HistoryRecord, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().QueryContext(ctx, `
		SELECT t, measured_at, sys, dia, pulse
		FROM history ORDER BY t ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	records := []model.HistoryRecord{}
	for rows.Next() {
		var (
			rec           model.HistoryRecord
			sys, dia, pul sql.NullFloat64
		)
		if err := rows.Scan(&rec.T, &rec.Time, &sys, &dia, &pul); err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		rec.Sys = nullToNaN(sys)
		rec.Dia = nullToNaN(dia)
		if pul.Valid {
			p := pul.Float64
			rec.Pulse = &p
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return records, nil
}

// Append inserts one record. Its t must not already exist.
func (r *HistoryRepository) Append(ctx context.Context, rec model.HistoryRecord) error {
	r.db.Lock()
	defer r.db.Unlock()

	_, err := r.db.Conn().ExecContext(ctx, `
		INSERT INTO history (t, measured_at, sys, dia, pulse)
		VALUES (?, ?, ?, ?, ?)
	`, recordArgs(rec)...)
	if err != nil {
		return fmt.Errorf("failed to insert history record: %w", err)
	}
	return nil
}

// Replace deletes the stored history and inserts records in one transaction.
func (r *HistoryRepository) Replace(ctx context.Context, records []model.HistoryRecord) error {
	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM history`); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO history (t, measured_at, sys, dia, pulse)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx, recordArgs(rec)...); err != nil {
			return fmt.Errorf("failed to insert history record t=%d: %w", rec.T, err)
		}
	}

	return tx.Commit()
}

// Clear removes all records.
func (r *HistoryRepository) Clear(ctx context.Context) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().ExecContext(ctx, `DELETE FROM history`); err != nil {
		return fmt.Errorf("failed to delete history: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (r *HistoryRepository) Close() error {
	return r.db.Close()
}

func recordArgs(rec model.HistoryRecord) []interface{} {
	var pulse interface{}
	if rec.Pulse != nil {
		pulse = *rec.Pulse
	}
	return []interface{}{rec.T, rec.Time.UTC(), nanToNull(rec.Sys), nanToNull(rec.Dia), pulse}
}

func nanToNull(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

func nullToNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
