package history

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"bpmonitor/internal/model"
)

// BaselineRecord is one entry of an exported history. t, the timestamp and
// every metric are optional; ts is epoch milliseconds as the browser stored it.
type BaselineRecord struct {
	T     *int       `json:"t,omitempty"`
	Time  *time.Time `json:"time,omitempty"`
	TS    *int64     `json:"ts,omitempty"`
	Sys   *float64   `json:"sys"`
	Dia   *float64   `json:"dia"`
	Pulse *float64   `json:"pulse,omitempty"`
}

// Timestamp prefers time over ts. Zero when neither is set.
func (b BaselineRecord) Timestamp() time.Time {
	switch {
	case b.Time != nil:
		return b.Time.UTC()
	case b.TS != nil:
		return time.UnixMilli(*b.TS).UTC()
	}
	return time.Time{}
}

// ParseBaseline reads a JSON array of baseline records.
func ParseBaseline(r io.Reader) ([]BaselineRecord, error) {
	var records []BaselineRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("invalid baseline: %w", err)
	}
	return records, nil
}

type mergeItem struct {
	hasT bool
	t    int
	pos  int
	rec  model.HistoryRecord
}

// Merge combines baseline and appended records into one history. Records are
// ordered by their existing t (records without one go last), then by time,
// then by input position with the baseline first. t is then reassigned
// 0..N-1. Neither input is modified.
func Merge(baseline []BaselineRecord, appended []model.HistoryRecord) []model.HistoryRecord {
	items := make([]mergeItem, 0, len(baseline)+len(appended))
	for _, b := range baseline {
		it := mergeItem{
			pos: len(items),
			rec: model.HistoryRecord{
				Time:  b.Timestamp(),
				Sys:   valueOrNaN(b.Sys),
				Dia:   valueOrNaN(b.Dia),
				Pulse: b.Pulse,
			},
		}
		if b.T != nil {
			it.hasT, it.t = true, *b.T
		}
		items = append(items, it)
	}
	for _, rec := range appended {
		items = append(items, mergeItem{hasT: true, t: rec.T, pos: len(items), rec: rec})
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.hasT != b.hasT {
			return a.hasT
		}
		if a.hasT && a.t != b.t {
			return a.t < b.t
		}
		if !a.rec.Time.Equal(b.rec.Time) {
			return a.rec.Time.Before(b.rec.Time)
		}
		return a.pos < b.pos
	})

	out := make([]model.HistoryRecord, len(items))
	for i, it := range items {
		out[i] = it.rec
		out[i].T = i
	}
	return out
}

func valueOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
