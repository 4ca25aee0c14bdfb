package model

import (
	"encoding/json"
	"math"
	"time"
)

// HistoryRecord is one stored measurement. T is the dense time index used by
// the trend fit. Missing metrics are NaN.
type HistoryRecord struct {
	T     int
	Time  time.Time
	Sys   float64
	Dia   float64
	Pulse *float64
}

// Valid reports whether both blood-pressure metrics are finite.
func (r HistoryRecord) Valid() bool {
	return isFinite(r.Sys) && isFinite(r.Dia)
}

type historyRecordJSON struct {
	T     int       `json:"t"`
	Time  time.Time `json:"time"`
	Sys   *float64  `json:"sys"`
	Dia   *float64  `json:"dia"`
	Pulse *float64  `json:"pulse,omitempty"`
}

// MarshalJSON writes missing metrics as null.
func (r HistoryRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(historyRecordJSON{
		T:     r.T,
		Time:  r.Time,
		Sys:   finiteOrNil(r.Sys),
		Dia:   finiteOrNil(r.Dia),
		Pulse: r.Pulse,
	})
}

// UnmarshalJSON reads null metrics back as NaN.
func (r *HistoryRecord) UnmarshalJSON(data []byte) error {
	var aux historyRecordJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.T = aux.T
	r.Time = aux.Time
	r.Sys = valueOrNaN(aux.Sys)
	r.Dia = valueOrNaN(aux.Dia)
	r.Pulse = aux.Pulse
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func finiteOrNil(v float64) *float64 {
	if !isFinite(v) {
		return nil
	}
	return &v
}

func valueOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
