package dto

import "bpmonitor/internal/model"

// MeasurementResult is what the measure and judge endpoints return.
type MeasurementResult struct {
	Reading  *model.Reading       `json:"reading,omitempty"`
	Verdict  *model.TrendVerdict  `json:"verdict,omitempty"`
	Status   string               `json:"status"`
	Record   *model.HistoryRecord `json:"record,omitempty"`
	Appended bool                 `json:"appended"`
	Error    string               `json:"error,omitempty"`
}

// MeasurementEvent is pushed to websocket viewers after each stored measurement.
type MeasurementEvent struct {
	Type    string              `json:"type"`
	Reading *model.Reading      `json:"reading,omitempty"`
	Verdict model.TrendVerdict  `json:"verdict"`
	Status  string              `json:"status"`
	Record  model.HistoryRecord `json:"record"`
}

const (
	EventMeasurement    = "measurement"
	EventHistoryCleared = "history_cleared"
	EventHistoryRebuilt = "history_rebuilt"
)

// HistoryEvent announces a whole-history change.
type HistoryEvent struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}
