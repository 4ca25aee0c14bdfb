package model

// MetricVerdict is the trend judgment for a single metric.
type MetricVerdict struct {
	Metric           string  `json:"metric"`
	Judged           bool    `json:"judged"`
	InsufficientData bool    `json:"insufficientData"`
	Points           int     `json:"points"`
	Slope            float64 `json:"slope"`
	Intercept        float64 `json:"intercept"`
	Predicted        float64 `json:"predicted"`
	Actual           float64 `json:"actual"`
	Error            float64 `json:"error"`
	Scale            float64 `json:"scale"`
	Threshold        float64 `json:"threshold"`
	IsOutlier        bool    `json:"isOutlier"`
}

// TrendVerdict is the judgment of one candidate against the history.
type TrendVerdict struct {
	T                int           `json:"t"`
	Judged           bool          `json:"judged"`
	InsufficientData bool          `json:"insufficientData"`
	Deviant          bool          `json:"deviant"`
	Sys              MetricVerdict `json:"sys"`
	Dia              MetricVerdict `json:"dia"`
	Pulse            *float64      `json:"pulse,omitempty"`
}

const (
	StatusNormal       = "normal"
	StatusDecoupled    = "decoupled"
	StatusInsufficient = "insufficient"
	// StatusUnrecognized marks a measurement whose display could not be read.
	StatusUnrecognized = "unrecognized"
)

// Status is a short label for display.
func (v TrendVerdict) Status() string {
	switch {
	case v.Deviant:
		return StatusDecoupled
	case !v.Judged || v.Sys.InsufficientData || v.Dia.InsufficientData:
		return StatusInsufficient
	default:
		return StatusNormal
	}
}

// Err returns ErrInsufficientHistory if any metric could not be judged.
func (v TrendVerdict) Err() error {
	if v.InsufficientData || v.Sys.InsufficientData || v.Dia.InsufficientData {
		return ErrInsufficientHistory
	}
	return nil
}
