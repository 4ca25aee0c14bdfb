package model

import "fmt"

// RowReading is the decoded value of one display row.
type RowReading struct {
	Value      *int    `json:"value"`
	Confidence float64 `json:"confidence"`
}

// Present reports whether the row produced a number.
func (r RowReading) Present() bool {
	return r.Value != nil
}

// Reading is one recognized display.
type Reading struct {
	Sys        RowReading `json:"sys"`
	Dia        RowReading `json:"dia"`
	Pulse      *int       `json:"pulse,omitempty"`
	Confidence float64    `json:"confidence"`
	Source     string     `json:"source"`
}

// Complete reports whether both systolic and diastolic values were read.
func (r Reading) Complete() bool {
	return r.Sys.Present() && r.Dia.Present()
}

// Err returns ErrRecognitionIncomplete (wrapped with the missing rows) when
// the reading is not complete.
func (r Reading) Err() error {
	switch {
	case r.Complete():
		return nil
	case !r.Sys.Present() && !r.Dia.Present():
		return fmt.Errorf("sys and dia missing: %w", ErrRecognitionIncomplete)
	case !r.Sys.Present():
		return fmt.Errorf("sys missing: %w", ErrRecognitionIncomplete)
	default:
		return fmt.Errorf("dia missing: %w", ErrRecognitionIncomplete)
	}
}
