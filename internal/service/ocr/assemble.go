package ocr

import (
	"bpmonitor/internal/model"

	"gocv.io/x/gocv"
)

// AssembleRow joins the decoded digits of a row left to right. Undecodable
// digits are dropped, so a failed middle digit shifts the rest ("1?3" reads as
// 13). An empty row is absent with confidence 0.
func AssembleRow(digits []DigitReading) model.RowReading {
	value, kept := 0, 0
	var confSum float64
	for _, d := range digits {
		if !d.OK {
			continue
		}
		value = value*10 + d.Digit
		confSum += d.Confidence
		kept++
	}
	if kept == 0 {
		return model.RowReading{}
	}
	return model.RowReading{Value: &value, Confidence: confSum / float64(kept)}
}

// ReadRow classifies every box of a row and assembles the result.
func ReadRow(mask gocv.Mat, row []BoundingBox, onThreshold float64) (model.RowReading, []DigitReading) {
	digits := make([]DigitReading, 0, len(row))
	for _, b := range row {
		digits = append(digits, ClassifyDigit(mask, b, onThreshold))
	}
	return AssembleRow(digits), digits
}
