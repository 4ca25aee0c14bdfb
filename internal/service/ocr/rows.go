package ocr

import (
	"fmt"
	"sort"
)

// RowSplitMode selects how boxes are divided into the top and bottom rows.
type RowSplitMode string

const (
	// SplitMedian uses the median box center as the split line. Boxes strictly
	// above it are the top row. With an odd split such as three top digits over
	// two bottom digits the median falls on the top row and the top comes back
	// empty.
	SplitMedian RowSplitMode = "median"
	// SplitGap splits at the widest gap between consecutive sorted centers.
	SplitGap RowSplitMode = "gap"
)

// ParseRowSplitMode accepts "median" (or empty) and "gap".
func ParseRowSplitMode(s string) (RowSplitMode, error) {
	switch RowSplitMode(s) {
	case "", SplitMedian:
		return SplitMedian, nil
	case SplitGap:
		return SplitGap, nil
	}
	return "", fmt.Errorf("unknown row split mode %q", s)
}

// SplitRows divides boxes into top and bottom rows, each ordered by x.
func SplitRows(boxes []BoundingBox, mode RowSplitMode) (top, bottom []BoundingBox) {
	top, bottom = []BoundingBox{}, []BoundingBox{}
	if len(boxes) == 0 {
		return top, bottom
	}

	centers := make([]float64, len(boxes))
	for i, b := range boxes {
		centers[i] = b.CenterY()
	}
	sort.Float64s(centers)

	line := centers[len(centers)/2]
	if mode == SplitGap {
		line = widestGapMidpoint(centers)
	}

	for _, b := range boxes {
		if b.CenterY() < line {
			top = append(top, b)
		} else {
			bottom = append(bottom, b)
		}
	}

	byX := func(row []BoundingBox) {
		sort.SliceStable(row, func(i, j int) bool { return row[i].X < row[j].X })
	}
	byX(top)
	byX(bottom)
	return top, bottom
}

// widestGapMidpoint returns the midpoint of the largest gap in sorted centers.
// With fewer than two centers everything lands in the bottom row.
func widestGapMidpoint(centers []float64) float64 {
	if len(centers) < 2 {
		return centers[0]
	}
	best, line := -1.0, centers[0]
	for i := 1; i < len(centers); i++ {
		if gap := centers[i] - centers[i-1]; gap > best {
			best = gap
			line = (centers[i] + centers[i-1]) / 2
		}
	}
	if best <= 0 {
		return centers[0]
	}
	return line
}
