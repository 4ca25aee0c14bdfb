package trend

import (
	"math"
	"sort"
)

// madToSigma scales the median absolute deviation to a normal-equivalent
// standard deviation.
const madToSigma = 1.4826

// Median returns the middle value, averaging the two middle values for an
// even count. NaN for empty input. The input is not modified.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// RobustScale is 1.4826 * median(|r - median(r)|).
func RobustScale(residuals []float64) float64 {
	if len(residuals) == 0 {
		return 0
	}
	m := Median(residuals)
	dev := make([]float64, len(residuals))
	for i, r := range residuals {
		dev[i] = math.Abs(r - m)
	}
	return madToSigma * Median(dev)
}
