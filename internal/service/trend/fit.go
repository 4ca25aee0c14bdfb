package trend

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// degenerateDenominator is the smallest n*sum(t^2) - sum(t)^2 still fitted.
const degenerateDenominator = 1e-9

// LinearFit is value = Slope*t + Intercept.
type LinearFit struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
}

// At evaluates the line at t.
func (f LinearFit) At(t float64) float64 {
	return f.Slope*t + f.Intercept
}

// FitLine is an ordinary least-squares fit of y on t. With fewer than two
// points or t values that are all (nearly) equal it returns a flat line at
// the mean of y.
func FitLine(t, y []float64) LinearFit {
	n := float64(len(t))
	if len(t) == 0 {
		return LinearFit{}
	}
	if len(t) < 2 || n*floats.Dot(t, t)-floats.Sum(t)*floats.Sum(t) < degenerateDenominator {
		return LinearFit{Slope: 0, Intercept: stat.Mean(y, nil)}
	}
	intercept, slope := stat.LinearRegression(t, y, nil, false)
	return LinearFit{Slope: slope, Intercept: intercept}
}

// Residuals returns y - fit(t) for each point.
func (f LinearFit) Residuals(t, y []float64) []float64 {
	out := make([]float64, len(t))
	for i := range t {
		out[i] = y[i] - f.At(t[i])
	}
	return out
}
