// Package trend decides whether a new blood-pressure reading follows the
// recent history. Each metric gets an ordinary least-squares line over the
// time index t; the candidate is an outlier when its distance from the line
// exceeds max(MinAbsThreshold, K * robust scale of the historical residuals).
package trend

import (
	"fmt"
	"math"

	"bpmonitor/internal/model"
)

const (
	MetricSys = "sys"
	MetricDia = "dia"
)

// Options tune the judge.
type Options struct {
	// K multiplies the robust residual scale.
	K float64
	// MinAbsThreshold is the smallest allowed threshold, in mmHg.
	MinAbsThreshold float64
	// MinPoints is the minimum history needed to judge at all.
	MinPoints int
}

func DefaultOptions() Options {
	return Options{K: 3.0, MinAbsThreshold: 8, MinPoints: 5}
}

// Judge is stateless and safe for concurrent use.
type Judge struct {
	opts Options
}

func NewJudge(opts Options) *Judge {
	def := DefaultOptions()
	if opts.K <= 0 {
		opts.K = def.K
	}
	if opts.MinAbsThreshold < 0 {
		opts.MinAbsThreshold = def.MinAbsThreshold
	}
	if opts.MinPoints < 2 {
		opts.MinPoints = def.MinPoints
	}
	return &Judge{opts: opts}
}

func (j *Judge) Options() Options {
	return j.opts
}

// Judge evaluates candidate against history (ascending t). Too little history
// is not an error: the verdict carries InsufficientData instead. A candidate
// with a non-finite sys or dia returns model.ErrInvalidCandidate. history is
// never modified.
func (j *Judge) Judge(history []model.HistoryRecord, candidate model.HistoryRecord) (model.TrendVerdict, error) {
	if !candidate.Valid() {
		return model.TrendVerdict{}, fmt.Errorf("sys=%v dia=%v: %w", candidate.Sys, candidate.Dia, model.ErrInvalidCandidate)
	}

	verdict := model.TrendVerdict{
		T:     candidate.T,
		Pulse: candidate.Pulse,
		Sys:   model.MetricVerdict{Metric: MetricSys, Actual: candidate.Sys},
		Dia:   model.MetricVerdict{Metric: MetricDia, Actual: candidate.Dia},
	}

	if len(history) < j.opts.MinPoints {
		verdict.InsufficientData = true
		verdict.Sys.InsufficientData = true
		verdict.Sys.Points = len(history)
		verdict.Dia.InsufficientData = true
		verdict.Dia.Points = len(history)
		return verdict, nil
	}

	verdict.Judged = true
	verdict.Sys = j.judgeMetric(MetricSys, history, func(r model.HistoryRecord) float64 { return r.Sys }, candidate.T, candidate.Sys)
	verdict.Dia = j.judgeMetric(MetricDia, history, func(r model.HistoryRecord) float64 { return r.Dia }, candidate.T, candidate.Dia)
	verdict.Deviant = verdict.Sys.IsOutlier || verdict.Dia.IsOutlier
	return verdict, nil
}

func (j *Judge) judgeMetric(name string, history []model.HistoryRecord, pick func(model.HistoryRecord) float64,
	t int, actual float64) model.MetricVerdict {
	ts := make([]float64, 0, len(history))
	ys := make([]float64, 0, len(history))
	for _, r := range history {
		v := pick(r)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		ts = append(ts, float64(r.T))
		ys = append(ys, v)
	}

	v := j.JudgeSeries(ts, ys, float64(t), actual)
	v.Metric = name
	return v
}

// JudgeSeries judges actual at time t against the finite series (ts, ys).
func (j *Judge) JudgeSeries(ts, ys []float64, t, actual float64) model.MetricVerdict {
	v := model.MetricVerdict{Points: len(ts), Actual: actual}
	if len(ts) < j.opts.MinPoints {
		v.InsufficientData = true
		return v
	}

	fit := FitLine(ts, ys)
	scale := RobustScale(fit.Residuals(ts, ys))

	v.Judged = true
	v.Slope = fit.Slope
	v.Intercept = fit.Intercept
	v.Predicted = fit.At(t)
	v.Error = actual - v.Predicted
	v.Scale = scale
	v.Threshold = math.Max(j.opts.MinAbsThreshold, j.opts.K*scale)
	v.IsOutlier = math.Abs(v.Error) > v.Threshold
	return v
}

// FixedModel is a user-supplied trend line per metric with one absolute
// threshold, used instead of fitting the history.
type FixedModel struct {
	Sys       LinearFit
	Dia       LinearFit
	Threshold float64
}

// JudgeFixed judges candidate against m. History length does not matter.
func JudgeFixed(m FixedModel, candidate model.HistoryRecord) (model.TrendVerdict, error) {
	if !candidate.Valid() {
		return model.TrendVerdict{}, fmt.Errorf("sys=%v dia=%v: %w", candidate.Sys, candidate.Dia, model.ErrInvalidCandidate)
	}
	if math.IsNaN(m.Threshold) || m.Threshold < 0 {
		return model.TrendVerdict{}, fmt.Errorf("threshold %v: %w", m.Threshold, model.ErrInvalidCandidate)
	}

	verdict := model.TrendVerdict{
		T:      candidate.T,
		Judged: true,
		Pulse:  candidate.Pulse,
		Sys:    fixedMetric(MetricSys, m.Sys, m.Threshold, candidate.T, candidate.Sys),
		Dia:    fixedMetric(MetricDia, m.Dia, m.Threshold, candidate.T, candidate.Dia),
	}
	verdict.Deviant = verdict.Sys.IsOutlier || verdict.Dia.IsOutlier
	return verdict, nil
}

func fixedMetric(name string, line LinearFit, threshold float64, t int, actual float64) model.MetricVerdict {
	v := model.MetricVerdict{
		Metric:    name,
		Judged:    true,
		Slope:     line.Slope,
		Intercept: line.Intercept,
		Predicted: line.At(float64(t)),
		Actual:    actual,
		Threshold: threshold,
	}
	v.Error = actual - v.Predicted
	v.IsOutlier = math.Abs(v.Error) > threshold
	return v
}
