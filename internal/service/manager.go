package service

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"

	"bpmonitor/internal/dto"
	"bpmonitor/internal/logger"
	"bpmonitor/internal/model"
	"bpmonitor/internal/service/history"
	"bpmonitor/internal/service/ocr"
	"bpmonitor/internal/service/storage"
	"bpmonitor/internal/service/trend"
	"bpmonitor/internal/service/websocket"
)

// Manager ties recognition, trend judgment and the history together.
type Manager struct {
	recognizer       ocr.Recognizer
	judge            *trend.Judge
	historyService   *history.Service
	websocketService *websocket.HubService
	captureService   *storage.CaptureService
	logger           *logger.Logger
	now              func() time.Time
}

func NewManager(recognizer ocr.Recognizer, judge *trend.Judge, historyService *history.Service,
	websocketService *websocket.HubService, logger *logger.Logger) *Manager {
	m := &Manager{
		recognizer:       recognizer,
		judge:            judge,
		historyService:   historyService,
		websocketService: websocketService,
		logger:           logger,
		now:              func() time.Time { return time.Now().UTC() },
	}
	m.logger.Info("Manager started - recognizer %s, k=%.1f, min threshold %.1f, min points %d",
		recognizer.Name(), judge.Options().K, judge.Options().MinAbsThreshold, judge.Options().MinPoints)
	return m
}

// SetCaptureService makes Measure archive photos it could not fully read.
func (m *Manager) SetCaptureService(c *storage.CaptureService) {
	m.captureService = c
}

// Recognize reads the display without touching the history.
func (m *Manager) Recognize(ctx context.Context, image []byte) (model.Reading, error) {
	return m.recognizer.Recognize(ctx, image)
}

// Measure recognizes image, judges the reading against the history and
// appends it. An incomplete reading is returned with its error and nothing is
// stored; an invalid image returns only the error.
func (m *Manager) Measure(ctx context.Context, image []byte) (dto.MeasurementResult, error) {
	reading, err := m.recognizer.Recognize(ctx, image)
	if err != nil {
		if errors.Is(err, model.ErrRecognitionIncomplete) {
			m.logger.Warning("Recognition failed (%s): %v", reading.Source, err)
			if m.captureService != nil {
				m.captureService.Add(image, model.StatusUnrecognized)
			}
			return dto.MeasurementResult{
				Reading: &reading,
				Status:  model.StatusUnrecognized,
				Error:   err.Error(),
			}, err
		}
		return dto.MeasurementResult{}, err
	}

	entry := history.Entry{
		Time: m.now(),
		Sys:  float64(*reading.Sys.Value),
		Dia:  float64(*reading.Dia.Value),
	}
	if reading.Pulse != nil {
		pulse := float64(*reading.Pulse)
		entry.Pulse = &pulse
	}

	result, err := m.judgeEntry(ctx, entry, true, m.judge.Judge)
	if err != nil {
		return dto.MeasurementResult{Reading: &reading}, err
	}
	result.Reading = &reading

	m.logger.Info("Measured %d/%d (confidence %.2f): %s",
		*reading.Sys.Value, *reading.Dia.Value, reading.Confidence, result.Status)
	m.publishMeasurement(result)
	return result, nil
}

// Judge judges a manually entered candidate and appends it when req.Append is
// set. Without req.Model the trend is fitted from the history.
func (m *Manager) Judge(ctx context.Context, req dto.JudgeRequest) (dto.MeasurementResult, error) {
	entry := history.Entry{
		Time:  m.now(),
		Sys:   valueOrNaN(req.Sys),
		Dia:   valueOrNaN(req.Dia),
		Pulse: req.Pulse,
	}

	judgeFn := m.judge.Judge
	if req.Model != nil {
		fixed := trend.FixedModel{
			Sys:       trend.LinearFit{Slope: req.Model.Sys.Slope, Intercept: req.Model.Sys.Intercept},
			Dia:       trend.LinearFit{Slope: req.Model.Dia.Slope, Intercept: req.Model.Dia.Intercept},
			Threshold: req.Model.Threshold,
		}
		judgeFn = func(_ []model.HistoryRecord, candidate model.HistoryRecord) (model.TrendVerdict, error) {
			return trend.JudgeFixed(fixed, candidate)
		}
	}

	result, err := m.judgeEntry(ctx, entry, req.Append, judgeFn)
	if err != nil {
		return dto.MeasurementResult{}, err
	}
	if result.Appended {
		m.publishMeasurement(result)
	}
	return result, nil
}

type judgeFunc func(history []model.HistoryRecord, candidate model.HistoryRecord) (model.TrendVerdict, error)

// judgeEntry runs judge on the next record while the history is locked, so
// the verdict and the stored t come from the same snapshot.
func (m *Manager) judgeEntry(ctx context.Context, entry history.Entry, store bool, judge judgeFunc) (dto.MeasurementResult, error) {
	var verdict model.TrendVerdict
	rec, kept, err := m.historyService.AppendIf(ctx, entry, func(snapshot []model.HistoryRecord, next model.HistoryRecord) (bool, error) {
		v, err := judge(snapshot, next)
		if err != nil {
			return false, err
		}
		verdict = v
		return store, nil
	})
	if err != nil {
		return dto.MeasurementResult{}, err
	}

	result := dto.MeasurementResult{
		Verdict:  &verdict,
		Status:   verdict.Status(),
		Appended: kept,
	}
	if kept {
		result.Record = &rec
	}
	if err := verdict.Err(); err != nil {
		m.logger.Info("t=%d judged with too little history: %v", verdict.T, err)
	} else if verdict.Deviant {
		m.logger.Warning("t=%d deviates from trend: sys err %.2f (thr %.2f), dia err %.2f (thr %.2f)",
			verdict.T, verdict.Sys.Error, verdict.Sys.Threshold, verdict.Dia.Error, verdict.Dia.Threshold)
	}
	return result, nil
}

// History returns the stored history ordered by t.
func (m *Manager) History(ctx context.Context) ([]model.HistoryRecord, error) {
	return m.historyService.Snapshot(ctx)
}

func (m *Manager) ClearHistory(ctx context.Context) error {
	if err := m.historyService.Clear(ctx); err != nil {
		return err
	}
	m.publish(dto.HistoryEvent{Type: dto.EventHistoryCleared})
	return nil
}

// ImportBaseline merges an exported history into the stored one.
func (m *Manager) ImportBaseline(ctx context.Context, baseline []history.BaselineRecord) ([]model.HistoryRecord, error) {
	records, err := m.historyService.Rebuild(ctx, baseline)
	if err != nil {
		return nil, err
	}
	m.publish(dto.HistoryEvent{Type: dto.EventHistoryRebuilt, Count: len(records)})
	return records, nil
}

func (m *Manager) GetWebsocketService() *websocket.HubService {
	return m.websocketService
}

func (m *Manager) publishMeasurement(result dto.MeasurementResult) {
	if result.Record == nil || result.Verdict == nil {
		return
	}
	m.publish(dto.MeasurementEvent{
		Type:    dto.EventMeasurement,
		Reading: result.Reading,
		Verdict: *result.Verdict,
		Status:  result.Status,
		Record:  *result.Record,
	})
}

func (m *Manager) publish(event any) {
	if m.websocketService == nil {
		return
	}
	msg, err := json.Marshal(event)
	if err != nil {
		m.logger.Error("Failed to encode event: %v", err)
		return
	}
	m.websocketService.Broadcast(msg)
}

func valueOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
