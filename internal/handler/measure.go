package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"bpmonitor/internal/config"
	"bpmonitor/internal/dto"
	"bpmonitor/internal/logger"
	"bpmonitor/internal/model"
	"bpmonitor/internal/service"
)

// MeasureHandler handles POST /api/measure: recognize the uploaded photo,
// judge it against the history and store it.
func MeasureHandler(manager *service.Manager, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethods(w, r, http.MethodPost) {
			return
		}
		image, err := readImage(w, r, cfg.MaxUploadMB<<20)
		if err != nil {
			writeError(w, logger, statusFor(err), err)
			return
		}

		result, err := manager.Measure(r.Context(), image)
		if err != nil {
			status := statusFor(err)
			if status == http.StatusInternalServerError {
				logger.Error("Measurement failed: %v", err)
			}
			if errors.Is(err, model.ErrRecognitionIncomplete) {
				// the partial reading is still useful to the caller
				writeJSON(w, logger, status, result)
				return
			}
			writeError(w, logger, status, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, result)
	}
}

// RecognizeHandler handles POST /api/recognize: read the display only.
func RecognizeHandler(manager *service.Manager, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethods(w, r, http.MethodPost) {
			return
		}
		image, err := readImage(w, r, cfg.MaxUploadMB<<20)
		if err != nil {
			writeError(w, logger, statusFor(err), err)
			return
		}

		reading, err := manager.Recognize(r.Context(), image)
		switch {
		case errors.Is(err, model.ErrRecognitionIncomplete):
			writeJSON(w, logger, http.StatusUnprocessableEntity, dto.MeasurementResult{
				Reading: &reading,
				Status:  model.StatusUnrecognized,
				Error:   err.Error(),
			})
		case err != nil:
			writeError(w, logger, statusFor(err), err)
		default:
			writeJSON(w, logger, http.StatusOK, reading)
		}
	}
}

// JudgeHandler handles POST /api/judge with a manually entered candidate.
func JudgeHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethods(w, r, http.MethodPost) {
			return
		}
		var req dto.JudgeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, logger, http.StatusBadRequest, fmt.Errorf("invalid request: %v", err))
			return
		}

		result, err := manager.Judge(r.Context(), req)
		if err != nil {
			status := statusFor(err)
			if status == http.StatusInternalServerError {
				logger.Error("Judge failed: %v", err)
			}
			writeError(w, logger, status, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, result)
	}
}
