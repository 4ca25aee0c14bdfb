package handler

import (
	"net/http"

	"bpmonitor/internal/config"
	"bpmonitor/internal/dto"
	"bpmonitor/internal/logger"
	"bpmonitor/internal/model"
	"bpmonitor/internal/service"
	"bpmonitor/internal/service/history"
)

// HistoryHandler lists the history on GET and clears it on DELETE.
func HistoryHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethods(w, r, http.MethodGet, http.MethodDelete) {
			return
		}

		if r.Method == http.MethodDelete {
			if err := manager.ClearHistory(r.Context()); err != nil {
				logger.Error("Error clearing history: %v", err)
				writeError(w, logger, http.StatusInternalServerError, err)
				return
			}
			writeJSON(w, logger, http.StatusOK, dto.HistoryData{Records: []model.HistoryRecord{}})
			return
		}

		records, err := manager.History(r.Context())
		if err != nil {
			logger.Error("Error loading history: %v", err)
			writeError(w, logger, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, dto.HistoryData{Records: records, Length: len(records)})
	}
}

// ImportHistoryHandler handles POST /api/history/import with a JSON array of
// exported records and rebuilds the history from it.
func ImportHistoryHandler(manager *service.Manager, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethods(w, r, http.MethodPost) {
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxUploadMB<<20)

		baseline, err := history.ParseBaseline(r.Body)
		if err != nil {
			writeError(w, logger, http.StatusBadRequest, err)
			return
		}

		records, err := manager.ImportBaseline(r.Context(), baseline)
		if err != nil {
			logger.Error("Error importing baseline: %v", err)
			writeError(w, logger, http.StatusInternalServerError, err)
			return
		}
		logger.Info("Imported %d baseline records", len(baseline))
		writeJSON(w, logger, http.StatusOK, dto.HistoryData{Records: records, Length: len(records)})
	}
}
