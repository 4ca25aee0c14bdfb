package handler

import (
	"net/http"

	"bpmonitor/internal/logger"
	"bpmonitor/internal/service"
)

type healthResponse struct {
	Status  string `json:"status"`
	Records int    `json:"records"`
	Viewers int    `json:"viewers"`
}

// HealthHandler reports liveness and whether the history store answers.
func HealthHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := manager.History(r.Context())
		if err != nil {
			logger.Error("Health check: history unavailable: %v", err)
			writeJSON(w, logger, http.StatusServiceUnavailable, healthResponse{Status: "degraded"})
			return
		}
		writeJSON(w, logger, http.StatusOK, healthResponse{
			Status:  "ok",
			Records: len(records),
			Viewers: manager.GetWebsocketService().GetClientCount(),
		})
	}
}
