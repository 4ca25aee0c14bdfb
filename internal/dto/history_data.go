// HistoryData is the response payload for the history endpoints.
package dto

import "bpmonitor/internal/model"

type HistoryData struct {
	Records []model.HistoryRecord `json:"records"`
	Length  int                   `json:"length"`
}
