package dto

// LineCoefficients is y = Slope*t + Intercept.
type LineCoefficients struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
}

// FixedModelRequest replaces the fitted trend with user-entered lines.
type FixedModelRequest struct {
	Sys       LineCoefficients `json:"sys"`
	Dia       LineCoefficients `json:"dia"`
	Threshold float64          `json:"threshold"`
}

// JudgeRequest is a manually entered candidate. Append stores it in the
// history after judging.
type JudgeRequest struct {
	Sys    *float64           `json:"sys"`
	Dia    *float64           `json:"dia"`
	Pulse  *float64           `json:"pulse,omitempty"`
	Append bool               `json:"append"`
	Model  *FixedModelRequest `json:"model,omitempty"`
}
