package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"bpmonitor/internal/logger"
	"bpmonitor/internal/model"
)

const SourceRemote = "remote"

// remoteRequest is the body posted to the recognition service.
type remoteRequest struct {
	Image string `json:"image"` // base64
	Mime  string `json:"mime,omitempty"`
}

// remoteResponse is what the service returns. Confidence is optional.
type remoteResponse struct {
	Sys        *int     `json:"sys"`
	Dia        *int     `json:"dia"`
	Pulse      *int     `json:"pulse"`
	Confidence *float64 `json:"confidence"`
}

// RemoteRecognizer delegates recognition to an HTTP service.
type RemoteRecognizer struct {
	endpoint string
	token    string
	client   *http.Client
	logger   *logger.Logger
}

func NewRemoteRecognizer(endpoint, token string, timeout time.Duration, logger *logger.Logger) *RemoteRecognizer {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &RemoteRecognizer{
		endpoint: endpoint,
		token:    token,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

func (r *RemoteRecognizer) Name() string {
	return SourceRemote
}

// Recognize posts the image and maps the answer to a Reading. Transport
// failures, non-2xx answers and malformed payloads give a Reading with absent
// rows and an error wrapping model.ErrRecognitionIncomplete.
func (r *RemoteRecognizer) Recognize(ctx context.Context, data []byte) (model.Reading, error) {
	empty := model.Reading{Source: SourceRemote}
	if len(data) == 0 {
		return empty, fmt.Errorf("empty payload: %w", model.ErrInvalidImage)
	}

	resp, err := r.call(ctx, data)
	if err != nil {
		r.logger.Warning("Remote recognizer failed: %v", err)
		return empty, fmt.Errorf("remote recognizer: %v: %w", err, model.ErrRecognitionIncomplete)
	}

	reading := readingFromRemote(resp)
	if err := reading.Err(); err != nil {
		r.logger.Warning("Remote recognizer returned an incomplete reading")
		return reading, err
	}
	return reading, nil
}

func (r *RemoteRecognizer) call(ctx context.Context, data []byte) (*remoteResponse, error) {
	body, err := json.Marshal(remoteRequest{
		Image: base64.StdEncoding.EncodeToString(data),
		Mime:  sniffImageMime(data),
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(b))
	}

	var out remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

// readingFromRemote validates the payload. Negative values count as missing.
// A present value without a confidence gets 1.0.
func readingFromRemote(resp *remoteResponse) model.Reading {
	conf := 1.0
	if resp.Confidence != nil {
		conf = clamp01(*resp.Confidence)
	}

	row := func(v *int) model.RowReading {
		if v == nil || *v < 0 {
			return model.RowReading{}
		}
		value := *v
		return model.RowReading{Value: &value, Confidence: conf}
	}

	reading := model.Reading{
		Sys:    row(resp.Sys),
		Dia:    row(resp.Dia),
		Source: SourceRemote,
	}
	if resp.Pulse != nil && *resp.Pulse >= 0 {
		pulse := *resp.Pulse
		reading.Pulse = &pulse
	}
	reading.Confidence = min(reading.Sys.Confidence, reading.Dia.Confidence)
	return reading
}

func sniffImageMime(b []byte) string {
	switch {
	case len(b) >= 2 && b[0] == 0xFF && b[1] == 0xD8:
		return "image/jpeg"
	case len(b) >= 8 && bytes.Equal(b[:8], []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}):
		return "image/png"
	}
	return http.DetectContentType(b)
}
