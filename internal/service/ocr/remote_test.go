package ocr

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bpmonitor/internal/logger"
	"bpmonitor/internal/model"
)

var jpegMagic = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}

func newRemoteServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, expected POST", r.Method)
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRemoteRecognizer_Success(t *testing.T) {
	var got remoteRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		w.Write([]byte(`{"sys":128,"dia":84,"pulse":66,"confidence":0.9}`))
	}))
	defer srv.Close()

	rec := NewRemoteRecognizer(srv.URL, "secret", time.Second, logger.NewDiscard())
	reading, err := rec.Recognize(context.Background(), jpegMagic)
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}

	if *reading.Sys.Value != 128 || *reading.Dia.Value != 84 || *reading.Pulse != 66 {
		t.Errorf("reading = %d/%d pulse %d", *reading.Sys.Value, *reading.Dia.Value, *reading.Pulse)
	}
	if reading.Confidence != 0.9 || reading.Source != SourceRemote {
		t.Errorf("confidence = %v source = %q", reading.Confidence, reading.Source)
	}
	if auth != "Bearer secret" {
		t.Errorf("Authorization = %q", auth)
	}
	if got.Mime != "image/jpeg" {
		t.Errorf("mime = %q, expected image/jpeg", got.Mime)
	}
	if decoded, _ := base64.StdEncoding.DecodeString(got.Image); string(decoded) != string(jpegMagic) {
		t.Error("image payload was not the uploaded bytes")
	}
}

func TestRemoteRecognizer_DefaultConfidence(t *testing.T) {
	srv := newRemoteServer(t, http.StatusOK, `{"sys":118,"dia":76}`)
	rec := NewRemoteRecognizer(srv.URL, "", time.Second, logger.NewDiscard())

	reading, err := rec.Recognize(context.Background(), jpegMagic)
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if reading.Confidence != 1.0 || reading.Sys.Confidence != 1.0 {
		t.Errorf("confidence = %v, expected 1.0", reading.Confidence)
	}
	if reading.Pulse != nil {
		t.Errorf("pulse = %v, expected absent", *reading.Pulse)
	}
}

func TestRemoteRecognizer_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, "boom"},
		{"unauthorized", http.StatusUnauthorized, "nope"},
		{"malformed json", http.StatusOK, "{not json"},
		{"missing dia", http.StatusOK, `{"sys":120}`},
		{"negative value", http.StatusOK, `{"sys":120,"dia":-1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newRemoteServer(t, tt.status, tt.body)
			rec := NewRemoteRecognizer(srv.URL, "", time.Second, logger.NewDiscard())

			reading, err := rec.Recognize(context.Background(), jpegMagic)
			if !errors.Is(err, model.ErrRecognitionIncomplete) {
				t.Fatalf("err = %v, expected ErrRecognitionIncomplete", err)
			}
			if reading.Complete() {
				t.Error("reading should be incomplete")
			}
			if reading.Dia.Present() {
				t.Error("dia should be absent")
			}
		})
	}
}

func TestRemoteRecognizer_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	rec := NewRemoteRecognizer(url, "", 200*time.Millisecond, logger.NewDiscard())
	_, err := rec.Recognize(context.Background(), jpegMagic)
	if !errors.Is(err, model.ErrRecognitionIncomplete) {
		t.Errorf("err = %v, expected ErrRecognitionIncomplete", err)
	}
}

func TestRemoteRecognizer_EmptyImage(t *testing.T) {
	rec := NewRemoteRecognizer("http://127.0.0.1:1", "", time.Second, logger.NewDiscard())
	_, err := rec.Recognize(context.Background(), nil)
	if !errors.Is(err, model.ErrInvalidImage) {
		t.Errorf("err = %v, expected ErrInvalidImage", err)
	}
}
