package ocr

import (
	"context"
	"fmt"

	"bpmonitor/internal/config"
	"bpmonitor/internal/logger"
	"bpmonitor/internal/model"
)

// Recognizer reads a blood-pressure display from an encoded image.
//
// An undecodable image returns an error wrapping model.ErrInvalidImage. A
// display that could only be partly read returns the partial Reading and an
// error wrapping model.ErrRecognitionIncomplete.
type Recognizer interface {
	Name() string
	Recognize(ctx context.Context, image []byte) (model.Reading, error)
}

// New picks the recognizer configured by RECOGNIZER.
func New(cfg *config.Config, logger *logger.Logger) (Recognizer, error) {
	switch cfg.Recognizer {
	case "", SourceLocal:
		mode, err := ParseRowSplitMode(cfg.RowSplitMode)
		if err != nil {
			return nil, err
		}
		return NewLocalRecognizer(LocalOptions{
			Invert:             cfg.Invert,
			CLAHE:              cfg.UseCLAHE,
			SegmentOnThreshold: cfg.SegmentOnThreshold,
			RowSplitMode:       mode,
			MaxImageDimension:  cfg.MaxImageDimension,
		}, logger), nil
	case SourceRemote:
		if cfg.RemoteRecognizerURL == "" {
			return nil, fmt.Errorf("REMOTE_RECOGNIZER_URL is required for the remote recognizer")
		}
		return NewRemoteRecognizer(cfg.RemoteRecognizerURL, cfg.RemoteRecognizerToken, cfg.RemoteTimeout, logger), nil
	}
	return nil, fmt.Errorf("unknown recognizer %q", cfg.Recognizer)
}
