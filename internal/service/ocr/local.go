package ocr

import (
	"context"
	"image"
	"math"

	"bpmonitor/internal/logger"
	"bpmonitor/internal/model"
)

const SourceLocal = "local"

// LocalOptions tune the on-device pipeline.
type LocalOptions struct {
	Invert             bool
	CLAHE              bool
	SegmentOnThreshold float64
	RowSplitMode       RowSplitMode
	MaxImageDimension  int
}

// DefaultLocalOptions matches a dark-on-light LCD photographed head-on.
func DefaultLocalOptions() LocalOptions {
	return LocalOptions{
		Invert:             true,
		CLAHE:              true,
		SegmentOnThreshold: DefaultSegmentOnThreshold,
		RowSplitMode:       SplitMedian,
	}
}

// LocalRecognizer reads the display with the OpenCV segment pipeline.
// It holds no mutable state and is safe for concurrent use.
type LocalRecognizer struct {
	binarizer Binarizer
	opts      LocalOptions
	logger    *logger.Logger
}

func NewLocalRecognizer(opts LocalOptions, logger *logger.Logger) *LocalRecognizer {
	if opts.SegmentOnThreshold <= 0 || opts.SegmentOnThreshold >= 1 {
		opts.SegmentOnThreshold = DefaultSegmentOnThreshold
	}
	if opts.RowSplitMode == "" {
		opts.RowSplitMode = SplitMedian
	}
	return &LocalRecognizer{
		binarizer: Binarizer{Invert: opts.Invert, CLAHE: opts.CLAHE},
		opts:      opts,
		logger:    logger,
	}
}

func (r *LocalRecognizer) Name() string {
	return SourceLocal
}

// Recognize decodes data and reads it. See RecognizeImage for the result contract.
func (r *LocalRecognizer) Recognize(ctx context.Context, data []byte) (model.Reading, error) {
	if err := ctx.Err(); err != nil {
		return model.Reading{Source: SourceLocal}, err
	}
	img, err := DecodeImage(data, r.opts.MaxImageDimension)
	if err != nil {
		return model.Reading{Source: SourceLocal}, err
	}
	return r.RecognizeImage(img)
}

// RecognizeImage runs binarize, region detection, row split and digit
// classification. The top row is systolic and the bottom row diastolic.
// A reading with a missing row is returned together with an error wrapping
// model.ErrRecognitionIncomplete.
func (r *LocalRecognizer) RecognizeImage(img image.Image) (model.Reading, error) {
	mask, err := r.binarizer.Binarize(img)
	if err != nil {
		return model.Reading{Source: SourceLocal}, err
	}
	defer mask.Close()

	boxes := DetectRegions(mask)
	top, bottom := SplitRows(boxes, r.opts.RowSplitMode)

	sys, sysDigits := ReadRow(mask, top, r.opts.SegmentOnThreshold)
	dia, diaDigits := ReadRow(mask, bottom, r.opts.SegmentOnThreshold)

	reading := model.Reading{
		Sys:        sys,
		Dia:        dia,
		Confidence: math.Min(sys.Confidence, dia.Confidence),
		Source:     SourceLocal,
	}

	r.logger.Info("Local recognition: %d regions (top %s, bottom %s) confidence %.2f",
		len(boxes), describeDigits(sysDigits), describeDigits(diaDigits), reading.Confidence)

	return reading, reading.Err()
}

// describeDigits renders a row as e.g. "12?" for logging.
func describeDigits(digits []DigitReading) string {
	if len(digits) == 0 {
		return "-"
	}
	out := make([]byte, 0, len(digits))
	for _, d := range digits {
		if d.OK {
			out = append(out, byte('0'+d.Digit))
		} else {
			out = append(out, '?')
		}
	}
	return string(out)
}
