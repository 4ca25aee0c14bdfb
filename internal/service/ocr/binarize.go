package ocr

import (
	"bytes"
	"fmt"
	"image"
	"runtime"

	"bpmonitor/internal/model"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"
)

const (
	claheClipLimit     = 2.0
	claheTileSize      = 8
	blurKernelSize     = 5
	adaptiveBlockSize  = 31
	adaptiveConstant   = 5
	openingKernelSize  = 3
	foregroundMaxValue = 255
)

// DecodeImage decodes an uploaded photo, applying its EXIF orientation.
// When maxDim is positive the image is scaled down to fit inside maxDim x maxDim.
func DecodeImage(data []byte, maxDim int) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty payload: %w", model.ErrInvalidImage)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode: %v: %w", err, model.ErrInvalidImage)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("zero-sized image: %w", model.ErrInvalidImage)
	}
	if maxDim > 0 && (b.Dx() > maxDim || b.Dy() > maxDim) {
		img = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
	}
	return img, nil
}

// Binarizer turns a photo of the display into a foreground mask where lit
// segments are 255.
type Binarizer struct {
	// Invert selects dark digits on a light panel (the usual LCD).
	Invert bool
	// CLAHE enables local contrast equalization before thresholding.
	CLAHE bool
}

// Binarize returns a single-channel mask of the same size as img. On success
// the caller owns the returned Mat and must Close it.
func (b Binarizer) Binarize(img image.Image) (gocv.Mat, error) {
	if img == nil || img.Bounds().Empty() {
		return gocv.Mat{}, fmt.Errorf("no pixels: %w", model.ErrInvalidImage)
	}

	gray, err := toGray(img)
	if err != nil {
		return gocv.Mat{}, err
	}
	defer gray.Close()

	enhanced := gocv.NewMat()
	defer enhanced.Close()
	source := gray
	if b.CLAHE && equalize(gray, &enhanced) {
		source = enhanced
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(source, &blurred, image.Point{X: blurKernelSize, Y: blurKernelSize}, 0, 0, gocv.BorderDefault)

	thresholdType := gocv.ThresholdBinary
	if b.Invert {
		thresholdType = gocv.ThresholdBinaryInv
	}
	binary := gocv.NewMat()
	defer binary.Close()
	gocv.AdaptiveThreshold(blurred, &binary, foregroundMaxValue, gocv.AdaptiveThresholdGaussian,
		thresholdType, adaptiveBlockSize, adaptiveConstant)

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Point{X: openingKernelSize, Y: openingKernelSize})
	defer kernel.Close()

	mask := gocv.NewMat()
	gocv.MorphologyEx(binary, &mask, gocv.MorphOpen, kernel)
	if mask.Empty() {
		mask.Close()
		return gocv.Mat{}, fmt.Errorf("binarization produced no output: %w", model.ErrInvalidImage)
	}
	return mask, nil
}

// toGray copies img into an 8-bit grayscale Mat.
func toGray(img image.Image) (gocv.Mat, error) {
	rgba := imaging.Clone(img)
	w, h := rgba.Bounds().Dx(), rgba.Bounds().Dy()

	src, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8UC4, rgba.Pix)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("failed to wrap pixels: %v: %w", err, model.ErrInvalidImage)
	}
	defer src.Close()

	gray := gocv.NewMat()
	if err := gocv.CvtColor(src, &gray, gocv.ColorRGBAToGray); err != nil {
		gray.Close()
		return gocv.Mat{}, fmt.Errorf("failed to convert image to grayscale: %w", err)
	}
	runtime.KeepAlive(rgba)
	return gray, nil
}

// equalize applies CLAHE into dst and reports whether it produced output.
func equalize(gray gocv.Mat, dst *gocv.Mat) bool {
	clahe := gocv.NewCLAHEWithParams(claheClipLimit, image.Point{X: claheTileSize, Y: claheTileSize})
	defer clahe.Close()
	clahe.Apply(gray, dst)
	return !dst.Empty()
}
