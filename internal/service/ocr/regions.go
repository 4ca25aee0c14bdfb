package ocr

import (
	"image"
	"sort"

	"gocv.io/x/gocv"
)

const (
	minRegionAreaFraction = 0.0005
	minRegionWidth        = 8
	minRegionHeight       = 15
	minRegionAspect       = 0.15
	maxRegionAspect       = 1.2
)

// BoundingBox is an axis-aligned candidate digit region in mask coordinates.
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func boxFromRect(r image.Rectangle) BoundingBox {
	return BoundingBox{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// Rect returns the box as an image.Rectangle.
func (b BoundingBox) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
}

// CenterY is the vertical center used for row assignment.
func (b BoundingBox) CenterY() float64 {
	return float64(b.Y) + float64(b.Height)/2
}

// acceptRegion applies the digit-shape filters for a mask of maskW x maskH.
func acceptRegion(b BoundingBox, maskW, maskH int) bool {
	area := float64(b.Width * b.Height)
	if area < float64(maskW*maskH)*minRegionAreaFraction {
		return false
	}
	if b.Height < minRegionHeight || b.Width < minRegionWidth {
		return false
	}
	aspect := float64(b.Width) / float64(b.Height)
	return aspect >= minRegionAspect && aspect <= maxRegionAspect
}

// FilterRegions keeps the boxes that look like digits and sorts them by x.
func FilterRegions(boxes []BoundingBox, maskW, maskH int) []BoundingBox {
	out := make([]BoundingBox, 0, len(boxes))
	for _, b := range boxes {
		if acceptRegion(b, maskW, maskH) {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].X < out[j].X })
	return out
}

// DetectRegions finds outer contours in mask and returns the digit-like
// bounding boxes ordered left to right. No match yields an empty slice.
func DetectRegions(mask gocv.Mat) []BoundingBox {
	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	boxes := make([]BoundingBox, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		boxes = append(boxes, boxFromRect(gocv.BoundingRect(contours.At(i))))
	}
	return FilterRegions(boxes, mask.Cols(), mask.Rows())
}
