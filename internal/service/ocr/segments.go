package ocr

import (
	"image"
	"math"
	"strings"

	"gocv.io/x/gocv"
)

// DefaultSegmentOnThreshold is the foreground ratio above which a segment is lit.
const DefaultSegmentOnThreshold = 0.45

// SegmentPattern holds the lit state of the seven segments as 7 bits in the
// order a,b,c,d,e,f,g with a as the most significant bit.
type SegmentPattern uint8

// String renders the pattern as "abcdefg" ones and zeros.
func (p SegmentPattern) String() string {
	var sb strings.Builder
	for i := 6; i >= 0; i-- {
		if p&(1<<uint(i)) != 0 {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// segmentRect is a sub-rectangle given as fractions of the digit box.
type segmentRect struct {
	x0, y0, x1, y1 float64
}

// segmentLayout lists the sampling windows in bit order a..g.
var segmentLayout = [7]segmentRect{
	{0.20, 0.02, 0.80, 0.18}, // a
	{0.78, 0.15, 0.98, 0.50}, // b
	{0.78, 0.52, 0.98, 0.88}, // c
	{0.20, 0.84, 0.80, 0.98}, // d
	{0.02, 0.52, 0.22, 0.88}, // e
	{0.02, 0.15, 0.22, 0.50}, // f
	{0.20, 0.43, 0.80, 0.60}, // g
}

var digitTable = buildDigitTable()

func buildDigitTable() [128]int8 {
	var table [128]int8
	for i := range table {
		table[i] = -1
	}
	known := map[string]int8{
		"1111110": 0,
		"0110000": 1,
		"1101101": 2,
		"1111001": 3,
		"0110011": 4,
		"1011011": 5,
		"1011111": 6,
		"1110000": 7,
		"1111111": 8,
		"1111011": 9,
	}
	for bits, digit := range known {
		var p SegmentPattern
		for _, c := range bits {
			p <<= 1
			if c == '1' {
				p |= 1
			}
		}
		table[p] = digit
	}
	return table
}

// LookupDigit maps a pattern to a digit. ok is false for patterns outside the
// ten known shapes.
func LookupDigit(p SegmentPattern) (digit int, ok bool) {
	d := digitTable[p&0x7f]
	if d < 0 {
		return 0, false
	}
	return int(d), true
}

// DigitReading is the classification of one digit box.
type DigitReading struct {
	Digit      int
	OK         bool
	Confidence float64
	Pattern    SegmentPattern
	Ratios     [7]float64
}

// segmentWindows returns the pixel rectangles sampled for a box of the given
// size, relative to the box origin and clipped to it.
func segmentWindows(width, height int) [7]image.Rectangle {
	var out [7]image.Rectangle
	for i, s := range segmentLayout {
		x := int(math.Floor(s.x0 * float64(width)))
		y := int(math.Floor(s.y0 * float64(height)))
		w := max(1, int(math.Floor((s.x1-s.x0)*float64(width))))
		h := max(1, int(math.Floor((s.y1-s.y0)*float64(height))))
		w = min(w, width-x)
		h = min(h, height-y)
		out[i] = image.Rect(x, y, x+w, y+h)
	}
	return out
}

// classifyRatios turns per-segment foreground ratios into a digit reading.
// Confidence is 2*mean(|ratio-0.5|) clamped to [0,1]: a heuristic that rewards
// segments far from half coverage, not a probability.
func classifyRatios(ratios [7]float64, onThreshold float64) DigitReading {
	var pattern SegmentPattern
	var spread float64
	for _, r := range ratios {
		pattern <<= 1
		if r > onThreshold {
			pattern |= 1
		}
		spread += math.Abs(r - 0.5)
	}

	digit, ok := LookupDigit(pattern)
	return DigitReading{
		Digit:      digit,
		OK:         ok,
		Confidence: clamp01(2 * spread / float64(len(ratios))),
		Pattern:    pattern,
		Ratios:     ratios,
	}
}

// sampleRatios measures each segment window with count, which returns the
// number of foreground pixels inside a rectangle relative to the box.
func sampleRatios(width, height int, count func(image.Rectangle) int) [7]float64 {
	var ratios [7]float64
	for i, win := range segmentWindows(width, height) {
		area := win.Dx() * win.Dy()
		if area <= 0 {
			continue
		}
		ratios[i] = float64(count(win)) / float64(area)
	}
	return ratios
}

// ClassifyDigit reads the seven segments of box inside mask.
func ClassifyDigit(mask gocv.Mat, box BoundingBox, onThreshold float64) DigitReading {
	bounds := image.Rect(0, 0, mask.Cols(), mask.Rows())
	rect := box.Rect().Intersect(bounds)
	if rect.Empty() {
		return DigitReading{}
	}

	roi := mask.Region(rect)
	defer roi.Close()

	ratios := sampleRatios(rect.Dx(), rect.Dy(), func(win image.Rectangle) int {
		sub := roi.Region(win)
		defer sub.Close()
		return gocv.CountNonZero(sub)
	})
	return classifyRatios(ratios, onThreshold)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
