package ocr

import (
	"image"
	"math"
	"testing"
)

// ========================================
// Digit Table Tests
// ========================================

func TestLookupDigit_KnownPatterns(t *testing.T) {
	tests := []struct {
		bits  string
		digit int
	}{
		{"1111110", 0},
		{"0110000", 1},
		{"1101101", 2},
		{"1111001", 3},
		{"0110011", 4},
		{"1011011", 5},
		{"1011111", 6},
		{"1110000", 7},
		{"1111111", 8},
		{"1111011", 9},
	}

	for _, tt := range tests {
		p := patternFromBits(t, tt.bits)
		digit, ok := LookupDigit(p)
		if !ok || digit != tt.digit {
			t.Errorf("LookupDigit(%s) = %d, %v, expected %d, true", tt.bits, digit, ok, tt.digit)
		}
		if p.String() != tt.bits {
			t.Errorf("String() = %s, expected %s", p.String(), tt.bits)
		}
	}
}

func TestLookupDigit_Exhaustive(t *testing.T) {
	mapped := 0
	for p := 0; p < 128; p++ {
		if _, ok := LookupDigit(SegmentPattern(p)); ok {
			mapped++
		}
	}
	if mapped != 10 {
		t.Errorf("mapped patterns = %d, expected 10 (118 unrecognized)", mapped)
	}
}

func TestLookupDigit_Unrecognized(t *testing.T) {
	for _, bits := range []string{"0000000", "0000001", "1000000", "0111111", "1110001"} {
		if d, ok := LookupDigit(patternFromBits(t, bits)); ok {
			t.Errorf("LookupDigit(%s) = %d, expected unrecognized", bits, d)
		}
	}
}

// ========================================
// Segment Classification Tests
// ========================================

func TestClassifyRatios_Confidence(t *testing.T) {
	tests := []struct {
		name   string
		ratios [7]float64
		conf   float64
	}{
		{"all ambiguous", [7]float64{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5}, 0},
		{"all saturated", [7]float64{1, 1, 1, 1, 1, 1, 0}, 1},
		{"all empty", [7]float64{}, 1},
		{"mixed", [7]float64{0.75, 0.75, 0.75, 0.75, 0.75, 0.75, 0.25}, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyRatios(tt.ratios, DefaultSegmentOnThreshold)
			if math.Abs(got.Confidence-tt.conf) > 1e-9 {
				t.Errorf("Confidence = %v, expected %v", got.Confidence, tt.conf)
			}
			if got.Confidence < 0 || got.Confidence > 1 {
				t.Errorf("Confidence %v out of [0,1]", got.Confidence)
			}
		})
	}
}

func TestClassifyRatios_Digits(t *testing.T) {
	zero := classifyRatios([7]float64{0.9, 0.9, 0.9, 0.9, 0.9, 0.9, 0.1}, DefaultSegmentOnThreshold)
	if !zero.OK || zero.Digit != 0 {
		t.Errorf("expected 0, got %d (ok=%v, pattern %s)", zero.Digit, zero.OK, zero.Pattern)
	}

	// 0.45 exactly is not lit.
	edge := classifyRatios([7]float64{0.9, 0.9, 0.9, 0.9, 0.9, 0.9, 0.45}, DefaultSegmentOnThreshold)
	if !edge.OK || edge.Digit != 0 {
		t.Errorf("ratio at threshold should be off, got pattern %s", edge.Pattern)
	}

	bad := classifyRatios([7]float64{0, 0, 0, 0, 0, 0, 0.9}, DefaultSegmentOnThreshold)
	if bad.OK {
		t.Errorf("lone middle segment should be unrecognized, got %d", bad.Digit)
	}
}

func TestSegmentWindows_Geometry(t *testing.T) {
	w := segmentWindows(60, 100)

	// a: x0=0.20 -> 12, width floor(0.6*60)=36; y0=0.02 -> 2, height floor(0.16*100)=16
	if w[0] != image.Rect(12, 2, 48, 18) {
		t.Errorf("segment a window = %v", w[0])
	}
	// b: x0=0.78 -> 46
	if w[1].Min.X != 46 || w[1].Max.X > 60 {
		t.Errorf("segment b window = %v", w[1])
	}
	for i, r := range w {
		if r.Dx() < 1 || r.Dy() < 1 {
			t.Errorf("window %d is empty: %v", i, r)
		}
		if !r.In(image.Rect(0, 0, 60, 100)) {
			t.Errorf("window %d escapes the box: %v", i, r)
		}
	}
}

func TestSegmentWindows_TinyBoxClips(t *testing.T) {
	for i, r := range segmentWindows(2, 3) {
		if r.Dx() < 1 || r.Dy() < 1 {
			t.Errorf("window %d is empty: %v", i, r)
		}
		if !r.In(image.Rect(0, 0, 2, 3)) {
			t.Errorf("window %d escapes the box: %v", i, r)
		}
	}
}

func TestSampleRatios_RenderedDigits(t *testing.T) {
	for digit, bits := range []string{"1111110", "0110000", "1101101", "1111001", "0110011",
		"1011011", "1011111", "1110000", "1111111", "1111011"} {
		grid := renderDigitGrid(60, 100, 14, patternFromBits(t, bits))
		ratios := sampleRatios(60, 100, grid.count)
		got := classifyRatios(ratios, DefaultSegmentOnThreshold)
		if !got.OK || got.Digit != digit {
			t.Errorf("rendered %d decoded as %d (ok=%v, pattern %s, ratios %v)", digit, got.Digit, got.OK, got.Pattern, ratios)
		}
		if got.Confidence < 0.5 {
			t.Errorf("rendered %d confidence %.2f, expected a clean reading", digit, got.Confidence)
		}
	}
}

// ========================================
// Helpers
// ========================================

func patternFromBits(t *testing.T, bits string) SegmentPattern {
	t.Helper()
	if len(bits) != 7 {
		t.Fatalf("bad pattern %q", bits)
	}
	var p SegmentPattern
	for _, c := range bits {
		p <<= 1
		if c == '1' {
			p |= 1
		}
	}
	return p
}

type boolGrid struct {
	w, h int
	on   []bool
}

func (g boolGrid) count(r image.Rectangle) int {
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if g.on[y*g.w+x] {
				n++
			}
		}
	}
	return n
}

// segmentStrokes returns the filled stroke rectangles of a w x h digit drawn
// with stroke thickness s, in bit order a..g.
func segmentStrokes(w, h, s int) [7]image.Rectangle {
	return [7]image.Rectangle{
		image.Rect(0, 0, w, s),             // a
		image.Rect(w-s, 0, w, h/2+s/2),     // b
		image.Rect(w-s, h/2-s/2, w, h),     // c
		image.Rect(0, h-s, w, h),           // d
		image.Rect(0, h/2-s/2, s, h),       // e
		image.Rect(0, 0, s, h/2+s/2),       // f
		image.Rect(0, h/2-s/2, w, h/2+s/2), // g
	}
}

func renderDigitGrid(w, h, s int, p SegmentPattern) boolGrid {
	g := boolGrid{w: w, h: h, on: make([]bool, w*h)}
	strokes := segmentStrokes(w, h, s)
	for i, r := range strokes {
		if p&(1<<uint(6-i)) == 0 {
			continue
		}
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				g.on[y*w+x] = true
			}
		}
	}
	return g
}
