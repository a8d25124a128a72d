// Package fingerprint reduces a leaf image to a hue histogram used to find
// visually similar samples.
package fingerprint

import (
	"bytes"
	"errors"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
)

// Bins is the number of hue buckets in a fingerprint.
const Bins = 16

// Pixels below these saturation and value levels (0..1) carry no usable hue.
const (
	minSaturation = 0.15
	minValue      = 0.15
)

// maxSamples bounds the number of pixels visited per image.
const maxSamples = 256 * 256

// DefaultMaxPixels is the decode budget used when none is configured.
const DefaultMaxPixels = 50_000_000

var (
	// ErrDecode is returned for data that is not a supported image.
	ErrDecode = errors.New("failed to decode image")
	// ErrTooLarge is returned for images whose header declares more pixels
	// than the decode budget.
	ErrTooLarge = errors.New("image dimensions are too large")
)

// CheckSize reads only the image header and rejects images above maxPixels.
// A non-positive maxPixels selects DefaultMaxPixels.
func CheckSize(data []byte, maxPixels int) error {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ErrDecode
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return ErrDecode
	}
	if cfg.Width > maxPixels/cfg.Height {
		return ErrTooLarge
	}
	return nil
}

// Vector is an L1-normalized hue histogram. An image with no coloured
// pixels has the zero vector.
type Vector []float32

// Distance returns the Euclidean distance between two fingerprints. Vectors
// of different length are infinitely far apart.
func Distance(a, b Vector) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// histogram accumulates hues in degrees [0, 360).
type histogram struct {
	counts [Bins]float64
	total  float64
}

func (h *histogram) add(hue float64) {
	bin := int(hue / (360.0 / Bins))
	if bin >= Bins {
		bin = Bins - 1
	}
	if bin < 0 {
		bin = 0
	}
	h.counts[bin]++
	h.total++
}

func (h *histogram) vector() Vector {
	v := make(Vector, Bins)
	if h.total == 0 {
		return v
	}
	for i, c := range h.counts {
		v[i] = float32(c / h.total)
	}
	return v
}

// sampleStep returns the stride that keeps a w*h scan under maxSamples.
func sampleStep(w, h int) int {
	step := 1
	for (w/step)*(h/step) > maxSamples {
		step++
	}
	return step
}
