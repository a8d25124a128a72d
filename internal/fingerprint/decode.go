//go:build !gocv

package fingerprint

import (
	"bytes"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
)

// Compute decodes a PNG or JPEG image of at most maxPixels and returns its
// hue fingerprint.
func Compute(data []byte, maxPixels int) (Vector, error) {
	if err := CheckSize(data, maxPixels); err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrDecode
	}

	b := img.Bounds()
	step := sampleStep(b.Dx(), b.Dy())

	var h histogram
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			r, g, bl, _ := img.At(x, y).RGBA()
			hue, sat, val := toHSV(float64(r)/0xffff, float64(g)/0xffff, float64(bl)/0xffff)
			if sat < minSaturation || val < minValue {
				continue
			}
			h.add(hue)
		}
	}
	return h.vector(), nil
}

// toHSV converts RGB in [0,1] to hue in degrees and saturation/value in [0,1].
func toHSV(r, g, b float64) (h, s, v float64) {
	maxC := math.Max(r, math.Max(g, b))
	minC := math.Min(r, math.Min(g, b))
	v = maxC
	delta := maxC - minC
	if maxC == 0 || delta == 0 {
		return 0, 0, v
	}
	s = delta / maxC

	switch maxC {
	case r:
		h = math.Mod((g-b)/delta, 6)
	case g:
		h = (b-r)/delta + 2
	default:
		h = (r-g)/delta + 4
	}
	h *= 60
	if h < 0 {
		h += 360
	}
	return h, s, v
}
