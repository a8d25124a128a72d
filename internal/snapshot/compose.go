package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	"image/png"
)

const (
	padding = 16
	gap     = 24

	// DefaultMaxPixels bounds each composed input when no budget is given.
	DefaultMaxPixels = 50_000_000
)

var (
	ErrNoImages = errors.New("no images to compose")
	ErrTooLarge = errors.New("image dimensions are too large")
)

// Compose places the images side by side on a white canvas, top aligned.
// Empty inputs are skipped. Each input may hold at most maxPixels pixels and
// the canvas at most maxPixels per input; a non-positive maxPixels selects
// DefaultMaxPixels.
func Compose(maxPixels int, images ...[]byte) ([]byte, error) {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}

	var decoded []image.Image
	for i, data := range images {
		if len(data) == 0 {
			continue
		}
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i, err)
		}
		if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > maxPixels/cfg.Height {
			return nil, fmt.Errorf("image %d: %w", i, ErrTooLarge)
		}
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i, err)
		}
		decoded = append(decoded, img)
	}
	if len(decoded) == 0 {
		return nil, ErrNoImages
	}

	width, height := padding*2+gap*(len(decoded)-1), 0
	for _, img := range decoded {
		b := img.Bounds()
		width += b.Dx()
		height = max(height, b.Dy())
	}
	height += padding * 2
	if width > maxPixels*len(decoded)/height {
		return nil, ErrTooLarge
	}

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	x := padding
	for _, img := range decoded {
		b := img.Bounds()
		dst := image.Rect(x, padding, x+b.Dx(), padding+b.Dy())
		draw.Draw(canvas, dst, img, b.Min, draw.Over)
		x += b.Dx() + gap
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}
