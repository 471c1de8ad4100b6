package thumbs

import (
	"bytes"
	"fmt"
	"image"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

// encodeFrame downscales a decoded frame to fit within maxEdge on both axes,
// preserving aspect ratio, and encodes it as lossy WebP.
func encodeFrame(img image.Image, maxEdge int, quality float32) ([]byte, int, int, error) {
	if img == nil {
		return nil, 0, 0, fmt.Errorf("nil source image")
	}

	scaled := imaging.Fit(img, maxEdge, maxEdge, imaging.Lanczos)
	bounds := scaled.Bounds()

	var buf bytes.Buffer
	opts := &webp.Options{
		Lossless: false,
		Quality:  quality,
	}
	if err := webp.Encode(&buf, scaled, opts); err != nil {
		return nil, 0, 0, fmt.Errorf("failed to encode thumbnail as WebP: %w", err)
	}

	return buf.Bytes(), bounds.Dx(), bounds.Dy(), nil
}
