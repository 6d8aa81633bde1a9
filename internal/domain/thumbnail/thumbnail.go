package thumbnail

import (
	"bytes"
	"encoding/base64"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"golang.org/x/image/draw"

	"sketchwall-server-go/internal/domain/drawing"
)

// FromPayload produces a downscaled base64 PNG suitable for moderation
// console listings. Anything that cannot be decoded as an image falls
// back to the original payload so consoles still have something to show.
func FromPayload(payload string, maxDim int) string {
	if maxDim <= 0 {
		maxDim = 160
	}

	src, _, err := image.Decode(bytes.NewReader(drawing.DecodePayload(payload)))
	if err != nil {
		return payload
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxDim && h <= maxDim {
		return payload
	}

	if w >= h {
		h = h * maxDim / w
		w = maxDim
	} else {
		w = w * maxDim / h
		h = maxDim
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return payload
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}
