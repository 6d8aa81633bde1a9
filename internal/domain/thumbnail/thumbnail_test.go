package thumbnail

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"sketchwall-server-go/internal/domain/drawing"
)

func encodePNG(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestFromPayloadDownscalesLargeImage(t *testing.T) {
	payload := encodePNG(t, 640, 320)

	thumb := FromPayload(payload, 160)
	if thumb == payload {
		t.Fatal("large image was not downscaled")
	}
	if !strings.HasPrefix(thumb, "data:image/png;base64,") {
		t.Fatalf("unexpected thumbnail prefix: %.40s", thumb)
	}

	decoded, err := png.Decode(bytes.NewReader(drawing.DecodePayload(thumb)))
	if err != nil {
		t.Fatalf("thumbnail is not a decodable png: %v", err)
	}
	b := decoded.Bounds()
	if b.Dx() != 160 || b.Dy() != 80 {
		t.Fatalf("thumbnail size = %dx%d, want 160x80", b.Dx(), b.Dy())
	}
}

func TestFromPayloadKeepsSmallImage(t *testing.T) {
	payload := encodePNG(t, 32, 32)
	if got := FromPayload(payload, 160); got != payload {
		t.Fatal("small image should pass through unchanged")
	}
}

func TestFromPayloadUndecodableFallsBack(t *testing.T) {
	payload := "not an image at all"
	if got := FromPayload(payload, 160); got != payload {
		t.Fatal("undecodable payload should fall back to the original")
	}
}
