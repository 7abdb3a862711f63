package frames

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/jpeg" // register JPEG decoding for webcam snapshots
	"image/png"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"
)

// DefaultMaxDimension bounds the longer side of an encoded frame.
const DefaultMaxDimension = 640

// Normalize decodes a PNG or JPEG image, scales it so neither side exceeds
// maxDimension (0 disables scaling) and re-encodes it as PNG.
func Normalize(data []byte, maxDimension int) (*Frame, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}

	bounds := img.Bounds()
	w, h := scaledDimensions(bounds.Dx(), bounds.Dy(), maxDimension)
	if w != bounds.Dx() || h != bounds.Dy() {
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	} else if format == "png" {
		return &Frame{Data: data, Width: w, Height: h}, nil
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}

	log.Trace().
		Str("source_format", format).
		Int("orig_width", bounds.Dx()).
		Int("orig_height", bounds.Dy()).
		Int("width", w).
		Int("height", h).
		Int("size", buf.Len()).
		Msg("Frame normalized")

	return &Frame{Data: buf.Bytes(), Width: w, Height: h}, nil
}

// DecodeDataURL extracts the payload of a "data:image/png;base64,..." URL,
// the format browsers produce for webcam screenshots. Raw bytes pass through.
func DecodeDataURL(body []byte) ([]byte, error) {
	if !bytes.HasPrefix(body, []byte("data:")) {
		return body, nil
	}
	header, payload, ok := strings.Cut(string(body), ",")
	if !ok {
		return nil, fmt.Errorf("malformed data URL")
	}
	if !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("unsupported data URL encoding %q", header)
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return nil, fmt.Errorf("decode data URL: %w", err)
	}
	return data, nil
}

// scaledDimensions keeps the aspect ratio while fitting the longer side.
func scaledDimensions(width, height, maxDimension int) (int, int) {
	if maxDimension <= 0 || (width <= maxDimension && height <= maxDimension) {
		return width, height
	}
	if width >= height {
		return maxDimension, max(1, height*maxDimension/width)
	}
	return max(1, width*maxDimension/height), maxDimension
}
