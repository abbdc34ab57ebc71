package codec

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"

	_ "image/gif"

	_ "golang.org/x/image/webp"

	chaiwebp "github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

// Format is the closed set of supported output formats.
type Format int

const (
	JPEG Format = iota
	PNG
	WebP
)

// ParseFormat converts a user-supplied format name into a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "jpg", "jpeg":
		return JPEG, nil
	case "png":
		return PNG, nil
	case "webp":
		return WebP, nil
	default:
		return 0, fmt.Errorf("unsupported output format: %s (valid: jpg, png, webp)", name)
	}
}

// String returns the canonical format name.
func (f Format) String() string {
	switch f {
	case JPEG:
		return "jpg"
	case PNG:
		return "png"
	case WebP:
		return "webp"
	}
	return "unknown"
}

// Ext returns the output file extension without the leading dot.
func (f Format) Ext() string {
	return f.String()
}

// MIME returns the MIME type for the format.
func (f Format) MIME() string {
	switch f {
	case JPEG:
		return "image/jpeg"
	case PNG:
		return "image/png"
	case WebP:
		return "image/webp"
	}
	return "image/jpeg"
}

// mimeByExt maps source file extensions to MIME types.
var mimeByExt = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
}

// MIMEForExt returns the MIME type for a file extension, defaulting to
// image/jpeg for unknown extensions.
func MIMEForExt(ext string) string {
	if m, ok := mimeByExt[strings.ToLower(ext)]; ok {
		return m
	}
	return "image/jpeg"
}

// Decode reads and decodes an image file. JPEG, PNG, GIF and WebP
// sources are supported via the registered decoders. Errors are
// surfaced raw; classification happens at the pipeline boundary.
func Decode(path string) (image.Image, error) {
	return imaging.Open(path)
}

// DecodeBytes decodes an in-memory image.
func DecodeBytes(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	return img, err
}

// HasAlpha reports whether the image carries a non-opaque alpha channel.
func HasAlpha(img image.Image) bool {
	if op, ok := img.(interface{ Opaque() bool }); ok {
		return !op.Opaque()
	}
	return false
}

// Flatten composites the image onto an opaque white background using
// the alpha channel as blend weight. Required before encoding
// transparent sources to JPEG.
func Flatten(img image.Image) image.Image {
	bounds := img.Bounds()
	background := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
	return imaging.Overlay(background, img, image.Pt(0, 0), 1.0)
}

// Encode serializes the image into the requested format.
//
// JPEG output is always 3-channel; quality controls compression.
// PNG ignores quality and requests the encoder's best compression as
// the re-optimization pass. WebP uses quality directly.
func Encode(img image.Image, format Format, quality int) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case JPEG:
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
			return nil, err
		}
	case PNG:
		if err := imaging.Encode(&buf, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression)); err != nil {
			return nil, err
		}
	case WebP:
		if err := chaiwebp.Encode(&buf, img, &chaiwebp.Options{Quality: float32(quality)}); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported output format: %d", format)
	}
	return buf.Bytes(), nil
}
