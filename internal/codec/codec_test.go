package codec

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestImage(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Format
		wantErr bool
	}{
		{"jpg", "jpg", JPEG, false},
		{"jpeg alias", "jpeg", JPEG, false},
		{"png", "png", PNG, false},
		{"webp", "webp", WebP, false},
		{"uppercase", "JPG", JPEG, false},
		{"unsupported", "tiff", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatMIME(t *testing.T) {
	assert.Equal(t, "image/jpeg", JPEG.MIME())
	assert.Equal(t, "image/png", PNG.MIME())
	assert.Equal(t, "image/webp", WebP.MIME())
}

func TestMIMEForExt(t *testing.T) {
	assert.Equal(t, "image/jpeg", MIMEForExt(".jpg"))
	assert.Equal(t, "image/jpeg", MIMEForExt(".JPEG"))
	assert.Equal(t, "image/gif", MIMEForExt(".gif"))
	assert.Equal(t, "image/jpeg", MIMEForExt(".bmp"))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	src := newTestImage(12, 8, color.NRGBA{R: 200, G: 40, B: 40, A: 255})

	for _, format := range []Format{JPEG, PNG, WebP} {
		t.Run(format.String(), func(t *testing.T) {
			data, err := Encode(src, format, 90)
			require.NoError(t, err)
			require.NotEmpty(t, data)

			decoded, err := DecodeBytes(data)
			require.NoError(t, err)
			bounds := decoded.Bounds()
			assert.Equal(t, 12, bounds.Dx())
			assert.Equal(t, 8, bounds.Dy())
		})
	}
}

func TestHasAlpha(t *testing.T) {
	opaque := newTestImage(4, 4, color.NRGBA{R: 10, G: 10, B: 10, A: 255})
	assert.False(t, HasAlpha(opaque))

	transparent := newTestImage(4, 4, color.NRGBA{R: 10, G: 10, B: 10, A: 0})
	assert.True(t, HasAlpha(transparent))
}

func TestFlattenTransparentToWhite(t *testing.T) {
	// Fully transparent source must render as white after compositing.
	src := newTestImage(6, 6, color.NRGBA{R: 0, G: 0, B: 255, A: 0})

	flat := Flatten(src)
	r, g, b, a := flat.At(3, 3).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Equal(t, uint32(0xffff), g)
	assert.Equal(t, uint32(0xffff), b)
	assert.Equal(t, uint32(0xffff), a)
}

func TestFlattenThenJPEGStaysWhite(t *testing.T) {
	src := newTestImage(6, 6, color.NRGBA{R: 0, G: 255, B: 0, A: 0})

	data, err := Encode(Flatten(src), JPEG, 95)
	require.NoError(t, err)

	decoded, err := DecodeBytes(data)
	require.NoError(t, err)

	r, g, b, _ := decoded.At(3, 3).RGBA()
	// JPEG is lossy; accept near-white.
	assert.Greater(t, r, uint32(0xf000))
	assert.Greater(t, g, uint32(0xf000))
	assert.Greater(t, b, uint32(0xf000))
}

func TestDecodeBytesInvalid(t *testing.T) {
	_, err := DecodeBytes(bytes.Repeat([]byte{0x42}, 64))
	assert.Error(t, err)
}
