package optimizer

import (
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"testing"

	"image-optimizer-go/internal/codec"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// writeTestImage writes a solid-color image to dir and returns its path.
func writeTestImage(t *testing.T, dir, name string, w, h int, c color.Color) string {
	t.Helper()
	img := imaging.New(w, h, c)
	path := filepath.Join(dir, name)
	require.NoError(t, imaging.Save(img, path))
	return path
}

func TestOptimizeResizesLargeImage(t *testing.T) {
	dir := t.TempDir()
	src := writeTestImage(t, dir, "big.png", 64, 32, color.NRGBA{R: 80, G: 80, B: 80, A: 255})

	opt := NewDefaultOptimizer(testLogger())
	artifact, err := opt.Optimize(src, Settings{Format: codec.JPEG, Quality: 90, MaxDimension: 16})
	require.NoError(t, err)

	assert.Equal(t, 16, artifact.Width)
	assert.Equal(t, 8, artifact.Height)
	assert.NotEmpty(t, artifact.Data)
}

func TestOptimizeKeepsCompliantDimensions(t *testing.T) {
	dir := t.TempDir()
	src := writeTestImage(t, dir, "small.jpg", 20, 10, color.NRGBA{R: 80, G: 80, B: 80, A: 255})

	opt := NewDefaultOptimizer(testLogger())
	settings := Settings{Format: codec.JPEG, Quality: 90, MaxDimension: 100}

	first, err := opt.Optimize(src, settings)
	require.NoError(t, err)
	assert.Equal(t, 20, first.Width)
	assert.Equal(t, 10, first.Height)

	// Re-optimizing the output with the same settings leaves
	// dimensions unchanged.
	out := filepath.Join(dir, "first.jpg")
	require.NoError(t, os.WriteFile(out, first.Data, 0644))
	second, err := opt.Optimize(out, settings)
	require.NoError(t, err)
	assert.Equal(t, first.Width, second.Width)
	assert.Equal(t, first.Height, second.Height)
}

func TestOptimizeFlattensAlphaForJPEG(t *testing.T) {
	dir := t.TempDir()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	// Fully transparent blue; must come out white in the JPEG.
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.NRGBA{R: 0, G: 0, B: 255, A: 0})
		}
	}
	src := filepath.Join(dir, "transparent.png")
	require.NoError(t, imaging.Save(img, src))

	opt := NewDefaultOptimizer(testLogger())
	artifact, err := opt.Optimize(src, Settings{Format: codec.JPEG, Quality: 95, MaxDimension: 100})
	require.NoError(t, err)

	decoded, err := codec.DecodeBytes(artifact.Data)
	require.NoError(t, err)
	r, g, b, _ := decoded.At(4, 4).RGBA()
	assert.Greater(t, r, uint32(0xf000))
	assert.Greater(t, g, uint32(0xf000))
	assert.Greater(t, b, uint32(0xf000))
}

func TestOptimizeDecodeError(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "corrupt.jpg")
	require.NoError(t, os.WriteFile(src, []byte("not an image"), 0644))

	opt := NewDefaultOptimizer(testLogger())
	_, err := opt.Optimize(src, Settings{Format: codec.JPEG, Quality: 90, MaxDimension: 100})
	assert.Error(t, err)
}

func TestOptimizeFileWritesOutput(t *testing.T) {
	dir := t.TempDir()
	src := writeTestImage(t, dir, "photo.png", 30, 30, color.NRGBA{R: 10, G: 200, B: 10, A: 255})
	out := filepath.Join(dir, "out", "nested", "photo.jpg")

	opt := NewDefaultOptimizer(testLogger())
	res := opt.OptimizeFile(src, out, Settings{Format: codec.JPEG, Quality: 90, MaxDimension: 100})

	assert.True(t, res.Success)
	assert.NoError(t, res.Error)
	assert.FileExists(t, out)
	assert.Greater(t, res.OptimizedSize, int64(0))
}

func TestOptimizeFileOverwritesExisting(t *testing.T) {
	dir := t.TempDir()
	src := writeTestImage(t, dir, "photo.png", 30, 30, color.NRGBA{R: 10, G: 200, B: 10, A: 255})
	out := filepath.Join(dir, "photo.jpg")
	require.NoError(t, os.WriteFile(out, []byte("stale"), 0644))

	opt := NewDefaultOptimizer(testLogger())
	res := opt.OptimizeFile(src, out, Settings{Format: codec.JPEG, Quality: 90, MaxDimension: 100})
	require.True(t, res.Success)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.NotEqual(t, []byte("stale"), data)
}

func TestOptimizeFileReportsFailure(t *testing.T) {
	dir := t.TempDir()
	opt := NewDefaultOptimizer(testLogger())
	res := opt.OptimizeFile(filepath.Join(dir, "missing.jpg"), filepath.Join(dir, "out.jpg"),
		Settings{Format: codec.JPEG, Quality: 90, MaxDimension: 100})

	assert.False(t, res.Success)
	assert.Error(t, res.Error)
	assert.NotEmpty(t, res.Message)
}
