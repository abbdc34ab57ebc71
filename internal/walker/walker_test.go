package walker

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
}

func TestCollectImagesFlat(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.png"))
	touch(t, filepath.Join(dir, "a.jpg"))
	touch(t, filepath.Join(dir, "c.txt"))
	touch(t, filepath.Join(dir, "sub", "d.webp"))

	got := CollectImages(dir, false, testLogger())
	assert.Equal(t, []string{
		filepath.Join(dir, "a.jpg"),
		filepath.Join(dir, "b.png"),
	}, got)
}

func TestCollectImagesRecursive(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.png"))
	touch(t, filepath.Join(dir, "a.jpg"))
	touch(t, filepath.Join(dir, "c.txt"))
	touch(t, filepath.Join(dir, "sub", "d.webp"))

	got := CollectImages(dir, true, testLogger())
	assert.Equal(t, []string{
		filepath.Join(dir, "a.jpg"),
		filepath.Join(dir, "b.png"),
		filepath.Join(dir, "sub", "d.webp"),
	}, got)
}

func TestCollectImagesCaseInsensitiveExtension(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "photo.JPG"))
	touch(t, filepath.Join(dir, "image.WebP"))

	got := CollectImages(dir, false, testLogger())
	assert.Len(t, got, 2)
}

func TestCollectImagesMissingRoot(t *testing.T) {
	got := CollectImages(filepath.Join(t.TempDir(), "nope"), true, testLogger())
	assert.Empty(t, got)
}

func TestCollectImagesSingleFile(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "single.jpeg")
	touch(t, img)

	got := CollectImages(img, false, testLogger())
	assert.Equal(t, []string{img}, got)
}

func TestCollectImagesSingleUnsupportedFile(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "readme.txt")
	touch(t, doc)

	got := CollectImages(doc, false, testLogger())
	assert.Empty(t, got)
}

func TestOutputRelPath(t *testing.T) {
	assert.Equal(t, filepath.Join("sub", "d.webp"),
		OutputRelPath("/data/in", "/data/in/sub/d.webp"))
	assert.Equal(t, "a.jpg", OutputRelPath("/data/in", "/data/in/a.jpg"))

	// Source outside the stated root falls back to the bare name.
	assert.Equal(t, "outside.png", OutputRelPath("/data/in", "/elsewhere/outside.png"))
}

func TestStem(t *testing.T) {
	assert.Equal(t, "x", Stem("/a/b/x.jpg"))
	assert.Equal(t, "archive.tar", Stem("archive.tar.gz"))
	assert.Equal(t, "noext", Stem("noext"))
}
