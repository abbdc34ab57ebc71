package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/sirupsen/logrus"
)

// LoadFile reads a JSON object file with extra metadata merged into
// every upload. An empty path yields an empty map.
func LoadFile(path string) (map[string]any, error) {
	if path == "" {
		return map[string]any{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read metadata file: %w", err)
	}

	var meta map[string]any
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parse metadata file: %w", err)
	}
	return meta, nil
}

// ForUpload builds the per-image metadata map: a fresh copy of the
// shared base, seeded with the file name and original format. Each
// batch item gets its own map so later additions never leak across
// iterations.
func ForUpload(base map[string]any, imagePath string) map[string]any {
	meta := make(map[string]any, len(base)+2)
	for k, v := range base {
		meta[k] = v
	}
	meta["filename"] = filepath.Base(imagePath)
	meta["original_format"] = strings.ToLower(strings.TrimPrefix(filepath.Ext(imagePath), "."))
	return meta
}

// ExifFields extracts capture information from a source image, best
// effort. Files without EXIF (PNG, GIF, most WebP) simply yield nil.
func ExifFields(path string, logger *logrus.Logger) map[string]any {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return nil
	}

	fields := map[string]any{}
	if dt, err := x.DateTime(); err == nil {
		fields["captured_at"] = dt.Format("2006-01-02 15:04:05")
	}
	for name, tagID := range map[string]exif.FieldName{
		"camera_make":  exif.Make,
		"camera_model": exif.Model,
	} {
		tag, err := x.Get(tagID)
		if err != nil {
			continue
		}
		if val, err := tag.StringVal(); err == nil {
			fields[name] = strings.TrimSpace(val)
		}
	}

	if len(fields) == 0 {
		return nil
	}
	logger.Debugf("extracted EXIF fields from %s", path)
	return fields
}
