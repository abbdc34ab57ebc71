package recorder

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"image-optimizer-go/internal/codec"
	"image-optimizer-go/internal/walker"

	"github.com/sirupsen/logrus"
)

// Recorder persists optimized bytes and API responses. Both operations
// are best-effort side effects: callers log failures and move on.
type Recorder struct {
	logger *logrus.Logger
}

// NewRecorder creates a new Recorder instance.
func NewRecorder(logger *logrus.Logger) *Recorder {
	return &Recorder{logger: logger}
}

// SaveOptimized writes the optimized bytes to
// <dir>/<sourceStem>.<outputExt>, creating dir if absent. It returns
// the path of the written file.
func (r *Recorder) SaveOptimized(data []byte, dir, originalPath string, format codec.Format) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	outPath := filepath.Join(dir, walker.Stem(originalPath)+"."+format.Ext())
	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return "", fmt.Errorf("write optimized image: %w", err)
	}

	r.logger.Infof("saved optimized image: %s", outPath)
	return outPath, nil
}

// SaveResponse writes the API response JSON to target. When target is
// an existing directory or carries no file extension,
// <sourceStem>_response.json is synthesized inside it. The document is
// re-indented with two spaces and non-ASCII characters are kept
// unescaped.
func (r *Recorder) SaveResponse(response json.RawMessage, target, originalPath string) error {
	path := target
	if info, err := os.Stat(target); (err == nil && info.IsDir()) || filepath.Ext(target) == "" {
		path = filepath.Join(target, walker.Stem(originalPath)+"_response.json")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create response dir: %w", err)
	}

	var doc any
	if err := json.Unmarshal(response, &doc); err != nil {
		return fmt.Errorf("parse response for saving: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode response: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write response: %w", err)
	}

	r.logger.Infof("saved API response: %s", path)
	return nil
}
