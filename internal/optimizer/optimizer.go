package optimizer

import (
	"time"

	"image-optimizer-go/internal/codec"
)

// MaxFileSizeBytes is the advisory payload ceiling (5 MiB). Outputs
// above it are logged as warnings but never rejected or re-compressed.
const MaxFileSizeBytes = 5 * 1024 * 1024

// DefaultMaxDimension is the default maximum long-edge size in pixels.
const DefaultMaxDimension = 1568

// DefaultQuality is the default JPEG/WebP quality.
const DefaultQuality = 90

// Settings defines parameters for a single optimize call.
type Settings struct {
	Format       codec.Format
	Quality      int // 0-100, ignored for PNG
	MaxDimension int // maximum long-edge size in pixels
}

// Artifact holds the optimized bytes of one image together with its
// final dimensions. It lives only for the duration of one batch item.
type Artifact struct {
	Data   []byte
	Width  int
	Height int
}

// Result describes the outcome of optimizing a single file.
type Result struct {
	InputPath     string
	OutputPath    string
	OriginalSize  int64
	OptimizedSize int64
	Width         int
	Height        int
	Success       bool
	Message       string
	Error         error
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Optimizer defines the interface for the image optimize pipeline.
type Optimizer interface {
	// Optimize decodes, resizes and re-encodes a single image, keeping
	// the result in memory.
	Optimize(inputPath string, settings Settings) (*Artifact, error)

	// OptimizeFile optimizes a single image and writes the result to
	// outputPath, creating parent directories as needed. An existing
	// file at outputPath is overwritten.
	OptimizeFile(inputPath, outputPath string, settings Settings) *Result
}
