package optimizer

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"image-optimizer-go/internal/codec"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
)

// DefaultOptimizer is the default implementation of the Optimizer
// interface. It processes one image at a time; decoded pixels and
// encoded bytes are released after each call.
type DefaultOptimizer struct {
	logger *logrus.Logger
}

// NewDefaultOptimizer creates a new DefaultOptimizer instance.
func NewDefaultOptimizer(logger *logrus.Logger) *DefaultOptimizer {
	return &DefaultOptimizer{logger: logger}
}

// Optimize decodes, resizes and re-encodes a single image in memory.
func (o *DefaultOptimizer) Optimize(inputPath string, settings Settings) (*Artifact, error) {
	img, err := codec.Decode(inputPath)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", inputPath, err)
	}

	// Transparent sources headed for JPEG are composited onto white
	// before anything else touches the pixels.
	if settings.Format == codec.JPEG && codec.HasAlpha(img) {
		img = codec.Flatten(img)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	targetW, targetH := FitDimensions(width, height, settings.MaxDimension)
	if targetW != width || targetH != height {
		img = imaging.Resize(img, targetW, targetH, imaging.Lanczos)
	}

	data, err := codec.Encode(img, settings.Format, settings.Quality)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", inputPath, err)
	}

	if len(data) > MaxFileSizeBytes {
		o.logger.Warnf("optimized image is %.2fMB, above the 5MB ceiling: %s",
			float64(len(data))/1024/1024, inputPath)
	}

	o.logger.Infof("optimized %s: %.1fKB, %dx%dpx",
		filepath.Base(inputPath), float64(len(data))/1024, targetW, targetH)

	return &Artifact{Data: data, Width: targetW, Height: targetH}, nil
}

// OptimizeFile optimizes a single image and writes the result to
// outputPath. Failures are captured in the Result rather than
// propagated, so the batch loop can continue with the next file.
func (o *DefaultOptimizer) OptimizeFile(inputPath, outputPath string, settings Settings) *Result {
	res := &Result{
		InputPath:  inputPath,
		OutputPath: outputPath,
		StartedAt:  time.Now(),
	}

	info, err := os.Stat(inputPath)
	if err != nil {
		return o.fail(res, fmt.Errorf("stat: %w", err))
	}
	res.OriginalSize = info.Size()

	artifact, err := o.Optimize(inputPath, settings)
	if err != nil {
		return o.fail(res, err)
	}
	res.Width = artifact.Width
	res.Height = artifact.Height
	res.OptimizedSize = int64(len(artifact.Data))

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return o.fail(res, fmt.Errorf("create output dir: %w", err))
	}
	if err := os.WriteFile(outputPath, artifact.Data, 0644); err != nil {
		return o.fail(res, fmt.Errorf("write output: %w", err))
	}

	ratio := 0.0
	if res.OriginalSize > 0 {
		ratio = (1 - float64(res.OptimizedSize)/float64(res.OriginalSize)) * 100
	}
	res.Success = true
	res.Message = fmt.Sprintf("%.1fKB -> %.1fKB (saved %.1f%%)",
		float64(res.OriginalSize)/1024, float64(res.OptimizedSize)/1024, ratio)
	res.FinishedAt = time.Now()

	o.logger.Infof("saved %s -> %s: %s", inputPath, outputPath, res.Message)
	return res
}

func (o *DefaultOptimizer) fail(res *Result, err error) *Result {
	res.Success = false
	res.Error = err
	res.Message = err.Error()
	res.FinishedAt = time.Now()
	o.logger.Errorf("failed to optimize %s: %v", res.InputPath, err)
	return res
}
