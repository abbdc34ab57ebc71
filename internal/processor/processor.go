package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"image-optimizer-go/internal/codec"
	"image-optimizer-go/internal/metadata"
	"image-optimizer-go/internal/optimizer"
	"image-optimizer-go/internal/recorder"
	"image-optimizer-go/internal/statistics"
	"image-optimizer-go/internal/uploader"
	"image-optimizer-go/internal/walker"

	"github.com/sirupsen/logrus"
)

// Processor drives the batch: one image fully optimized (and
// optionally uploaded) before the next begins. Per-file failures are
// counted and logged; the batch always continues.
type Processor struct {
	logger    *logrus.Logger
	stats     *statistics.Statistics
	optimizer optimizer.Optimizer
	uploader  *uploader.Client
	recorder  *recorder.Recorder
}

// ConvertParams defines one local-only batch conversion run.
type ConvertParams struct {
	InputDir  string
	OutputDir string
	Recursive bool
	Settings  optimizer.Settings
}

// SendParams defines one optimize-and-upload run.
type SendParams struct {
	Input         string
	Recursive     bool
	Settings      optimizer.Settings
	APIURL        string
	APIKey        string
	MetadataPath  string
	IncludeBase64 bool
	SaveOptimized string
	SaveResponse  string
}

// NewProcessor returns a new Processor.
func NewProcessor(
	logger *logrus.Logger,
	stats *statistics.Statistics,
	opt optimizer.Optimizer,
	up *uploader.Client,
	rec *recorder.Recorder,
) *Processor {
	return &Processor{
		logger:    logger,
		stats:     stats,
		optimizer: opt,
		uploader:  up,
		recorder:  rec,
	}
}

// ConvertAll optimizes every supported image under InputDir into
// OutputDir, mirroring relative paths with the new extension. Per-file
// failures never abort the run.
func (p *Processor) ConvertAll(params ConvertParams) error {
	files := walker.CollectImages(params.InputDir, params.Recursive, p.logger)
	if len(files) == 0 {
		p.logger.Warnf("no image files to process: %s", params.InputDir)
		return nil
	}

	if err := os.MkdirAll(params.OutputDir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	p.logger.Infof("found %d image files to process", len(files))
	p.stats.SetFilesFound(len(files))

	for _, file := range files {
		p.stats.IncrementProcessed()
		outPath := p.outputPath(params.InputDir, params.OutputDir, file, params.Settings.Format)

		res := p.optimizer.OptimizeFile(file, outPath, params.Settings)
		if res.Success {
			p.stats.IncrementOptimized()
			p.stats.AddBytes(res.OriginalSize, res.OptimizedSize)
		} else {
			p.stats.IncrementFailed()
			p.stats.AddError(file, "optimize", res.Message)
		}
	}

	p.stats.Finalize()
	p.logger.Infof("conversion finished: %d succeeded, %d failed",
		p.stats.FilesOptimized, p.stats.FailedCount())
	return nil
}

// SendAll optimizes every supported image under Input in memory and
// uploads each to the API. A missing API key aborts before any file is
// touched. The returned error reflects the aggregate verdict only.
func (p *Processor) SendAll(ctx context.Context, params SendParams) error {
	if params.APIKey == "" {
		return fmt.Errorf("API key is not set: use --api-key or the API_KEY environment variable")
	}

	baseMeta, err := metadata.LoadFile(params.MetadataPath)
	if err != nil {
		// A broken metadata file is logged and the run continues
		// with empty metadata.
		p.logger.Errorf("failed to load metadata file: %v", err)
		baseMeta = map[string]any{}
	}

	files := walker.CollectImages(params.Input, params.Recursive, p.logger)
	if len(files) == 0 {
		return fmt.Errorf("no image files to process: %s", params.Input)
	}

	p.logger.Infof("found %d image files to process", len(files))
	p.stats.SetFilesFound(len(files))

	for _, file := range files {
		p.logger.Infof("processing: %s", file)
		p.stats.IncrementProcessed()

		if p.sendOne(ctx, file, baseMeta, params) {
			p.stats.IncrementUploaded()
		} else {
			p.stats.IncrementFailed()
		}
	}

	p.stats.Finalize()
	p.logger.Infof("run finished: succeeded=%d failed=%d total=%d",
		p.stats.FilesUploaded, p.stats.FailedCount(), len(files))

	if failed := p.stats.FailedCount(); failed > 0 {
		return fmt.Errorf("%d of %d images failed", failed, len(files))
	}
	return nil
}

// sendOne processes a single image end to end. Persistence failures
// are logged but do not flip the verdict; codec and transport failures
// do.
func (p *Processor) sendOne(ctx context.Context, file string, baseMeta map[string]any, params SendParams) bool {
	meta := metadata.ForUpload(baseMeta, file)
	if exifFields := metadata.ExifFields(file, p.logger); exifFields != nil {
		meta["exif"] = exifFields
	}

	artifact, err := p.optimizer.Optimize(file, params.Settings)
	if err != nil {
		p.stats.AddError(file, "optimize", err.Error())
		return false
	}
	p.stats.IncrementOptimized()

	info, statErr := os.Stat(file)
	if statErr == nil {
		p.stats.AddBytes(info.Size(), int64(len(artifact.Data)))
	}

	if params.SaveOptimized != "" {
		saved, err := p.recorder.SaveOptimized(artifact.Data, params.SaveOptimized, file, params.Settings.Format)
		if err != nil {
			p.logger.Errorf("failed to save optimized image: %v", err)
		} else {
			meta["optimized_path"] = saved
		}
	}

	if params.IncludeBase64 {
		meta["image_base64"] = uploader.EncodeBase64(artifact.Data)
	}

	response, err := p.uploader.Upload(ctx, params.APIURL, params.APIKey,
		artifact.Data, params.Settings.Format.MIME(), meta)
	if err != nil {
		p.stats.AddError(file, "upload", err.Error())
		return false
	}

	if params.SaveResponse != "" {
		if err := p.recorder.SaveResponse(response, params.SaveResponse, file); err != nil {
			p.logger.Errorf("failed to save API response: %v", err)
		}
	}

	return true
}

// outputPath mirrors the source's relative path under outputDir with
// the new extension.
func (p *Processor) outputPath(inputDir, outputDir, file string, format codec.Format) string {
	rel := walker.OutputRelPath(inputDir, file)
	rel = strings.TrimSuffix(rel, filepath.Ext(rel)) + "." + format.Ext()
	return filepath.Join(outputDir, rel)
}
