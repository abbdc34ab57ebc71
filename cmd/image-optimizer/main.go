package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"image-optimizer-go/internal/codec"
	"image-optimizer-go/internal/config"
	"image-optimizer-go/internal/logger"
	"image-optimizer-go/internal/mockapi"
	"image-optimizer-go/internal/optimizer"
	"image-optimizer-go/internal/processor"
	"image-optimizer-go/internal/recorder"
	"image-optimizer-go/internal/statistics"
	"image-optimizer-go/internal/uploader"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
	quiet   bool

	inputPath     string
	outputDir     string
	formatName    string
	quality       int
	maxSize       int
	recursive     bool
	apiURL        string
	apiKey        string
	metadataPath  string
	includeBase64 bool
	saveOptimized string
	saveResponse  string
	mockPort      int
	mockKey       string
)

// rootCmd is the base command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "image-optimizer",
	Short: "Optimize images for API size and dimension limits",
	Long: `ImageOptimizer resizes and re-encodes images so they satisfy a
third-party API's constraints: at most 5MB per file and a long edge of
at most 1568 pixels. Supported inputs are JPEG, PNG, GIF and WebP;
outputs are JPEG, PNG or WebP.

Use "convert" to batch-optimize a directory to disk, or "send" to
optimize images in memory and upload them to the image-embed API as
base64 JSON payloads.`,
}

// convertCmd batch-optimizes a directory into another directory.
var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Batch-optimize images from one directory into another",
	Long: `Optimizes every supported image under the input directory and writes
the results under the output directory, mirroring relative paths with
the new extension. Per-file failures are logged and counted; the
command always exits 0 once the batch completes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConvert(cmd)
	},
}

// sendCmd optimizes images and uploads them to the API.
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Optimize images and upload them to the image-embed API",
	Long: `Optimizes each image in memory, base64-encodes it and POSTs it to the
API inside a JSON envelope with an api-key header. The endpoint
defaults to API_HOST + REGISTER_IMAGE_ENDPOINT and the key to API_KEY.
Exits 1 when the key is missing or any image in the batch failed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSend(cmd)
	},
}

// serveMockCmd runs a local stand-in for the image-embed backend.
var serveMockCmd = &cobra.Command{
	Use:   "serve-mock",
	Short: "Run a local mock of the image-embed endpoint",
	Long: `Starts an HTTP server that speaks the image-embed wire format:
validates the api-key header, decodes the base64 payload and replies
with a JSON document. Useful for trying out "send" without a backend.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServeMock()
	},
}

func init() {
	cobra.OnInitialize(initEnv)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "suppress non-error output")

	convertCmd.Flags().StringVarP(&inputPath, "input", "i", "", "input image directory")
	convertCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output image directory")
	convertCmd.Flags().StringVarP(&formatName, "format", "f", "jpg", "output format (jpg, png, webp)")
	convertCmd.Flags().IntVarP(&quality, "quality", "q", optimizer.DefaultQuality, "JPEG or WebP quality (0-100)")
	convertCmd.Flags().IntVarP(&maxSize, "max-size", "s", optimizer.DefaultMaxDimension, "maximum long-edge size in pixels")
	convertCmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "process the input directory recursively")
	_ = convertCmd.MarkFlagRequired("input")
	_ = convertCmd.MarkFlagRequired("output")

	sendCmd.Flags().StringVarP(&inputPath, "input", "i", "", "input image file or directory")
	sendCmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "process the input directory recursively")
	sendCmd.Flags().StringVarP(&formatName, "format", "f", "jpg", "output format (jpg, png, webp)")
	sendCmd.Flags().IntVarP(&quality, "quality", "q", optimizer.DefaultQuality, "JPEG or WebP quality (0-100)")
	sendCmd.Flags().IntVarP(&maxSize, "max-size", "s", optimizer.DefaultMaxDimension, "maximum long-edge size in pixels")
	sendCmd.Flags().StringVarP(&apiURL, "api-url", "u", "", "API endpoint URL (default API_HOST + REGISTER_IMAGE_ENDPOINT)")
	sendCmd.Flags().StringVarP(&apiKey, "api-key", "k", "", "API key (default API_KEY environment variable)")
	sendCmd.Flags().StringVarP(&metadataPath, "metadata", "m", "", "JSON file with extra metadata merged into every upload")
	sendCmd.Flags().BoolVar(&includeBase64, "include-base64", false, "include the base64 payload inside the metadata object")
	sendCmd.Flags().StringVarP(&saveOptimized, "save-optimized", "o", "", "directory to save optimized images")
	sendCmd.Flags().StringVar(&saveResponse, "save-response", "", "file or directory to save API responses")
	_ = sendCmd.MarkFlagRequired("input")

	serveMockCmd.Flags().IntVar(&mockPort, "port", 1880, "port to listen on")
	serveMockCmd.Flags().StringVar(&mockKey, "api-key", "", "expected API key (default API_KEY environment variable)")

	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(serveMockCmd)
}

// initEnv loads a .env file when present so API_HOST, API_KEY and
// friends behave the same as exported variables.
func initEnv() {
	_ = godotenv.Load()
}

// buildSettings combines CLI flags with config file defaults into the
// optimize settings for this run.
func buildSettings(cmd *cobra.Command, cfg *config.Config) (optimizer.Settings, error) {
	name := cfg.Optimize.Format
	if cmd.Flags().Changed("format") {
		name = formatName
	}
	format, err := codec.ParseFormat(name)
	if err != nil {
		return optimizer.Settings{}, err
	}

	settings := optimizer.Settings{
		Format:       format,
		Quality:      cfg.Optimize.Quality,
		MaxDimension: cfg.Optimize.MaxDimension,
	}
	if cmd.Flags().Changed("quality") {
		settings.Quality = quality
	}
	if cmd.Flags().Changed("max-size") {
		settings.MaxDimension = maxSize
	}
	return settings, nil
}

// runConvert executes the local-only batch conversion.
func runConvert(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := setupLogger(cfg)
	settings, err := buildSettings(cmd, cfg)
	if err != nil {
		return err
	}

	log.Infof("input directory: %s", inputPath)
	log.Infof("output directory: %s", outputDir)
	log.Infof("output format: %s, quality: %d, max long edge: %dpx",
		settings.Format, settings.Quality, settings.MaxDimension)

	stats := statistics.NewStatistics()
	proc := processor.NewProcessor(log, stats,
		optimizer.NewDefaultOptimizer(log),
		uploader.NewClient(log),
		recorder.NewRecorder(log))

	if err := proc.ConvertAll(processor.ConvertParams{
		InputDir:  inputPath,
		OutputDir: outputDir,
		Recursive: recursive,
		Settings:  settings,
	}); err != nil {
		return err
	}

	if !quiet {
		fmt.Println("\n" + stats.GetSummary())
	}
	return nil
}

// runSend executes the optimize-and-upload batch.
func runSend(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := setupLogger(cfg)
	settings, err := buildSettings(cmd, cfg)
	if err != nil {
		return err
	}

	url := apiURL
	if url == "" {
		url = cfg.API.URL()
	}
	key := apiKey
	if key == "" {
		key = cfg.API.Key
	}

	log.Infof("API endpoint: %s", url)

	stats := statistics.NewStatistics()
	proc := processor.NewProcessor(log, stats,
		optimizer.NewDefaultOptimizer(log),
		uploader.NewClient(log),
		recorder.NewRecorder(log))

	err = proc.SendAll(context.Background(), processor.SendParams{
		Input:         inputPath,
		Recursive:     recursive,
		Settings:      settings,
		APIURL:        url,
		APIKey:        key,
		MetadataPath:  metadataPath,
		IncludeBase64: includeBase64,
		SaveOptimized: saveOptimized,
		SaveResponse:  saveResponse,
	})

	if !quiet {
		fmt.Println("\n" + stats.GetSummary())
	}
	return err
}

// runServeMock starts the mock API server and handles graceful
// shutdown.
func runServeMock() error {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := setupLogger(cfg)
	key := mockKey
	if key == "" {
		key = cfg.API.Key
	}
	if key == "" {
		return fmt.Errorf("mock server needs an expected API key: use --api-key or API_KEY")
	}

	server := mockapi.NewServer(log, cfg.API.Endpoint, key)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Start(mockPort); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("mock server failed to start: %w", err)
	case <-sigChan:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Stop(ctx)
}

// setupLogger configures and returns a logger.
func setupLogger(cfg *config.Config) *logrus.Logger {
	loggerCfg := logger.LoggerConfig{
		Level:      cfg.Logging.Level,
		FilePath:   cfg.Logging.FilePath,
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAge:     cfg.Logging.MaxAge,
		Compress:   cfg.Logging.Compress,
		Console:    !quiet,
	}

	if verbose {
		loggerCfg.Level = "debug"
	}
	if quiet {
		loggerCfg.Level = "error"
	}

	log, err := logger.NewLogger(loggerCfg)
	if err != nil {
		log = logrus.New()
		log.SetLevel(logrus.InfoLevel)
	}

	return log
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
