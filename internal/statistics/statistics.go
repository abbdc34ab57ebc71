package statistics

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Statistics aggregates counters for one optimize/send run.
type Statistics struct {
	FilesFound     int64
	FilesProcessed int64
	FilesOptimized int64
	FilesUploaded  int64
	FilesFailed    int64

	BytesIn  int64
	BytesOut int64

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	Errors []ProcessingError

	mutex sync.RWMutex
}

// ProcessingError records one per-file failure for the run summary.
type ProcessingError struct {
	FilePath  string
	Operation string
	Error     string
	Timestamp time.Time
}

// NewStatistics returns a new Statistics instance with the clock
// started.
func NewStatistics() *Statistics {
	return &Statistics{
		StartTime: time.Now(),
		Errors:    make([]ProcessingError, 0),
	}
}

// SetFilesFound records how many files the walker discovered.
func (s *Statistics) SetFilesFound(n int) {
	atomic.StoreInt64(&s.FilesFound, int64(n))
}

// IncrementProcessed increases the processed-file count by 1.
func (s *Statistics) IncrementProcessed() {
	atomic.AddInt64(&s.FilesProcessed, 1)
}

// IncrementOptimized increases the optimized-file count by 1.
func (s *Statistics) IncrementOptimized() {
	atomic.AddInt64(&s.FilesOptimized, 1)
}

// IncrementUploaded increases the uploaded-file count by 1.
func (s *Statistics) IncrementUploaded() {
	atomic.AddInt64(&s.FilesUploaded, 1)
}

// IncrementFailed increases the failed-file count by 1.
func (s *Statistics) IncrementFailed() {
	atomic.AddInt64(&s.FilesFailed, 1)
}

// AddBytes records original and optimized sizes for one image.
func (s *Statistics) AddBytes(in, out int64) {
	atomic.AddInt64(&s.BytesIn, in)
	atomic.AddInt64(&s.BytesOut, out)
}

// AddError records a per-file failure.
func (s *Statistics) AddError(filePath, operation, errorMsg string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.Errors = append(s.Errors, ProcessingError{
		FilePath:  filePath,
		Operation: operation,
		Error:     errorMsg,
		Timestamp: time.Now(),
	})
}

// FailedCount returns the number of failed files.
func (s *Statistics) FailedCount() int64 {
	return atomic.LoadInt64(&s.FilesFailed)
}

// Finalize stops the clock.
func (s *Statistics) Finalize() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.EndTime = time.Now()
	s.Duration = s.EndTime.Sub(s.StartTime)
}

// GetSummary returns a formatted summary of the run.
func (s *Statistics) GetSummary() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return fmt.Sprintf(`Image Optimizer Summary:

Files:
		Found: %d
		Processed: %d
		Optimized: %d
		Uploaded: %d
		Failed: %d

Data:
		Bytes In: %s
		Bytes Out: %s

Duration: %v`,
		atomic.LoadInt64(&s.FilesFound),
		atomic.LoadInt64(&s.FilesProcessed),
		atomic.LoadInt64(&s.FilesOptimized),
		atomic.LoadInt64(&s.FilesUploaded),
		atomic.LoadInt64(&s.FilesFailed),
		formatBytes(atomic.LoadInt64(&s.BytesIn)),
		formatBytes(atomic.LoadInt64(&s.BytesOut)),
		s.Duration)
}

// GetErrorSummary returns a summary of per-file failures, capped at
// the first ten.
func (s *Statistics) GetErrorSummary() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if len(s.Errors) == 0 {
		return "No errors occurred during processing"
	}

	result := fmt.Sprintf("Errors (%d total):\n", len(s.Errors))
	for i, err := range s.Errors {
		if i >= 10 {
			result += fmt.Sprintf("  ... and %d more errors\n", len(s.Errors)-10)
			break
		}
		result += fmt.Sprintf("  [%s] %s: %s - %s\n",
			err.Timestamp.Format("15:04:05"),
			err.Operation,
			err.FilePath,
			err.Error)
	}
	return result
}

// formatBytes returns a human-readable string for a byte count.
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
