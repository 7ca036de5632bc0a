// Package errors provides the structured error types used across sitecsp:
// typed application errors, wrapping helpers, configuration validation
// errors and a concurrency-safe collector for per-file failures.
package errors

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// FileError records a failure to process one artifact.
type FileError struct {
	Path      string
	Err       error
	Timestamp time.Time
}

// Error implements the error interface
func (fe *FileError) Error() string {
	return fmt.Sprintf("%s: %v", fe.Path, fe.Err)
}

// Unwrap returns the underlying error
func (fe *FileError) Unwrap() error {
	return fe.Err
}

// ErrorCollector collects per-file failures from concurrent workers
type ErrorCollector struct {
	fileErrors []FileError
	mutex      sync.Mutex
}

// NewErrorCollector creates a new error collector
func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{
		fileErrors: make([]FileError, 0),
	}
}

// AddFile records a failure for path
func (ec *ErrorCollector) AddFile(path string, err error) {
	if err == nil {
		return
	}
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.fileErrors = append(ec.fileErrors, FileError{
		Path:      path,
		Err:       err,
		Timestamp: time.Now(),
	})
}

// GetFileErrors returns the collected file errors sorted by path
func (ec *ErrorCollector) GetFileErrors() []FileError {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	result := make([]FileError, len(ec.fileErrors))
	copy(result, ec.fileErrors)
	sort.Slice(result, func(i, j int) bool {
		return result[i].Path < result[j].Path
	})
	return result
}
