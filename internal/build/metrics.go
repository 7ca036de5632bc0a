package build

import (
	"sync"
	"time"
)

// BuildMetrics tracks site build totals
type BuildMetrics struct {
	TotalFiles      int64
	RewrittenFiles  int64
	UnchangedFiles  int64
	FailedFiles     int64
	AverageDuration time.Duration
	TotalDuration   time.Duration
	mutex           sync.RWMutex
}

// NewBuildMetrics creates a new build metrics tracker
func NewBuildMetrics() *BuildMetrics {
	return &BuildMetrics{}
}

// RecordFile records a processed file in the metrics
func (bm *BuildMetrics) RecordFile(result FileResult) {
	bm.mutex.Lock()
	defer bm.mutex.Unlock()

	bm.TotalFiles++
	bm.TotalDuration += result.Duration

	switch {
	case result.Error != nil:
		bm.FailedFiles++
	case result.Rewritten:
		bm.RewrittenFiles++
	default:
		bm.UnchangedFiles++
	}

	bm.AverageDuration = bm.TotalDuration / time.Duration(bm.TotalFiles)
}

// GetSnapshot returns a snapshot of current metrics
func (bm *BuildMetrics) GetSnapshot() BuildMetrics {
	bm.mutex.RLock()
	defer bm.mutex.RUnlock()
	// Return a copy without the mutex to avoid lock copying issues
	return BuildMetrics{
		TotalFiles:      bm.TotalFiles,
		RewrittenFiles:  bm.RewrittenFiles,
		UnchangedFiles:  bm.UnchangedFiles,
		FailedFiles:     bm.FailedFiles,
		AverageDuration: bm.AverageDuration,
		TotalDuration:   bm.TotalDuration,
	}
}

// Reset resets all metrics
func (bm *BuildMetrics) Reset() {
	bm.mutex.Lock()
	defer bm.mutex.Unlock()

	bm.TotalFiles = 0
	bm.RewrittenFiles = 0
	bm.UnchangedFiles = 0
	bm.FailedFiles = 0
	bm.AverageDuration = 0
	bm.TotalDuration = 0
}

// GetSuccessRate returns the share of files processed without error as a percentage
func (bm *BuildMetrics) GetSuccessRate() float64 {
	bm.mutex.RLock()
	defer bm.mutex.RUnlock()

	if bm.TotalFiles == 0 {
		return 0.0
	}

	return float64(bm.TotalFiles-bm.FailedFiles) / float64(bm.TotalFiles) * 100.0
}
