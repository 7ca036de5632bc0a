// Package build rewrites the HTML artifacts of a generated site so each page
// carries its own Content-Security-Policy.
//
// WorkerManager implements a configurable worker pool that processes site
// files concurrently with proper lifecycle management and graceful shutdown.
package build

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// FileTask is one artifact queued for processing.
type FileTask struct {
	// Path is the file location on disk.
	Path string
	// Rel is Path relative to the site directory, slash separated.
	Rel string
}

// FileResult is the outcome of processing one FileTask.
type FileResult struct {
	Task      FileTask
	Rewritten bool
	Outcome   *WriteOutcome
	Duration  time.Duration
	Error     error
}

// ProcessFunc handles a single task.
type ProcessFunc func(ctx context.Context, task FileTask) FileResult

// WorkerManager manages a pool of workers with configurable parallelism.
type WorkerManager struct {
	// workers defines the number of concurrent workers
	workers int
	// process handles each task
	process ProcessFunc
	// metrics tracks per-file results
	metrics *BuildMetrics
	// workerWg synchronizes worker goroutine lifecycle
	workerWg sync.WaitGroup
	// cancel terminates all worker operations
	cancel context.CancelFunc
	// mu protects concurrent access to worker state
	mu sync.RWMutex

	totalTasks     atomic.Int64
	completedTasks atomic.Int64
	failedTasks    atomic.Int64
	totalTime      atomic.Int64
}

// NewWorkerManager creates a new worker manager. A workers value below 1 is
// treated as 1.
func NewWorkerManager(workers int, process ProcessFunc, metrics *BuildMetrics) *WorkerManager {
	if workers < 1 {
		workers = 1
	}
	return &WorkerManager{
		workers: workers,
		process: process,
		metrics: metrics,
	}
}

// StartWorkers begins worker goroutines reading from tasks. Each result is
// sent on results. Workers exit when tasks is closed or ctx is cancelled.
func (wm *WorkerManager) StartWorkers(ctx context.Context, tasks <-chan FileTask, results chan<- FileResult) {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	ctx, wm.cancel = context.WithCancel(ctx)

	for i := 0; i < wm.workers; i++ {
		wm.workerWg.Add(1)
		go wm.worker(ctx, tasks, results)
	}
}

// Wait blocks until every worker has exited.
func (wm *WorkerManager) Wait() {
	wm.workerWg.Wait()
}

// StopWorkers cancels all workers and waits for them to finish.
func (wm *WorkerManager) StopWorkers() {
	wm.mu.RLock()
	cancel := wm.cancel
	wm.mu.RUnlock()

	if cancel != nil {
		cancel()
	}

	wm.workerWg.Wait()
}

func (wm *WorkerManager) worker(ctx context.Context, tasks <-chan FileTask, results chan<- FileResult) {
	defer wm.workerWg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case task, ok := <-tasks:
			if !ok {
				return
			}

			wm.totalTasks.Add(1)
			result := wm.process(ctx, task)
			wm.totalTime.Add(int64(result.Duration))
			if result.Error != nil {
				wm.failedTasks.Add(1)
			} else {
				wm.completedTasks.Add(1)
			}

			if wm.metrics != nil {
				wm.metrics.RecordFile(result)
			}

			select {
			case results <- result:
			case <-ctx.Done():
				return
			}
		}
	}
}

// GetWorkerStats returns current worker pool statistics.
func (wm *WorkerManager) GetWorkerStats() WorkerStats {
	wm.mu.RLock()
	workers := wm.workers
	wm.mu.RUnlock()

	stats := WorkerStats{
		ActiveWorkers:  workers,
		TotalTasks:     wm.totalTasks.Load(),
		CompletedTasks: wm.completedTasks.Load(),
		FailedTasks:    wm.failedTasks.Load(),
	}
	if stats.TotalTasks > 0 {
		stats.AverageTaskTime = time.Duration(wm.totalTime.Load() / stats.TotalTasks)
	}
	return stats
}

// WorkerStats provides worker pool performance metrics.
type WorkerStats struct {
	ActiveWorkers   int
	TotalTasks      int64
	CompletedTasks  int64
	FailedTasks     int64
	AverageTaskTime time.Duration
}
