package build

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/conneroisu/sitecsp/internal/config"
	"github.com/conneroisu/sitecsp/internal/csp"
	"github.com/conneroisu/sitecsp/internal/errors"
	"github.com/conneroisu/sitecsp/internal/logging"
)

// Report summarizes one pipeline run.
type Report struct {
	SiteDir   string
	Files     int
	Rewritten int
	Unchanged int
	Failed    int
	Duration  time.Duration
	Errors    []errors.FileError
}

// HasFailures reports whether any file could not be processed.
func (r *Report) HasFailures() bool {
	return r.Failed > 0
}

// BuildCallback is called after each file is processed. During Run it is
// called from worker goroutines concurrently.
type BuildCallback func(result FileResult)

// Pipeline rewrites every HTML artifact of a site directory in place.
type Pipeline struct {
	cfg       config.BuildConfig
	writer    *ArtifactWriter
	logger    logging.Logger
	metrics   *BuildMetrics
	collector *Collector
	callbacks []BuildCallback
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithLogger sets the pipeline logger.
func WithLogger(logger logging.Logger) PipelineOption {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithCollector records every processed file on c.
func WithCollector(c *Collector) PipelineOption {
	return func(p *Pipeline) {
		p.collector = c
	}
}

// WithCallback registers a callback invoked for every processed file.
func WithCallback(cb BuildCallback) PipelineOption {
	return func(p *Pipeline) {
		p.callbacks = append(p.callbacks, cb)
	}
}

// NewPipeline creates a Pipeline for cfg. HTML documents are rewritten by gen.
func NewPipeline(cfg config.BuildConfig, gen *csp.Generator, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		cfg:     cfg,
		logger:  logging.NewNopLogger(),
		metrics: NewBuildMetrics(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.WithComponent("build")
	p.writer = NewArtifactWriter(gen, WriterOptions{
		IsHTML:   cfg.IsHTML,
		Attempts: cfg.WriteAttempts,
		Logger:   p.logger,
	})
	return p
}

// Metrics returns the running totals across every Run and ProcessFile call.
func (p *Pipeline) Metrics() *BuildMetrics {
	return p.metrics
}

// Collector returns the Prometheus collector, or nil.
func (p *Pipeline) Collector() *Collector {
	return p.collector
}

// Run processes every HTML artifact below siteDir. A file that fails is
// recorded in the report and does not stop the others. The returned error
// is non-nil only when the run itself could not proceed.
func (p *Pipeline) Run(ctx context.Context, siteDir string) (*Report, error) {
	start := time.Now()

	info, err := os.Stat(siteDir)
	if err != nil {
		return nil, errors.WrapIO(err, errors.ErrCodeFileNotFound, "site directory not found", siteDir)
	}
	if !info.IsDir() {
		return nil, errors.NewIOError(errors.ErrCodeInvalidPath, "site path is not a directory", nil).
			WithLocation(siteDir)
	}

	perf := logging.StartOperation(p.logger, "site build")
	tasks, err := p.discover(siteDir)
	if err != nil {
		perf.EndWithError(ctx, err)
		return nil, err
	}

	p.logger.Info(ctx, "Processing site", "dir", siteDir, "files", len(tasks), "workers", p.cfg.Workers)

	taskCh := make(chan FileTask)
	results := make(chan FileResult)
	wm := NewWorkerManager(p.cfg.Workers, p.process, p.metrics)
	wm.StartWorkers(ctx, taskCh, results)
	defer wm.StopWorkers()

	go func() {
		defer close(taskCh)
		for _, task := range tasks {
			select {
			case taskCh <- task:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wm.Wait()
		close(results)
	}()

	report := &Report{SiteDir: siteDir}
	collector := errors.NewErrorCollector()
	for result := range results {
		report.Files++
		switch {
		case result.Error != nil:
			report.Failed++
			collector.AddFile(result.Task.Rel, result.Error)
		case result.Rewritten:
			report.Rewritten++
		default:
			report.Unchanged++
		}
	}

	report.Duration = time.Since(start)
	report.Errors = collector.GetFileErrors()

	if err := ctx.Err(); err != nil {
		perf.EndWithError(ctx, err)
		return report, err
	}

	perf.End(ctx,
		"files", report.Files,
		"rewritten", report.Rewritten,
		"unchanged", report.Unchanged,
		"failed", report.Failed,
	)
	return report, nil
}

// ProcessFile rewrites a single file in place.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) FileResult {
	result := p.process(ctx, FileTask{Path: path, Rel: filepath.ToSlash(path)})
	p.metrics.RecordFile(result)
	return result
}

// Accepts reports whether rel, relative to the site directory, is an HTML
// artifact that the pipeline processes.
func (p *Pipeline) Accepts(rel string) bool {
	return p.cfg.IsHTML(rel) && !p.cfg.IsExcluded(rel)
}

func (p *Pipeline) discover(siteDir string) ([]FileTask, error) {
	var tasks []FileTask

	err := filepath.WalkDir(siteDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(siteDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if !p.Accepts(rel) {
			return nil
		}
		tasks = append(tasks, FileTask{Path: path, Rel: rel})
		return nil
	})
	if err != nil {
		return nil, errors.WrapIO(err, errors.ErrCodeReadFailed, "failed to scan site directory", siteDir)
	}

	sort.Slice(tasks, func(i, j int) bool { return tasks[i].Rel < tasks[j].Rel })
	return tasks, nil
}

func (p *Pipeline) process(ctx context.Context, task FileTask) FileResult {
	start := time.Now()
	result := FileResult{Task: task}

	content, err := os.ReadFile(task.Path)
	if err != nil {
		result.Error = errors.WrapIO(err, errors.ErrCodeReadFailed, "failed to read artifact", task.Path)
	} else {
		outcome, err := p.writer.WriteArtifact(ctx, task.Path, content)
		if err != nil {
			result.Error = err
		} else {
			result.Outcome = outcome
			result.Rewritten = outcome.Written
		}
	}
	result.Duration = time.Since(start)

	switch {
	case errors.IsIOError(result.Error):
		p.logger.Error(ctx, result.Error, "Failed to access artifact",
			"path", task.Rel, "code", errors.GetErrorCode(result.Error))
	case result.Error != nil:
		p.logger.Warn(ctx, result.Error, "Failed to process artifact",
			"path", task.Rel, "code", errors.GetErrorCode(result.Error))
	default:
		p.logger.Debug(ctx, "Processed artifact", "path", task.Rel, "rewritten", result.Rewritten)
	}

	if p.collector != nil {
		p.collector.RecordFile(result)
	}
	for _, cb := range p.callbacks {
		cb(result)
	}
	return result
}
