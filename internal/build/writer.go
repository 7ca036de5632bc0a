package build

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"github.com/conneroisu/sitecsp/internal/csp"
	"github.com/conneroisu/sitecsp/internal/errors"
	"github.com/conneroisu/sitecsp/internal/logging"
)

const (
	defaultWriteAttempts = 3
	defaultRetryDelay    = 50 * time.Millisecond
	maxRetryDelay        = 2 * time.Second
)

// WriteOutcome describes what ArtifactWriter did with one artifact.
type WriteOutcome struct {
	// Written is false when the destination already held the same bytes.
	Written bool
	// Policy is the policy embedded into an HTML artifact, nil otherwise.
	Policy *csp.Directives
	// Size is the number of bytes of the final content.
	Size int
}

// WriterOptions configures an ArtifactWriter.
type WriterOptions struct {
	// IsHTML selects which destinations pass through the generator.
	IsHTML func(path string) bool
	// Attempts is the number of write attempts before giving up.
	Attempts uint
	// RetryDelay is the base delay between attempts.
	RetryDelay time.Duration
	Logger     logging.Logger
}

// ArtifactWriter writes generated site files to disk, embedding a
// Content-Security-Policy into every HTML artifact on the way.
type ArtifactWriter struct {
	generator  *csp.Generator
	isHTML     func(string) bool
	attempts   uint
	retryDelay time.Duration
	logger     logging.Logger

	writeFile func(path string, data []byte, perm os.FileMode) error
}

// NewArtifactWriter creates an ArtifactWriter using gen for HTML artifacts.
func NewArtifactWriter(gen *csp.Generator, opts WriterOptions) *ArtifactWriter {
	w := &ArtifactWriter{
		generator:  gen,
		isHTML:     opts.IsHTML,
		attempts:   opts.Attempts,
		retryDelay: opts.RetryDelay,
		logger:     opts.Logger,
		writeFile:  writeFileAtomic,
	}
	if w.isHTML == nil {
		w.isHTML = func(path string) bool { return filepath.Ext(path) == ".html" }
	}
	if w.attempts == 0 {
		w.attempts = defaultWriteAttempts
	}
	if w.retryDelay <= 0 {
		w.retryDelay = defaultRetryDelay
	}
	if w.logger == nil {
		w.logger = logging.NewNopLogger()
	}
	w.logger = w.logger.WithComponent("writer")
	return w
}

// Write stores content at dest and reports whether the file changed.
func (w *ArtifactWriter) Write(ctx context.Context, dest string, content []byte) (bool, error) {
	outcome, err := w.WriteArtifact(ctx, dest, content)
	if err != nil {
		return false, err
	}
	return outcome.Written, nil
}

// WriteArtifact stores content at dest. HTML artifacts are rewritten by the
// generator first. Missing parent directories are created, and a destination
// that already holds identical bytes is left untouched.
func (w *ArtifactWriter) WriteArtifact(ctx context.Context, dest string, content []byte) (*WriteOutcome, error) {
	outcome := &WriteOutcome{}

	if w.isHTML(dest) {
		res, err := w.generator.Process(ctx, bytes.NewReader(content))
		if err != nil {
			if appErr, ok := errors.AsAppError(err); ok {
				return nil, appErr.WithLocation(dest)
			}
			return nil, err
		}
		content = []byte(res.HTML)
		outcome.Policy = res.Policy
	}
	outcome.Size = len(content)

	if existing, err := os.ReadFile(dest); err == nil && bytes.Equal(existing, content) {
		w.logger.Debug(ctx, "Artifact unchanged, skipping write", "path", dest)
		return outcome, nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return nil, errors.WrapIO(err, errors.ErrCodeWriteFailed, "failed to create output directory", dest)
	}

	perm := os.FileMode(0o644)
	if info, err := os.Stat(dest); err == nil {
		perm = info.Mode().Perm()
	}

	attempts := 0
	err := retry.Do(
		func() error {
			attempts++
			if err := w.writeFile(dest, content, perm); err != nil {
				return writeError(err, dest)
			}
			return nil
		},
		retry.Attempts(w.attempts),
		retry.Delay(w.retryDelay),
		retry.MaxDelay(maxRetryDelay),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.OnRetry(func(n uint, err error) {
			w.logger.Warn(ctx, err, "Retrying artifact write", "path", dest, "attempt", n+1)
		}),
		retry.RetryIf(errors.IsRecoverable),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		if appErr, ok := errors.AsAppError(err); ok {
			return nil, appErr.WithContext("attempts", attempts)
		}
		return nil, errors.WrapIO(err, errors.ErrCodeWriteFailed, "failed to write artifact", dest)
	}

	outcome.Written = true
	return outcome, nil
}

// writeError marks a failed write as recoverable unless waiting cannot
// change the outcome.
func writeError(err error, dest string) *errors.AppError {
	appErr := errors.NewIOError(errors.ErrCodeWriteFailed, "failed to write artifact", err).
		WithLocation(dest)
	appErr.Recoverable = !os.IsPermission(err) && !os.IsNotExist(err)
	return appErr
}

// writeFileAtomic writes data to a temporary file next to path and renames
// it into place, so readers never observe a partially written page.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".sitecsp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
