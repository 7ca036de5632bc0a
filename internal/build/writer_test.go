package build

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/sitecsp/internal/csp"
	"github.com/conneroisu/sitecsp/internal/errors"
)

const samplePage = `<!DOCTYPE html><html><head><title>t</title></head><body><script>alert(1)</script></body></html>`

func newTestWriter(attempts uint) *ArtifactWriter {
	return NewArtifactWriter(csp.NewGenerator(csp.DefaultConfig()), WriterOptions{
		Attempts:   attempts,
		RetryDelay: time.Millisecond,
	})
}

func TestArtifactWriter_HTML(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "nested", "deeper", "index.html")
	w := newTestWriter(1)

	outcome, err := w.WriteArtifact(context.Background(), dest, []byte(samplePage))
	require.NoError(t, err)
	assert.True(t, outcome.Written)
	require.NotNil(t, outcome.Policy)
	assert.True(t, outcome.Policy.Contains(csp.ScriptSrc, csp.HashSource("alert(1)")))

	written, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, outcome.Size, len(written))
	assert.Contains(t, string(written), `http-equiv="Content-Security-Policy"`)
}

func TestArtifactWriter_NonHTMLIsCopied(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "assets", "site.css")
	content := []byte("body { color: red }")

	outcome, err := newTestWriter(1).WriteArtifact(context.Background(), dest, content)
	require.NoError(t, err)
	assert.True(t, outcome.Written)
	assert.Nil(t, outcome.Policy)

	written, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, content, written)
}

func TestArtifactWriter_SkipsIdenticalContent(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "index.html")
	w := newTestWriter(1)

	changed, err := w.Write(context.Background(), dest, []byte(samplePage))
	require.NoError(t, err)
	assert.True(t, changed)

	info, err := os.Stat(dest)
	require.NoError(t, err)

	changed, err = w.Write(context.Background(), dest, []byte(samplePage))
	require.NoError(t, err)
	assert.False(t, changed, "regenerating the same page must not rewrite it")

	// rewriting an already processed page is also a no-op
	processed, err := os.ReadFile(dest)
	require.NoError(t, err)
	changed, err = w.Write(context.Background(), dest, processed)
	require.NoError(t, err)
	assert.False(t, changed)

	after, err := os.Stat(dest)
	require.NoError(t, err)
	assert.Equal(t, info.ModTime(), after.ModTime())
}

func TestArtifactWriter_PreservesPermissions(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "index.html")
	require.NoError(t, os.WriteFile(dest, []byte(samplePage), 0o600))

	_, err := newTestWriter(1).Write(context.Background(), dest, []byte(samplePage))
	require.NoError(t, err)

	info, err := os.Stat(dest)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestArtifactWriter_RetriesTransientFailures(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "index.html")
	w := newTestWriter(3)

	calls := 0
	w.writeFile = func(path string, data []byte, perm os.FileMode) error {
		calls++
		if calls < 3 {
			return stderrors.New("device busy")
		}
		return writeFileAtomic(path, data, perm)
	}

	written, err := w.Write(context.Background(), dest, []byte(samplePage))
	require.NoError(t, err)
	assert.True(t, written)
	assert.Equal(t, 3, calls)
}

func TestArtifactWriter_GivesUpAfterAttempts(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "index.html")
	w := newTestWriter(2)

	calls := 0
	w.writeFile = func(string, []byte, os.FileMode) error {
		calls++
		return stderrors.New("disk full")
	}

	written, err := w.Write(context.Background(), dest, []byte(samplePage))
	require.Error(t, err)
	assert.False(t, written)
	assert.Equal(t, 2, calls)
	assert.True(t, errors.IsIOError(err))
	assert.Equal(t, errors.ErrCodeWriteFailed, errors.GetErrorCode(err))
	assert.True(t, strings.Contains(err.Error(), "disk full"))
	assert.True(t, strings.Contains(err.Error(), dest))

	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 2, appErr.Context["attempts"])
}

func TestArtifactWriter_DoesNotRetryPermanentFailures(t *testing.T) {
	tests := []struct {
		name  string
		cause error
	}{
		{"permission denied", os.ErrPermission},
		{"missing directory", os.ErrNotExist},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dest := filepath.Join(t.TempDir(), "index.html")
			w := newTestWriter(5)

			calls := 0
			w.writeFile = func(string, []byte, os.FileMode) error {
				calls++
				return &os.PathError{Op: "open", Path: dest, Err: tt.cause}
			}

			written, err := w.Write(context.Background(), dest, []byte(samplePage))
			require.Error(t, err)
			assert.False(t, written)
			assert.Equal(t, 1, calls)
			assert.False(t, errors.IsRecoverable(err))
			assert.Equal(t, errors.ErrCodeWriteFailed, errors.GetErrorCode(err))
			assert.ErrorIs(t, err, tt.cause)
		})
	}
}

func TestWriteError_Recoverable(t *testing.T) {
	assert.True(t, writeError(stderrors.New("device busy"), "a.html").Recoverable)
	assert.False(t, writeError(os.ErrPermission, "a.html").Recoverable)
	assert.Equal(t, "a.html", writeError(os.ErrNotExist, "a.html").FilePath)
}

func TestArtifactWriter_CustomHTMLSelector(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "page.xhtml")

	w := NewArtifactWriter(csp.NewGenerator(csp.DefaultConfig()), WriterOptions{
		IsHTML: func(path string) bool { return filepath.Ext(path) == ".xhtml" },
	})

	outcome, err := w.WriteArtifact(context.Background(), dest, []byte(samplePage))
	require.NoError(t, err)
	assert.NotNil(t, outcome.Policy)
}
