package errors

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorError(t *testing.T) {
	t.Run("code path and cause", func(t *testing.T) {
		err := NewIOError(ErrCodeWriteFailed, "failed to write artifact", errors.New("disk full")).
			WithLocation("_site/index.html")

		msg := err.Error()
		assert.Equal(t, "[ERR_WRITE_FAILED] _site/index.html failed to write artifact: disk full", msg)
	})

	t.Run("message only", func(t *testing.T) {
		err := &AppError{Message: "plain"}
		assert.Equal(t, "plain", err.Error())
	})
}

func TestAppErrorIsAndUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := WrapParse(cause, ErrCodeParseFailed, "failed to parse document")

	assert.ErrorIs(t, err, cause)
	assert.True(t, errors.Is(err, &AppError{Type: ErrorTypeParse, Code: ErrCodeParseFailed}))
	assert.False(t, errors.Is(err, &AppError{Type: ErrorTypeIO, Code: ErrCodeParseFailed}))
}

func TestAppErrorWithContext(t *testing.T) {
	err := NewConfigError(ErrCodeConfigInvalid, "bad").
		WithContext("key", "csp.indentation").
		WithContext("value", -1)

	assert.Equal(t, "csp.indentation", err.Context["key"])
	assert.Equal(t, -1, err.Context["value"])
}

func TestPredicates(t *testing.T) {
	ioErr := NewIOError(ErrCodeReadFailed, "read", nil)
	parseErr := WrapParse(errors.New("bad markup"), ErrCodeParseFailed, "parse")
	wrapped := fmt.Errorf("outer: %w", parseErr)

	assert.True(t, IsIOError(ioErr))
	assert.False(t, IsIOError(wrapped))
	assert.True(t, IsRecoverable(wrapped))
	assert.True(t, IsRecoverable(NewValidationError(ErrCodeInvalidFlag, "bad flag")))
	assert.False(t, IsRecoverable(NewInternalError(ErrCodeRenderFailed, "render", nil)))
	assert.False(t, IsRecoverable(ioErr))
	assert.False(t, IsRecoverable(errors.New("plain")))
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrorTypeIO, ErrCodeReadFailed, "nothing"))

	base := errors.New("permission denied")
	ioErr := WrapIO(base, ErrCodeReadFailed, "failed to read", "a.html")
	require.NotNil(t, ioErr)
	assert.Equal(t, "a.html", ioErr.FilePath)
	assert.False(t, ioErr.Recoverable)
	assert.ErrorIs(t, ioErr, base)

	rewrapped := Wrap(ioErr, ErrorTypeInternal, ErrCodeRenderFailed, "processing failed")
	assert.Equal(t, "a.html", rewrapped.FilePath)
	assert.Equal(t, ErrCodeRenderFailed, GetErrorCode(rewrapped))
	assert.Equal(t, "", GetErrorCode(base))
}

func TestValidationErrorCollection(t *testing.T) {
	vec := &ValidationErrorCollection{}
	assert.False(t, vec.HasErrors())
	assert.Nil(t, vec.ToAppError())
	assert.Equal(t, "no validation errors", vec.Error())

	vec.AddField("csp.indentation", -2, "must not be negative", "use 0 to disable indentation")
	assert.Equal(t, "validation error in field 'csp.indentation': must not be negative", vec.Error())

	vec.AddField("build.workers", 0, "must be between 1 and 256")
	assert.Equal(t, "validation failed with 2 errors", vec.Error())

	appErr := vec.ToAppError()
	require.NotNil(t, appErr)
	assert.Equal(t, ErrorTypeValidation, appErr.Type)
	assert.Equal(t, ErrCodeValidationFailed, appErr.Code)
	assert.Contains(t, appErr.Context, "csp.indentation")
	assert.Contains(t, appErr.Message, "build.workers")

	fve := vec.Errors[0]
	assert.Equal(t, "csp.indentation", fve.Field())
	assert.Equal(t, -2, fve.Value())
	assert.Equal(t, []string{"use 0 to disable indentation"}, fve.Suggestions())
}

func TestErrorCollector(t *testing.T) {
	collector := NewErrorCollector()
	assert.Empty(t, collector.GetFileErrors())

	collector.AddFile("b.html", errors.New("second"))
	collector.AddFile("a.html", errors.New("first"))
	collector.AddFile("ignored.html", nil)

	files := collector.GetFileErrors()
	require.Len(t, files, 2)
	assert.Equal(t, "a.html", files[0].Path)
	assert.Equal(t, "a.html: first", files[0].Error())
	assert.False(t, files[0].Timestamp.IsZero())
	assert.Equal(t, "second", errors.Unwrap(&files[1]).Error())
}

func TestErrorCollectorConcurrent(t *testing.T) {
	collector := NewErrorCollector()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			collector.AddFile(fmt.Sprintf("page-%02d.html", i), errors.New("failed"))
		}(i)
	}
	wg.Wait()

	files := collector.GetFileErrors()
	require.Len(t, files, 50)
	assert.Equal(t, "page-00.html", files[0].Path)
	assert.Equal(t, "page-49.html", files[49].Path)
}
