package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPipelineError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *PipelineError
		expected string
	}{
		{
			name:     "message only",
			err:      &PipelineError{Message: "something broke"},
			expected: "something broke",
		},
		{
			name: "code task and location",
			err: NewCompileError(ErrCodeCompileFailed, "expected \";\"", nil).
				WithTask("css").
				WithLocation("scss/a.scss", 3, 13),
			expected: "[ERR_COMPILE_FAILED] task:css scss/a.scss:3:13 expected \";\"",
		},
		{
			name:     "line without column",
			err:      (&PipelineError{Message: "bad"}).WithLocation("a.js", 7, 0),
			expected: "a.js:7 bad",
		},
		{
			name:     "with cause",
			err:      NewIOError(ErrCodeWriteFailed, "write css/a.css", fmt.Errorf("disk full")),
			expected: "[ERR_WRITE_FAILED] write css/a.css: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestPipelineError_UnwrapAndIs(t *testing.T) {
	cause := errors.New("permission denied")
	err := NewIOError(ErrCodeReadFailed, "read js/a.js", cause)

	assert.ErrorIs(t, err, cause)
	assert.True(t, errors.Is(err, &PipelineError{Type: ErrorTypeIO, Code: ErrCodeReadFailed}))
	assert.False(t, errors.Is(err, &PipelineError{Type: ErrorTypeIO, Code: ErrCodeWriteFailed}))
}

func TestNewReadError(t *testing.T) {
	missing := &fs.PathError{Op: "stat", Path: "scss", Err: fs.ErrNotExist}
	assert.Equal(t, ErrCodeFileNotFound, NewReadError("list scss", missing).Code)

	denied := &fs.PathError{Op: "open", Path: "js/a.js", Err: fs.ErrPermission}
	err := NewReadError("read js/a.js", denied)
	assert.Equal(t, ErrCodeReadFailed, err.Code)
	assert.Equal(t, ErrorTypeIO, err.Type)
	assert.ErrorIs(t, err, fs.ErrPermission)
}

func TestClassifiers(t *testing.T) {
	compile := fmt.Errorf("css: %w", NewCompileError(ErrCodeCompileFailed, "bad", nil))
	config := NewConfigError(ErrCodeEmptyComposite, "empty")
	network := NewNetworkError(ErrCodeBindFailed, "listen", errors.New("address already in use"))
	plain := errors.New("plain")

	assert.True(t, IsCompileError(compile))
	assert.True(t, IsRecoverable(compile))
	assert.False(t, IsCompileError(config))

	assert.True(t, IsConfigError(config))
	assert.False(t, IsRecoverable(config))

	assert.True(t, IsNetworkError(network))
	assert.False(t, IsRecoverable(network))

	assert.False(t, IsCompileError(plain))
	assert.False(t, IsRecoverable(plain))
}
