package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapNilReturnsNil(t *testing.T) {
	assert.NoError(t, Wrap(CopyFailed, "copy", "/a", nil))
}

func TestKindOfFindsWrappedAppError(t *testing.T) {
	base := stderrors.New("disk full")
	err := fmt.Errorf("action 2: %w", Wrap(CopyFailed, "copy", "/dst/a.jpg", base))

	assert.Equal(t, CopyFailed, KindOf(err))
	assert.True(t, Is(err, CopyFailed))
	assert.False(t, Is(err, ChecksumFailed))
	assert.ErrorIs(t, err, base)
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, Internal, KindOf(stderrors.New("boom")))
}

func TestUserMessage(t *testing.T) {
	err := Wrap(ConfigError, "resolve", "", stderrors.New("library root is required"))
	assert.Equal(t, "Invalid configuration: library root is required", UserMessage(err))

	err = Wrap(NotFound, "stat", "/media/sd", stderrors.New("no such file"))
	assert.Equal(t, "Path not found: /media/sd", UserMessage(err))

	assert.Equal(t, "plain", UserMessage(stderrors.New("plain")))
}
