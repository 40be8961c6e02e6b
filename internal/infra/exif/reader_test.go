package exif

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadWithoutExif(t *testing.T) {
	path := filepath.Join(t.TempDir(), "IMG_001.JPG")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o644))

	meta, err := Reader{}.Read(context.Background(), path)
	assert.ErrorIs(t, err, ErrNoExif)
	assert.Nil(t, meta.TakenAt)
}

func TestReadMissingFile(t *testing.T) {
	_, err := Reader{}.Read(context.Background(), filepath.Join(t.TempDir(), "missing.jpg"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Reader{}.Read(ctx, "/does/not/matter.jpg")
	assert.ErrorIs(t, err, context.Canceled)
}
