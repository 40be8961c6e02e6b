package app

import (
	"context"
	"io/fs"
	"time"

	"pixelgroomer/internal/domain"
)

type FileSystem interface {
	WalkDir(root string, fn fs.WalkDirFunc) error
	Stat(path string) (fs.FileInfo, error)
	Exists(path string) (bool, error)
	MkdirAll(path string, perm fs.FileMode) error
	// CopyFile copies src to dst through a temporary file in dst's directory
	// so dst never holds partial content.
	CopyFile(ctx context.Context, src, dst string) error
	Remove(path string) error
}

// Metadata is what a MetadataReader extracts from one file. TakenAt is nil
// when the file carries no capture date.
type Metadata struct {
	TakenAt *time.Time
	Camera  string
}

type MetadataReader interface {
	Read(ctx context.Context, path string) (Metadata, error)
}

type MetadataWriter interface {
	Write(ctx context.Context, path string, fields domain.MetadataFields) error
}

// SelfTimed is implemented by readers and writers that queue on a shared
// process and apply the per-call timeout themselves once a call runs.
type SelfTimed interface {
	SelfTimed()
}

// callTimeout is the timeout a caller should wrap around a call to tool.
func callTimeout(tool any, timeout time.Duration) time.Duration {
	if _, ok := tool.(SelfTimed); ok {
		return 0
	}
	return timeout
}

type ChecksumProvider interface {
	Algorithm() string
	Sum(ctx context.Context, path string) (string, error)
}

// ManifestAppender records a digest line in the manifest of the directory
// holding path. Implementations serialize appends per manifest.
type ManifestAppender interface {
	Append(path, digest string) error
}

// PromptPort asks the user for missing values. Non-interactive
// implementations return the default.
type PromptPort interface {
	Ask(label, defaultValue string) (string, error)
	Confirm(question string, defaultValue bool) (bool, error)
}
