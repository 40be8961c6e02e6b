package errors

import (
	stderrors "errors"
	"fmt"
)

type Kind string

const (
	ConfigError         Kind = "config_error"
	NotFound            Kind = "not_found"
	ProbeDegraded       Kind = "probe_degraded"
	CollisionSkipped    Kind = "collision_skipped"
	CopyFailed          Kind = "copy_failed"
	ChecksumFailed      Kind = "checksum_failed"
	MetadataWriteFailed Kind = "metadata_write_failed"
	DeleteDeclined      Kind = "delete_declined"
	IOFailure           Kind = "io_failure"
	Internal            Kind = "internal"
)

type AppError struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *AppError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func Wrap(kind Kind, op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &AppError{
		Kind: kind,
		Op:   op,
		Path: path,
		Err:  err,
	}
}

// KindOf returns the kind of the outermost AppError in err's chain, or
// Internal when there is none.
func KindOf(err error) Kind {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	return Internal
}

func Is(err error, kind Kind) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr) && appErr.Kind == kind
}

func UserMessage(err error) string {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		return err.Error()
	}
	switch appErr.Kind {
	case ConfigError:
		return fmt.Sprintf("Invalid configuration: %v", appErr.Err)
	case NotFound:
		return fmt.Sprintf("Path not found: %s", appErr.Path)
	case ProbeDegraded:
		return fmt.Sprintf("Metadata read failed, using file time: %s", appErr.Path)
	case CollisionSkipped:
		return fmt.Sprintf("Skipped, destination already planned: %s", appErr.Path)
	case CopyFailed:
		return fmt.Sprintf("Copy failed: %s: %v", appErr.Path, appErr.Err)
	case ChecksumFailed:
		return fmt.Sprintf("Checksum failed: %s: %v", appErr.Path, appErr.Err)
	case MetadataWriteFailed:
		return fmt.Sprintf("Metadata write failed: %s: %v", appErr.Path, appErr.Err)
	case DeleteDeclined:
		return "Source files kept"
	case IOFailure:
		return fmt.Sprintf("I/O error: %s", appErr.Path)
	default:
		return fmt.Sprintf("Unexpected error: %v", appErr.Err)
	}
}
