package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pixelgroomer/internal/domain"
	appErrors "pixelgroomer/internal/errors"
)

// Prober resolves the capture time and camera of a source file. A failed or
// empty read degrades to the file's modification time.
type Prober struct {
	Reader  MetadataReader
	Timeout time.Duration
}

// Probe returns the probed file and, when the metadata date was not usable,
// a ProbeDegraded error describing why. The error is informational.
func (p Prober) Probe(ctx context.Context, file domain.SourceFile) (domain.SourceFile, error) {
	readCtx := ctx
	if timeout := callTimeout(p.Reader, p.Timeout); timeout > 0 {
		var cancel context.CancelFunc
		readCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	meta, err := p.Reader.Read(readCtx, file.Path)
	if err == nil && meta.TakenAt != nil && !meta.TakenAt.IsZero() {
		return file.WithCapture(*meta.TakenAt, domain.TimestampMetadata, meta.Camera), nil
	}
	if err == nil {
		err = errors.New("no capture date in metadata")
	}
	return file.WithCapture(file.ModTime, domain.TimestampFilesystem, meta.Camera),
		appErrors.Wrap(appErrors.ProbeDegraded, "probe", file.Path, err)
}

func degradedWarning(file domain.SourceFile, err error) string {
	var appErr *appErrors.AppError
	if errors.As(err, &appErr) {
		err = appErr.Err
	}
	return fmt.Sprintf("no capture date for %s (%v), using file time %s",
		file.RelativePath, err, file.ModTime.Format("2006-01-02 15:04:05"))
}
