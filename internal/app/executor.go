package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"pixelgroomer/internal/config"
	"pixelgroomer/internal/domain"
	appErrors "pixelgroomer/internal/errors"
	"pixelgroomer/internal/logging"
)

// CopyProgressFunc is called after each action finishes.
type CopyProgressFunc func(done, total int, file string)

// Executor applies an import plan file by file. A failing action is recorded
// and never stops the others; completed actions are never rolled back. A
// copy that fails verification or its metadata write is removed again so a
// later run retries it.
type Executor struct {
	FS         FileSystem
	Writer     MetadataWriter
	Checksum   ChecksumProvider
	Manifest   ManifestAppender
	Logger     logging.Logger
	OnProgress CopyProgressFunc
	OnState    StateFunc
}

// Execute runs every non-skipped action and returns one result per planned
// action, in plan order. The returned error is only set for structural
// problems detected before any file is touched.
func (e *Executor) Execute(ctx context.Context, plan domain.ImportPlan, cfg config.EffectiveConfig) ([]domain.ExecutionResult, error) {
	if e.FS == nil {
		return nil, errors.New("executor requires FS")
	}
	fields := cfg.MetadataFields()
	if !fields.Empty() && e.Writer == nil {
		return nil, errors.New("executor requires a metadata writer when metadata values are set")
	}
	if cfg.GenerateChecksums && (e.Checksum == nil || e.Manifest == nil) {
		return nil, errors.New("executor requires a checksum provider and manifest when checksums are enabled")
	}

	stop := e.Logger.Measure("Executing plan")
	defer stop()
	if e.OnState != nil {
		e.OnState(domain.StateExecuting)
	}

	workerCount := cfg.Workers
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}
	run := actionRunner{
		fs:        e.FS,
		writer:    e.Writer,
		fields:    fields,
		checksums: cfg.GenerateChecksums,
		sum:       e.Checksum,
		manifest:  e.Manifest,
		timeout:   callTimeout(e.Writer, cfg.ToolTimeout),
	}

	jobs := make(chan int)
	done := make(chan domain.ExecutionResult, len(plan.Actions))

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range jobs {
				done <- run.run(ctx, index, plan.Actions[index])
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range plan.Actions {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(done)
	}()

	results := make([]domain.ExecutionResult, len(plan.Actions))
	seen := make([]bool, len(plan.Actions))
	finished := 0
	for res := range done {
		results[res.Index] = res
		seen[res.Index] = true
		finished++
		e.logResult(res)
		if e.OnProgress != nil {
			e.OnProgress(finished, len(plan.Actions), res.Action.Source.Name)
		}
	}

	for i, action := range plan.Actions {
		if !seen[i] {
			results[i] = domain.ExecutionResult{Index: i, Action: action, Status: domain.StatusSkipped, Reason: "cancelled"}
		}
	}
	return results, nil
}

func (e *Executor) logResult(res domain.ExecutionResult) {
	switch res.Status {
	case domain.StatusSucceeded:
		e.Logger.Verbosef("Imported %s -> %s", res.Action.Source.RelativePath, res.Action.Destination)
	case domain.StatusSkipped:
		e.Logger.Verbosef("Skipped %s: %s", res.Action.Source.RelativePath, res.Reason)
	case domain.StatusFailed:
		e.Logger.Errorf("Failed %s: %s", res.Action.Source.RelativePath, res.Reason)
	}
}

type actionRunner struct {
	fs        FileSystem
	writer    MetadataWriter
	fields    domain.MetadataFields
	checksums bool
	sum       ChecksumProvider
	manifest  ManifestAppender
	timeout   time.Duration
}

func (r actionRunner) run(ctx context.Context, index int, action domain.PlannedAction) domain.ExecutionResult {
	res := domain.ExecutionResult{Index: index, Action: action}
	skip := func(reason string) domain.ExecutionResult {
		res.Status = domain.StatusSkipped
		res.Reason = reason
		return res
	}
	fail := func(kind appErrors.Kind, op string, err error) domain.ExecutionResult {
		res.Status = domain.StatusFailed
		res.Err = appErrors.Wrap(kind, op, action.Destination, err)
		res.Reason = fmt.Sprintf("%s: %v", op, err)
		return res
	}

	if action.Skipped() {
		return skip("collides with " + action.CollidesWith)
	}
	if ctx.Err() != nil {
		return skip("cancelled")
	}

	src, dst := action.Source.Path, action.Destination
	exists, err := r.fs.Exists(dst)
	if err != nil {
		return fail(appErrors.CopyFailed, "stat destination", err)
	}
	if exists {
		return skip("destination exists")
	}
	if err := r.fs.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fail(appErrors.CopyFailed, "mkdir", err)
	}
	if err := r.fs.CopyFile(ctx, src, dst); err != nil {
		return fail(appErrors.CopyFailed, "copy", err)
	}
	// From here on dst is ours; a failed step must not leave it behind.
	discard := func(kind appErrors.Kind, op string, err error) domain.ExecutionResult {
		if rmErr := r.fs.Remove(dst); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			err = fmt.Errorf("%w (remove copy: %v)", err, rmErr)
		}
		return fail(kind, op, err)
	}

	var digest string
	if r.checksums {
		srcSum, err := r.sum.Sum(ctx, src)
		if err != nil {
			return discard(appErrors.ChecksumFailed, "checksum source", err)
		}
		if digest, err = r.sum.Sum(ctx, dst); err != nil {
			return discard(appErrors.ChecksumFailed, "checksum destination", err)
		}
		if srcSum != digest {
			return discard(appErrors.ChecksumFailed, "verify", fmt.Errorf("%s digest mismatch", r.sum.Algorithm()))
		}
	} else if err := r.verifySize(src, dst); err != nil {
		return discard(appErrors.CopyFailed, "verify", err)
	}

	if action.WritesMetadata() {
		writeCtx, cancel := r.toolContext(ctx)
		err := r.writer.Write(writeCtx, dst, r.fields)
		cancel()
		if err != nil {
			return discard(appErrors.MetadataWriteFailed, "write metadata", err)
		}
		if r.checksums {
			if digest, err = r.sum.Sum(ctx, dst); err != nil {
				return discard(appErrors.ChecksumFailed, "checksum destination", err)
			}
		}
	}

	if r.checksums {
		if err := r.manifest.Append(dst, digest); err != nil {
			return discard(appErrors.ChecksumFailed, "append manifest", err)
		}
		res.Checksum = digest
	}

	res.Status = domain.StatusSucceeded
	return res
}

func (r actionRunner) verifySize(src, dst string) error {
	srcInfo, err := r.fs.Stat(src)
	if err != nil {
		return err
	}
	dstInfo, err := r.fs.Stat(dst)
	if err != nil {
		return err
	}
	if srcInfo.Size() != dstInfo.Size() {
		return fmt.Errorf("size mismatch: %d != %d bytes", srcInfo.Size(), dstInfo.Size())
	}
	return nil
}

func (r actionRunner) toolContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout > 0 {
		return context.WithTimeout(ctx, r.timeout)
	}
	return context.WithCancel(ctx)
}
