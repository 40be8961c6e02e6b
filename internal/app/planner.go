package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"pixelgroomer/internal/config"
	"pixelgroomer/internal/domain"
	"pixelgroomer/internal/logging"
)

// ProgressFunc is called during probing to report progress
type ProgressFunc func(current, total int)

// StateFunc is called on every run state transition.
type StateFunc func(state domain.RunState)

type Planner struct {
	FS         FileSystem
	Prober     Prober
	Workers    int
	Logger     logging.Logger
	OnProgress ProgressFunc
	OnState    StateFunc
}

// Plan scans the source directory, probes every supported file, groups the
// files into shots and builds the import plan. Nothing is written.
func (p *Planner) Plan(ctx context.Context, cfg config.EffectiveConfig) (domain.ImportPlan, error) {
	if p.FS == nil || p.Prober.Reader == nil {
		return domain.ImportPlan{}, errors.New("planner requires FS and metadata reader")
	}

	stop := p.Logger.Measure("Planning import")
	defer stop()

	p.setState(domain.StateScanning)
	files, unsupported, err := p.scan(ctx, cfg.SourceDir)
	if err != nil {
		return domain.ImportPlan{}, err
	}

	p.setState(domain.StateProbing)
	probed, warnings, err := p.probe(ctx, files)
	if err != nil {
		return domain.ImportPlan{}, err
	}

	p.setState(domain.StateGrouping)
	shots := Group(probed)
	p.Logger.Verbosef("Grouped %d files into %d shots", len(probed), len(shots))

	plan, err := Build(shots, cfg)
	if err != nil {
		return domain.ImportPlan{}, err
	}
	plan.Summary.Unsupported = unsupported
	plan.Warnings = append(warnings, plan.Warnings...)

	for _, action := range plan.Actions {
		if action.Skipped() {
			continue
		}
		exists, err := p.FS.Exists(action.Destination)
		if err != nil {
			return domain.ImportPlan{}, err
		}
		if exists {
			plan.Summary.Existing++
			plan.Warnings = append(plan.Warnings, fmt.Sprintf("%s already exists, %s will be skipped",
				action.Destination, action.Source.RelativePath))
		}
	}

	p.Logger.Verbosef("Planned %d actions (%d RAW, %d image), %d collisions, %d fallback dates, %d unsupported",
		len(plan.Actions), plan.Summary.RawCount, plan.Summary.ImageCount, plan.Summary.Collisions,
		plan.Summary.Fallbacks, plan.Summary.Unsupported)
	p.setState(domain.StatePlanBuilt)
	return plan, nil
}

func (p *Planner) setState(state domain.RunState) {
	p.Logger.Verbosef("State: %s", state)
	if p.OnState != nil {
		p.OnState(state)
	}
}

func (p *Planner) scan(ctx context.Context, sourceDir string) ([]domain.SourceFile, int, error) {
	stop := p.Logger.Measure("Scanning source directory")
	defer stop()

	var files []domain.SourceFile
	unsupported := 0

	err := p.FS.WalkDir(sourceDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path != sourceDir && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if domain.ClassOf(filepath.Ext(d.Name())) == domain.ClassUnsupported {
			unsupported++
			return nil
		}

		info, err := p.FS.Stat(path)
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(sourceDir, path)
		if relErr != nil {
			rel = filepath.Base(path)
		}
		files = append(files, domain.NewSourceFile(path, rel, info.Size(), info.ModTime()))
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	p.Logger.Verbosef("Found %d candidate files in %s (%d unsupported)", len(files), sourceDir, unsupported)
	return files, unsupported, nil
}

func (p *Planner) probe(ctx context.Context, files []domain.SourceFile) ([]domain.SourceFile, []string, error) {
	stop := p.Logger.Measure("Reading capture metadata")
	defer stop()

	workerCount := p.Workers
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}
	if workerCount < 1 {
		workerCount = 1
	}
	p.Logger.Verbosef("Using %d metadata workers", workerCount)

	type result struct {
		index int
		file  domain.SourceFile
		err   error
	}

	jobs := make(chan int)
	results := make(chan result, len(files))

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range jobs {
				file, err := p.Prober.Probe(ctx, files[index])
				results <- result{index: index, file: file, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range files {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	probed := make([]domain.SourceFile, len(files))
	degraded := make([]error, len(files))
	done := 0
	for res := range results {
		probed[res.index] = res.file
		degraded[res.index] = res.err
		done++
		if p.OnProgress != nil {
			p.OnProgress(done, len(files))
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var warnings []string
	for i, err := range degraded {
		if err == nil {
			continue
		}
		warning := degradedWarning(probed[i], err)
		p.Logger.Warnf("%s", warning)
		warnings = append(warnings, warning)
	}
	return probed, warnings, nil
}
