package checksum

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"pixelgroomer/internal/domain"
	"pixelgroomer/internal/logging"
)

type Status string

const (
	StatusOK       Status = "ok"
	StatusMismatch Status = "mismatch"
	StatusMissing  Status = "missing"
	StatusError    Status = "error"
)

type Check struct {
	Path   string
	Status Status
	Err    error
}

type Report struct {
	Checks      []Check
	Directories int
	OK          int
	Mismatched  int
	Missing     int
	Errors      int
}

func (r Report) Failed() bool {
	return r.Mismatched > 0 || r.Missing > 0 || r.Errors > 0
}

func (r *Report) add(c Check) {
	r.Checks = append(r.Checks, c)
	switch c.Status {
	case StatusOK:
		r.OK++
	case StatusMismatch:
		r.Mismatched++
	case StatusMissing:
		r.Missing++
	case StatusError:
		r.Errors++
	}
}

// Verifier checks and extends the manifests below a directory tree.
type Verifier struct {
	Hasher    Hasher
	Manifest  *Manifest
	Recursive bool
	Logger    logging.Logger
}

// Verify recomputes every manifest entry under root.
func (v Verifier) Verify(ctx context.Context, root string) (Report, error) {
	var report Report
	dirs, err := v.directories(root)
	if err != nil {
		return report, err
	}
	for _, dir := range dirs {
		entries, err := ReadManifest(dir)
		if err != nil {
			return report, err
		}
		if len(entries) == 0 {
			continue
		}
		report.Directories++
		v.Logger.Verbosef("Verifying %d entries in %s", len(entries), dir)
		for _, entry := range entries {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			report.add(v.check(ctx, filepath.Join(dir, entry.Name), entry.Digest))
		}
	}
	return report, nil
}

func (v Verifier) check(ctx context.Context, path, want string) Check {
	got, err := v.Hasher.Sum(ctx, path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return Check{Path: path, Status: StatusMissing}
	case err != nil:
		return Check{Path: path, Status: StatusError, Err: err}
	case got != want:
		return Check{Path: path, Status: StatusMismatch}
	default:
		return Check{Path: path, Status: StatusOK}
	}
}

// Generate appends manifest lines for supported media files that have no
// entry yet and returns how many were added.
func (v Verifier) Generate(ctx context.Context, root string) (int, error) {
	dirs, err := v.directories(root)
	if err != nil {
		return 0, err
	}
	added := 0
	for _, dir := range dirs {
		entries, err := ReadManifest(dir)
		if err != nil {
			return added, err
		}
		known := make(map[string]bool, len(entries))
		for _, e := range entries {
			known[e.Name] = true
		}

		files, err := os.ReadDir(dir)
		if err != nil {
			return added, err
		}
		for _, f := range files {
			name := f.Name()
			if f.IsDir() || known[name] || strings.HasPrefix(name, ".") {
				continue
			}
			if domain.ClassOf(filepath.Ext(name)) == domain.ClassUnsupported {
				continue
			}
			if err := ctx.Err(); err != nil {
				return added, err
			}
			path := filepath.Join(dir, name)
			digest, err := v.Hasher.Sum(ctx, path)
			if err != nil {
				return added, err
			}
			if err := v.Manifest.Append(path, digest); err != nil {
				return added, err
			}
			added++
		}
	}
	v.Logger.Verbosef("Added %d manifest entries under %s", added, root)
	return added, nil
}

func (v Verifier) directories(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, &fs.PathError{Op: "verify", Path: root, Err: errors.New("not a directory")}
	}
	if !v.Recursive {
		return []string{root}, nil
	}

	var dirs []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		dirs = append(dirs, path)
		return nil
	})
	sort.Strings(dirs)
	return dirs, err
}
