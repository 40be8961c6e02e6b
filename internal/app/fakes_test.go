package app

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"pixelgroomer/internal/config"
	"pixelgroomer/internal/domain"
)

var baseTime = time.Date(2026, 1, 24, 10, 0, 0, 0, time.Local)

type memFile struct {
	data    []byte
	modTime time.Time
}

// memFS is an in-memory FileSystem. Directories are implicit.
type memFS struct {
	mu      sync.Mutex
	files   map[string]memFile
	copyErr map[string]error
	removed []string
	copies  []string
	corrupt map[string]bool
}

func newMemFS() *memFS {
	return &memFS{files: map[string]memFile{}, copyErr: map[string]error{}, corrupt: map[string]bool{}}
}

func (m *memFS) add(path, content string, modTime time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = memFile{data: []byte(content), modTime: modTime}
}

func (m *memFS) content(path string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[path]
	return string(f.data), ok
}

func (m *memFS) WalkDir(root string, fn fs.WalkDirFunc) error {
	prefix := root + string(filepath.Separator)
	m.mu.Lock()
	dirs := map[string]bool{}
	var paths []string
	for path := range m.files {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		paths = append(paths, path)
		for dir := filepath.Dir(path); dir != root && !dirs[dir]; dir = filepath.Dir(dir) {
			dirs[dir] = true
			paths = append(paths, dir)
		}
	}
	m.mu.Unlock()
	sort.Strings(paths)

	if err := fn(root, memDirEntry{name: filepath.Base(root), isDir: true}, nil); err != nil {
		return err
	}
	var skipped []string
	for _, path := range paths {
		if hasAnyPrefix(path, skipped) {
			continue
		}
		err := fn(path, memDirEntry{name: filepath.Base(path), isDir: dirs[path]}, nil)
		if errors.Is(err, filepath.SkipDir) {
			skipped = append(skipped, path+string(filepath.Separator))
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func (m *memFS) Stat(path string) (fs.FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return memFileInfo{name: filepath.Base(path), size: int64(len(f.data)), modTime: f.modTime}, nil
}

func (m *memFS) Exists(path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[path]
	return ok, nil
}

func (m *memFS) MkdirAll(path string, perm fs.FileMode) error {
	return nil
}

func (m *memFS) CopyFile(ctx context.Context, src, dst string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.copyErr[src]; err != nil {
		return err
	}
	f, ok := m.files[src]
	if !ok {
		return fs.ErrNotExist
	}
	data := append([]byte(nil), f.data...)
	if m.corrupt[src] {
		data = append(data, 'x')
	}
	m.files[dst] = memFile{data: data, modTime: f.modTime}
	m.copies = append(m.copies, dst)
	return nil
}

func (m *memFS) Remove(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[path]; !ok {
		return fs.ErrNotExist
	}
	delete(m.files, path)
	m.removed = append(m.removed, path)
	return nil
}

type memDirEntry struct {
	name  string
	isDir bool
}

func (m memDirEntry) Name() string               { return m.name }
func (m memDirEntry) IsDir() bool                { return m.isDir }
func (m memDirEntry) Type() fs.FileMode          { return 0 }
func (m memDirEntry) Info() (fs.FileInfo, error) { return nil, nil }

type memFileInfo struct {
	name    string
	size    int64
	modTime time.Time
}

func (m memFileInfo) Name() string       { return m.name }
func (m memFileInfo) Size() int64        { return m.size }
func (m memFileInfo) Mode() fs.FileMode  { return 0 }
func (m memFileInfo) ModTime() time.Time { return m.modTime }
func (m memFileInfo) IsDir() bool        { return false }
func (m memFileInfo) Sys() interface{}   { return nil }

type fakeReader struct {
	meta map[string]Metadata
	errs map[string]error
}

func (f fakeReader) Read(ctx context.Context, path string) (Metadata, error) {
	if err := f.errs[path]; err != nil {
		return Metadata{}, err
	}
	if m, ok := f.meta[path]; ok {
		return m, nil
	}
	return Metadata{}, nil
}

func dated(t time.Time, camera string) Metadata {
	return Metadata{TakenAt: &t, Camera: camera}
}

type writeCall struct {
	path   string
	fields domain.MetadataFields
}

type fakeWriter struct {
	mu    sync.Mutex
	calls []writeCall
	errs  map[string]error
	fs    *memFS
}

func (f *fakeWriter) Write(ctx context.Context, path string, fields domain.MetadataFields) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, writeCall{path: path, fields: fields})
	if err := f.errs[path]; err != nil {
		return err
	}
	if f.fs != nil {
		content, _ := f.fs.content(path)
		f.fs.add(path, content+"|meta", baseTime)
	}
	return nil
}

type fakeSum struct {
	fs *memFS
}

func (f fakeSum) Algorithm() string { return "sha256" }

func (f fakeSum) Sum(ctx context.Context, path string) (string, error) {
	content, ok := f.fs.content(path)
	if !ok {
		return "", fs.ErrNotExist
	}
	digest := sha256.Sum256([]byte(content))
	return hex.EncodeToString(digest[:]), nil
}

type manifestLine struct {
	path   string
	digest string
}

type fakeManifest struct {
	mu    sync.Mutex
	lines []manifestLine
}

func (f *fakeManifest) Append(path, digest string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines = append(f.lines, manifestLine{path: path, digest: digest})
	return nil
}

type fakePrompt struct {
	confirm bool
	asked   int
}

func (f *fakePrompt) Ask(label, defaultValue string) (string, error) {
	return defaultValue, nil
}

func (f *fakePrompt) Confirm(question string, defaultValue bool) (bool, error) {
	f.asked++
	return f.confirm, nil
}

func probedFile(path string, takenAt time.Time) domain.SourceFile {
	rel := strings.TrimPrefix(path, "/sd/")
	return domain.NewSourceFile(path, rel, 10, takenAt).WithCapture(takenAt, domain.TimestampMetadata, "")
}

func testConfig(mutate ...func(*config.EffectiveConfig)) config.EffectiveConfig {
	cfg := config.EffectiveConfig{
		SourceDir:       "/sd",
		LibraryRoot:     "/lib",
		FolderStructure: config.DefaultFolderStructure,
		NamingPattern:   config.DefaultNamingPattern,
		Workers:         2,
		ConfirmDelete:   true,
	}
	for _, m := range mutate {
		m(&cfg)
	}
	return cfg
}
