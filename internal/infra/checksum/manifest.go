package checksum

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ManifestName is the per-directory digest file. Each line is
// "<hex digest>  <file name>".
const ManifestName = ".checksums"

type Entry struct {
	Digest string
	Name   string
}

// Manifest appends digest lines to the manifest of each file's directory.
// Appends to the same manifest are serialized.
type Manifest struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewManifest() *Manifest {
	return &Manifest{locks: map[string]*sync.Mutex{}}
}

func (m *Manifest) lock(dir string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks == nil {
		m.locks = map[string]*sync.Mutex{}
	}
	l, ok := m.locks[dir]
	if !ok {
		l = &sync.Mutex{}
		m.locks[dir] = l
	}
	return l
}

func (m *Manifest) Append(path, digest string) error {
	dir := filepath.Dir(path)
	l := m.lock(dir)
	l.Lock()
	defer l.Unlock()

	file, err := os.OpenFile(filepath.Join(dir, ManifestName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(file, "%s  %s\n", digest, filepath.Base(path)); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// ReadManifest returns the entries of dir's manifest. A missing manifest
// yields no entries and no error.
func ReadManifest(dir string) ([]Entry, error) {
	file, err := os.Open(filepath.Join(dir, ManifestName))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ParseManifest(file)
}

// ParseManifest reads manifest lines. Blank lines and "#" comments are
// skipped. A later entry for the same name replaces the earlier one.
func ParseManifest(r io.Reader) ([]Entry, error) {
	var entries []Entry
	index := map[string]int{}
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		digest, name, ok := strings.Cut(text, " ")
		name = strings.TrimLeft(strings.TrimSpace(name), "*")
		if !ok || digest == "" || name == "" {
			return nil, fmt.Errorf("manifest line %d: malformed entry %q", line, text)
		}
		entry := Entry{Digest: strings.ToLower(digest), Name: name}
		if i, seen := index[name]; seen {
			entries[i] = entry
			continue
		}
		index[name] = len(entries)
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
