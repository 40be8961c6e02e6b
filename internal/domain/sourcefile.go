package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// MediaClass separates RAW captures from rendered images.
type MediaClass int

const (
	ClassUnsupported MediaClass = iota
	ClassRaw
	ClassImage
)

// TimestampSource records where a capture time came from.
type TimestampSource string

const (
	TimestampMetadata   TimestampSource = "metadata"
	TimestampFilesystem TimestampSource = "filesystem-fallback"
)

// SourceFile is one file found under the scan root. It is created unprobed
// by NewSourceFile and completed once by WithCapture.
type SourceFile struct {
	Path          string
	RelativePath  string
	Name          string
	Ext           string
	Size          int64
	ModTime       time.Time
	TakenAt       time.Time
	TakenAtSource TimestampSource
	Camera        string
	BaseKey       string
	Class         MediaClass
}

func NewSourceFile(path, relativePath string, size int64, modTime time.Time) SourceFile {
	name := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(name))
	return SourceFile{
		Path:         path,
		RelativePath: relativePath,
		Name:         name,
		Ext:          ext,
		Size:         size,
		ModTime:      modTime,
		BaseKey:      BaseIdentityKey(name),
		Class:        ClassOf(ext),
	}
}

// WithCapture returns a probed copy of the file.
func (f SourceFile) WithCapture(takenAt time.Time, source TimestampSource, camera string) SourceFile {
	f.TakenAt = takenAt
	f.TakenAtSource = source
	f.Camera = camera
	return f
}

func (f SourceFile) Probed() bool {
	return f.TakenAtSource != ""
}

func (f SourceFile) IsFallback() bool {
	return f.TakenAtSource == TimestampFilesystem
}

func (f SourceFile) IsRAW() bool {
	return f.Class == ClassRaw
}

func (f SourceFile) IsImage() bool {
	return f.Class == ClassImage
}

var sidecarSuffixes = []string{"_original", "-edited", "_edited"}

// BaseIdentityKey derives the pairing key from a file name: the stem,
// lower-cased, with a trailing media extension and known sidecar suffixes
// removed. "IMG_0001.CR3" and "IMG_0001.CR3.jpg" share "img_0001".
func BaseIdentityKey(name string) string {
	stem := strings.ToLower(strings.TrimSuffix(name, filepath.Ext(name)))
	for {
		trimmed := stem
		for _, suffix := range sidecarSuffixes {
			trimmed = strings.TrimSuffix(trimmed, suffix)
		}
		if inner := filepath.Ext(trimmed); inner != "" && ClassOf(inner) != ClassUnsupported {
			trimmed = strings.TrimSuffix(trimmed, inner)
		}
		if trimmed == stem || trimmed == "" {
			return stem
		}
		stem = trimmed
	}
}

func ClassOf(ext string) MediaClass {
	switch {
	case IsRawExtension(ext):
		return ClassRaw
	case IsImageExtension(ext):
		return ClassImage
	default:
		return ClassUnsupported
	}
}

func IsRawExtension(ext string) bool {
	switch strings.ToLower(ext) {
	case ".arw", ".cr2", ".cr3", ".nef", ".raf", ".rw2", ".orf", ".dng", ".pef", ".srw":
		return true
	default:
		return false
	}
}

func IsImageExtension(ext string) bool {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg", ".png", ".heic", ".heif", ".tif", ".tiff", ".webp":
		return true
	default:
		return false
	}
}
