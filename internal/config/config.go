package config

import (
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"

	"pixelgroomer/internal/domain"
)

// Configuration keys shared by every layer.
const (
	KeySource            = "source"
	KeyLibrary           = "library"
	KeyFolderStructure   = "folder_structure"
	KeyNamingPattern     = "naming_pattern"
	KeyEvent             = "event"
	KeyLocation          = "location"
	KeyAuthor            = "author"
	KeyCopyright         = "copyright"
	KeyCredit            = "credit"
	KeyTags              = "tags"
	KeyGPS               = "gps"
	KeyDryRun            = "dry_run"
	KeyNoDelete          = "no_delete"
	KeyTrip              = "trip"
	KeySplitByType       = "split_by_type"
	KeyVerbose           = "verbose"
	KeyInteractive       = "interactive"
	KeyNonInteractive    = "non_interactive"
	KeyTUI               = "tui"
	KeyGenerateChecksums = "generate_checksums"
	KeyChecksumAlgorithm = "checksum_algorithm"
	KeyConfirmDelete     = "confirm_delete"
	KeyWorkers           = "workers"
	KeyToolTimeout       = "tool_timeout"
	KeyMetadataReader    = "metadata_reader"
	KeyExiftoolPath      = "exiftool_path"
)

const (
	DefaultFolderStructure = "{year}-{month}-{day}"
	DefaultNamingPattern   = "{date}_{event}_{seq:03d}"
)

// EffectiveConfig is the single settings value built once per run and passed
// to every component.
type EffectiveConfig struct {
	SourceDir         string
	LibraryRoot       string
	FolderStructure   string
	NamingPattern     string
	Event             string
	Location          string
	Author            string
	Copyright         string
	Credit            string
	Tags              []string
	GPS               *domain.GPS
	DryRun            bool
	NoDelete          bool
	Trip              bool
	SplitByType       bool
	Verbose           bool
	Interactive       bool
	TUI               bool
	GenerateChecksums bool
	ChecksumAlgorithm string
	ConfirmDelete     bool
	Workers           int
	ToolTimeout       time.Duration
	MetadataReader    string
	ExiftoolPath      string
	// Origins maps each resolved key to the layer that supplied it.
	Origins map[string]string
}

// MetadataFields returns the values to write into imported files.
func (c EffectiveConfig) MetadataFields() domain.MetadataFields {
	return domain.MetadataFields{
		Author:    c.Author,
		Copyright: c.Copyright,
		Credit:    c.Credit,
		Event:     c.Event,
		Location:  c.Location,
		Tags:      c.Tags,
		GPS:       c.GPS,
	}
}

// Layer is one configuration source. A key counts as defined when it is
// present with a non-blank value.
type Layer struct {
	Name   string
	Values map[string]string
}

func (l Layer) Lookup(key string) (string, bool) {
	if l.Values == nil {
		return "", false
	}
	value, ok := l.Values[key]
	value = strings.TrimSpace(value)
	return value, ok && value != ""
}

// Inputs holds the layers in precedence order, highest first.
type Inputs struct {
	CLI      Layer
	Env      Layer
	File     Layer
	Defaults Layer
}

func (in Inputs) chain() []Layer {
	return []Layer{in.CLI, in.Env, in.File, in.Defaults}
}

// Asker supplies values the layers left empty when prompting is allowed.
type Asker interface {
	Ask(label, defaultValue string) (string, error)
}

var ErrMissingRequired = errors.New("required setting is empty")

// Defaults returns the built-in lowest-precedence layer.
func Defaults() Layer {
	return Layer{
		Name: "default",
		Values: map[string]string{
			KeyFolderStructure:   DefaultFolderStructure,
			KeyNamingPattern:     DefaultNamingPattern,
			KeyGenerateChecksums: "false",
			KeyChecksumAlgorithm: "sha256",
			KeyConfirmDelete:     "true",
			KeyWorkers:           strconv.Itoa(runtime.NumCPU()),
			KeyToolTimeout:       "30s",
			KeyMetadataReader:    "auto",
			KeyExiftoolPath:      "exiftool",
		},
	}
}

type resolver struct {
	layers  []Layer
	origins map[string]string
	errs    []error
}

func (r *resolver) str(key string) string {
	for _, layer := range r.layers {
		if value, ok := layer.Lookup(key); ok {
			r.origins[key] = layer.Name
			return value
		}
	}
	return ""
}

func (r *resolver) boolean(key string) bool {
	raw := r.str(key)
	if raw == "" {
		return false
	}
	value, ok := parseBool(raw)
	if !ok {
		r.errs = append(r.errs, fmt.Errorf("%s: invalid boolean %q", key, raw))
	}
	return value
}

func (r *resolver) integer(key string) int {
	raw := r.str(key)
	if raw == "" {
		return 0
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: invalid number %q", key, raw))
	}
	return value
}

func (r *resolver) duration(key string) time.Duration {
	raw := r.str(key)
	if raw == "" {
		return 0
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: invalid duration %q", key, raw))
	}
	return value
}

// Resolve merges the layers key by key: each key takes the value of the
// highest layer that defines it. asker may be nil.
func Resolve(in Inputs, asker Asker) (EffectiveConfig, error) {
	r := &resolver{layers: in.chain(), origins: map[string]string{}}

	cfg := EffectiveConfig{
		SourceDir:         r.str(KeySource),
		LibraryRoot:       r.str(KeyLibrary),
		FolderStructure:   r.str(KeyFolderStructure),
		NamingPattern:     r.str(KeyNamingPattern),
		Event:             r.str(KeyEvent),
		Location:          r.str(KeyLocation),
		Author:            r.str(KeyAuthor),
		Copyright:         r.str(KeyCopyright),
		Credit:            r.str(KeyCredit),
		Tags:              domain.SplitTags(r.str(KeyTags)),
		DryRun:            r.boolean(KeyDryRun),
		NoDelete:          r.boolean(KeyNoDelete),
		Trip:              r.boolean(KeyTrip),
		SplitByType:       r.boolean(KeySplitByType),
		Verbose:           r.boolean(KeyVerbose),
		Interactive:       r.boolean(KeyInteractive) && !r.boolean(KeyNonInteractive),
		TUI:               r.boolean(KeyTUI),
		GenerateChecksums: r.boolean(KeyGenerateChecksums),
		ChecksumAlgorithm: strings.ToLower(r.str(KeyChecksumAlgorithm)),
		ConfirmDelete:     r.boolean(KeyConfirmDelete),
		Workers:           r.integer(KeyWorkers),
		ToolTimeout:       r.duration(KeyToolTimeout),
		MetadataReader:    strings.ToLower(r.str(KeyMetadataReader)),
		ExiftoolPath:      r.str(KeyExiftoolPath),
		Origins:           r.origins,
	}

	gps, err := domain.ParseGPS(r.str(KeyGPS))
	if err != nil {
		r.errs = append(r.errs, err)
	}
	cfg.GPS = gps

	switch cfg.MetadataReader {
	case "auto", "exiftool", "goexif":
	default:
		r.errs = append(r.errs, fmt.Errorf("%s: unknown reader %q", KeyMetadataReader, cfg.MetadataReader))
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if len(r.errs) > 0 {
		return EffectiveConfig{}, errors.Join(r.errs...)
	}

	canAsk := cfg.Interactive && !cfg.Trip && asker != nil
	if cfg.SourceDir == "" {
		return EffectiveConfig{}, fmt.Errorf("%s: %w", KeySource, ErrMissingRequired)
	}
	if cfg.LibraryRoot == "" {
		if !canAsk {
			return EffectiveConfig{}, fmt.Errorf("%s (PHOTO_LIBRARY or --output): %w", KeyLibrary, ErrMissingRequired)
		}
		answer, err := asker.Ask("Photo library path", "")
		if err != nil {
			return EffectiveConfig{}, fmt.Errorf("prompt %s: %w", KeyLibrary, err)
		}
		if strings.TrimSpace(answer) == "" {
			return EffectiveConfig{}, fmt.Errorf("%s: %w", KeyLibrary, ErrMissingRequired)
		}
		cfg.LibraryRoot = strings.TrimSpace(answer)
		cfg.Origins[KeyLibrary] = "prompt"
	}
	if canAsk && cfg.Event == "" {
		answer, err := asker.Ask("Event name (empty for date-only names)", "")
		if err != nil {
			return EffectiveConfig{}, fmt.Errorf("prompt %s: %w", KeyEvent, err)
		}
		if cfg.Event = strings.TrimSpace(answer); cfg.Event != "" {
			cfg.Origins[KeyEvent] = "prompt"
		}
	}
	if canAsk && cfg.Location == "" {
		answer, err := asker.Ask("Location (optional)", "")
		if err != nil {
			return EffectiveConfig{}, fmt.Errorf("prompt %s: %w", KeyLocation, err)
		}
		if cfg.Location = strings.TrimSpace(answer); cfg.Location != "" {
			cfg.Origins[KeyLocation] = "prompt"
		}
	}

	return cfg, nil
}

func parseBool(raw string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}
