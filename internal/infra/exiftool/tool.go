package exiftool

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/barasher/go-exiftool"

	"pixelgroomer/internal/app"
	"pixelgroomer/internal/domain"
)

const dateLayout = "2006:01:02 15:04:05"

// Tool reads and writes metadata through one long-running exiftool process.
// exiftool handles one request at a time, so calls queue for a single slot.
// The per-call timeout starts once a call holds the slot.
type Tool struct {
	slot    chan struct{}
	et      *exiftool.Exiftool
	timeout time.Duration
}

// Available reports whether the exiftool binary can be found.
func Available(binary string) bool {
	if binary == "" {
		binary = "exiftool"
	}
	_, err := exec.LookPath(binary)
	return err == nil
}

// New starts exiftool. A timeout of zero lets calls run until their context
// is done.
func New(binary string, timeout time.Duration) (*Tool, error) {
	var opts []func(*exiftool.Exiftool) error
	if binary != "" {
		opts = append(opts, exiftool.SetExiftoolBinaryPath(binary))
	}
	et, err := exiftool.NewExiftool(opts...)
	if err != nil {
		return nil, fmt.Errorf("start exiftool: %w", err)
	}
	return newTool(et, timeout), nil
}

func newTool(et *exiftool.Exiftool, timeout time.Duration) *Tool {
	return &Tool{slot: make(chan struct{}, 1), et: et, timeout: timeout}
}

// SelfTimed tells callers not to wrap reads and writes in their own timeout.
func (t *Tool) SelfTimed() {}

func (t *Tool) Close() error {
	t.slot <- struct{}{}
	defer func() { <-t.slot }()
	return t.et.Close()
}

// call waits for the process slot, then runs fn under the per-call timeout.
// fn never starts once ctx is done. An abandoned fn keeps the slot until
// exiftool answers.
func (t *Tool) call(ctx context.Context, fn func()) error {
	select {
	case t.slot <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("exiftool: %w", ctx.Err())
	}
	if err := ctx.Err(); err != nil {
		<-t.slot
		return fmt.Errorf("exiftool: %w", err)
	}

	callCtx := ctx
	if t.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() { <-t.slot }()
		fn()
	}()
	select {
	case <-done:
		return nil
	case <-callCtx.Done():
		return fmt.Errorf("exiftool: %w", callCtx.Err())
	}
}

func (t *Tool) Read(ctx context.Context, path string) (app.Metadata, error) {
	var fm exiftool.FileMetadata
	err := t.call(ctx, func() {
		results := t.et.ExtractMetadata(path)
		if len(results) == 0 {
			fm.Err = errors.New("no result")
			return
		}
		fm = results[0]
	})
	if err != nil {
		return app.Metadata{}, err
	}
	if fm.Err != nil {
		return app.Metadata{}, fm.Err
	}
	return metadataFrom(fm), nil
}

func metadataFrom(fm exiftool.FileMetadata) app.Metadata {
	var meta app.Metadata
	for _, key := range []string{"DateTimeOriginal", "CreateDate"} {
		if taken, ok := parseDate(fm, key); ok {
			meta.TakenAt = &taken
			break
		}
	}
	for _, key := range []string{"Model", "Make"} {
		if v, err := fm.GetString(key); err == nil && strings.TrimSpace(v) != "" {
			meta.Camera = strings.TrimSpace(v)
			break
		}
	}
	return meta
}

// parseDate reads an exiftool date, ignoring sub-seconds and zone suffixes.
// The all-zero placeholder some cameras write counts as no date.
func parseDate(fm exiftool.FileMetadata, key string) (time.Time, bool) {
	v, err := fm.GetString(key)
	if err != nil || len(v) < len(dateLayout) {
		return time.Time{}, false
	}
	parsed, err := time.ParseInLocation(dateLayout, v[:len(dateLayout)], time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

// Write sets every non-empty field on path in place.
func (t *Tool) Write(ctx context.Context, path string, fields domain.MetadataFields) error {
	fm := exiftool.FileMetadata{File: path, Fields: map[string]interface{}{}}
	setFields(&fm, fields)
	if len(fm.Fields) == 0 {
		return nil
	}

	var results []exiftool.FileMetadata
	err := t.call(ctx, func() {
		results = []exiftool.FileMetadata{fm}
		t.et.WriteMetadata(results)
	})
	if err != nil {
		return err
	}
	return results[0].Err
}

func setFields(fm *exiftool.FileMetadata, f domain.MetadataFields) {
	setAll := func(value string, keys ...string) {
		if value == "" {
			return
		}
		for _, k := range keys {
			fm.SetString(k, value)
		}
	}
	setAll(f.Author, "Artist", "XMP:Creator", "IPTC:By-line")
	setAll(f.Copyright, "Copyright", "XMP:Rights", "IPTC:CopyrightNotice")
	setAll(f.Credit, "IPTC:Credit", "XMP:Credit")
	setAll(f.Event, "XMP:Event")
	setAll(f.Location, "XMP:Location", "IPTC:City")
	if len(f.Tags) > 0 {
		fm.SetStrings("XMP:Subject", f.Tags)
		fm.SetStrings("IPTC:Keywords", f.Tags)
	}
	if f.GPS != nil {
		fm.SetString("GPSLatitude", formatCoord(f.GPS.Latitude))
		fm.SetString("GPSLatitudeRef", f.GPS.LatitudeRef())
		fm.SetString("GPSLongitude", formatCoord(f.GPS.Longitude))
		fm.SetString("GPSLongitudeRef", f.GPS.LongitudeRef())
	}
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(math.Abs(v), 'f', -1, 64)
}
