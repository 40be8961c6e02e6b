package exif

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	goexif "github.com/rwcarlsen/goexif/exif"

	"pixelgroomer/internal/app"
)

const exifLayout = "2006:01:02 15:04:05"

// ErrNoExif is returned for files goexif cannot decode at all, such as most
// non-TIFF RAW containers.
var ErrNoExif = errors.New("no exif data")

// Reader reads capture metadata in-process. It needs no external tool but
// only understands JPEG and TIFF-based files.
type Reader struct{}

func (Reader) Read(ctx context.Context, path string) (app.Metadata, error) {
	select {
	case <-ctx.Done():
		return app.Metadata{}, ctx.Err()
	default:
	}

	file, err := os.Open(path)
	if err != nil {
		return app.Metadata{}, err
	}
	defer file.Close()

	x, err := goexif.Decode(file)
	if err != nil {
		if goexif.IsCriticalError(err) {
			return app.Metadata{}, errors.Join(ErrNoExif, err)
		}
	}
	if x == nil {
		return app.Metadata{}, ErrNoExif
	}

	meta := app.Metadata{Camera: camera(x)}
	if taken, ok := takenAt(x); ok {
		meta.TakenAt = &taken
	}
	return meta, nil
}

func takenAt(x *goexif.Exif) (time.Time, bool) {
	for _, field := range []goexif.FieldName{goexif.DateTimeOriginal, goexif.DateTimeDigitized} {
		tag, err := x.Get(field)
		if err != nil {
			continue
		}
		str, err := tag.StringVal()
		if err != nil {
			continue
		}
		parsed, err := time.ParseInLocation(exifLayout, strings.TrimSpace(str), time.Local)
		if err == nil {
			return parsed, true
		}
	}

	if parsed, err := x.DateTime(); err == nil {
		return parsed, true
	}
	return time.Time{}, false
}

func camera(x *goexif.Exif) string {
	model := stringTag(x, goexif.Model)
	if model != "" {
		return model
	}
	return stringTag(x, goexif.Make)
}

func stringTag(x *goexif.Exif, field goexif.FieldName) string {
	tag, err := x.Get(field)
	if err != nil {
		return ""
	}
	str, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimRight(str, "\x00"))
}
