package logging

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
)

// Logger provides leveled console logging with an optional verbose mode and
// lightweight timing helpers. The zero value discards everything.
type Logger struct {
	zl      *zerolog.Logger
	Verbose bool
}

func New(writer io.Writer, verbose bool) Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	console := zerolog.ConsoleWriter{
		Out:        writer,
		TimeFormat: time.TimeOnly,
		NoColor:    true,
	}
	zl := zerolog.New(console).With().Timestamp().Logger().Level(level)
	return Logger{zl: &zl, Verbose: verbose}
}

// With returns a logger that attaches key=value to every line.
func (l Logger) With(key, value string) Logger {
	if l.zl == nil {
		return l
	}
	zl := l.zl.With().Str(key, value).Logger()
	return Logger{zl: &zl, Verbose: l.Verbose}
}

func (l Logger) Infof(format string, args ...any) {
	if l.zl == nil {
		return
	}
	l.zl.Info().Msg(fmt.Sprintf(format, args...))
}

func (l Logger) Warnf(format string, args ...any) {
	if l.zl == nil {
		return
	}
	l.zl.Warn().Msg(fmt.Sprintf(format, args...))
}

func (l Logger) Errorf(format string, args ...any) {
	if l.zl == nil {
		return
	}
	l.zl.Error().Msg(fmt.Sprintf(format, args...))
}

func (l Logger) Verbosef(format string, args ...any) {
	if !l.Verbose || l.zl == nil {
		return
	}
	l.zl.Debug().Msg(fmt.Sprintf(format, args...))
}

// Measure returns a stop function that logs the elapsed time when called.
func (l Logger) Measure(label string) func() {
	if !l.Verbose {
		return func() {}
	}
	start := time.Now()
	return func() {
		elapsed := time.Since(start).Round(time.Millisecond)
		l.Verbosef("%s took %s", label, elapsed)
	}
}
