package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestZeroLoggerDiscards(t *testing.T) {
	var l Logger
	l.Infof("ignored %d", 1)
	l.Warnf("ignored")
	l.Verbosef("ignored")
	l.Measure("noop")()
}

func TestVerbosefOnlyWhenVerbose(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, false).Verbosef("hidden line")
	assert.NotContains(t, buf.String(), "hidden line")

	buf.Reset()
	New(&buf, true).Verbosef("shown line")
	assert.Contains(t, buf.String(), "shown line")
}

func TestWithAddsField(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, false).With("run", "abc123").Warnf("fallback date for %s", "IMG_1.JPG")
	out := buf.String()
	assert.Contains(t, out, "fallback date for IMG_1.JPG")
	assert.Contains(t, out, "run=abc123")
}
