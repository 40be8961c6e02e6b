package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeImportFile(t *testing.T, dir, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, ImportFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileLayerReadsRecognizedKeys(t *testing.T) {
	root := t.TempDir()
	writeImportFile(t, root, `
event: AlpsTour
location: Sölk Pass
author: IdentityAuthor
copyright: "© 2026 Unlicense"
credit: IdentityCredit
archive: /mnt/archive
tags:
  - alps
  - moto
pattern: "{date}_{seq:04d}"
gps: "47.38,13.9"
camera_owner: ignored
`)

	l, path, err := FileLayer(root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, ImportFileName), path)

	expect := map[string]string{
		KeyEvent:         "AlpsTour",
		KeyLocation:      "Sölk Pass",
		KeyAuthor:        "IdentityAuthor",
		KeyCopyright:     "© 2026 Unlicense",
		KeyCredit:        "IdentityCredit",
		KeyLibrary:       "/mnt/archive",
		KeyTags:          "alps,moto",
		KeyNamingPattern: "{date}_{seq:04d}",
		KeyGPS:           "47.38,13.9",
	}
	for key, want := range expect {
		got, ok := l.Lookup(key)
		assert.True(t, ok, key)
		assert.Equal(t, want, got, key)
	}
}

func TestFileLayerScalarTags(t *testing.T) {
	root := t.TempDir()
	writeImportFile(t, root, "tags: alps, moto\n")
	l, _, err := FileLayer(root)
	require.NoError(t, err)
	tags, _ := l.Lookup(KeyTags)
	assert.Equal(t, "alps,moto", tags)
}

func TestFileLayerFallsBackToDCIM(t *testing.T) {
	root := t.TempDir()
	writeImportFile(t, filepath.Join(root, "DCIM"), "event: FromDCIM\n")
	l, path, err := FileLayer(root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "DCIM", ImportFileName), path)
	event, _ := l.Lookup(KeyEvent)
	assert.Equal(t, "FromDCIM", event)
}

func TestFileLayerMissingFile(t *testing.T) {
	l, path, err := FileLayer(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, path)
	_, ok := l.Lookup(KeyEvent)
	assert.False(t, ok)
}

func TestFileLayerMalformed(t *testing.T) {
	root := t.TempDir()
	writeImportFile(t, root, "event: [unclosed\n")
	_, _, err := FileLayer(root)
	require.Error(t, err)
}
