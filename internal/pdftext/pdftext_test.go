package pdftext

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsPageText(t *testing.T) {
	prose := strings.Repeat("abcdefghij", 10)
	assert.True(t, IsPageText(prose, 100))
	assert.False(t, IsPageText(prose, 101), "below cutoff")
	assert.False(t, IsPageText("", 0))

	// 7 letters in 10 characters is 70%.
	assert.False(t, IsPageText("abcdefg123", 5))
	// 8 in 10 is 80%.
	assert.True(t, IsPageText("abcdefgh 1", 5))
}

func TestJoinPages(t *testing.T) {
	pages := []string{"Geology of the basin", "12 34 56 78", ""}
	assert.Equal(t, "Geology of the basin 12 34 56 78  ", JoinPages(pages, false, 0))
	assert.Equal(t, "Geology of the basin ", JoinPages(pages, true, 5))
}

func TestPopplerExtract(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in needs a POSIX shell")
	}
	dir := t.TempDir()
	script := filepath.Join(dir, "pdftotext")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nprintf 'Sandstone hosted deposits\\f1 2 3 4 5 6 7 8\\f'\n"), 0o755))
	pdf := filepath.Join(dir, "report.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF-1.4"), 0o600))

	p := Poppler{Binary: script}
	all, err := p.Extract(context.Background(), pdf, false, 0)
	require.NoError(t, err)
	assert.Contains(t, all, "Sandstone hosted deposits")
	assert.Contains(t, all, "1 2 3")

	filtered, err := p.Extract(context.Background(), pdf, true, 10)
	require.NoError(t, err)
	assert.Contains(t, filtered, "Sandstone")
	assert.NotContains(t, filtered, "1 2 3")
}

func TestPopplerMissingFile(t *testing.T) {
	_, err := Poppler{}.Extract(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"), false, 0)
	assert.Error(t, err)
}
