package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Execute(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestUnknownRecordKey(t *testing.T) {
	code, _, stderr := run(t, "-r", "dfdfdfdfd", "--output-dir", t.TempDir())
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "ERROR: Cannot find dfdfdfdfd in config")
}

func TestUnknownFlagIsUsageError(t *testing.T) {
	code, _, stderr := run(t, "--no-such-flag")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "unknown flag")
}

func TestUnexpectedArgument(t *testing.T) {
	code, _, _ := run(t, "sa")
	assert.Equal(t, 2, code)
}

func TestBadSourcesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sources:\n  sa:\n    method: ISO19115-3\n    records:\n      - name: no endpath\n        metadata_url: https://example.org/x.xml\n"), 0o600))

	code, _, stderr := run(t, "--sources", path, "--output-dir", t.TempDir())
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "ERROR:")
}

func TestSkippedSourceRuns(t *testing.T) {
	code, _, _ := run(t, "-r", "tas", "--output-dir", t.TempDir())
	assert.Equal(t, 0, code)
}

func TestInvalidLogLevel(t *testing.T) {
	code, _, stderr := run(t, "-r", "tas", "--log-level", "chatty")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "invalid log level")
}

func TestVersion(t *testing.T) {
	code, stdout, _ := run(t, "version")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "Version:")
	assert.Contains(t, stdout, "Commit:")
}

func TestPushNeedsConfig(t *testing.T) {
	code, _, stderr := run(t, "push")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "geonetwork")
}
