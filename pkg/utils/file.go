package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteOutput writes data to dir/name, creating dir when missing.
// The data lands in a temp file first and is renamed into place, so a
// failed write never leaves a partial record behind.
// It returns the path of the written file.
func WriteOutput(dir, name string, data []byte) (string, error) {
	if name == "" || filepath.Base(name) != name {
		return "", fmt.Errorf("invalid output file name %q", name)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("error creating output directory %s: %w", dir, err)
	}

	target := filepath.Join(dir, name)
	tmp, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("error creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		// No-op once renamed.
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("error writing %s: %w", target, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("error closing %s: %w", target, err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return "", fmt.Errorf("error setting permissions on %s: %w", target, err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		return "", fmt.Errorf("error renaming temp file to %s: %w", target, err)
	}
	return target, nil
}
