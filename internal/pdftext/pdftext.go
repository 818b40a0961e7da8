// Package pdftext extracts plain text from PDF reports.
package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/penwern/geomodel-harvest/pkg/logger"
)

// AlphaThreshold is the percentage of letters a page must exceed to be
// treated as prose.
const AlphaThreshold = 73.0

// Extractor returns the text of a PDF. When filter is set, pages shorter
// than cutoff characters or with too few letters are dropped.
type Extractor interface {
	Extract(ctx context.Context, path string, filter bool, cutoff int) (string, error)
}

// Poppler extracts text with the pdftotext tool from poppler-utils.
type Poppler struct {
	// Binary defaults to "pdftotext" on PATH.
	Binary string
}

// Extract implements Extractor.
func (p Poppler) Extract(ctx context.Context, path string, filter bool, cutoff int) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("error opening PDF %s: %w", path, err)
	}
	bin := p.Binary
	if bin == "" {
		bin = "pdftotext"
	}

	cmd := exec.CommandContext(ctx, bin, "-layout", "-enc", "UTF-8", path, "-")
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("pdftotext failed: %w (is poppler installed?): %s", err, strings.TrimSpace(stderr.String()))
	}

	pages := strings.Split(out.String(), "\f")
	text := JoinPages(pages, filter, cutoff)
	logger.Debug("Extracted %d characters from %d pages of %s", utf8.RuneCountInString(text), len(pages), path)
	return text, nil
}

// JoinPages concatenates pages, keeping only prose pages when filter is set.
func JoinPages(pages []string, filter bool, cutoff int) string {
	var sb strings.Builder
	for _, page := range pages {
		if !filter || IsPageText(page, cutoff) {
			sb.WriteString(page)
			sb.WriteString(" ")
		}
	}
	return sb.String()
}

// IsPageText reports whether a page looks like prose: at least cutoff
// characters, more than AlphaThreshold percent of them letters.
func IsPageText(page string, cutoff int) bool {
	total := utf8.RuneCountInString(page)
	if total < cutoff || total == 0 {
		return false
	}
	alpha := 0
	for _, r := range page {
		if unicode.IsLetter(r) {
			alpha++
		}
	}
	return float64(alpha)/float64(total)*100 > AlphaThreshold
}
