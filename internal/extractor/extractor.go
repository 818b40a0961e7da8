// Package extractor turns one configured record into one ISO metadata file.
//
// Each harvesting method has its own Extractor. Every extractor either
// writes exactly one file into the output directory or returns an error
// and writes nothing.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/penwern/geomodel-harvest/internal/pdftext"
	"github.com/penwern/geomodel-harvest/internal/summary"
	"github.com/penwern/geomodel-harvest/pkg/config"
	"github.com/penwern/geomodel-harvest/pkg/logger"
	"github.com/penwern/geomodel-harvest/pkg/utils"
	"github.com/penwern/geomodel-harvest/pkg/xmlmerge"
)

var (
	// ErrTransport wraps failures talking to a remote source.
	ErrTransport = errors.New("transport error")
	// ErrParse wraps source documents that cannot be read.
	ErrParse = errors.New("parse error")
	// ErrMissingField is returned when a record lacks what its method needs.
	ErrMissingField = errors.New("missing field")
)

// Extractor writes the metadata file of one record.
type Extractor interface {
	WriteRecord(ctx context.Context, rec config.RecordParams) error
}

// KeywordExtractor picks keywords out of report text.
type KeywordExtractor interface {
	Extract(text string) []string
}

// Deps are the collaborators shared by every extractor.
type Deps struct {
	HTTP         *utils.HTTPClient
	OutputDir    string
	ModelBaseURL string
	// ParseMode applies to sources that do not set their own.
	ParseMode xmlmerge.ParseMode
	// OutputXSD, when set, validates ISO 19115-3 output before it is written.
	OutputXSD string

	PDF        pdftext.Extractor
	Keywords   KeywordExtractor
	Summarizer summary.Summarizer

	// Now defaults to time.Now.
	Now func() time.Time
}

func (d *Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d *Deps) parseMode(rec config.RecordParams) (xmlmerge.ParseMode, error) {
	if rec.ParseMode == "" {
		return d.ParseMode, nil
	}
	return xmlmerge.ParseModeFromString(rec.ParseMode)
}

// write stores data under the record's output name.
func (d *Deps) write(rec config.RecordParams, data []byte) error {
	path, err := utils.WriteOutput(d.OutputDir, rec.Output(), data)
	if err != nil {
		return err
	}
	logger.Info("Wrote %s to %s", rec.Label(), path)
	return nil
}

// New returns the extractor for a method.
func New(method config.Method, deps *Deps) (Extractor, error) {
	switch method {
	case config.MethodISO19139:
		return &ISO19139{deps: deps}, nil
	case config.MethodISO19115_3:
		return &ISO19115_3{deps: deps}, nil
	case config.MethodCKAN:
		return &CKAN{deps: deps}, nil
	case config.MethodOAIPMH:
		return &OAI{deps: deps}, nil
	case config.MethodPDF:
		return &PDF{deps: deps}, nil
	}
	return nil, fmt.Errorf("no extractor for method %q", method)
}

func missing(rec config.RecordParams, what string) error {
	return fmt.Errorf("%w: %s needs %s", ErrMissingField, rec.Label(), what)
}

// lineageDate is the date format used in lineage statements.
const lineageDate = "02 Jan 2006"
