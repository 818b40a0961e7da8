// Package harvest drives the extractors over the source registry.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/penwern/geomodel-harvest/internal/extractor"
	"github.com/penwern/geomodel-harvest/internal/keywords"
	"github.com/penwern/geomodel-harvest/internal/pdftext"
	"github.com/penwern/geomodel-harvest/internal/summary"
	"github.com/penwern/geomodel-harvest/internal/thesaurus"
	"github.com/penwern/geomodel-harvest/pkg/config"
	"github.com/penwern/geomodel-harvest/pkg/logger"
	"github.com/penwern/geomodel-harvest/pkg/utils"
	"github.com/penwern/geomodel-harvest/pkg/xmlmerge"
)

// ErrUsage marks command line mistakes.
var ErrUsage = errors.New("usage error")

// ExitCodeForError maps a run error to the process exit status.
func ExitCodeForError(err error) int {
	if err == nil {
		return 0
	}
	if errors.Is(err, ErrUsage) {
		return 2
	}
	// Config, params and unknown-key errors all exit 1, as does anything
	// else that stops a run before it starts.
	return 1
}

// Result counts the outcome of a run.
type Result struct {
	Written int
	Failed  int
	Skipped int
}

// Harvester processes the records of a registry one at a time.
type Harvester struct {
	cfg      *config.Config
	registry *config.Registry
	deps     *extractor.Deps

	// newExtractor is swapped in tests.
	newExtractor func(config.Method, *extractor.Deps) (extractor.Extractor, error)
	pdfReady     bool
	closers      []func()
}

// New prepares a harvester. Collaborators only needed for PDF sources are
// set up on first use.
func New(cfg *config.Config, registry *config.Registry) (*Harvester, error) {
	mode, err := xmlmerge.ParseModeFromString(cfg.ParseMode)
	if err != nil {
		return nil, &config.Error{Err: err}
	}
	hc := utils.NewHTTPClient(cfg.HTTPTimeout, cfg.AllowInsecureTLS)
	h := &Harvester{
		cfg:      cfg,
		registry: registry,
		deps: &extractor.Deps{
			HTTP:         hc,
			OutputDir:    cfg.OutputDir,
			ModelBaseURL: cfg.ModelBaseURL,
			ParseMode:    mode,
			OutputXSD:    cfg.OutputXSD,
		},
		newExtractor: extractor.New,
		closers:      []func(){hc.Close},
	}
	return h, nil
}

// Close releases the clients held by the harvester.
func (h *Harvester) Close() {
	logger.Debug("Closing Clients")
	for i := len(h.closers) - 1; i >= 0; i-- {
		h.closers[i]()
	}
	h.closers = nil
}

// Run processes one source, or every source in key order when key is
// empty. Failing records are logged and counted; only an unknown key or a
// cancelled context ends the run with an error.
func (h *Harvester) Run(ctx context.Context, key string) (Result, error) {
	var res Result

	keys := h.registry.Keys()
	if key != "" {
		if _, err := h.registry.Lookup(key); err != nil {
			return res, err
		}
		keys = []string{key}
	}

	for _, k := range keys {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		src, err := h.registry.Lookup(k)
		if err != nil {
			return res, err
		}
		h.runSource(ctx, src, &res)
	}
	logger.Info("Harvest finished: %d written, %d failed, %d skipped", res.Written, res.Failed, res.Skipped)
	return res, nil
}

func (h *Harvester) runSource(ctx context.Context, src *config.Source, res *Result) {
	if src.Skipped() {
		logger.Info("Skipping %s: no extraction method", src.Key)
		res.Skipped++
		return
	}

	if src.Method == config.MethodPDF {
		if err := h.preparePDF(ctx); err != nil {
			logger.Error("Cannot process %s: %v", src.Key, err)
			res.Failed += len(src.Records)
			return
		}
	}

	ex, err := h.newExtractor(src.Method, h.deps)
	if err != nil {
		logger.Error("Cannot process %s: %v", src.Key, err)
		res.Failed += len(src.Records)
		return
	}

	logger.Info("Processing %s (%s, %d records)", src.Key, src.Method, len(src.Records))
	for _, rec := range src.Records {
		if ctx.Err() != nil {
			return
		}
		start := time.Now()
		if err := ex.WriteRecord(ctx, rec); err != nil {
			logger.Error("Failed %s: %s", rec.Label(), utils.TruncateError(err.Error(), 500))
			res.Failed++
			continue
		}
		logger.Debug("%s took %v", rec.Label(), time.Since(start))
		res.Written++
	}
}

// preparePDF loads the thesaurus and builds the summariser once.
func (h *Harvester) preparePDF(ctx context.Context) error {
	if h.pdfReady {
		return nil
	}

	lookup, err := h.loadThesaurus(ctx)
	if err != nil {
		return err
	}
	sum, err := summary.New(ctx, h.cfg, h.deps.HTTP)
	if err != nil {
		return fmt.Errorf("error creating summariser: %w", err)
	}

	h.deps.PDF = pdftext.Poppler{}
	h.deps.Keywords = keywords.New(lookup)
	h.deps.Summarizer = sum
	h.pdfReady = true
	return nil
}

func (h *Harvester) loadThesaurus(ctx context.Context) (thesaurus.Lookup, error) {
	switch {
	case h.cfg.Thesaurus.DSN != "":
		var iam *thesaurus.IAMAuth
		if h.cfg.Thesaurus.IAMRegion != "" {
			iam = &thesaurus.IAMAuth{Region: h.cfg.Thesaurus.IAMRegion}
		}
		store, err := thesaurus.NewPGStore(ctx, h.cfg.Thesaurus.DSN, iam)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		return thesaurus.Load(ctx, store)
	case h.cfg.Thesaurus.File != "":
		return thesaurus.Load(ctx, thesaurus.FileStore{Path: h.cfg.Thesaurus.File})
	}
	logger.Warn("No thesaurus configured, PDF keywords will not be mapped to categories")
	return thesaurus.Lookup{}, nil
}
