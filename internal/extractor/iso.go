package extractor

import (
	"context"
	"fmt"

	"github.com/lestrrat-go/libxml2/types"
	"github.com/penwern/geomodel-harvest/pkg/config"
	"github.com/penwern/geomodel-harvest/pkg/isoschema"
	"github.com/penwern/geomodel-harvest/pkg/logger"
	"github.com/penwern/geomodel-harvest/pkg/namespaces"
	"github.com/penwern/geomodel-harvest/pkg/snippets"
	"github.com/penwern/geomodel-harvest/pkg/xmlmerge"
)

// ISO19139 enriches a remote ISO 19139 record.
type ISO19139 struct {
	deps *Deps
}

// WriteRecord implements Extractor.
func (x *ISO19139) WriteRecord(ctx context.Context, rec config.RecordParams) error {
	out, err := enrich(ctx, x.deps, rec, config.MethodISO19139)
	if err != nil {
		return err
	}
	return x.deps.write(rec, out)
}

// ISO19115_3 enriches a remote ISO 19115-3 record and upgrades its
// namespaces for geonetwork.
type ISO19115_3 struct {
	deps *Deps
}

// WriteRecord implements Extractor.
func (x *ISO19115_3) WriteRecord(ctx context.Context, rec config.RecordParams) error {
	out, err := enrich(ctx, x.deps, rec, config.MethodISO19115_3)
	if err != nil {
		return err
	}
	if rec.XML.UpgradeHeader {
		if out, err = isoschema.UpgradeNamespaces(out); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrParse, rec.Label(), err)
		}
	}
	if x.deps.OutputXSD != "" {
		if err := isoschema.Validate(out, x.deps.OutputXSD); err != nil {
			return fmt.Errorf("%s: %w", rec.Label(), err)
		}
	}
	return x.deps.write(rec, out)
}

// enrich fetches the record, merges the extent, link and keyword snippets
// and returns the serialised document.
func enrich(ctx context.Context, deps *Deps, rec config.RecordParams, method config.Method) ([]byte, error) {
	if rec.XML == nil || rec.XML.MetadataURL == "" {
		return nil, missing(rec, "metadata_url")
	}
	dialect, err := snippets.ParseDialect(string(method))
	if err != nil {
		return nil, err
	}
	mode, err := deps.parseMode(rec)
	if err != nil {
		return nil, err
	}

	body, charset, err := deps.HTTP.GetText(ctx, rec.XML.MetadataURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTransport, rec.Label(), err)
	}
	logger.Debug("Fetched %d bytes (charset %q) for %s", len(body), charset, rec.Label())

	data, err := xmlmerge.ToUTF8([]byte(body), charset)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParse, rec.Label(), err)
	}
	doc, err := xmlmerge.Parse(data, mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParse, rec.Label(), err)
	}
	defer doc.Free()
	root, err := xmlmerge.Root(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParse, rec.Label(), err)
	}

	b := snippets.For(dialect)
	if dialect == snippets.ISO19115_3 {
		b = b.WithNamespaces(iso19115Table(root))
	}

	var parts []snippets.Snippet
	if rec.BBox != nil {
		parts = append(parts, b.Coords(*rec.BBox))
	}
	parts = append(parts, b.Link(deps.ModelBaseURL, rec.ModelEndpath), b.Keyword())
	for _, s := range parts {
		if err := s.Apply(root); err != nil {
			return nil, fmt.Errorf("%s: %w", rec.Label(), err)
		}
	}
	return []byte(xmlmerge.Serialize(doc)), nil
}

// iso19115Table picks the namespace table matching the namespace of the
// document element.
func iso19115Table(root types.Node) namespaces.Table {
	var uri string
	if el, ok := root.(types.Element); ok {
		uri = el.NamespaceURI()
	}
	return namespaces.ForISO19115_3Root(uri)
}
