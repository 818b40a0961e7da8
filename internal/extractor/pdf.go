package extractor

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/penwern/geomodel-harvest/pkg/config"
	"github.com/penwern/geomodel-harvest/pkg/iso19115"
)

const (
	pdfRights    = "CC BY 4.0"
	pdfRightsURL = "https://creativecommons.org/licenses/by/4.0/"
	thesaurusRef = "USGS Thesaurus (https://apps.usgs.gov/thesaurus/)"
)

// PDF builds an ISO 19115-3 record from a report, generating keywords and
// an abstract from its text.
type PDF struct {
	deps *Deps
}

// WriteRecord implements Extractor.
func (x *PDF) WriteRecord(ctx context.Context, rec config.RecordParams) error {
	if rec.PDF == nil || rec.PDF.PDFFile == "" {
		return missing(rec, "pdf_file")
	}
	if _, err := os.Stat(rec.PDF.PDFFile); err != nil {
		return fmt.Errorf("%w: %s: %s does not exist", ErrMissingField, rec.Label(), rec.PDF.PDFFile)
	}
	if x.deps.PDF == nil || x.deps.Keywords == nil || x.deps.Summarizer == nil {
		return fmt.Errorf("%s: PDF extraction is not configured", rec.Label())
	}

	// Keywords come from every page, the abstract only from prose pages.
	all, err := x.deps.PDF.Extract(ctx, rec.PDF.PDFFile, false, rec.PDF.Cutoff)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrParse, rec.Label(), err)
	}
	prose, err := x.deps.PDF.Extract(ctx, rec.PDF.PDFFile, true, rec.PDF.Cutoff)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrParse, rec.Label(), err)
	}
	abstract, err := x.deps.Summarizer.Summarize(ctx, prose)
	if err != nil {
		return fmt.Errorf("%w: %s: summarising: %v", ErrTransport, rec.Label(), err)
	}

	out, err := iso19115.Render(x.record(rec, x.deps.Keywords.Extract(all), abstract))
	if err != nil {
		return fmt.Errorf("error rendering %s: %w", rec.Label(), err)
	}
	return x.deps.write(rec, out)
}

func (x *PDF) record(rec config.RecordParams, keywords []string, abstract string) iso19115.Record {
	now := x.deps.now()
	p := rec.PDF
	r := iso19115.Record{
		Identifier:   uuid.New().String(),
		Title:        p.Title,
		Abstract:     abstract,
		Organisation: p.Organisation,
		Created:      now,
		Published:    now,
		Datestamp:    now,
		Keywords:     keywords,
		BBox:         iso19115.DefaultBBox,
		Rights:       pdfRights,
		RightsURL:    pdfRightsURL,
	}
	if rec.BBox != nil {
		r.BBox = *rec.BBox
	}

	source := p.PDFURL
	if source == "" {
		source = p.PDFFile
	}
	if p.PDFURL != "" {
		name := rec.Name
		if name == "" {
			name = p.Title
		}
		r.Distributions = append(r.Distributions, iso19115.Distribution{
			URL:         p.PDFURL,
			Protocol:    "WWW:LINK",
			Name:        name,
			Description: "3D Model Report",
			Function:    "download",
		})
	}
	r.Distributions = append(r.Distributions, iso19115.WebsiteDistribution(x.deps.ModelBaseURL, rec.ModelEndpath))

	r.Lineage = fmt.Sprintf("This metadata record was reproduced from the PDF report retrieved from %s on %s. "+
		"The abstract was generated by %s. Keywords were taken from %s and extracted by frequency scoring of the report text.",
		source, now.Format(lineageDate), x.deps.Summarizer.Name(), thesaurusRef)
	return r
}
