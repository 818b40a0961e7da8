package extractor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/penwern/geomodel-harvest/pkg/config"
	"github.com/penwern/geomodel-harvest/pkg/snippets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const packageShowJSON = `{
  "success": true,
  "result": {
    "id": "ds000006",
    "title": "Quamby 3D model",
    "notes": "Geological model of the Quamby area.",
    "organization": {"title": "Geological Survey of Queensland"},
    "license_title": "Creative Commons Attribution 4.0",
    "license_url": "https://creativecommons.org/licenses/by/4.0/",
    "metadata_created": "2020-06-03T04:59:17.839735",
    "metadata_modified": "2021-01-12T00:00:00",
    "resources": [{"url": "https://example.org/quamby.zip", "name": "Quamby model", "format": "ZIP"}]
  }
}`

func TestCKANRecord(t *testing.T) {
	srv := serve(t, map[string]string{"/api/3/action/package_show": packageShowJSON})
	deps := newDeps(t)

	rec := config.RecordParams{
		Common: config.Common{ModelEndpath: "quamby"},
		Source: "qld",
		Method: config.MethodCKAN,
		CKAN:   &config.CKANParams{CKANURL: srv.URL, PackageID: "ds000006"},
	}
	require.NoError(t, (&CKAN{deps: deps}).WriteRecord(context.Background(), rec))

	out := string(readOutput(t, deps, "quamby.xml"))
	for _, want := range []string{
		"Quamby 3D model",
		"Geological model of the Quamby area.",
		"Geological Survey of Queensland",
		"Creative Commons Attribution 4.0 (https://creativecommons.org/licenses/by/4.0/)",
		"https://example.org/quamby.zip",
		"3D Model Download",
		"https://geomodels.auscope.org/model/quamby",
		CKANKeyword,
		"with package_id ds000006 on 05 Mar 2024",
		// No GeoJSON extent, so the continental default applies.
		"154.3",
	} {
		assert.Contains(t, out, want)
	}
}

func TestCKANUnsuccessful(t *testing.T) {
	srv := serve(t, map[string]string{"/api/3/action/package_show": `{"success": false, "error": {"message": "Not found"}}`})
	deps := newDeps(t)

	rec := config.RecordParams{
		Common: config.Common{ModelEndpath: "quamby"},
		CKAN:   &config.CKANParams{CKANURL: srv.URL, PackageID: "nope"},
	}
	err := (&CKAN{deps: deps}).WriteRecord(context.Background(), rec)
	assert.ErrorContains(t, err, "Not found")
	assertNoOutput(t, deps)

	rec.CKAN = nil
	assert.ErrorIs(t, (&CKAN{deps: deps}).WriteRecord(context.Background(), rec), ErrMissingField)
}

const oaiRecord = `<?xml version="1.0" encoding="UTF-8"?>
<OAI-PMH xmlns="http://www.openarchives.org/OAI/2.0/">
  <GetRecord>
    <record>
      <header>
        <identifier>oai:geoscience.nt.gov.au:1/81751</identifier>
        <datestamp>2021-02-03T04:05:06Z</datestamp>
      </header>
      <metadata>
        <oai_dc:dc xmlns:oai_dc="http://www.openarchives.org/OAI/2.0/oai_dc/" xmlns:dc="http://purl.org/dc/elements/1.1/">
          <dc:title>McArthur Basin 3D model</dc:title>
          <dc:subject>Geophysics</dc:subject>
          <dc:description>A model of the McArthur Basin.</dc:description>
        </oai_dc:dc>
      </metadata>
    </record>
  </GetRecord>
</OAI-PMH>`

func TestOAIRecord(t *testing.T) {
	srv := serve(t, map[string]string{"/oai": oaiRecord})
	deps := newDeps(t)

	rec := config.RecordParams{
		Common: config.Common{ModelEndpath: "mcarthur", OutputFile: "mcarthur-oai.xml"},
		Source: "nt-oai",
		Method: config.MethodOAIPMH,
		OAI: &config.OAIParams{
			OAIURL:      srv.URL + "/oai",
			OAIID:       "oai:geoscience.nt.gov.au:1/81751",
			OAIPrefix:   "oai_dc",
			ServiceName: "NTGS GEMIS",
		},
	}
	require.NoError(t, (&OAI{deps: deps}).WriteRecord(context.Background(), rec))

	out := string(readOutput(t, deps, "mcarthur-oai.xml"))
	for _, want := range []string{
		"McArthur Basin 3D model",
		"A model of the McArthur Basin.",
		"Geophysics",
		"NTGS GEMIS",
		"https://geomodels.auscope.org/model/mcarthur",
		"with identifier oai:geoscience.nt.gov.au:1/81751 on 05 Mar 2024",
	} {
		assert.Contains(t, out, want)
	}
}

func TestOAIProtocolError(t *testing.T) {
	srv := serve(t, map[string]string{"/oai": `<OAI-PMH xmlns="http://www.openarchives.org/OAI/2.0/"><error code="idDoesNotExist">No such record</error></OAI-PMH>`})
	deps := newDeps(t)

	rec := config.RecordParams{
		Common: config.Common{ModelEndpath: "mcarthur"},
		OAI:    &config.OAIParams{OAIURL: srv.URL + "/oai", OAIID: "x", OAIPrefix: "oai_dc"},
	}
	err := (&OAI{deps: deps}).WriteRecord(context.Background(), rec)
	assert.ErrorContains(t, err, "idDoesNotExist")
	assertNoOutput(t, deps)
}

type fakePDF struct {
	calls []bool
}

func (f *fakePDF) Extract(_ context.Context, _ string, filter bool, _ int) (string, error) {
	f.calls = append(f.calls, filter)
	if filter {
		return "prose only", nil
	}
	return "every page", nil
}

type fakeKeywords struct{ got string }

func (f *fakeKeywords) Extract(text string) []string {
	f.got = text
	return []string{"sedimentary rocks", "structural geology"}
}

type fakeSummarizer struct {
	got string
	err error
}

func (f *fakeSummarizer) Summarize(_ context.Context, text string) (string, error) {
	f.got = text
	return "A generated abstract.", f.err
}

func (f *fakeSummarizer) Name() string { return "a test model" }

func pdfRecord(t *testing.T) config.RecordParams {
	t.Helper()
	path := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o600))
	return config.RecordParams{
		Common: config.Common{
			Name:         "Otway report",
			ModelEndpath: "otway",
			BBox:         &snippets.BBox{West: "140.9", East: "144.0", South: "-39.2", North: "-37.5"},
		},
		Source: "vic",
		Method: config.MethodPDF,
		PDF: &config.PDFParams{
			PDFFile:      path,
			PDFURL:       "https://example.org/otway.pdf",
			Organisation: "Geological Survey of Victoria",
			Title:        "Otway 3D model",
			Cutoff:       3000,
		},
	}
}

func TestPDFRecord(t *testing.T) {
	deps := newDeps(t)
	pdf, kw, sum := &fakePDF{}, &fakeKeywords{}, &fakeSummarizer{}
	deps.PDF, deps.Keywords, deps.Summarizer = pdf, kw, sum

	require.NoError(t, (&PDF{deps: deps}).WriteRecord(context.Background(), pdfRecord(t)))

	assert.ElementsMatch(t, []bool{false, true}, pdf.calls)
	assert.Equal(t, "every page", kw.got)
	assert.Equal(t, "prose only", sum.got)

	out := string(readOutput(t, deps, "otway.xml"))
	for _, want := range []string{
		"Otway 3D model",
		"A generated abstract.",
		"sedimentary rocks",
		"structural geology",
		"CC BY 4.0",
		"https://creativecommons.org/licenses/by/4.0/",
		"https://example.org/otway.pdf",
		"3D Model Report",
		"https://geomodels.auscope.org/model/otway",
		"-37.5",
		"retrieved from https://example.org/otway.pdf on 05 Mar 2024",
		"generated by a test model",
	} {
		assert.Contains(t, out, want)
	}
	assert.False(t, strings.Contains(out, "154.3"), "configured bbox replaces the default")
}

func TestPDFErrors(t *testing.T) {
	deps := newDeps(t)
	deps.PDF, deps.Keywords = &fakePDF{}, &fakeKeywords{}
	deps.Summarizer = &fakeSummarizer{err: errors.New("model unavailable")}

	rec := pdfRecord(t)
	err := (&PDF{deps: deps}).WriteRecord(context.Background(), rec)
	assert.ErrorIs(t, err, ErrTransport)
	assertNoOutput(t, deps)

	rec.PDF.PDFFile = filepath.Join(t.TempDir(), "missing.pdf")
	assert.ErrorIs(t, (&PDF{deps: deps}).WriteRecord(context.Background(), rec), ErrMissingField)
}
