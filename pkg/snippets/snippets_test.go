package snippets

import (
	"testing"

	"github.com/lestrrat-go/libxml2/types"
	"github.com/penwern/geomodel-harvest/pkg/namespaces"
	"github.com/penwern/geomodel-harvest/pkg/xmlmerge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const iso19115Doc = `<?xml version="1.0" encoding="UTF-8"?>
<mdb:MD_Metadata xmlns:mdb="http://standards.iso.org/iso/19115/-3/mdb/1.0" xmlns:mri="http://standards.iso.org/iso/19115/-3/mri/1.0">
  <mdb:identificationInfo>
    <mri:MD_DataIdentification/>
  </mdb:identificationInfo>
</mdb:MD_Metadata>`

const iso19139Doc = `<?xml version="1.0" encoding="UTF-8"?>
<gmd:MD_Metadata xmlns:gmd="http://www.isotc211.org/2005/gmd" xmlns:gco="http://www.isotc211.org/2005/gco">
  <gmd:identificationInfo>
    <gmd:MD_DataIdentification/>
  </gmd:identificationInfo>
</gmd:MD_Metadata>`

func parseRoot(t *testing.T, src string) types.Node {
	t.Helper()
	doc, err := xmlmerge.Parse([]byte(src), xmlmerge.ParseStrict)
	require.NoError(t, err)
	t.Cleanup(doc.Free)
	root, err := xmlmerge.Root(doc)
	require.NoError(t, err)
	return root
}

func texts(t *testing.T, n types.Node, expr string, ns namespaces.Table) []string {
	t.Helper()
	got, err := xmlmerge.Text(n, expr, ns)
	require.NoError(t, err)
	return got
}

func TestCoordsISO19115_3(t *testing.T) {
	root := parseRoot(t, iso19115Doc)
	bbox := BBox{North: "-10.0", South: "-20.0", East: "-30.0", West: "-40.0"}

	require.NoError(t, Coords(ISO19115_3, bbox).Apply(root))

	base := "/mdb:MD_Metadata/mdb:identificationInfo/mri:MD_DataIdentification/mri:extent/gex:EX_Extent" +
		"/gex:geographicElement/gex:EX_GeographicBoundingBox/"
	ns := namespaces.ISO19115_3
	for elem, want := range map[string]string{
		"gex:westBoundLongitude": "-40.0",
		"gex:eastBoundLongitude": "-30.0",
		"gex:southBoundLatitude": "-20.0",
		"gex:northBoundLatitude": "-10.0",
	} {
		assert.Equal(t, []string{want}, texts(t, root, base+elem+"/gco:Decimal", ns), elem)
	}
}

func TestCoordsISO19139(t *testing.T) {
	root := parseRoot(t, iso19139Doc)

	require.NoError(t, Coords(ISO19139, BBoxFromFloats(138.5, 139.25, -33, -31.75)).Apply(root))

	base := "//gmd:MD_DataIdentification/gmd:extent/gmd:EX_Extent/gmd:geographicElement/gmd:EX_GeographicBoundingBox/"
	ns := namespaces.ISO19139
	assert.Equal(t, []string{"138.5"}, texts(t, root, base+"gmd:westBoundLongitude/gco:Decimal", ns))
	assert.Equal(t, []string{"139.25"}, texts(t, root, base+"gmd:eastBoundLongitude/gco:Decimal", ns))
	assert.Equal(t, []string{"-33"}, texts(t, root, base+"gmd:southBoundLatitude/gco:Decimal", ns))
	assert.Equal(t, []string{"-31.75"}, texts(t, root, base+"gmd:northBoundLatitude/gco:Decimal", ns))
}

func TestKeyword(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		doc     string
		expr    string
	}{
		{"iso19139", ISO19139, iso19139Doc, "//gmd:MD_DataIdentification/gmd:descriptiveKeywords/gmd:MD_Keywords/gmd:keyword/gco:CharacterString"},
		{"iso19115-3", ISO19115_3, iso19115Doc, "//mri:MD_DataIdentification/mri:descriptiveKeywords/mri:MD_Keywords/mri:keyword/gco:CharacterString"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := parseRoot(t, tt.doc)
			require.NoError(t, Keyword(tt.dialect).Apply(root))
			assert.Equal(t, []string{ModelKeyword}, texts(t, root, tt.expr, tt.dialect.Table()))
		})
	}
}

func TestLink(t *testing.T) {
	t.Run("iso19139", func(t *testing.T) {
		root := parseRoot(t, iso19139Doc)
		require.NoError(t, Link(ISO19139, "", "mymodel").Apply(root))

		got := texts(t, root, "/gmd:MD_Metadata/gmd:distributionInfo/gmd:MD_Distribution/gmd:transferOptions"+
			"/gmd:MD_DigitalTransferOptions/gmd:onLine/gmd:CI_OnlineResource/gmd:linkage/gmd:URL", namespaces.ISO19139)
		assert.Equal(t, []string{"https://geomodels.auscope.org/model/mymodel"}, got)
	})

	t.Run("iso19115-3", func(t *testing.T) {
		root := parseRoot(t, iso19115Doc)
		require.NoError(t, Link(ISO19115_3, "https://example.org/models", "mymodel").Apply(root))

		got := texts(t, root, "//mrd:MD_DigitalTransferOptions/mrd:onLine/cit:CI_OnlineResource/cit:linkage/gco:CharacterString",
			namespaces.ISO19115_3)
		assert.Equal(t, []string{"https://example.org/models/mymodel"}, got)
	})
}

func TestSnippetsShareCreatedIdentification(t *testing.T) {
	root := parseRoot(t, `<mdb:MD_Metadata xmlns:mdb="http://standards.iso.org/iso/19115/-3/mdb/1.0">
  <mdb:metadataIdentifier/>
</mdb:MD_Metadata>`)
	bbox := BBox{North: "-10", South: "-20", East: "140", West: "130"}

	require.NoError(t, Coords(ISO19115_3, bbox).Apply(root))
	require.NoError(t, Keyword(ISO19115_3).Apply(root))
	require.NoError(t, Keyword(ISO19115_3).Apply(root))

	ns := namespaces.ISO19115_3
	count := func(expr string) int {
		n, err := xmlmerge.Count(root, expr, ns)
		require.NoError(t, err)
		return n
	}
	assert.Equal(t, 1, count("//mdb:identificationInfo"))
	assert.Equal(t, 1, count("//mri:MD_DataIdentification"))
	assert.Equal(t, 1, count("//mri:MD_DataIdentification/mri:extent"))
	assert.Equal(t, 2, count("//mri:MD_DataIdentification/mri:descriptiveKeywords"))
}

func TestBuilderUsesTableURIs(t *testing.T) {
	s := For(ISO19115_3).WithNamespaces(namespaces.ISO19115_3v2).Keyword()
	assert.Contains(t, s.Fragment, `xmlns:mri="`+namespaces.ISO19115_3v2["mri"]+`"`)
	assert.Equal(t, namespaces.ISO19115_3v2, s.Namespaces)
}

func TestSnippetEscapesValues(t *testing.T) {
	s := Link(ISO19139, "https://example.org/?a=1&b=2", "m")
	assert.Contains(t, s.Fragment, "a=1&amp;b=2/m")
}

func TestModelURL(t *testing.T) {
	assert.Equal(t, DefaultModelBaseURL+"x", ModelURL("", "x"))
	assert.Equal(t, "http://h/p/x", ModelURL("http://h/p", "x"))
	assert.Equal(t, "http://h/p/x", ModelURL("http://h/p/", "x"))
}

func TestParseDialect(t *testing.T) {
	d, err := ParseDialect("iso19115-3")
	require.NoError(t, err)
	assert.Equal(t, ISO19115_3, d)
	assert.Equal(t, "ISO19115-3", d.String())

	d, err = ParseDialect(" ISO19139 ")
	require.NoError(t, err)
	assert.Equal(t, ISO19139, d)

	_, err = ParseDialect("ISO19115-2")
	assert.Error(t, err)
}

func TestBBoxYAML(t *testing.T) {
	var b BBox
	require.NoError(t, yaml.Unmarshal([]byte("north: -10.5\nsouth: \"-20\"\neast: 140\nwest: 129.0\n"), &b))
	assert.Equal(t, BBox{North: "-10.5", South: "-20", East: "140", West: "129.0"}, b)

	assert.Error(t, yaml.Unmarshal([]byte("top: 1\n"), &b))
	assert.Error(t, yaml.Unmarshal([]byte("north: [1, 2]\n"), &b))
}
