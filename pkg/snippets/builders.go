package snippets

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/penwern/geomodel-harvest/pkg/namespaces"
	"gopkg.in/yaml.v3"
)

// BBox is a geographic bounding box in EPSG:4326 decimal degrees.
// Values are kept as text and are not range checked.
type BBox struct {
	North string `yaml:"north" json:"north"`
	South string `yaml:"south" json:"south"`
	East  string `yaml:"east" json:"east"`
	West  string `yaml:"west" json:"west"`
}

// UnmarshalYAML accepts numbers or strings for each coordinate.
func (b *BBox) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]yaml.Node
	if err := node.Decode(&raw); err != nil {
		return err
	}
	for key, val := range raw {
		if val.Kind != yaml.ScalarNode {
			return fmt.Errorf("bbox %s: expected a scalar", key)
		}
		switch key {
		case "north":
			b.North = val.Value
		case "south":
			b.South = val.Value
		case "east":
			b.East = val.Value
		case "west":
			b.West = val.Value
		default:
			return fmt.Errorf("bbox: unknown key %q", key)
		}
	}
	return nil
}

// BBoxFromFloats formats coordinates the way they are usually written in records.
func BBoxFromFloats(west, east, south, north float64) BBox {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return BBox{West: f(west), East: f(east), South: f(south), North: f(north)}
}

// Builder renders snippets for one dialect. The namespace declarations
// carried by each fragment come from its table, so a document already using
// the upgraded ISO 19115-3 namespaces gets matching fragments.
type Builder struct {
	Dialect    Dialect
	Namespaces namespaces.Table
}

// For returns a builder bound to the default table of the dialect.
func For(d Dialect) Builder {
	return Builder{Dialect: d, Namespaces: d.Table()}
}

// WithNamespaces returns a copy of the builder bound to another table.
func (b Builder) WithNamespaces(ns namespaces.Table) Builder {
	b.Namespaces = ns
	return b
}

func (b Builder) declare(prefixes ...string) string {
	var sb strings.Builder
	for _, p := range prefixes {
		fmt.Fprintf(&sb, ` xmlns:%s="%s"`, p, escape(b.Namespaces[p]))
	}
	return sb.String()
}

func (b Builder) snippet(fragment string, path []string) Snippet {
	return Snippet{Fragment: fragment, Path: path, Namespaces: b.Namespaces}
}

// Coords builds the geographic extent block.
func (b Builder) Coords(bbox BBox) Snippet {
	tmpl, decl := coords19139, b.declare("gmd", "gco")
	if b.Dialect == ISO19115_3 {
		tmpl, decl = coords19115, b.declare("mri", "gex", "gco")
	}
	frag := fmt.Sprintf(tmpl, decl, escape(bbox.West), escape(bbox.East), escape(bbox.South), escape(bbox.North))
	return b.snippet(frag, identificationPath(b.Dialect))
}

// Link builds the online resource pointing at the model web page.
func (b Builder) Link(baseURL, endpath string) Snippet {
	tmpl, decl := link19139, b.declare("gmd", "gco")
	if b.Dialect == ISO19115_3 {
		tmpl, decl = link19115, b.declare("mrd", "cit", "gco")
	}
	frag := fmt.Sprintf(tmpl, decl, escape(ModelURL(baseURL, endpath)), LinkProtocol, LinkName)
	return b.snippet(frag, transferPath(b.Dialect))
}

// Keyword builds the fixed theme keyword block.
func (b Builder) Keyword() Snippet {
	tmpl, decl := keyword19139, b.declare("gmd", "gco")
	if b.Dialect == ISO19115_3 {
		tmpl, decl = keyword19115, b.declare("mri", "gco")
	}
	return b.snippet(fmt.Sprintf(tmpl, decl, ModelKeyword), identificationPath(b.Dialect))
}

// Coords builds the extent block with the default table of d.
func Coords(d Dialect, bbox BBox) Snippet { return For(d).Coords(bbox) }

// Link builds the model link block with the default table of d.
func Link(d Dialect, baseURL, endpath string) Snippet { return For(d).Link(baseURL, endpath) }

// Keyword builds the keyword block with the default table of d.
func Keyword(d Dialect) Snippet { return For(d).Keyword() }

// ModelURL joins the base URL and a model endpath.
func ModelURL(baseURL, endpath string) string {
	if baseURL == "" {
		baseURL = DefaultModelBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return baseURL + endpath
}

const coords19139 = `<gmd:extent%[1]s>
  <gmd:EX_Extent>
    <gmd:geographicElement>
      <gmd:EX_GeographicBoundingBox>
        <gmd:westBoundLongitude>
          <gco:Decimal>%[2]s</gco:Decimal>
        </gmd:westBoundLongitude>
        <gmd:eastBoundLongitude>
          <gco:Decimal>%[3]s</gco:Decimal>
        </gmd:eastBoundLongitude>
        <gmd:southBoundLatitude>
          <gco:Decimal>%[4]s</gco:Decimal>
        </gmd:southBoundLatitude>
        <gmd:northBoundLatitude>
          <gco:Decimal>%[5]s</gco:Decimal>
        </gmd:northBoundLatitude>
      </gmd:EX_GeographicBoundingBox>
    </gmd:geographicElement>
  </gmd:EX_Extent>
</gmd:extent>`

const coords19115 = `<mri:extent%[1]s>
  <gex:EX_Extent>
    <gex:geographicElement>
      <gex:EX_GeographicBoundingBox>
        <gex:westBoundLongitude>
          <gco:Decimal>%[2]s</gco:Decimal>
        </gex:westBoundLongitude>
        <gex:eastBoundLongitude>
          <gco:Decimal>%[3]s</gco:Decimal>
        </gex:eastBoundLongitude>
        <gex:southBoundLatitude>
          <gco:Decimal>%[4]s</gco:Decimal>
        </gex:southBoundLatitude>
        <gex:northBoundLatitude>
          <gco:Decimal>%[5]s</gco:Decimal>
        </gex:northBoundLatitude>
      </gex:EX_GeographicBoundingBox>
    </gex:geographicElement>
  </gex:EX_Extent>
</mri:extent>`

const link19139 = `<gmd:onLine%[1]s>
  <gmd:CI_OnlineResource>
    <gmd:linkage>
      <gmd:URL>%[2]s</gmd:URL>
    </gmd:linkage>
    <gmd:protocol>
      <gco:CharacterString>%[3]s</gco:CharacterString>
    </gmd:protocol>
    <gmd:name>
      <gco:CharacterString>%[4]s</gco:CharacterString>
    </gmd:name>
  </gmd:CI_OnlineResource>
</gmd:onLine>`

const link19115 = `<mrd:onLine%[1]s>
  <cit:CI_OnlineResource>
    <cit:linkage>
      <gco:CharacterString>%[2]s</gco:CharacterString>
    </cit:linkage>
    <cit:protocol>
      <gco:CharacterString>%[3]s</gco:CharacterString>
    </cit:protocol>
    <cit:name>
      <gco:CharacterString>%[4]s</gco:CharacterString>
    </cit:name>
  </cit:CI_OnlineResource>
</mrd:onLine>`

const keyword19139 = `<gmd:descriptiveKeywords%[1]s>
  <gmd:MD_Keywords>
    <gmd:keyword>
      <gco:CharacterString>%[2]s</gco:CharacterString>
    </gmd:keyword>
    <gmd:type>
      <gmd:MD_KeywordTypeCode codeList="http://standards.iso.org/iso/19139/resources/gmxCodelists.xml#MD_KeywordTypeCode" codeListValue="theme"/>
    </gmd:type>
  </gmd:MD_Keywords>
</gmd:descriptiveKeywords>`

const keyword19115 = `<mri:descriptiveKeywords%[1]s>
  <mri:MD_Keywords>
    <mri:keyword>
      <gco:CharacterString>%[2]s</gco:CharacterString>
    </mri:keyword>
    <mri:type>
      <mri:MD_KeywordTypeCode codeList="http://standards.iso.org/iso/19115/resources/Codelists/cat/codelists.xml#MD_KeywordTypeCode" codeListValue="theme"/>
    </mri:type>
  </mri:MD_Keywords>
</mri:descriptiveKeywords>`
