// Package iso19115 renders harvested metadata as ISO 19115-3 XML records.
// The document structures below cover the subset of the standard used for
// 3D geological model records.
package iso19115

import (
	"encoding/xml"
	"fmt"
	"time"

	"github.com/penwern/geomodel-harvest/pkg/logger"
	"github.com/penwern/geomodel-harvest/pkg/namespaces"
	"github.com/penwern/geomodel-harvest/pkg/snippets"
)

const (
	codeListBase = "https://schemas.isotc211.org/19115/resources/Codelists/cat/codelists.xml#"
	schemaLoc    = "http://standards.iso.org/iso/19115/-3/mds/2.0 https://schemas.isotc211.org/19115/-3/mds/2.0/mds.xsd"

	// TopicCategory is the only ISO topic category used by model records.
	TopicCategory = "geoscientificInformation"
	dateTimeFmt   = "2006-01-02T15:04:05"
)

// DefaultBBox is used when a source carries no usable extent. The four
// values are written as west, east, south, north in that order.
var DefaultBBox = snippets.BBox{West: "154.3", East: "109.1", South: "-43.9", North: "-10.6"}

// Distribution is one online resource attached to a record.
type Distribution struct {
	URL         string
	Protocol    string
	Name        string
	Description string
	Function    string // CI_OnLineFunctionCode, e.g. download or website
}

// Record is the source independent content of a generated record.
type Record struct {
	Identifier    string
	Title         string
	Abstract      string
	Organisation  string
	Created       time.Time
	Published     time.Time
	Datestamp     time.Time
	DatasetURI    string
	Keywords      []string
	BBox          snippets.BBox
	Distributions []Distribution
	Rights        string
	RightsURL     string
	Lineage       string
}

// WebsiteDistribution returns the link to a model page.
func WebsiteDistribution(baseURL, endpath string) Distribution {
	return Distribution{
		URL:         snippets.ModelURL(baseURL, endpath),
		Protocol:    "WWW:LINK",
		Name:        "3D Geological model website",
		Description: "3D Geological model website",
		Function:    "website",
	}
}

type charString struct {
	Value string `xml:"gco:CharacterString"`
}

func cs(s string) *charString {
	if s == "" {
		return nil
	}
	return &charString{Value: s}
}

type codeValue struct {
	CodeList string `xml:"codeList,attr"`
	Value    string `xml:"codeListValue,attr"`
}

func code(list, value string) *codeValue {
	return &codeValue{CodeList: codeListBase + list, Value: value}
}

type decimal struct {
	Value string `xml:"gco:Decimal"`
}

// Metadata is the mdb:MD_Metadata root.
type Metadata struct {
	XMLName xml.Name `xml:"mdb:MD_Metadata"`
	MDB     string   `xml:"xmlns:mdb,attr"`
	CIT     string   `xml:"xmlns:cit,attr"`
	GCO     string   `xml:"xmlns:gco,attr"`
	GEX     string   `xml:"xmlns:gex,attr"`
	LAN     string   `xml:"xmlns:lan,attr"`
	MCC     string   `xml:"xmlns:mcc,attr"`
	MCO     string   `xml:"xmlns:mco,attr"`
	MRD     string   `xml:"xmlns:mrd,attr"`
	MRI     string   `xml:"xmlns:mri,attr"`
	MRL     string   `xml:"xmlns:mrl,attr"`
	XSI     string   `xml:"xmlns:xsi,attr"`
	Schema  string   `xml:"xsi:schemaLocation,attr"`

	Identifier     *charString     `xml:"mdb:metadataIdentifier>mcc:MD_Identifier>mcc:code"`
	Locale         Locale          `xml:"mdb:defaultLocale>lan:PT_Locale"`
	Scope          *codeValue      `xml:"mdb:metadataScope>mdb:MD_MetadataScope>mdb:resourceScope>mcc:MD_ScopeCode"`
	Contact        *Responsibility `xml:"mdb:contact>cit:CI_Responsibility"`
	DateInfo       []dateEntry     `xml:"mdb:dateInfo"`
	Standard       Citation        `xml:"mdb:metadataStandard>cit:CI_Citation"`
	Linkage        *OnlineResource `xml:"mdb:metadataLinkage>cit:CI_OnlineResource,omitempty"`
	Identification Identification  `xml:"mdb:identificationInfo>mri:MD_DataIdentification"`
	Distribution   *Distributions  `xml:"mdb:distributionInfo>mrd:MD_Distribution,omitempty"`
	Lineage        *Lineage        `xml:"mdb:resourceLineage>mrl:LI_Lineage,omitempty"`
}

// Locale is a lan:PT_Locale.
type Locale struct {
	Language *codeValue `xml:"lan:language>lan:LanguageCode"`
	Encoding *codeValue `xml:"lan:characterEncoding>lan:MD_CharacterSetCode"`
}

// Responsibility is a cit:CI_Responsibility naming an organisation.
type Responsibility struct {
	Role         *codeValue  `xml:"cit:role>cit:CI_RoleCode"`
	Organisation *charString `xml:"cit:party>cit:CI_Organisation>cit:name"`
}

// CIDate is a cit:CI_Date.
type CIDate struct {
	DateTime string     `xml:"cit:date>gco:DateTime"`
	Type     *codeValue `xml:"cit:dateType>cit:CI_DateTypeCode"`
}

// Repeated ISO property elements wrap exactly one object each.
type dateEntry struct {
	Date CIDate `xml:"cit:CI_Date"`
}

type keywordEntry struct {
	Keywords Keywords `xml:"mri:MD_Keywords"`
}

type onLine struct {
	Resource OnlineResource `xml:"cit:CI_OnlineResource"`
}

// Citation is a cit:CI_Citation.
type Citation struct {
	Title    *charString     `xml:"cit:title"`
	Dates    []dateEntry     `xml:"cit:date"`
	Edition  *charString     `xml:"cit:edition,omitempty"`
	Resource *OnlineResource `xml:"cit:onlineResource>cit:CI_OnlineResource,omitempty"`
}

// OnlineResource is a cit:CI_OnlineResource.
type OnlineResource struct {
	Linkage     *charString `xml:"cit:linkage"`
	Protocol    *charString `xml:"cit:protocol,omitempty"`
	Name        *charString `xml:"cit:name,omitempty"`
	Description *charString `xml:"cit:description,omitempty"`
	Function    *codeValue  `xml:"cit:function>cit:CI_OnLineFunctionCode,omitempty"`
}

// Identification is the mri:MD_DataIdentification block.
type Identification struct {
	Citation      Citation         `xml:"mri:citation>cit:CI_Citation"`
	Abstract      *charString      `xml:"mri:abstract"`
	Status        *codeValue       `xml:"mri:status>mcc:MD_ProgressCode"`
	TopicCategory string           `xml:"mri:topicCategory>mri:MD_TopicCategoryCode"`
	Extent        BoundingBox      `xml:"mri:extent>gex:EX_Extent>gex:geographicElement>gex:EX_GeographicBoundingBox"`
	Keywords      []keywordEntry   `xml:"mri:descriptiveKeywords"`
	Constraints   *LegalConstraint `xml:"mri:resourceConstraints>mco:MD_LegalConstraints,omitempty"`
	Locale        Locale           `xml:"mri:defaultLocale>lan:PT_Locale"`
}

// BoundingBox is a gex:EX_GeographicBoundingBox.
type BoundingBox struct {
	West  decimal `xml:"gex:westBoundLongitude"`
	East  decimal `xml:"gex:eastBoundLongitude"`
	South decimal `xml:"gex:southBoundLatitude"`
	North decimal `xml:"gex:northBoundLatitude"`
}

// Keywords is one mri:MD_Keywords group.
type Keywords struct {
	Keyword []charString `xml:"mri:keyword"`
	Type    *codeValue   `xml:"mri:type>mri:MD_KeywordTypeCode,omitempty"`
}

// LegalConstraint holds the licence of the described resource.
type LegalConstraint struct {
	Reference Citation   `xml:"mco:reference>cit:CI_Citation"`
	Access    *codeValue `xml:"mco:accessConstraints>mco:MD_RestrictionCode"`
}

// Distributions is the mrd:MD_Distribution block.
type Distributions struct {
	OnLine []onLine `xml:"mrd:transferOptions>mrd:MD_DigitalTransferOptions>mrd:onLine"`
}

// Lineage is the mrl:LI_Lineage block.
type Lineage struct {
	Statement *charString `xml:"mrl:statement"`
	Scope     *codeValue  `xml:"mrl:scope>mcc:MD_Scope>mcc:level>mcc:MD_ScopeCode"`
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFmt)
}

func locale() Locale {
	return Locale{
		Language: code("LanguageCode", "eng"),
		Encoding: code("MD_CharacterSetCode", "utf8"),
	}
}

// Build converts a record into its document structure.
func Build(rec Record) Metadata {
	ns := namespaces.ISO19115_3v2
	m := Metadata{
		MDB:    ns["mdb"],
		CIT:    ns["cit"],
		GCO:    ns["gco"],
		GEX:    ns["gex"],
		LAN:    ns["lan"],
		MCC:    ns["mcc"],
		MCO:    ns["mco"],
		MRD:    ns["mrd"],
		MRI:    ns["mri"],
		MRL:    ns["mrl"],
		XSI:    namespaces.XSI,
		Schema: schemaLoc,

		Identifier: cs(rec.Identifier),
		Locale:     locale(),
		Scope:      code("MD_ScopeCode", "dataset"),
		Standard: Citation{
			Title:   cs("ISO 19115-3"),
			Edition: cs("2018"),
		},
	}
	if rec.Organisation != "" {
		m.Contact = &Responsibility{
			Role:         code("CI_RoleCode", "distributor"),
			Organisation: cs(rec.Organisation),
		}
	}
	if ds := formatDate(rec.Datestamp); ds != "" {
		m.DateInfo = append(m.DateInfo, dateEntry{CIDate{DateTime: ds, Type: code("CI_DateTypeCode", "revision")}})
	}
	if rec.DatasetURI != "" {
		m.Linkage = &OnlineResource{Linkage: cs(rec.DatasetURI), Function: code("CI_OnLineFunctionCode", "completeMetadata")}
	}

	id := &m.Identification
	id.Citation.Title = cs(rec.Title)
	for _, d := range []struct {
		t    time.Time
		kind string
	}{{rec.Created, "creation"}, {rec.Published, "publication"}} {
		if s := formatDate(d.t); s != "" {
			id.Citation.Dates = append(id.Citation.Dates, dateEntry{CIDate{DateTime: s, Type: code("CI_DateTypeCode", d.kind)}})
		}
	}
	id.Abstract = cs(rec.Abstract)
	id.Status = code("MD_ProgressCode", "completed")
	id.TopicCategory = TopicCategory

	bbox := rec.BBox
	if bbox == (snippets.BBox{}) {
		bbox = DefaultBBox
	}
	id.Extent = BoundingBox{
		West:  decimal{bbox.West},
		East:  decimal{bbox.East},
		South: decimal{bbox.South},
		North: decimal{bbox.North},
	}

	if len(rec.Keywords) > 0 {
		free := Keywords{}
		for _, kw := range rec.Keywords {
			free.Keyword = append(free.Keyword, charString{Value: kw})
		}
		id.Keywords = append(id.Keywords, keywordEntry{free})
	}
	id.Keywords = append(id.Keywords, keywordEntry{Keywords{
		Keyword: []charString{{Value: snippets.ModelKeyword}},
		Type:    code("MD_KeywordTypeCode", "theme"),
	}})

	if rec.Rights != "" {
		lc := &LegalConstraint{
			Reference: Citation{Title: cs(rec.Rights)},
			Access:    code("MD_RestrictionCode", "license"),
		}
		if rec.RightsURL != "" {
			lc.Reference.Resource = &OnlineResource{Linkage: cs(rec.RightsURL)}
		}
		id.Constraints = lc
	}
	id.Locale = locale()

	if len(rec.Distributions) > 0 {
		dist := &Distributions{}
		for _, d := range rec.Distributions {
			or := OnlineResource{
				Linkage:     cs(d.URL),
				Protocol:    cs(d.Protocol),
				Name:        cs(d.Name),
				Description: cs(d.Description),
			}
			if d.Function != "" {
				or.Function = code("CI_OnLineFunctionCode", d.Function)
			}
			dist.OnLine = append(dist.OnLine, onLine{or})
		}
		m.Distribution = dist
	}

	if rec.Lineage != "" {
		m.Lineage = &Lineage{Statement: cs(rec.Lineage), Scope: code("MD_ScopeCode", "dataset")}
	}
	return m
}

// Render marshals the record to indented XML with a declaration.
func Render(rec Record) ([]byte, error) {
	xmlData, err := xml.MarshalIndent(Build(rec), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("error marshaling ISO 19115-3 record: %w", err)
	}
	logger.Debug("Rendered ISO 19115-3 record %s (%d bytes)", rec.Identifier, len(xmlData))
	return append([]byte(xml.Header), xmlData...), nil
}
