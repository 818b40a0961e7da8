// Package snippets builds the XML fragments injected into harvested records,
// together with the qualified path and namespace table for each dialect.
package snippets

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/lestrrat-go/libxml2/types"
	"github.com/penwern/geomodel-harvest/pkg/namespaces"
	"github.com/penwern/geomodel-harvest/pkg/xmlmerge"
)

const (
	// DefaultModelBaseURL prefixes a model's endpath in the injected link.
	DefaultModelBaseURL = "https://geomodels.auscope.org/model/"
	// ModelKeyword is the fixed descriptive keyword.
	ModelKeyword = "AuScope 3D Geological Models"
	LinkProtocol = "WWW:LINK-1.0-http--link"
	LinkName     = "3D Geological Model"
)

// Dialect is a supported ISO metadata encoding.
type Dialect int

const (
	ISO19139 Dialect = iota
	ISO19115_3
)

func (d Dialect) String() string {
	if d == ISO19115_3 {
		return "ISO19115-3"
	}
	return "ISO19139"
}

// ParseDialect accepts "ISO19139" or "ISO19115-3" in any case.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ISO19139":
		return ISO19139, nil
	case "ISO19115-3":
		return ISO19115_3, nil
	}
	return 0, fmt.Errorf("unsupported ISO dialect %q", s)
}

// Table returns the default namespace table of the dialect.
func (d Dialect) Table() namespaces.Table {
	if d == ISO19115_3 {
		return namespaces.ISO19115_3
	}
	return namespaces.ISO19139
}

// Snippet is a fragment ready to be merged.
type Snippet struct {
	Fragment   string
	Path       []string
	Namespaces namespaces.Table
}

// Apply merges the snippet into the document rooted at root.
func (s Snippet) Apply(root types.Node) error {
	return xmlmerge.Merge(root, s.Fragment, s.Path, s.Namespaces)
}

var (
	identificationPath19139 = []string{"gmd:MD_Metadata", "gmd:identificationInfo", "gmd:MD_DataIdentification", "gmd:BLAH"}
	identificationPath19115 = []string{"mdb:MD_Metadata", "mdb:identificationInfo", "mri:MD_DataIdentification", "mri:BLAH"}

	transferPath19139 = []string{"gmd:MD_Metadata", "gmd:distributionInfo", "gmd:MD_Distribution", "gmd:transferOptions",
		"gmd:MD_DigitalTransferOptions", "gmd:BLAH"}
	transferPath19115 = []string{"mdb:MD_Metadata", "mdb:distributionInfo", "mrd:MD_Distribution", "mrd:transferOptions",
		"mrd:MD_DigitalTransferOptions", "mrd:BLAH"}
)

func identificationPath(d Dialect) []string {
	if d == ISO19115_3 {
		return clone(identificationPath19115)
	}
	return clone(identificationPath19139)
}

func transferPath(d Dialect) []string {
	if d == ISO19115_3 {
		return clone(transferPath19115)
	}
	return clone(transferPath19139)
}

func clone(s []string) []string { return append([]string(nil), s...) }

func escape(s string) string {
	var b bytes.Buffer
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
