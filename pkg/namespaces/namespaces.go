// Package namespaces holds the prefix to URI tables for the ISO metadata
// dialects handled by the harvester.
package namespaces

import (
	"errors"
	"fmt"
	"maps"
	"sort"
	"strings"
)

// ErrUnknownPrefix is returned when a qualified name uses a prefix missing from a table.
var ErrUnknownPrefix = errors.New("unknown namespace prefix")

// Table maps a short namespace prefix to its namespace URI.
type Table map[string]string

// URI returns the namespace URI bound to prefix.
func (t Table) URI(prefix string) (string, error) {
	uri, ok := t[prefix]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPrefix, prefix)
	}
	return uri, nil
}

// Resolve splits a "prefix:local" name and returns its namespace URI and local name.
func (t Table) Resolve(qname string) (uri, local string, err error) {
	prefix, local, ok := strings.Cut(qname, ":")
	if !ok {
		return "", "", fmt.Errorf("%w: %q has no prefix", ErrUnknownPrefix, qname)
	}
	uri, err = t.URI(prefix)
	if err != nil {
		return "", "", err
	}
	return uri, local, nil
}

// ValidatePath checks that every entry of a qualified path resolves in the table.
func (t Table) ValidatePath(path []string) error {
	for _, qname := range path {
		if _, _, err := t.Resolve(qname); err != nil {
			return err
		}
	}
	return nil
}

// Prefixes returns the table prefixes in sorted order.
func (t Table) Prefixes() []string {
	out := make([]string, 0, len(t))
	for p := range t {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

const (
	XSI   = "http://www.w3.org/2001/XMLSchema-instance"
	XLink = "http://www.w3.org/1999/xlink"
)

// ISO19139 is the 2007 ISO 19139 table.
var ISO19139 = Table{
	"gmd":   "http://www.isotc211.org/2005/gmd",
	"gco":   "http://www.isotc211.org/2005/gco",
	"xsi":   XSI,
	"gml":   "http://www.opengis.net/gml",
	"gts":   "http://www.isotc211.org/2005/gts",
	"xlink": XLink,
}

func iso3(p, ver string) string {
	return "http://standards.iso.org/iso/19115/-3/" + p + "/" + ver
}

// ISO19115_3 is the ISO 19115-3 table with the 1.0 package versions most
// catalogues still publish.
var ISO19115_3 = Table{
	"mdb":   iso3("mdb", "1.0"),
	"cat":   iso3("cat", "1.0"),
	"gfc":   "http://standards.iso.org/iso/19110/gfc/1.1",
	"cit":   iso3("cit", "1.0"),
	"gcx":   iso3("gcx", "1.0"),
	"gex":   iso3("gex", "1.0"),
	"lan":   iso3("lan", "1.0"),
	"srv":   iso3("srv", "2.0"),
	"mas":   iso3("mas", "1.0"),
	"mcc":   iso3("mcc", "1.0"),
	"mco":   iso3("mco", "1.0"),
	"mda":   iso3("mda", "1.0"),
	"mds":   iso3("mds", "1.0"),
	"mdt":   iso3("mdt", "1.0"),
	"mex":   iso3("mex", "1.0"),
	"mmi":   iso3("mmi", "1.0"),
	"mpc":   iso3("mpc", "1.0"),
	"mrc":   iso3("mrc", "1.0"),
	"mrd":   iso3("mrd", "1.0"),
	"mri":   iso3("mri", "1.0"),
	"mrl":   iso3("mrl", "1.0"),
	"mrs":   iso3("mrs", "1.0"),
	"msr":   iso3("msr", "1.0"),
	"mdq":   "http://standards.iso.org/iso/19157/-2/mdq/1.0",
	"mac":   iso3("mac", "1.0"),
	"gco":   iso3("gco", "1.0"),
	"gml":   "http://www.opengis.net/gml/3.2",
	"xlink": XLink,
	"xsi":   XSI,
}

// Upgrades lists the ISO 19115-3 namespace URIs geonetwork expects at a
// newer package version.
var Upgrades = map[string]string{
	iso3("mdb", "1.0"): iso3("mdb", "2.0"),
	iso3("cit", "1.0"): iso3("cit", "2.0"),
	iso3("srv", "2.0"): iso3("srv", "2.1"),
	iso3("mds", "1.0"): iso3("mds", "2.0"),
	iso3("mdt", "1.0"): iso3("mdt", "2.0"),
	iso3("mrc", "1.0"): iso3("mrc", "2.0"),
	iso3("mrl", "1.0"): iso3("mrl", "2.0"),
	iso3("msr", "1.0"): iso3("msr", "2.0"),
	iso3("mac", "1.0"): iso3("mac", "2.0"),
}

// ISO19115_3v2 is ISO19115_3 after the geonetwork upgrade.
var ISO19115_3v2 = upgraded(ISO19115_3)

func upgraded(t Table) Table {
	out := maps.Clone(t)
	for p, uri := range out {
		if next, ok := Upgrades[uri]; ok {
			out[p] = next
		}
	}
	return out
}

// ForISO19115_3Root picks the 1.0 or upgraded table based on the
// namespace URI of a document's mdb:MD_Metadata root.
func ForISO19115_3Root(rootURI string) Table {
	if rootURI == ISO19115_3v2["mdb"] {
		return ISO19115_3v2
	}
	return ISO19115_3
}
