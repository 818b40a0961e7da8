// Package metadata maps flat descriptive metadata onto ISO 19115-3 records.
package metadata

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/penwern/geomodel-harvest/pkg/iso19115"
)

// DublinCore represents the Dublin Core metadata of one OAI-PMH record.
// Every element may repeat.
type DublinCore struct {
	Title       []string `json:"dc.title,omitempty"`
	Creator     []string `json:"dc.creator,omitempty"`
	Subject     []string `json:"dc.subject,omitempty"`
	Description []string `json:"dc.description,omitempty"`
	Publisher   []string `json:"dc.publisher,omitempty"`
	Contributor []string `json:"dc.contributor,omitempty"`
	Date        []string `json:"dc.date,omitempty"`
	Type        []string `json:"dc.type,omitempty"`
	Format      []string `json:"dc.format,omitempty"`
	Identifier  []string `json:"dc.identifier,omitempty"`
	Source      []string `json:"dc.source,omitempty"`
	Language    []string `json:"dc.language,omitempty"`
	Relation    []string `json:"dc.relation,omitempty"`
	Coverage    []string `json:"dc.coverage,omitempty"`
	Rights      []string `json:"dc.rights,omitempty"`
}

// FromMap builds a DublinCore from element local names to values, as
// returned by an OAI-PMH GetRecord with the oai_dc prefix. Unknown
// elements are ignored.
func FromMap(m map[string][]string) DublinCore {
	clean := func(key string) []string {
		var out []string
		for _, v := range m[key] {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
		return out
	}
	return DublinCore{
		Title:       clean("title"),
		Creator:     clean("creator"),
		Subject:     clean("subject"),
		Description: clean("description"),
		Publisher:   clean("publisher"),
		Contributor: clean("contributor"),
		Date:        clean("date"),
		Type:        clean("type"),
		Format:      clean("format"),
		Identifier:  clean("identifier"),
		Source:      clean("source"),
		Language:    clean("language"),
		Relation:    clean("relation"),
		Coverage:    clean("coverage"),
		Rights:      clean("rights"),
	}
}

// AsJSON returns the metadata as indented JSON.
func (dc DublinCore) AsJSON() ([]byte, error) {
	jsonData, err := json.MarshalIndent(dc, "", "  ")
	if err != nil {
		return []byte{}, fmt.Errorf("error marshaling JSON: %w", err)
	}
	return jsonData, nil
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05Z", "2006-01-02", "2006-01", "2006"}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func first(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}

// Record maps the metadata onto an ISO record. The earliest parseable date
// becomes the creation date and the latest the publication date. HTTP
// identifiers become distributions.
func (dc DublinCore) Record() iso19115.Record {
	rec := iso19115.Record{
		Title:    first(dc.Title),
		Abstract: strings.Join(dc.Description, "\n\n"),
		Rights:   first(dc.Rights),
	}

	rec.Organisation = first(dc.Publisher)
	if rec.Organisation == "" {
		rec.Organisation = first(dc.Creator)
	}

	var dates []time.Time
	for _, d := range dc.Date {
		if t, ok := parseDate(d); ok {
			dates = append(dates, t)
		}
	}
	if len(dates) > 0 {
		slices.SortFunc(dates, func(a, b time.Time) int { return a.Compare(b) })
		rec.Created, rec.Published = dates[0], dates[len(dates)-1]
	}

	seen := map[string]bool{}
	for _, s := range dc.Subject {
		key := strings.ToLower(s)
		if !seen[key] {
			seen[key] = true
			rec.Keywords = append(rec.Keywords, s)
		}
	}

	for _, id := range dc.Identifier {
		if strings.HasPrefix(id, "http://") || strings.HasPrefix(id, "https://") {
			if rec.DatasetURI == "" {
				rec.DatasetURI = id
			}
			rec.Distributions = append(rec.Distributions, iso19115.Distribution{
				URL:         id,
				Protocol:    "WWW:LINK",
				Name:        first(dc.Title),
				Description: "Catalogue record",
				Function:    "information",
			})
		}
	}
	return rec
}
