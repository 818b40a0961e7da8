// Package thesaurus loads the USGS thesaurus and maps its terms onto broad
// keyword categories.
//
// The thesaurus is a tree of terms rooted at code 1. A term is mapped to its
// ancestor three levels below the root, so that "sandstone" becomes the name
// of the category containing it rather than a near synonym.
package thesaurus

import (
	"context"
	"fmt"

	"github.com/penwern/geomodel-harvest/pkg/logger"
)

// RootCode is the code of the thesaurus root term.
const RootCode int64 = 1

// excluded categories are too broad to be useful keywords.
var excluded = map[string]bool{
	"chemical elements":       true,
	"chemical element groups": true,
}

// Term is one row of the USGS thesaurus term table.
type Term struct {
	Code   int64  `yaml:"code"`
	Name   string `yaml:"name"`
	Parent *int64 `yaml:"parent"`
}

// Store provides thesaurus terms.
type Store interface {
	Terms(ctx context.Context) ([]Term, error)
}

// Lookup maps a term name to its keyword category.
type Lookup map[string]string

// BuildLookup computes the keyword category of every term. Terms too close
// to the root, terms whose ancestry is broken, and terms under an excluded
// category are left out. Later duplicates of a name win.
func BuildLookup(terms []Term) Lookup {
	parents := make(map[int64]*int64, len(terms))
	names := make(map[int64]string, len(terms))
	for _, t := range terms {
		parents[t.Code] = t.Parent
		names[t.Code] = t.Name
	}

	lookup := make(Lookup)
	for _, t := range terms {
		child, gchild, ggchild := int64(-1), int64(-1), int64(-1)
		parent := t.Parent
		broken := false
		for parent != nil && *parent != RootCode {
			ggchild, gchild, child = gchild, child, *parent
			next, ok := parents[*parent]
			if !ok {
				broken = true
				break
			}
			parent = next
		}
		if broken {
			continue
		}
		category, ok := names[ggchild]
		if !ok || excluded[category] {
			continue
		}
		lookup[t.Name] = category
	}
	return lookup
}

// Load reads every term from store and builds the lookup.
func Load(ctx context.Context, store Store) (Lookup, error) {
	terms, err := store.Terms(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading thesaurus terms: %w", err)
	}
	lookup := BuildLookup(terms)
	logger.Info("Loaded %d thesaurus terms, %d mapped to keywords", len(terms), len(lookup))
	return lookup, nil
}
