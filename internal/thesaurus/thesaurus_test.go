package thesaurus

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func p(v int64) *int64 { return &v }

// A small tree:
//
//	1 root
//	└─ 2 sciences
//	   └─ 3 earth sciences
//	      └─ 4 geology
//	         └─ 5 petrology
//	            └─ 6 sandstone
//	   └─ 7 chemistry
//	      └─ 8 chemical elements
//	         └─ 9 metals
//	            └─ 10 copper
var sampleTerms = []Term{
	{Code: 1, Name: "root"},
	{Code: 2, Name: "sciences", Parent: p(1)},
	{Code: 3, Name: "earth sciences", Parent: p(2)},
	{Code: 4, Name: "geology", Parent: p(3)},
	{Code: 5, Name: "petrology", Parent: p(4)},
	{Code: 6, Name: "sandstone", Parent: p(5)},
	{Code: 7, Name: "chemistry", Parent: p(2)},
	{Code: 8, Name: "chemical elements", Parent: p(7)},
	{Code: 9, Name: "metals", Parent: p(8)},
	{Code: 10, Name: "copper", Parent: p(9)},
	{Code: 11, Name: "orphan", Parent: p(99)},
}

func TestBuildLookup(t *testing.T) {
	lookup := BuildLookup(sampleTerms)

	assert.Equal(t, "geology", lookup["petrology"])
	assert.Equal(t, "geology", lookup["sandstone"])

	_, ok := lookup["copper"]
	assert.False(t, ok, "excluded category")
	assert.NotContains(t, lookup, "metals", "excluded category")
	assert.NotContains(t, lookup, "geology", "too close to the root")
	assert.NotContains(t, lookup, "earth sciences", "too close to the root")
	assert.NotContains(t, lookup, "sciences")
	assert.NotContains(t, lookup, "orphan")
	assert.NotContains(t, lookup, "root")
}

func TestLoad(t *testing.T) {
	lookup, err := Load(context.Background(), StaticStore(sampleTerms))
	require.NoError(t, err)
	assert.Equal(t, "geology", lookup["sandstone"])
}

type failingStore struct{}

func (failingStore) Terms(context.Context) ([]Term, error) { return nil, errors.New("boom") }

func TestLoadError(t *testing.T) {
	_, err := Load(context.Background(), failingStore{})
	assert.ErrorContains(t, err, "boom")
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "terms.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- {code: 1, name: root}
- {code: 2, name: a, parent: 1}
- {code: 3, name: b, parent: 2}
- {code: 4, name: c, parent: 3}
- {code: 5, name: d, parent: 4}
`), 0o600))

	terms, err := FileStore{Path: path}.Terms(context.Background())
	require.NoError(t, err)
	require.Len(t, terms, 5)
	assert.Nil(t, terms[0].Parent)

	assert.Equal(t, Lookup{"d": "c"}, BuildLookup(terms))
}
