// Package keywords picks geoscience keywords out of free text.
//
// Candidate phrases are scored on the text alone and then mapped onto the
// thesaurus categories. When nothing maps, the best raw candidates are
// returned instead so a record always gets some keywords.
package keywords

import (
	"sort"
	"strings"
	"unicode"

	"github.com/penwern/geomodel-harvest/internal/thesaurus"
	"github.com/surgebase/porter2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// DefaultTop is the number of scored candidates considered.
	DefaultTop = 500
	// DefaultFallback caps the raw candidates used when no category maps.
	DefaultFallback = 20
	minWordLength   = 3
)

// Extractor maps text onto thesaurus categories.
type Extractor struct {
	Top      int
	Fallback int

	lookup thesaurus.Lookup
	stems  map[string]string
}

// New returns an extractor over lookup. Keys are folded the same way as
// the text so accented thesaurus names still match.
func New(lookup thesaurus.Lookup) *Extractor {
	e := &Extractor{
		Top:      DefaultTop,
		Fallback: DefaultFallback,
		lookup:   make(thesaurus.Lookup, len(lookup)),
		stems:    make(map[string]string),
	}
	names := make([]string, 0, len(lookup))
	for name := range lookup {
		names = append(names, name)
	}
	// Sorted so that the stem index is the same on every run.
	sort.Strings(names)
	for _, name := range names {
		key := fold(name)
		e.lookup[key] = lookup[name]
		if !strings.Contains(key, " ") {
			stem := porter2.Stem(key)
			if _, ok := e.stems[stem]; !ok {
				e.stems[stem] = lookup[name]
			}
		}
	}
	return e
}

// Extract returns the sorted, unique keywords for text.
func (e *Extractor) Extract(text string) []string {
	top := e.Top
	if top <= 0 {
		top = DefaultTop
	}
	candidates := Candidates(text, top)

	found := make(map[string]struct{})
	for _, c := range candidates {
		if category, ok := e.match(c); ok {
			found[category] = struct{}{}
		}
	}

	if len(found) == 0 {
		n := e.Fallback
		if n <= 0 || n > len(candidates) {
			n = len(candidates)
		}
		for _, c := range candidates[:n] {
			found[c] = struct{}{}
		}
	}

	out := make([]string, 0, len(found))
	for k := range found {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// match tries the whole phrase, then each word, then each word's stem.
func (e *Extractor) match(phrase string) (string, bool) {
	if category, ok := e.lookup[phrase]; ok {
		return category, true
	}
	words := strings.Fields(phrase)
	for _, w := range words {
		if category, ok := e.lookup[w]; ok {
			return category, true
		}
	}
	for _, w := range words {
		if category, ok := e.stems[porter2.Stem(w)]; ok {
			return category, true
		}
	}
	return "", false
}

type candidate struct {
	phrase    string
	count     int
	sentences map[int]struct{}
}

// Candidates returns up to top unigrams and bigrams of text ordered by
// score. A phrase scores its frequency weighted by the share of sentences
// it appears in. Ties are broken alphabetically.
func Candidates(text string, top int) []string {
	sentences := splitSentences(fold(text))
	if len(sentences) == 0 {
		return nil
	}

	byPhrase := make(map[string]*candidate)
	add := func(phrase string, sentence int) {
		c, ok := byPhrase[phrase]
		if !ok {
			c = &candidate{phrase: phrase, sentences: make(map[int]struct{})}
			byPhrase[phrase] = c
		}
		c.count++
		c.sentences[sentence] = struct{}{}
	}

	for i, sentence := range sentences {
		for _, run := range contentRuns(sentence) {
			for j, w := range run {
				add(w, i)
				if j > 0 {
					add(run[j-1]+" "+w, i)
				}
			}
		}
	}

	total := float64(len(sentences))
	scored := make([]*candidate, 0, len(byPhrase))
	for _, c := range byPhrase {
		scored = append(scored, c)
	}
	score := func(c *candidate) float64 {
		return float64(c.count) * (float64(len(c.sentences)) / total)
	}
	sort.Slice(scored, func(a, b int) bool {
		sa, sb := score(scored[a]), score(scored[b])
		if sa != sb {
			return sa > sb
		}
		return scored[a].phrase < scored[b].phrase
	})

	if top > 0 && len(scored) > top {
		scored = scored[:top]
	}
	out := make([]string, len(scored))
	for i, c := range scored {
		out[i] = c.phrase
	}
	return out
}

// contentRuns splits a sentence into runs of consecutive content words.
// Stopwords, numbers and short words end a run.
func contentRuns(sentence string) [][]string {
	var runs [][]string
	var run []string
	flush := func() {
		if len(run) > 0 {
			runs = append(runs, run)
			run = nil
		}
	}
	for _, w := range strings.FieldsFunc(sentence, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '-' && !unicode.IsDigit(r)
	}) {
		w = strings.Trim(w, "-")
		if len([]rune(w)) < minWordLength || isStopword(w) || !isAlpha(w) {
			flush()
			continue
		}
		run = append(run, w)
	}
	flush()
	return runs
}

func splitSentences(text string) []string {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == ';' || r == '\f'
	})
	out := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

func isAlpha(w string) bool {
	for _, r := range w {
		if !unicode.IsLetter(r) && r != '-' {
			return false
		}
	}
	return true
}

// fold lower-cases s and strips combining marks.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}
