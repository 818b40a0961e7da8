// Package summary generates record abstracts from report text.
package summary

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/penwern/geomodel-harvest/pkg/config"
	"github.com/penwern/geomodel-harvest/pkg/logger"
	"github.com/penwern/geomodel-harvest/pkg/utils"
)

const (
	ProviderLead    = "lead"
	ProviderOllama  = "ollama"
	ProviderBedrock = "bedrock"
)

// Summarizer turns a long text into a short abstract.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
	// Name is written into the record lineage.
	Name() string
}

// New returns the summarizer selected by cfg.Summary.Provider.
func New(ctx context.Context, cfg *config.Config, hc *utils.HTTPClient) (Summarizer, error) {
	switch strings.ToLower(cfg.Summary.Provider) {
	case "", ProviderLead:
		return Lead{Sentences: DefaultLeadSentences}, nil
	case ProviderOllama:
		return NewOllama(hc, cfg.Ollama.URL, cfg.Ollama.Model), nil
	case ProviderBedrock:
		return NewBedrock(ctx, cfg.Bedrock.Region, cfg.Bedrock.ModelID)
	}
	return nil, fmt.Errorf("unknown summary provider %q", cfg.Summary.Provider)
}

// DefaultLeadSentences is the length of a Lead summary.
const DefaultLeadSentences = 3

var sentenceEnd = regexp.MustCompile(`[.!?]["')\]]?\s+`)

// Lead summarises by taking the opening sentences of the text.
type Lead struct {
	Sentences int
}

func (l Lead) Name() string { return "extracting the leading sentences of the report" }

// Summarize implements Summarizer.
func (l Lead) Summarize(_ context.Context, text string) (string, error) {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return "", nil
	}
	n := l.Sentences
	if n <= 0 {
		n = DefaultLeadSentences
	}
	ends := sentenceEnd.FindAllStringIndex(text, n)
	if len(ends) < n {
		return text, nil
	}
	return strings.TrimSpace(text[:ends[n-1][1]]), nil
}

var thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

// clean drops reasoning blocks some models emit ahead of their answer.
func clean(s string) string {
	s = thinkBlock.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func prompt(text string) string {
	return "Summarize the following text:\n" + text
}

func truncate(text string, max int) string {
	if max <= 0 || len(text) <= max {
		return text
	}
	logger.Debug("Truncating summary input from %d to %d bytes", len(text), max)
	return strings.ToValidUTF8(text[:max], "")
}
