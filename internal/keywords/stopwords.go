package keywords

var stopwords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"about", "above", "after", "again", "against", "all", "also", "although", "among", "and",
		"any", "are", "around", "because", "been", "before", "being", "below", "between", "both",
		"but", "can", "could", "did", "does", "doing", "down", "due", "during", "each", "either",
		"etc", "few", "for", "from", "further", "had", "has", "have", "having", "her", "here",
		"hers", "him", "his", "how", "however", "into", "its", "itself", "just", "may", "more",
		"most", "much", "must", "near", "nor", "not", "now", "off", "once", "only", "other",
		"our", "out", "over", "own", "per", "same", "she", "should", "some", "such", "than",
		"that", "the", "their", "them", "then", "there", "these", "they", "this", "those",
		"through", "thus", "too", "under", "until", "upon", "use", "used", "using", "very",
		"via", "was", "were", "what", "when", "where", "whether", "which", "while", "who",
		"whom", "why", "will", "with", "within", "without", "would", "yet", "you", "your",
		"fig", "figure", "table", "page", "see", "shown", "within", "well", "one", "two",
		"three", "new", "based", "report",
	} {
		stopwords[w] = struct{}{}
	}
}

func isStopword(w string) bool {
	_, ok := stopwords[w]
	return ok
}
