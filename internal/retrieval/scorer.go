// Package retrieval selects the chunks supplied as generator context.
// Everything here is a pure function over an immutable chunk sequence:
// scoring and selection never touch storage and never error.
package retrieval

import (
	"sort"
	"strings"

	"studyassist/internal/store"
)

// NotAvailableText is the fixed sentinel returned when a document has no
// chunks at all or no content matches a question.
const NotAvailableText = "This topic is not available in the uploaded document."

// Keywords tokenizes a free-text query: lower-cased, whitespace-split, tokens
// longer than 3 characters. No deduplication; a repeated keyword inflates its
// own weight, which is accepted behavior.
func Keywords(query string) []string {
	var keywords []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		if len(w) > 3 {
			keywords = append(keywords, w)
		}
	}
	return keywords
}

// Score sums the case-insensitive substring occurrences of each keyword in
// text. There is no word-boundary anchoring: "rain" matches inside
// "brainstorm". A query with no keywords scores 0 against any text.
func Score(keywords []string, text string) int {
	lower := strings.ToLower(text)
	score := 0
	for _, kw := range keywords {
		score += strings.Count(lower, kw)
	}
	return score
}

// ScoredChunk pairs a chunk with its relevance score for a query.
type ScoredChunk struct {
	store.Chunk
	Score int
}

// Rank scores every chunk against the query and sorts descending by score.
// The sort is stable: equal scores keep their original page/index order.
func Rank(chunks []store.Chunk, query string) []ScoredChunk {
	keywords := Keywords(query)
	scored := make([]ScoredChunk, len(chunks))
	for i, c := range chunks {
		scored[i] = ScoredChunk{Chunk: c, Score: Score(keywords, c.ParagraphText)}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}

// TopRelevant returns up to topN chunks with a strictly positive score,
// ranked by relevance. When nothing matches it falls back to the first
// fallbackN chunks in original document order, so retrieval never returns
// an empty selection for a non-empty document.
func TopRelevant(chunks []store.Chunk, query string, topN, fallbackN int) []store.Chunk {
	scored := Rank(chunks, query)

	var relevant []store.Chunk
	for _, sc := range scored[:min(topN, len(scored))] {
		if sc.Score > 0 {
			relevant = append(relevant, sc.Chunk)
		}
	}
	if len(relevant) > 0 {
		return relevant
	}

	fallback := make([]store.Chunk, 0, fallbackN)
	for _, sc := range scored[:min(fallbackN, len(scored))] {
		fallback = append(fallback, sc.Chunk)
	}
	return fallback
}
