package chunker

import (
	"regexp"
	"strings"
)

// Config controls chunking behavior. All thresholds are character counts.
type Config struct {
	MinFragment    int // Paragraphs and trailing sub-chunks at or below this are dropped.
	MergeTarget    int // Stop merging once the current chunk reaches this length.
	ShortParagraph int // Only paragraphs shorter than this get merged into the current chunk.
	MaxChunk       int // Merged chunks longer than this are re-split at sentence boundaries.
	SplitTarget    int // Flush a sub-chunk before it grows past this length.
	SplitMin       int // Never flush a sub-chunk at or below this length.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MinFragment:    30,
		MergeTarget:    500,
		ShortParagraph: 300,
		MaxChunk:       2000,
		SplitTarget:    1500,
		SplitMin:       200,
	}
}

// SplitPage converts one page's raw text into an ordered sequence of chunk
// texts. It is a pure function of the text: no cross-page state, so pages can
// be chunked independently and in parallel. A page with no paragraph above the
// minimum length yields zero chunks; that is valid, not an error.
func SplitPage(text string, cfg Config) []string {
	if cfg.MinFragment <= 0 {
		cfg = DefaultConfig()
	}

	paragraphs := splitParagraphs(text, cfg.MinFragment)

	var chunks []string
	for _, merged := range mergeParagraphs(paragraphs, cfg) {
		if len(merged) > cfg.MaxChunk {
			chunks = append(chunks, splitBySentences(merged, cfg)...)
		} else {
			chunks = append(chunks, strings.TrimSpace(merged))
		}
	}
	return chunks
}

var (
	blankLineRe = regexp.MustCompile(`\n\s*\n`)
	spaceRunRe  = regexp.MustCompile(`\s+`)
)

// splitParagraphs splits on blank-line boundaries, collapses internal
// whitespace runs and drops fragments at or below minLen (headers, page
// numbers, stray artifacts).
func splitParagraphs(text string, minLen int) []string {
	var result []string
	for _, p := range blankLineRe.Split(text, -1) {
		p = strings.TrimSpace(spaceRunRe.ReplaceAllString(p, " "))
		if len(p) > minLen {
			result = append(result, p)
		}
	}
	return result
}

// mergeParagraphs folds the paragraph sequence into merged groups: while the
// current group is below MergeTarget and the next paragraph is below
// ShortParagraph, the paragraph joins the group. This favors combining short
// fragments (captions, list items) over emitting many tiny chunks.
func mergeParagraphs(paragraphs []string, cfg Config) []string {
	var merged []string
	var current string
	for _, p := range paragraphs {
		switch {
		case current == "":
			current = p
		case len(current) < cfg.MergeTarget && len(p) < cfg.ShortParagraph:
			current += "\n\n" + p
		default:
			merged = append(merged, current)
			current = p
		}
	}
	if current != "" {
		merged = append(merged, current)
	}
	return merged
}

var sentenceRe = regexp.MustCompile(`[^.!?]+[.!?]+`)

// splitSentences returns the sentence runs of text. Text with no sentence
// terminator at all is treated as a single sentence.
func splitSentences(text string) []string {
	sentences := sentenceRe.FindAllString(text, -1)
	if sentences == nil {
		return []string{text}
	}
	return sentences
}

// splitBySentences re-splits an oversized chunk at sentence boundaries:
// sentences accumulate into a sub-chunk until adding the next one would push
// past SplitTarget and the sub-chunk already exceeds SplitMin. The trailing
// sub-chunk is emitted only above the minimum fragment length.
func splitBySentences(chunk string, cfg Config) []string {
	var result []string
	var current string
	for _, sentence := range splitSentences(chunk) {
		if len(current)+len(sentence) > cfg.SplitTarget && len(current) > cfg.SplitMin {
			result = append(result, strings.TrimSpace(current))
			current = sentence
		} else {
			current += sentence
		}
	}
	if tail := strings.TrimSpace(current); len(tail) > cfg.MinFragment {
		result = append(result, tail)
	}
	return result
}
