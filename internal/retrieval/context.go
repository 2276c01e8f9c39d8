package retrieval

import (
	"fmt"
	"sort"
	"strings"

	"studyassist/internal/store"
)

// BuildContext joins the selected chunks into the page-annotated text handed
// to the generator. withIndex additionally cites the chunk index, which the
// answer and summary prompts use for source references.
func BuildContext(chunks []store.Chunk, withIndex bool) string {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		if withIndex {
			parts[i] = fmt.Sprintf("[Page %d, Chunk %d]: %s", c.PageNumber, c.ChunkIndex, c.ParagraphText)
		} else {
			parts[i] = fmt.Sprintf("[Page %d]: %s", c.PageNumber, c.ParagraphText)
		}
	}
	return strings.Join(parts, "\n\n")
}

// SourcePages returns the sorted unique page numbers of the selection.
func SourcePages(chunks []store.Chunk) []int {
	seen := make(map[int]bool, len(chunks))
	pages := make([]int, 0, len(chunks))
	for _, c := range chunks {
		if !seen[c.PageNumber] {
			seen[c.PageNumber] = true
			pages = append(pages, c.PageNumber)
		}
	}
	sort.Ints(pages)
	return pages
}
