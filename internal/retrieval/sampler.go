package retrieval

import "studyassist/internal/store"

// Sample downsamples an ordered chunk sequence to at most maxCount elements,
// evenly spread across the whole document so a summary reflects every section
// proportionally. Each index is computed independently as floor(i*step) to
// avoid accumulation drift. The result is deterministic; for sequences within
// budget (or a non-positive budget) the input is returned unchanged.
func Sample(chunks []store.Chunk, maxCount int) []store.Chunk {
	if maxCount <= 0 || len(chunks) <= maxCount {
		return chunks
	}
	step := float64(len(chunks)) / float64(maxCount)
	selected := make([]store.Chunk, 0, maxCount)
	for i := 0; i < maxCount; i++ {
		selected = append(selected, chunks[int(float64(i)*step)])
	}
	return selected
}
