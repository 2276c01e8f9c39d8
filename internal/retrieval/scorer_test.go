package retrieval

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/google/uuid"

	"studyassist/internal/store"
)

func chunkFixture(page, index int, text string) store.Chunk {
	return store.Chunk{
		ID:            uuid.New(),
		PageNumber:    page,
		ChunkIndex:    index,
		ParagraphText: text,
	}
}

func TestKeywords_FiltersShortTokens(t *testing.T) {
	got := Keywords("What is THE role of mitochondria?")
	want := []string{"what", "role", "mitochondria?"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestKeywords_AllShortTokens(t *testing.T) {
	if got := Keywords("is it a an the"); got != nil {
		t.Errorf("expected no keywords, got %v", got)
	}
}

func TestScore_CountsOccurrences(t *testing.T) {
	keywords := []string{"cell"}
	one := Score(keywords, "The cell divides.")
	three := Score(keywords, "A cell wall surrounds each cell; the cell divides.")
	if one != 1 {
		t.Errorf("expected score 1, got %d", one)
	}
	if three != 3 {
		t.Errorf("expected score 3, got %d", three)
	}
	if three <= one {
		t.Error("score must not decrease with more occurrences")
	}
}

func TestScore_CaseInsensitiveSubstring(t *testing.T) {
	// No word-boundary anchoring: "rain" matches inside "brainstorm".
	if got := Score([]string{"rain"}, "A BRAINSTORM session."); got != 1 {
		t.Errorf("expected substring match score 1, got %d", got)
	}
}

func TestScore_ShortTokenQueryScoresZero(t *testing.T) {
	keywords := Keywords("is a the it")
	if got := Score(keywords, "anything at all in the text"); got != 0 {
		t.Errorf("expected score 0 for keyword-less query, got %d", got)
	}
}

func TestRank_StableOnTies(t *testing.T) {
	chunks := []store.Chunk{
		chunkFixture(1, 0, "nothing relevant here"),
		chunkFixture(1, 1, "nothing relevant here either"),
		chunkFixture(2, 0, "osmosis is covered in this passage"),
	}
	scored := Rank(chunks, "explain osmosis")

	if scored[0].PageNumber != 2 {
		t.Fatalf("expected the matching chunk first, got page %d", scored[0].PageNumber)
	}
	// Zero-score chunks keep their original relative order.
	if scored[1].ChunkIndex != 0 || scored[2].ChunkIndex != 1 {
		t.Errorf("expected stable order among ties, got indices %d, %d",
			scored[1].ChunkIndex, scored[2].ChunkIndex)
	}
}

func TestTopRelevant_TakesPositiveTopN(t *testing.T) {
	var chunks []store.Chunk
	// Chunk i mentions "enzyme" i times; later chunks score higher.
	for i := 0; i < 10; i++ {
		text := "filler text"
		for j := 0; j < i; j++ {
			text += " enzyme"
		}
		chunks = append(chunks, chunkFixture(1, i, text))
	}

	selected := TopRelevant(chunks, "describe enzyme activity", 8, 5)

	if len(selected) != 8 {
		t.Fatalf("expected 8 chunks, got %d", len(selected))
	}
	// Highest-scoring chunk (9 occurrences) comes first; the zero-score
	// chunk never appears.
	if selected[0].ChunkIndex != 9 {
		t.Errorf("expected chunk 9 first, got %d", selected[0].ChunkIndex)
	}
	for _, c := range selected {
		if c.ChunkIndex == 0 {
			t.Error("zero-score chunk must not be selected")
		}
	}
}

func TestTopRelevant_FallbackFirstFive(t *testing.T) {
	var chunks []store.Chunk
	for i := 0; i < 7; i++ {
		chunks = append(chunks, chunkFixture(i+1, 0, fmt.Sprintf("section %d content", i+1)))
	}

	selected := TopRelevant(chunks, "quantum chromodynamics", 8, 5)

	if len(selected) != 5 {
		t.Fatalf("expected fallback of 5 chunks, got %d", len(selected))
	}
	for i, c := range selected {
		if c.PageNumber != i+1 {
			t.Errorf("fallback chunk %d: expected page %d, got %d", i, i+1, c.PageNumber)
		}
	}
}

func TestTopRelevant_FewerChunksThanFallback(t *testing.T) {
	chunks := []store.Chunk{
		chunkFixture(1, 0, "alpha content"),
		chunkFixture(1, 1, "beta content"),
	}
	selected := TopRelevant(chunks, "nothing matches this", 8, 5)
	if len(selected) != 2 {
		t.Errorf("expected all 2 chunks, got %d", len(selected))
	}
}

func TestTopRelevant_EmptyInput(t *testing.T) {
	if selected := TopRelevant(nil, "anything", 8, 5); len(selected) != 0 {
		t.Errorf("expected empty selection, got %d", len(selected))
	}
}
