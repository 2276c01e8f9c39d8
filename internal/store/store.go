package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a document or question does not exist.
var ErrNotFound = errors.New("not found")

// InsertBatchSize bounds the number of chunk rows written per statement.
const InsertBatchSize = 50

// Document is an ingested file. TotalChunks is set once after chunking
// completes; everything else is immutable.
type Document struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	TotalPages  int       `json:"totalPages"`
	TotalChunks int       `json:"totalChunks"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Chunk is a bounded passage of text from one page, the unit of retrieval.
// Chunks are append-only: never edited or reordered after ingestion.
type Chunk struct {
	ID            uuid.UUID `json:"id"`
	DocumentID    uuid.UUID `json:"documentId"`
	PageNumber    int       `json:"pageNumber"` // 1-based
	ChunkIndex    int       `json:"chunkIndex"` // 0-based, unique within a page
	ParagraphText string    `json:"paragraphText"`
}

// Question is a generated exam question anchored to the chunks it was
// originally derived from. The anchor set may go stale; retrieval must
// degrade gracefully when it does.
type Question struct {
	ID              uuid.UUID   `json:"id"`
	DocumentID      uuid.UUID   `json:"documentId"`
	QuestionText    string      `json:"questionText"`
	RelatedChunkIDs []uuid.UUID `json:"relatedChunkIds"`
	CreatedAt       time.Time   `json:"createdAt"`
}

// Store persists documents, chunks and questions. Chunks have no update or
// delete operations: replacing a document means ingesting under a new ID.
type Store interface {
	CreateDocument(ctx context.Context, doc Document) error
	GetDocument(ctx context.Context, id uuid.UUID) (*Document, error)
	ListDocuments(ctx context.Context) ([]Document, error)
	SetTotalChunks(ctx context.Context, docID uuid.UUID, total int) error

	// AppendChunks writes chunks in fixed-size batches. A failure partway
	// through is a hard failure of the whole ingestion.
	AppendChunks(ctx context.Context, chunks []Chunk) error
	// ChunksByDocument returns all chunks ordered by (page_number, chunk_index).
	ChunksByDocument(ctx context.Context, docID uuid.UUID) ([]Chunk, error)
	// ChunksByIDs returns the chunks matching ids, ordered by page number.
	// Unknown ids are skipped.
	ChunksByIDs(ctx context.Context, ids []uuid.UUID) ([]Chunk, error)

	SaveQuestions(ctx context.Context, questions []Question) error
	QuestionsByDocument(ctx context.Context, docID uuid.UUID) ([]Question, error)
	GetQuestion(ctx context.Context, id uuid.UUID) (*Question, error)
}
