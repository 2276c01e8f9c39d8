package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ Store = (*PostgresStore)(nil)

// PostgresStore persists documents, chunks and questions in Postgres.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connStr string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Init creates the tables and indexes if they do not exist.
func (p *PostgresStore) Init(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS documents (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		total_pages INT NOT NULL,
		total_chunks INT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS chunks (
		id UUID PRIMARY KEY,
		document_id UUID NOT NULL REFERENCES documents(id),
		page_number INT NOT NULL,
		chunk_index INT NOT NULL,
		paragraph_text TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_chunks_document_order
		ON chunks(document_id, page_number, chunk_index);

	CREATE TABLE IF NOT EXISTS questions (
		id UUID PRIMARY KEY,
		document_id UUID NOT NULL REFERENCES documents(id),
		question_text TEXT NOT NULL,
		related_chunk_ids TEXT[] NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_questions_document ON questions(document_id);
	`
	_, err := p.pool.Exec(ctx, query)
	return err
}

func (p *PostgresStore) CreateDocument(ctx context.Context, doc Document) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO documents (id, name, total_pages, total_chunks, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		doc.ID, doc.Name, doc.TotalPages, doc.TotalChunks, doc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (p *PostgresStore) GetDocument(ctx context.Context, id uuid.UUID) (*Document, error) {
	var doc Document
	err := p.pool.QueryRow(ctx,
		`SELECT id, name, total_pages, total_chunks, created_at
		 FROM documents WHERE id = $1`, id,
	).Scan(&doc.ID, &doc.Name, &doc.TotalPages, &doc.TotalChunks, &doc.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select document: %w", err)
	}
	return &doc, nil
}

func (p *PostgresStore) ListDocuments(ctx context.Context) ([]Document, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, name, total_pages, total_chunks, created_at
		 FROM documents ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("select documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ID, &doc.Name, &doc.TotalPages, &doc.TotalChunks, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (p *PostgresStore) SetTotalChunks(ctx context.Context, docID uuid.UUID, total int) error {
	tag, err := p.pool.Exec(ctx,
		`UPDATE documents SET total_chunks = $2 WHERE id = $1`, docID, total)
	if err != nil {
		return fmt.Errorf("update total_chunks: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresStore) AppendChunks(ctx context.Context, chunks []Chunk) error {
	for start := 0; start < len(chunks); start += InsertBatchSize {
		end := min(start+InsertBatchSize, len(chunks))
		batch := &pgx.Batch{}
		for _, c := range chunks[start:end] {
			batch.Queue(
				`INSERT INTO chunks (id, document_id, page_number, chunk_index, paragraph_text)
				 VALUES ($1, $2, $3, $4, $5)`,
				c.ID, c.DocumentID, c.PageNumber, c.ChunkIndex, c.ParagraphText,
			)
		}
		if err := p.pool.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert chunk batch at %d: %w", start, err)
		}
	}
	return nil
}

func (p *PostgresStore) ChunksByDocument(ctx context.Context, docID uuid.UUID) ([]Chunk, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, document_id, page_number, chunk_index, paragraph_text
		 FROM chunks WHERE document_id = $1
		 ORDER BY page_number, chunk_index`, docID)
	if err != nil {
		return nil, fmt.Errorf("select chunks: %w", err)
	}
	defer rows.Close()
	return scanChunks(rows)
}

func (p *PostgresStore) ChunksByIDs(ctx context.Context, ids []uuid.UUID) ([]Chunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := p.pool.Query(ctx,
		`SELECT id, document_id, page_number, chunk_index, paragraph_text
		 FROM chunks WHERE id = ANY($1::uuid[])
		 ORDER BY page_number, chunk_index`, uuidStrings(ids))
	if err != nil {
		return nil, fmt.Errorf("select chunks by ids: %w", err)
	}
	defer rows.Close()
	return scanChunks(rows)
}

func scanChunks(rows pgx.Rows) ([]Chunk, error) {
	var chunks []Chunk
	for rows.Next() {
		var c Chunk
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.PageNumber, &c.ChunkIndex, &c.ParagraphText); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

func (p *PostgresStore) SaveQuestions(ctx context.Context, questions []Question) error {
	batch := &pgx.Batch{}
	for _, q := range questions {
		batch.Queue(
			`INSERT INTO questions (id, document_id, question_text, related_chunk_ids, created_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			q.ID, q.DocumentID, q.QuestionText, uuidStrings(q.RelatedChunkIDs), q.CreatedAt,
		)
	}
	if err := p.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert questions: %w", err)
	}
	return nil
}

func (p *PostgresStore) QuestionsByDocument(ctx context.Context, docID uuid.UUID) ([]Question, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, document_id, question_text, related_chunk_ids, created_at
		 FROM questions WHERE document_id = $1 ORDER BY created_at, id`, docID)
	if err != nil {
		return nil, fmt.Errorf("select questions: %w", err)
	}
	defer rows.Close()

	var questions []Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, *q)
	}
	return questions, rows.Err()
}

func (p *PostgresStore) GetQuestion(ctx context.Context, id uuid.UUID) (*Question, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, document_id, question_text, related_chunk_ids, created_at
		 FROM questions WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("select question: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("select question: %w", err)
		}
		return nil, ErrNotFound
	}
	return scanQuestion(rows)
}

func scanQuestion(rows pgx.Rows) (*Question, error) {
	var q Question
	var related []string
	if err := rows.Scan(&q.ID, &q.DocumentID, &q.QuestionText, &related, &q.CreatedAt); err != nil {
		return nil, fmt.Errorf("scan question: %w", err)
	}
	for _, s := range related {
		id, err := uuid.Parse(s)
		if err != nil {
			continue
		}
		q.RelatedChunkIDs = append(q.RelatedChunkIDs, id)
	}
	return &q, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

// Close releases the connection pool.
func (p *PostgresStore) Close() {
	p.pool.Close()
}
