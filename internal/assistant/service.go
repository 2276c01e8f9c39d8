// Package assistant orchestrates the chunking and retrieval pipeline: it owns
// the flow from raw page text to stored chunks, and from a question, chat
// message or summary request to the context handed to the generator.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"studyassist/internal/chunker"
	"studyassist/internal/config"
	"studyassist/internal/generator"
	"studyassist/internal/retrieval"
	"studyassist/internal/store"
)

var (
	// ErrInvalidInput rejects a malformed ingestion payload before any
	// storage write.
	ErrInvalidInput = errors.New("invalid ingestion payload")

	// ErrEmptyDocument signals a document with zero stored chunks where the
	// operation needs content to work with.
	ErrEmptyDocument = errors.New("no content found in document")
)

// Generator is the opaque text-completion collaborator.
type Generator interface {
	Complete(ctx context.Context, messages []generator.Message) (string, error)
	Stream(ctx context.Context, messages []generator.Message) (io.ReadCloser, error)
}

// Service wires the chunk store and generator into the request-level
// operations. All dependencies are injected; the service keeps no mutable
// state between requests.
type Service struct {
	store    store.Store
	gen      Generator
	log      *slog.Logger
	cfg      config.Config
	chunkCfg chunker.Config
}

func NewService(st store.Store, gen Generator, log *slog.Logger, cfg config.Config) *Service {
	return &Service{
		store: st,
		gen:   gen,
		log:   log,
		cfg:   cfg,
		chunkCfg: chunker.Config{
			MinFragment:    cfg.MinFragment,
			MergeTarget:    cfg.MergeTarget,
			ShortParagraph: cfg.ShortParagraph,
			MaxChunk:       cfg.MaxChunkChars,
			SplitTarget:    cfg.SplitTarget,
			SplitMin:       cfg.SplitMin,
		},
	}
}

// Page is one page of extracted document text, ready for chunking.
type Page struct {
	PageNumber int
	Text       string
}

// IngestResult reports a completed ingestion.
type IngestResult struct {
	DocumentID  uuid.UUID `json:"documentId"`
	TotalPages  int       `json:"totalPages"`
	TotalChunks int       `json:"totalChunks"`
}

// Ingest chunks the pages of a new document and persists the result. Pages
// are chunked independently with bounded parallelism; the stored order is
// still (page_number, chunk_index). A document where no page yields a chunk
// ingests successfully with TotalChunks 0.
func (s *Service) Ingest(ctx context.Context, name string, pages []Page) (*IngestResult, error) {
	if name == "" || len(pages) == 0 {
		return nil, ErrInvalidInput
	}

	doc := store.Document{
		ID:         uuid.New(),
		Name:       name,
		TotalPages: len(pages),
		CreatedAt:  time.Now(),
	}
	if err := s.store.CreateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}

	// Chunk pages concurrently. SplitPage has no cross-page state, so the
	// per-page results slot back into input order.
	pageChunks := make([][]string, len(pages))
	sem := make(chan struct{}, s.cfg.ChunkWorkers)
	var wg sync.WaitGroup
	for i, page := range pages {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, text string) {
			defer wg.Done()
			defer func() { <-sem }()
			pageChunks[i] = chunker.SplitPage(text, s.chunkCfg)
		}(i, page.Text)
	}
	wg.Wait()

	var chunks []store.Chunk
	for i, page := range pages {
		for j, text := range pageChunks[i] {
			chunks = append(chunks, store.Chunk{
				ID:            uuid.New(),
				DocumentID:    doc.ID,
				PageNumber:    page.PageNumber,
				ChunkIndex:    j,
				ParagraphText: text,
			})
		}
	}

	if err := s.store.AppendChunks(ctx, chunks); err != nil {
		return nil, fmt.Errorf("append chunks: %w", err)
	}
	if err := s.store.SetTotalChunks(ctx, doc.ID, len(chunks)); err != nil {
		return nil, fmt.Errorf("set total chunks: %w", err)
	}

	s.log.Info("document ingested", "doc_id", doc.ID, "pages", len(pages), "chunks", len(chunks))

	return &IngestResult{
		DocumentID:  doc.ID,
		TotalPages:  len(pages),
		TotalChunks: len(chunks),
	}, nil
}

// AnswerResult is a generated answer with its source attribution.
type AnswerResult struct {
	Answer      string `json:"answer"`
	SourcePages []int  `json:"sourcePages"`
	ChunkCount  int    `json:"chunkCount"`
}

// Answer generates a structured answer for a stored question using its anchor
// chunk set. A stale or empty anchor set falls back to all chunks of the
// document; a document with no chunks at all yields the sentinel answer
// without calling the generator.
func (s *Service) Answer(ctx context.Context, documentID, questionID uuid.UUID) (*AnswerResult, error) {
	question, err := s.store.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}

	var chunks []store.Chunk
	if len(question.RelatedChunkIDs) > 0 {
		chunks, err = s.store.ChunksByIDs(ctx, question.RelatedChunkIDs)
		if err != nil {
			s.log.Warn("anchored chunk fetch failed, falling back", "question_id", questionID, "error", err)
			chunks = nil
		}
	}
	if len(chunks) == 0 {
		chunks, err = s.store.ChunksByDocument(ctx, documentID)
		if err != nil {
			return nil, fmt.Errorf("fetch chunks: %w", err)
		}
	}
	if len(chunks) == 0 {
		return &AnswerResult{Answer: retrieval.NotAvailableText, SourcePages: []int{}}, nil
	}

	userPrompt := fmt.Sprintf("Question: %s\n\nDocument Content:\n%s\n\nGenerate a structured answer following the mandatory format.",
		question.QuestionText, retrieval.BuildContext(chunks, true))

	answer, err := s.gen.Complete(ctx, []generator.Message{
		{Role: "system", Content: answerSystemPrompt},
		{Role: "user", Content: userPrompt},
	})
	if err != nil {
		return nil, err
	}

	return &AnswerResult{
		Answer:      answer,
		SourcePages: retrieval.SourcePages(chunks),
		ChunkCount:  len(chunks),
	}, nil
}

// ChatMessage is one prior turn of the conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chat retrieves the chunks most relevant to the message and returns the
// generator's token stream. ErrEmptyDocument is returned for a document with
// no chunks; the transport layer maps it to the sentinel reply.
func (s *Service) Chat(ctx context.Context, documentID uuid.UUID, message string, history []ChatMessage) (io.ReadCloser, error) {
	chunks, err := s.store.ChunksByDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch chunks: %w", err)
	}
	if len(chunks) == 0 {
		return nil, ErrEmptyDocument
	}

	selected := retrieval.TopRelevant(chunks, message, s.cfg.ChatTopChunks, s.cfg.ChatFallbackChunks)
	context := retrieval.BuildContext(selected, false)

	messages := []generator.Message{{Role: "system", Content: chatSystemPrompt}}
	if len(history) > s.cfg.ChatHistoryLimit {
		history = history[len(history)-s.cfg.ChatHistoryLimit:]
	}
	for _, msg := range history {
		messages = append(messages, generator.Message{Role: msg.Role, Content: msg.Content})
	}
	messages = append(messages, generator.Message{
		Role:    "user",
		Content: fmt.Sprintf("Document Content:\n%s\n\nStudent Question: %s", context, message),
	})

	return s.gen.Stream(ctx, messages)
}

// SummaryResult is a whole-document summary with sampling statistics.
type SummaryResult struct {
	Summary     string `json:"summary"`
	SourcePages []int  `json:"sourcePages"`
	ChunkCount  int    `json:"chunkCount"`
	TotalChunks int    `json:"totalChunks"`
}

// Summarize builds a whole-document summary. Selection is structural, not
// relevance-based: when the document exceeds maxChunks the chunk sequence is
// downsampled evenly so every section is represented.
func (s *Service) Summarize(ctx context.Context, documentID uuid.UUID, maxChunks int) (*SummaryResult, error) {
	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	chunks, err := s.store.ChunksByDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch chunks: %w", err)
	}
	if len(chunks) == 0 {
		return nil, ErrEmptyDocument
	}

	if maxChunks <= 0 {
		maxChunks = s.cfg.SummaryMaxChunks
	}
	selected := retrieval.Sample(chunks, maxChunks)

	userPrompt := fmt.Sprintf("Document: %q\nTotal Pages: %d\nTotal Chunks: %d\n\nDocument Content:\n%s\n\nGenerate a complete structured summary of this document.",
		doc.Name, doc.TotalPages, len(chunks), retrieval.BuildContext(selected, true))

	summary, err := s.gen.Complete(ctx, []generator.Message{
		{Role: "system", Content: summarySystemPrompt},
		{Role: "user", Content: userPrompt},
	})
	if err != nil {
		return nil, err
	}

	return &SummaryResult{
		Summary:     summary,
		SourcePages: retrieval.SourcePages(selected),
		ChunkCount:  len(selected),
		TotalChunks: len(chunks),
	}, nil
}

// Documents lists all ingested documents.
func (s *Service) Documents(ctx context.Context) ([]store.Document, error) {
	return s.store.ListDocuments(ctx)
}

// Document returns one document's metadata.
func (s *Service) Document(ctx context.Context, id uuid.UUID) (*store.Document, error) {
	return s.store.GetDocument(ctx, id)
}

// Questions lists the stored questions of a document.
func (s *Service) Questions(ctx context.Context, documentID uuid.UUID) ([]store.Question, error) {
	return s.store.QuestionsByDocument(ctx, documentID)
}
