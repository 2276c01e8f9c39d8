package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-memory Store used by tests and by local runs
// without a database.
type MemoryStore struct {
	mu        sync.RWMutex
	documents map[uuid.UUID]Document
	chunks    map[uuid.UUID][]Chunk // keyed by document ID
	questions map[uuid.UUID][]Question
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		documents: make(map[uuid.UUID]Document),
		chunks:    make(map[uuid.UUID][]Chunk),
		questions: make(map[uuid.UUID][]Question),
	}
}

func (s *MemoryStore) CreateDocument(_ context.Context, doc Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = doc
	return nil
}

func (s *MemoryStore) GetDocument(_ context.Context, id uuid.UUID) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &doc, nil
}

func (s *MemoryStore) ListDocuments(_ context.Context) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]Document, 0, len(s.documents))
	for _, doc := range s.documents {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})
	return docs, nil
}

func (s *MemoryStore) SetTotalChunks(_ context.Context, docID uuid.UUID, total int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[docID]
	if !ok {
		return ErrNotFound
	}
	doc.TotalChunks = total
	s.documents[docID] = doc
	return nil
}

func (s *MemoryStore) AppendChunks(_ context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range chunks {
		s.chunks[c.DocumentID] = append(s.chunks[c.DocumentID], c)
	}
	return nil
}

func (s *MemoryStore) ChunksByDocument(_ context.Context, docID uuid.UUID) ([]Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunks := make([]Chunk, len(s.chunks[docID]))
	copy(chunks, s.chunks[docID])
	sortChunks(chunks)
	return chunks, nil
}

func (s *MemoryStore) ChunksByIDs(_ context.Context, ids []uuid.UUID) ([]Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wanted := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	var chunks []Chunk
	for _, docChunks := range s.chunks {
		for _, c := range docChunks {
			if wanted[c.ID] {
				chunks = append(chunks, c)
			}
		}
	}
	sortChunks(chunks)
	return chunks, nil
}

func sortChunks(chunks []Chunk) {
	sort.Slice(chunks, func(i, j int) bool {
		if chunks[i].PageNumber != chunks[j].PageNumber {
			return chunks[i].PageNumber < chunks[j].PageNumber
		}
		return chunks[i].ChunkIndex < chunks[j].ChunkIndex
	})
}

func (s *MemoryStore) SaveQuestions(_ context.Context, questions []Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range questions {
		s.questions[q.DocumentID] = append(s.questions[q.DocumentID], q)
	}
	return nil
}

func (s *MemoryStore) QuestionsByDocument(_ context.Context, docID uuid.UUID) ([]Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	questions := make([]Question, len(s.questions[docID]))
	copy(questions, s.questions[docID])
	return questions, nil
}

func (s *MemoryStore) GetQuestion(_ context.Context, id uuid.UUID) (*Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, docQuestions := range s.questions {
		for _, q := range docQuestions {
			if q.ID == id {
				return &q, nil
			}
		}
	}
	return nil, ErrNotFound
}
