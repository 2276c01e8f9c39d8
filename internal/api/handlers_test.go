package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"studyassist/internal/assistant"
	"studyassist/internal/config"
	"studyassist/internal/generator"
	"studyassist/internal/retrieval"
	"studyassist/internal/store"
)

const testAPIKey = "test-api-key"

// stubGenerator returns fixed content for both completion modes.
type stubGenerator struct {
	reply      string
	streamBody string
}

func (g *stubGenerator) Complete(context.Context, []generator.Message) (string, error) {
	return g.reply, nil
}

func (g *stubGenerator) Stream(context.Context, []generator.Message) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(g.streamBody)), nil
}

func newTestServer(t *testing.T) (*Server, *store.MemoryStore, *stubGenerator) {
	t.Helper()
	cfg := config.Config{
		APIKey: testAPIKey,

		MinFragment:    30,
		MergeTarget:    500,
		ShortParagraph: 300,
		MaxChunkChars:  2000,
		SplitTarget:    1500,
		SplitMin:       200,

		ChatTopChunks:      8,
		ChatFallbackChunks: 5,
		ChatHistoryLimit:   6,
		SummaryMaxChunks:   60,
		QuestionBatchSize:  15,

		ChunkWorkers:    2,
		MaxRequestBytes: 1 << 20,
	}
	st := store.NewMemoryStore()
	gen := &stubGenerator{reply: "stub reply"}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := assistant.NewService(st, gen, log, cfg)
	return NewServer(svc, log, cfg), st, gen
}

func doRequest(t *testing.T, srv *Server, method, path, body string, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+testAPIKey)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func seedDocumentWithChunks(t *testing.T, st *store.MemoryStore, texts ...string) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	docID := uuid.New()
	doc := store.Document{ID: docID, Name: "seeded.pdf", TotalPages: 1, TotalChunks: len(texts), CreatedAt: time.Now()}
	if err := st.CreateDocument(ctx, doc); err != nil {
		t.Fatalf("seed document: %v", err)
	}
	chunks := make([]store.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = store.Chunk{
			ID:            uuid.New(),
			DocumentID:    docID,
			PageNumber:    1,
			ChunkIndex:    i,
			ParagraphText: text,
		}
	}
	if err := st.AppendChunks(ctx, chunks); err != nil {
		t.Fatalf("seed chunks: %v", err)
	}
	return docID
}

func TestHealth_NoAuthRequired(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/health", "", false)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestAuth_MissingToken(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/api/documents", "", false)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestAuth_WrongToken(t *testing.T) {
	srv, _, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	req.Header.Set("Authorization", "Bearer wrong-key")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestIngest_RoundTrip(t *testing.T) {
	srv, _, _ := newTestServer(t)

	longText := strings.Repeat("A sentence with plenty of characters to survive chunking. ", 3)
	body := `{"name":"lecture.pdf","pages":[{"pageNumber":1,"text":` + mustJSON(t, longText) + `}]}`

	rec := doRequest(t, srv, http.MethodPost, "/api/documents", body, true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var res assistant.IngestResult
	decodeBody(t, rec, &res)
	if res.TotalChunks != 1 || res.TotalPages != 1 {
		t.Errorf("unexpected ingest result: %+v", res)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/documents/"+res.DocumentID.String(), "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var doc store.Document
	decodeBody(t, rec, &doc)
	if doc.Name != "lecture.pdf" || doc.TotalChunks != 1 {
		t.Errorf("unexpected document: %+v", doc)
	}
}

func TestIngest_InvalidPayload(t *testing.T) {
	srv, _, _ := newTestServer(t)

	for name, body := range map[string]string{
		"missing name": `{"pages":[{"pageNumber":1,"text":"content"}]}`,
		"no pages":     `{"name":"doc.pdf","pages":[]}`,
		"bad page":     `{"name":"doc.pdf","pages":[{"pageNumber":0,"text":"content"}]}`,
		"malformed":    `{"name": "doc.pdf",`,
		"wrong types":  `{"name":123,"pages":"nope"}`,
	} {
		rec := doRequest(t, srv, http.MethodPost, "/api/documents", body, true)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", name, rec.Code)
		}
	}
}

func TestListDocuments_Empty(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/api/documents", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var res struct {
		Documents []store.Document `json:"documents"`
	}
	decodeBody(t, rec, &res)
	if res.Documents == nil || len(res.Documents) != 0 {
		t.Errorf("expected an empty array, got %v", res.Documents)
	}
}

func TestGetDocument_NotFound(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/api/documents/"+uuid.NewString(), "", true)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestGetDocument_InvalidID(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/api/documents/not-a-uuid", "", true)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestAnswer_QuestionNotFound(t *testing.T) {
	srv, st, _ := newTestServer(t)
	docID := seedDocumentWithChunks(t, st, "A chunk with enough characters to be kept around.")

	body := `{"questionId":"` + uuid.NewString() + `"}`
	rec := doRequest(t, srv, http.MethodPost, "/api/documents/"+docID.String()+"/answer", body, true)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAnswer_RoundTrip(t *testing.T) {
	srv, st, gen := newTestServer(t)
	gen.reply = "**1. Definition:** A structured answer."

	docID := seedDocumentWithChunks(t, st, "The mitochondria is the powerhouse of the cell, producing ATP.")
	q := store.Question{
		ID:           uuid.New(),
		DocumentID:   docID,
		QuestionText: "What does the mitochondria do?",
		CreatedAt:    time.Now(),
	}
	if err := st.SaveQuestions(context.Background(), []store.Question{q}); err != nil {
		t.Fatalf("seed question: %v", err)
	}

	body := `{"questionId":"` + q.ID.String() + `"}`
	rec := doRequest(t, srv, http.MethodPost, "/api/documents/"+docID.String()+"/answer", body, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var res assistant.AnswerResult
	decodeBody(t, rec, &res)
	if res.Answer != gen.reply {
		t.Errorf("unexpected answer: %q", res.Answer)
	}
	if res.ChunkCount != 1 || len(res.SourcePages) != 1 {
		t.Errorf("unexpected attribution: %+v", res)
	}
}

func TestChat_EmptyDocumentSentinel(t *testing.T) {
	srv, st, _ := newTestServer(t)

	// Document exists but holds no chunks.
	docID := uuid.New()
	doc := store.Document{ID: docID, Name: "empty.pdf", TotalPages: 1, CreatedAt: time.Now()}
	if err := st.CreateDocument(context.Background(), doc); err != nil {
		t.Fatalf("seed document: %v", err)
	}

	body := `{"message":"what is this about?"}`
	rec := doRequest(t, srv, http.MethodPost, "/api/documents/"+docID.String()+"/chat", body, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var res struct {
		Reply       string `json:"reply"`
		SourcePages []int  `json:"sourcePages"`
	}
	decodeBody(t, rec, &res)
	if res.Reply != retrieval.NotAvailableText {
		t.Errorf("expected the sentinel reply, got %q", res.Reply)
	}
	if len(res.SourcePages) != 0 {
		t.Errorf("expected no source pages, got %v", res.SourcePages)
	}
}

func TestChat_StreamsPassThrough(t *testing.T) {
	srv, st, gen := newTestServer(t)
	gen.streamBody = "data: {\"choices\":[{\"delta\":{\"content\":\"Hi\"}}]}\n\ndata: [DONE]\n\n"

	docID := seedDocumentWithChunks(t, st, "A chunk with enough characters to be kept around.")

	body := `{"message":"say hi"}`
	rec := doRequest(t, srv, http.MethodPost, "/api/documents/"+docID.String()+"/chat", body, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("expected SSE content type, got %q", ct)
	}
	if rec.Body.String() != gen.streamBody {
		t.Errorf("stream must pass through byte-for-byte, got %q", rec.Body.String())
	}
}

func TestChat_MissingMessage(t *testing.T) {
	srv, st, _ := newTestServer(t)
	docID := seedDocumentWithChunks(t, st, "A chunk with enough characters to be kept around.")

	rec := doRequest(t, srv, http.MethodPost, "/api/documents/"+docID.String()+"/chat", `{}`, true)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestSummary_DefaultBudgetWithEmptyBody(t *testing.T) {
	srv, st, gen := newTestServer(t)
	gen.reply = "## Overview\nThe document in brief."

	docID := seedDocumentWithChunks(t, st,
		"First section body with enough characters to keep.",
		"Second section body with enough characters to keep.")

	rec := doRequest(t, srv, http.MethodPost, "/api/documents/"+docID.String()+"/summary", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var res assistant.SummaryResult
	decodeBody(t, rec, &res)
	if res.Summary != gen.reply {
		t.Errorf("unexpected summary: %q", res.Summary)
	}
	if res.ChunkCount != 2 || res.TotalChunks != 2 {
		t.Errorf("unexpected chunk accounting: %+v", res)
	}
}

func TestSummary_EmptyDocument(t *testing.T) {
	srv, st, _ := newTestServer(t)

	docID := uuid.New()
	doc := store.Document{ID: docID, Name: "empty.pdf", TotalPages: 1, CreatedAt: time.Now()}
	if err := st.CreateDocument(context.Background(), doc); err != nil {
		t.Fatalf("seed document: %v", err)
	}

	rec := doRequest(t, srv, http.MethodPost, "/api/documents/"+docID.String()+"/summary", "", true)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestGenerateQuestions_RoundTrip(t *testing.T) {
	srv, st, gen := newTestServer(t)
	gen.reply = `["What is the main argument of this passage?"]`

	docID := seedDocumentWithChunks(t, st, "A chunk with enough characters to generate questions from.")

	rec := doRequest(t, srv, http.MethodPost, "/api/documents/"+docID.String()+"/questions", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var res struct {
		Questions []store.Question `json:"questions"`
	}
	decodeBody(t, rec, &res)
	if len(res.Questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(res.Questions))
	}
	if res.Questions[0].QuestionText != "What is the main argument of this passage?" {
		t.Errorf("unexpected question: %q", res.Questions[0].QuestionText)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/documents/"+docID.String()+"/questions", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 listing questions, got %d", rec.Code)
	}
	decodeBody(t, rec, &res)
	if len(res.Questions) != 1 {
		t.Errorf("expected the stored question listed, got %d", len(res.Questions))
	}
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}
