package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"studyassist/internal/assistant"
	"studyassist/internal/generator"
	"studyassist/internal/retrieval"
	"studyassist/internal/store"
)

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxRequestBytes)

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": validationErrors(err)})
		return
	}

	pages := make([]assistant.Page, len(req.Pages))
	for i, p := range req.Pages {
		pages[i] = assistant.Page{PageNumber: p.PageNumber, Text: p.Text}
	}

	result, err := s.svc.Ingest(r.Context(), req.Name, pages)
	if err != nil {
		if errors.Is(err, assistant.ErrInvalidInput) {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.log.Error("ingest failed", "error", err)
		jsonError(w, "failed to ingest document: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.svc.Documents(r.Context())
	if err != nil {
		jsonError(w, "failed to list documents: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if docs == nil {
		docs = []store.Document{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	docID, ok := s.docID(w, r)
	if !ok {
		return
	}
	doc, err := s.svc.Document(r.Context(), docID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, "document not found", http.StatusNotFound)
			return
		}
		jsonError(w, "failed to fetch document: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleGenerateQuestions(w http.ResponseWriter, r *http.Request) {
	docID, ok := s.docID(w, r)
	if !ok {
		return
	}
	questions, err := s.svc.GenerateQuestions(r.Context(), docID)
	if err != nil {
		if errors.Is(err, assistant.ErrEmptyDocument) {
			jsonError(w, "no chunks found for this document", http.StatusNotFound)
			return
		}
		if s.writeGeneratorError(w, err) {
			return
		}
		s.log.Error("question generation failed", "doc_id", docID, "error", err)
		jsonError(w, "failed to generate questions: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"questions": questions})
}

func (s *Server) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	docID, ok := s.docID(w, r)
	if !ok {
		return
	}
	questions, err := s.svc.Questions(r.Context(), docID)
	if err != nil {
		jsonError(w, "failed to list questions: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if questions == nil {
		questions = []store.Question{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"questions": questions})
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	docID, ok := s.docID(w, r)
	if !ok {
		return
	}

	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": validationErrors(err)})
		return
	}
	questionID, _ := uuid.Parse(req.QuestionID)

	result, err := s.svc.Answer(r.Context(), docID, questionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, "question not found", http.StatusNotFound)
			return
		}
		if s.writeGeneratorError(w, err) {
			return
		}
		s.log.Error("answer generation failed", "question_id", questionID, "error", err)
		jsonError(w, "failed to generate answer: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	docID, ok := s.docID(w, r)
	if !ok {
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": validationErrors(err)})
		return
	}

	history := make([]assistant.ChatMessage, len(req.History))
	for i, turn := range req.History {
		history[i] = assistant.ChatMessage{Role: turn.Role, Content: turn.Content}
	}

	stream, err := s.svc.Chat(r.Context(), docID, req.Message, history)
	if err != nil {
		if errors.Is(err, assistant.ErrEmptyDocument) {
			writeJSON(w, http.StatusOK, map[string]any{
				"reply":       retrieval.NotAvailableText,
				"sourcePages": []int{},
			})
			return
		}
		if s.writeGeneratorError(w, err) {
			return
		}
		s.log.Error("chat failed", "doc_id", docID, "error", err)
		jsonError(w, "failed to process chat message: "+err.Error(), http.StatusInternalServerError)
		return
	}
	defer stream.Close()

	// Forward the generator's SSE stream as-is.
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	flusher, _ := w.(http.Flusher)
	buf := make([]byte, 4096)
	for {
		n, err := stream.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if err != nil {
			if err != io.EOF {
				s.log.Warn("chat stream interrupted", "doc_id", docID, "error", err)
			}
			return
		}
	}
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	docID, ok := s.docID(w, r)
	if !ok {
		return
	}

	// The body is optional; an absent or empty body means default budget.
	var req summaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": validationErrors(err)})
		return
	}

	result, err := s.svc.Summarize(r.Context(), docID, req.MaxChunks)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, "document not found", http.StatusNotFound)
			return
		}
		if errors.Is(err, assistant.ErrEmptyDocument) {
			jsonError(w, "no content found in document", http.StatusNotFound)
			return
		}
		if s.writeGeneratorError(w, err) {
			return
		}
		s.log.Error("summary failed", "doc_id", docID, "error", err)
		jsonError(w, "failed to generate summary: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// writeGeneratorError maps gateway failures onto the user-facing responses:
// rate limits are retryable, exhausted credits are billing-blocked.
func (s *Server) writeGeneratorError(w http.ResponseWriter, err error) bool {
	var retryErr *generator.RetryableError
	if errors.As(err, &retryErr) && retryErr.StatusCode == http.StatusTooManyRequests {
		jsonError(w, "Rate limited. Please try again in a moment.", http.StatusTooManyRequests)
		return true
	}
	if errors.Is(err, generator.ErrQuotaExhausted) {
		jsonError(w, "AI credits exhausted. Please add funds.", http.StatusPaymentRequired)
		return true
	}
	return false
}

func (s *Server) docID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "docID"))
	if err != nil {
		jsonError(w, "invalid document id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
