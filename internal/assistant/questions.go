package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"studyassist/internal/generator"
	"studyassist/internal/store"
)

// jsonArrayRe extracts the JSON array from a model reply that may wrap it in
// prose or a markdown code fence.
var jsonArrayRe = regexp.MustCompile(`(?s)\[.*\]`)

const minQuestionLen = 10

// GenerateQuestions produces exam questions for a document and anchors each
// question to the chunk batch it was derived from. Questions are generated
// once: if any already exist for the document they are returned as-is.
// Retryable gateway failures skip the affected batch rather than aborting the
// whole run.
func (s *Service) GenerateQuestions(ctx context.Context, documentID uuid.UUID) ([]store.Question, error) {
	existing, err := s.store.QuestionsByDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch questions: %w", err)
	}
	if len(existing) > 0 {
		s.log.Info("returning cached questions", "doc_id", documentID, "count", len(existing))
		return existing, nil
	}

	chunks, err := s.store.ChunksByDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch chunks: %w", err)
	}
	if len(chunks) == 0 {
		return nil, ErrEmptyDocument
	}

	var questions []store.Question
	batchSize := s.cfg.QuestionBatchSize
	for start := 0; start < len(chunks); start += batchSize {
		batch := chunks[start:min(start+batchSize, len(chunks))]

		content, err := s.questionsForBatch(ctx, batch)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.log.Error("question batch failed, skipping", "doc_id", documentID, "batch_start", start, "error", err)
			continue
		}

		anchorIDs := make([]uuid.UUID, len(batch))
		for i, c := range batch {
			anchorIDs[i] = c.ID
		}
		for _, text := range parseQuestionList(content) {
			questions = append(questions, store.Question{
				ID:              uuid.New(),
				DocumentID:      documentID,
				QuestionText:    text,
				RelatedChunkIDs: anchorIDs,
				CreatedAt:       time.Now(),
			})
		}
	}

	if len(questions) == 0 {
		return []store.Question{}, nil
	}
	if err := s.store.SaveQuestions(ctx, questions); err != nil {
		return nil, fmt.Errorf("save questions: %w", err)
	}

	s.log.Info("questions generated", "doc_id", documentID, "count", len(questions))
	return questions, nil
}

// questionsForBatch prompts the generator for one chunk batch, retrying
// transient failures with backoff.
func (s *Service) questionsForBatch(ctx context.Context, batch []store.Chunk) (string, error) {
	var sb strings.Builder
	for i, c := range batch {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "[Chunk %d, Page %d]: %s", i+1, c.PageNumber, c.ParagraphText)
	}

	userPrompt := fmt.Sprintf("Generate exam-oriented questions from the following content. Return ONLY a JSON array of question strings, nothing else.\n\nContent:\n%s\n\nReturn format: [\"Question 1?\", \"Question 2?\", ...]", sb.String())

	messages := []generator.Message{
		{Role: "system", Content: questionSystemPrompt},
		{Role: "user", Content: userPrompt},
	}

	var content string
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		content, lastErr = s.gen.Complete(ctx, messages)
		if lastErr == nil || !isRetryable(lastErr) {
			break
		}
		s.log.Warn("retryable generation error", "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(backoff(attempt)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return content, lastErr
}

// parseQuestionList extracts the question strings from a model reply. Replies
// that contain no parsable JSON array yield nothing; the caller treats that as
// an empty batch.
func parseQuestionList(content string) []string {
	match := jsonArrayRe.FindString(content)
	if match == "" {
		return nil
	}
	var raw []string
	if err := json.Unmarshal([]byte(match), &raw); err != nil {
		return nil
	}
	var questions []string
	for _, q := range raw {
		q = strings.TrimSpace(q)
		if len(q) > minQuestionLen {
			questions = append(questions, q)
		}
	}
	return questions
}
