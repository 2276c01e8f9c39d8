package api

import "github.com/go-playground/validator/v10"

type ingestPage struct {
	PageNumber int    `json:"pageNumber" validate:"required,min=1"`
	Text       string `json:"text"`
}

type ingestRequest struct {
	Name  string       `json:"name" validate:"required"`
	Pages []ingestPage `json:"pages" validate:"required,min=1,dive"`
}

type answerRequest struct {
	QuestionID string `json:"questionId" validate:"required,uuid"`
}

type chatTurn struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required"`
}

type chatRequest struct {
	Message string     `json:"message" validate:"required"`
	History []chatTurn `json:"history" validate:"omitempty,dive"`
}

type summaryRequest struct {
	MaxChunks int `json:"maxChunks" validate:"omitempty,min=1,max=500"`
}

// validationErrors flattens validator output into a field -> reason map.
func validationErrors(err error) map[string]string {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"body": err.Error()}
	}
	out := make(map[string]string, len(errs))
	for _, e := range errs {
		out[e.Field()] = "failed on '" + e.Tag() + "' tag"
	}
	return out
}
