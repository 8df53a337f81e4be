package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/rbac"
)

type putQuestionReq struct {
	QuestionID string           `json:"questionId"`
	QuizID     string           `json:"quizId"`
	Type       string           `json:"type"`
	Prompt     string           `json:"prompt"`
	Points     *decimal.Decimal `json:"points"`
	Content    json.RawMessage  `json:"content"`
}

// GET /question-types
func QuestionTypesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, quiz.Types())
	}
}

// POST /questions
// Creates or replaces a question; the stored version increases on every edit.
func PutQuestionHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req putQuestionReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		t, err := quiz.ParseType(req.Type)
		if err != nil {
			writeError(w, r, err)
			return
		}
		q := quiz.Question{
			ID:      strings.TrimSpace(req.QuestionID),
			QuizID:  req.QuizID,
			Type:    t,
			Prompt:  req.Prompt,
			Points:  quiz.DefaultPoints,
			Content: req.Content,
		}
		if req.Points != nil {
			q.Points = *req.Points
		}
		if err := q.Validate(); err != nil {
			writeError(w, r, err)
			return
		}
		saved, err := store.PutQuestion(r.Context(), q)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, saved)
	}
}

// GET /questions/{questionID}
// The answer key is returned only to roles that may author questions.
func GetQuestionHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := store.GetQuestion(r.Context(), chi.URLParam(r, "questionID"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		if !rbac.Allowed(rbac.RoleFromContext(r.Context()), rbac.PermQuestionCreate) {
			q.Content = nil
		}
		writeJSON(w, http.StatusOK, q)
	}
}
