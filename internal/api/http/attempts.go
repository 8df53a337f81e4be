package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	authmw "github.com/mind-engage/mindengage-quiz/internal/auth/middleware"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/rbac"
	"github.com/mind-engage/mindengage-quiz/internal/scoring"
)

// Scoring is the part of scoring.Service the handlers use.
type Scoring interface {
	Score(ctx context.Context, sub scoring.Submission) (quiz.Response, error)
	Regrade(ctx context.Context, responseID string, m scoring.ManualGrade) (quiz.Response, error)
	Complete(ctx context.Context, attemptID string) (quiz.Attempt, error)
	StartAttempt(ctx context.Context, quizID, userID string, timeLimit time.Duration) (quiz.Attempt, error)
	GetAttempt(ctx context.Context, id string) (quiz.Attempt, error)
	GetResponse(ctx context.Context, id string) (quiz.Response, error)
	ListResponses(ctx context.Context, attemptID string) ([]quiz.Response, error)
}

type completeResp struct {
	AttemptID        string             `json:"attemptId"`
	TotalScore       decimal.Decimal    `json:"totalScore"`
	MaxPossibleScore decimal.Decimal    `json:"maxPossibleScore"`
	ScorePercentage  *decimal.Decimal   `json:"scorePercentage"`
	Status           quiz.AttemptStatus `json:"status"`
}

// POST /attempts  {"quizId": "...", "userId": "...", "timeLimitSec": 600}
// Learners always start attempts for themselves.
func CreateAttemptHandler(svc Scoring) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			QuizID       string `json:"quizId"`
			UserID       string `json:"userId"`
			TimeLimitSec int    `json:"timeLimitSec"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.QuizID == "" {
			http.Error(w, "quizId required", http.StatusBadRequest)
			return
		}
		if req.TimeLimitSec < 0 {
			http.Error(w, "timeLimitSec must not be negative", http.StatusBadRequest)
			return
		}
		if req.UserID == "" || !rbac.Allowed(rbac.RoleFromContext(r.Context()), rbac.PermAttemptViewAll) {
			req.UserID = authmw.SubjectFromContext(r.Context())
		}
		a, err := svc.StartAttempt(r.Context(), req.QuizID, req.UserID, time.Duration(req.TimeLimitSec)*time.Second)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, a)
	}
}

// GET /attempts/{attemptID}
func GetAttemptHandler(svc Scoring) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := ownedAttempt(w, r, svc, chi.URLParam(r, "attemptID"))
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

// GET /attempts/{attemptID}/responses
func ListAttemptResponsesHandler(svc Scoring) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := ownedAttempt(w, r, svc, chi.URLParam(r, "attemptID"))
		if !ok {
			return
		}
		rs, err := svc.ListResponses(r.Context(), a.ID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, rs)
	}
}

// POST /attempts/{attemptID}/complete
func CompleteAttemptHandler(svc Scoring) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := ownedAttempt(w, r, svc, chi.URLParam(r, "attemptID"))
		if !ok {
			return
		}
		done, err := svc.Complete(r.Context(), a.ID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, completeResp{
			AttemptID:        done.ID,
			TotalScore:       done.TotalScore,
			MaxPossibleScore: done.MaxPossibleScore,
			ScorePercentage:  done.ScorePercentage,
			Status:           done.Status,
		})
	}
}

// ownedAttempt loads the attempt and enforces that learners only reach their
// own. It writes the error response itself when it returns false.
func ownedAttempt(w http.ResponseWriter, r *http.Request, svc Scoring, id string) (quiz.Attempt, bool) {
	a, err := svc.GetAttempt(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return quiz.Attempt{}, false
	}
	if !canAccess(r, a) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return quiz.Attempt{}, false
	}
	return a, true
}

func canAccess(r *http.Request, a quiz.Attempt) bool {
	if rbac.Allowed(rbac.RoleFromContext(r.Context()), rbac.PermAttemptViewAll) {
		return true
	}
	sub := authmw.SubjectFromContext(r.Context())
	return sub != "" && sub == a.UserID
}
