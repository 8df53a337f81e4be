package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-quiz/internal/scoring"
)

// POST /responses  {"questionId", "attemptId", "answer"}
func SubmitResponseHandler(svc Scoring) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var sub scoring.Submission
		if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if sub.AttemptID == "" {
			http.Error(w, "attemptId required", http.StatusBadRequest)
			return
		}
		if _, ok := ownedAttempt(w, r, svc, sub.AttemptID); !ok {
			return
		}
		resp, err := svc.Score(r.Context(), sub)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}

// GET /responses/{responseID}
func GetResponseHandler(svc Scoring) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := svc.GetResponse(r.Context(), chi.URLParam(r, "responseID"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		if _, ok := ownedAttempt(w, r, svc, resp.AttemptID); !ok {
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// POST /responses/{responseID}/grade  {"pointsEarned", "pointsPossible", "correct", "gradingDetails"}
func GradeResponseHandler(svc Scoring) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var m scoring.ManualGrade
		if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		resp, err := svc.Regrade(r.Context(), chi.URLParam(r, "responseID"), m)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
