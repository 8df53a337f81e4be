package http

import (
	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/rbac"
)

// Mount registers the quiz API on a router that already authenticates
// requests (subject and role on the context).
func Mount(r chi.Router, store quiz.Store, svc Scoring) {
	r.Get("/question-types", QuestionTypesHandler())

	r.With(rbac.Require(rbac.PermQuestionCreate)).
		Post("/questions", PutQuestionHandler(store))
	r.With(rbac.Require(rbac.PermQuestionView)).
		Get("/questions/{questionID}", GetQuestionHandler(store))

	r.With(rbac.Require(rbac.PermAttemptCreate)).
		Post("/attempts", CreateAttemptHandler(svc))
	r.With(rbac.RequireAny(rbac.PermAttemptViewOwn, rbac.PermAttemptViewAll)).
		Get("/attempts/{attemptID}", GetAttemptHandler(svc))
	r.With(rbac.RequireAny(rbac.PermAttemptViewOwn, rbac.PermAttemptViewAll)).
		Get("/attempts/{attemptID}/responses", ListAttemptResponsesHandler(svc))
	r.With(rbac.Require(rbac.PermAttemptComplete)).
		Post("/attempts/{attemptID}/complete", CompleteAttemptHandler(svc))

	r.With(rbac.Require(rbac.PermResponseSubmit)).
		Post("/responses", SubmitResponseHandler(svc))
	r.With(rbac.Require(rbac.PermResponseView)).
		Get("/responses/{responseID}", GetResponseHandler(svc))
	r.With(rbac.Require(rbac.PermResponseGrade)).
		Post("/responses/{responseID}/grade", GradeResponseHandler(svc))
}
