package quiz

import (
	"context"
	"time"
)

// FinalizeFunc computes the score of an attempt from the responses observed
// inside the completing transaction.
type FinalizeFunc func(a Attempt, responses []Response) Score

type Store interface {
	// Question authoring boundary. PutQuestion bumps Version on edit.
	PutQuestion(ctx context.Context, q Question) (Question, error)
	GetQuestion(ctx context.Context, id string) (Question, error)

	// Attempt lifecycle. timeLimit <= 0 means untimed.
	NewAttempt(ctx context.Context, quizID, userID string, timeLimit time.Duration) (Attempt, error)
	GetAttempt(ctx context.Context, id string) (Attempt, error)
	ListExpiredAttempts(ctx context.Context, now time.Time) ([]string, error)

	// InsertResponse persists r atomically with respect to the attempt state:
	// the attempt must exist, be in progress and not expired at r.SubmittedAt.
	// A second response for the same (attempt, question) returns
	// ErrAlreadyAnswered under ResubmitReject and overwrites the stored row
	// (keeping its id) under ResubmitReplace.
	InsertResponse(ctx context.Context, r Response, policy ResubmitPolicy) (Response, error)
	GetResponse(ctx context.Context, id string) (Response, error)
	ListResponses(ctx context.Context, attemptID string) ([]Response, error)
	UpdateResponseGrade(ctx context.Context, id string, g GradeUpdate) (Response, error)

	// FinalizeAttempt reads all responses and writes the score in one
	// transaction. A completed attempt is returned unchanged and fn is not called.
	FinalizeAttempt(ctx context.Context, attemptID string, at time.Time, fn FinalizeFunc) (Attempt, error)
}
