package quiz

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type AttemptStatus string

const (
	StatusInProgress AttemptStatus = "in_progress"
	StatusCompleted  AttemptStatus = "completed"
)

// DefaultPoints is used when an author saves a question without a point value.
var DefaultPoints = decimal.NewFromInt(10)

type Question struct {
	ID      string          `json:"questionId"`
	QuizID  string          `json:"quizId,omitempty"`
	Type    Type            `json:"type"`
	Prompt  string          `json:"prompt"`
	Points  decimal.Decimal `json:"points"`
	Content json.RawMessage `json:"content"` // answer key, shape fixed by Type
	Version int             `json:"version"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Validate checks the question at the authoring boundary: known type tag,
// non-negative points and an answer key matching the type.
func (q Question) Validate() error {
	if q.ID == "" {
		return &ValidationError{Field: "questionId", Reason: "required"}
	}
	t, err := ParseType(string(q.Type))
	if err != nil {
		return err
	}
	if q.Points.IsNegative() {
		return &ValidationError{Field: "points", Reason: "must not be negative"}
	}
	if !HasPointScale(q.Points) {
		return &ValidationError{Field: "points", Reason: "at most 2 decimal places"}
	}
	_, err = ParseKey(t, q.Content)
	return err
}

// Response is one graded submission for one question within one attempt.
// At most one exists per (AttemptID, QuestionID).
type Response struct {
	ID              string           `json:"responseId"`
	AttemptID       string           `json:"attemptId"`
	QuestionID      string           `json:"questionId"`
	Answer          json.RawMessage  `json:"answer"`
	SubmittedAt     time.Time        `json:"submittedAt"`
	PointsPossible  decimal.Decimal  `json:"pointsPossible"`
	PointsEarned    decimal.Decimal  `json:"pointsEarned"`
	Correct         *bool            `json:"correct"` // nil: not graded yet
	GradingDetails  json.RawMessage  `json:"gradingDetails,omitempty"`
	GradedAt        *time.Time       `json:"gradedAt"`
	ScorePercentage *decimal.Decimal `json:"scorePercentage,omitempty"`
}

type Attempt struct {
	ID               string           `json:"attemptId"`
	QuizID           string           `json:"quizId"`
	UserID           string           `json:"userId"`
	Status           AttemptStatus    `json:"status"`
	StartedAt        time.Time        `json:"startedAt"`
	CompletedAt      *time.Time       `json:"completedAt,omitempty"`
	ExpiresAt        *time.Time       `json:"expiresAt,omitempty"`
	TotalScore       decimal.Decimal  `json:"totalScore"`
	MaxPossibleScore decimal.Decimal  `json:"maxPossibleScore"`
	ScorePercentage  *decimal.Decimal `json:"scorePercentage"`
}

// Expired reports whether an in-progress attempt has passed its deadline.
func (a Attempt) Expired(now time.Time) bool {
	return a.Status == StatusInProgress && a.ExpiresAt != nil && !now.Before(*a.ExpiresAt)
}

// Score is the aggregate written onto an attempt when it completes.
type Score struct {
	Total      decimal.Decimal
	Max        decimal.Decimal
	Percentage *decimal.Decimal
}

// GradeUpdate overwrites the grading fields of a stored response.
type GradeUpdate struct {
	PointsEarned    decimal.Decimal
	PointsPossible  decimal.Decimal
	Correct         *bool
	GradingDetails  json.RawMessage
	GradedAt        time.Time
	ScorePercentage *decimal.Decimal
}

// ResubmitPolicy decides what happens when a question is answered twice in
// the same attempt.
type ResubmitPolicy string

const (
	ResubmitReject  ResubmitPolicy = "reject"
	ResubmitReplace ResubmitPolicy = "replace"
)

func ParseResubmitPolicy(s string) (ResubmitPolicy, error) {
	switch p := ResubmitPolicy(s); p {
	case "", ResubmitReject:
		return ResubmitReject, nil
	case ResubmitReplace:
		return p, nil
	default:
		return "", &ValidationError{Field: "resubmit_policy", Reason: "expected reject|replace, got " + s}
	}
}

// HasPointScale reports whether d fits the 2-place scale points are stored
// with, so every backend keeps the exact value.
func HasPointScale(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}

// Percent returns part/whole*100 rounded to two places, or nil when whole is zero.
func Percent(part, whole decimal.Decimal) *decimal.Decimal {
	if whole.IsZero() {
		return nil
	}
	p := part.Div(whole).Mul(decimal.NewFromInt(100)).Round(2)
	return &p
}
