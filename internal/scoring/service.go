package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mind-engage/mindengage-quiz/internal/grading"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

// Submission is one learner answer. PointsPossible is accepted on the wire
// for compatibility with older clients and never used.
type Submission struct {
	QuestionID     string           `json:"questionId" validate:"required"`
	AttemptID      string           `json:"attemptId" validate:"required"`
	Answer         json.RawMessage  `json:"answer" validate:"required"`
	PointsPossible *decimal.Decimal `json:"pointsPossible,omitempty"`
}

// ManualGrade overwrites the grade of a stored response. Both point fields
// must be present; Correct may be null.
type ManualGrade struct {
	PointsEarned   *decimal.Decimal `json:"pointsEarned" validate:"required"`
	PointsPossible *decimal.Decimal `json:"pointsPossible" validate:"required"`
	Correct        *bool            `json:"correct"`
	GradingDetails json.RawMessage  `json:"gradingDetails,omitempty"`
}

type Service struct {
	store  quiz.Store
	grader *grading.Grader
	log    *log.Logger
	now    func() time.Time
	policy quiz.ResubmitPolicy
}

type Option func(*Service)

func WithLogger(l *log.Logger) Option { return func(s *Service) { s.log = l } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func WithResubmitPolicy(p quiz.ResubmitPolicy) Option {
	return func(s *Service) { s.policy = p }
}

func NewService(store quiz.Store, grader *grading.Grader, opts ...Option) *Service {
	s := &Service{
		store:  store,
		grader: grader,
		log:    log.New(io.Discard, "", 0),
		now:    time.Now,
		policy: quiz.ResubmitReject,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Score grades a submission against the stored question and persists the
// response. Points always come from the question.
func (s *Service) Score(ctx context.Context, sub Submission) (quiz.Response, error) {
	if err := quiz.ValidateStruct(sub); err != nil {
		return quiz.Response{}, err
	}
	if sub.PointsPossible != nil {
		s.log.Printf("[scoring] attempt %s question %s: ignoring client pointsPossible=%s",
			sub.AttemptID, sub.QuestionID, sub.PointsPossible)
	}
	q, err := s.store.GetQuestion(ctx, sub.QuestionID)
	if err != nil {
		return quiz.Response{}, err
	}

	res := s.grader.Evaluate(q.Type, q.Content, sub.Answer)
	switch res.Details.Reason {
	case grading.ReasonMalformedKey, grading.ReasonUnrecognized, grading.ReasonNoStrategy:
		s.log.Printf("[scoring] attempt %s question %s (%s): %s %v",
			sub.AttemptID, q.ID, q.Type, res.Details.Reason, res.Details.Feedback)
	}

	now := s.now().UTC()
	r := quiz.Response{
		ID:             uuid.NewString(),
		AttemptID:      sub.AttemptID,
		QuestionID:     q.ID,
		Answer:         sub.Answer,
		SubmittedAt:    now,
		PointsPossible: q.Points,
		PointsEarned:   decimal.Zero,
		Correct:        res.Correct(),
		GradingDetails: res.DetailsJSON(),
	}
	if res.Verdict == grading.Correct {
		r.PointsEarned = q.Points
	}
	if res.Verdict != grading.Ungraded {
		r.GradedAt = &now
		r.ScorePercentage = quiz.Percent(r.PointsEarned, r.PointsPossible)
	}

	saved, err := s.store.InsertResponse(ctx, r, s.policy)
	if err != nil {
		return quiz.Response{}, fmt.Errorf("save response: %w", err)
	}
	return saved, nil
}

// Regrade applies a manual grade. A completed attempt keeps the totals it
// was completed with.
func (s *Service) Regrade(ctx context.Context, responseID string, m ManualGrade) (quiz.Response, error) {
	if err := quiz.ValidateStruct(m); err != nil {
		return quiz.Response{}, err
	}
	earned, possible := *m.PointsEarned, *m.PointsPossible
	switch {
	case possible.IsNegative():
		return quiz.Response{}, &quiz.ValidationError{Field: "pointsPossible", Reason: "must not be negative"}
	case earned.IsNegative():
		return quiz.Response{}, &quiz.ValidationError{Field: "pointsEarned", Reason: "must not be negative"}
	case !quiz.HasPointScale(possible):
		return quiz.Response{}, &quiz.ValidationError{Field: "pointsPossible", Reason: "at most 2 decimal places"}
	case !quiz.HasPointScale(earned):
		return quiz.Response{}, &quiz.ValidationError{Field: "pointsEarned", Reason: "at most 2 decimal places"}
	case earned.GreaterThan(possible):
		return quiz.Response{}, &quiz.ValidationError{Field: "pointsEarned", Reason: "exceeds pointsPossible"}
	}
	details := m.GradingDetails
	if len(details) == 0 {
		d := grading.Details{Verdict: grading.Ungraded, Reason: "manual_grade"}
		if m.Correct != nil {
			d.Verdict = grading.Incorrect
			if *m.Correct {
				d.Verdict = grading.Correct
			}
		}
		details, _ = json.Marshal(d)
	} else if !json.Valid(details) {
		return quiz.Response{}, &quiz.ValidationError{Field: "gradingDetails", Reason: "not valid JSON"}
	}

	r, err := s.store.UpdateResponseGrade(ctx, responseID, quiz.GradeUpdate{
		PointsEarned:    earned,
		PointsPossible:  possible,
		Correct:         m.Correct,
		GradingDetails:  details,
		GradedAt:        s.now().UTC(),
		ScorePercentage: quiz.Percent(earned, possible),
	})
	if err != nil {
		return quiz.Response{}, err
	}
	s.log.Printf("[scoring] response %s regraded: %s/%s", r.ID, r.PointsEarned, r.PointsPossible)
	return r, nil
}

// Complete aggregates the attempt's responses and closes it. Completing a
// completed attempt returns it unchanged.
func (s *Service) Complete(ctx context.Context, attemptID string) (quiz.Attempt, error) {
	a, err := s.store.FinalizeAttempt(ctx, attemptID, s.now().UTC(), func(_ quiz.Attempt, rs []quiz.Response) quiz.Score {
		return Aggregate(rs)
	})
	if err != nil {
		return quiz.Attempt{}, err
	}
	s.log.Printf("[scoring] attempt %s completed: %s/%s", a.ID, a.TotalScore, a.MaxPossibleScore)
	return a, nil
}

// Aggregate sums earned and possible points. Ungraded responses count
// towards the maximum with zero earned.
func Aggregate(rs []quiz.Response) quiz.Score {
	total, possible := decimal.Zero, decimal.Zero
	for _, r := range rs {
		total = total.Add(r.PointsEarned)
		possible = possible.Add(r.PointsPossible)
	}
	return quiz.Score{Total: total, Max: possible, Percentage: quiz.Percent(total, possible)}
}

// StartAttempt opens an attempt; timeLimit <= 0 leaves it untimed.
func (s *Service) StartAttempt(ctx context.Context, quizID, userID string, timeLimit time.Duration) (quiz.Attempt, error) {
	if userID == "" {
		return quiz.Attempt{}, &quiz.ValidationError{Field: "userId", Reason: "required"}
	}
	return s.store.NewAttempt(ctx, quizID, userID, timeLimit)
}

func (s *Service) GetAttempt(ctx context.Context, id string) (quiz.Attempt, error) {
	return s.store.GetAttempt(ctx, id)
}

func (s *Service) GetResponse(ctx context.Context, id string) (quiz.Response, error) {
	return s.store.GetResponse(ctx, id)
}

func (s *Service) ListResponses(ctx context.Context, attemptID string) ([]quiz.Response, error) {
	return s.store.ListResponses(ctx, attemptID)
}
