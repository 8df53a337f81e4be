package grading

import (
	"encoding/json"
	"errors"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

type Verdict string

const (
	Incorrect Verdict = "incorrect"
	Correct   Verdict = "correct"
	Ungraded  Verdict = "ungraded" // awaiting a manual grade
)

// Reasons recorded in Details when a verdict was not reached by comparison.
const (
	ReasonNoStrategy       = "no_strategy"
	ReasonMalformedKey     = "malformed_answer_key"
	ReasonUnrecognized     = "unrecognized_answer_shape"
	ReasonKindMismatch     = "answer_kind_mismatch"
	ReasonManualRequired   = "manual_grading_required"
	ReasonBlankCount       = "blank_count_mismatch"
	ReasonLengthMismatch   = "length_mismatch"
	ReasonMissingAccepted  = "blank_without_accepted_answers"
	ReasonMissingKeyAnswer = "answer_key_incomplete"
)

// PartResult is the outcome for one blank of a fill-in-blank question.
type PartResult struct {
	Position int    `json:"position"`
	Correct  bool   `json:"correct"`
	Note     string `json:"note,omitempty"`
}

// Details is the grading-detail record persisted with a response.
type Details struct {
	AutoGraded           bool         `json:"auto_graded"`
	Verdict              Verdict      `json:"verdict"`
	Reason               string       `json:"reason,omitempty"`
	PartialCreditApplied bool         `json:"partial_credit_applied"`
	Parts                []PartResult `json:"parts,omitempty"`
	Feedback             []string     `json:"feedback,omitempty"`
}

// Result is the outcome of grading a single answer.
type Result struct {
	Verdict Verdict
	Details Details
}

// Correct maps the verdict onto a response's correct flag; nil when ungraded.
func (r Result) Correct() *bool {
	if r.Verdict == Ungraded {
		return nil
	}
	ok := r.Verdict == Correct
	return &ok
}

// DetailsJSON is the persisted form of r.Details.
func (r Result) DetailsJSON() json.RawMessage {
	b, err := json.Marshal(r.Details)
	if err != nil {
		return nil
	}
	return b
}

// Strategy grades one kind of question. Implementations are pure.
type Strategy interface {
	Grade(key quiz.AnswerKey, ans Answer) Result
}

type Option func(*config)

type config struct {
	PartialCredit bool
}

// WithPartialCredit is accepted for forward compatibility. Scoring is
// all-or-nothing regardless of its value and Details.PartialCreditApplied
// stays false.
func WithPartialCredit(b bool) Option { return func(c *config) { c.PartialCredit = b } }

// Grader routes by question kind to the registered Strategy. Register all
// strategies before sharing a Grader between goroutines.
type Grader struct {
	strategies map[quiz.Kind]Strategy
	cfg        config
}

// NewGrader installs the built-in strategies.
func NewGrader(opts ...Option) *Grader {
	g := &Grader{strategies: map[quiz.Kind]Strategy{
		quiz.KindSingleChoice:  typed[quiz.SingleChoiceKey, SingleChoiceAnswer](gradeSingleChoice),
		quiz.KindMultiChoice:   typed[quiz.MultiChoiceKey, MultiChoiceAnswer](gradeMultiChoice),
		quiz.KindTrueFalse:     typed[quiz.TrueFalseKey, TrueFalseAnswer](gradeTrueFalse),
		quiz.KindMatching:      typed[quiz.MatchingKey, MatchingAnswer](gradeMatching),
		quiz.KindOrdering:      typed[quiz.OrderingKey, OrderingAnswer](gradeOrdering),
		quiz.KindFillBlank:     typed[quiz.FillBlankKey, FillBlankAnswer](gradeFillBlank),
		quiz.KindDragDropBlank: typed[quiz.DragDropBlankKey, DragDropBlankAnswer](gradeDragDrop),
		quiz.KindFreeText:      typed[quiz.FreeTextKey, FreeTextAnswer](gradeFreeText),
	}}
	for _, o := range opts {
		o(&g.cfg)
	}
	return g
}

// Register adds or replaces the strategy for k.
func (g *Grader) Register(k quiz.Kind, s Strategy) { g.strategies[k] = s }

// Grade evaluates a canonical answer against a parsed key.
func (g *Grader) Grade(t quiz.Type, key quiz.AnswerKey, ans Answer) Result {
	s, ok := g.strategies[t.Kind()]
	if !ok {
		return ungraded(ReasonNoStrategy)
	}
	if key == nil || ans == nil || key.Kind() != t.Kind() || ans.Kind() != t.Kind() {
		return incorrect(ReasonKindMismatch)
	}
	return finish(s.Grade(key, ans))
}

// Evaluate parses the stored key, normalizes the raw answer and grades it.
// It never fails: bad keys and unrecognized answers grade as incorrect, and
// types without a strategy stay ungraded.
func (g *Grader) Evaluate(t quiz.Type, rawKey, rawAnswer json.RawMessage) Result {
	if _, ok := g.strategies[t.Kind()]; !ok {
		return ungraded(ReasonNoStrategy)
	}
	key, err := quiz.ParseKey(t, rawKey)
	if err != nil {
		r := incorrect(ReasonMalformedKey)
		r.Details.Feedback = []string{err.Error()}
		return r
	}
	ans, err := Normalize(t, rawAnswer)
	if err != nil {
		r := incorrect(ReasonUnrecognized)
		var ne *NormalizationError
		if errors.As(err, &ne) {
			r.Details.Feedback = []string{ne.Reason}
		}
		return r
	}
	return g.Grade(t, key, ans)
}

func finish(r Result) Result {
	r.Details.Verdict = r.Verdict
	r.Details.AutoGraded = r.Verdict != Ungraded
	r.Details.PartialCreditApplied = false
	return r
}

func verdict(ok bool) Result {
	if ok {
		return finish(Result{Verdict: Correct})
	}
	return finish(Result{Verdict: Incorrect})
}

func incorrect(reason string) Result {
	return finish(Result{Verdict: Incorrect, Details: Details{Reason: reason}})
}

func ungraded(reason string) Result {
	return finish(Result{Verdict: Ungraded, Details: Details{Reason: reason}})
}

// typed adapts a grading func over concrete key and answer types to Strategy.
type typed[K quiz.AnswerKey, A Answer] func(K, A) Result

func (f typed[K, A]) Grade(key quiz.AnswerKey, ans Answer) Result {
	k, ok := key.(K)
	if !ok {
		return incorrect(ReasonKindMismatch)
	}
	a, ok := ans.(A)
	if !ok {
		return incorrect(ReasonKindMismatch)
	}
	return f(k, a)
}
