package grading

import (
	"encoding/json"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

// Answer is the canonical form of a submitted answer. Each concrete type
// marshals to one of the shapes Normalize accepts for its kind, so
// normalizing a canonical answer again yields the same value.
type Answer interface {
	Kind() quiz.Kind
}

type SingleChoiceAnswer struct {
	SelectedOptionID string `json:"selectedOptionId"`
}

// MultiChoiceAnswer holds a de-duplicated, sorted id set.
type MultiChoiceAnswer struct {
	SelectedOptionIDs []string `json:"selectedOptionIds"`
}

type TrueFalseAnswer struct {
	Answer bool `json:"answer"`
}

type MatchingAnswer struct {
	Pairs []quiz.Pair `json:"pairs"`
}

type OrderingAnswer struct {
	Order []string `json:"order"`
}

type FillBlankAnswer struct {
	Answers []string `json:"answers"`
}

type BlankSelection struct {
	Position   int    `json:"position"`
	SelectedID string `json:"selected_id"`
}

// DragDropBlankAnswer holds selections stably sorted by position.
type DragDropBlankAnswer struct {
	Blanks []BlankSelection `json:"blanks"`
}

type FreeTextAnswer struct {
	Text string
}

func (a FreeTextAnswer) MarshalJSON() ([]byte, error) { return json.Marshal(a.Text) }

func (SingleChoiceAnswer) Kind() quiz.Kind  { return quiz.KindSingleChoice }
func (MultiChoiceAnswer) Kind() quiz.Kind   { return quiz.KindMultiChoice }
func (TrueFalseAnswer) Kind() quiz.Kind     { return quiz.KindTrueFalse }
func (MatchingAnswer) Kind() quiz.Kind      { return quiz.KindMatching }
func (OrderingAnswer) Kind() quiz.Kind      { return quiz.KindOrdering }
func (FillBlankAnswer) Kind() quiz.Kind     { return quiz.KindFillBlank }
func (DragDropBlankAnswer) Kind() quiz.Kind { return quiz.KindDragDropBlank }
func (FreeTextAnswer) Kind() quiz.Kind      { return quiz.KindFreeText }
