package quiz

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// AnswerKey is the type-specific correct-answer definition stored on a
// Question. Exactly one concrete key type exists per Kind.
type AnswerKey interface {
	Kind() Kind
}

type Option struct {
	ID   string `json:"id" validate:"required"`
	Text string `json:"text,omitempty"`
}

type Pair struct {
	Left  string `json:"left" validate:"required"`
	Right string `json:"right" validate:"required"`
}

// Blank is one gap of a fill-in-blank template. For text blanks the accepted
// answers are strings; for drag-drop blanks they are word bank ids.
type Blank struct {
	Position        int      `json:"position"`
	AcceptedAnswers []string `json:"accepted_answers" validate:"required"`
	Hint            string   `json:"hint,omitempty"`
}

type WordBankItem struct {
	ID       string `json:"id" validate:"required"`
	Text     string `json:"text"`
	Category string `json:"category,omitempty"`
}

type SingleChoiceKey struct {
	CorrectAnswer string   `json:"correct_answer" validate:"required"`
	Options       []Option `json:"options,omitempty" validate:"omitempty,dive"`
}

type MultiChoiceKey struct {
	CorrectAnswers []string `json:"correct_answers" validate:"required,dive,required"`
	Options        []Option `json:"options,omitempty" validate:"omitempty,dive"`
}

type TrueFalseKey struct {
	CorrectAnswer *bool `json:"correctAnswer" validate:"required"`
}

type MatchingKey struct {
	CorrectPairs []Pair   `json:"correct_pairs" validate:"required,dive"`
	LeftItems    []Option `json:"left_items,omitempty" validate:"omitempty,dive"`
	RightItems   []Option `json:"right_items,omitempty" validate:"omitempty,dive"`
}

type OrderingKey struct {
	CorrectOrder []string `json:"correct_order" validate:"required,dive,required"`
	Items        []Option `json:"items,omitempty" validate:"omitempty,dive"`
}

type FillBlankKey struct {
	Template string  `json:"template,omitempty"`
	Blanks   []Blank `json:"blanks" validate:"required,dive"`
}

type DragDropBlankKey struct {
	Template   string         `json:"template,omitempty"`
	Blanks     []Blank        `json:"blanks" validate:"required,dive"`
	WordBank   []WordBankItem `json:"word_bank,omitempty" validate:"omitempty,dive"`
	AllowReuse bool           `json:"allow_reuse"`
}

type FreeTextKey struct {
	SampleAnswer string `json:"sample_answer,omitempty"`
	MaxWords     int    `json:"max_words,omitempty" validate:"gte=0"`
}

func (SingleChoiceKey) Kind() Kind  { return KindSingleChoice }
func (MultiChoiceKey) Kind() Kind   { return KindMultiChoice }
func (TrueFalseKey) Kind() Kind     { return KindTrueFalse }
func (MatchingKey) Kind() Kind      { return KindMatching }
func (OrderingKey) Kind() Kind      { return KindOrdering }
func (FillBlankKey) Kind() Kind     { return KindFillBlank }
func (DragDropBlankKey) Kind() Kind { return KindDragDropBlank }
func (FreeTextKey) Kind() Kind      { return KindFreeText }

// Authors' tooling has written both camelCase and snake_case names for these
// fields; both are read, snake_case wins when both are present.

func (k *TrueFalseKey) UnmarshalJSON(b []byte) error {
	var raw struct {
		Camel *bool `json:"correctAnswer"`
		Snake *bool `json:"correct_answer"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	k.CorrectAnswer = raw.Camel
	if raw.Snake != nil {
		k.CorrectAnswer = raw.Snake
	}
	return nil
}

func (k *MatchingKey) UnmarshalJSON(b []byte) error {
	var raw struct {
		Camel      []Pair   `json:"correctPairs"`
		Snake      []Pair   `json:"correct_pairs"`
		LeftItems  []Option `json:"left_items"`
		RightItems []Option `json:"right_items"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	k.CorrectPairs = raw.Camel
	if raw.Snake != nil {
		k.CorrectPairs = raw.Snake
	}
	k.LeftItems, k.RightItems = raw.LeftItems, raw.RightItems
	return nil
}

func (k *OrderingKey) UnmarshalJSON(b []byte) error {
	var raw struct {
		Camel []string `json:"correctOrder"`
		Snake []string `json:"correct_order"`
		Items []Option `json:"items"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	k.CorrectOrder = raw.Camel
	if raw.Snake != nil {
		k.CorrectOrder = raw.Snake
	}
	k.Items = raw.Items
	return nil
}

// ParseKey decodes and validates stored answer-key content for t.
func ParseKey(t Type, raw json.RawMessage) (AnswerKey, error) {
	kind := t.Kind()
	if kind == KindUnknown {
		return nil, &ValidationError{Field: "type", Reason: fmt.Sprintf("unknown question type %q", t)}
	}
	if isEmptyJSON(raw) {
		if kind == KindFreeText {
			return FreeTextKey{}, nil
		}
		return nil, &ValidationError{Field: "content", Reason: "answer key is required"}
	}

	switch kind {
	case KindSingleChoice:
		k, err := decodeKey[SingleChoiceKey](raw)
		if err != nil {
			return nil, err
		}
		if len(k.Options) > 0 && !hasOption(k.Options, k.CorrectAnswer) {
			return nil, &ValidationError{Field: "correct_answer", Reason: "not one of the options"}
		}
		return k, nil
	case KindMultiChoice:
		k, err := decodeKey[MultiChoiceKey](raw)
		if err != nil {
			return nil, err
		}
		if len(k.Options) > 0 {
			for _, id := range k.CorrectAnswers {
				if !hasOption(k.Options, id) {
					return nil, &ValidationError{Field: "correct_answers", Reason: fmt.Sprintf("%q is not one of the options", id)}
				}
			}
		}
		return k, nil
	case KindTrueFalse:
		return keyOrErr(decodeKey[TrueFalseKey](raw))
	case KindMatching:
		return keyOrErr(decodeKey[MatchingKey](raw))
	case KindOrdering:
		return keyOrErr(decodeKey[OrderingKey](raw))
	case KindFillBlank:
		return keyOrErr(decodeKey[FillBlankKey](raw))
	case KindDragDropBlank:
		k, err := decodeKey[DragDropBlankKey](raw)
		if err != nil {
			return nil, err
		}
		if len(k.WordBank) > 0 {
			bank := make(map[string]struct{}, len(k.WordBank))
			for _, w := range k.WordBank {
				bank[w.ID] = struct{}{}
			}
			for i, b := range k.Blanks {
				for _, id := range b.AcceptedAnswers {
					if _, ok := bank[strings.TrimSpace(id)]; !ok {
						return nil, &ValidationError{
							Field:  fmt.Sprintf("blanks[%d].accepted_answers", i),
							Reason: fmt.Sprintf("%q is not in the word bank", id),
						}
					}
				}
			}
		}
		return k, nil
	default:
		return keyOrErr(decodeKey[FreeTextKey](raw))
	}
}

func decodeKey[T any](raw json.RawMessage) (T, error) {
	var k T
	if err := json.Unmarshal(raw, &k); err != nil {
		return k, &ValidationError{Field: "content", Reason: "malformed answer key: " + err.Error()}
	}
	if err := ValidateStruct(k); err != nil {
		return k, err
	}
	return k, nil
}

func keyOrErr[T AnswerKey](k T, err error) (AnswerKey, error) {
	if err != nil {
		return nil, err
	}
	return k, nil
}

func hasOption(opts []Option, id string) bool {
	for _, o := range opts {
		if o.ID == id {
			return true
		}
	}
	return false
}

func isEmptyJSON(raw json.RawMessage) bool {
	b := bytes.TrimSpace(raw)
	return len(b) == 0 || bytes.Equal(b, []byte("null"))
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateStruct runs struct-tag validation and reports the first failure as
// a *ValidationError keyed by the JSON field path.
func ValidateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := fe.Namespace()
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}
		return &ValidationError{Field: field, Reason: fmt.Sprintf("failed %q check", fe.Tag())}
	}
	return &ValidationError{Reason: err.Error()}
}
