package quiz

import (
	"fmt"
	"sort"
	"strings"
)

// Type is the stored question-type tag.
type Type string

const (
	TypeSingleChoice  Type = "multiple_choice_single"
	TypeMultiChoice   Type = "multiple_choice_multi"
	TypeTrueFalse     Type = "true_false"
	TypeMatching      Type = "matching"
	TypeOrdering      Type = "ordering"
	TypeFillBlank     Type = "fill_in_blank"
	TypeDragDropBlank Type = "fill_in_blank_drag_drop"
	TypeShortAnswer   Type = "short_answer"
	TypeEssay         Type = "essay"
)

// Kind is the structural variant of a question: it fixes the shape of the
// answer key and of the canonical submitted answer. Several tags may share
// a kind (short_answer and essay are both free text).
type Kind int

const (
	KindUnknown Kind = iota
	KindSingleChoice
	KindMultiChoice
	KindTrueFalse
	KindMatching
	KindOrdering
	KindFillBlank
	KindDragDropBlank
	KindFreeText
)

func (k Kind) String() string {
	switch k {
	case KindSingleChoice:
		return "single_choice"
	case KindMultiChoice:
		return "multi_choice"
	case KindTrueFalse:
		return "true_false"
	case KindMatching:
		return "matching"
	case KindOrdering:
		return "ordering"
	case KindFillBlank:
		return "fill_in_blank"
	case KindDragDropBlank:
		return "fill_in_blank_drag_drop"
	case KindFreeText:
		return "free_text"
	default:
		return "unknown"
	}
}

// TypeInfo describes one catalog entry.
type TypeInfo struct {
	Type         Type     `json:"type"`
	Kind         string   `json:"kind"`
	AutoGradable bool     `json:"auto_gradable"`
	KeyFields    []string `json:"key_fields"`
	AnswerShapes []string `json:"answer_shapes"`

	kind Kind
}

var catalog = map[Type]TypeInfo{
	TypeSingleChoice: {
		kind:         KindSingleChoice,
		AutoGradable: true,
		KeyFields:    []string{"correct_answer", "options"},
		AnswerShapes: []string{`"a"`, `{"selectedOptionId":"a"}`},
	},
	TypeMultiChoice: {
		kind:         KindMultiChoice,
		AutoGradable: true,
		KeyFields:    []string{"correct_answers", "options"},
		AnswerShapes: []string{`["a","c"]`, `{"selectedOptionIds":["a","c"]}`},
	},
	TypeTrueFalse: {
		kind:         KindTrueFalse,
		AutoGradable: true,
		KeyFields:    []string{"correctAnswer"},
		AnswerShapes: []string{`true`, `{"answer":true}`},
	},
	TypeMatching: {
		kind:         KindMatching,
		AutoGradable: true,
		KeyFields:    []string{"correct_pairs", "left_items", "right_items"},
		AnswerShapes: []string{`{"pairs":[{"left":"1","right":"a"}]}`},
	},
	TypeOrdering: {
		kind:         KindOrdering,
		AutoGradable: true,
		KeyFields:    []string{"correct_order", "items"},
		AnswerShapes: []string{`{"order":["x","y","z"]}`},
	},
	TypeFillBlank: {
		kind:         KindFillBlank,
		AutoGradable: true,
		KeyFields:    []string{"template", "blanks"},
		AnswerShapes: []string{`["paris"]`, `{"answers":["paris"]}`},
	},
	TypeDragDropBlank: {
		kind:         KindDragDropBlank,
		AutoGradable: true,
		KeyFields:    []string{"template", "blanks", "word_bank", "allow_reuse"},
		AnswerShapes: []string{`{"blanks":[{"position":1,"selected_id":"w1"}]}`, `[{"position":1,"selected_id":"w1"}]`},
	},
	TypeShortAnswer: {
		kind:         KindFreeText,
		KeyFields:    []string{"sample_answer", "max_words"},
		AnswerShapes: []string{`"free text"`},
	},
	TypeEssay: {
		kind:         KindFreeText,
		KeyFields:    []string{"sample_answer", "max_words"},
		AnswerShapes: []string{`"free text"`},
	},
}

// ParseType resolves a tag case-insensitively.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := catalog[t]; !ok {
		return "", &ValidationError{Field: "type", Reason: fmt.Sprintf("unknown question type %q", s)}
	}
	return t, nil
}

// Kind returns the structural variant of t, or KindUnknown.
func (t Type) Kind() Kind {
	return catalog[Type(strings.ToLower(string(t)))].kind
}

// AutoGradable reports whether responses of this type are graded without review.
func (t Type) AutoGradable() bool {
	return catalog[Type(strings.ToLower(string(t)))].AutoGradable
}

// Describe returns the catalog entry for t.
func Describe(t Type) (TypeInfo, bool) {
	info, ok := catalog[Type(strings.ToLower(string(t)))]
	if !ok {
		return TypeInfo{}, false
	}
	info.Type = Type(strings.ToLower(string(t)))
	info.Kind = info.kind.String()
	return info, true
}

// Types lists every supported tag in a stable order.
func Types() []TypeInfo {
	out := make([]TypeInfo, 0, len(catalog))
	for t := range catalog {
		info, _ := Describe(t)
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}
