package grading_test

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/mind-engage/mindengage-quiz/internal/grading"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

func TestNormalize_AcceptsBareAndWrappedShapes(t *testing.T) {
	cases := []struct {
		name string
		typ  quiz.Type
		bare string
		wrap string
		want grading.Answer
	}{
		{"single", quiz.TypeSingleChoice, `"b"`, `{"selectedOptionId":"b"}`, grading.SingleChoiceAnswer{SelectedOptionID: "b"}},
		{"multi", quiz.TypeMultiChoice, `["c","a","c"]`, `{"selectedOptionIds":["a","c"]}`, grading.MultiChoiceAnswer{SelectedOptionIDs: []string{"a", "c"}}},
		{"true_false", quiz.TypeTrueFalse, `false`, `{"answer":false}`, grading.TrueFalseAnswer{Answer: false}},
		{"fill", quiz.TypeFillBlank, `["x"," y "]`, `{"answers":["x"," y "]}`, grading.FillBlankAnswer{Answers: []string{"x", " y "}}},
		{"drag_drop", quiz.TypeDragDropBlank,
			`[{"position":1,"selected_id":"w2"},{"position":0,"selectedId":"w1"}]`,
			`{"blanks":[{"position":0,"selected_id":"w1"},{"position":1,"selected_id":"w2"}]}`,
			grading.DragDropBlankAnswer{Blanks: []grading.BlankSelection{{Position: 0, SelectedID: "w1"}, {Position: 1, SelectedID: "w2"}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for _, raw := range []string{tc.bare, tc.wrap} {
				got, err := grading.Normalize(tc.typ, json.RawMessage(raw))
				if err != nil {
					t.Fatalf("Normalize(%s): %v", raw, err)
				}
				if !reflect.DeepEqual(got, tc.want) {
					t.Fatalf("Normalize(%s) = %#v, want %#v", raw, got, tc.want)
				}
			}
		})
	}
}

func TestNormalize_WrappedOnlyShapes(t *testing.T) {
	got, err := grading.Normalize(quiz.TypeMatching, json.RawMessage(`{"pairs":[{"left":"a","right":"1"}]}`))
	if err != nil {
		t.Fatalf("matching: %v", err)
	}
	if want := (grading.MatchingAnswer{Pairs: []quiz.Pair{{Left: "a", Right: "1"}}}); !reflect.DeepEqual(got, want) {
		t.Fatalf("matching = %#v", got)
	}

	got, err = grading.Normalize(quiz.TypeOrdering, json.RawMessage(`{"order":["x","y"]}`))
	if err != nil {
		t.Fatalf("ordering: %v", err)
	}
	if want := (grading.OrderingAnswer{Order: []string{"x", "y"}}); !reflect.DeepEqual(got, want) {
		t.Fatalf("ordering = %#v", got)
	}

	got, err = grading.Normalize(quiz.TypeEssay, json.RawMessage(`"long text"`))
	if err != nil {
		t.Fatalf("essay: %v", err)
	}
	if want := (grading.FreeTextAnswer{Text: "long text"}); got != want {
		t.Fatalf("essay = %#v", got)
	}
}

func TestNormalize_RejectsUnrecognizedShapes(t *testing.T) {
	cases := []struct {
		typ quiz.Type
		raw string
	}{
		{quiz.TypeSingleChoice, `null`},
		{quiz.TypeSingleChoice, `3`},
		{quiz.TypeSingleChoice, `{"selectedOptionId":null}`},
		{quiz.TypeMultiChoice, `"a"`},
		{quiz.TypeMultiChoice, `["a",1]`},
		{quiz.TypeTrueFalse, `"true"`},
		{quiz.TypeTrueFalse, `{"answer":null}`},
		{quiz.TypeMatching, `[{"left":"a","right":"1"}]`},
		{quiz.TypeMatching, `{"pairs":[{"left":"a"}]}`},
		{quiz.TypeOrdering, `["x","y"]`},
		{quiz.TypeFillBlank, `"paris"`},
		{quiz.TypeDragDropBlank, `{"blanks":[{"position":0}]}`},
		{quiz.TypeDragDropBlank, `[{"position":"0","selected_id":"w1"}]`},
		{quiz.TypeShortAnswer, `{"text":"hi"}`},
		{quiz.TypeShortAnswer, ``},
		{quiz.Type("hotspot"), `"a"`},
	}
	for _, tc := range cases {
		_, err := grading.Normalize(tc.typ, json.RawMessage(tc.raw))
		if !errors.Is(err, grading.ErrUnrecognizedShape) {
			t.Errorf("Normalize(%s, %s) err = %v, want ErrUnrecognizedShape", tc.typ, tc.raw, err)
		}
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []struct {
		typ quiz.Type
		raw string
	}{
		{quiz.TypeSingleChoice, `{"selectedOptionId":"b"}`},
		{quiz.TypeMultiChoice, `["z","a","a"]`},
		{quiz.TypeMultiChoice, `[]`},
		{quiz.TypeTrueFalse, `true`},
		{quiz.TypeMatching, `{"pairs":[{"left":"b","right":"2"},{"left":"a","right":"1"}]}`},
		{quiz.TypeOrdering, `{"order":[]}`},
		{quiz.TypeFillBlank, `[" Paris "]`},
		{quiz.TypeDragDropBlank, `[{"position":2,"selected_id":"w"},{"selected_id":"v"}]`},
		{quiz.TypeEssay, `"text"`},
	}
	for _, in := range inputs {
		typ, raw := in.typ, in.raw
		first, err := grading.Normalize(typ, json.RawMessage(raw))
		if err != nil {
			t.Fatalf("%s: %v", typ, err)
		}
		b, err := json.Marshal(first)
		if err != nil {
			t.Fatalf("%s marshal: %v", typ, err)
		}
		second, err := grading.Normalize(typ, b)
		if err != nil {
			t.Fatalf("%s renormalize %s: %v", typ, b, err)
		}
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("%s not idempotent: %#v vs %#v", typ, first, second)
		}
	}
}
