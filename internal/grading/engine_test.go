package grading_test

import (
	"encoding/json"
	"testing"

	"github.com/mind-engage/mindengage-quiz/internal/grading"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

func evaluate(t *testing.T, typ quiz.Type, key, answer string) grading.Result {
	t.Helper()
	return grading.NewGrader().Evaluate(typ, json.RawMessage(key), json.RawMessage(answer))
}

func TestEvaluate_Verdicts(t *testing.T) {
	cases := []struct {
		name   string
		typ    quiz.Type
		key    string
		answer string
		want   grading.Verdict
	}{
		{"single exact", quiz.TypeSingleChoice, `{"correct_answer":"b"}`, `"b"`, grading.Correct},
		{"single case sensitive", quiz.TypeSingleChoice, `{"correct_answer":"b"}`, `"B"`, grading.Incorrect},
		{"multi any order", quiz.TypeMultiChoice, `{"correct_answers":["a","c"]}`, `["c","a"]`, grading.Correct},
		{"multi subset", quiz.TypeMultiChoice, `{"correct_answers":["a","c"]}`, `["a"]`, grading.Incorrect},
		{"multi superset", quiz.TypeMultiChoice, `{"correct_answers":["a","c"]}`, `["a","b","c"]`, grading.Incorrect},
		{"multi both empty", quiz.TypeMultiChoice, `{"correct_answers":[]}`, `{"selectedOptionIds":[]}`, grading.Correct},
		{"true_false camel", quiz.TypeTrueFalse, `{"correctAnswer":true}`, `true`, grading.Correct},
		{"true_false snake", quiz.TypeTrueFalse, `{"correct_answer":false}`, `{"answer":true}`, grading.Incorrect},
		{"matching any order", quiz.TypeMatching,
			`{"correctPairs":[{"left":"a","right":"1"},{"left":"b","right":"2"}]}`,
			`{"pairs":[{"left":"b","right":"2"},{"left":"a","right":"1"}]}`, grading.Correct},
		{"matching swapped", quiz.TypeMatching,
			`{"correct_pairs":[{"left":"a","right":"1"},{"left":"b","right":"2"}]}`,
			`{"pairs":[{"left":"a","right":"2"},{"left":"b","right":"1"}]}`, grading.Incorrect},
		{"matching short", quiz.TypeMatching,
			`{"correct_pairs":[{"left":"a","right":"1"},{"left":"b","right":"2"}]}`,
			`{"pairs":[{"left":"a","right":"1"}]}`, grading.Incorrect},
		{"ordering exact", quiz.TypeOrdering, `{"correctOrder":["x","y","z"]}`, `{"order":["x","y","z"]}`, grading.Correct},
		{"ordering short", quiz.TypeOrdering, `{"correct_order":["x","y","z"]}`, `{"order":["x","y"]}`, grading.Incorrect},
		{"ordering swapped", quiz.TypeOrdering, `{"correct_order":["x","y","z"]}`, `{"order":["y","x","z"]}`, grading.Incorrect},
		{"fill trim fold", quiz.TypeFillBlank, `{"blanks":[{"position":0,"accepted_answers":["paris","Paris "]}]}`, `["  paris  "]`, grading.Correct},
		{"fill upper", quiz.TypeFillBlank, `{"blanks":[{"position":0,"accepted_answers":["paris"]}]}`, `{"answers":["PARIS"]}`, grading.Correct},
		{"fill count", quiz.TypeFillBlank, `{"blanks":[{"accepted_answers":["a"]},{"position":1,"accepted_answers":["b"]}]}`, `["a"]`, grading.Incorrect},
		{"fill stored order", quiz.TypeFillBlank,
			`{"blanks":[{"position":2,"accepted_answers":["first"]},{"position":1,"accepted_answers":["second"]}]}`,
			`["first","second"]`, grading.Correct},
		{"fill stored order swapped", quiz.TypeFillBlank,
			`{"blanks":[{"position":2,"accepted_answers":["first"]},{"position":1,"accepted_answers":["second"]}]}`,
			`["second","first"]`, grading.Incorrect},
		{"fill no accepted", quiz.TypeFillBlank, `{"blanks":[{"position":0,"accepted_answers":[]}]}`, `[""]`, grading.Incorrect},
		{"drag drop", quiz.TypeDragDropBlank,
			`{"blanks":[{"position":1,"accepted_answers":["w2"]},{"position":0,"accepted_answers":["w1"]}]}`,
			`{"blanks":[{"position":0,"selected_id":"w1"},{"position":1,"selected_id":"w2"}]}`, grading.Correct},
		{"drag drop wrong", quiz.TypeDragDropBlank,
			`{"blanks":[{"position":0,"accepted_answers":["w1"]}]}`,
			`[{"position":0,"selectedId":"w9"}]`, grading.Incorrect},
		{"drag drop empty id", quiz.TypeDragDropBlank,
			`{"blanks":[{"position":0,"accepted_answers":[""]}]}`,
			`[{"position":0,"selected_id":"  "}]`, grading.Incorrect},
		{"essay", quiz.TypeEssay, ``, `"anything"`, grading.Ungraded},
		{"short answer", quiz.TypeShortAnswer, `{"sample_answer":"x"}`, `"x"`, grading.Ungraded},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := evaluate(t, tc.typ, tc.key, tc.answer)
			if r.Verdict != tc.want {
				t.Fatalf("verdict = %s (%+v), want %s", r.Verdict, r.Details, tc.want)
			}
			if r.Details.Verdict != r.Verdict {
				t.Fatalf("details verdict %s != %s", r.Details.Verdict, r.Verdict)
			}
			if r.Details.PartialCreditApplied {
				t.Fatal("partial credit must never be applied")
			}
		})
	}
}

func TestEvaluate_FailsClosed(t *testing.T) {
	r := evaluate(t, quiz.TypeSingleChoice, `{"correct_answer":`, `"b"`)
	if r.Verdict != grading.Incorrect || r.Details.Reason != grading.ReasonMalformedKey {
		t.Fatalf("malformed key: %+v", r)
	}

	r = evaluate(t, quiz.TypeSingleChoice, `{"correct_answer":"b"}`, `null`)
	if r.Verdict != grading.Incorrect || r.Details.Reason != grading.ReasonUnrecognized {
		t.Fatalf("null answer: %+v", r)
	}
	if len(r.Details.Feedback) == 0 {
		t.Fatal("expected feedback describing the rejected shape")
	}

	r = evaluate(t, quiz.Type("hotspot"), `{}`, `"a"`)
	if r.Verdict != grading.Ungraded || r.Details.Reason != grading.ReasonNoStrategy {
		t.Fatalf("unknown type: %+v", r)
	}
	if r.Correct() != nil {
		t.Fatal("ungraded result must not carry a correct flag")
	}
}

func TestGrade_KindMismatch(t *testing.T) {
	g := grading.NewGrader()
	r := g.Grade(quiz.TypeSingleChoice, quiz.SingleChoiceKey{CorrectAnswer: "a"}, grading.OrderingAnswer{Order: []string{"a"}})
	if r.Verdict != grading.Incorrect || r.Details.Reason != grading.ReasonKindMismatch {
		t.Fatalf("got %+v", r)
	}
}

func TestGrade_DeterministicAndPartialCreditIgnored(t *testing.T) {
	key := quiz.MultiChoiceKey{CorrectAnswers: []string{"a", "b", "c"}}
	ans := grading.MultiChoiceAnswer{SelectedOptionIDs: []string{"a", "b"}}
	plain := grading.NewGrader()
	partial := grading.NewGrader(grading.WithPartialCredit(true))
	for i := 0; i < 3; i++ {
		a := plain.Grade(quiz.TypeMultiChoice, key, ans)
		b := partial.Grade(quiz.TypeMultiChoice, key, ans)
		if a.Verdict != grading.Incorrect || b.Verdict != grading.Incorrect {
			t.Fatalf("run %d: %s / %s", i, a.Verdict, b.Verdict)
		}
		if b.Details.PartialCreditApplied {
			t.Fatal("partial credit flag must stay false")
		}
	}
}

type alwaysCorrect struct{}

func (alwaysCorrect) Grade(quiz.AnswerKey, grading.Answer) grading.Result {
	return grading.Result{Verdict: grading.Correct}
}

func TestRegister_ReplacesStrategy(t *testing.T) {
	g := grading.NewGrader()
	g.Register(quiz.KindFreeText, alwaysCorrect{})
	r := g.Evaluate(quiz.TypeEssay, nil, json.RawMessage(`"x"`))
	if r.Verdict != grading.Correct || !r.Details.AutoGraded {
		t.Fatalf("got %+v", r)
	}
	if c := r.Correct(); c == nil || !*c {
		t.Fatal("expected correct=true")
	}
}

func TestResult_DetailsJSON(t *testing.T) {
	r := evaluate(t, quiz.TypeFillBlank, `{"blanks":[{"position":0,"accepted_answers":["x"]}]}`, `["y"]`)
	var got map[string]any
	if err := json.Unmarshal(r.DetailsJSON(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["auto_graded"] != true || got["verdict"] != "incorrect" || got["partial_credit_applied"] != false {
		t.Fatalf("details = %v", got)
	}
	if parts, _ := got["parts"].([]any); len(parts) != 1 {
		t.Fatalf("parts = %v", got["parts"])
	}
}

func TestFillBlank_PartsFollowKeyOrder(t *testing.T) {
	r := evaluate(t, quiz.TypeFillBlank,
		`{"blanks":[{"position":2,"accepted_answers":["first"]},{"position":1,"accepted_answers":["second"]}]}`,
		`["first","nope"]`)
	want := []grading.PartResult{{Position: 2, Correct: true}, {Position: 1, Correct: false}}
	if r.Verdict != grading.Incorrect || len(r.Details.Parts) != len(want) {
		t.Fatalf("got %+v", r)
	}
	for i, p := range r.Details.Parts {
		if p != want[i] {
			t.Errorf("parts[%d] = %+v, want %+v", i, p, want[i])
		}
	}
}
