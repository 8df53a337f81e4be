package grading

import (
	"slices"
	"sort"
	"strings"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

func gradeSingleChoice(k quiz.SingleChoiceKey, a SingleChoiceAnswer) Result {
	return verdict(a.SelectedOptionID == k.CorrectAnswer)
}

// gradeMultiChoice compares id sets; any missing or extra id fails.
func gradeMultiChoice(k quiz.MultiChoiceKey, a MultiChoiceAnswer) Result {
	return verdict(slices.Equal(stringSet(k.CorrectAnswers), stringSet(a.SelectedOptionIDs)))
}

func gradeTrueFalse(k quiz.TrueFalseKey, a TrueFalseAnswer) Result {
	if k.CorrectAnswer == nil {
		return incorrect(ReasonMissingKeyAnswer)
	}
	return verdict(*k.CorrectAnswer == a.Answer)
}

func gradeMatching(k quiz.MatchingKey, a MatchingAnswer) Result {
	if len(k.CorrectPairs) != len(a.Pairs) {
		return incorrect(ReasonLengthMismatch)
	}
	return verdict(slices.Equal(sortedPairs(k.CorrectPairs), sortedPairs(a.Pairs)))
}

func sortedPairs(in []quiz.Pair) []quiz.Pair {
	out := slices.Clone(in)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Left < out[j].Left })
	return out
}

func gradeOrdering(k quiz.OrderingKey, a OrderingAnswer) Result {
	if len(k.CorrectOrder) != len(a.Order) {
		return incorrect(ReasonLengthMismatch)
	}
	return verdict(slices.Equal(k.CorrectOrder, a.Order))
}

// gradeFillBlank checks each submitted string, folded, against the folded
// accepted answers of the blank at the same index in the key's stored order.
// Position only labels the part.
func gradeFillBlank(k quiz.FillBlankKey, a FillBlankAnswer) Result {
	blanks := k.Blanks
	if len(blanks) != len(a.Answers) {
		return incorrect(ReasonBlankCount)
	}
	parts := make([]PartResult, len(blanks))
	all := true
	for i, b := range blanks {
		p := PartResult{Position: b.Position}
		switch {
		case len(b.AcceptedAnswers) == 0:
			p.Note = ReasonMissingAccepted
		default:
			got := fold(a.Answers[i])
			p.Correct = slices.ContainsFunc(b.AcceptedAnswers, func(s string) bool { return fold(s) == got })
		}
		all = all && p.Correct
		parts[i] = p
	}
	r := verdict(all)
	r.Details.Parts = parts
	return r
}

// gradeDragDrop pairs selections with key blanks by position order, since
// both sides carry the blank position. Each selection must name one of the
// blank's accepted word bank ids.
func gradeDragDrop(k quiz.DragDropBlankKey, a DragDropBlankAnswer) Result {
	blanks := sortedBlanks(k.Blanks)
	if len(blanks) != len(a.Blanks) {
		return incorrect(ReasonBlankCount)
	}
	parts := make([]PartResult, len(blanks))
	all := true
	for i, b := range blanks {
		p := PartResult{Position: b.Position}
		id := strings.TrimSpace(a.Blanks[i].SelectedID)
		switch {
		case len(b.AcceptedAnswers) == 0:
			p.Note = ReasonMissingAccepted
		case id == "":
			p.Note = "empty selection"
		default:
			p.Correct = slices.ContainsFunc(b.AcceptedAnswers, func(s string) bool { return strings.TrimSpace(s) == id })
		}
		all = all && p.Correct
		parts[i] = p
	}
	r := verdict(all)
	r.Details.Parts = parts
	return r
}

func sortedBlanks(in []quiz.Blank) []quiz.Blank {
	out := slices.Clone(in)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

func gradeFreeText(_ quiz.FreeTextKey, _ FreeTextAnswer) Result {
	return ungraded(ReasonManualRequired)
}
