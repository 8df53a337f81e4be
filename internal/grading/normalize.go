package grading

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

// ErrUnrecognizedShape is wrapped by every normalization failure.
var ErrUnrecognizedShape = errors.New("unrecognized answer shape")

type NormalizationError struct {
	Type   quiz.Type
	Reason string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("normalize %s answer: %s", e.Type, e.Reason)
}

func (e *NormalizationError) Unwrap() error { return ErrUnrecognizedShape }

// normalizer returns the canonical answer, or a non-empty failure reason.
type normalizer func(raw json.RawMessage) (Answer, string)

var normalizers = map[quiz.Kind]normalizer{
	quiz.KindSingleChoice:  normalizeSingleChoice,
	quiz.KindMultiChoice:   normalizeMultiChoice,
	quiz.KindTrueFalse:     normalizeTrueFalse,
	quiz.KindMatching:      normalizeMatching,
	quiz.KindOrdering:      normalizeOrdering,
	quiz.KindFillBlank:     normalizeFillBlank,
	quiz.KindDragDropBlank: normalizeDragDrop,
	quiz.KindFreeText:      normalizeFreeText,
}

// Normalize reduces a submitted answer, which may arrive bare or wrapped in
// an object, to the canonical form for t. It fails closed: any shape not
// listed for the type is rejected.
func Normalize(t quiz.Type, raw json.RawMessage) (Answer, error) {
	n, ok := normalizers[t.Kind()]
	if !ok {
		return nil, &NormalizationError{Type: t, Reason: "unknown question type"}
	}
	a, reason := n(bytes.TrimSpace(raw))
	if reason != "" {
		return nil, &NormalizationError{Type: t, Reason: reason}
	}
	return a, nil
}

func normalizeSingleChoice(raw json.RawMessage) (Answer, string) {
	if s, ok := asString(raw); ok {
		return SingleChoiceAnswer{SelectedOptionID: s}, ""
	}
	if v, ok := wrapped(raw, "selectedOptionId"); ok {
		if s, ok := asString(v); ok {
			return SingleChoiceAnswer{SelectedOptionID: s}, ""
		}
		return nil, "selectedOptionId must be a string"
	}
	return nil, `expected "id" or {"selectedOptionId": "id"}`
}

func normalizeMultiChoice(raw json.RawMessage) (Answer, string) {
	if ids, ok := asStrings(raw); ok {
		return MultiChoiceAnswer{SelectedOptionIDs: stringSet(ids)}, ""
	}
	if v, ok := wrapped(raw, "selectedOptionIds"); ok {
		if ids, ok := asStrings(v); ok {
			return MultiChoiceAnswer{SelectedOptionIDs: stringSet(ids)}, ""
		}
		return nil, "selectedOptionIds must be an array of strings"
	}
	return nil, `expected ["id", ...] or {"selectedOptionIds": [...]}`
}

func normalizeTrueFalse(raw json.RawMessage) (Answer, string) {
	if b, ok := asBool(raw); ok {
		return TrueFalseAnswer{Answer: b}, ""
	}
	if v, ok := wrapped(raw, "answer"); ok {
		if b, ok := asBool(v); ok {
			return TrueFalseAnswer{Answer: b}, ""
		}
		return nil, "answer must be a boolean"
	}
	return nil, `expected true|false or {"answer": bool}`
}

func normalizeMatching(raw json.RawMessage) (Answer, string) {
	v, ok := wrapped(raw, "pairs")
	if !ok {
		return nil, `expected {"pairs": [{"left","right"}, ...]}`
	}
	items, ok := asArray(v)
	if !ok {
		return nil, "pairs must be an array"
	}
	pairs := make([]quiz.Pair, 0, len(items))
	for i, it := range items {
		obj, ok := asObject(it)
		if !ok {
			return nil, fmt.Sprintf("pairs[%d] must be an object", i)
		}
		left, lok := asString(obj["left"])
		right, rok := asString(obj["right"])
		if !lok || !rok {
			return nil, fmt.Sprintf("pairs[%d] needs string left and right", i)
		}
		pairs = append(pairs, quiz.Pair{Left: left, Right: right})
	}
	return MatchingAnswer{Pairs: pairs}, ""
}

func normalizeOrdering(raw json.RawMessage) (Answer, string) {
	v, ok := wrapped(raw, "order")
	if !ok {
		return nil, `expected {"order": ["id", ...]}`
	}
	order, ok := asStrings(v)
	if !ok {
		return nil, "order must be an array of strings"
	}
	return OrderingAnswer{Order: order}, ""
}

func normalizeFillBlank(raw json.RawMessage) (Answer, string) {
	if answers, ok := asStrings(raw); ok {
		return FillBlankAnswer{Answers: answers}, ""
	}
	if v, ok := wrapped(raw, "answers"); ok {
		if answers, ok := asStrings(v); ok {
			return FillBlankAnswer{Answers: answers}, ""
		}
		return nil, "answers must be an array of strings"
	}
	return nil, `expected ["text", ...] or {"answers": [...]}`
}

func normalizeDragDrop(raw json.RawMessage) (Answer, string) {
	items, ok := asArray(raw)
	if !ok {
		v, wok := wrapped(raw, "blanks")
		if !wok {
			return nil, `expected {"blanks": [...]} or [{"position","selected_id"}, ...]`
		}
		if items, ok = asArray(v); !ok {
			return nil, "blanks must be an array"
		}
	}
	blanks := make([]BlankSelection, 0, len(items))
	for i, it := range items {
		obj, ok := asObject(it)
		if !ok {
			return nil, fmt.Sprintf("blanks[%d] must be an object", i)
		}
		idRaw, ok := obj["selected_id"]
		if !ok {
			idRaw, ok = obj["selectedId"]
		}
		id, sok := asString(idRaw)
		if !ok || !sok {
			return nil, fmt.Sprintf("blanks[%d] needs a string selected_id", i)
		}
		sel := BlankSelection{SelectedID: id}
		if posRaw, ok := obj["position"]; ok {
			if sel.Position, ok = asInt(posRaw); !ok {
				return nil, fmt.Sprintf("blanks[%d].position must be an integer", i)
			}
		}
		blanks = append(blanks, sel)
	}
	sort.SliceStable(blanks, func(i, j int) bool { return blanks[i].Position < blanks[j].Position })
	return DragDropBlankAnswer{Blanks: blanks}, ""
}

func normalizeFreeText(raw json.RawMessage) (Answer, string) {
	if s, ok := asString(raw); ok {
		return FreeTextAnswer{Text: s}, ""
	}
	return nil, "expected a string"
}

// --- JSON shape probes. None of them accept null. ---

func wrapped(raw json.RawMessage, field string) (json.RawMessage, bool) {
	obj, ok := asObject(raw)
	if !ok {
		return nil, false
	}
	v, ok := obj[field]
	return v, ok
}

func asObject(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, false
	}
	return obj, true
}

func asArray(raw json.RawMessage) ([]json.RawMessage, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	return items, true
}

func asString(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func asStrings(raw json.RawMessage) ([]string, bool) {
	items, ok := asArray(raw)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		s, ok := asString(it)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

func asBool(raw json.RawMessage) (bool, bool) {
	switch string(bytes.TrimSpace(raw)) {
	case "true":
		return true, true
	case "false":
		return false, true
	default:
		return false, false
	}
}

func asInt(raw json.RawMessage) (int, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || (raw[0] != '-' && (raw[0] < '0' || raw[0] > '9')) {
		return 0, false
	}
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false
	}
	return n, true
}

// stringSet sorts and de-duplicates ids; the result is never nil.
func stringSet(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
