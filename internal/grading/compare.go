package grading

import (
	"strings"

	"github.com/SAP-F-2025/homework-service/internal/models"
)

// CompareMultipleSelect reports whether both sides select the same set of
// answers after normalization. The comparison is symmetric.
func CompareMultipleSelect(user, correct []string) bool {
	userSet := normalizedSet(user)
	correctSet := normalizedSet(correct)
	if len(userSet) != len(correctSet) {
		return false
	}
	for answer := range userSet {
		if _, ok := correctSet[answer]; !ok {
			return false
		}
	}
	return true
}

// CompareFillBlank reports whether user equals any correct variant, ignoring
// case, and returns the variant it matched.
func CompareFillBlank(user string, correct []string) (bool, string) {
	userText := CleanQuotes(user)
	if userText == "" {
		return false, ""
	}
	for _, variant := range correct {
		if strings.EqualFold(userText, variant) {
			return true, variant
		}
	}
	return false, ""
}

// multipleSelectKey returns the cleaned, non-empty correct texts.
func multipleSelectKey(texts []string) []string {
	out := make([]string, 0, len(texts))
	for _, text := range texts {
		cleaned := CleanQuotes(text)
		if usableAnswerText(cleaned) {
			out = appendUnique(out, cleaned)
		}
	}
	return out
}

// fillBlankKey returns the cleaned correct variants with the formula prefix
// removed.
func fillBlankKey(texts []string) []string {
	out := make([]string, 0, len(texts))
	for _, text := range texts {
		cleaned := StripFormulaPrefix(CleanQuotes(text))
		if usableAnswerText(cleaned) {
			out = appendUnique(out, cleaned)
		}
	}
	return out
}

// fillBlankUserText collapses a submitted value into the single text a blank
// is compared against.
func fillBlankUserText(raw interface{}) string {
	values := AnswerStrings(raw, nil)
	switch len(values) {
	case 0:
		return ""
	case 1:
		return values[0]
	default:
		return strings.Join(values, ", ")
	}
}

type comparison struct {
	resolved  bool
	isCorrect bool
	correct   []string
}

// compareAnswer dispatches on the component kind. A key that is empty after
// filtering leaves the question unresolved rather than wrong.
func compareAnswer(kind models.ComponentKind, raw interface{}, options []models.Option, answer CorrectAnswer) comparison {
	switch kind {
	case models.KindMultipleChoice:
		correct := multipleSelectKey(answer.Texts)
		if len(correct) == 0 {
			return comparison{}
		}
		user := AnswerStrings(raw, options)
		return comparison{resolved: true, isCorrect: CompareMultipleSelect(user, correct), correct: correct}

	case models.KindFillBlank:
		correct := fillBlankKey(answer.Texts)
		if len(correct) == 0 {
			return comparison{}
		}
		ok, matched := CompareFillBlank(fillBlankUserText(raw), correct)
		if ok {
			return comparison{resolved: true, isCorrect: true, correct: []string{matched}}
		}
		return comparison{resolved: true, correct: correct}

	case models.KindOther:
		return comparison{}
	}
	return comparison{}
}

func normalizedSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, value := range values {
		normalized := NormalizeText(value)
		if normalized == "" {
			continue
		}
		set[normalized] = struct{}{}
	}
	return set
}
