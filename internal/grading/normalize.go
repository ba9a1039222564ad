package grading

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/SAP-F-2025/homework-service/internal/models"
)

const maxStripIterations = 10

// stripPass applies the quote/escape rules at most maxStripIterations times,
// one rule per iteration, then trims whitespace. Rule order matters.
func stripPass(s string) string {
	for i := 0; i < maxStripIterations; i++ {
		switch {
		case strings.HasSuffix(s, `"`):
			s = s[:len(s)-1]
		case strings.HasPrefix(s, `"`):
			s = s[1:]
		case strings.HasSuffix(s, `\"`):
			s = s[:len(s)-2]
		case strings.HasPrefix(s, `\"`):
			s = s[2:]
		case strings.HasSuffix(s, `\`):
			s = s[:len(s)-1]
		default:
			return strings.TrimSpace(s)
		}
	}
	return strings.TrimSpace(s)
}

// CleanQuotes removes quote and escape residue left by JSON/CSV round trips.
// Passes repeat until the value is stable, so the result never starts or ends
// with a quote, never ends with a backslash and is trimmed.
func CleanQuotes(s string) string {
	for {
		next := stripPass(s)
		if next == s {
			return next
		}
		s = next
	}
}

// NormalizeText is the comparison form of an answer.
func NormalizeText(s string) string {
	return strings.ToLower(CleanQuotes(s))
}

// StripFormulaPrefix drops the spreadsheet formula artifact from fill-blank
// correct answers.
func StripFormulaPrefix(s string) string {
	return strings.TrimSpace(strings.TrimPrefix(s, "= "))
}

// usableAnswerText reports whether a correct-answer text may be used. Blank
// and the literal "null" are treated as absent.
func usableAnswerText(s string) bool {
	trimmed := strings.TrimSpace(s)
	return trimmed != "" && !strings.EqualFold(trimmed, "null")
}

// AnswerStrings flattens a raw submitted value into cleaned strings. Numbers
// are legacy option indexes and resolve to the option text when in range.
func AnswerStrings(raw interface{}, options []models.Option) []string {
	switch v := raw.(type) {
	case nil:
		return nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, AnswerStrings(item, options)...)
		}
		return out
	case []string:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, CleanQuotes(item))
		}
		return out
	case string:
		return []string{CleanQuotes(v)}
	case json.Number:
		if idx, err := v.Int64(); err == nil {
			return []string{CleanQuotes(optionTextAt(options, int(idx), v.String()))}
		}
		return []string{CleanQuotes(v.String())}
	case float64:
		text := strconv.FormatFloat(v, 'f', -1, 64)
		if v == float64(int(v)) {
			return []string{CleanQuotes(optionTextAt(options, int(v), text))}
		}
		return []string{CleanQuotes(text)}
	case int:
		return []string{CleanQuotes(optionTextAt(options, v, strconv.Itoa(v)))}
	case bool:
		return []string{strconv.FormatBool(v)}
	default:
		return []string{CleanQuotes(fmt.Sprint(v))}
	}
}

func optionTextAt(options []models.Option, idx int, fallback string) string {
	if idx >= 0 && idx < len(options) {
		return options[idx].Text
	}
	return fallback
}

// answerShape guesses the question kind from a raw value's shape.
func answerShape(raw interface{}) models.ComponentKind {
	switch raw.(type) {
	case []interface{}, []string, float64, int, json.Number:
		return models.KindMultipleChoice
	default:
		return models.KindFillBlank
	}
}
