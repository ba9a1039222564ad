package grading

import (
	"strconv"

	"github.com/SAP-F-2025/homework-service/internal/models"
)

// Exercise ids assumed by legacy answer-key tables that predate page maps.
const (
	legacyReadingExercise = "reading_comprehension"
	legacyMathExercise    = "math_word_problems"
)

// LegacyCandidateKeys returns the composite keys guessed for a 0-based page
// index when no page map is available, in lookup order. The guess assumes the
// first pages belong to a reading exercise and later pages to a math
// exercise; it is kept for old homework only and must not be reordered.
func LegacyCandidateKeys(pageIndex int, questionType string, questionNumber int) []string {
	number := strconv.Itoa(questionNumber)
	var keys []string
	if pageIndex <= 2 {
		keys = append(keys, models.CompositeKey(legacyReadingExercise, strconv.Itoa(pageIndex+1), questionType, number))
	}
	if pageIndex >= 2 {
		keys = append(keys,
			models.CompositeKey(legacyMathExercise, strconv.Itoa(pageIndex-1), questionType, number),
			models.CompositeKey(legacyMathExercise, strconv.Itoa(pageIndex), questionType, number),
		)
	}
	return keys
}

// CandidateKeys lists the answer-key lookups for a question: the page-map key
// first, then the legacy guesses when enabled.
func CandidateKeys(pageMap models.PageMap, legacy bool, pageIndex int, questionType string, questionNumber int) []string {
	var keys []string
	if ref, ok := pageMap[pageIndex]; ok {
		keys = append(keys, models.CompositeKey(ref.ExerciseID, ref.PageID, questionType, strconv.Itoa(questionNumber)))
	}
	if legacy {
		keys = append(keys, LegacyCandidateKeys(pageIndex, questionType, questionNumber)...)
	}
	return keys
}

// LookupAnswerKey is extraction path B: the first candidate key with a
// non-empty correct-answer list wins.
func LookupAnswerKey(keys models.AnswerKeyMap, candidates []string) (CorrectAnswer, string, bool) {
	for _, candidate := range candidates {
		entry, ok := keys[candidate]
		if !ok || !entry.HasAnswer() {
			continue
		}
		return CorrectAnswer{
			Texts:   entry.CorrectAnswerText,
			Options: entry.CorrectOptions,
			Source:  models.SourceAnswerKey,
		}, candidate, true
	}
	return CorrectAnswer{}, "", false
}
