package models

import "strings"

// CorrectOption is an option marked correct in an answer key.
type CorrectOption struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// AnswerKeyEntry holds the accepted answers for one composite question key.
type AnswerKeyEntry struct {
	ExerciseID        string          `json:"exercise_id"`
	PageID            string          `json:"page_id"`
	QuestionType      string          `json:"question_type"`
	QuestionNumber    string          `json:"question_number"`
	Question          string          `json:"question"`
	CorrectAnswerText []string        `json:"correct_answer_text"`
	CorrectOptions    []CorrectOption `json:"correct_options"`
}

// HasAnswer reports whether the entry carries at least one usable answer text.
func (e *AnswerKeyEntry) HasAnswer() bool {
	return e != nil && len(e.CorrectAnswerText) > 0
}

// AnswerKeyMap maps exerciseId_pageId_questionType_questionNumber to its entry.
type AnswerKeyMap map[string]*AnswerKeyEntry

// CompositeKey builds the answer-key lookup key.
func CompositeKey(exerciseID, pageID, questionType, questionNumber string) string {
	return strings.Join([]string{exerciseID, pageID, questionType, questionNumber}, "_")
}

// PageRef addresses a page by its owning exercise and authored page id.
type PageRef struct {
	ExerciseID string `json:"exercise_id"`
	PageID     string `json:"page_id"`
}

// PageMap maps a 0-based cumulative page index to its page reference. It is
// built once when a homework is authored or its answer key is imported.
type PageMap map[int]PageRef
