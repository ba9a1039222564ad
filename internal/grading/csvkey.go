package grading

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/SAP-F-2025/homework-service/internal/models"
)

// Answer-key table columns
const (
	ColExerciseID        = "exercise_id"
	ColPageID            = "page_id"
	ColQuestionType      = "question_type"
	ColQuestionNumber    = "question_number"
	ColQuestion          = "question"
	ColIsCorrect         = "is_correct"
	ColCorrectAnswerText = "correct_answer_text"
	ColAnswerText        = "answer_text"
	ColOptionID          = "option_id"
)

var requiredKeyColumns = []string{ColExerciseID, ColPageID, ColQuestionType, ColQuestionNumber}

// KeyExtraction is the outcome of reading an answer-key table.
type KeyExtraction struct {
	// CSV is the table as answer-key text, the form stored on a homework.
	CSV           string
	Keys          models.AnswerKeyMap
	TotalRows     int
	ProcessedRows int
	Errors        []models.ImportValidationError
}

// ParseCSV splits answer-key text into records with a quote-aware scanner:
// a double quote toggles quoted state, commas and newlines only separate
// outside quotes, and wrapping quotes are stripped from each field.
func ParseCSV(content string) [][]string {
	var (
		records  [][]string
		record   []string
		field    strings.Builder
		inQuotes bool
	)

	flushField := func() {
		record = append(record, stripWrappingQuotes(field.String()))
		field.Reset()
	}
	flushRecord := func() {
		flushField()
		if !(len(record) == 1 && strings.TrimSpace(record[0]) == "") {
			records = append(records, record)
		}
		record = nil
	}

	for _, r := range content {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			field.WriteRune(r)
		case r == ',' && !inQuotes:
			flushField()
		case r == '\n' && !inQuotes:
			flushRecord()
		case r == '\r' && !inQuotes:
		default:
			field.WriteRune(r)
		}
	}
	if field.Len() > 0 || len(record) > 0 {
		flushRecord()
	}
	return records
}

func stripWrappingQuotes(field string) string {
	trimmed := strings.TrimSpace(field)
	if len(trimmed) >= 2 && strings.HasPrefix(trimmed, `"`) && strings.HasSuffix(trimmed, `"`) {
		return trimmed[1 : len(trimmed)-1]
	}
	return field
}

// ExtractCorrectAnswers builds the answer-key map from CSV answer-key text.
// Malformed rows are skipped.
func ExtractCorrectAnswers(csvContent string) models.AnswerKeyMap {
	return ExtractAnswerKey(csvContent).Keys
}

// ExtractAnswerKey is ExtractCorrectAnswers with a per-row error report.
func ExtractAnswerKey(csvContent string) *KeyExtraction {
	result := extractFromRows(ParseCSV(csvContent), true)
	result.CSV = csvContent
	return result
}

// extractFromRows reads header-indexed rows. When strict is set a row whose
// column count differs from the header is skipped; otherwise short rows are
// padded (spreadsheets drop trailing empty cells).
func extractFromRows(rows [][]string, strict bool) *KeyExtraction {
	result := &KeyExtraction{Keys: make(models.AnswerKeyMap)}
	if len(rows) == 0 {
		return result
	}

	headers := rows[0]
	headerMap := make(map[string]int, len(headers))
	for i, header := range headers {
		headerMap[strings.ToLower(strings.TrimSpace(header))] = i
	}
	result.TotalRows = len(rows) - 1

	for _, col := range requiredKeyColumns {
		if _, exists := headerMap[col]; !exists {
			result.Errors = append(result.Errors, models.ImportValidationError{
				Row: 1, Column: col, Message: fmt.Sprintf("missing required column: %s", col), Code: models.CodeMissingColumn,
			})
		}
	}
	if len(result.Errors) > 0 {
		return result
	}

	for rowIndex, record := range rows[1:] {
		rowNum := rowIndex + 2
		if len(record) != len(headers) {
			if strict || len(record) > len(headers) {
				result.Errors = append(result.Errors, models.ImportValidationError{
					Row:     rowNum,
					Column:  "*",
					Message: fmt.Sprintf("expected %d columns, got %d", len(headers), len(record)),
					Code:    models.CodeColumnCount,
				})
				continue
			}
			padded := make([]string, len(headers))
			copy(padded, record)
			record = padded
		}
		if col := unbalancedQuoteColumn(record); col >= 0 {
			result.Errors = append(result.Errors, models.ImportValidationError{
				Row:     rowNum,
				Column:  strings.TrimSpace(headers[col]),
				Message: "cell has an unmatched double quote",
				Value:   record[col],
				Code:    models.CodeUnbalancedQuote,
			})
			continue
		}
		result.ProcessedRows++
		addKeyRow(result.Keys, record, headerMap)
	}
	return result
}

// unbalancedQuoteColumn returns the index of the first field with an odd
// number of double quotes, or -1. Such a field cannot be stored as answer-key
// text without swallowing the delimiters that follow it.
func unbalancedQuoteColumn(record []string) int {
	for i, field := range record {
		if strings.Count(field, `"`)%2 != 0 {
			return i
		}
	}
	return -1
}

func addKeyRow(keys models.AnswerKeyMap, record []string, headerMap map[string]int) {
	getColumn := func(name string) string {
		if index, exists := headerMap[name]; exists && index < len(record) {
			return strings.TrimSpace(record[index])
		}
		return ""
	}

	isCorrect := parseTruthy(getColumn(ColIsCorrect))
	correctText := getColumn(ColCorrectAnswerText)
	if !isCorrect && !usableAnswerText(correctText) {
		return
	}

	entry := models.AnswerKeyEntry{
		ExerciseID:     getColumn(ColExerciseID),
		PageID:         getColumn(ColPageID),
		QuestionType:   getColumn(ColQuestionType),
		QuestionNumber: getColumn(ColQuestionNumber),
	}
	key := models.CompositeKey(entry.ExerciseID, entry.PageID, entry.QuestionType, entry.QuestionNumber)

	existing, ok := keys[key]
	if !ok {
		entry.Question = getColumn(ColQuestion)
		existing = &entry
		keys[key] = existing
	}

	answerText := getColumn(ColAnswerText)
	text := correctText
	if !usableAnswerText(text) {
		text = answerText
	}
	text = CleanQuotes(text)
	if usableAnswerText(text) {
		existing.CorrectAnswerText = appendUnique(existing.CorrectAnswerText, text)
	}

	if existing.QuestionType == models.TypeMultipleChoiceCheckbox && isCorrect {
		id := getColumn(ColOptionID)
		if id == "" {
			id = strconv.Itoa(len(existing.CorrectOptions))
		}
		existing.CorrectOptions = append(existing.CorrectOptions, models.CorrectOption{
			ID:        id,
			Text:      CleanQuotes(answerText),
			IsCorrect: true,
		})
	}
}

func parseTruthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}
