package grading

import (
	"strconv"

	"github.com/SAP-F-2025/homework-service/internal/models"
)

// TextAnswerOptionID identifies a correct option synthesized from a
// component-level correct_answer field.
const TextAnswerOptionID = "text_answer"

// CorrectAnswer is the resolved answer key for one question.
type CorrectAnswer struct {
	Texts   []string
	Options []models.CorrectOption
	Source  models.AnswerSource
}

// FindComponent returns the component on the page at the 0-based cumulative
// pageIndex whose kind matches and whose question number equals
// questionNumber, falling back to the first unnumbered component of that kind.
// Authored page_id values are not used for addressing.
func FindComponent(structure *models.ExerciseStructure, pageIndex int, kind models.ComponentKind, questionNumber int) (*models.Component, bool) {
	matches := MatchComponents(structure, pageIndex, []models.ComponentKind{kind}, questionNumber)
	if len(matches) == 0 {
		return nil, false
	}
	return matches[0], true
}

// MatchComponents returns the components on a page that can answer
// questionNumber, in the order they should be tried. Components numbered
// questionNumber come first, ordered by kinds. Unnumbered components are
// returned only when no kind has a numbered match, one per kind.
func MatchComponents(structure *models.ExerciseStructure, pageIndex int, kinds []models.ComponentKind, questionNumber int) []*models.Component {
	components := pageComponents(structure, pageIndex)
	if len(components) == 0 {
		return nil
	}

	var numbered, unnumbered []*models.Component
	for _, kind := range kinds {
		var wildcard *models.Component
		for i := range components {
			component := &components[i]
			if component.Kind != kind {
				continue
			}
			if component.IsNumbered(questionNumber) {
				numbered = append(numbered, component)
				break
			}
			if !component.QuestionNumber.Set && wildcard == nil {
				wildcard = component
			}
		}
		if wildcard != nil {
			unnumbered = append(unnumbered, wildcard)
		}
	}
	if len(numbered) > 0 {
		return numbered
	}
	return unnumbered
}

func pageComponents(structure *models.ExerciseStructure, pageIndex int) []models.Component {
	if structure == nil || pageIndex < 0 {
		return nil
	}
	cumulative := 0
	for ei := range structure.Exercises {
		pages := structure.Exercises[ei].Pages
		if pageIndex < cumulative+len(pages) {
			return pages[pageIndex-cumulative].Components
		}
		cumulative += len(pages)
	}
	return nil
}

// CorrectAnswerFromComponent extracts the accepted answers of a component.
// ok is false when no usable correct-answer text remains after fallbacks.
func CorrectAnswerFromComponent(component *models.Component) (CorrectAnswer, bool) {
	answer := CorrectAnswer{Source: models.SourceExerciseData}
	if component == nil {
		return answer, false
	}

	switch component.Kind {
	case models.KindMultipleChoice:
		for i, option := range component.Options {
			if !option.Correct {
				continue
			}
			text := CleanQuotes(option.Text)
			if !usableAnswerText(text) {
				continue
			}
			id := option.ID
			if id == "" {
				id = strconv.Itoa(i)
			}
			answer.Options = append(answer.Options, models.CorrectOption{ID: id, Text: text, IsCorrect: true})
			answer.Texts = appendUnique(answer.Texts, text)
		}
		if len(answer.Texts) == 0 {
			text := CleanQuotes(component.CorrectAnswer)
			if usableAnswerText(text) {
				answer.Options = []models.CorrectOption{{ID: TextAnswerOptionID, Text: text, IsCorrect: true}}
				answer.Texts = []string{text}
			}
		}

	case models.KindFillBlank:
		for _, blank := range component.Blanks {
			for _, candidate := range blank.CorrectAnswers {
				text := CleanQuotes(candidate)
				if usableAnswerText(text) {
					answer.Texts = appendUnique(answer.Texts, text)
				}
			}
		}
		if len(answer.Texts) == 0 {
			for _, fallback := range []string{component.CorrectAnswer, component.Answer} {
				text := CleanQuotes(fallback)
				if usableAnswerText(text) {
					answer.Texts = []string{text}
					break
				}
			}
		}

	case models.KindOther:
		return answer, false
	}

	return answer, len(answer.Texts) > 0
}

// BuildPageMap records, for every cumulative page index, the exercise and
// authored page id that the answer-key table uses. Pages without an authored
// id get their 1-based position inside the exercise.
func BuildPageMap(structure *models.ExerciseStructure) models.PageMap {
	if structure == nil {
		return make(models.PageMap)
	}
	pageMap := make(models.PageMap, structure.PageCount())
	cumulative := 0
	for _, exercise := range structure.Exercises {
		for pi, page := range exercise.Pages {
			pageID := page.PageID
			if pageID == "" {
				pageID = strconv.Itoa(pi + 1)
			}
			pageMap[cumulative] = models.PageRef{ExerciseID: exercise.ID, PageID: pageID}
			cumulative++
		}
	}
	return pageMap
}

func appendUnique(values []string, value string) []string {
	for _, v := range values {
		if v == value {
			return values
		}
	}
	return append(values, value)
}
