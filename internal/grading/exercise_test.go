package grading

import (
	"testing"

	"github.com/SAP-F-2025/homework-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleExerciseData = `{
  "exercises": [
    {
      "id": "geo",
      "pages": [
        {"page_id": "p1", "components": [
          {"type": "multiple_choice_checkbox", "questionNumber": 1, "options": [
            {"text": "Paris", "correct": true},
            {"text": "London", "is_correct": "true"},
            {"text": "Berlin", "correct": false}
          ]}
        ]},
        {"page_id": "p2", "components": [
          {"type": "timer_selector"},
          {"type": "fill_blank_question", "questionNumber": 1, "blanks": [{"correct_answers": ["= 42"]}]}
        ]}
      ]
    },
    {
      "exercise_id": "cities",
      "pages": [
        {"components": [
          {"type": "fill_blank_question", "question_number": "1", "blanks": [{"correctAnswers": ["\"Paris\""]}]},
          {"type": "multiple_choice_checkbox", "questionNumber": 2, "options": [
            {"text": "Lyon"}, {"text": "Nice"}
          ]},
          {"type": "multiple_choice_checkbox", "questionNumber": 3, "correct_answer": "Marseille", "options": [
            {"text": "Marseille"}, {"text": "Toulouse"}
          ]}
        ]}
      ]
    }
  ]
}`

func parseSample(t *testing.T) *models.ExerciseStructure {
	t.Helper()
	structure, err := models.ParseExerciseStructure(sampleExerciseData)
	require.NoError(t, err)
	return structure
}

func TestFindComponent_CumulativePageIndex(t *testing.T) {
	structure := parseSample(t)
	require.Equal(t, 3, structure.PageCount())

	component, ok := FindComponent(structure, 2, models.KindFillBlank, 1)
	require.True(t, ok)
	assert.Equal(t, []string{`"Paris"`}, component.Blanks[0].CorrectAnswers)

	component, ok = FindComponent(structure, 1, models.KindFillBlank, 1)
	require.True(t, ok)
	assert.Equal(t, []string{"= 42"}, component.Blanks[0].CorrectAnswers)

	_, ok = FindComponent(structure, 3, models.KindFillBlank, 1)
	assert.False(t, ok, "index past the last page")

	_, ok = FindComponent(structure, 0, models.KindFillBlank, 1)
	assert.False(t, ok, "page has no fill blank component")

	_, ok = FindComponent(structure, 0, models.KindMultipleChoice, 5)
	assert.False(t, ok, "question number mismatch")

	_, ok = FindComponent(nil, 0, models.KindMultipleChoice, 1)
	assert.False(t, ok)
}

func TestMatchComponents_PrefersNumbered(t *testing.T) {
	structure, err := models.ParseExerciseStructure(`[{"id": "mix", "pages": [{"components": [
	  {"type": "fill_blank_question", "answer": "water"},
	  {"type": "fill_blank_question", "questionNumber": 3, "answer": "ice"},
	  {"type": "multiple_choice_checkbox", "questionNumber": 2, "options": [{"text": "Paris", "correct": true}]},
	  {"type": "multiple_choice_checkbox", "options": [{"text": "Rome", "correct": true}]}
	]}]}]`)
	require.NoError(t, err)
	both := []models.ComponentKind{models.KindFillBlank, models.KindMultipleChoice}

	matches := MatchComponents(structure, 0, both, 2)
	require.Len(t, matches, 1)
	assert.Equal(t, models.KindMultipleChoice, matches[0].Kind)

	matches = MatchComponents(structure, 0, both, 7)
	require.Len(t, matches, 2)
	assert.Equal(t, "water", matches[0].Answer)
	assert.Equal(t, "Rome", matches[1].Options[0].Text)

	component, ok := FindComponent(structure, 0, models.KindFillBlank, 3)
	require.True(t, ok)
	assert.Equal(t, "ice", component.Answer)

	assert.Empty(t, MatchComponents(structure, 1, both, 2))
}

func TestCorrectAnswerFromComponent(t *testing.T) {
	structure := parseSample(t)
	lookup := func(pageIndex int, kind models.ComponentKind, questionNumber int) (CorrectAnswer, *models.Component, bool) {
		component, found := FindComponent(structure, pageIndex, kind, questionNumber)
		require.True(t, found)
		answer, ok := CorrectAnswerFromComponent(component)
		return answer, component, ok
	}

	t.Run("multiple choice collects correct options", func(t *testing.T) {
		answer, component, ok := lookup(0, models.KindMultipleChoice, 1)
		require.True(t, ok)
		require.NotNil(t, component)
		assert.Equal(t, []string{"Paris", "London"}, answer.Texts)
		assert.Equal(t, models.SourceExerciseData, answer.Source)
		require.Len(t, answer.Options, 2)
		assert.Equal(t, "0", answer.Options[0].ID)
		assert.Equal(t, "1", answer.Options[1].ID)
	})

	t.Run("fill blank cleans quotes", func(t *testing.T) {
		answer, _, ok := lookup(2, models.KindFillBlank, 1)
		require.True(t, ok)
		assert.Equal(t, []string{"Paris"}, answer.Texts)
	})

	t.Run("multiple choice with no correct option and no fallback", func(t *testing.T) {
		_, component, ok := lookup(2, models.KindMultipleChoice, 2)
		assert.False(t, ok)
		assert.NotNil(t, component, "component is still returned for option lookups")
	})

	t.Run("multiple choice falls back to component correct_answer", func(t *testing.T) {
		answer, _, ok := lookup(2, models.KindMultipleChoice, 3)
		require.True(t, ok)
		assert.Equal(t, []string{"Marseille"}, answer.Texts)
		require.Len(t, answer.Options, 1)
		assert.Equal(t, TextAnswerOptionID, answer.Options[0].ID)
	})
}

func TestCorrectAnswerFromComponent_FillBlankFallbacks(t *testing.T) {
	answer, ok := CorrectAnswerFromComponent(&models.Component{
		Kind:          models.KindFillBlank,
		Blanks:        []models.Blank{{CorrectAnswers: []string{"null", " "}}},
		CorrectAnswer: "",
		Answer:        `"Rome"`,
	})
	require.True(t, ok)
	assert.Equal(t, []string{"Rome"}, answer.Texts)

	_, ok = CorrectAnswerFromComponent(&models.Component{Kind: models.KindOther, CorrectAnswer: "x"})
	assert.False(t, ok)
}

func TestBuildPageMap(t *testing.T) {
	pageMap := BuildPageMap(parseSample(t))

	assert.Equal(t, models.PageMap{
		0: {ExerciseID: "geo", PageID: "p1"},
		1: {ExerciseID: "geo", PageID: "p2"},
		2: {ExerciseID: "cities", PageID: "1"},
	}, pageMap)
}

func TestParseExerciseStructure_BareArray(t *testing.T) {
	structure, err := models.ParseExerciseStructure(`[{"id":"a","pages":[{"pageId":"x","components":[]}]}]`)
	require.NoError(t, err)
	require.Len(t, structure.Exercises, 1)
	assert.Equal(t, "x", structure.Exercises[0].Pages[0].PageID)

	_, err = models.ParseExerciseStructure(`{not json`)
	assert.Error(t, err)
}
