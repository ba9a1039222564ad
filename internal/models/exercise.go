package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Component type tags as authored in exercise data
const (
	TypeMultipleChoiceCheckbox = "multiple_choice_checkbox"
	TypeFillBlankQuestion      = "fill_blank_question"
	TypeTimerSelector          = "timer_selector"
)

// ComponentKind is the closed set of behaviors a component type maps to.
type ComponentKind int

const (
	KindOther ComponentKind = iota
	KindMultipleChoice
	KindFillBlank
)

// KindOf maps a component type tag to its kind. Unknown tags are KindOther.
func KindOf(componentType string) ComponentKind {
	switch componentType {
	case TypeMultipleChoiceCheckbox:
		return KindMultipleChoice
	case TypeFillBlankQuestion:
		return KindFillBlank
	default:
		return KindOther
	}
}

// TypeName returns the canonical type tag for gradable kinds.
func (k ComponentKind) TypeName() string {
	switch k {
	case KindMultipleChoice:
		return TypeMultipleChoiceCheckbox
	case KindFillBlank:
		return TypeFillBlankQuestion
	default:
		return ""
	}
}

func (k ComponentKind) String() string {
	switch k {
	case KindMultipleChoice:
		return "multiple_choice"
	case KindFillBlank:
		return "fill_blank"
	default:
		return "other"
	}
}

// ExerciseStructure is the authored homework content: exercises, each with
// ordered pages, each with ordered components.
type ExerciseStructure struct {
	Exercises []Exercise `json:"exercises"`
}

// UnmarshalJSON accepts either a bare array of exercises or an object with an
// "exercises" array.
func (e *ExerciseStructure) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, &e.Exercises)
	}
	var wrapper struct {
		Exercises []Exercise `json:"exercises"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return err
	}
	e.Exercises = wrapper.Exercises
	return nil
}

// ParseExerciseStructure decodes exercise data stored as a JSON string.
func ParseExerciseStructure(raw string) (*ExerciseStructure, error) {
	var structure ExerciseStructure
	if err := json.Unmarshal([]byte(raw), &structure); err != nil {
		return nil, fmt.Errorf("invalid exercise data: %w", err)
	}
	return &structure, nil
}

// PageCount returns the number of pages across all exercises.
func (e *ExerciseStructure) PageCount() int {
	total := 0
	for _, exercise := range e.Exercises {
		total += len(exercise.Pages)
	}
	return total
}

type Exercise struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
	Pages []Page `json:"pages"`
}

func (e *Exercise) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID         FlexString `json:"id"`
		ExerciseID FlexString `json:"exercise_id"`
		Title      string     `json:"title"`
		Pages      []Page     `json:"pages"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.ID = raw.ID.String()
	if e.ID == "" {
		e.ID = raw.ExerciseID.String()
	}
	e.Title = raw.Title
	e.Pages = raw.Pages
	return nil
}

type Page struct {
	PageID       string      `json:"page_id"`
	TemplateType string      `json:"template_type"`
	Components   []Component `json:"components"`
}

func (p *Page) UnmarshalJSON(data []byte) error {
	var raw struct {
		PageID        FlexString  `json:"page_id"`
		PageIDCamel   FlexString  `json:"pageId"`
		TemplateType  string      `json:"template_type"`
		TemplateCamel string      `json:"templateType"`
		Components    []Component `json:"components"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.PageID = firstNonEmpty(raw.PageID.String(), raw.PageIDCamel.String())
	p.TemplateType = firstNonEmpty(raw.TemplateType, raw.TemplateCamel)
	p.Components = raw.Components
	return nil
}

// Component is one question unit. Kind is derived from Type; only the fields
// relevant to Kind are populated.
type Component struct {
	Type           string        `json:"type"`
	Kind           ComponentKind `json:"-"`
	QuestionNumber FlexInt       `json:"questionNumber"`

	// multiple choice
	Options []Option `json:"options,omitempty"`

	// fill blank
	Blanks []Blank `json:"blanks,omitempty"`

	// component-level fallbacks
	CorrectAnswer string `json:"correct_answer,omitempty"`
	Answer        string `json:"answer,omitempty"`
}

func (c *Component) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type                string     `json:"type"`
		QuestionNumber      FlexInt    `json:"questionNumber"`
		QuestionNumberSnake FlexInt    `json:"question_number"`
		Options             []Option   `json:"options"`
		Blanks              []Blank    `json:"blanks"`
		CorrectAnswer       FlexString `json:"correct_answer"`
		CorrectAnswerCamel  FlexString `json:"correctAnswer"`
		Answer              FlexString `json:"answer"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.Type = raw.Type
	c.Kind = KindOf(raw.Type)
	c.QuestionNumber = raw.QuestionNumber
	if !c.QuestionNumber.Set {
		c.QuestionNumber = raw.QuestionNumberSnake
	}
	c.CorrectAnswer = firstNonEmpty(raw.CorrectAnswer.String(), raw.CorrectAnswerCamel.String())

	switch c.Kind {
	case KindMultipleChoice:
		c.Options = raw.Options
	case KindFillBlank:
		c.Blanks = raw.Blanks
		c.Answer = raw.Answer.String()
	case KindOther:
		c.Options = raw.Options
	}
	return nil
}

// IsNumbered reports whether the component carries question number n.
func (c *Component) IsNumbered(n int) bool {
	return c.QuestionNumber.Set && c.QuestionNumber.Value == n
}

type Option struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

func (o *Option) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID        FlexString `json:"id"`
		Text      FlexString `json:"text"`
		Label     FlexString `json:"label"`
		Correct   FlexBool   `json:"correct"`
		IsCorrect FlexBool   `json:"is_correct"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	o.ID = raw.ID.String()
	o.Text = firstNonEmpty(raw.Text.String(), raw.Label.String())
	o.Correct = bool(raw.Correct) || bool(raw.IsCorrect)
	return nil
}

type Blank struct {
	ID             string   `json:"id"`
	CorrectAnswers []string `json:"correct_answers"`
}

func (b *Blank) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID                  FlexString   `json:"id"`
		CorrectAnswers      []FlexString `json:"correct_answers"`
		CorrectAnswersCamel []FlexString `json:"correctAnswers"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	b.ID = raw.ID.String()
	answers := raw.CorrectAnswers
	if len(answers) == 0 {
		answers = raw.CorrectAnswersCamel
	}
	b.CorrectAnswers = make([]string, 0, len(answers))
	for _, a := range answers {
		b.CorrectAnswers = append(b.CorrectAnswers, a.String())
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
