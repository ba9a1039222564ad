package models

type VerdictStatus string

const (
	VerdictCorrect    VerdictStatus = "correct"
	VerdictIncorrect  VerdictStatus = "incorrect"
	VerdictUnresolved VerdictStatus = "unresolved"
	VerdictInvalidKey VerdictStatus = "invalid_key"
)

// AnswerSource records which extraction path resolved the correct answer.
type AnswerSource string

const (
	SourceExerciseData AnswerSource = "exercise_data"
	SourceAnswerKey    AnswerSource = "answer_key"
	SourceNone         AnswerSource = "none"
)

// ValidationVerdict is the per-question outcome. It is never mutated after it
// is returned.
type ValidationVerdict struct {
	QuestionKey   string        `json:"question_key"`
	QuestionType  string        `json:"question_type,omitempty"`
	IsCorrect     bool          `json:"is_correct"`
	Status        VerdictStatus `json:"status"`
	UserAnswer    interface{}   `json:"user_answer"`
	CorrectAnswer []string      `json:"correct_answer"`
	Source        AnswerSource  `json:"source"`
}

// Counted reports whether the verdict participates in scoring under policy.
func (v ValidationVerdict) Counted(policy UnresolvedPolicy) bool {
	switch v.Status {
	case VerdictCorrect, VerdictIncorrect:
		return true
	case VerdictUnresolved:
		return policy == UnresolvedCount
	default:
		return false
	}
}

// UnresolvedPolicy decides whether questions without any answer key count
// toward totalQuestions.
type UnresolvedPolicy string

const (
	UnresolvedCount   UnresolvedPolicy = "count"
	UnresolvedExclude UnresolvedPolicy = "exclude"
)

type ValidationResult struct {
	ValidationResults   map[string]ValidationVerdict `json:"validation_results"`
	TotalQuestions      int                          `json:"total_questions"`
	CorrectAnswers      int                          `json:"correct_answers"`
	UnresolvedQuestions int                          `json:"unresolved_questions"`
}

// Percentage returns the score as 0-100, or 0 when nothing was counted.
func (r *ValidationResult) Percentage() float64 {
	if r.TotalQuestions == 0 {
		return 0
	}
	return float64(r.CorrectAnswers) / float64(r.TotalQuestions) * 100
}
