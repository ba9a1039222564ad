package grading

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/SAP-F-2025/homework-service/internal/models"
)

var questionKeyPattern = regexp.MustCompile(`^page_(\d+)_question_(\d+)$`)

// ParseQuestionKey splits "page_P_question_Q" into its 0-based cumulative page
// index and question number.
func ParseQuestionKey(key string) (pageIndex, questionNumber int, err error) {
	m := questionKeyPattern.FindStringSubmatch(strings.TrimSpace(key))
	if m == nil {
		return 0, 0, fmt.Errorf("malformed question key %q", key)
	}
	pageIndex, _ = strconv.Atoi(m[1])
	questionNumber, _ = strconv.Atoi(m[2])
	return pageIndex, questionNumber, nil
}

// QuestionKey formats a question key.
func QuestionKey(pageIndex, questionNumber int) string {
	return fmt.Sprintf("page_%d_question_%d", pageIndex, questionNumber)
}

type HomeworkData struct {
	ExerciseData string `json:"exercise_data"`
}

// Request is one submission to validate.
type Request struct {
	AssignmentID  uint                   `json:"assignment_id" validate:"required"`
	Answers       map[string]interface{} `json:"answers" validate:"required,min=1"`
	QuestionTypes map[string]string      `json:"question_types" validate:"omitempty,dive,keys,question_key,endkeys,question_type"`
	HomeworkData  HomeworkData           `json:"homework_data"`
}

// KeySource is the fallback answer-key table and the page map used to
// address it.
type KeySource struct {
	AnswerKey models.AnswerKeyMap `json:"answer_key"`
	PageMap   models.PageMap      `json:"page_map"`
}

// KeySourceFunc loads the fallback key source. It is called at most once per
// Validate call and only when embedded exercise data cannot answer a question.
type KeySourceFunc func(ctx context.Context) (*KeySource, error)

// StaticKeySource wraps an already loaded key source.
func StaticKeySource(source *KeySource) KeySourceFunc {
	return func(context.Context) (*KeySource, error) {
		return source, nil
	}
}

type Options struct {
	// LegacyKeyGuessing enables the heuristic answer-key candidates for
	// homework without a page map.
	LegacyKeyGuessing bool
	UnresolvedPolicy  models.UnresolvedPolicy
}

// DefaultOptions matches the behavior of homework graded before page maps.
func DefaultOptions() Options {
	return Options{LegacyKeyGuessing: true, UnresolvedPolicy: models.UnresolvedCount}
}

// Engine validates submitted answers against exercise data and answer keys.
// It holds no per-call state and is safe for concurrent use.
type Engine struct {
	logger *slog.Logger
	opts   Options
}

func NewEngine(logger *slog.Logger, opts Options) *Engine {
	if opts.UnresolvedPolicy == "" {
		opts.UnresolvedPolicy = models.UnresolvedCount
	}
	return &Engine{logger: logger, opts: opts}
}

func (e *Engine) Options() Options {
	return e.opts
}

// validation holds the lazily loaded inputs of one Validate call.
type validation struct {
	structure  *models.ExerciseStructure
	loadSource KeySourceFunc
	source     *KeySource
	loaded     bool
}

func (v *validation) keySource(ctx context.Context, logger *slog.Logger) *KeySource {
	if v.loaded {
		return v.source
	}
	v.loaded = true
	if v.loadSource == nil {
		return nil
	}
	source, err := v.loadSource(ctx)
	if err != nil {
		logger.WarnContext(ctx, "Failed to load answer key", "error", err)
		return nil
	}
	v.source = source
	return source
}

// Validate grades every answer in req. Problems with individual questions are
// logged and reported in their verdicts; they never fail the whole batch.
func (e *Engine) Validate(ctx context.Context, req *Request, fallback KeySourceFunc) *models.ValidationResult {
	logger := e.logger.With("assignment_id", req.AssignmentID)
	state := &validation{loadSource: fallback}

	if raw := strings.TrimSpace(req.HomeworkData.ExerciseData); raw != "" {
		structure, err := models.ParseExerciseStructure(raw)
		if err != nil {
			logger.WarnContext(ctx, "Skipping embedded exercise data", "error", err)
		} else {
			state.structure = structure
		}
	}

	result := &models.ValidationResult{
		ValidationResults: make(map[string]models.ValidationVerdict, len(req.Answers)),
	}

	keys := make([]string, 0, len(req.Answers))
	for key := range req.Answers {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		verdict := e.validateQuestion(ctx, logger, state, key, req.Answers[key], req.QuestionTypes[key])
		result.ValidationResults[key] = verdict

		if verdict.Status == models.VerdictUnresolved {
			result.UnresolvedQuestions++
		}
		if verdict.Counted(e.opts.UnresolvedPolicy) {
			result.TotalQuestions++
		}
		if verdict.IsCorrect {
			result.CorrectAnswers++
		}
	}

	logger.InfoContext(ctx, "Validated submission",
		"total_questions", result.TotalQuestions,
		"correct_answers", result.CorrectAnswers,
		"unresolved_questions", result.UnresolvedQuestions)

	return result
}

func (e *Engine) validateQuestion(ctx context.Context, logger *slog.Logger, state *validation, key string, raw interface{}, explicitType string) models.ValidationVerdict {
	verdict := models.ValidationVerdict{
		QuestionKey:   key,
		UserAnswer:    raw,
		Status:        models.VerdictUnresolved,
		Source:        models.SourceNone,
		CorrectAnswer: []string{},
	}

	pageIndex, questionNumber, err := ParseQuestionKey(key)
	if err != nil {
		logger.WarnContext(ctx, "Skipping malformed question key", "question_key", key, "error", err)
		verdict.Status = models.VerdictInvalidKey
		return verdict
	}

	kinds := kindOrder(explicitType, raw)
	if len(kinds) == 0 {
		logger.WarnContext(ctx, "Question type is not gradable", "question_key", key, "question_type", explicitType)
		verdict.QuestionType = explicitType
		return verdict
	}

	// Path A: embedded exercise data. A numbered component of any candidate
	// kind is tried before an unnumbered one.
	components := make(map[models.ComponentKind]*models.Component, len(kinds))
	for _, component := range MatchComponents(state.structure, pageIndex, kinds, questionNumber) {
		components[component.Kind] = component
		answer, ok := CorrectAnswerFromComponent(component)
		if !ok {
			continue
		}
		if c := compareAnswer(component.Kind, raw, component.Options, answer); c.resolved {
			return resolvedVerdict(verdict, component.Kind, c, answer.Source)
		}
	}

	// Path B: answer-key table.
	if source := state.keySource(ctx, logger); source != nil {
		for _, kind := range kinds {
			candidates := CandidateKeys(source.PageMap, e.opts.LegacyKeyGuessing, pageIndex, kind.TypeName(), questionNumber)
			answer, matchedKey, ok := LookupAnswerKey(source.AnswerKey, candidates)
			if !ok {
				continue
			}
			var options []models.Option
			if component := components[kind]; component != nil {
				options = component.Options
			}
			if c := compareAnswer(kind, raw, options, answer); c.resolved {
				logger.DebugContext(ctx, "Resolved answer from answer key", "question_key", key, "answer_key", matchedKey)
				return resolvedVerdict(verdict, kind, c, answer.Source)
			}
		}
	}

	verdict.QuestionType = kinds[0].TypeName()
	logger.WarnContext(ctx, "No correct answer found", "question_key", key, "page_index", pageIndex, "question_number", questionNumber)
	return verdict
}

func resolvedVerdict(verdict models.ValidationVerdict, kind models.ComponentKind, c comparison, source models.AnswerSource) models.ValidationVerdict {
	verdict.QuestionType = kind.TypeName()
	verdict.IsCorrect = c.isCorrect
	verdict.CorrectAnswer = c.correct
	verdict.Source = source
	if c.isCorrect {
		verdict.Status = models.VerdictCorrect
	} else {
		verdict.Status = models.VerdictIncorrect
	}
	return verdict
}

// kindOrder lists the question kinds to try. An explicit type wins; otherwise
// the answer's shape picks which gradable kind is tried first.
func kindOrder(explicitType string, raw interface{}) []models.ComponentKind {
	if explicitType != "" {
		kind := models.KindOf(explicitType)
		if kind == models.KindOther {
			return nil
		}
		return []models.ComponentKind{kind}
	}
	if answerShape(raw) == models.KindMultipleChoice {
		return []models.ComponentKind{models.KindMultipleChoice, models.KindFillBlank}
	}
	return []models.ComponentKind{models.KindFillBlank, models.KindMultipleChoice}
}
