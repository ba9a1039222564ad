package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SAP-F-2025/homework-service/internal/events"
	"github.com/SAP-F-2025/homework-service/internal/grading"
	"github.com/SAP-F-2025/homework-service/internal/models"
	"github.com/SAP-F-2025/homework-service/internal/repositories"
	"github.com/SAP-F-2025/homework-service/internal/validator"
	"gorm.io/datatypes"
)

// SubmissionService starts homework and grades submitted answers
type SubmissionService interface {
	StartHomework(ctx context.Context, actor *models.Actor, assignmentID uint) (*models.StudentAnswer, error)
	SubmitAnswers(ctx context.Context, actor *models.Actor, req *grading.Request) (*SubmissionResult, error)
	GetResult(ctx context.Context, actor *models.Actor, assignmentID, studentID uint) (*models.StudentAnswer, error)
}

// KeySourceLoader loads the answer-key fallback of a homework
type KeySourceLoader interface {
	LoadKeySource(ctx context.Context, homeworkID uint) (*grading.KeySource, error)
}

type SubmissionResult struct {
	AssignmentID    uint `json:"assignment_id"`
	StudentAnswerID uint `json:"student_answer_id"`
	*models.ValidationResult
	Score       float64   `json:"score"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type submissionService struct {
	repo      repositories.Repository
	keys      KeySourceLoader
	engine    *grading.Engine
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator
}

func NewSubmissionService(
	repo repositories.Repository,
	keys KeySourceLoader,
	engine *grading.Engine,
	publisher events.EventPublisher,
	logger *slog.Logger,
	validator *validator.Validator,
) SubmissionService {
	return &submissionService{
		repo:      repo,
		keys:      keys,
		engine:    engine,
		publisher: publisher,
		logger:    logger,
		validator: validator,
	}
}

func (s *submissionService) loadAssignment(ctx context.Context, assignmentID uint) (*models.HomeworkAssignment, error) {
	assignment, err := s.repo.Assignment().GetByIDWithHomework(ctx, assignmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	if assignment.Homework.ID == 0 {
		return nil, ErrHomeworkNotFound
	}
	return assignment, nil
}

// findAnswer returns the student's answer sheet, or nil when none exists yet.
func (s *submissionService) findAnswer(ctx context.Context, assignmentID, studentID uint) (*models.StudentAnswer, error) {
	answer, err := s.repo.StudentAnswer().GetByAssignmentAndStudent(ctx, assignmentID, studentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get student answer: %w", err)
	}
	return answer, nil
}

func (s *submissionService) StartHomework(ctx context.Context, actor *models.Actor, assignmentID uint) (*models.StudentAnswer, error) {
	if err := requireActor(s.validator, actor); err != nil {
		return nil, err
	}

	s.logger.Info("Starting homework",
		"assignment_id", assignmentID,
		"student_id", actor.ID)

	assignment, err := s.loadAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if !canWorkOn(actor, assignment) {
		return nil, NewPermissionError(actor.ID, assignmentID, "assignment", "start", "not the assigned student")
	}

	existing, err := s.findAnswer(ctx, assignmentID, actor.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Status == models.AssignmentSubmitted {
			return nil, ErrAssignmentAlreadySubmitted
		}
		s.logger.Info("Resuming existing homework", "student_answer_id", existing.ID)
		return existing, nil
	}

	source, err := s.keys.LoadKeySource(ctx, assignment.HomeworkID)
	if err != nil {
		return nil, fmt.Errorf("failed to load answer key: %w", err)
	}
	snapshot, err := json.Marshal(source)
	if err != nil {
		return nil, fmt.Errorf("failed to encode answer key snapshot: %w", err)
	}

	answer := &models.StudentAnswer{
		AssignmentID:   assignmentID,
		StudentID:      actor.ID,
		Answers:        datatypes.JSON("{}"),
		CorrectAnswers: datatypes.JSON(snapshot),
		Status:         models.AssignmentInProgress,
		StartedAt:      time.Now(),
	}

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.StudentAnswer().Create(ctx, answer); err != nil {
			return fmt.Errorf("failed to create student answer: %w", err)
		}
		if err := tx.Assignment().UpdateStatus(ctx, assignmentID, models.AssignmentInProgress); err != nil {
			return fmt.Errorf("failed to update assignment status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.publisher.Publish(ctx, events.NewHomeworkStartedEvent(answer, assignment.HomeworkID)); err != nil {
		s.logger.Error("Failed to publish homework started event", "assignment_id", assignmentID, "error", err)
	}

	s.logger.Info("Homework started",
		"student_answer_id", answer.ID,
		"assignment_id", assignmentID)

	return answer, nil
}

func (s *submissionService) SubmitAnswers(ctx context.Context, actor *models.Actor, req *grading.Request) (*SubmissionResult, error) {
	if err := requireActor(s.validator, actor); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrValidationFailed
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	s.logger.Info("Submitting answers",
		"assignment_id", req.AssignmentID,
		"student_id", actor.ID,
		"answer_count", len(req.Answers))

	assignment, err := s.loadAssignment(ctx, req.AssignmentID)
	if err != nil {
		return nil, err
	}
	if !canWorkOn(actor, assignment) {
		return nil, NewPermissionError(actor.ID, req.AssignmentID, "assignment", "submit", "not the assigned student")
	}

	answer, err := s.findAnswer(ctx, req.AssignmentID, actor.ID)
	if err != nil {
		return nil, err
	}
	if answer != nil && answer.Status == models.AssignmentSubmitted {
		return nil, ErrAssignmentAlreadySubmitted
	}

	graded := *req
	if strings.TrimSpace(graded.HomeworkData.ExerciseData) == "" {
		graded.HomeworkData.ExerciseData = string(assignment.Homework.ExerciseData)
	}

	result := s.engine.Validate(ctx, &graded, s.keySourceFor(answer, assignment.HomeworkID))

	now := time.Now()
	if answer == nil {
		answer = &models.StudentAnswer{
			AssignmentID: req.AssignmentID,
			StudentID:    actor.ID,
			StartedAt:    now,
		}
	}
	if err := applyResult(answer, req.Answers, result); err != nil {
		return nil, err
	}
	answer.Status = models.AssignmentSubmitted
	answer.SubmittedAt = &now

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if answer.ID == 0 {
			if err := tx.StudentAnswer().Create(ctx, answer); err != nil {
				return fmt.Errorf("failed to create student answer: %w", err)
			}
		} else if err := tx.StudentAnswer().Update(ctx, answer); err != nil {
			return fmt.Errorf("failed to update student answer: %w", err)
		}
		if err := tx.Assignment().UpdateStatus(ctx, req.AssignmentID, models.AssignmentSubmitted); err != nil {
			return fmt.Errorf("failed to update assignment status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.publisher.Publish(ctx, events.NewHomeworkGradedEvent(assignment, result, now)); err != nil {
		s.logger.Error("Failed to publish homework graded event", "assignment_id", req.AssignmentID, "error", err)
	}

	s.logger.Info("Answers graded",
		"assignment_id", req.AssignmentID,
		"student_answer_id", answer.ID,
		"score", answer.Score)

	return &SubmissionResult{
		AssignmentID:     req.AssignmentID,
		StudentAnswerID:  answer.ID,
		ValidationResult: result,
		Score:            answer.Score,
		SubmittedAt:      now,
	}, nil
}

// keySourceFor prefers the snapshot taken when the homework was started so
// a later key import does not change how an in-flight sheet is graded.
func (s *submissionService) keySourceFor(answer *models.StudentAnswer, homeworkID uint) grading.KeySourceFunc {
	return func(ctx context.Context) (*grading.KeySource, error) {
		if answer != nil && len(answer.CorrectAnswers) > 0 {
			var snapshot grading.KeySource
			if err := json.Unmarshal(answer.CorrectAnswers, &snapshot); err == nil && len(snapshot.AnswerKey) > 0 {
				return &snapshot, nil
			}
		}
		return s.keys.LoadKeySource(ctx, homeworkID)
	}
}

func applyResult(answer *models.StudentAnswer, answers map[string]interface{}, result *models.ValidationResult) error {
	correctness := make(map[string]bool, len(result.ValidationResults))
	for key, verdict := range result.ValidationResults {
		correctness[key] = verdict.IsCorrect
	}

	for _, field := range []struct {
		dest  *datatypes.JSON
		value interface{}
	}{
		{&answer.Answers, answers},
		{&answer.Verdicts, result.ValidationResults},
		{&answer.Correctness, correctness},
	} {
		encoded, err := json.Marshal(field.value)
		if err != nil {
			return fmt.Errorf("failed to encode grading result: %w", err)
		}
		*field.dest = datatypes.JSON(encoded)
	}

	answer.TotalQuestions = result.TotalQuestions
	answer.CorrectCount = result.CorrectAnswers
	answer.UnresolvedQuestions = result.UnresolvedQuestions
	answer.Score = result.Percentage()
	return nil
}

func (s *submissionService) GetResult(ctx context.Context, actor *models.Actor, assignmentID, studentID uint) (*models.StudentAnswer, error) {
	if err := requireActor(s.validator, actor); err != nil {
		return nil, err
	}

	assignment, err := s.loadAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if !canView(actor, assignment) {
		return nil, NewPermissionError(actor.ID, assignmentID, "assignment", "view_result", "no access to this assignment")
	}
	if assignment.StudentID != studentID {
		return nil, ErrStudentAnswerNotFound
	}

	answer, err := s.findAnswer(ctx, assignmentID, studentID)
	if err != nil {
		return nil, err
	}
	if answer == nil {
		return nil, ErrStudentAnswerNotFound
	}
	return answer, nil
}
