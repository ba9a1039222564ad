package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/homework-service/internal/cache"
	"github.com/SAP-F-2025/homework-service/internal/events"
	"github.com/SAP-F-2025/homework-service/internal/grading"
	"github.com/SAP-F-2025/homework-service/internal/models"
	"github.com/SAP-F-2025/homework-service/internal/repositories"
	"github.com/SAP-F-2025/homework-service/internal/validator"
)

// AnswerKeyService manages the answer-key table of a homework
type AnswerKeyService interface {
	ImportAnswerKey(ctx context.Context, actor *models.Actor, req *ImportAnswerKeyRequest) (*models.AnswerKeyImportResult, error)
	GetAnswerKey(ctx context.Context, actor *models.Actor, homeworkID uint) (*grading.KeySource, error)

	// LoadKeySource returns the extracted key and page map for grading. It
	// performs no permission check.
	LoadKeySource(ctx context.Context, homeworkID uint) (*grading.KeySource, error)
}

type ImportAnswerKeyRequest struct {
	HomeworkID uint                   `json:"homework_id" validate:"required"`
	Format     models.AnswerKeyFormat `json:"format" validate:"required,answer_key_format"`
	Content    []byte                 `json:"content" validate:"required,min=1"`
}

type answerKeyService struct {
	repo      repositories.Repository
	reader    repositories.AnswerKeyReader
	cache     *cache.AnswerKeyCache
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator
}

func NewAnswerKeyService(
	repo repositories.Repository,
	reader repositories.AnswerKeyReader,
	keyCache *cache.AnswerKeyCache,
	publisher events.EventPublisher,
	logger *slog.Logger,
	validator *validator.Validator,
) AnswerKeyService {
	return &answerKeyService{
		repo:      repo,
		reader:    reader,
		cache:     keyCache,
		publisher: publisher,
		logger:    logger,
		validator: validator,
	}
}

// FormatFromFilename maps an upload's extension to its answer-key format
func FormatFromFilename(filename string) (models.AnswerKeyFormat, error) {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".csv"):
		return models.FormatCSV, nil
	case strings.HasSuffix(lower, ".xlsx"):
		return models.FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
	}
}

func (s *answerKeyService) ImportAnswerKey(ctx context.Context, actor *models.Actor, req *ImportAnswerKeyRequest) (*models.AnswerKeyImportResult, error) {
	if err := requireActor(s.validator, actor); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	s.logger.Info("Importing answer key",
		"homework_id", req.HomeworkID,
		"format", req.Format,
		"user_id", actor.ID)

	homework, err := s.repo.Homework().GetByID(ctx, req.HomeworkID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrHomeworkNotFound
		}
		return nil, fmt.Errorf("failed to get homework: %w", err)
	}
	if !canManage(actor, homework.CenterID) {
		return nil, NewPermissionError(actor.ID, homework.ID, "homework", "import_answer_key", "not staff of the homework's center")
	}

	extraction, err := s.extract(req)
	if err != nil {
		return nil, err
	}

	result := &models.AnswerKeyImportResult{
		HomeworkID:    homework.ID,
		TotalRows:     extraction.TotalRows,
		ProcessedRows: extraction.ProcessedRows,
		KeyCount:      len(extraction.Keys),
		ErrorCount:    len(extraction.Errors),
		Errors:        extraction.Errors,
		Status:        models.ImportProcessing,
	}

	if result.KeyCount == 0 {
		result.Status = models.ImportValidationFailed
		s.logger.Warn("Answer key import produced no keys",
			"homework_id", homework.ID,
			"error_count", result.ErrorCount)
		return result, nil
	}

	pageMap := s.pageMapFor(homework.ID, string(homework.ExerciseData))
	if err := s.repo.Homework().UpdateAnswerKey(ctx, homework.ID, extraction.CSV, pageMap); err != nil {
		return nil, fmt.Errorf("failed to store answer key: %w", err)
	}

	if err := s.cache.Invalidate(ctx, homework.ID); err != nil {
		s.logger.Warn("Failed to invalidate answer key cache", "homework_id", homework.ID, "error", err)
	}

	result.Status = models.ImportCompleted
	if err := s.publisher.Publish(ctx, events.NewAnswerKeyImportedEvent(result, actor.ID)); err != nil {
		s.logger.Error("Failed to publish answer key imported event", "homework_id", homework.ID, "error", err)
	}

	s.logger.Info("Answer key imported",
		"homework_id", homework.ID,
		"key_count", result.KeyCount,
		"error_count", result.ErrorCount)

	return result, nil
}

func (s *answerKeyService) extract(req *ImportAnswerKeyRequest) (*grading.KeyExtraction, error) {
	switch req.Format {
	case models.FormatCSV:
		return grading.ExtractAnswerKey(string(req.Content)), nil
	case models.FormatXLSX:
		extraction, err := grading.ExtractAnswerKeyFromExcel(bytes.NewReader(req.Content))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
		}
		return extraction, nil
	default:
		return nil, ErrUnsupportedFormat
	}
}

// pageMapFor derives the page map from authored exercise data. Unreadable
// data yields an empty map and answer-key lookups fall back to legacy keys.
func (s *answerKeyService) pageMapFor(homeworkID uint, exerciseData string) models.PageMap {
	if strings.TrimSpace(exerciseData) == "" {
		return models.PageMap{}
	}
	structure, err := models.ParseExerciseStructure(exerciseData)
	if err != nil {
		s.logger.Warn("Cannot build page map", "homework_id", homeworkID, "error", err)
		return models.PageMap{}
	}
	return grading.BuildPageMap(structure)
}

func (s *answerKeyService) GetAnswerKey(ctx context.Context, actor *models.Actor, homeworkID uint) (*grading.KeySource, error) {
	if err := requireActor(s.validator, actor); err != nil {
		return nil, err
	}

	homework, err := s.repo.Homework().GetByID(ctx, homeworkID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrHomeworkNotFound
		}
		return nil, fmt.Errorf("failed to get homework: %w", err)
	}
	if !canManage(actor, homework.CenterID) {
		return nil, NewPermissionError(actor.ID, homeworkID, "homework", "view_answer_key", "not staff of the homework's center")
	}

	source, err := s.LoadKeySource(ctx, homeworkID)
	if err != nil {
		return nil, err
	}
	if len(source.AnswerKey) == 0 {
		return nil, ErrAnswerKeyNotAvailable
	}
	return source, nil
}

func (s *answerKeyService) LoadKeySource(ctx context.Context, homeworkID uint) (*grading.KeySource, error) {
	if source, ok := s.cache.Get(ctx, homeworkID); ok {
		return source, nil
	}

	record, err := s.reader.GetAnswerKeyRecord(ctx, homeworkID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrHomeworkNotFound
		}
		return nil, fmt.Errorf("failed to load answer key: %w", err)
	}

	source := &grading.KeySource{
		AnswerKey: grading.ExtractCorrectAnswers(record.AnswerKeyCSV),
		PageMap:   record.PageMap,
	}
	if len(source.PageMap) == 0 {
		source.PageMap = s.pageMapFor(homeworkID, record.ExerciseData)
	}

	s.cache.Set(ctx, homeworkID, source)
	return source, nil
}
