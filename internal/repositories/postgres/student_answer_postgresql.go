package postgres

import (
	"context"

	"github.com/SAP-F-2025/homework-service/internal/models"
	"github.com/SAP-F-2025/homework-service/internal/repositories"
	"gorm.io/gorm"
)

type StudentAnswerPostgreSQL struct {
	db *gorm.DB
}

func NewStudentAnswerPostgreSQL(db *gorm.DB) repositories.StudentAnswerRepository {
	return &StudentAnswerPostgreSQL{db: db}
}

func (s *StudentAnswerPostgreSQL) Create(ctx context.Context, answer *models.StudentAnswer) error {
	return s.db.WithContext(ctx).Create(answer).Error
}

func (s *StudentAnswerPostgreSQL) GetByAssignmentAndStudent(ctx context.Context, assignmentID, studentID uint) (*models.StudentAnswer, error) {
	var answer models.StudentAnswer
	if err := s.db.WithContext(ctx).
		Where("assignment_id = ? AND student_id = ?", assignmentID, studentID).
		First(&answer).Error; err != nil {
		return nil, err
	}
	return &answer, nil
}

func (s *StudentAnswerPostgreSQL) ListByAssignments(ctx context.Context, assignmentIDs []uint) ([]*models.StudentAnswer, error) {
	var answers []*models.StudentAnswer
	if len(assignmentIDs) == 0 {
		return answers, nil
	}
	if err := s.db.WithContext(ctx).
		Where("assignment_id IN ?", assignmentIDs).
		Order("assignment_id ASC").
		Find(&answers).Error; err != nil {
		return nil, err
	}
	return answers, nil
}

func (s *StudentAnswerPostgreSQL) Update(ctx context.Context, answer *models.StudentAnswer) error {
	return s.db.WithContext(ctx).Save(answer).Error
}
