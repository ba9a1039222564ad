package postgres

import (
	"context"

	"github.com/SAP-F-2025/homework-service/internal/models"
	"github.com/SAP-F-2025/homework-service/internal/repositories"
	"gorm.io/gorm"
)

type AssignmentPostgreSQL struct {
	db *gorm.DB
}

func NewAssignmentPostgreSQL(db *gorm.DB) repositories.AssignmentRepository {
	return &AssignmentPostgreSQL{db: db}
}

func (a *AssignmentPostgreSQL) GetByIDWithHomework(ctx context.Context, id uint) (*models.HomeworkAssignment, error) {
	var assignment models.HomeworkAssignment
	if err := a.db.WithContext(ctx).
		Preload("Homework").
		First(&assignment, id).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (a *AssignmentPostgreSQL) ListByHomework(ctx context.Context, homeworkID uint) ([]*models.HomeworkAssignment, error) {
	var assignments []*models.HomeworkAssignment
	if err := a.db.WithContext(ctx).
		Where("homework_id = ?", homeworkID).
		Order("id ASC").
		Find(&assignments).Error; err != nil {
		return nil, err
	}
	return assignments, nil
}

func (a *AssignmentPostgreSQL) UpdateStatus(ctx context.Context, id uint, status models.AssignmentStatus) error {
	return a.db.WithContext(ctx).Model(&models.HomeworkAssignment{}).
		Where("id = ?", id).
		Update("status", status).Error
}
