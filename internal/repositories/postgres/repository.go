package postgres

import (
	"context"

	"github.com/SAP-F-2025/homework-service/internal/repositories"
	"gorm.io/gorm"
)

type repository struct {
	db            *gorm.DB
	homework      repositories.HomeworkRepository
	assignment    repositories.AssignmentRepository
	studentAnswer repositories.StudentAnswerRepository
}

func NewRepository(db *gorm.DB) repositories.Repository {
	return &repository{
		db:            db,
		homework:      NewHomeworkPostgreSQL(db),
		assignment:    NewAssignmentPostgreSQL(db),
		studentAnswer: NewStudentAnswerPostgreSQL(db),
	}
}

func (r *repository) Homework() repositories.HomeworkRepository {
	return r.homework
}

func (r *repository) Assignment() repositories.AssignmentRepository {
	return r.assignment
}

func (r *repository) StudentAnswer() repositories.StudentAnswerRepository {
	return r.studentAnswer
}

func (r *repository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}
