package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/SAP-F-2025/homework-service/internal/models"
	"gorm.io/gorm"
)

// HomeworkRepository reads and updates authored homework
type HomeworkRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Homework, error)
	UpdateAnswerKey(ctx context.Context, id uint, answerKeyCSV string, pageMap models.PageMap) error
}

// AssignmentRepository manages homework assigned to students
type AssignmentRepository interface {
	GetByIDWithHomework(ctx context.Context, id uint) (*models.HomeworkAssignment, error)
	ListByHomework(ctx context.Context, homeworkID uint) ([]*models.HomeworkAssignment, error)
	UpdateStatus(ctx context.Context, id uint, status models.AssignmentStatus) error
}

// StudentAnswerRepository stores answer sheets and their grading results
type StudentAnswerRepository interface {
	Create(ctx context.Context, answer *models.StudentAnswer) error
	GetByAssignmentAndStudent(ctx context.Context, assignmentID, studentID uint) (*models.StudentAnswer, error)
	ListByAssignments(ctx context.Context, assignmentIDs []uint) ([]*models.StudentAnswer, error)
	Update(ctx context.Context, answer *models.StudentAnswer) error
}

// Repository groups the ORM repositories. WithTransaction runs fn against a
// Repository bound to one transaction; fn's error rolls it back.
type Repository interface {
	Homework() HomeworkRepository
	Assignment() AssignmentRepository
	StudentAnswer() StudentAnswerRepository
	WithTransaction(ctx context.Context, fn func(Repository) error) error
}

// AnswerKeyRecord is the raw answer-key material stored on a homework
type AnswerKeyRecord struct {
	HomeworkID   uint
	ExerciseData string
	AnswerKeyCSV string
	PageMap      models.PageMap
}

// AnswerKeyReader loads answer-key material without going through the ORM
type AnswerKeyReader interface {
	GetAnswerKeyRecord(ctx context.Context, homeworkID uint) (*AnswerKeyRecord, error)
}

// IsNotFoundError reports whether err means the row does not exist
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, sql.ErrNoRows)
}
