package services

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/homework-service/internal/grading"
	"github.com/SAP-F-2025/homework-service/internal/models"
	"github.com/SAP-F-2025/homework-service/internal/repositories"
	"github.com/stretchr/testify/mock"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MockRepository runs transactions inline against itself
type MockRepository struct {
	homework      *MockHomeworkRepository
	assignment    *MockAssignmentRepository
	studentAnswer *MockStudentAnswerRepository
}

func newMockRepository() *MockRepository {
	return &MockRepository{
		homework:      new(MockHomeworkRepository),
		assignment:    new(MockAssignmentRepository),
		studentAnswer: new(MockStudentAnswerRepository),
	}
}

func (m *MockRepository) Homework() repositories.HomeworkRepository           { return m.homework }
func (m *MockRepository) Assignment() repositories.AssignmentRepository       { return m.assignment }
func (m *MockRepository) StudentAnswer() repositories.StudentAnswerRepository { return m.studentAnswer }

func (m *MockRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}

type MockHomeworkRepository struct {
	mock.Mock
}

func (m *MockHomeworkRepository) GetByID(ctx context.Context, id uint) (*models.Homework, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Homework), args.Error(1)
}

func (m *MockHomeworkRepository) UpdateAnswerKey(ctx context.Context, id uint, answerKeyCSV string, pageMap models.PageMap) error {
	args := m.Called(ctx, id, answerKeyCSV, pageMap)
	return args.Error(0)
}

type MockAssignmentRepository struct {
	mock.Mock
}

func (m *MockAssignmentRepository) GetByIDWithHomework(ctx context.Context, id uint) (*models.HomeworkAssignment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.HomeworkAssignment), args.Error(1)
}

func (m *MockAssignmentRepository) ListByHomework(ctx context.Context, homeworkID uint) ([]*models.HomeworkAssignment, error) {
	args := m.Called(ctx, homeworkID)
	return args.Get(0).([]*models.HomeworkAssignment), args.Error(1)
}

func (m *MockAssignmentRepository) UpdateStatus(ctx context.Context, id uint, status models.AssignmentStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

type MockStudentAnswerRepository struct {
	mock.Mock
}

func (m *MockStudentAnswerRepository) Create(ctx context.Context, answer *models.StudentAnswer) error {
	args := m.Called(ctx, answer)
	return args.Error(0)
}

func (m *MockStudentAnswerRepository) GetByAssignmentAndStudent(ctx context.Context, assignmentID, studentID uint) (*models.StudentAnswer, error) {
	args := m.Called(ctx, assignmentID, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StudentAnswer), args.Error(1)
}

func (m *MockStudentAnswerRepository) ListByAssignments(ctx context.Context, assignmentIDs []uint) ([]*models.StudentAnswer, error) {
	args := m.Called(ctx, assignmentIDs)
	return args.Get(0).([]*models.StudentAnswer), args.Error(1)
}

func (m *MockStudentAnswerRepository) Update(ctx context.Context, answer *models.StudentAnswer) error {
	args := m.Called(ctx, answer)
	return args.Error(0)
}

type MockAnswerKeyReader struct {
	mock.Mock
}

func (m *MockAnswerKeyReader) GetAnswerKeyRecord(ctx context.Context, homeworkID uint) (*repositories.AnswerKeyRecord, error) {
	args := m.Called(ctx, homeworkID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repositories.AnswerKeyRecord), args.Error(1)
}

type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCacheService) Get(ctx context.Context, key string, dest interface{}) error {
	args := m.Called(ctx, key, dest)
	return args.Error(0)
}

func (m *MockCacheService) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type MockKeySourceLoader struct {
	mock.Mock
}

func (m *MockKeySourceLoader) LoadKeySource(ctx context.Context, homeworkID uint) (*grading.KeySource, error) {
	args := m.Called(ctx, homeworkID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*grading.KeySource), args.Error(1)
}

const testExerciseData = `{"exercises":[{"id":"geo","pages":[
  {"page_id":"p1","components":[{"type":"multiple_choice_checkbox","questionNumber":1,"options":[
    {"text":"Paris","correct":true},{"text":"London","correct":true},{"text":"Berlin"}]}]},
  {"page_id":"p2","components":[{"type":"fill_blank_question","questionNumber":1,"blanks":[{"correct_answers":["= 42"]}]}]},
  {"page_id":"p3","components":[{"type":"fill_blank_question","questionNumber":1}]}
]}]}`

var (
	studentActor = &models.Actor{ID: 4, Role: models.RoleStudent, CenterID: 1}
	teacherActor = &models.Actor{ID: 20, Role: models.RoleTeacher, CenterID: 1}
	parentActor  = &models.Actor{ID: 30, Role: models.RoleParent, CenterID: 1}
)
