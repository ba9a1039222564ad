package events

import (
	"time"

	"github.com/SAP-F-2025/homework-service/internal/models"
	"github.com/ThreeDotsLabs/watermill"
)

// EventType identifies the payload carried by an Event
type EventType string

const (
	EventHomeworkStarted   EventType = "homework.started"
	EventHomeworkGraded    EventType = "homework.graded"
	EventAnswerKeyImported EventType = "answer_key.imported"
)

const (
	eventSource  = "homework-service"
	eventVersion = "1.0"
)

// Event is the envelope for every published event
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

type HomeworkStartedEvent struct {
	AssignmentID uint      `json:"assignment_id"`
	HomeworkID   uint      `json:"homework_id"`
	StudentID    uint      `json:"student_id"`
	StartedAt    time.Time `json:"started_at"`
}

type HomeworkGradedEvent struct {
	AssignmentID        uint      `json:"assignment_id"`
	HomeworkID          uint      `json:"homework_id"`
	HomeworkTitle       string    `json:"homework_title"`
	StudentID           uint      `json:"student_id"`
	CenterID            uint      `json:"center_id"`
	TotalQuestions      int       `json:"total_questions"`
	CorrectAnswers      int       `json:"correct_answers"`
	UnresolvedQuestions int       `json:"unresolved_questions"`
	Percentage          float64   `json:"percentage"`
	GradedAt            time.Time `json:"graded_at"`
}

type AnswerKeyImportedEvent struct {
	HomeworkID uint                   `json:"homework_id"`
	KeyCount   int                    `json:"key_count"`
	ErrorCount int                    `json:"error_count"`
	Status     models.ImportJobStatus `json:"status"`
	ImportedBy uint                   `json:"imported_by"`
}

func newEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		ID:        watermill.NewUUID(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

func NewHomeworkStartedEvent(answer *models.StudentAnswer, homeworkID uint) *Event {
	return newEvent(EventHomeworkStarted, HomeworkStartedEvent{
		AssignmentID: answer.AssignmentID,
		HomeworkID:   homeworkID,
		StudentID:    answer.StudentID,
		StartedAt:    answer.StartedAt,
	})
}

func NewHomeworkGradedEvent(assignment *models.HomeworkAssignment, result *models.ValidationResult, gradedAt time.Time) *Event {
	return newEvent(EventHomeworkGraded, HomeworkGradedEvent{
		AssignmentID:        assignment.ID,
		HomeworkID:          assignment.HomeworkID,
		HomeworkTitle:       assignment.Homework.Title,
		StudentID:           assignment.StudentID,
		CenterID:            assignment.CenterID,
		TotalQuestions:      result.TotalQuestions,
		CorrectAnswers:      result.CorrectAnswers,
		UnresolvedQuestions: result.UnresolvedQuestions,
		Percentage:          result.Percentage(),
		GradedAt:            gradedAt,
	})
}

func NewAnswerKeyImportedEvent(result *models.AnswerKeyImportResult, importedBy uint) *Event {
	return newEvent(EventAnswerKeyImported, AnswerKeyImportedEvent{
		HomeworkID: result.HomeworkID,
		KeyCount:   result.KeyCount,
		ErrorCount: result.ErrorCount,
		Status:     result.Status,
		ImportedBy: importedBy,
	})
}
