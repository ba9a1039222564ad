package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Homework struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	CenterID    uint    `json:"center_id" gorm:"not null;index"`
	Title       string  `json:"title" gorm:"not null;size:200"`
	Description *string `json:"description" gorm:"type:text"`

	// Authored content
	ExerciseData datatypes.JSON `json:"exercise_data" gorm:"type:jsonb"`
	AnswerKeyCSV *string        `json:"-" gorm:"type:text"`
	PageMap      datatypes.JSON `json:"page_map" gorm:"type:jsonb"` // PageMap

	CreatedBy uint           `json:"created_by" gorm:"not null;index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Homework) TableName() string {
	return "homeworks"
}

type AssignmentStatus string

const (
	AssignmentAssigned   AssignmentStatus = "assigned"
	AssignmentInProgress AssignmentStatus = "in_progress"
	AssignmentSubmitted  AssignmentStatus = "submitted"
)

type HomeworkAssignment struct {
	ID         uint             `json:"id" gorm:"primaryKey"`
	HomeworkID uint             `json:"homework_id" gorm:"not null;index"`
	StudentID  uint             `json:"student_id" gorm:"not null;index"`
	CenterID   uint             `json:"center_id" gorm:"not null;index"`
	Status     AssignmentStatus `json:"status" gorm:"default:assigned;index"`
	DueDate    *time.Time       `json:"due_date"`
	AssignedBy uint             `json:"assigned_by"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Homework Homework `json:"homework" gorm:"foreignKey:HomeworkID"`
}

func (HomeworkAssignment) TableName() string {
	return "homework_assignments"
}

// StudentAnswer is the per-assignment answer sheet of a student.
type StudentAnswer struct {
	ID           uint `json:"id" gorm:"primaryKey"`
	AssignmentID uint `json:"assignment_id" gorm:"not null;uniqueIndex:idx_student_answer"`
	StudentID    uint `json:"student_id" gorm:"not null;uniqueIndex:idx_student_answer"`

	Answers        datatypes.JSON `json:"answers" gorm:"type:jsonb"`         // map[questionKey]raw answer
	Verdicts       datatypes.JSON `json:"verdicts" gorm:"type:jsonb"`        // map[questionKey]ValidationVerdict
	Correctness    datatypes.JSON `json:"correctness" gorm:"type:jsonb"`     // map[questionKey]bool
	CorrectAnswers datatypes.JSON `json:"correct_answers" gorm:"type:jsonb"` // AnswerKeyMap snapshot taken at start

	TotalQuestions      int     `json:"total_questions"`
	CorrectCount        int     `json:"correct_count"`
	UnresolvedQuestions int     `json:"unresolved_questions"`
	Score               float64 `json:"score"`

	Status      AssignmentStatus `json:"status" gorm:"default:in_progress"`
	StartedAt   time.Time        `json:"started_at"`
	SubmittedAt *time.Time       `json:"submitted_at"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func (StudentAnswer) TableName() string {
	return "student_answers"
}
