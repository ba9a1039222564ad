package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/SAP-F-2025/homework-service/internal/grading"
	"github.com/SAP-F-2025/homework-service/internal/models"
	"github.com/SAP-F-2025/homework-service/internal/repositories"
	"github.com/SAP-F-2025/homework-service/internal/validator"
	"github.com/xuri/excelize/v2"
)

const (
	resultsSheet  = "Results"
	verdictsSheet = "Verdicts"
	timeLayout    = "2006-01-02 15:04:05"
)

// ExportService renders grading results for staff
type ExportService interface {
	ExportHomeworkResults(ctx context.Context, actor *models.Actor, homeworkID uint) ([]byte, error)
}

type exportService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewExportService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) ExportService {
	return &exportService{
		repo:      repo,
		logger:    logger,
		validator: validator,
	}
}

// ExportHomeworkResults writes one row per assignment to the Results sheet
// and one row per graded question to the Verdicts sheet.
func (s *exportService) ExportHomeworkResults(ctx context.Context, actor *models.Actor, homeworkID uint) ([]byte, error) {
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
		return nil, NewPermissionError(actor.ID, homeworkID, "homework", "export_results", "not staff of the homework's center")
	}

	assignments, err := s.repo.Assignment().ListByHomework(ctx, homeworkID)
	if err != nil {
		return nil, fmt.Errorf("failed to get assignments: %w", err)
	}

	ids := make([]uint, 0, len(assignments))
	for _, assignment := range assignments {
		ids = append(ids, assignment.ID)
	}
	answers, err := s.repo.StudentAnswer().ListByAssignments(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get student answers: %w", err)
	}
	answerByAssignment := make(map[uint]*models.StudentAnswer, len(answers))
	for _, answer := range answers {
		answerByAssignment[answer.AssignmentID] = answer
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	if _, err := f.NewSheet(verdictsSheet); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}

	writeRow(f, resultsSheet, 1, []interface{}{
		"Assignment ID", "Student ID", "Status", "Started At", "Submitted At",
		"Total Questions", "Correct Answers", "Unresolved Questions", "Score",
	})
	writeRow(f, verdictsSheet, 1, []interface{}{
		"Assignment ID", "Student ID", "Question", "Question Type", "Status",
		"Is Correct", "User Answer", "Correct Answer", "Source",
	})

	verdictRow := 2
	for i, assignment := range assignments {
		answer := answerByAssignment[assignment.ID]
		if answer == nil {
			writeRow(f, resultsSheet, i+2, []interface{}{assignment.ID, assignment.StudentID, string(assignment.Status)})
			continue
		}

		submittedAt := ""
		if answer.SubmittedAt != nil {
			submittedAt = answer.SubmittedAt.Format(timeLayout)
		}
		writeRow(f, resultsSheet, i+2, []interface{}{
			assignment.ID,
			answer.StudentID,
			string(answer.Status),
			answer.StartedAt.Format(timeLayout),
			submittedAt,
			answer.TotalQuestions,
			answer.CorrectCount,
			answer.UnresolvedQuestions,
			answer.Score,
		})

		verdicts, err := decodeVerdicts(answer)
		if err != nil {
			s.logger.Warn("Skipping undecodable verdicts",
				"assignment_id", assignment.ID,
				"error", err)
			continue
		}
		for _, verdict := range verdicts {
			writeRow(f, verdictsSheet, verdictRow, []interface{}{
				assignment.ID,
				answer.StudentID,
				verdict.QuestionKey,
				verdict.QuestionType,
				string(verdict.Status),
				verdict.IsCorrect,
				submittedValue(verdict.UserAnswer),
				strings.Join(verdict.CorrectAnswer, " | "),
				string(verdict.Source),
			})
			verdictRow++
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.Info("Exported homework results",
		"homework_id", homeworkID,
		"assignments", len(assignments),
		"user_id", actor.ID)

	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) {
	for col, value := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			continue
		}
		f.SetCellValue(sheet, cell, value)
	}
}

// decodeVerdicts returns the stored verdicts in page then question order.
// Verdicts with malformed keys sort last.
func decodeVerdicts(answer *models.StudentAnswer) ([]models.ValidationVerdict, error) {
	if len(answer.Verdicts) == 0 {
		return nil, nil
	}
	var byKey map[string]models.ValidationVerdict
	if err := json.Unmarshal(answer.Verdicts, &byKey); err != nil {
		return nil, err
	}

	type position struct {
		page, question int
		valid          bool
	}
	verdicts := make([]models.ValidationVerdict, 0, len(byKey))
	positions := make(map[string]position, len(byKey))
	for key, verdict := range byKey {
		if verdict.QuestionKey == "" {
			verdict.QuestionKey = key
		}
		page, question, err := grading.ParseQuestionKey(verdict.QuestionKey)
		positions[verdict.QuestionKey] = position{page: page, question: question, valid: err == nil}
		verdicts = append(verdicts, verdict)
	}

	sort.Slice(verdicts, func(i, j int) bool {
		a, b := positions[verdicts[i].QuestionKey], positions[verdicts[j].QuestionKey]
		switch {
		case a.valid != b.valid:
			return a.valid
		case a.valid && a.page != b.page:
			return a.page < b.page
		case a.valid && a.question != b.question:
			return a.question < b.question
		default:
			return verdicts[i].QuestionKey < verdicts[j].QuestionKey
		}
	})
	return verdicts, nil
}

// submittedValue renders an answer as the student sent it: strings verbatim,
// anything else as JSON.
func submittedValue(raw interface{}) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Sprint(raw)
	}
	return string(data)
}
