package rawsql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/SAP-F-2025/homework-service/internal/repositories"
	"github.com/jmoiron/sqlx"
)

const answerKeyQuery = `SELECT id, exercise_data, answer_key_csv, page_map
FROM homeworks
WHERE id = $1 AND deleted_at IS NULL`

type answerKeyRow struct {
	ID           uint           `db:"id"`
	ExerciseData sql.NullString `db:"exercise_data"`
	AnswerKeyCSV sql.NullString `db:"answer_key_csv"`
	PageMap      sql.NullString `db:"page_map"`
}

// answerKeyReader reads the answer-key columns of a homework with a single
// query, skipping the ORM on the grading hot path.
type answerKeyReader struct {
	db *sqlx.DB
}

func NewAnswerKeyReader(db *sqlx.DB) repositories.AnswerKeyReader {
	return &answerKeyReader{db: db}
}

func (r *answerKeyReader) GetAnswerKeyRecord(ctx context.Context, homeworkID uint) (*repositories.AnswerKeyRecord, error) {
	var row answerKeyRow
	if err := r.db.GetContext(ctx, &row, answerKeyQuery, homeworkID); err != nil {
		return nil, fmt.Errorf("failed to get answer key for homework %d: %w", homeworkID, err)
	}

	record := &repositories.AnswerKeyRecord{
		HomeworkID:   row.ID,
		ExerciseData: row.ExerciseData.String,
		AnswerKeyCSV: row.AnswerKeyCSV.String,
	}
	if row.PageMap.Valid && row.PageMap.String != "" && row.PageMap.String != "null" {
		if err := json.Unmarshal([]byte(row.PageMap.String), &record.PageMap); err != nil {
			return nil, fmt.Errorf("failed to decode page map for homework %d: %w", homeworkID, err)
		}
	}
	return record, nil
}
