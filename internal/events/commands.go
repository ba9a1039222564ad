package events

import (
	"github.com/SAP-F-2025/homework-service/internal/grading"
	"github.com/SAP-F-2025/homework-service/internal/models"
)

// Commands consumed from the submission topic. The command name travels in
// the "command" metadata header.
const (
	CommandMetadataKey     = "command"
	CommandStartHomework   = "homework.start"
	CommandSubmitHomework  = "homework.submit"
	CommandImportAnswerKey = "homework.import_answer_key"
)

type StartHomeworkCommand struct {
	AssignmentID uint         `json:"assignment_id" validate:"required"`
	Actor        models.Actor `json:"actor"`
}

type SubmitHomeworkCommand struct {
	Actor   models.Actor    `json:"actor"`
	Request grading.Request `json:"request"`
}

// ImportAnswerKeyCommand carries an uploaded answer-key file. Content is
// base64 in JSON.
type ImportAnswerKeyCommand struct {
	Actor      models.Actor           `json:"actor"`
	HomeworkID uint                   `json:"homework_id"`
	Format     models.AnswerKeyFormat `json:"format"`
	Content    []byte                 `json:"content"`
}
