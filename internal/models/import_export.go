package models

type ImportJobStatus string

const (
	ImportProcessing       ImportJobStatus = "processing"
	ImportCompleted        ImportJobStatus = "completed"
	ImportValidationFailed ImportJobStatus = "validation_failed"
)

type ImportValidationError struct {
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Message string `json:"message"`
	Value   string `json:"value"`
	Code    string `json:"code"`
}

// Import error codes
const (
	CodeColumnCount     = "column_count"
	CodeMissingColumn   = "missing_column"
	CodeUnbalancedQuote = "unbalanced_quote"
)

type AnswerKeyImportResult struct {
	HomeworkID    uint                    `json:"homework_id"`
	TotalRows     int                     `json:"total_rows"`
	ProcessedRows int                     `json:"processed_rows"`
	KeyCount      int                     `json:"key_count"`
	ErrorCount    int                     `json:"error_count"`
	Errors        []ImportValidationError `json:"errors"`
	Status        ImportJobStatus         `json:"status"`
}

// AnswerKeyFormat is the file format of an uploaded answer key.
type AnswerKeyFormat string

const (
	FormatCSV  AnswerKeyFormat = "csv"
	FormatXLSX AnswerKeyFormat = "xlsx"
)
