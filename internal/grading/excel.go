package grading

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

var ErrEmptyWorkbook = errors.New("workbook has no sheets")

// ExtractAnswerKeyFromExcel reads the answer-key table from the first sheet of
// an xlsx workbook. Row handling matches the CSV path except that rows shorter
// than the header are padded.
func ExtractAnswerKeyFromExcel(reader io.Reader) (*KeyExtraction, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyWorkbook
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read Excel rows: %w", err)
	}

	result := extractFromRows(rows, false)
	result.CSV = rowsToCSV(rows)
	return result, nil
}

// rowsToCSV renders sheet rows as answer-key text that ParseCSV reads back
// unchanged. Fields holding a delimiter or a quote are wrapped in quotes and
// inner quotes are kept as they are, since ParseCSV toggles on every quote
// and never unescapes a doubled one. Rows are padded to the header width and
// data rows with an unmatched quote are left out.
func rowsToCSV(rows [][]string) string {
	var sb strings.Builder
	width := 0
	if len(rows) > 0 {
		width = len(rows[0])
	}
	for r, row := range rows {
		if r > 0 && unbalancedQuoteColumn(row) >= 0 {
			continue
		}
		for i := 0; i < len(row) || i < width; i++ {
			if i > 0 {
				sb.WriteByte(',')
			}
			if i < len(row) {
				sb.WriteString(keyField(row[i]))
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func keyField(value string) string {
	if strings.ContainsAny(value, ",\"\r\n") {
		return `"` + value + `"`
	}
	return value
}
