// Package export renders quiz history for download: CSV and XLSX for the whole
// history, JSON for a single result.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/gosimple/slug"
	"github.com/xuri/excelize/v2"

	"quizmaster/internal/domain"
)

// HistoryHeader is the first row of every history export.
var HistoryHeader = []string{"Quiz Name", "Score", "Total Questions", "Percentage", "Completed At"}

const sheetName = "Results"

// ResultDocument is the JSON shape of a single exported result.
type ResultDocument struct {
	QuizName         string                   `json:"quizName"`
	Score            int                      `json:"score"`
	TotalQuestions   int                      `json:"totalQuestions"`
	Percentage       int                      `json:"percentage"`
	CompletedAt      time.Time                `json:"completedAt"`
	IncorrectAnswers []domain.IncorrectAnswer `json:"incorrectAnswers"`
}

func historyRow(r domain.QuizResult) []string {
	return []string{
		r.QuestionSetName,
		strconv.Itoa(r.Score),
		strconv.Itoa(r.TotalQuestions),
		strconv.Itoa(r.Percentage) + "%",
		r.CompletedAt.Format(time.RFC3339),
	}
}

// WriteCSV writes the history with HistoryHeader as the first record.
func WriteCSV(w io.Writer, results []domain.QuizResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(HistoryHeader); err != nil {
		return err
	}
	for _, r := range results {
		if err := cw.Write(historyRow(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes the same rows as WriteCSV into a single-sheet workbook.
// Numeric columns are stored as numbers.
func WriteXLSX(w io.Writer, results []domain.QuizResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for col, title := range HistoryHeader {
		if err := setCell(f, col+1, 1, title); err != nil {
			return err
		}
	}
	for i, r := range results {
		row := i + 2
		values := []any{r.QuestionSetName, r.Score, r.TotalQuestions, r.Percentage, r.CompletedAt.Format(time.RFC3339)}
		for col, v := range values {
			if err := setCell(f, col+1, row, v); err != nil {
				return err
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setCell(f *excelize.File, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(sheetName, cell, value)
}

// WriteResultJSON writes one result as an indented ResultDocument.
func WriteResultJSON(w io.Writer, r domain.QuizResult) error {
	incorrect := r.IncorrectAnswers
	if incorrect == nil {
		incorrect = []domain.IncorrectAnswer{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ResultDocument{
		QuizName:         r.QuestionSetName,
		Score:            r.Score,
		TotalQuestions:   r.TotalQuestions,
		Percentage:       r.Percentage,
		CompletedAt:      r.CompletedAt,
		IncorrectAnswers: incorrect,
	})
}

// ResultFilename names a single-result download: quiz-result-<name>-<date>.json.
func ResultFilename(r domain.QuizResult) string {
	name := slug.Make(r.QuestionSetName)
	if name == "" {
		name = "quiz"
	}
	return fmt.Sprintf("quiz-result-%s-%s.json", name, r.CompletedAt.Format("2006-01-02"))
}

// HistoryFilename names a history download with the given extension.
func HistoryFilename(ext string) string {
	return "quiz-results." + ext
}
