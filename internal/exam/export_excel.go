package exam

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"mcqstudio/internal/mcq"

	"github.com/xuri/excelize/v2"
)

var bubbleLetters = []string{"A", "B", "C", "D", "E"}

// ExportExcel renders a saved exam's answer key as an xlsx workbook with
// two sheets: a per-question key summary and a bubble-sheet grid with the
// correct cells marked.
func (s *Service) ExportExcel(ctx context.Context, id string, ownerID int64) ([]byte, error) {
	rec, err := s.Get(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	return buildWorkbook(rec)
}

func buildWorkbook(rec *Record) ([]byte, error) {
	tuples := mcq.BubbleTuples(rec.Rows, startNumberOrOne(rec.Settings))

	f := excelize.NewFile()
	keySheet := f.GetSheetName(0)
	_ = f.SetSheetName(keySheet, "Answer Key")
	keySheet = "Answer Key"

	for i, h := range []string{"number", "correct"} {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(keySheet, cell, h)
	}
	for i, t := range tuples {
		row := i + 2
		cell, _ := excelize.CoordinatesToCellName(1, row)
		_ = f.SetCellValue(keySheet, cell, t.Number)
		cell, _ = excelize.CoordinatesToCellName(2, row)
		_ = f.SetCellValue(keySheet, cell, strings.Join(t.Letters, ", "))
	}
	_ = f.SetColWidth(keySheet, "A", "B", 14)

	bubbleSheet := "Bubble Sheet"
	if _, err := f.NewSheet(bubbleSheet); err != nil {
		return nil, fmt.Errorf("new sheet: %w", err)
	}
	for i, h := range append([]string{"number"}, bubbleLetters...) {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(bubbleSheet, cell, h)
	}
	for i, t := range tuples {
		row := i + 2
		cell, _ := excelize.CoordinatesToCellName(1, row)
		_ = f.SetCellValue(bubbleSheet, cell, t.Number)

		marked := map[string]bool{}
		for _, l := range t.Letters {
			marked[l] = true
		}
		for col, letter := range bubbleLetters {
			cell, _ := excelize.CoordinatesToCellName(col+2, row)
			if marked[letter] {
				_ = f.SetCellValue(bubbleSheet, cell, "X")
			}
		}
	}
	_ = f.SetColWidth(bubbleSheet, "A", "F", 10)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), nil
}

func startNumberOrOne(cfg mcq.OutputConfig) int {
	if cfg.StartNumber > 0 {
		return cfg.StartNumber
	}
	return 1
}
