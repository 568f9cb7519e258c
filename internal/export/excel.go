package export

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ErrNoData is returned when an export has no rows.
var ErrNoData = errors.New("No data to export")

const maxSheetName = 31

// Sheet is a table of exported rows under a header.
type Sheet struct {
	Name    string
	Columns []string
	Rows    [][]any
}

// Workbook writes sheets into one xlsx file.
type Workbook struct {
	file         *excelize.File
	currentSheet string
	currentRow   int
}

func NewWorkbook() *Workbook {
	return &Workbook{file: excelize.NewFile()}
}

// AddSheet adds a new sheet and makes it current. The first call renames the default sheet.
func (w *Workbook) AddSheet(name string) error {
	if len(name) > maxSheetName {
		name = name[:maxSheetName]
	}

	if w.currentSheet == "" {
		if err := w.file.SetSheetName("Sheet1", name); err != nil {
			return fmt.Errorf("rename sheet %s: %w", name, err)
		}
	} else {
		if _, err := w.file.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	w.currentSheet = name
	w.currentRow = 1
	return nil
}

// WriteHeader writes a bold header row.
func (w *Workbook) WriteHeader(columns []string) error {
	if w.currentSheet == "" {
		return errors.New("no active sheet")
	}
	row := make([]any, len(columns))
	for i, c := range columns {
		row[i] = c
	}
	if err := w.writeCells(row); err != nil {
		return err
	}

	style, err := w.file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		startCell, _ := excelize.CoordinatesToCellName(1, w.currentRow)
		endCell, _ := excelize.CoordinatesToCellName(len(columns), w.currentRow)
		_ = w.file.SetCellStyle(w.currentSheet, startCell, endCell, style)
	}

	w.currentRow++
	return nil
}

func (w *Workbook) WriteRow(row []any) error {
	if w.currentSheet == "" {
		return errors.New("no active sheet")
	}
	if err := w.writeCells(row); err != nil {
		return err
	}
	w.currentRow++
	return nil
}

func (w *Workbook) writeCells(row []any) error {
	cell, err := excelize.CoordinatesToCellName(1, w.currentRow)
	if err != nil {
		return err
	}
	return w.file.SetSheetRow(w.currentSheet, cell, &row)
}

func (w *Workbook) Save(wr io.Writer) error {
	return w.file.Write(wr)
}

func (w *Workbook) Close() error {
	return w.file.Close()
}

// Write renders sheets as an xlsx document into wr.
// It fails with ErrNoData when no sheet carries rows.
func Write(wr io.Writer, sheets ...Sheet) error {
	total := 0
	for _, s := range sheets {
		total += len(s.Rows)
	}
	if total == 0 {
		return ErrNoData
	}

	wb := NewWorkbook()
	defer wb.Close()

	for _, s := range sheets {
		if err := wb.AddSheet(s.Name); err != nil {
			return err
		}
		if err := wb.WriteHeader(s.Columns); err != nil {
			return fmt.Errorf("write header of %s: %w", s.Name, err)
		}
		for i, row := range s.Rows {
			if err := wb.WriteRow(row); err != nil {
				return fmt.Errorf("write row %d of %s: %w", i+1, s.Name, err)
			}
		}
	}
	return wb.Save(wr)
}

// FileName is the download name for an export.
func FileName(base string) string {
	return base + ".xlsx"
}
