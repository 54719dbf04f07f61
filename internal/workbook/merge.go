package workbook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"sharescrape/internal/logging"
	"sharescrape/internal/wait"

	"github.com/xuri/excelize/v2"
)

const (
	DefaultPath = "L1_share.xlsx"

	SheetShareholders = "Shareholders"
	SheetHistorical   = "Historical Shareholders"

	DefaultWriteAttempts = 3
	DefaultWriteInterval = time.Second
)

// MergeError reports a failed read-modify-write of one sheet.
type MergeError struct {
	Path  string
	Sheet string
	Err   error
}

func (e *MergeError) Error() string {
	return fmt.Sprintf("merge into %s (sheet %q): %v", e.Path, e.Sheet, e.Err)
}

func (e *MergeError) Unwrap() error {
	return e.Err
}

// Merger appends rows to named sheets of a single workbook file, keeping every
// row already stored there. Calls must not overlap.
type Merger struct {
	Path   string
	Policy wait.Policy // bounds retries of a failed read-modify-write
	Logger *slog.Logger
}

func NewMerger(path string, logger *slog.Logger) *Merger {
	return &Merger{
		Path:   path,
		Policy: wait.Fixed(DefaultWriteAttempts, DefaultWriteInterval),
		Logger: logging.OrDiscard(logger),
	}
}

// Merge writes columns and records into sheet. A missing file or sheet is created
// with columns as its header row. An existing sheet keeps its header row and rows,
// and records are appended after them as given; header shapes are not reconciled.
// A failed write, such as a file locked by another program, is retried per Policy.
func (m *Merger) Merge(sheet string, columns []string, records [][]string) error {
	policy := m.Policy
	next := policy.OnRetry
	policy.OnRetry = func(attempt int) {
		m.Logger.Warn("workbook write failed, retrying", "file", m.Path, "sheet", sheet, "attempt", attempt)
		if next != nil {
			next(attempt)
		}
	}

	_, err := policy.Retry(context.Background(), func() error {
		return m.merge(sheet, columns, records)
	})
	if err != nil {
		merr := &MergeError{Path: m.Path, Sheet: sheet, Err: err}
		m.Logger.Error("error appending to workbook", "err", merr)
		return merr
	}
	m.Logger.Info("data appended", "file", m.Path, "sheet", sheet, "rows", len(records))
	return nil
}

func (m *Merger) merge(sheet string, columns []string, records [][]string) error {
	f, created, err := m.open()
	if err != nil {
		return err
	}
	defer f.Close()

	next := 1
	switch {
	case created:
		if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
			return err
		}
	default:
		idx, err := f.GetSheetIndex(sheet)
		if err != nil {
			return err
		}
		if idx == -1 {
			m.Logger.Warn("sheet does not exist, creating a new one", "sheet", sheet)
			if _, err := f.NewSheet(sheet); err != nil {
				return err
			}
			break
		}
		existing, err := f.GetRows(sheet)
		if err != nil {
			return err
		}
		next = len(existing) + 1
		if len(existing) > 0 && len(existing[0]) != len(columns) {
			m.Logger.Warn("header shape differs from stored sheet, appending without reconciling",
				"sheet", sheet, "stored", len(existing[0]), "new", len(columns))
		}
	}

	if next == 1 {
		if err := writeRow(f, sheet, next, columns); err != nil {
			return err
		}
		next++
	}
	for _, rec := range records {
		if err := writeRow(f, sheet, next, rec); err != nil {
			return err
		}
		next++
	}

	if created {
		return f.SaveAs(m.Path)
	}
	return f.Save()
}

func (m *Merger) open() (f *excelize.File, created bool, err error) {
	_, err = os.Stat(m.Path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return excelize.NewFile(), true, nil
	case err != nil:
		return nil, false, err
	}
	f, err = excelize.OpenFile(m.Path)
	if err != nil {
		return nil, false, err
	}
	return f, false, nil
}

func writeRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	vals := make([]interface{}, len(values))
	for i, v := range values {
		vals[i] = v
	}
	return f.SetSheetRow(sheet, cell, &vals)
}

// ReadSheet returns every row of sheet, header included.
func ReadSheet(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.GetRows(sheet)
}
