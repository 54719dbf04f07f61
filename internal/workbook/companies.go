package workbook

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ReadCompanies loads the first column of a headerless list. Spreadsheets are read
// from their first sheet; .csv and .txt files as comma separated text. Blank
// values are skipped.
func ReadCompanies(path string) ([]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return readSpreadsheetColumn(path)
	case ".csv", ".txt":
		return readTextColumn(path)
	default:
		return nil, fmt.Errorf("unsupported company list format: %s", path)
	}
}

func readSpreadsheetColumn(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open company list: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("company list %s has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read company list: %w", err)
	}

	var out []string
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		if name := strings.TrimSpace(row[0]); name != "" {
			out = append(out, name)
		}
	}
	return out, nil
}

func readTextColumn(path string) ([]string, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open company list: %w", err)
	}
	defer fh.Close()

	r := csv.NewReader(fh)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var out []string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read company list: %w", err)
		}
		if len(rec) == 0 {
			continue
		}
		if name := strings.TrimSpace(strings.TrimPrefix(rec[0], "\ufeff")); name != "" {
			out = append(out, name)
		}
	}
	return out, nil
}
