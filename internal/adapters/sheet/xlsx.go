package sheet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"shopify-catalog-sync/internal/domain/model"
)

// XLSXSource reads catalog rows from a workbook. The first sheet is used
// unless Sheet names another one.
type XLSXSource struct {
	Path  string
	Sheet string
}

func NewXLSXSource(path, sheet string) *XLSXSource {
	return &XLSXSource{Path: strings.TrimSpace(path), Sheet: strings.TrimSpace(sheet)}
}

func (s *XLSXSource) Rows(ctx context.Context) ([]model.Row, error) {
	if s.Path == "" {
		return nil, errors.New("xlsx source path is empty")
	}
	file, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", s.Path, err)
	}
	defer file.Close()

	return ReadRows(ctx, file, s.Sheet)
}

// ReadRows parses a workbook stream: a header row followed by data rows.
func ReadRows(ctx context.Context, r io.Reader, sheetName string) ([]model.Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("no sheets found in Excel file")
	}
	if sheetName == "" {
		sheetName = sheets[0]
	} else if !containsSheet(sheets, sheetName) {
		return nil, fmt.Errorf("sheet %q not found in Excel file", sheetName)
	}

	excelRows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheetName, err)
	}
	if len(excelRows) == 0 {
		return nil, errors.New("sheet has no header row")
	}

	header := excelRows[0]
	if err := model.CheckColumns(header); err != nil {
		return nil, err
	}

	rows := make([]model.Row, 0, len(excelRows)-1)
	for i, record := range excelRows[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if model.IsBlankRecord(record) {
			continue
		}
		// Line numbers count the header as line 1.
		rows = append(rows, model.RowFromRecord(header, record, i+2))
	}
	return rows, nil
}

func containsSheet(sheets []string, name string) bool {
	for _, sheet := range sheets {
		if sheet == name {
			return true
		}
	}
	return false
}
