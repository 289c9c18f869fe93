package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/andresuchdata/sportstore-dash/backend-go/internal/domain"
	"github.com/xuri/excelize/v2"
)

// CSVSource reads a header-first CSV file.
type CSVSource struct {
	opener Opener
	path   string
	comma  rune
}

// NewCSVSource reads path through opener. A zero comma means ','.
func NewCSVSource(opener Opener, path string, comma rune) *CSVSource {
	if comma == 0 {
		comma = ','
	}
	return &CSVSource{opener: opener, path: path, comma: comma}
}

func (s *CSVSource) Load(ctx context.Context) ([]domain.RawRow, error) {
	rc, err := s.opener.Open(ctx, s.path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	reader := csv.NewReader(rc)
	reader.Comma = s.comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	table, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv %s: %w", s.path, err)
	}
	return rowsFromTable(table), nil
}

func (s *CSVSource) Identity() string {
	return "csv:" + s.path
}

// XLSXSource reads one worksheet of an Excel workbook.
type XLSXSource struct {
	opener Opener
	path   string
	sheet  string
}

// NewXLSXSource reads sheet of the workbook at path. An empty sheet means
// the first one.
func NewXLSXSource(opener Opener, path, sheet string) *XLSXSource {
	return &XLSXSource{opener: opener, path: path, sheet: sheet}
}

func (s *XLSXSource) Load(ctx context.Context) ([]domain.RawRow, error) {
	rc, err := s.opener.Open(ctx, s.path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	f, err := excelize.OpenReader(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", s.path, err)
	}
	defer f.Close()

	sheet := s.sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	table, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q of %s: %w", sheet, s.path, err)
	}
	return rowsFromTable(table), nil
}

func (s *XLSXSource) Identity() string {
	return "xlsx:" + s.path + "#" + s.sheet
}

// NewFileSource picks the reader from the file extension.
func NewFileSource(opener Opener, path, sheet string) (Source, error) {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".csv"):
		return NewCSVSource(opener, path, ','), nil
	case strings.HasSuffix(lower, ".tsv"):
		return NewCSVSource(opener, path, '\t'), nil
	case strings.HasSuffix(lower, ".xlsx"), strings.HasSuffix(lower, ".xlsm"):
		return NewXLSXSource(opener, path, sheet), nil
	}
	return nil, fmt.Errorf("unsupported file type for %s", path)
}

var (
	_ Source = (*SQLSource)(nil)
	_ Source = (*CSVSource)(nil)
	_ Source = (*XLSXSource)(nil)
)
