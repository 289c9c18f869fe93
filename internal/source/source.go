// Package source loads the raw rows behind a dashboard page from a database
// query or a tabular file.
package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/andresuchdata/sportstore-dash/backend-go/internal/domain"
	"github.com/andresuchdata/sportstore-dash/backend-go/internal/repository"
	"github.com/andresuchdata/sportstore-dash/backend-go/internal/storage"
)

// Source produces the raw rows of one page.
type Source interface {
	Load(ctx context.Context) ([]domain.RawRow, error)
	// Identity distinguishes sources in cache keys.
	Identity() string
}

// Opener resolves a file path to a readable stream.
type Opener interface {
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// LocalOpener reads files relative to a base directory.
type LocalOpener struct {
	Dir string
}

func (o LocalOpener) Open(_ context.Context, path string) (io.ReadCloser, error) {
	full := path
	if !filepath.IsAbs(path) && o.Dir != "" {
		full = filepath.Join(o.Dir, path)
	}
	f, err := os.Open(full)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", full, err)
	}
	return f, nil
}

// ObjectOpener reads files from an object store, using the path as key.
type ObjectOpener struct {
	Storage storage.ObjectStorage
}

func (o ObjectOpener) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	return o.Storage.OpenObject(ctx, strings.TrimPrefix(path, "/"))
}

// SQLSource runs a fixed query.
type SQLSource struct {
	repo  repository.RecordRepository
	query string
}

func NewSQLSource(repo repository.RecordRepository, query string) *SQLSource {
	return &SQLSource{repo: repo, query: query}
}

func (s *SQLSource) Load(ctx context.Context) ([]domain.RawRow, error) {
	rows, err := s.repo.FetchRows(ctx, s.query)
	if err != nil {
		return nil, fmt.Errorf("failed to load query rows: %w", err)
	}
	return rows, nil
}

func (s *SQLSource) Identity() string {
	return "sql:" + s.query
}

// rowsFromTable keys every data row by the header. Short rows are padded
// with empty cells, which the normalizer treats as missing.
func rowsFromTable(table [][]string) []domain.RawRow {
	if len(table) == 0 {
		return []domain.RawRow{}
	}

	header := make([]string, len(table[0]))
	for i, h := range table[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	rows := make([]domain.RawRow, 0, len(table)-1)
	for _, record := range table[1:] {
		if isEmptyRecord(record) {
			continue
		}
		row := make(domain.RawRow, len(header))
		for i, col := range header {
			if col == "" {
				continue
			}
			if i < len(record) {
				row[col] = record[i]
			} else {
				row[col] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func isEmptyRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
