package repository

import (
	"context"
	"fmt"

	"github.com/andresuchdata/sportstore-dash/backend-go/internal/domain"
	"github.com/andresuchdata/sportstore-dash/backend-go/internal/repository/sqlstore"
)

// RecordRepository fetches raw denormalized rows for a dashboard query.
type RecordRepository interface {
	FetchRows(ctx context.Context, query string, args ...any) ([]domain.RawRow, error)
	Ping(ctx context.Context) error
}

type recordRepository struct {
	db *sqlstore.DB
}

func NewRecordRepository(db *sqlstore.DB) RecordRepository {
	return &recordRepository{db: db}
}

func (r *recordRepository) FetchRows(ctx context.Context, query string, args ...any) ([]domain.RawRow, error) {
	var rows []domain.RawRow

	err := r.db.WithRetry(ctx, "fetch rows", func(ctx context.Context) error {
		rows = nil

		result, err := r.db.QueryxContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("error executing query: %w", err)
		}
		defer result.Close()

		for result.Next() {
			row := make(map[string]any)
			if err := result.MapScan(row); err != nil {
				return fmt.Errorf("error scanning row: %w", err)
			}
			rows = append(rows, toRawRow(row))
		}
		return result.Err()
	})
	if err != nil {
		return nil, err
	}

	if rows == nil {
		rows = []domain.RawRow{}
	}
	return rows, nil
}

func (r *recordRepository) Ping(ctx context.Context) error {
	return r.db.WithRetry(ctx, "ping", func(ctx context.Context) error {
		return r.db.PingContext(ctx)
	})
}

// toRawRow copies byte slices into strings: drivers reuse the scan buffers.
func toRawRow(row map[string]any) domain.RawRow {
	out := make(domain.RawRow, len(row))
	for k, v := range row {
		if b, ok := v.([]byte); ok {
			out[k] = string(b)
			continue
		}
		out[k] = v
	}
	return out
}
