package repository

import (
	"context"
	"testing"

	"github.com/andresuchdata/sportstore-dash/backend-go/internal/config"
	"github.com/andresuchdata/sportstore-dash/backend-go/internal/repository/sqlstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sqlstore.DB {
	t.Helper()

	db, err := sqlstore.Open(sqlstore.DriverSQLite, ":memory:", sqlstore.Options{MaxOpenConns: 1, RetryAttempts: 2})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
		CREATE TABLE venta (
			id_venta INTEGER PRIMARY KEY,
			fecha_venta TEXT,
			monto_total REAL,
			descuento_aplicado REAL,
			marca TEXT
		)`)
	require.NoError(t, err)

	_, err = db.Exec(`
		INSERT INTO venta (id_venta, fecha_venta, monto_total, descuento_aplicado, marca) VALUES
			(1, '2024-03-01 10:00:00', 100.5, 0.5, 'Nike'),
			(2, '0000-00-00 00:00:00', 50, NULL, NULL)`)
	require.NoError(t, err)

	return db
}

func TestFetchRows(t *testing.T) {
	repo := NewRecordRepository(newTestDB(t))

	rows, err := repo.FetchRows(context.Background(), "SELECT * FROM venta ORDER BY id_venta")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.EqualValues(t, 1, rows[0]["id_venta"])
	assert.Equal(t, "Nike", rows[0]["marca"])
	assert.Equal(t, 100.5, rows[0]["monto_total"])
	assert.Nil(t, rows[1]["marca"])
	assert.Nil(t, rows[1]["descuento_aplicado"])
}

func TestFetchRowsEmpty(t *testing.T) {
	repo := NewRecordRepository(newTestDB(t))

	rows, err := repo.FetchRows(context.Background(), "SELECT * FROM venta WHERE id_venta > ?", 100)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestFetchRowsQueryError(t *testing.T) {
	repo := NewRecordRepository(newTestDB(t))

	_, err := repo.FetchRows(context.Background(), "SELECT * FROM missing_table")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
}

func TestFetchRowsCanceledContext(t *testing.T) {
	repo := NewRecordRepository(newTestDB(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.FetchRows(ctx, "SELECT * FROM venta")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildDSN(t *testing.T) {
	base := config.DatabaseConfig{
		Host: "db", Port: "5432", User: "app", Password: "secret", DBName: "tienda", SSLMode: "disable",
	}

	cases := map[string]string{
		sqlstore.DriverPostgres: "host=db port=5432 user=app password=secret dbname=tienda sslmode=disable",
		sqlstore.DriverPgx:      "postgres://app:secret@db:5432/tienda?sslmode=disable",
		sqlstore.DriverMySQL:    "app:secret@tcp(db:5432)/tienda?parseTime=true",
		sqlstore.DriverSQLite:   "tienda",
	}
	for driver, want := range cases {
		cfg := base
		cfg.Driver = driver
		got, err := sqlstore.BuildDSN(&cfg)
		require.NoError(t, err, driver)
		assert.Equal(t, want, got, driver)
	}

	cfg := base
	cfg.Driver = "oracle"
	_, err := sqlstore.BuildDSN(&cfg)
	assert.Error(t, err)

	cfg.URL = "postgres://override"
	got, err := sqlstore.BuildDSN(&cfg)
	require.NoError(t, err)
	assert.Equal(t, "postgres://override", got)
}
