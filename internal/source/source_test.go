package source

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/andresuchdata/sportstore-dash/backend-go/internal/domain"
	"github.com/andresuchdata/sportstore-dash/backend-go/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestCSVSourceLoad(t *testing.T) {
	dir := t.TempDir()
	content := "\ufeffmarca,categoria,stock\nNike,Calzado,12\nAdidas,,\n,,\nPuma,Ropa\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "inventario.csv"), []byte(content), 0o644))

	src, err := NewFileSource(LocalOpener{Dir: dir}, "inventario.csv", "")
	require.NoError(t, err)

	rows, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, domain.RawRow{"marca": "Nike", "categoria": "Calzado", "stock": "12"}, rows[0])
	assert.Equal(t, "", rows[1]["categoria"])
	assert.Equal(t, "", rows[2]["stock"])
	assert.Equal(t, "csv:inventario.csv", src.Identity())
}

func TestCSVSourceMissingFile(t *testing.T) {
	src := NewCSVSource(LocalOpener{Dir: t.TempDir()}, "nope.csv", 0)
	_, err := src.Load(context.Background())
	assert.Error(t, err)
}

func TestXLSXSourceLoad(t *testing.T) {
	dir := t.TempDir()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"empleado", "nombre_sucursal", "nombre_turno"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"Ana Rojas", "Central", "Mañana"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"Luis Vaca", "Norte"}))
	require.NoError(t, f.SaveAs(filepath.Join(dir, "empleados.xlsx")))
	require.NoError(t, f.Close())

	src, err := NewFileSource(LocalOpener{Dir: dir}, "empleados.xlsx", "")
	require.NoError(t, err)

	rows, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Central", rows[0]["nombre_sucursal"])
	assert.Equal(t, "Mañana", rows[0]["nombre_turno"])
	assert.Equal(t, "", rows[1]["nombre_turno"])
}

func TestNewFileSourceRejectsUnknownExtension(t *testing.T) {
	_, err := NewFileSource(LocalOpener{}, "data.json", "")
	assert.Error(t, err)
}

type fakeRepo struct {
	rows  []domain.RawRow
	err   error
	query string
}

func (f *fakeRepo) FetchRows(_ context.Context, query string, _ ...any) ([]domain.RawRow, error) {
	f.query = query
	return f.rows, f.err
}

func (f *fakeRepo) Ping(context.Context) error { return nil }

func TestSQLSource(t *testing.T) {
	repo := &fakeRepo{rows: []domain.RawRow{{"id_venta": int64(1)}}}
	src := NewSQLSource(repo, "SELECT 1")

	rows, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, "SELECT 1", repo.query)

	repo.err = errors.New("connection refused")
	_, err = src.Load(context.Background())
	assert.ErrorContains(t, err, "connection refused")
}

type fakeStorage struct {
	objects map[string]string
}

func (f *fakeStorage) ListObjects(context.Context, string) ([]storage.ObjectInfo, error) {
	return nil, nil
}

func (f *fakeStorage) OpenObject(_ context.Context, key string) (io.ReadCloser, error) {
	body, ok := f.objects[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func (f *fakeStorage) DownloadObject(context.Context, string, string) error { return nil }

func (f *fakeStorage) UploadObject(context.Context, string, []byte) error { return nil }

func TestObjectOpener(t *testing.T) {
	store := &fakeStorage{objects: map[string]string{"pages/inventario.csv": "marca\nNike\n"}}

	rows, err := NewCSVSource(ObjectOpener{Storage: store}, "/pages/inventario.csv", ',').Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.RawRow{{"marca": "Nike"}}, rows)
}
