package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/andresuchdata/sportstore-dash/backend-go/internal/cache"
	"github.com/andresuchdata/sportstore-dash/backend-go/internal/pages"
	"github.com/andresuchdata/sportstore-dash/backend-go/internal/service"
	"github.com/andresuchdata/sportstore-dash/backend-go/internal/source"
	"github.com/andresuchdata/sportstore-dash/backend-go/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *memoryStorage) ListObjects(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []storage.ObjectInfo
	for k, v := range m.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, storage.ObjectInfo{Key: k, Size: int64(len(v))})
		}
	}
	return out, nil
}

func (m *memoryStorage) OpenObject(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memoryStorage) DownloadObject(ctx context.Context, key, destPath string) error {
	return errors.New("not supported")
}

func (m *memoryStorage) UploadObject(ctx context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

type pinger struct{ err error }

func (p pinger) Ping(ctx context.Context) error { return p.err }

const inventoryCSV = "id_producto,producto,marca,categoria,estado,proveedor,stock,precio\n1,Runner,Nike,Calzado,Disponible,Sur,5,100\n"

func newTestHandler(t *testing.T, files *memoryStorage, db Pinger) http.Handler {
	t.Helper()
	reg, err := pages.NewRegistry(pages.Inventory())
	require.NoError(t, err)

	var store storage.ObjectStorage
	sources := map[string]source.Source{}
	if files != nil {
		store = files
		src, err := pages.Inventory().NewSource(nil, source.ObjectOpener{Storage: files})
		require.NoError(t, err)
		sources["inventario"] = src
	}

	svc := service.NewDashboardService(reg, sources, cache.NewMemoryDatasetCache(4, time.Minute))
	return NewRouter(NewHandler(svc, db, store))
}

func TestHealth(t *testing.T) {
	w := httptest.NewRecorder()
	newTestHandler(t, nil, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"disabled"`)

	w = httptest.NewRecorder()
	newTestHandler(t, nil, pinger{err: errors.New("down")}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestFilesRequireStorage(t *testing.T) {
	w := httptest.NewRecorder()
	newTestHandler(t, nil, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/files", nil))
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestUploadReloadsReadingPages(t *testing.T) {
	files := &memoryStorage{objects: map[string][]byte{}}
	h := newTestHandler(t, files, pinger{})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/files?key=inventario.csv", strings.NewReader(inventoryCSV)))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Reloaded []string `json:"reloaded"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []string{"inventario"}, body.Reloaded)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/files/download?key=inventario.csv", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, inventoryCSV, w.Body.String())

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/files", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "inventario.csv")
}

func TestUploadValidation(t *testing.T) {
	h := newTestHandler(t, &memoryStorage{objects: map[string][]byte{}}, nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/files", strings.NewReader("x")))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/files?key=a.csv", strings.NewReader("")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReloadAndClearCache(t *testing.T) {
	files := &memoryStorage{objects: map[string][]byte{"inventario.csv": []byte(inventoryCSV)}}
	h := newTestHandler(t, files, nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/pages/inventario/reload", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"records":1`)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/pages/compras/reload", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/admin/cache", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
