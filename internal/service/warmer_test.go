package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/andresuchdata/sportstore-dash/backend-go/internal/cache"
	"github.com/andresuchdata/sportstore-dash/backend-go/internal/pages"
	"github.com/andresuchdata/sportstore-dash/backend-go/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWarmLoadsEveryPageWithSource(t *testing.T) {
	reg, err := pages.NewRegistry(pages.Sales(), pages.Customers(), pages.Inventory())
	require.NoError(t, err)

	sales := &fakeSource{rows: salesRows()}
	broken := &fakeSource{err: errors.New("timeout")}
	svc := NewDashboardService(reg, map[string]source.Source{
		"ventas":   sales,
		"clientes": broken,
	}, cache.NewMemoryDatasetCache(8, time.Minute))

	results := svc.Warm(context.Background(), 3)
	require.Len(t, results, 2)

	assert.Equal(t, "ventas", results[0].Page)
	assert.Equal(t, 4, results[0].Records)
	assert.NoError(t, results[0].Err)

	assert.Equal(t, "clientes", results[1].Page)
	assert.Error(t, results[1].Err)

	_, err = svc.BaseDataset(context.Background(), "ventas")
	require.NoError(t, err)
	assert.Equal(t, int32(1), sales.loads.Load())
}

func TestWarmEveryStopsWithContext(t *testing.T) {
	reg, err := pages.NewRegistry(pages.Sales())
	require.NoError(t, err)
	sales := &fakeSource{rows: salesRows()}
	svc := NewDashboardService(reg, map[string]source.Source{"ventas": sales}, cache.NewMemoryDatasetCache(8, time.Minute))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.WarmEvery(ctx, 10*time.Millisecond, 1)
		close(done)
	}()

	assert.Eventually(t, func() bool { return sales.loads.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("WarmEvery did not stop")
	}
}
