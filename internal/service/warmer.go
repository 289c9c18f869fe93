package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// WarmResult reports the preload of one page.
type WarmResult struct {
	Page    string        `json:"page"`
	Records int           `json:"records"`
	Took    time.Duration `json:"took"`
	Err     error         `json:"-"`
}

// Warm loads the base dataset of every page that has a source, using a
// pool of workers. A failing page is reported and does not stop the others.
func (s *DashboardService) Warm(ctx context.Context, workers int) []WarmResult {
	if workers < 1 {
		workers = 1
	}

	var names []string
	for _, p := range s.registry.List() {
		if _, ok := s.sources[p.Name]; ok {
			names = append(names, p.Name)
		}
	}

	jobs := make(chan int, len(names))
	results := make([]WarmResult, len(names))
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for idx := range jobs {
				start := s.now()
				res := WarmResult{Page: names[idx]}
				ds, err := s.BaseDataset(ctx, names[idx])
				if err != nil {
					res.Err = err
					log.Warn().Err(err).Int("worker", workerID).Str("page", names[idx]).Msg("dashboard: warm-up failed")
				} else {
					res.Records = ds.Len()
				}
				res.Took = s.now().Sub(start)
				results[idx] = res
			}
		}(i)
	}

	for i := range names {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return results[:i]
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	return results
}

// WarmEvery reloads every page each interval until ctx is done, so cached
// datasets are replaced before they expire.
func (s *DashboardService) WarmEvery(ctx context.Context, interval time.Duration, workers int) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, p := range s.registry.List() {
				if _, ok := s.sources[p.Name]; !ok {
					continue
				}
				if err := s.cache.Invalidate(ctx, p.Name); err != nil {
					log.Warn().Err(err).Str("page", p.Name).Msg("dashboard: cache invalidate failed")
				}
			}
			s.Warm(ctx, workers)
		}
	}
}
