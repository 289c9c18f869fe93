package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/andresuchdata/sportstore-dash/backend-go/internal/analytics"
	"github.com/andresuchdata/sportstore-dash/backend-go/internal/cache"
	"github.com/andresuchdata/sportstore-dash/backend-go/internal/domain"
	"github.com/andresuchdata/sportstore-dash/backend-go/internal/pages"
	"github.com/andresuchdata/sportstore-dash/backend-go/internal/source"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

var (
	ErrUnknownPage       = errors.New("unknown page")
	ErrSourceUnavailable = errors.New("page source unavailable")
	ErrInvalidRequest    = analytics.ErrInvalidRequest
)

const (
	defaultRecordsPageSize = 50
	maxRecordsPageSize     = 500
	dashboardWorkers       = 8
)

// DashboardService runs the load, filter and aggregate pipeline for every
// registered page. Base datasets are read-only once built and are shared
// between concurrent requests.
type DashboardService struct {
	registry *pages.Registry
	sources  map[string]source.Source
	cache    cache.DatasetCache
	loads    singleflight.Group
	now      func() time.Time
}

// NewDashboardService wires pages to their loaders. sources is keyed by page
// name; pages without a source answer ErrSourceUnavailable.
func NewDashboardService(registry *pages.Registry, sources map[string]source.Source, cacheImpl cache.DatasetCache) *DashboardService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopDatasetCache()
	}
	if sources == nil {
		sources = map[string]source.Source{}
	}
	return &DashboardService{
		registry: registry,
		sources:  sources,
		cache:    cacheImpl,
		now:      time.Now,
	}
}

func (s *DashboardService) ListPages() []domain.PageSummary {
	list := s.registry.List()
	out := make([]domain.PageSummary, 0, len(list))
	for _, p := range list {
		out = append(out, p.Summary())
	}
	return out
}

// PagesReading lists the file-backed pages whose source is path.
func (s *DashboardService) PagesReading(path string) []string {
	path = strings.TrimPrefix(path, "/")
	var out []string
	for _, p := range s.registry.List() {
		if p.Source.Kind == pages.SourceFile && strings.TrimPrefix(p.Source.Path, "/") == path {
			out = append(out, p.Name)
		}
	}
	return out
}

// Page returns the configuration of a page.
func (s *DashboardService) Page(name string) (*pages.Page, error) {
	p, ok := s.registry.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPage, name)
	}
	return p, nil
}

// BaseDataset returns the unfiltered dataset of a page, from cache when a
// fresh entry exists. Concurrent misses for the same page share one load.
func (s *DashboardService) BaseDataset(ctx context.Context, name string) (*domain.Dataset, error) {
	p, src, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	key := cache.Key{Page: p.Name, Source: src.Identity()}

	if ds, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		return ds, nil
	} else if err != nil {
		log.Warn().Err(err).Str("page", p.Name).Msg("dashboard: cache get dataset failed")
	}

	v, err, _ := s.loads.Do(key.String(), func() (interface{}, error) {
		return s.load(ctx, p, src, key)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Dataset), nil
}

func (s *DashboardService) load(ctx context.Context, p *pages.Page, src source.Source, key cache.Key) (*domain.Dataset, error) {
	start := s.now()
	rows, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load page %s: %w", p.Name, err)
	}

	ds := p.Processor().Build(rows)
	log.Info().
		Str("page", p.Name).
		Str("source", src.Identity()).
		Int("records", ds.Len()).
		Dur("took", s.now().Sub(start)).
		Msg("dashboard: dataset loaded")

	if err := s.cache.Set(ctx, key, ds); err != nil {
		log.Warn().Err(err).Str("page", p.Name).Msg("dashboard: cache set dataset failed")
	}
	return ds, nil
}

// Refresh drops the cached dataset of a page and loads it again.
func (s *DashboardService) Refresh(ctx context.Context, name string) (*domain.Dataset, error) {
	p, _, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Invalidate(ctx, p.Name); err != nil {
		return nil, fmt.Errorf("failed to invalidate page %s: %w", p.Name, err)
	}
	return s.BaseDataset(ctx, p.Name)
}

// InvalidateAll drops every cached dataset.
func (s *DashboardService) InvalidateAll(ctx context.Context) error {
	return s.cache.InvalidateAll(ctx)
}

// Filtered applies a selection to the page's base dataset.
func (s *DashboardService) Filtered(ctx context.Context, name string, sel pages.Selection) (*pages.Page, *domain.Dataset, error) {
	p, err := s.Page(name)
	if err != nil {
		return nil, nil, err
	}
	base, err := s.BaseDataset(ctx, p.Name)
	if err != nil {
		return nil, nil, err
	}
	return p, analytics.Apply(base, p.FilterSpec(sel)), nil
}

// Dashboard computes every KPI and visualization of a page for a selection.
func (s *DashboardService) Dashboard(ctx context.Context, name string, sel pages.Selection) (*domain.Dashboard, error) {
	p, ds, err := s.Filtered(ctx, name, sel)
	if err != nil {
		return nil, err
	}

	kpis := make([]domain.KPI, len(p.KPIs))
	charts := make([]domain.Visualization, len(p.Visualizations))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(dashboardWorkers)

	for i, def := range p.KPIs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			kpi, err := computeKPI(ds, def)
			if err != nil {
				return fmt.Errorf("kpi %s: %w", def.Name, err)
			}
			kpis[i] = kpi
			return nil
		})
	}

	for i, def := range p.Visualizations {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := analytics.Aggregate(ds, def.Request)
			if err != nil {
				return fmt.Errorf("visualization %s: %w", def.Name, err)
			}
			charts[i] = domain.Visualization{Name: def.Name, Title: def.Title, Chart: def.Chart, Result: res}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &domain.Dashboard{
		Page:           p.Name,
		Title:          p.Title,
		RecordCount:    ds.Len(),
		KPIs:           kpis,
		Visualizations: charts,
		GeneratedAt:    s.now().UTC(),
	}, nil
}

func computeKPI(ds *domain.Dataset, def pages.KPIDef) (domain.KPI, error) {
	kpi := domain.KPI{Name: def.Name, Title: def.Title, Unit: def.Unit}

	if len(def.Where) > 0 {
		ds = analytics.Apply(ds, domain.FilterSpec{Predicates: def.Where})
	}

	switch def.Kind {
	case pages.KPITop:
		reduction := def.Reduction
		if reduction == "" {
			reduction = domain.ReduceSum
		}
		res, err := analytics.Aggregate(ds, domain.AggregateRequest{
			GroupBy:   []string{def.GroupBy},
			Measure:   def.Measure,
			Reduction: reduction,
			Sort:      domain.SortValueDesc,
			TopN:      1,
		})
		if err != nil {
			return kpi, err
		}
		if len(res.Rows) == 0 {
			kpi.Value = domain.NoData()
			return kpi, nil
		}
		kpi.Key = res.Rows[0].Keys[0]
		kpi.Value = res.Rows[0].Value
		return kpi, nil
	case pages.KPIGroupMean:
		reduction := def.Reduction
		if reduction == "" {
			reduction = domain.ReduceFirst
		}
		res, err := analytics.Aggregate(ds, domain.AggregateRequest{
			GroupBy:   []string{def.GroupBy},
			Measure:   def.Measure,
			Reduction: reduction,
		})
		if err != nil {
			return kpi, err
		}
		kpi.Value = meanOfRows(res.Rows)
		return kpi, nil
	default:
		v, err := analytics.Summarize(ds, def.Measure, def.Reduction, def.DistinctBy)
		if err != nil {
			return kpi, err
		}
		kpi.Value = v
		return kpi, nil
	}
}

// meanOfRows averages the row values that carry data.
func meanOfRows(rows []domain.AggregationRow) domain.Value {
	var sum float64
	n := 0
	for _, row := range rows {
		if row.Value.Valid {
			sum += row.Value.Float
			n++
		}
	}
	if n == 0 {
		return domain.NoData()
	}
	return domain.ValueOf(sum / float64(n))
}

// Aggregate runs an ad-hoc aggregation over the filtered dataset.
func (s *DashboardService) Aggregate(ctx context.Context, name string, sel pages.Selection, req domain.AggregateRequest) (domain.AggregationResult, error) {
	_, ds, err := s.Filtered(ctx, name, sel)
	if err != nil {
		return domain.AggregationResult{}, err
	}
	return analytics.Aggregate(ds, req)
}

// Options lists the selectable filter values of a page over its full dataset.
func (s *DashboardService) Options(ctx context.Context, name string) (domain.FilterOptions, error) {
	p, err := s.Page(name)
	if err != nil {
		return domain.FilterOptions{}, err
	}
	base, err := s.BaseDataset(ctx, p.Name)
	if err != nil {
		return domain.FilterOptions{}, err
	}
	opts := analytics.Options(base, p.FilterDimensions())
	opts.Page = p.Name
	return opts, nil
}

// Records returns one page of the filtered records in dataset order.
func (s *DashboardService) Records(ctx context.Context, name string, sel pages.Selection, page, pageSize int) (*domain.RecordsPage, error) {
	_, ds, err := s.Filtered(ctx, name, sel)
	if err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultRecordsPageSize
	}
	if pageSize > maxRecordsPageSize {
		pageSize = maxRecordsPageSize
	}

	total := ds.Len()
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	items := make([]domain.SaleRecord, end-start)
	copy(items, ds.Records[start:end])

	return &domain.RecordsPage{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

func (s *DashboardService) resolve(name string) (*pages.Page, source.Source, error) {
	p, err := s.Page(name)
	if err != nil {
		return nil, nil, err
	}
	src, ok := s.sources[p.Name]
	if !ok || src == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrSourceUnavailable, p.Name)
	}
	return p, src, nil
}
