// Package pages describes the dashboard pages: where each page's rows come
// from, how they are normalized, which filters the page exposes and which
// KPIs and charts it renders.
package pages

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/andresuchdata/sportstore-dash/backend-go/internal/analytics"
	"github.com/andresuchdata/sportstore-dash/backend-go/internal/domain"
	"github.com/andresuchdata/sportstore-dash/backend-go/internal/repository"
	"github.com/andresuchdata/sportstore-dash/backend-go/internal/source"
)

type SourceKind string

const (
	SourceSQL  SourceKind = "sql"
	SourceFile SourceKind = "file"
)

// SourceSpec locates a page's raw rows.
type SourceSpec struct {
	Kind  SourceKind `json:"kind"`
	Query string     `json:"query,omitempty"`
	Path  string     `json:"path,omitempty"`
	Sheet string     `json:"sheet,omitempty"`
}

// FilterDef is one sidebar filter.
type FilterDef struct {
	Dimension string `json:"dimension"`
	Label     string `json:"label"`
	Relaxed   bool   `json:"relaxed,omitempty"`
}

type KPIKind string

const (
	KPISummary   KPIKind = "summary"
	KPITop       KPIKind = "top"
	KPIGroupMean KPIKind = "group_mean"
)

// KPIDef is one headline card. Summary cards reduce the filtered dataset;
// top cards report the leading group of GroupBy by summed Measure.
// Group-mean cards reduce Measure once per GroupBy value (first by default)
// and average those values.
type KPIDef struct {
	Name       string                        `json:"name"`
	Title      string                        `json:"title"`
	Unit       string                        `json:"unit,omitempty"`
	Kind       KPIKind                       `json:"kind"`
	Measure    string                        `json:"measure,omitempty"`
	Reduction  domain.Reduction              `json:"reduction,omitempty"`
	DistinctBy string                        `json:"distinct_by,omitempty"`
	GroupBy    string                        `json:"group_by,omitempty"`
	Where      []domain.CategoricalPredicate `json:"where,omitempty"`
}

// VisualizationDef is one requested chart.
type VisualizationDef struct {
	Name    string                  `json:"name"`
	Title   string                  `json:"title"`
	Chart   string                  `json:"chart"`
	Request domain.AggregateRequest `json:"request"`
}

// Page is the full configuration of one dashboard page.
type Page struct {
	Name           string                     `json:"name"`
	Title          string                     `json:"title"`
	Source         SourceSpec                 `json:"source"`
	Normalizer     analytics.NormalizerConfig `json:"normalizer"`
	Filters        []FilterDef                `json:"filters"`
	KPIs           []KPIDef                   `json:"kpis"`
	Visualizations []VisualizationDef         `json:"visualizations"`
}

// Selection is the raw user input for a page: an optional date range and
// the chosen values per filter dimension.
type Selection struct {
	DateRange *domain.DateRange
	Values    map[string][]string
}

// FilterSpec turns a selection into a filter spec. Only the page's declared
// filters are honoured and each keeps its relaxed flag.
func (p *Page) FilterSpec(sel Selection) domain.FilterSpec {
	spec := domain.FilterSpec{DateRange: sel.DateRange}
	for _, f := range p.Filters {
		values := dedupe(sel.Values[f.Dimension])
		if len(values) == 0 {
			continue
		}
		spec.Predicates = append(spec.Predicates, domain.CategoricalPredicate{
			Dimension: f.Dimension,
			Values:    values,
			Relaxed:   f.Relaxed,
		})
	}
	return spec
}

// FilterDimensions lists the dimensions of the page's filters in order.
func (p *Page) FilterDimensions() []string {
	dims := make([]string, 0, len(p.Filters))
	for _, f := range p.Filters {
		dims = append(dims, f.Dimension)
	}
	return dims
}

// Processor builds the page's base datasets.
func (p *Page) Processor() *analytics.Processor {
	return analytics.NewProcessor(p.Name, p.Normalizer)
}

// NewSource builds the loader for the page. repo may be nil for file pages.
func (p *Page) NewSource(repo repository.RecordRepository, opener source.Opener) (source.Source, error) {
	switch p.Source.Kind {
	case SourceSQL:
		if repo == nil {
			return nil, fmt.Errorf("page %s needs a database connection", p.Name)
		}
		return source.NewSQLSource(repo, p.Source.Query), nil
	case SourceFile:
		if opener == nil {
			return nil, fmt.Errorf("page %s needs a file opener", p.Name)
		}
		return source.NewFileSource(opener, p.Source.Path, p.Source.Sheet)
	}
	return nil, fmt.Errorf("page %s has unknown source kind %q", p.Name, p.Source.Kind)
}

// Summary describes the page for listings.
func (p *Page) Summary() domain.PageSummary {
	return domain.PageSummary{
		Name:    p.Name,
		Title:   p.Title,
		Source:  string(p.Source.Kind),
		Filters: p.FilterDimensions(),
	}
}

// Validate checks that every visualization is a servable aggregation.
func (p *Page) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("page without name")
	}
	empty := &domain.Dataset{}
	for _, v := range p.Visualizations {
		if _, err := analytics.Aggregate(empty, v.Request); err != nil {
			return fmt.Errorf("page %s visualization %s: %w", p.Name, v.Name, err)
		}
	}
	for _, k := range p.KPIs {
		switch k.Kind {
		case KPISummary:
			if _, err := analytics.Summarize(empty, k.Measure, k.Reduction, k.DistinctBy); err != nil {
				return fmt.Errorf("page %s kpi %s: %w", p.Name, k.Name, err)
			}
		case KPITop:
			if k.GroupBy == "" || k.Measure == "" {
				return fmt.Errorf("page %s kpi %s: top cards need group_by and measure", p.Name, k.Name)
			}
		case KPIGroupMean:
			if k.GroupBy == "" || k.Measure == "" {
				return fmt.Errorf("page %s kpi %s: group mean cards need group_by and measure", p.Name, k.Name)
			}
		default:
			return fmt.Errorf("page %s kpi %s: unknown kind %q", p.Name, k.Name, k.Kind)
		}
	}
	return nil
}

// Registry holds the pages in display order.
type Registry struct {
	pages map[string]*Page
	order []string
}

func NewRegistry(pages ...*Page) (*Registry, error) {
	r := &Registry{pages: make(map[string]*Page, len(pages))}
	for _, p := range pages {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Register(p *Page) error {
	if err := p.Validate(); err != nil {
		return err
	}
	key := strings.ToLower(p.Name)
	if _, exists := r.pages[key]; exists {
		return fmt.Errorf("page %s registered twice", p.Name)
	}
	r.pages[key] = p
	r.order = append(r.order, key)
	return nil
}

func (r *Registry) Get(name string) (*Page, bool) {
	p, ok := r.pages[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

func (r *Registry) List() []*Page {
	out := make([]*Page, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.pages[key])
	}
	return out
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// ParseDay parses a YYYY-MM-DD request parameter.
func ParseDay(s string) (time.Time, error) {
	return time.Parse("2006-01-02", strings.TrimSpace(s))
}
