package analytics

import (
	"sort"
	"time"

	"github.com/andresuchdata/sportstore-dash/backend-go/internal/domain"
)

// Apply returns the records of base that satisfy every condition of spec, in
// their original order. The base dataset is left untouched.
func Apply(base *domain.Dataset, spec domain.FilterSpec) *domain.Dataset {
	out := &domain.Dataset{}
	if base == nil {
		return out
	}
	out.Page = base.Page
	out.Sentinels = base.Sentinels
	out.LoadedAt = base.LoadedAt

	matchers := buildMatchers(base, spec)
	out.Records = make([]domain.SaleRecord, 0, len(base.Records))
	for i := range base.Records {
		if matchAll(&base.Records[i], matchers) {
			out.Records = append(out.Records, base.Records[i])
		}
	}
	return out
}

type matcher func(r *domain.SaleRecord) bool

func buildMatchers(base *domain.Dataset, spec domain.FilterSpec) []matcher {
	var matchers []matcher

	if spec.DateRange != nil {
		from, to := dayNumber(spec.DateRange.From), dayNumber(spec.DateRange.To)
		if to < from {
			from, to = to, from
		}
		matchers = append(matchers, func(r *domain.SaleRecord) bool {
			if r.SaleDate == nil {
				return false
			}
			d := dayNumber(*r.SaleDate)
			return d >= from && d <= to
		})
	}

	for _, p := range spec.Predicates {
		if !p.Active() {
			continue
		}
		allowed := make(map[string]struct{}, len(p.Values))
		for _, v := range p.Values {
			allowed[v] = struct{}{}
		}
		dim := p.Dimension
		sentinel, hasSentinel := base.Sentinel(dim)
		relaxed := p.Relaxed && hasSentinel

		matchers = append(matchers, func(r *domain.SaleRecord) bool {
			v, ok := r.Dimension(dim)
			if !ok {
				return false
			}
			if _, hit := allowed[v]; hit {
				return true
			}
			return relaxed && v == sentinel
		})
	}

	return matchers
}

func matchAll(r *domain.SaleRecord, matchers []matcher) bool {
	for _, m := range matchers {
		if !m(r) {
			return false
		}
	}
	return true
}

// dayNumber collapses a timestamp to its calendar day in its own location so
// that time-of-day never affects range membership.
func dayNumber(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}

// Options lists the distinct values of each dimension, sorted, together with
// the earliest and latest sale date of the dataset.
func Options(ds *domain.Dataset, dims []string) domain.FilterOptions {
	opts := domain.FilterOptions{Dimensions: make(map[string][]string, len(dims))}
	if ds == nil {
		return opts
	}
	opts.Page = ds.Page

	seen := make(map[string]map[string]struct{}, len(dims))
	for _, dim := range dims {
		seen[dim] = make(map[string]struct{})
	}

	for i := range ds.Records {
		r := &ds.Records[i]
		for _, dim := range dims {
			if v, ok := r.Dimension(dim); ok && v != "" {
				seen[dim][v] = struct{}{}
			}
		}
		if r.SaleDate == nil {
			continue
		}
		if opts.MinDate == nil || r.SaleDate.Before(*opts.MinDate) {
			t := *r.SaleDate
			opts.MinDate = &t
		}
		if opts.MaxDate == nil || r.SaleDate.After(*opts.MaxDate) {
			t := *r.SaleDate
			opts.MaxDate = &t
		}
	}

	for _, dim := range dims {
		values := make([]string, 0, len(seen[dim]))
		for v := range seen[dim] {
			values = append(values, v)
		}
		sort.Strings(values)
		opts.Dimensions[dim] = values
	}
	return opts
}
