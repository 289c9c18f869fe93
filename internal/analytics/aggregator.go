package analytics

import (
	"errors"
	"fmt"
	"sort"

	"github.com/andresuchdata/sportstore-dash/backend-go/internal/domain"
)

// ErrInvalidRequest is returned for aggregation requests that cannot be served.
var ErrInvalidRequest = errors.New("invalid aggregation request")

// Aggregate groups the records of ds by one or two dimensions, reduces each
// group, sorts the rows and truncates them to TopN when it is positive.
// Records missing a group dimension are left out. Only key combinations that
// occur in the data produce rows.
func Aggregate(ds *domain.Dataset, req domain.AggregateRequest) (domain.AggregationResult, error) {
	if err := validateRequest(req); err != nil {
		return domain.AggregationResult{}, err
	}

	result := domain.AggregationResult{
		GroupBy:   append([]string(nil), req.GroupBy...),
		Measure:   req.Measure,
		Reduction: req.Reduction,
		Rows:      []domain.AggregationRow{},
	}
	if ds.Len() == 0 {
		return result, nil
	}

	// 1. Group, remembering first-seen order
	index := make(map[string]int)
	var groups []*group
	for i := range ds.Records {
		r := &ds.Records[i]
		keys, ok := groupKeys(r, req.GroupBy)
		if !ok {
			continue
		}
		id := joinKey(keys)
		gi, seen := index[id]
		if !seen {
			gi = len(groups)
			index[id] = gi
			groups = append(groups, &group{keys: keys, acc: newAccumulator(req)})
		}
		groups[gi].acc.add(r)
	}

	// 2. Reduce
	rows := make([]domain.AggregationRow, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, domain.AggregationRow{Keys: g.keys, Value: g.acc.result()})
	}

	// 3. Sort
	sortRows(rows, req.Sort)

	// 4. Limit
	if req.TopN > 0 && len(rows) > req.TopN {
		rows = rows[:req.TopN]
	}

	result.Rows = rows
	return result, nil
}

// Summarize reduces the whole dataset to one value. Mean, first, min and max
// over zero records yield NoData rather than a number.
func Summarize(ds *domain.Dataset, measure string, reduction domain.Reduction, distinctBy string) (domain.Value, error) {
	req := domain.AggregateRequest{Measure: measure, Reduction: reduction, DistinctBy: distinctBy}
	if err := validateReduction(req); err != nil {
		return domain.NoData(), err
	}

	acc := newAccumulator(req)
	if ds != nil {
		for i := range ds.Records {
			acc.add(&ds.Records[i])
		}
	}
	return acc.result(), nil
}

type group struct {
	keys []string
	acc  *accumulator
}

func validateRequest(req domain.AggregateRequest) error {
	if n := len(req.GroupBy); n < 1 || n > 2 {
		return fmt.Errorf("%w: group by takes one or two dimensions, got %d", ErrInvalidRequest, n)
	}
	for _, dim := range req.GroupBy {
		if dim == "" {
			return fmt.Errorf("%w: empty group dimension", ErrInvalidRequest)
		}
	}
	switch req.Sort {
	case "", domain.SortKeyAsc, domain.SortKeyDesc, domain.SortValueAsc, domain.SortValueDesc:
	default:
		return fmt.Errorf("%w: unknown sort %q", ErrInvalidRequest, req.Sort)
	}
	if req.TopN < 0 {
		return fmt.Errorf("%w: negative top_n", ErrInvalidRequest)
	}
	return validateReduction(req)
}

func validateReduction(req domain.AggregateRequest) error {
	switch req.Reduction {
	case domain.ReduceCount:
		return nil
	case domain.ReduceCountDistinct:
		if req.DistinctBy == "" {
			return fmt.Errorf("%w: count_distinct needs distinct_by", ErrInvalidRequest)
		}
		return nil
	case domain.ReduceSum, domain.ReduceMean, domain.ReduceFirst, domain.ReduceMin, domain.ReduceMax:
		if req.Measure == "" {
			return fmt.Errorf("%w: %s needs a measure", ErrInvalidRequest, req.Reduction)
		}
		return nil
	}
	return fmt.Errorf("%w: unknown reduction %q", ErrInvalidRequest, req.Reduction)
}

func groupKeys(r *domain.SaleRecord, dims []string) ([]string, bool) {
	keys := make([]string, len(dims))
	for i, dim := range dims {
		v, ok := r.Dimension(dim)
		if !ok {
			return nil, false
		}
		keys[i] = v
	}
	return keys, true
}

// joinKey uses the unit separator, which never appears in labels.
func joinKey(keys []string) string {
	if len(keys) == 1 {
		return keys[0]
	}
	return keys[0] + "\x1f" + keys[1]
}

type accumulator struct {
	reduction  domain.Reduction
	measure    string
	distinctBy string

	n        int
	sum      float64
	first    float64
	min, max float64
	distinct map[string]struct{}
}

func newAccumulator(req domain.AggregateRequest) *accumulator {
	acc := &accumulator{
		reduction:  req.Reduction,
		measure:    req.Measure,
		distinctBy: req.DistinctBy,
	}
	if req.Reduction == domain.ReduceCountDistinct {
		acc.distinct = make(map[string]struct{})
	}
	return acc
}

func (a *accumulator) add(r *domain.SaleRecord) {
	switch a.reduction {
	case domain.ReduceCount:
		a.n++
		return
	case domain.ReduceCountDistinct:
		if v, ok := r.Dimension(a.distinctBy); ok && v != "" {
			a.distinct[v] = struct{}{}
		}
		return
	}

	v, ok := r.Measure(a.measure)
	if !ok {
		return
	}
	if a.n == 0 {
		a.first, a.min, a.max = v, v, v
	} else {
		if v < a.min {
			a.min = v
		}
		if v > a.max {
			a.max = v
		}
	}
	a.sum += v
	a.n++
}

func (a *accumulator) result() domain.Value {
	switch a.reduction {
	case domain.ReduceCount:
		return domain.ValueOf(float64(a.n))
	case domain.ReduceCountDistinct:
		return domain.ValueOf(float64(len(a.distinct)))
	case domain.ReduceSum:
		return domain.ValueOf(a.sum)
	}

	if a.n == 0 {
		return domain.NoData()
	}
	switch a.reduction {
	case domain.ReduceMean:
		return domain.ValueOf(a.sum / float64(a.n))
	case domain.ReduceFirst:
		return domain.ValueOf(a.first)
	case domain.ReduceMin:
		return domain.ValueOf(a.min)
	case domain.ReduceMax:
		return domain.ValueOf(a.max)
	}
	return domain.NoData()
}

func sortRows(rows []domain.AggregationRow, order domain.SortOrder) {
	switch order {
	case domain.SortKeyDesc:
		sort.SliceStable(rows, func(i, j int) bool {
			return compareKeys(rows[i].Keys, rows[j].Keys) > 0
		})
	case domain.SortValueDesc, domain.SortValueAsc:
		desc := order == domain.SortValueDesc
		sort.SliceStable(rows, func(i, j int) bool {
			a, b := rows[i].Value, rows[j].Value
			if a.Valid != b.Valid {
				return a.Valid
			}
			if a.Valid && a.Float != b.Float {
				if desc {
					return a.Float > b.Float
				}
				return a.Float < b.Float
			}
			return compareKeys(rows[i].Keys, rows[j].Keys) < 0
		})
	default:
		sort.SliceStable(rows, func(i, j int) bool {
			return compareKeys(rows[i].Keys, rows[j].Keys) < 0
		})
	}
}

func compareKeys(a, b []string) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] < b[i] {
			return -1
		}
		if a[i] > b[i] {
			return 1
		}
	}
	return len(a) - len(b)
}
