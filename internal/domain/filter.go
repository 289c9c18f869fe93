package domain

import (
	"sort"
	"strings"
	"time"
)

// DateRange is an inclusive range of calendar days. Only the year, month and
// day of From and To are significant.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// SingleDay returns a range covering exactly the calendar day of d.
func SingleDay(d time.Time) DateRange {
	return DateRange{From: d, To: d}
}

// CategoricalPredicate restricts a dimension to a set of values. An empty set
// means no restriction. A relaxed predicate also admits records whose value is
// the dimension's missing-value placeholder.
type CategoricalPredicate struct {
	Dimension string   `json:"dimension"`
	Values    []string `json:"values,omitempty"`
	Relaxed   bool     `json:"relaxed,omitempty"`
}

// Active reports whether the predicate restricts anything.
func (p CategoricalPredicate) Active() bool {
	return len(p.Values) > 0
}

// FilterSpec is the set of user selections applied to a base dataset.
type FilterSpec struct {
	DateRange  *DateRange             `json:"date_range,omitempty"`
	Predicates []CategoricalPredicate `json:"predicates,omitempty"`
}

// IsEmpty reports whether the filter leaves the dataset untouched.
func (f FilterSpec) IsEmpty() bool {
	if f.DateRange != nil {
		return false
	}
	for _, p := range f.Predicates {
		if p.Active() {
			return false
		}
	}
	return true
}

// CanonicalParts renders the filter as sorted key=value strings so that
// equivalent selections produce the same representation.
func (f FilterSpec) CanonicalParts() []string {
	var parts []string
	if f.DateRange != nil {
		parts = append(parts,
			"from="+f.DateRange.From.Format("2006-01-02"),
			"to="+f.DateRange.To.Format("2006-01-02"))
	}
	for _, p := range f.Predicates {
		if !p.Active() {
			continue
		}
		values := append([]string(nil), p.Values...)
		sort.Strings(values)
		part := p.Dimension + "=" + strings.Join(values, ",")
		if p.Relaxed {
			part += "~"
		}
		parts = append(parts, part)
	}
	sort.Strings(parts)
	return parts
}
