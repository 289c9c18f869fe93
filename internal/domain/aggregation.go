package domain

import (
	"bytes"
	"encoding/json"
)

// Reduction names how the measure values of a group collapse to one value.
type Reduction string

const (
	ReduceSum           Reduction = "sum"
	ReduceMean          Reduction = "mean"
	ReduceCount         Reduction = "count"
	ReduceCountDistinct Reduction = "count_distinct"
	ReduceFirst         Reduction = "first"
	ReduceMin           Reduction = "min"
	ReduceMax           Reduction = "max"
)

// SortOrder names how aggregation rows are ordered.
type SortOrder string

const (
	SortKeyAsc    SortOrder = "key_asc"
	SortKeyDesc   SortOrder = "key_desc"
	SortValueDesc SortOrder = "value_desc"
	SortValueAsc  SortOrder = "value_asc"
)

// AggregateRequest describes one aggregation table.
type AggregateRequest struct {
	GroupBy    []string  `json:"group_by"`
	Measure    string    `json:"measure,omitempty"`
	Reduction  Reduction `json:"reduction"`
	DistinctBy string    `json:"distinct_by,omitempty"`
	Sort       SortOrder `json:"sort,omitempty"`
	TopN       int       `json:"top_n,omitempty"`
}

// Value is a reduced number that may be absent. An absent value means the
// reduction had nothing to work on and encodes as JSON null.
type Value struct {
	Float float64
	Valid bool
}

// ValueOf wraps a known number.
func ValueOf(f float64) Value {
	return Value{Float: f, Valid: true}
}

// NoData is the explicit "nothing to reduce" marker.
func NoData() Value {
	return Value{}
}

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(v.Float)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*v = NoData()
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = ValueOf(f)
	return nil
}

// AggregationRow is one group of an aggregation table.
type AggregationRow struct {
	Keys  []string `json:"keys"`
	Value Value    `json:"value"`
}

// AggregationResult is an ordered aggregation table.
type AggregationResult struct {
	GroupBy   []string         `json:"group_by"`
	Measure   string           `json:"measure,omitempty"`
	Reduction Reduction        `json:"reduction"`
	Rows      []AggregationRow `json:"rows"`
}
