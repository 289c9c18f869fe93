package domain

import "time"

// KPI is a single headline number of a dashboard page.
type KPI struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	Value Value  `json:"value"`
	Key   string `json:"key,omitempty"` // e.g. the product name of a "top product" card
	Unit  string `json:"unit,omitempty"`
}

// Visualization is one chart-ready aggregation table.
type Visualization struct {
	Name   string            `json:"name"`
	Title  string            `json:"title"`
	Chart  string            `json:"chart"`
	Result AggregationResult `json:"result"`
}

// Dashboard aggregates everything a page renders for one filter selection.
type Dashboard struct {
	Page           string          `json:"page"`
	Title          string          `json:"title"`
	RecordCount    int             `json:"record_count"`
	KPIs           []KPI           `json:"kpis"`
	Visualizations []Visualization `json:"visualizations"`
	GeneratedAt    time.Time       `json:"generated_at"`
}

// FilterOptions lists the selectable values of a page's filters.
type FilterOptions struct {
	Page       string              `json:"page"`
	Dimensions map[string][]string `json:"dimensions"`
	MinDate    *time.Time          `json:"min_date,omitempty"`
	MaxDate    *time.Time          `json:"max_date,omitempty"`
}

// RecordsPage is one page of filtered records.
type RecordsPage struct {
	Items    []SaleRecord `json:"items"`
	Total    int          `json:"total"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
}

// PageSummary describes a dashboard page for listings.
type PageSummary struct {
	Name    string   `json:"name"`
	Title   string   `json:"title"`
	Source  string   `json:"source"`
	Filters []string `json:"filters"`
}
