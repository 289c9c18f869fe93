package domain

import (
	"fmt"
	"strconv"
	"time"
)

// RawRow is one untyped row as produced by a loader, keyed by column name.
type RawRow map[string]any

// Core dimension names shared by every page.
const (
	DimSaleID    = "sale_id"
	DimProduct   = "product_name"
	DimBrand     = "brand"
	DimCategory  = "category"
	DimPayment   = "payment_method"
	DimYear      = "year"
	DimMonth     = "month"
	DimDay       = "day"
	DimMonthYear = "month_year"
	DimQuarter   = "quarter"
	DimWeekday   = "weekday"
	DimDate      = "date"
)

// Core measure names shared by every page.
const (
	MeasureGross    = "gross_amount"
	MeasureDiscount = "discount_amount"
	MeasureNet      = "net_amount"
)

// SaleRecord is one normalized row of a base dataset.
type SaleRecord struct {
	SaleID         string             `json:"sale_id,omitempty"`
	SaleDate       *time.Time         `json:"sale_date,omitempty"`
	GrossAmount    float64            `json:"gross_amount"`
	DiscountAmount float64            `json:"discount_amount"`
	NetAmount      float64            `json:"net_amount"`
	ProductName    string             `json:"product_name"`
	Brand          string             `json:"brand"`
	Category       string             `json:"category"`
	PaymentMethod  string             `json:"payment_method"`
	Dimensions     map[string]string  `json:"dimensions,omitempty"`
	Measures       map[string]float64 `json:"measures,omitempty"`
	Derived        *DerivedFields     `json:"derived,omitempty"`
}

// DerivedFields holds the calendar attributes computed from SaleDate.
type DerivedFields struct {
	Year      int    `json:"year"`
	Month     int    `json:"month"`
	Day       int    `json:"day"`
	MonthYear string `json:"month_year"`
	Quarter   int    `json:"quarter"`
	Weekday   string `json:"weekday"`
	Date      string `json:"date"`
}

// IsDerivedDimension reports whether name is computed from the sale date.
func IsDerivedDimension(name string) bool {
	switch name {
	case DimYear, DimMonth, DimDay, DimMonthYear, DimQuarter, DimWeekday, DimDate:
		return true
	}
	return false
}

// Dimension returns the categorical value of the named dimension.
// The second result is false when the record has no value for it, which is
// the case for every derived dimension of an undated record.
func (r *SaleRecord) Dimension(name string) (string, bool) {
	switch name {
	case DimSaleID:
		return r.SaleID, r.SaleID != ""
	case DimProduct:
		return r.ProductName, true
	case DimBrand:
		return r.Brand, true
	case DimCategory:
		return r.Category, true
	case DimPayment:
		return r.PaymentMethod, true
	}

	if IsDerivedDimension(name) {
		if r.Derived == nil {
			return "", false
		}
		return r.Derived.dimension(name), true
	}

	v, ok := r.Dimensions[name]
	return v, ok
}

// Measure returns the numeric value of the named measure.
func (r *SaleRecord) Measure(name string) (float64, bool) {
	switch name {
	case MeasureGross:
		return r.GrossAmount, true
	case MeasureDiscount:
		return r.DiscountAmount, true
	case MeasureNet:
		return r.NetAmount, true
	}

	v, ok := r.Measures[name]
	return v, ok
}

func (d *DerivedFields) dimension(name string) string {
	switch name {
	case DimYear:
		return strconv.Itoa(d.Year)
	case DimMonth:
		return fmt.Sprintf("%02d", d.Month)
	case DimDay:
		return fmt.Sprintf("%02d", d.Day)
	case DimMonthYear:
		return d.MonthYear
	case DimQuarter:
		return strconv.Itoa(d.Quarter)
	case DimWeekday:
		return d.Weekday
	case DimDate:
		return d.Date
	}
	return ""
}

// Dataset is an ordered collection of records for one page. It is treated as
// immutable once built and can be shared between goroutines.
type Dataset struct {
	Page      string            `json:"page"`
	Records   []SaleRecord      `json:"records"`
	Sentinels map[string]string `json:"sentinels"`
	LoadedAt  time.Time         `json:"loaded_at"`
}

// Len returns the number of records, treating a nil dataset as empty.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// Sentinel returns the placeholder label used for missing values of dim.
func (d *Dataset) Sentinel(dim string) (string, bool) {
	if d == nil {
		return "", false
	}
	s, ok := d.Sentinels[dim]
	return s, ok
}
