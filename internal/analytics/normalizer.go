package analytics

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/sportstore-dash/backend-go/internal/domain"
	"github.com/shopspring/decimal"
)

// ColumnMap names the raw columns that feed the core record fields.
type ColumnMap struct {
	SaleID         string `json:"sale_id"`
	SaleDate       string `json:"sale_date"`
	GrossAmount    string `json:"gross_amount"`
	DiscountAmount string `json:"discount_amount"`
	ProductName    string `json:"product_name"`
	Brand          string `json:"brand"`
	Category       string `json:"category"`
}

// DefaultColumns matches the column aliases of the store's sales query.
var DefaultColumns = ColumnMap{
	SaleID:         "id_venta",
	SaleDate:       "fecha_venta",
	GrossAmount:    "monto_total",
	DiscountAmount: "descuento_aplicado",
	ProductName:    "nombre_producto",
	Brand:          "marca",
	Category:       "nombre_categoria",
}

// DimensionColumn maps a raw column to an extra categorical dimension.
type DimensionColumn struct {
	Name     string `json:"name"`
	Column   string `json:"column"`
	Sentinel string `json:"sentinel"`
}

// MeasureColumn maps a raw column to an extra numeric measure.
type MeasureColumn struct {
	Name   string `json:"name"`
	Column string `json:"column"`
}

// PaymentIndicator marks a payment sub-type: the row pays with Label when
// Column holds a non-null value. When DetailColumn is set and non-blank its
// value is appended, e.g. "Tarjeta - Crédito".
type PaymentIndicator struct {
	Column       string `json:"column"`
	Label        string `json:"label"`
	DetailColumn string `json:"detail_column,omitempty"`
}

// PaymentRules classifies the payment method of a row. Indicators are
// checked in order and the first match wins; Column holds an already
// classified label used when no indicator matches.
type PaymentRules struct {
	Indicators []PaymentIndicator `json:"indicators,omitempty"`
	Column     string             `json:"column,omitempty"`
}

// DefaultPaymentRules checks QR, then card, then cash.
var DefaultPaymentRules = PaymentRules{
	Indicators: []PaymentIndicator{
		{Column: "id_qr", Label: "QR"},
		{Column: "id_tarjeta", Label: "TARJETA"},
		{Column: "id_efectivo", Label: "EFECTIVO"},
	},
	Column: "tipo_pago",
}

// NormalizerConfig is the per-page description of how raw rows become records.
type NormalizerConfig struct {
	Columns    ColumnMap         `json:"columns"`
	Payment    PaymentRules      `json:"payment"`
	Dimensions []DimensionColumn `json:"dimensions,omitempty"`
	Measures   []MeasureColumn   `json:"measures,omitempty"`
	// Sentinels overrides the placeholder of core dimensions by name.
	Sentinels map[string]string `json:"sentinels,omitempty"`
}

// Normalizer turns raw rows into typed sale records.
type Normalizer struct {
	cfg       NormalizerConfig
	sentinels map[string]string
}

func NewNormalizer(cfg NormalizerConfig) *Normalizer {
	sentinels := make(map[string]string, 4+len(cfg.Dimensions))
	for _, dim := range []string{domain.DimProduct, domain.DimBrand, domain.DimCategory, domain.DimPayment} {
		if s, ok := cfg.Sentinels[dim]; ok && s != "" {
			sentinels[dim] = s
			continue
		}
		s, _ := domain.DefaultSentinel(dim)
		sentinels[dim] = s
	}
	for _, d := range cfg.Dimensions {
		sentinels[d.Name] = d.Sentinel
	}

	return &Normalizer{cfg: cfg, sentinels: sentinels}
}

// Sentinels returns the placeholder label of every dimension this normalizer
// fills. The map is a copy.
func (n *Normalizer) Sentinels() map[string]string {
	out := make(map[string]string, len(n.sentinels))
	for k, v := range n.sentinels {
		out[k] = v
	}
	return out
}

// Normalize converts rows in order. It never fails: malformed cells are
// coerced to zero, absent or a placeholder label.
func (n *Normalizer) Normalize(rows []domain.RawRow) []domain.SaleRecord {
	records := make([]domain.SaleRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, n.NormalizeRow(row))
	}
	return records
}

// NormalizeRow converts a single raw row.
func (n *Normalizer) NormalizeRow(row domain.RawRow) domain.SaleRecord {
	cols := n.cfg.Columns

	gross := ParseNumber(row[cols.GrossAmount])
	discount := ParseNumber(row[cols.DiscountAmount])

	rec := domain.SaleRecord{
		SaleID:         stringify(row[cols.SaleID]),
		SaleDate:       ParseDate(row[cols.SaleDate]),
		GrossAmount:    gross,
		DiscountAmount: discount,
		NetAmount:      gross - discount,
		ProductName:    n.categorical(row, cols.ProductName, domain.DimProduct),
		Brand:          n.categorical(row, cols.Brand, domain.DimBrand),
		Category:       n.categorical(row, cols.Category, domain.DimCategory),
		PaymentMethod:  n.classifyPayment(row),
	}

	if len(n.cfg.Dimensions) > 0 {
		rec.Dimensions = make(map[string]string, len(n.cfg.Dimensions))
		for _, d := range n.cfg.Dimensions {
			rec.Dimensions[d.Name] = orSentinel(row[d.Column], d.Sentinel)
		}
	}

	if len(n.cfg.Measures) > 0 {
		rec.Measures = make(map[string]float64, len(n.cfg.Measures))
		for _, m := range n.cfg.Measures {
			rec.Measures[m.Name] = ParseNumber(row[m.Column])
		}
	}

	return rec
}

func (n *Normalizer) categorical(row domain.RawRow, column, dim string) string {
	if column == "" {
		return n.sentinels[dim]
	}
	return orSentinel(row[column], n.sentinels[dim])
}

func (n *Normalizer) classifyPayment(row domain.RawRow) string {
	rules := n.cfg.Payment
	for _, ind := range rules.Indicators {
		if isBlank(row[ind.Column]) {
			continue
		}
		label := ind.Label
		if ind.DetailColumn != "" {
			if detail := stringify(row[ind.DetailColumn]); detail != "" {
				label = label + " - " + detail
			}
		}
		return label
	}

	if rules.Column != "" {
		if v := stringify(row[rules.Column]); v != "" {
			return v
		}
	}

	return n.sentinels[domain.DimPayment]
}

func orSentinel(v any, sentinel string) string {
	if s := stringify(v); s != "" {
		return s
	}
	return sentinel
}

// ParseNumber coerces a raw cell to a float. Strings may carry thousands
// separators. Anything unparsable, missing or non-finite yields 0.
func ParseNumber(v any) float64 {
	switch t := v.(type) {
	case nil:
		return 0
	case float64:
		return finite(t)
	case float32:
		return finite(float64(t))
	case int:
		return float64(t)
	case int8:
		return float64(t)
	case int16:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case uint:
		return float64(t)
	case uint8:
		return float64(t)
	case uint16:
		return float64(t)
	case uint32:
		return float64(t)
	case uint64:
		return float64(t)
	case decimal.Decimal:
		return t.InexactFloat64()
	case []byte:
		return parseNumberString(string(t))
	case string:
		return parseNumberString(t)
	}
	return 0
}

func parseNumberString(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	s = strings.TrimSpace(strings.TrimPrefix(s, "Bs"))
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	return finite(d.InexactFloat64())
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"01-02-06",
}

// ParseDate coerces a raw cell to a timestamp. Missing, zero and unparsable
// values yield nil.
func ParseDate(v any) *time.Time {
	switch t := v.(type) {
	case nil:
		return nil
	case time.Time:
		if t.IsZero() {
			return nil
		}
		return &t
	case *time.Time:
		if t == nil || t.IsZero() {
			return nil
		}
		c := *t
		return &c
	case []byte:
		return parseDateString(string(t))
	case string:
		return parseDateString(t)
	}
	return nil
}

func parseDateString(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "0000-00-00") {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

func isBlank(v any) bool {
	return stringify(v) == ""
}

// stringify renders a cell as trimmed text; null markers become "".
func stringify(v any) string {
	var s string
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		s = t
	case []byte:
		s = string(t)
	case int:
		return strconv.Itoa(t)
	case int8:
		return strconv.FormatInt(int64(t), 10)
	case int16:
		return strconv.FormatInt(int64(t), 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case uint:
		return strconv.FormatUint(uint64(t), 10)
	case uint8:
		return strconv.FormatUint(uint64(t), 10)
	case uint16:
		return strconv.FormatUint(uint64(t), 10)
	case uint32:
		return strconv.FormatUint(uint64(t), 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case decimal.Decimal:
		return t.String()
	case float64:
		if math.IsNaN(t) {
			return ""
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		if math.IsNaN(float64(t)) {
			return ""
		}
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.Format("2006-01-02")
	case fmt.Stringer:
		s = t.String()
	default:
		s = fmt.Sprint(t)
	}

	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "null", "nan", "none", "<nil>":
		return ""
	}
	return s
}
