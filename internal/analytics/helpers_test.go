package analytics

import (
	"time"

	"github.com/andresuchdata/sportstore-dash/backend-go/internal/domain"
)

func mustDate(s string) *time.Time {
	t := ParseDate(s)
	if t == nil {
		panic("bad test date " + s)
	}
	return t
}

func sale(brand, payment string, net float64, date string) domain.SaleRecord {
	r := domain.SaleRecord{
		GrossAmount:   net,
		NetAmount:     net,
		ProductName:   "Producto " + brand,
		Brand:         brand,
		Category:      "Deportes",
		PaymentMethod: payment,
	}
	if date != "" {
		r.SaleDate = mustDate(date)
	}
	r.Derived = Derive(r.SaleDate)
	return r
}

func dataset(records ...domain.SaleRecord) *domain.Dataset {
	return &domain.Dataset{
		Page:    "ventas",
		Records: records,
		Sentinels: map[string]string{
			domain.DimBrand:   domain.SentinelBrand,
			domain.DimPayment: domain.SentinelPayment,
			"card_type":       domain.SentinelCardType,
		},
	}
}

func brands(ds *domain.Dataset) []string {
	out := make([]string, 0, ds.Len())
	for _, r := range ds.Records {
		out = append(out, r.Brand)
	}
	return out
}
