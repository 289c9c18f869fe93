package analytics

import (
	"time"

	"github.com/andresuchdata/sportstore-dash/backend-go/internal/domain"
)

// Derive computes the calendar attributes of a sale date. A nil date yields
// nil: undated records carry no derived fields at all.
func Derive(date *time.Time) *domain.DerivedFields {
	if date == nil {
		return nil
	}
	d := *date
	return &domain.DerivedFields{
		Year:      d.Year(),
		Month:     int(d.Month()),
		Day:       d.Day(),
		MonthYear: d.Format("2006-01"),
		Quarter:   (int(d.Month())-1)/3 + 1,
		Weekday:   d.Weekday().String(),
		Date:      d.Format("2006-01-02"),
	}
}

// DeriveAll fills the derived fields of freshly normalized records in place.
func DeriveAll(records []domain.SaleRecord) {
	for i := range records {
		records[i].Derived = Derive(records[i].SaleDate)
	}
}
