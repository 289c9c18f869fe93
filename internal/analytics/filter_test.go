package analytics

import (
	"testing"

	"github.com/andresuchdata/sportstore-dash/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filterFixture() *domain.Dataset {
	return dataset(
		sale("Nike", "QR", 100, "2024-03-01 23:59:59"),
		sale("Adidas", "EFECTIVO", 50, "2024-03-05 00:00:00"),
		sale("Nike", "TARJETA", 75, "2024-03-06 08:00:00"),
		sale("Puma", domain.SentinelPayment, 20, ""),
		sale("Adidas", "QR", 60, "2024-02-28 12:00:00"),
	)
}

func TestApplyEmptySpecIsPassThrough(t *testing.T) {
	base := filterFixture()

	out := Apply(base, domain.FilterSpec{})
	assert.Equal(t, base.Records, out.Records)

	out = Apply(base, domain.FilterSpec{Predicates: []domain.CategoricalPredicate{
		{Dimension: domain.DimBrand},
		{Dimension: domain.DimPayment, Values: []string{}},
	}})
	assert.Equal(t, base.Records, out.Records)
}

func TestApplyDateRangeIsInclusive(t *testing.T) {
	base := filterFixture()

	out := Apply(base, domain.FilterSpec{DateRange: &domain.DateRange{
		From: *mustDate("2024-03-01"),
		To:   *mustDate("2024-03-05"),
	}})
	assert.Equal(t, []string{"Nike", "Adidas"}, brands(out))
}

func TestApplySingleDay(t *testing.T) {
	base := filterFixture()

	day := domain.SingleDay(*mustDate("2024-03-06"))
	out := Apply(base, domain.FilterSpec{DateRange: &day})
	require.Len(t, out.Records, 1)
	assert.Equal(t, 75.0, out.Records[0].NetAmount)
}

func TestApplyReversedRange(t *testing.T) {
	base := filterFixture()

	out := Apply(base, domain.FilterSpec{DateRange: &domain.DateRange{
		From: *mustDate("2024-03-05"),
		To:   *mustDate("2024-03-01"),
	}})
	assert.Len(t, out.Records, 2)
}

func TestApplyDateRangeExcludesUndated(t *testing.T) {
	base := filterFixture()

	out := Apply(base, domain.FilterSpec{DateRange: &domain.DateRange{
		From: *mustDate("2000-01-01"),
		To:   *mustDate("2099-12-31"),
	}})
	assert.NotContains(t, brands(out), "Puma")

	out = Apply(base, domain.FilterSpec{Predicates: []domain.CategoricalPredicate{
		{Dimension: domain.DimBrand, Values: []string{"Puma"}},
	}})
	assert.Equal(t, []string{"Puma"}, brands(out))
}

func TestApplyIsCommutative(t *testing.T) {
	base := filterFixture()

	byDate := domain.FilterSpec{DateRange: &domain.DateRange{
		From: *mustDate("2024-03-01"),
		To:   *mustDate("2024-03-31"),
	}}
	byBrand := domain.FilterSpec{Predicates: []domain.CategoricalPredicate{
		{Dimension: domain.DimBrand, Values: []string{"Nike", "Puma"}},
	}}
	both := domain.FilterSpec{DateRange: byDate.DateRange, Predicates: byBrand.Predicates}

	ab := Apply(Apply(base, byDate), byBrand)
	ba := Apply(Apply(base, byBrand), byDate)
	combined := Apply(base, both)

	assert.Equal(t, ab.Records, ba.Records)
	assert.Equal(t, ab.Records, combined.Records)
	assert.Equal(t, []string{"Nike", "Nike"}, brands(combined))
}

func TestApplyDoesNotMutateBase(t *testing.T) {
	base := filterFixture()
	before := append([]domain.SaleRecord(nil), base.Records...)

	out := Apply(base, domain.FilterSpec{Predicates: []domain.CategoricalPredicate{
		{Dimension: domain.DimBrand, Values: []string{"Adidas"}},
	}})
	require.Len(t, out.Records, 2)

	out.Records[0].Brand = "changed"
	assert.Equal(t, before, base.Records)
}

func TestApplySentinelIsSelectable(t *testing.T) {
	base := filterFixture()

	out := Apply(base, domain.FilterSpec{Predicates: []domain.CategoricalPredicate{
		{Dimension: domain.DimPayment, Values: []string{domain.SentinelPayment}},
	}})
	assert.Equal(t, []string{"Puma"}, brands(out))
}

func TestApplyRelaxedPredicate(t *testing.T) {
	withCard := func(brand, card string) domain.SaleRecord {
		r := sale(brand, "Tarjeta", 10, "2024-01-01")
		r.Dimensions = map[string]string{"card_type": card}
		return r
	}
	base := dataset(
		withCard("A", "Crédito"),
		withCard("B", "Débito"),
		withCard("C", domain.SentinelCardType),
	)

	strict := Apply(base, domain.FilterSpec{Predicates: []domain.CategoricalPredicate{
		{Dimension: "card_type", Values: []string{"Crédito"}},
	}})
	assert.Equal(t, []string{"A"}, brands(strict))

	relaxed := Apply(base, domain.FilterSpec{Predicates: []domain.CategoricalPredicate{
		{Dimension: "card_type", Values: []string{"Crédito"}, Relaxed: true},
	}})
	assert.Equal(t, []string{"A", "C"}, brands(relaxed))
}

func TestApplyOnDerivedDimension(t *testing.T) {
	base := filterFixture()

	out := Apply(base, domain.FilterSpec{Predicates: []domain.CategoricalPredicate{
		{Dimension: domain.DimMonthYear, Values: []string{"2024-02"}},
	}})
	assert.Equal(t, []string{"Adidas"}, brands(out))
}

func TestApplyNilBase(t *testing.T) {
	out := Apply(nil, domain.FilterSpec{})
	assert.Equal(t, 0, out.Len())
}

func TestOptions(t *testing.T) {
	opts := Options(filterFixture(), []string{domain.DimBrand, domain.DimPayment})

	assert.Equal(t, "ventas", opts.Page)
	assert.Equal(t, []string{"Adidas", "Nike", "Puma"}, opts.Dimensions[domain.DimBrand])
	assert.Equal(t, []string{"EFECTIVO", "QR", domain.SentinelPayment, "TARJETA"}, opts.Dimensions[domain.DimPayment])
	require.NotNil(t, opts.MinDate)
	require.NotNil(t, opts.MaxDate)
	assert.Equal(t, "2024-02-28", opts.MinDate.Format("2006-01-02"))
	assert.Equal(t, "2024-03-06", opts.MaxDate.Format("2006-01-02"))
}
