package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/andresuchdata/sportstore-dash/backend-go/internal/domain"
	"github.com/andresuchdata/sportstore-dash/backend-go/internal/pages"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(target string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", target, nil)
	return c
}

func TestParseSelectionKeepsCommasInValues(t *testing.T) {
	c := testContext("/?product_name=Pelota%2C+talla+5&product_name=Gorra&payment_method=+QR+&payment_method=")

	sel, err := parseSelection(c, pages.SalesDetail())
	require.NoError(t, err)
	assert.Equal(t, []string{"Pelota, talla 5", "Gorra"}, sel.Values[domain.DimProduct])
	assert.Equal(t, []string{"QR"}, sel.Values[domain.DimPayment])
	assert.Nil(t, sel.DateRange)
}

func TestParseSelectionDates(t *testing.T) {
	sel, err := parseSelection(testContext("/?date=2024-03-05"), pages.Sales())
	require.NoError(t, err)
	require.NotNil(t, sel.DateRange)
	assert.Equal(t, sel.DateRange.From, sel.DateRange.To)

	_, err = parseSelection(testContext("/?end_date=2024-03-05"), pages.Sales())
	assert.Error(t, err)
}

func TestParseAggregateRequestSplitsGroupBy(t *testing.T) {
	req, err := parseAggregateRequest(testContext("/?group_by=month_year,brand&reduction=SUM&measure=net_amount&top_n=3"))
	require.NoError(t, err)
	assert.Equal(t, []string{"month_year", "brand"}, req.GroupBy)
	assert.Equal(t, domain.ReduceSum, req.Reduction)
	assert.Equal(t, 3, req.TopN)
}
