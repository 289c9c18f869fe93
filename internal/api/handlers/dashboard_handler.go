package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/andresuchdata/sportstore-dash/backend-go/internal/domain"
	"github.com/andresuchdata/sportstore-dash/backend-go/internal/pages"
	"github.com/andresuchdata/sportstore-dash/backend-go/internal/service"
	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	service *service.DashboardService
}

func NewDashboardHandler(service *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// parseSelection reads the date range and the filter values of a page.
// Filter values are repeated params and are taken verbatim, since labels
// from the data may contain commas:
//
//	?brand=Nike&brand=Adidas
func parseSelection(c *gin.Context, page *pages.Page) (pages.Selection, error) {
	sel := pages.Selection{Values: make(map[string][]string)}

	if day := strings.TrimSpace(c.Query("date")); day != "" {
		d, err := pages.ParseDay(day)
		if err != nil {
			return sel, fmt.Errorf("invalid date %q", day)
		}
		r := domain.SingleDay(d)
		sel.DateRange = &r
	} else {
		start := strings.TrimSpace(c.Query("start_date"))
		end := strings.TrimSpace(c.Query("end_date"))
		if start != "" || end != "" {
			if start == "" || end == "" {
				return sel, errors.New("start_date and end_date must be given together")
			}
			from, err := pages.ParseDay(start)
			if err != nil {
				return sel, fmt.Errorf("invalid start_date %q", start)
			}
			to, err := pages.ParseDay(end)
			if err != nil {
				return sel, fmt.Errorf("invalid end_date %q", end)
			}
			sel.DateRange = &domain.DateRange{From: from, To: to}
		}
	}

	for _, dim := range page.FilterDimensions() {
		if values := trimValues(c.QueryArray(dim)); len(values) > 0 {
			sel.Values[dim] = values
		}
	}

	return sel, nil
}

func trimValues(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// splitList accepts repeated or comma separated params. Only used for
// dimension names, which never contain commas.
func splitList(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func parseAggregateRequest(c *gin.Context) (domain.AggregateRequest, error) {
	req := domain.AggregateRequest{
		GroupBy:    splitList(c.QueryArray("group_by")),
		Measure:    strings.TrimSpace(c.Query("measure")),
		Reduction:  domain.Reduction(strings.ToLower(strings.TrimSpace(c.Query("reduction")))),
		DistinctBy: strings.TrimSpace(c.Query("distinct_by")),
		Sort:       domain.SortOrder(strings.ToLower(strings.TrimSpace(c.Query("sort")))),
	}
	if topN := strings.TrimSpace(c.Query("top_n")); topN != "" {
		n, err := strconv.Atoi(topN)
		if err != nil {
			return req, fmt.Errorf("invalid top_n %q", topN)
		}
		req.TopN = n
	}
	return req, nil
}

func writeError(c *gin.Context, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrUnknownPage):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrSourceUnavailable):
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"error": message, "details": err.Error()})
}

// page resolves the :page param and its selection, answering the error
// itself when either fails.
func (h *DashboardHandler) page(c *gin.Context) (*pages.Page, pages.Selection, bool) {
	p, err := h.service.Page(c.Param("page"))
	if err != nil {
		writeError(c, "unknown page", err)
		return nil, pages.Selection{}, false
	}
	sel, err := parseSelection(c, p)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filters", "details": err.Error()})
		return nil, pages.Selection{}, false
	}
	return p, sel, true
}

func (h *DashboardHandler) ListPages(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.ListPages())
}

func (h *DashboardHandler) GetPage(c *gin.Context) {
	p, err := h.service.Page(c.Param("page"))
	if err != nil {
		writeError(c, "unknown page", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"name":           p.Name,
		"title":          p.Title,
		"filters":        p.Filters,
		"kpis":           p.KPIs,
		"visualizations": p.Visualizations,
	})
}

func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	p, sel, ok := h.page(c)
	if !ok {
		return
	}
	dashboard, err := h.service.Dashboard(c.Request.Context(), p.Name, sel)
	if err != nil {
		writeError(c, "failed to build dashboard", err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

func (h *DashboardHandler) GetOptions(c *gin.Context) {
	p, err := h.service.Page(c.Param("page"))
	if err != nil {
		writeError(c, "unknown page", err)
		return
	}
	opts, err := h.service.Options(c.Request.Context(), p.Name)
	if err != nil {
		writeError(c, "failed to fetch filter options", err)
		return
	}
	c.JSON(http.StatusOK, opts)
}

func (h *DashboardHandler) GetAggregate(c *gin.Context) {
	p, sel, ok := h.page(c)
	if !ok {
		return
	}
	req, err := parseAggregateRequest(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid aggregation", "details": err.Error()})
		return
	}
	h.aggregate(c, p, sel, req)
}

type aggregateBody struct {
	GroupBy    []string `json:"group_by" binding:"required,min=1,max=2,dive,required"`
	Measure    string   `json:"measure"`
	Reduction  string   `json:"reduction" binding:"required,oneof=sum mean count count_distinct first min max"`
	DistinctBy string   `json:"distinct_by"`
	Sort       string   `json:"sort" binding:"omitempty,oneof=key_asc key_desc value_desc value_asc"`
	TopN       int      `json:"top_n" binding:"min=0"`
}

// PostAggregate takes the aggregation as a JSON body and the filters from
// the query string.
func (h *DashboardHandler) PostAggregate(c *gin.Context) {
	p, sel, ok := h.page(c)
	if !ok {
		return
	}
	var body aggregateBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid aggregation", "details": err.Error()})
		return
	}
	h.aggregate(c, p, sel, domain.AggregateRequest{
		GroupBy:    body.GroupBy,
		Measure:    body.Measure,
		Reduction:  domain.Reduction(body.Reduction),
		DistinctBy: body.DistinctBy,
		Sort:       domain.SortOrder(body.Sort),
		TopN:       body.TopN,
	})
}

func (h *DashboardHandler) aggregate(c *gin.Context, p *pages.Page, sel pages.Selection, req domain.AggregateRequest) {
	result, err := h.service.Aggregate(c.Request.Context(), p.Name, sel, req)
	if err != nil {
		writeError(c, "failed to aggregate", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *DashboardHandler) GetRecords(c *gin.Context) {
	p, sel, ok := h.page(c)
	if !ok {
		return
	}

	page := 1
	if v, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil && v > 0 {
		page = v
	}
	pageSize := 50
	if v, err := strconv.Atoi(c.DefaultQuery("page_size", "50")); err == nil && v > 0 {
		pageSize = v
	}

	records, err := h.service.Records(c.Request.Context(), p.Name, sel, page, pageSize)
	if err != nil {
		writeError(c, "failed to fetch records", err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *DashboardHandler) Refresh(c *gin.Context) {
	ds, err := h.service.Refresh(c.Request.Context(), c.Param("page"))
	if err != nil {
		writeError(c, "failed to refresh page", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"page":      ds.Page,
		"records":   ds.Len(),
		"loaded_at": ds.LoadedAt,
	})
}
