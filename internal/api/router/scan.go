package router

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/ozgurerrdem/persona-watch/internal/apperr"
	"github.com/ozgurerrdem/persona-watch/internal/domain"
	"github.com/ozgurerrdem/persona-watch/internal/source"
	"github.com/ozgurerrdem/persona-watch/internal/storage"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// Scanner is the orchestrator capability the router needs.
type Scanner interface {
	Scan(ctx context.Context, req domain.ScanRequest) (*domain.ScanOutcome, error)
	Registry() *source.Registry
}

type ScanRouter struct {
	e       *echo.Echo
	scanner Scanner
	lister  storage.RecordLister
}

type ScanRouterOption func(*ScanRouter)

// WithLister enables GET /contents over the stored records.
func WithLister(l storage.RecordLister) ScanRouterOption {
	return func(r *ScanRouter) {
		r.lister = l
	}
}

func NewScanRouter(e *echo.Echo, scanner Scanner, opts ...ScanRouterOption) *ScanRouter {
	r := &ScanRouter{
		e:       e,
		scanner: scanner,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *ScanRouter) Bind() {
	r.e.POST("/scan", r.scanHandler)
	r.e.GET("/scan/adapters", r.adaptersHandler)
	if r.lister != nil {
		r.e.GET("/contents", r.contentsHandler)
	}
}

// scanHandler godoc
// @Summary Scan a keyword
// @Description Runs the selected adapters for a keyword and returns the records not seen before
// @Tags scan
// @Accept json
// @Produce json
// @Param request body domain.ScanRequest true "Scan request"
// @Success 200 {object} domain.ScanOutcome
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /scan [post]
func (r *ScanRouter) scanHandler(c echo.Context) error {
	var req domain.ScanRequest
	if err := c.Bind(&req); err != nil {
		return apperr.NewValidationWrap("invalid scan request body", err)
	}

	outcome, err := r.scanner.Scan(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, outcome)
}

type AdapterInfo struct {
	Name     string `json:"name"`
	Platform string `json:"platform"`
}

// adaptersHandler godoc
// @Summary List enabled adapters
// @Tags scan
// @Produce json
// @Success 200 {array} AdapterInfo
// @Router /scan/adapters [get]
func (r *ScanRouter) adaptersHandler(c echo.Context) error {
	all := r.scanner.Registry().All()
	out := make([]AdapterInfo, 0, len(all))
	for _, a := range all {
		out = append(out, AdapterInfo{Name: a.Name(), Platform: a.Platform()})
	}
	return c.JSON(http.StatusOK, out)
}

// contentsHandler godoc
// @Summary List stored records
// @Description Lists stored active records, newest first
// @Tags contents
// @Produce json
// @Param keyword query string false "Only records scanned for this keyword"
// @Param limit query int false "Maximum number of records (default 50, max 500)"
// @Param dateFrom query string false "Published on or after this day (YYYY-MM-DD)"
// @Param dateTo query string false "Published on or before this day (YYYY-MM-DD)"
// @Success 200 {array} domain.ContentRecord
// @Failure 400 {object} map[string]string
// @Router /contents [get]
func (r *ScanRouter) contentsHandler(c echo.Context) error {
	filter := storage.RecordFilter{
		Keyword: c.QueryParam("keyword"),
		Limit:   defaultListLimit,
	}
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return apperr.NewValidation("limit must be a positive number")
		}
		filter.Limit = min(n, maxListLimit)
	}

	from, err := queryDate(c, "dateFrom")
	if err != nil {
		return err
	}
	to, err := queryDate(c, "dateTo")
	if err != nil {
		return err
	}
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return apperr.NewValidation("dateFrom must not be after dateTo")
	}
	filter.PublishedFrom = from
	if !to.IsZero() {
		filter.PublishedBefore = to.AddDate(0, 0, 1)
	}

	records, err := r.lister.ListRecords(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	if records == nil {
		records = []domain.ContentRecord{}
	}
	return c.JSON(http.StatusOK, records)
}

// queryDate reads an ISO date (or RFC 3339 timestamp) and truncates it to its UTC
// day. A missing parameter is the zero time.
func queryDate(c echo.Context, name string) (time.Time, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, apperr.NewValidation(name + " must be an ISO date (YYYY-MM-DD)")
}
