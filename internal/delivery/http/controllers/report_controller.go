package controllers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"visitorgate/internal/delivery/http/helpers"
	"visitorgate/internal/domain"
)

const dateLayout = "2006-01-02"

// AccessLogSuccessResponse is the success response envelope for the daily and range reports.
type AccessLogSuccessResponse struct {
	Data  []*domain.AccessLogRecord `json:"data"`
	Error *helpers.APIError         `json:"error"`
}

// StatsSuccessResponse is the success response envelope for GET /reports/stats (200).
type StatsSuccessResponse struct {
	Data  *domain.SystemStats `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

// ReportController handles access log reports and system statistics.
type ReportController struct {
	Logger  *slog.Logger
	Service domain.ReportService
}

// NewReportController creates a ReportController with the given logger and service.
func NewReportController(logger *slog.Logger, svc domain.ReportService) *ReportController {
	return &ReportController{
		Logger:  logger,
		Service: svc,
	}
}

// DailyLog godoc
// @Summary Daily access log
// @Description Returns entry and exit records for one UTC day, joined with visitor and visit details. Defaults to today. Admin and security only.
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param date query string false "Day in YYYY-MM-DD (default today, UTC)"
// @Success 200 {object} controllers.AccessLogSuccessResponse "data contains access log records"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /reports/daily [get]
func (c *ReportController) DailyLog(w http.ResponseWriter, r *http.Request) {
	day := time.Now().UTC()
	if raw := strings.TrimSpace(r.URL.Query().Get("date")); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "date must be YYYY-MM-DD")
			return
		}
		day = parsed
	}
	records, err := c.Service.DailyLog(r.Context(), day)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, records)
}

// RangeLog godoc
// @Summary Access log for a date range
// @Description Returns entry and exit records between from and to. Timestamps are RFC 3339 or YYYY-MM-DD; a date-only to bound includes that whole day. Admin and security only.
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param from query string true "Range start (RFC 3339 or YYYY-MM-DD)"
// @Param to query string true "Range end (RFC 3339 or YYYY-MM-DD, inclusive for dates)"
// @Success 200 {object} controllers.AccessLogSuccessResponse "data contains access log records"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /reports/range [get]
func (c *ReportController) RangeLog(w http.ResponseWriter, r *http.Request) {
	from, _, ok := parseBound(r.URL.Query().Get("from"))
	if !ok {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "from must be RFC 3339 or YYYY-MM-DD")
		return
	}
	to, dateOnly, ok := parseBound(r.URL.Query().Get("to"))
	if !ok {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "to must be RFC 3339 or YYYY-MM-DD")
		return
	}
	if dateOnly {
		to = to.Add(24 * time.Hour)
	}
	records, err := c.Service.RangeLog(r.Context(), from, to)
	if err != nil {
		if strings.Contains(err.Error(), "range end") {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, records)
}

// Stats godoc
// @Summary System statistics
// @Description Returns aggregate counts: visitors, requests by status, today's entries and exits, and blacklist size. Admin only.
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.StatsSuccessResponse "data contains the statistics snapshot"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /reports/stats [get]
func (c *ReportController) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := c.Service.Stats(r.Context())
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, stats)
}

// parseBound parses a query bound as RFC 3339 first, then as a bare date.
// dateOnly reports which layout matched.
func parseBound(raw string) (t time.Time, dateOnly, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false, false
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, false, true
	}
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t, true, true
	}
	return time.Time{}, false, false
}
