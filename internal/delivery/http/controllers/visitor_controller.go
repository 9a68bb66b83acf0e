package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"visitorgate/internal/delivery/http/helpers"
	"visitorgate/internal/domain"
)

// VisitorListResponse is the data payload for GET /visitors (200).
type VisitorListResponse struct {
	Items      []*domain.Visitor      `json:"items"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

// VisitorListSuccessResponse is the success response envelope for GET /visitors (200).
type VisitorListSuccessResponse struct {
	Data  VisitorListResponse `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

// VisitorSuccessResponse is the success response envelope for GET /visitors/{idNumber} (200).
type VisitorSuccessResponse struct {
	Data  *domain.Visitor   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// VisitorController handles visitor identity lookups for staff.
type VisitorController struct {
	Logger  *slog.Logger
	Service domain.VisitorService
}

// NewVisitorController creates a VisitorController with the given logger and service.
func NewVisitorController(logger *slog.Logger, svc domain.VisitorService) *VisitorController {
	return &VisitorController{
		Logger:  logger,
		Service: svc,
	}
}

// List godoc
// @Summary List visitors
// @Description Returns known visitor identities, newest first. Admin and security only.
// @Tags visitors
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.VisitorListSuccessResponse "data contains items and pagination"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /visitors [get]
func (c *VisitorController) List(w http.ResponseWriter, r *http.Request) {
	params := helpers.ParsePagination(r)
	visitors, total, err := c.Service.List(r.Context(), params)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	meta := helpers.NewPaginationMeta(params.Page, params.PageSize, total)
	helpers.WriteJSONSuccess(w, http.StatusOK, VisitorListResponse{Items: visitors, Pagination: meta})
}

// GetByIDNumber godoc
// @Summary Look up a visitor by ID number
// @Description Returns the visitor identity registered under the given government ID number. Admin and security only.
// @Tags visitors
// @Produce json
// @Security BearerAuth
// @Param idNumber path string true "Government ID number"
// @Success 200 {object} controllers.VisitorSuccessResponse "data contains the visitor"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /visitors/{idNumber} [get]
func (c *VisitorController) GetByIDNumber(w http.ResponseWriter, r *http.Request) {
	idNumber := strings.TrimSpace(r.PathValue("idNumber"))
	if idNumber == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "id number is required")
		return
	}
	visitor, err := c.Service.GetByIDNumber(r.Context(), idNumber)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "visitor not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, visitor)
}
