package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"visitorgate/internal/delivery/http/helpers"
	"visitorgate/internal/delivery/http/middleware"
	"visitorgate/internal/domain"
)

// AddBlacklistRequest is the request body for POST /blacklist.
type AddBlacklistRequest struct {
	IDNumber string `json:"id_number"`
	Reason   string `json:"reason"`
}

// Validate implements Validator.
func (a AddBlacklistRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(a.IDNumber) == "" {
		errs = append(errs, "id_number is required")
	}
	if strings.TrimSpace(a.Reason) == "" {
		errs = append(errs, "reason is required")
	}
	return errs
}

// BlacklistEntrySuccessResponse is the success response envelope for POST /blacklist (201).
type BlacklistEntrySuccessResponse struct {
	Data  *domain.BlacklistEntry `json:"data"`
	Error *helpers.APIError      `json:"error"`
}

// BlacklistListResponse is the data payload for GET /blacklist (200).
type BlacklistListResponse struct {
	Items      []*domain.BlacklistEntry `json:"items"`
	Pagination helpers.PaginationMeta   `json:"pagination"`
}

// BlacklistListSuccessResponse is the success response envelope for GET /blacklist (200).
type BlacklistListSuccessResponse struct {
	Data  BlacklistListResponse `json:"data"`
	Error *helpers.APIError     `json:"error"`
}

// BlacklistController handles blacklist management endpoints.
type BlacklistController struct {
	Logger  *slog.Logger
	Service domain.BlacklistService
}

// NewBlacklistController creates a BlacklistController with the given logger and service.
func NewBlacklistController(logger *slog.Logger, svc domain.BlacklistService) *BlacklistController {
	return &BlacklistController{
		Logger:  logger,
		Service: svc,
	}
}

// Add godoc
// @Summary Blacklist a visitor identity
// @Description Bars an ID number from approval and check-in. Approved, not yet checked-in requests for that identity are retroactively denied. Admin and security only.
// @Tags blacklist
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body AddBlacklistRequest true "Identity and reason"
// @Success 201 {object} controllers.BlacklistEntrySuccessResponse "data contains the new entry"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /blacklist [post]
func (c *BlacklistController) Add(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req AddBlacklistRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	entry, err := c.Service.Add(r.Context(), actorID, req.IDNumber, req.Reason)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyBlacklisted) {
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "id number already blacklisted")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, entry)
}

// Remove godoc
// @Summary Remove a blacklist entry
// @Description Lifts the bar on an ID number. Already-denied requests stay denied. Admin only.
// @Tags blacklist
// @Produce json
// @Security BearerAuth
// @Param idNumber path string true "Government ID number"
// @Success 200 {object} helpers.APIResponse "data contains a confirmation message"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /blacklist/{idNumber} [delete]
func (c *BlacklistController) Remove(w http.ResponseWriter, r *http.Request) {
	idNumber := strings.TrimSpace(r.PathValue("idNumber"))
	if idNumber == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "id number is required")
		return
	}
	if err := c.Service.Remove(r.Context(), idNumber); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "blacklist entry not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"message": "blacklist entry removed"})
}

// List godoc
// @Summary List blacklist entries
// @Description Returns blacklist entries, newest first. Admin and security only.
// @Tags blacklist
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.BlacklistListSuccessResponse "data contains items and pagination"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /blacklist [get]
func (c *BlacklistController) List(w http.ResponseWriter, r *http.Request) {
	params := helpers.ParsePagination(r)
	entries, total, err := c.Service.List(r.Context(), params)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	meta := helpers.NewPaginationMeta(params.Page, params.PageSize, total)
	helpers.WriteJSONSuccess(w, http.StatusOK, BlacklistListResponse{Items: entries, Pagination: meta})
}
