package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"visitorgate/internal/delivery/http/helpers"
	"visitorgate/internal/delivery/http/middleware"
	"visitorgate/internal/domain"
)

// NotificationListResponse is the response body for GET /notifications.
type NotificationListResponse struct {
	Items  []*domain.Notification `json:"items"`
	Unread int                    `json:"unread"`
}

// NotificationListSuccessResponse is the success response envelope for GET /notifications (200).
type NotificationListSuccessResponse struct {
	Data  NotificationListResponse `json:"data"`
	Error *helpers.APIError        `json:"error"`
}

// MarkAllReadResponse is the response body for POST /notifications/read-all.
type MarkAllReadResponse struct {
	Marked int `json:"marked"`
}

// NotificationController handles in-app notification endpoints.
type NotificationController struct {
	Logger  *slog.Logger
	Service domain.NotificationService
}

// NewNotificationController creates a NotificationController with the given logger and service.
func NewNotificationController(logger *slog.Logger, svc domain.NotificationService) *NotificationController {
	return &NotificationController{
		Logger:  logger,
		Service: svc,
	}
}

// ListMine godoc
// @Summary List my notifications
// @Description Returns the authenticated user's notifications, newest first, with the unread count.
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.NotificationListSuccessResponse "data contains items and unread count"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /notifications [get]
func (c *NotificationController) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	items, unread, err := c.Service.ListMine(r.Context(), userID, helpers.ParsePagination(r))
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, NotificationListResponse{Items: items, Unread: unread})
}

// MarkRead godoc
// @Summary Mark a notification as read
// @Description Marks one of the authenticated user's notifications as read.
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notification ID (UUID)"
// @Success 200 {object} helpers.APIResponse "data contains a confirmation message"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /notifications/{id}/read [post]
func (c *NotificationController) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	id := r.PathValue("id")
	if !uuidRegex.MatchString(id) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid notification id")
		return
	}
	if err := c.Service.MarkRead(r.Context(), userID, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "notification not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"message": "notification marked read"})
}

// MarkAllRead godoc
// @Summary Mark all notifications as read
// @Description Marks every unread notification of the authenticated user as read. Returns how many changed.
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains the marked count"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /notifications/read-all [post]
func (c *NotificationController) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	marked, err := c.Service.MarkAllRead(r.Context(), userID)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, MarkAllReadResponse{Marked: marked})
}
