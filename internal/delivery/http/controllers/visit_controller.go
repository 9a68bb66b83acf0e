package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"visitorgate/internal/delivery/http/helpers"
	"visitorgate/internal/delivery/http/middleware"
	"visitorgate/internal/domain"
)

// gatePassRegex matches the code printed on a gate pass.
var gatePassRegex = regexp.MustCompile(`^[A-Za-z0-9]{4,32}$`)

// PreRegisterRequest is the request body for POST /visits.
type PreRegisterRequest struct {
	VisitorName  string    `json:"visitor_name"`
	VisitorEmail string    `json:"visitor_email"`
	VisitorPhone string    `json:"visitor_phone"`
	IDNumber     string    `json:"id_number"`
	VehiclePlate string    `json:"vehicle_plate"`
	Purpose      string    `json:"purpose"`
	VisitType    string    `json:"visit_type"`
	WindowStart  time.Time `json:"window_start"`
	WindowEnd    time.Time `json:"window_end"`
}

// Validate implements Validator.
func (p PreRegisterRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(p.VisitorName) == "" {
		errs = append(errs, "visitor_name is required")
	}
	if strings.TrimSpace(p.IDNumber) == "" {
		errs = append(errs, "id_number is required")
	}
	if email := strings.TrimSpace(p.VisitorEmail); email != "" && !emailRegex.MatchString(email) {
		errs = append(errs, "invalid visitor_email format")
	}
	if strings.TrimSpace(p.Purpose) == "" {
		errs = append(errs, "purpose is required")
	}
	if t := strings.TrimSpace(strings.ToLower(p.VisitType)); t != "" && !domain.ValidVisitType(domain.VisitType(t)) {
		errs = append(errs, "unknown visit_type")
	}
	if p.WindowStart.IsZero() {
		errs = append(errs, "window_start is required")
	}
	if p.WindowEnd.IsZero() {
		errs = append(errs, "window_end is required")
	}
	if !p.WindowStart.IsZero() && !p.WindowEnd.IsZero() && !p.WindowEnd.After(p.WindowStart) {
		errs = append(errs, "window_end must be after window_start")
	}
	return errs
}

// WalkInRequest is the request body for POST /visits/walkin.
type WalkInRequest struct {
	VisitorName  string `json:"visitor_name"`
	VisitorEmail string `json:"visitor_email"`
	VisitorPhone string `json:"visitor_phone"`
	IDNumber     string `json:"id_number"`
	VehiclePlate string `json:"vehicle_plate"`
	ResidentID   string `json:"resident_id"`
	Purpose      string `json:"purpose"`
	VisitType    string `json:"visit_type"`
}

// Validate implements Validator.
func (wi WalkInRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(wi.VisitorName) == "" {
		errs = append(errs, "visitor_name is required")
	}
	if strings.TrimSpace(wi.IDNumber) == "" {
		errs = append(errs, "id_number is required")
	}
	if email := strings.TrimSpace(wi.VisitorEmail); email != "" && !emailRegex.MatchString(email) {
		errs = append(errs, "invalid visitor_email format")
	}
	if !uuidRegex.MatchString(wi.ResidentID) {
		errs = append(errs, "resident_id must be a valid id")
	}
	if t := strings.TrimSpace(strings.ToLower(wi.VisitType)); t != "" && !domain.ValidVisitType(domain.VisitType(t)) {
		errs = append(errs, "unknown visit_type")
	}
	return errs
}

// DenyRequest is the request body for POST /visits/{id}/deny.
type DenyRequest struct {
	Reason string `json:"reason"`
}

// Validate implements Validator.
func (d DenyRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(d.Reason) == "" {
		errs = append(errs, "reason is required")
	}
	return errs
}

// VisitBundleSuccessResponse is the success response envelope for endpoints
// returning a visit request with its visitor.
type VisitBundleSuccessResponse struct {
	Data  *domain.VisitRequestWithVisitor `json:"data"`
	Error *helpers.APIError               `json:"error"`
}

// VisitListSuccessResponse is the success response envelope for GET /visits (200).
type VisitListSuccessResponse struct {
	Data  []*domain.VisitRequestWithVisitor `json:"data"`
	Error *helpers.APIError                 `json:"error"`
}

// VisitSuccessResponse is the success response envelope for lifecycle endpoints
// returning the bare visit request.
type VisitSuccessResponse struct {
	Data  *domain.VisitRequest `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

// VisitController handles visit request lifecycle endpoints.
type VisitController struct {
	Logger  *slog.Logger
	Service domain.VisitService
}

// NewVisitController creates a VisitController with the given logger and service.
func NewVisitController(logger *slog.Logger, svc domain.VisitService) *VisitController {
	return &VisitController{
		Logger:  logger,
		Service: svc,
	}
}

// staffActor reports whether the request context carries a staff role.
func staffActor(r *http.Request) bool {
	return middleware.HasRole(r.Context(), domain.RoleAdmin) || middleware.HasRole(r.Context(), domain.RoleSecurity)
}

// PreRegister godoc
// @Summary Pre-register a visitor
// @Description Creates a pending visit request for the authenticated resident. The visitor identity is created or reused by ID number. Resident only.
// @Tags visits
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body PreRegisterRequest true "Visit data"
// @Success 201 {object} controllers.VisitBundleSuccessResponse "data contains the pending request and its visitor"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /visits [post]
func (c *VisitController) PreRegister(w http.ResponseWriter, r *http.Request) {
	residentID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req PreRegisterRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	bundle, err := c.Service.PreRegister(r.Context(), residentID, &domain.PreRegistration{
		VisitorName:  req.VisitorName,
		VisitorEmail: req.VisitorEmail,
		VisitorPhone: req.VisitorPhone,
		IDNumber:     req.IDNumber,
		VehiclePlate: req.VehiclePlate,
		Purpose:      req.Purpose,
		VisitType:    domain.VisitType(strings.TrimSpace(strings.ToLower(req.VisitType))),
		WindowStart:  req.WindowStart,
		WindowEnd:    req.WindowEnd,
	})
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, bundle)
}

// WalkIn godoc
// @Summary Record a walk-in visitor
// @Description Records an unannounced visitor as checked in against the given resident, with an entry log row. Blacklisted identities are refused. Security only.
// @Tags visits
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body WalkInRequest true "Walk-in data"
// @Success 201 {object} controllers.VisitBundleSuccessResponse "data contains the checked-in request and its visitor"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /visits/walkin [post]
func (c *VisitController) WalkIn(w http.ResponseWriter, r *http.Request) {
	securityID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req WalkInRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	bundle, err := c.Service.WalkIn(r.Context(), securityID, &domain.WalkInEntry{
		VisitorName:  req.VisitorName,
		VisitorEmail: req.VisitorEmail,
		VisitorPhone: req.VisitorPhone,
		IDNumber:     req.IDNumber,
		VehiclePlate: req.VehiclePlate,
		ResidentID:   req.ResidentID,
		Purpose:      req.Purpose,
		VisitType:    domain.VisitType(strings.TrimSpace(strings.ToLower(req.VisitType))),
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "resident not found")
			return
		}
		if errors.Is(err, domain.ErrBlacklistedVisitor) {
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "visitor is blacklisted")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, bundle)
}

// List godoc
// @Summary List visit requests
// @Description Residents see their own requests; admin and security see all. Optional status filter. Newest first.
// @Tags visits
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by lifecycle status"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.VisitListSuccessResponse "data contains visit requests with their visitors"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /visits [get]
func (c *VisitController) List(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var filter domain.VisitFilter
	if status := strings.TrimSpace(strings.ToLower(r.URL.Query().Get("status"))); status != "" {
		if !domain.ValidVisitStatus(domain.VisitStatus(status)) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "unknown status")
			return
		}
		filter.Status = domain.VisitStatus(status)
	}
	p := helpers.ParsePagination(r)

	var (
		bundles []*domain.VisitRequestWithVisitor
		err     error
	)
	if staffActor(r) {
		bundles, err = c.Service.ListAll(r.Context(), filter, p)
	} else {
		bundles, err = c.Service.ListByResident(r.Context(), actorID, filter, p)
	}
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, bundles)
}

// GetByID godoc
// @Summary Get a visit request
// @Description Returns one visit request with its visitor. Residents can only read their own; admin and security can read any.
// @Tags visits
// @Produce json
// @Security BearerAuth
// @Param id path string true "Visit request ID (UUID)"
// @Success 200 {object} controllers.VisitBundleSuccessResponse "data contains the request and its visitor"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /visits/{id} [get]
func (c *VisitController) GetByID(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	id := r.PathValue("id")
	if !uuidRegex.MatchString(id) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid visit id")
		return
	}
	bundle, err := c.Service.GetByID(r.Context(), actorID, staffActor(r), id)
	if err != nil {
		c.writeVisitError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, bundle)
}

// GetByGatePass godoc
// @Summary Look up a visit by gate pass
// @Description Returns the visit request carrying the given gate pass code. Admin and security only.
// @Tags visits
// @Produce json
// @Security BearerAuth
// @Param code path string true "Gate pass code"
// @Success 200 {object} controllers.VisitBundleSuccessResponse "data contains the request and its visitor"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /visits/gatepass/{code} [get]
func (c *VisitController) GetByGatePass(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	if !gatePassRegex.MatchString(code) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid gate pass")
		return
	}
	bundle, err := c.Service.GetByGatePass(r.Context(), code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "gate pass not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, bundle)
}

// Approve godoc
// @Summary Approve a visit request
// @Description Moves a pending request to approved and issues its gate pass. The blacklist is consulted at decision time; a blacklisted visitor leaves the request pending. Only the owning resident may approve.
// @Tags visits
// @Produce json
// @Security BearerAuth
// @Param id path string true "Visit request ID (UUID)"
// @Success 200 {object} controllers.VisitSuccessResponse "data contains the approved request with its gate pass"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /visits/{id}/approve [post]
func (c *VisitController) Approve(w http.ResponseWriter, r *http.Request) {
	residentID, id, ok := c.actorAndID(w, r)
	if !ok {
		return
	}
	req, err := c.Service.Approve(r.Context(), residentID, id)
	if err != nil {
		c.writeVisitError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, req)
}

// Deny godoc
// @Summary Deny a visit request
// @Description Moves a pending request to denied with the given reason. Only the owning resident may deny.
// @Tags visits
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Visit request ID (UUID)"
// @Param body body DenyRequest true "Denial reason"
// @Success 200 {object} controllers.VisitSuccessResponse "data contains the denied request"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /visits/{id}/deny [post]
func (c *VisitController) Deny(w http.ResponseWriter, r *http.Request) {
	residentID, id, ok := c.actorAndID(w, r)
	if !ok {
		return
	}
	var req DenyRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	visit, err := c.Service.Deny(r.Context(), residentID, id, req.Reason)
	if err != nil {
		c.writeVisitError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, visit)
}

// Cancel godoc
// @Summary Cancel a visit request
// @Description Cancels a pending or approved request. Only the owning resident may cancel.
// @Tags visits
// @Produce json
// @Security BearerAuth
// @Param id path string true "Visit request ID (UUID)"
// @Success 200 {object} controllers.VisitSuccessResponse "data contains the cancelled request"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /visits/{id}/cancel [post]
func (c *VisitController) Cancel(w http.ResponseWriter, r *http.Request) {
	residentID, id, ok := c.actorAndID(w, r)
	if !ok {
		return
	}
	visit, err := c.Service.Cancel(r.Context(), residentID, id)
	if err != nil {
		c.writeVisitError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, visit)
}

// CheckIn godoc
// @Summary Check a visitor in
// @Description Moves an approved request to checked in and appends an entry log row. The blacklist is re-checked at the gate; a match denies the request. Security only.
// @Tags visits
// @Produce json
// @Security BearerAuth
// @Param id path string true "Visit request ID (UUID)"
// @Success 200 {object} controllers.VisitSuccessResponse "data contains the checked-in request"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /visits/{id}/checkin [post]
func (c *VisitController) CheckIn(w http.ResponseWriter, r *http.Request) {
	securityID, id, ok := c.actorAndID(w, r)
	if !ok {
		return
	}
	visit, err := c.Service.CheckIn(r.Context(), securityID, id)
	if err != nil {
		c.writeVisitError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, visit)
}

// CheckOut godoc
// @Summary Check a visitor out
// @Description Moves a checked-in request to checked out and appends an exit log row. Security only.
// @Tags visits
// @Produce json
// @Security BearerAuth
// @Param id path string true "Visit request ID (UUID)"
// @Success 200 {object} controllers.VisitSuccessResponse "data contains the checked-out request"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /visits/{id}/checkout [post]
func (c *VisitController) CheckOut(w http.ResponseWriter, r *http.Request) {
	securityID, id, ok := c.actorAndID(w, r)
	if !ok {
		return
	}
	visit, err := c.Service.CheckOut(r.Context(), securityID, id)
	if err != nil {
		c.writeVisitError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, visit)
}

// actorAndID extracts the authenticated user and the path id, writing the
// error response itself when either is missing.
func (c *VisitController) actorAndID(w http.ResponseWriter, r *http.Request) (actorID, id string, ok bool) {
	actorID, ok = middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return "", "", false
	}
	id = r.PathValue("id")
	if !uuidRegex.MatchString(id) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid visit id")
		return "", "", false
	}
	return actorID, id, true
}

// writeVisitError maps lifecycle errors onto HTTP statuses.
func (c *VisitController) writeVisitError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "visit request not found")
	case errors.Is(err, domain.ErrForbidden):
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "not your visit request")
	case errors.Is(err, domain.ErrAlreadyDecided):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "visit request already decided")
	case errors.Is(err, domain.ErrInvalidTransition):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "invalid status transition")
	case errors.Is(err, domain.ErrBlacklistedVisitor):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "visitor is blacklisted")
	case errors.Is(err, domain.ErrDuplicateLogEntry):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "access already logged for this visit")
	default:
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
	}
}
