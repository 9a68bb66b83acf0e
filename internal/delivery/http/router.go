package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"visitorgate/internal/delivery/http/controllers"
	"visitorgate/internal/delivery/http/middleware"
	"visitorgate/internal/domain"
)

// Controllers bundles the handler set the router wires up.
type Controllers struct {
	Auth          *controllers.AuthController
	Users         *controllers.UserController
	Visits        *controllers.VisitController
	Visitors      *controllers.VisitorController
	Blacklist     *controllers.BlacklistController
	Notifications *controllers.NotificationController
	Reports       *controllers.ReportController
}

// NewRouter initializes the HTTP router with all application routes.
// Residents decide their own visit requests; the service layer enforces
// ownership, so resident routes are gated by role only.
func NewRouter(logger *slog.Logger, verifier domain.TokenVerifier, c Controllers) *http.ServeMux {
	mux := http.NewServeMux()

	authed := middleware.RequireAuth(verifier, logger)
	resident := middleware.RequireRole(domain.RoleResident)
	staff := middleware.RequireRole(domain.RoleSecurity, domain.RoleAdmin)
	admin := middleware.RequireRole(domain.RoleAdmin)

	// Auth
	mux.HandleFunc("POST /api/auth/register", c.Auth.Register)
	mux.HandleFunc("POST /api/auth/login", c.Auth.Login)

	// Accounts
	mux.HandleFunc("GET /api/users/me", authed(c.Users.GetMe))
	mux.HandleFunc("GET /api/users/pending", authed(admin(c.Users.ListPending)))
	mux.HandleFunc("POST /api/users/{id}/approve", authed(admin(c.Users.ApproveAccount)))
	mux.HandleFunc("POST /api/users", authed(admin(c.Users.CreateStaff)))

	// Visit lifecycle
	mux.HandleFunc("POST /api/visits", authed(resident(c.Visits.PreRegister)))
	mux.HandleFunc("GET /api/visits", authed(c.Visits.List))
	mux.HandleFunc("POST /api/visits/walkin", authed(staff(c.Visits.WalkIn)))
	mux.HandleFunc("GET /api/visits/gatepass/{code}", authed(staff(c.Visits.GetByGatePass)))
	mux.HandleFunc("GET /api/visits/{id}", authed(c.Visits.GetByID))
	mux.HandleFunc("POST /api/visits/{id}/approve", authed(resident(c.Visits.Approve)))
	mux.HandleFunc("POST /api/visits/{id}/deny", authed(resident(c.Visits.Deny)))
	mux.HandleFunc("POST /api/visits/{id}/cancel", authed(resident(c.Visits.Cancel)))
	mux.HandleFunc("POST /api/visits/{id}/checkin", authed(staff(c.Visits.CheckIn)))
	mux.HandleFunc("POST /api/visits/{id}/checkout", authed(staff(c.Visits.CheckOut)))

	// Visitors
	mux.HandleFunc("GET /api/visitors", authed(staff(c.Visitors.List)))
	mux.HandleFunc("GET /api/visitors/{idNumber}", authed(staff(c.Visitors.GetByIDNumber)))

	// Blacklist
	mux.HandleFunc("POST /api/blacklist", authed(staff(c.Blacklist.Add)))
	mux.HandleFunc("GET /api/blacklist", authed(staff(c.Blacklist.List)))
	mux.HandleFunc("DELETE /api/blacklist/{idNumber}", authed(admin(c.Blacklist.Remove)))

	// Notifications
	mux.HandleFunc("GET /api/notifications", authed(c.Notifications.ListMine))
	mux.HandleFunc("POST /api/notifications/{id}/read", authed(c.Notifications.MarkRead))
	mux.HandleFunc("POST /api/notifications/read-all", authed(c.Notifications.MarkAllRead))

	// Reports
	mux.HandleFunc("GET /api/reports/daily", authed(staff(c.Reports.DailyLog)))
	mux.HandleFunc("GET /api/reports/range", authed(staff(c.Reports.RangeLog)))
	mux.HandleFunc("GET /api/reports/stats", authed(admin(c.Reports.Stats)))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
