package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"visitorgate/config"
	_ "visitorgate/docs"
	"visitorgate/internal/adapters/auth"
	"visitorgate/internal/adapters/email"
	httpdelivery "visitorgate/internal/delivery/http"
	"visitorgate/internal/delivery/http/controllers"
	"visitorgate/internal/delivery/http/middleware"
	"visitorgate/internal/domain"
	"visitorgate/internal/repository/postgres"
	"visitorgate/internal/services"
)

const serviceTimeout = 5 * time.Second

// @title VisitorGate API
// @version 1.0
// @description Visitor management backend for gated communities. Residents pre-register guests, security staff run the gate, and every entry and exit is logged.

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT.

// @BasePath /api
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	logger := config.NewLogger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err = db.PingContext(pingCtx)
	cancel()
	if err != nil {
		logger.Error("ping database", "err", err)
		os.Exit(1)
	}

	if err := postgres.Migrate(ctx, db); err != nil {
		logger.Error("run migrations", "err", err)
		os.Exit(1)
	}

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	roleRepo := postgres.NewRoleRepository(db)
	visitorRepo := postgres.NewVisitorRepository(db)
	visitRepo := postgres.NewVisitRequestRepository(db)
	blacklistRepo := postgres.NewBlacklistRepository(db)
	accessLogRepo := postgres.NewAccessLogRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)

	// Adapters
	hasher := auth.NewBcryptHasher(12)
	tokenIssuer := auth.NewJWTIssuer(cfg.JWTSecret)
	tokenVerifier := auth.NewJWTVerifier(cfg.JWTSecret)
	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.EmailProvider,
		FromAddress: cfg.EmailFrom,
		FromName:    cfg.EmailFromName,
		SES: email.SESConfig{
			Region:          cfg.AWSRegion,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		},
	})
	if err != nil {
		logger.Error("create mailer", "err", err)
		os.Exit(1)
	}

	// Services
	emailService := services.NewEmailService(mailer, email.NewTemplateRenderer())
	notificationService := services.NewNotificationService(notificationRepo, serviceTimeout)
	dispatcher := services.NewDispatcher(userRepo, notificationService, emailService, logger, cfg.NotifyBuffer)
	visitService := services.NewVisitService(visitRepo, visitorRepo, userRepo, blacklistRepo, accessLogRepo, dispatcher, serviceTimeout)
	blacklistService := services.NewBlacklistService(blacklistRepo, visitRepo, visitorRepo, dispatcher, serviceTimeout)
	userService := services.NewUserService(userRepo, roleRepo, hasher, notificationService, emailService, serviceTimeout)
	authService := services.NewAuthService(userRepo, roleRepo, hasher, tokenIssuer, cfg.TokenTTL, serviceTimeout)
	visitorService := services.NewVisitorService(visitorRepo, serviceTimeout)
	reportService := services.NewReportService(accessLogRepo, visitRepo, visitorRepo, blacklistRepo, serviceTimeout)

	go func() {
		if err := dispatcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("notification dispatcher stopped", "err", err)
		}
	}()

	sweeper := services.NewSweeper(visitService, cfg.VisitSweepInterval, logger)
	sweeper.Start(ctx)

	bootstrapAdmin(ctx, logger, userService, cfg)

	router := httpdelivery.NewRouter(logger, tokenVerifier, httpdelivery.Controllers{
		Auth:          controllers.NewAuthController(logger, userService, authService),
		Users:         controllers.NewUserController(logger, userService),
		Visits:        controllers.NewVisitController(logger, visitService),
		Visitors:      controllers.NewVisitorController(logger, visitorService),
		Blacklist:     controllers.NewBlacklistController(logger, blacklistService),
		Notifications: controllers.NewNotificationController(logger, notificationService),
		Reports:       controllers.NewReportController(logger, reportService),
	})

	handler := middleware.LoggingMiddleware(logger, router)
	if len(cfg.AllowedOrigins) > 0 {
		handler = middleware.CORS(cfg.AllowedOrigins, handler)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "err", err)
	}
	sweeper.Stop()
}

// bootstrapAdmin seeds the first admin account from ADMIN_EMAIL and
// ADMIN_PASSWORD. An already-registered email is left alone.
func bootstrapAdmin(ctx context.Context, logger *slog.Logger, users domain.UserService, cfg *config.Config) {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return
	}
	_, err := users.CreateStaff(ctx, &domain.StaffInput{
		Email:    cfg.AdminEmail,
		FullName: "Administrator",
		Password: cfg.AdminPassword,
		Role:     domain.RoleAdmin,
	})
	switch {
	case err == nil:
		logger.Info("admin account created", "email", cfg.AdminEmail)
	case errors.Is(err, domain.ErrDuplicateEmail):
		// Already seeded on a previous start.
	default:
		logger.Error("admin bootstrap failed", "err", err)
	}
}
