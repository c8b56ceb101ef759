package api

import (
	"net/http"
	"time"

	"quizgen/internal/api/handler"
	"quizgen/internal/app/service"
	"quizgen/internal/common/security"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(
	authService *service.AuthService,
	adminService *service.AdminService,
	reportService *service.ReportService,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger) // Chi's logger
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	// Stashes the bearer token and its verification result in the request
	// context; the Authenticator middleware decides what to do with it on
	// protected groups.
	r.Use(jwtauth.Verifier(security.TokenAuth))

	// Public health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Public auth routes: /register, /login, /login/refresh
	authHandler := handler.NewAuthHandler(authService)
	r.Group(func(publicAuth chi.Router) {
		authHandler.RegisterRoutes(publicAuth)
	})

	// Admin surface: registration/login plus the approval and account
	// management endpoints.
	adminHandler := handler.NewAdminHandler(authService, adminService)
	r.Route("/admin", adminHandler.RegisterRoutes)

	// Moderation reports
	reportHandler := handler.NewReportHandler(authService, reportService)
	r.Route("/reports", reportHandler.RegisterRoutes)

	return r
}
