package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quizgen/internal/api"
	"quizgen/internal/app/service"
	"quizgen/internal/common/security"
	"quizgen/internal/domain/repository"
	"quizgen/internal/platform/config"
	"quizgen/internal/platform/database"
	"quizgen/internal/platform/session"
)

func main() {
	// 1. Load Configuration
	config.Load()
	fmt.Println("Configuration loaded.")

	// 2. Initialize JWT
	security.InitJWT()
	fmt.Println("JWT initialized.")

	// 3. Initialize MongoDB (best-effort; operations reconnect on demand)
	db := database.New(config.AppConfig.MongoURI, config.AppConfig.MongoDBName, config.AppConfig.MongoOpTimeout)
	db.Connect()
	defer db.Close()

	// 4. Initialize Redis session audit store
	sessions := session.Connect(
		config.AppConfig.RedisAddr,
		config.AppConfig.RedisPassword,
		config.AppConfig.RedisDB,
		config.AppConfig.JWTRefreshExp,
	)
	defer sessions.Close()

	// 5. Initialize Repositories
	userRepo := repository.NewMongoUserRepository(db)
	loginLogRepo := repository.NewMongoLoginLogRepository(db)
	reportRepo := repository.NewMongoReportRepository(db)

	// 6. Initialize Services
	authService := service.NewAuthService(userRepo, loginLogRepo, sessions)
	adminService := service.NewAdminService(userRepo)
	reportService := service.NewReportService(reportRepo)

	// 7. Seed the bootstrap admin if configured
	bootstrapCtx, bootstrapCancel := context.WithTimeout(context.Background(), config.AppConfig.MongoOpTimeout)
	if err := adminService.EnsureBootstrapAdmin(
		bootstrapCtx,
		config.AppConfig.BootstrapAdminUsername,
		config.AppConfig.BootstrapAdminEmail,
		config.AppConfig.BootstrapAdminPassword,
	); err != nil {
		log.Printf("Bootstrap admin setup skipped: %v", err)
	}
	bootstrapCancel()

	// 8. Initialize Router & HTTP Server
	router := api.NewRouter(authService, adminService, reportService)

	server := &http.Server{
		Addr:         ":" + config.AppConfig.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 9. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", config.AppConfig.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", config.AppConfig.APIPort, err)
		}
	}()
	log.Println("Server started successfully.")

	<-stop // Wait for interrupt signal

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server stopped gracefully.")
}
