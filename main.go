package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"projecthub/internal/api"
	"projecthub/internal/config"
	"projecthub/internal/database"
	"projecthub/internal/email"
	"projecthub/internal/logger"
	"projecthub/internal/monitoring"
	"projecthub/internal/pdf"
	"projecthub/internal/repository"
	"projecthub/internal/service"
	"projecthub/internal/token"
	"projecthub/internal/validator"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

func main() {
	cfg := config.NewConfig()

	telemetry, err := monitoring.NewOpenTelemetry(cfg.Telemetry)
	if err != nil {
		log.Fatalf("Failed to initialize telemetry: %v", err)
	}

	logg := logger.New(cfg)

	ctx := context.Background()
	db, err := database.Connect(ctx, cfg.Mongo)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.EnsureIndexes(ctx); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}

	repo := repository.NewMongoRepository(db)

	mailer, err := email.NewSMTPMailer(cfg.Email, logg, telemetry)
	if err != nil {
		log.Fatalf("Failed to create mailer: %v", err)
	}

	tokens := token.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)

	membership := service.NewMembershipService(repo, logg)
	authService := service.NewAuthService(repo, mailer, tokens, logg, telemetry, cfg.Server.BaseURL)
	projects := service.NewProjectService(repo, membership, logg)
	tasks := service.NewTaskService(repo, tokens, logg)
	meetings := service.NewMeetingService(repo, tasks, mailer, pdf.NewNotesRenderer(), logg)
	reports := service.NewReportService(repo)

	handler := api.NewHandler(api.Services{
		Auth:       authService,
		Membership: membership,
		Projects:   projects,
		Meetings:   meetings,
		Tasks:      tasks,
		Reports:    reports,
	}, repo, validator.New(), logg, cfg.Server.BaseURL)

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	})
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))

	handler.RegisterRoutes(app, tokens)

	go func() {
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		logg.Info("Starting server", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("Server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logg.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logg.Error("Failed to shut down server", "error", err)
	}
	if err := db.Disconnect(shutdownCtx); err != nil {
		logg.Error("Failed to disconnect from database", "error", err)
	}
	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		logg.Error("Failed to shut down telemetry", "error", err)
	}
}
