// Package main is the entry point for the application.
// It initializes all dependencies, sets up the HTTP server,
// and starts the application.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"paydesk/internal/app"
	"paydesk/internal/config"
	"paydesk/internal/logging"
	"paydesk/internal/routes"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func main() {
	config.LoadEnv()
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize dependencies")
	}
	defer deps.Close()

	go deps.Sessions.Run(ctx)

	server := fiber.New(fiber.Config{
		AppName:   "paydesk",
		BodyLimit: 12 << 20,
	})

	server.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigin,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowCredentials: cfg.CORSOrigin != "*",
	}))
	server.Use(log.Middleware())

	server.Use("/api/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests. Please try again later.",
			})
		},
	}))

	routes.SetupRoutes(server, deps.Handlers(), deps.AuthMiddleware())

	go func() {
		<-ctx.Done()
		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.ShutdownWithContext(shutdownCtx); err != nil {
			log.WithError(err).Error("HTTP shutdown failed")
		}
	}()

	log.WithField("port", cfg.Port).Info("Starting server")
	if err := server.Listen(":" + cfg.Port); err != nil {
		log.WithError(err).Error("Server stopped")
	}

	// Pending auto-saves are flushed before the store closes.
	closeCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := deps.Sessions.CloseAll(closeCtx); err != nil {
		log.WithError(err).Error("Some onboarding rows were not saved on shutdown")
	}
}
