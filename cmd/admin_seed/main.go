package main

import (
	"context"
	"os"
	"strings"

	"paydesk/internal/app"
	"paydesk/internal/config"
	"paydesk/internal/logging"
	"paydesk/internal/models"
	"paydesk/internal/repositories"
	"paydesk/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	config.LoadEnv()
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	adminEmail := strings.ToLower(strings.TrimSpace(os.Getenv("ADMIN_EMAIL")))
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	adminName := config.GetEnv("ADMIN_NAME", "Administrator")

	if adminEmail == "" || adminPassword == "" {
		log.Fatal("ADMIN_EMAIL and ADMIN_PASSWORD must be set in environment")
	}
	v := validation.New()
	v.Email("ADMIN_EMAIL", adminEmail)
	v.Password("ADMIN_PASSWORD", adminPassword)
	if err := v.Err(); err != nil {
		log.WithError(err).Fatal("Invalid admin credentials")
	}

	store, db, err := app.OpenStore(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to open store")
	}
	defer func() {
		if db == nil {
			return
		}
		if sqlDB, err := db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				log.WithError(err).Warn("Failed to close PostgreSQL connection")
			}
		}
	}()

	ctx := context.Background()
	if _, err := store.GetUserByEmail(ctx, adminEmail); err == nil {
		log.Info("Admin user already exists")
		return
	} else if !repositories.IsNotFound(err) {
		log.WithError(err).Fatal("Failed to look up admin user")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.WithError(err).Fatal("Failed to hash password")
	}

	adminUser := &models.User{
		Email:        adminEmail,
		Password:     string(hashedPassword),
		Name:         adminName,
		Phone:        os.Getenv("ADMIN_PHONE"),
		Status:       "active",
		TokenVersion: 1,
	}
	if err := store.CreateUser(ctx, adminUser, models.RoleAdmin); err != nil {
		log.WithError(err).Fatal("Failed to create admin user")
	}

	log.WithField("user_id", adminUser.ID).Info("Admin account created successfully")
}
