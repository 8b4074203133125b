// Package routes defines the API routing configuration.
// It sets up all HTTP routes and their corresponding handlers,
// including middleware and authentication requirements.
package routes

import (
	"paydesk/internal/handlers"
	"paydesk/internal/middleware"
	"paydesk/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Auth       *handlers.AuthHandler
	Onboarding *handlers.OnboardingHandler
	Calculator *handlers.CalculatorHandler
	Admin      *handlers.AdminHandler
	Health     *handlers.HealthHandler
}

// SetupRoutes configures all application routes.
// It groups routes by functionality and applies appropriate middleware.
func SetupRoutes(app *fiber.App, h Handlers, authMiddleware *middleware.AuthMiddleware) {
	app.Get("/health", h.Health.HealthCheck)

	api := app.Group("/api")
	api.Post("/login", h.Auth.LoginUser)

	authenticated := api.Group("", authMiddleware.Handler)
	authenticated.Get("/me", h.Auth.Me)
	authenticated.Post("/calculator", middleware.RequirePermission(models.PermissionCalculatorUse), h.Calculator.Calculate)

	// Onboarding wizard
	read := middleware.RequirePermission(models.PermissionOnboardingRead)
	write := middleware.RequirePermission(models.PermissionOnboardingWrite)

	ob := authenticated.Group("/onboarding/:contractId")
	ob.Post("/session", write, h.Onboarding.Open)
	ob.Get("/session", read, h.Onboarding.Get)
	ob.Delete("/session", write, h.Onboarding.Close)
	ob.Patch("/field", write, h.Onboarding.UpdateField)
	ob.Patch("/section", write, h.Onboarding.UpdateSection)
	ob.Post("/authorized-persons/from-contact", write, h.Onboarding.AuthorizedPersonFromContact)
	ob.Post("/authorized-persons/:personId/documents/:side", write, h.Onboarding.UploadDocument)
	ob.Post("/actual-owners/from-contact", write, h.Onboarding.ActualOwnerFromContact)
	ob.Post("/locations/from-contact", write, h.Onboarding.LocationFromContact)
	ob.Post("/locations", write, h.Onboarding.AddLocation)
	ob.Post("/registry-persons", write, h.Onboarding.ImportRegistryPersons)
	ob.Post("/save", write, h.Onboarding.Save)
	ob.Post("/submit", write, h.Onboarding.Submit)

	// Back office
	admin := authenticated.Group("/admin", middleware.RequireRole(models.RoleAdmin))
	admin.Get("/contracts", h.Admin.ListContracts)
	admin.Get("/bulk/:collection/columns", middleware.RequirePermission(models.PermissionBulkWrite), h.Admin.BulkColumns)
	admin.Post("/bulk/:collection/update", middleware.RequirePermission(models.PermissionBulkWrite), h.Admin.BulkUpdate)
	admin.Post("/bulk/:collection/delete", middleware.RequirePermission(models.PermissionBulkWrite), h.Admin.BulkDelete)
	admin.Post("/bulk/:collection/export", middleware.RequirePermission(models.PermissionBulkWrite), h.Admin.BulkExport)
	admin.Post("/merchant-links/fix", middleware.RequirePermission(models.PermissionMerchantLink), h.Admin.FixMerchantLinks)
	admin.Post("/team", middleware.RequirePermission(models.PermissionTeamWrite), h.Admin.CreateMember)
	admin.Delete("/team", middleware.RequirePermission(models.PermissionTeamWrite), h.Admin.DeleteMember)
}
