// Package middleware provides HTTP middleware components for the application.
// It includes authentication and role checks for fiber routes.
package middleware

import (
	"context"
	"errors"
	"strings"

	apperrors "paydesk/internal/errors"
	"paydesk/internal/models"
	"paydesk/internal/utils"
	"paydesk/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Authenticator verifies tokens and resolves roles.
type Authenticator interface {
	ParseToken(token string) (*models.UserClaims, error)
	Role(ctx context.Context, userID uint) (string, error)
}

// AuthMiddleware handles JWT token validation and user authentication.
// It extracts the JWT token from the Authorization header, validates it,
// looks up the caller's role and adds both to the request context.
type AuthMiddleware struct {
	auth Authenticator
	log  logrus.FieldLogger
}

func NewAuthMiddleware(auth Authenticator, log logrus.FieldLogger) *AuthMiddleware {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &AuthMiddleware{auth: auth, log: log.WithField("component", "auth_middleware")}
}

func (m *AuthMiddleware) Handler(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return response.Error(c, fiber.StatusUnauthorized, "missing authorization header")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return response.Error(c, fiber.StatusUnauthorized, "invalid authorization format")
	}

	claims, err := m.auth.ParseToken(strings.TrimPrefix(authHeader, "Bearer "))
	if err != nil {
		m.log.WithError(err).Debug("Token validation failed")
		return response.Error(c, fiber.StatusUnauthorized, "invalid token")
	}

	role, err := m.auth.Role(c.UserContext(), claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrPermissionDenied) {
			return response.FromError(c, err)
		}
		m.log.WithError(err).WithField("user_id", claims.UserID).Error("Role lookup failed")
		return response.FromError(c, apperrors.Wrap(apperrors.ErrStoreFailure, err))
	}

	utils.SetCaller(c, claims, role)
	return c.Next()
}

// RequireRole allows the request only for the given roles.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := utils.GetRole(c)
		if role == "" {
			return response.Unauthorized(c)
		}
		for _, r := range roles {
			if role == r {
				return c.Next()
			}
		}
		return response.FromError(c, apperrors.ErrPermissionDenied)
	}
}

// RequirePermission allows the request when the caller's role grants
// permission.
func RequirePermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := utils.GetRole(c)
		if role == "" {
			return response.Unauthorized(c)
		}
		if !models.HasPermission(role, permission) {
			return response.FromError(c, apperrors.ErrPermissionDenied)
		}
		return c.Next()
	}
}
