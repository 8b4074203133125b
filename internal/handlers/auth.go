package handlers

import (
	"errors"

	"paydesk/internal/models"
	"paydesk/internal/services/auth"
	"paydesk/internal/utils"
	"paydesk/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService *auth.Service
}

func NewAuthHandler(authService *auth.Service) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginUser handles user authentication and returns a JWT access token
func (h *AuthHandler) LoginUser(c *fiber.Ctx) error {
	var input loginRequest
	if err := parseBody(c, &input); err != nil {
		return response.FromError(c, err)
	}

	user, token, err := h.authService.Login(c.UserContext(), input.Email, input.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return response.Error(c, fiber.StatusUnauthorized, "Invalid email or password")
		}
		return response.FromError(c, err)
	}

	role, err := h.authService.Role(c.UserContext(), user.ID)
	if err != nil {
		return response.FromError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"access_token": token,
		"user": fiber.Map{
			"id":          user.ID,
			"email":       user.Email,
			"name":        user.Name,
			"role":        role,
			"permissions": models.GetDefaultPermissions(role),
		},
	})
}

// Me returns the caller's identity as resolved by the auth middleware.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}
	role := utils.GetRole(c)
	return response.Success(c, "Current user", fiber.Map{
		"id":          claims.UserID,
		"email":       claims.Email,
		"role":        role,
		"permissions": models.GetDefaultPermissions(role),
	})
}
