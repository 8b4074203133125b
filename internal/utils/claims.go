package utils

import (
	"errors"

	"paydesk/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Locals keys written by the auth middleware.
const (
	localClaims = "claims"
	localUserID = "userID"
	localRole   = "role"
)

var ErrNoCaller = errors.New("request is not authenticated")

// SetCaller stores the authenticated identity on the request.
func SetCaller(c *fiber.Ctx, claims *models.UserClaims, role string) {
	c.Locals(localClaims, claims)
	c.Locals(localUserID, claims.UserID)
	c.Locals(localRole, role)
}

// GetUserClaims returns the token claims of the caller.
func GetUserClaims(c *fiber.Ctx) (*models.UserClaims, error) {
	claims, ok := c.Locals(localClaims).(*models.UserClaims)
	if !ok || claims == nil {
		return nil, ErrNoCaller
	}
	return claims, nil
}

// CallerID is zero on unauthenticated requests.
func CallerID(c *fiber.Ctx) uint {
	id, _ := c.Locals(localUserID).(uint)
	return id
}

// GetRole returns the role resolved by the auth middleware.
func GetRole(c *fiber.Ctx) string {
	role, _ := c.Locals(localRole).(string)
	return role
}
