package response

import (
	"errors"

	apperrors "paydesk/internal/errors"

	"github.com/gofiber/fiber/v2"
)

func Success(c *fiber.Ctx, message string, data interface{}) error {
	return c.JSON(fiber.Map{
		"message": message,
		"data":    data,
	})
}

func Created(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": message,
		"data":    data,
	})
}

func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}

// Coded is Error with a stable machine-readable code.
func Coded(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": message,
		"code":  code,
	})
}

func BadRequest(c *fiber.Ctx, message string) error {
	return Coded(c, fiber.StatusBadRequest, apperrors.ErrValidation.Code, message)
}

func ServerError(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusInternalServerError, message)
}

func Unauthorized(c *fiber.Ctx) error {
	return Error(c, fiber.StatusUnauthorized, "Unauthorized")
}

var statusByCode = map[string]int{
	apperrors.ErrValidation.Code:           fiber.StatusBadRequest,
	apperrors.ErrConfirmationRequired.Code: fiber.StatusBadRequest,
	apperrors.ErrNotFound.Code:             fiber.StatusNotFound,
	apperrors.ErrPermissionDenied.Code:     fiber.StatusForbidden,
	apperrors.ErrReadOnly.Code:             fiber.StatusConflict,
	apperrors.ErrStoreFailure.Code:         fiber.StatusBadGateway,
	apperrors.ErrUnavailable.Code:          fiber.StatusServiceUnavailable,
}

// Status maps an error to its HTTP status.
func Status(err error) int {
	var de *apperrors.DomainError
	if errors.As(err, &de) {
		if status, ok := statusByCode[de.Code]; ok {
			return status
		}
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return fiber.StatusInternalServerError
}

// FromError writes err using its code. Errors without a code become a
// generic 500 so internals are not leaked.
func FromError(c *fiber.Ctx, err error) error {
	var de *apperrors.DomainError
	if errors.As(err, &de) {
		return Coded(c, Status(err), de.Code, de.Error())
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return Error(c, fe.Code, fe.Message)
	}
	return ServerError(c, "internal server error")
}
