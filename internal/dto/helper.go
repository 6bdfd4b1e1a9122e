package dto

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Syamgith/decisiontraceX/internal/validator"
)

// ParseQueryAndValidate parses the request query string into the given
// struct and validates it. Returns a fiber error response if parsing or
// validation fails.
func ParseQueryAndValidate(c *fiber.Ctx, v any) error {
	if err := c.QueryParser(v); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid query parameters: " + err.Error(),
		})
	}

	if err := validator.Validate(v); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "Validation Error",
				"message": "Request validation failed",
				"errors":  validationErrors,
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": err.Error(),
		})
	}

	return nil
}
