package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/resume-analyzer/internal/models"
	"alfredoptarigan/resume-analyzer/internal/services"
)

// respondError maps pipeline errors onto HTTP statuses.
func respondError(c *fiber.Ctx, err error) error {
	var (
		clientErr    *services.ClientInputError
		malformedErr *services.MalformedDocumentError
		configErr    *services.ConfigurationError
		fiberErr     *fiber.Error
	)

	switch {
	case errors.As(err, &clientErr):
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: clientErr.Message})
	case errors.As(err, &malformedErr):
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{
			Error: fmt.Sprintf("Failed to extract text from resume: %v", malformedErr.Err),
		})
	case errors.As(err, &configErr):
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{Error: configErr.Message})
	case errors.As(err, &fiberErr):
		return c.Status(fiberErr.Code).JSON(models.ErrorResponse{Error: fiberErr.Message})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{Error: "Server error during analysis."})
	}
}

// ErrorHandler renders errors that escape a handler, such as an oversized body, as {error}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		message = fiberErr.Message
	}
	if code == fiber.StatusRequestEntityTooLarge {
		message = "File too large."
	}

	return c.Status(code).JSON(models.ErrorResponse{Error: message})
}
