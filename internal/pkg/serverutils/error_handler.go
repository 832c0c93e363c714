package serverutils

import (
	"errors"
	"log"

	"context-retriever-be/pkg/ingest"
	"context-retriever-be/pkg/orchestrator"
	"context-retriever-be/pkg/session"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns handler errors into the standard error envelope.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code, message, data := mapError(err)
		if code >= fiber.StatusInternalServerError {
			log.Printf("[ERROR] %s %s: %v", ctx.Method(), ctx.Path(), err)
		}
		return ctx.Status(code).JSON(ErrorResponse(code, message, data))
	}
}

func mapError(err error) (int, string, interface{}) {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return fiber.StatusUnprocessableEntity, "Validation failed", validationErr.Fields
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code, fiberErr.Message, nil
	}

	switch {
	case errors.Is(err, orchestrator.ErrInvalidInput):
		return fiber.StatusBadRequest, err.Error(), nil
	case errors.Is(err, ingest.ErrUnsupportedFile), errors.Is(err, ingest.ErrNothingToIngest):
		return fiber.StatusBadRequest, err.Error(), nil
	case errors.Is(err, session.ErrUnavailable):
		return fiber.StatusServiceUnavailable, "Session store unavailable", nil
	}

	return fiber.StatusInternalServerError, "Internal server error", nil
}
