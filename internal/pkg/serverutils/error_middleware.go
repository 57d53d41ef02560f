package serverutils

import (
	"errors"

	"doc-chat-be/internal/service"
	"doc-chat-be/pkg/embedding"
	"doc-chat-be/pkg/extract"
	"doc-chat-be/pkg/textsplit"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware converts service errors into HTTP statuses. It
// runs after the handler chain so controllers can just return errors.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Message))
		}

		status := fiber.StatusInternalServerError
		switch {
		case errors.Is(err, service.ErrFileTooLarge),
			errors.Is(err, service.ErrEmptyDocument),
			errors.Is(err, service.ErrMissingUserMessage),
			errors.Is(err, extract.ErrUnsupportedType),
			errors.Is(err, extract.ErrExtraction),
			errors.Is(err, textsplit.ErrEmptyInput):
			status = fiber.StatusBadRequest
		case errors.Is(err, service.ErrConversationNotFound):
			status = fiber.StatusNotFound
		case errors.Is(err, embedding.ErrService):
			status = fiber.StatusBadGateway
		}

		return ctx.Status(status).JSON(ErrorResponse(err.Error()))
	}
}
