package serverutils

import (
	"doc-chat-be/pkg/ratelimiter"

	"github.com/gofiber/fiber/v2"
)

// RateLimitMiddleware rejects requests over the per-user limit with 429.
// It must run after JwtMiddleware so the user id is available.
func RateLimitMiddleware(limiter ratelimiter.RateLimiter) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		userId, ok := AuthenticatedUserId(ctx)
		if !ok {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse("Missing authenticated user"))
		}

		allowed, err := limiter.Allow(ctx.Context(), userId)
		if err != nil {
			// A broken limiter backend should not take the API down.
			return ctx.Next()
		}
		if !allowed {
			return ctx.Status(fiber.StatusTooManyRequests).JSON(ErrorResponse("Rate limit exceeded. Please try again later."))
		}

		return ctx.Next()
	}
}
