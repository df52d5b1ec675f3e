package transport

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"bookline/internal/observability"
)

// HeaderCorrelationID carries the request correlation id in and out.
const HeaderCorrelationID = "X-Correlation-Id"

// CorrelationMiddleware accepts a caller-supplied correlation id or mints
// one, stores it in the request context for downstream loggers and echoes
// it on the response.
func CorrelationMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		correlationID := strings.TrimSpace(c.Get(HeaderCorrelationID))
		if correlationID == "" {
			correlationID = uuid.NewString()
		}

		c.SetUserContext(observability.WithCorrelationID(c.UserContext(), correlationID))
		c.Set(HeaderCorrelationID, correlationID)

		return c.Next()
	}
}
