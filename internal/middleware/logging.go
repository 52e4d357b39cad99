package middleware

import (
	"time"

	"guardians/internal/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RequestLogger writes one structured line per request.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", responseStatus(c, err)),
			zap.Duration("duration", time.Since(start)),
			zap.String("ip", c.IP()),
		}
		if userID := CurrentUserID(c); userID != "" {
			fields = append(fields, zap.String("userID", userID))
		}
		if err != nil {
			fields = append(fields, zap.Error(err))
		}
		logger.Get().Info("request", fields...)
		return err
	}
}
