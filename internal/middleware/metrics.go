package middleware

import (
	"strconv"
	"time"

	"guardians/internal/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

// RequestMetrics counts requests and observes their latency per route template,
// so /api/quizzes/:id is one series regardless of the id.
func RequestMetrics(m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := responseStatus(c, err)
		route := c.Route().Path
		method := utils.CopyString(c.Method())
		m.RequestCounter.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		m.RequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		return err
	}
}
