package logging

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// UserIDKey is the fiber Locals key the auth middleware stores the caller id under.
const UserIDKey = "user_id"

// Middleware logs one line per request after the handler chain (and the
// error handler) has run.
func Middleware(logger logrus.FieldLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			// let the app's ErrorHandler write the response before we read the status
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		fields := logrus.Fields{
			"method":      c.Method(),
			"path":        c.Path(),
			"status":      c.Response().StatusCode(),
			"duration_ms": time.Since(start).Milliseconds(),
		}
		if uid, ok := c.Locals(UserIDKey).(uint); ok {
			fields["user_id"] = uid
		}
		entry := logger.WithFields(fields)
		switch status := c.Response().StatusCode(); {
		case status >= 500:
			entry.Error("request failed")
		case status >= 400:
			entry.Warn("request rejected")
		default:
			entry.Info("request")
		}
		return nil
	}
}
