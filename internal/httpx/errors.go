package httpx

import (
	"errors"

	"github.com/pawanbhattarai/PMS/internal/apperr"
	"github.com/pawanbhattarai/PMS/internal/logging"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// ErrorHandler turns handler errors into JSON bodies. Internal errors are
// logged and answered with a generic message.
func ErrorHandler(log logrus.FieldLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		}

		var ae *apperr.Error
		if errors.As(err, &ae) && ae.Kind != apperr.Internal {
			body := fiber.Map{"error": ae.Message}
			if len(ae.Fields) > 0 {
				body["fields"] = ae.Fields
			}
			return c.Status(apperr.HTTPStatus(ae.Kind)).JSON(body)
		}

		logging.LogError(log, "http", c.Method()+" "+c.Path(), "unhandled error", nil, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
}
