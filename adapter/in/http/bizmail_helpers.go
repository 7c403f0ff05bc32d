package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"bizmail_server/pkg/apperr"
)

// parseID reads a positive int64 path parameter.
func parseID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.InvalidInput(name, "must be a positive integer")
	}
	return id, nil
}

// parseBody decodes the JSON body into dst.
func parseBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return apperr.BadRequest("invalid request body").WithError(err)
	}
	return nil
}
