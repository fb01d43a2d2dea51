package server

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"plume/internal/models"
)

// errResponseWritten signals that a helper already wrote the response and the
// handler should return nil.
var errResponseWritten = errors.New("response written")

// parseID reads a positive integer route parameter, writing a 404 itself when
// the value is malformed. Unknown IDs and unparseable IDs look the same to
// clients.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	raw := c.Params(param)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		_ = models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError(humanizeParam(param), raw))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

func humanizeParam(param string) string {
	switch param {
	case "id":
		return "post"
	default:
		return param
	}
}

// parsePage reads the page query parameter. Malformed values resolve to 1;
// range clamping happens later in pagination.Resolve.
func parsePage(c *fiber.Ctx) int {
	page, err := strconv.Atoi(c.Query("page", "1"))
	if err != nil {
		return 1
	}
	return page
}

func profilePath(username string) string {
	return fmt.Sprintf("/profile/%s/", username)
}

func postPath(id uint) string {
	return fmt.Sprintf("/posts/%d/", id)
}
