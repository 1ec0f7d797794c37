package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/elder-platform/elder/common"
)

// Body is the standard JSON error envelope named in spec §6:
// {error, code, details?}.
type Body struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

func writeError(c *fiber.Ctx, status int, code, message string, details any) error {
	return c.Status(status).JSON(Body{Error: message, Code: code, Details: details})
}

// WithError translates the typed error taxonomy (common/errors.go) into the
// HTTP status codes and detail shapes named in spec §6.
func WithError(c *fiber.Ctx, err error) error {
	switch e := err.(type) {
	case common.ValidationError:
		return writeError(c, fiber.StatusBadRequest, e.Code, e.Message, nil)
	case common.UnauthenticatedError:
		return writeError(c, fiber.StatusUnauthorized, e.Code, e.Message, nil)
	case common.ForbiddenError:
		return writeError(c, fiber.StatusForbidden, "", e.Message, map[string]string{"reason": e.Reason})
	case common.EntityNotFoundError:
		return writeError(c, fiber.StatusNotFound, "", e.Error(), map[string]string{"kind": string(e.Kind)})
	case common.EntityConflictError:
		details := map[string]any{"reason": string(e.Reason)}
		if len(e.Path) > 0 {
			details["path"] = e.Path
		}

		return writeError(c, fiber.StatusConflict, "", e.Error(), details)
	case common.TransientError:
		return writeError(c, fiber.StatusServiceUnavailable, string(e.Kind), e.Message, nil)
	case common.CancelledError:
		return writeError(c, fiber.StatusGatewayTimeout, "", e.Error(), nil)
	case common.RateLimitedError:
		return writeError(c, fiber.StatusTooManyRequests, "", e.Error(), nil)
	case common.InternalServerError:
		return writeError(c, fiber.StatusInternalServerError, "", "internal server error", nil)
	default:
		return writeError(c, fiber.StatusInternalServerError, "", "internal server error", nil)
	}
}
