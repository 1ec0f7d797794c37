package in

import (
	"github.com/gofiber/fiber/v2"

	httputils "github.com/elder-platform/elder/common/net/http"
)

// Healthz reports liveness. Unauthenticated (spec §6).
func Healthz(c *fiber.Ctx) error {
	return httputils.Ping(c)
}
