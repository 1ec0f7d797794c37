package in

import (
	"github.com/gofiber/fiber/v2"

	httputils "github.com/elder-platform/elder/common/net/http"
)

// LookupVillageID resolves a Village-ID to its kind and internal id
// without redirecting, for clients that want the JSON form. Unauthenticated
// (spec §6).
//
//	@Summary	Look Up a Village-ID
//	@Tags		VillageID
//	@Router		/v1/lookup/{village_id} [get]
func (h *Handler) LookupVillageID(c *fiber.Ctx) error {
	res, err := h.Query.ResolveVillageID(c.UserContext(), c.Params("village_id"))
	if err != nil {
		return httputils.WithError(c, err)
	}

	return c.JSON(res)
}

// RedirectVillageID resolves a Village-ID and issues a redirect to its
// canonical resource URL, the human-facing counterpart to LookupVillageID.
// Unauthenticated (spec §6).
//
//	@Summary	Redirect a Village-ID
//	@Tags		VillageID
//	@Router		/r/{village_id} [get]
func (h *Handler) RedirectVillageID(c *fiber.Ctx) error {
	res, err := h.Query.ResolveVillageID(c.UserContext(), c.Params("village_id"))
	if err != nil {
		return httputils.WithError(c, err)
	}

	return c.Redirect(res.RedirectURL, fiber.StatusFound)
}
