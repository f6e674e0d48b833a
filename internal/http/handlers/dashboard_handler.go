package handlers

import (
	"github.com/gofiber/fiber/v2"

	"pedalhouse/internal/repos"
)

type DashboardHandler struct {
	Runs *repos.RunRepo
}

func (h *DashboardHandler) Home(c *fiber.Ctx) error {
	runs, err := h.Runs.Recent(20)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{
			"Message": "Could not load sync history.",
		})
	}
	return c.Render("dashboard", fiber.Map{"Runs": runs})
}
