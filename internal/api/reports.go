package api

import "github.com/gofiber/fiber/v2"

func (h *Handler) ProjectStatusReport(c *fiber.Ctx) error {
	reports, err := h.reports.ProjectStatus(c.Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(reports)
}

func (h *Handler) MemberTaskReport(c *fiber.Ctx) error {
	reports, err := h.reports.MemberTasks(c.Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(reports)
}
