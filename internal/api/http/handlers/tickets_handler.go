package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-desk/internal/service"
)

// TicketsHandler serves ticket listings from the backend.
type TicketsHandler struct {
	service *service.ListingService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(listingService *service.ListingService) *TicketsHandler {
	return &TicketsHandler{service: listingService}
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	body, err := h.service.Tickets(c.UserContext(), string(c.Request().URI().QueryString()))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(body)
}

// DashboardStats GET /dashboard/stats.
func (h *TicketsHandler) DashboardStats(c *fiber.Ctx) error {
	body, err := h.service.Stats(c.UserContext(), string(c.Request().URI().QueryString()))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(body)
}
