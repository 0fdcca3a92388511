package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-desk/internal/api/dto"
	"github.com/spec-kit/ticket-desk/internal/service"
)

// CatalogHandler serves templates, categories and studios.
type CatalogHandler struct {
	service *service.CatalogService
}

// NewCatalogHandler constructs handler.
func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: catalogService}
}

// Templates GET /templates.
func (h *CatalogHandler) Templates(c *fiber.Ctx) error {
	templates, err := h.service.Templates(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.TemplateResponse, 0, len(templates))
	for _, t := range templates {
		items = append(items, dto.NewTemplateResponse(t))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Categories GET /categories.
func (h *CatalogHandler) Categories(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.service.Categories()})
}

// Studios GET /studios.
func (h *CatalogHandler) Studios(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.service.Studios(c.UserContext())})
}
