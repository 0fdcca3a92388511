package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-desk/internal/auth"
	"github.com/spec-kit/ticket-desk/internal/service"
	apperrors "github.com/spec-kit/ticket-desk/pkg/util/errorutil"
)

// AuthHandler manages session endpoints.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{service: authService}
}

// Me GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	session, ok := auth.SessionFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("session required")
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"subject":    session.Subject,
		"email":      session.Email,
		"name":       session.Name,
		"expires_at": session.ExpiresAt,
	}})
}

// SignOut POST /auth/signout.
func (h *AuthHandler) SignOut(c *fiber.Ctx) error {
	session, ok := auth.SessionFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("session required")
	}
	res, err := h.service.SignOut(c.UserContext(), session, auth.TokenFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": res})
}
