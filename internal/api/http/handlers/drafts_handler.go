package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-desk/internal/api/dto"
	"github.com/spec-kit/ticket-desk/internal/auth"
	"github.com/spec-kit/ticket-desk/internal/composer"
	"github.com/spec-kit/ticket-desk/internal/domain"
	"github.com/spec-kit/ticket-desk/internal/service"
	apperrors "github.com/spec-kit/ticket-desk/pkg/util/errorutil"
)

// DraftsHandler exposes the ticket creation wizard.
type DraftsHandler struct {
	service *service.ComposerService
}

// NewDraftsHandler constructs handler.
func NewDraftsHandler(composerService *service.ComposerService) *DraftsHandler {
	return &DraftsHandler{service: composerService}
}

func owner(c *fiber.Ctx) (string, error) {
	session, ok := auth.SessionFromContext(c)
	if !ok || session.Subject == "" {
		return "", apperrors.NewUnauthorized("session required")
	}
	return session.Subject, nil
}

func draftJSON(c *fiber.Ctx, d *composer.Draft, err error) error {
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewDraftResponse(d)})
}

// Create POST /drafts.
func (h *DraftsHandler) Create(c *fiber.Ctx) error {
	sub, err := owner(c)
	if err != nil {
		return err
	}
	d, err := h.service.CreateDraft(c.UserContext(), sub)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewDraftResponse(d)})
}

// Get GET /drafts/:id.
func (h *DraftsHandler) Get(c *fiber.Ctx) error {
	sub, err := owner(c)
	if err != nil {
		return err
	}
	d, err := h.service.GetDraft(c.UserContext(), sub, c.Params("id"))
	return draftJSON(c, d, err)
}

// Discard DELETE /drafts/:id.
func (h *DraftsHandler) Discard(c *fiber.Ctx) error {
	sub, err := owner(c)
	if err != nil {
		return err
	}
	if err := h.service.DiscardDraft(c.UserContext(), sub, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ApplyTemplate POST /drafts/:id/template.
func (h *DraftsHandler) ApplyTemplate(c *fiber.Ctx) error {
	sub, err := owner(c)
	if err != nil {
		return err
	}
	var req dto.ApplyTemplateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.TemplateID) == "" {
		return apperrors.NewValidationError("template_id required", nil)
	}
	d, err := h.service.ApplyTemplate(c.UserContext(), sub, c.Params("id"), req.TemplateID)
	return draftJSON(c, d, err)
}

// StartBlank POST /drafts/:id/blank.
func (h *DraftsHandler) StartBlank(c *fiber.Ctx) error {
	sub, err := owner(c)
	if err != nil {
		return err
	}
	d, err := h.service.StartBlank(c.UserContext(), sub, c.Params("id"))
	return draftJSON(c, d, err)
}

// Next POST /drafts/:id/next.
func (h *DraftsHandler) Next(c *fiber.Ctx) error {
	sub, err := owner(c)
	if err != nil {
		return err
	}
	d, err := h.service.Next(c.UserContext(), sub, c.Params("id"))
	return draftJSON(c, d, err)
}

// Back POST /drafts/:id/back.
func (h *DraftsHandler) Back(c *fiber.Ctx) error {
	sub, err := owner(c)
	if err != nil {
		return err
	}
	d, err := h.service.Back(c.UserContext(), sub, c.Params("id"))
	return draftJSON(c, d, err)
}

// UpdateDetails PATCH /drafts/:id/details.
func (h *DraftsHandler) UpdateDetails(c *fiber.Ctx) error {
	sub, err := owner(c)
	if err != nil {
		return err
	}
	var req dto.UpdateDetailsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	d, err := h.service.UpdateDetails(c.UserContext(), sub, c.Params("id"), service.DetailsInput{
		Category:      req.Category,
		SubcategoryID: req.SubcategoryID,
		Priority:      req.Priority,
		Title:         req.Title,
		Description:   req.Description,
		ClientMood:    req.ClientMood,
		TrainerName:   req.TrainerName,
		ClassName:     req.ClassName,
		ClassDateTime: req.ClassDateTime,
		DynamicValues: req.DynamicValues,
	})
	return draftJSON(c, d, err)
}

// UpdateContext PATCH /drafts/:id/context.
func (h *DraftsHandler) UpdateContext(c *fiber.Ctx) error {
	sub, err := owner(c)
	if err != nil {
		return err
	}
	var req dto.UpdateContextRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	d, err := h.service.UpdateContext(c.UserContext(), sub, c.Params("id"), service.ContextInput{
		StudioID:         req.StudioID,
		IncidentAt:       req.IncidentAt,
		CustomerName:     req.CustomerName,
		CustomerEmail:    req.CustomerEmail,
		CustomerPhone:    req.CustomerPhone,
		MembershipID:     req.MembershipID,
		MembershipStatus: req.MembershipStatus,
	})
	return draftJSON(c, d, err)
}

// ToggleClient POST /drafts/:id/clients/toggle.
func (h *DraftsHandler) ToggleClient(c *fiber.Ctx) error {
	sub, err := owner(c)
	if err != nil {
		return err
	}
	var req dto.ToggleClientRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	d, added, err := h.service.ToggleClient(c.UserContext(), sub, c.Params("id"), domain.ClientRef{
		ID:               req.ID,
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		Email:            req.Email,
		Phone:            req.Phone,
		MembershipID:     req.MembershipID,
		MembershipStatus: req.MembershipStatus,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ToggleResponse{Added: added, Draft: dto.NewDraftResponse(d)}})
}

// ToggleSession POST /drafts/:id/sessions/toggle.
func (h *DraftsHandler) ToggleSession(c *fiber.Ctx) error {
	sub, err := owner(c)
	if err != nil {
		return err
	}
	var req dto.ToggleSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	d, added, err := h.service.ToggleSession(c.UserContext(), sub, c.Params("id"), domain.SessionRef{
		ID:       req.ID,
		Name:     req.Name,
		Trainer:  req.Trainer,
		StartsAt: req.StartsAt,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ToggleResponse{Added: added, Draft: dto.NewDraftResponse(d)}})
}

// AddAttachments POST /drafts/:id/attachments. Accepts multipart uploads
// (field "files") or a JSON list of file metadata.
func (h *DraftsHandler) AddAttachments(c *fiber.Ctx) error {
	sub, err := owner(c)
	if err != nil {
		return err
	}
	var files []domain.Attachment
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			return apperrors.NewValidationError("invalid multipart form", nil)
		}
		for _, fh := range form.File["files"] {
			files = append(files, domain.Attachment{
				FileName:  fh.Filename,
				MimeType:  fh.Header.Get(fiber.HeaderContentType),
				SizeBytes: fh.Size,
			})
		}
	} else {
		var req dto.AddAttachmentsRequest
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
		for _, f := range req.Files {
			files = append(files, domain.Attachment{
				FileName:   f.FileName,
				MimeType:   f.MimeType,
				SizeBytes:  f.SizeBytes,
				StorageKey: f.StorageKey,
			})
		}
	}
	if len(files) == 0 {
		return apperrors.NewValidationError("at least one file required", nil)
	}
	d, dropped, err := h.service.AddAttachments(c.UserContext(), sub, c.Params("id"), files)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AttachmentsResponse{Dropped: dropped, Draft: dto.NewDraftResponse(d)}})
}

// RemoveAttachment DELETE /drafts/:id/attachments/:index.
func (h *DraftsHandler) RemoveAttachment(c *fiber.Ctx) error {
	sub, err := owner(c)
	if err != nil {
		return err
	}
	index, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return apperrors.NewValidationError("invalid attachment index", map[string]any{"index": c.Params("index")})
	}
	d, err := h.service.RemoveAttachment(c.UserContext(), sub, c.Params("id"), index)
	return draftJSON(c, d, err)
}

// Submit POST /drafts/:id/submit.
func (h *DraftsHandler) Submit(c *fiber.Ctx) error {
	sub, err := owner(c)
	if err != nil {
		return err
	}
	res, err := h.service.Submit(c.UserContext(), sub, c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.SubmitResponse{
		TicketID:     res.Ticket.ID.String(),
		TicketNumber: res.TicketNumber,
		Status:       res.Ticket.Status,
		Sentiment:    res.Sentiment.Sentiment,
		Tags:         res.Sentiment.Tags,
		Summary:      res.Sentiment.Summary,
		Notice:       res.Notice,
		Redirect:     res.Redirect,
	}})
}
