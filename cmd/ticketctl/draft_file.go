package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/spec-kit/ticket-desk/internal/domain"
	"github.com/spec-kit/ticket-desk/internal/service"
)

// draftFile is the YAML form of a ticket accepted by the submit command.
type draftFile struct {
	Template    string            `yaml:"template"`
	Category    string            `yaml:"category"`
	Subcategory string            `yaml:"subcategory_id"`
	Priority    string            `yaml:"priority"`
	Title       string            `yaml:"title"`
	Description string            `yaml:"description"`
	ClientMood  string            `yaml:"client_mood"`
	Trainer     string            `yaml:"trainer"`
	Class       string            `yaml:"class"`
	Fields      map[string]string `yaml:"fields"`
	Studio      string            `yaml:"studio"`
	IncidentAt  *time.Time        `yaml:"incident_at"`
	Clients     []clientEntry     `yaml:"clients"`
	Attachments []string          `yaml:"attachments"`
}

type clientEntry struct {
	ID        string `yaml:"id"`
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
	Email     string `yaml:"email"`
	Phone     string `yaml:"phone"`
}

func readDraftFile(path string) (*draftFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read draft file: %w", err)
	}
	return parseDraftFile(raw)
}

func parseDraftFile(raw []byte) (*draftFile, error) {
	var f draftFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse draft file: %w", err)
	}
	if f.Template == "" && f.Category == "" {
		return nil, fmt.Errorf("draft file needs a template or a category")
	}
	return &f, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Submit drives a new draft through every wizard step and submits it.
func (f *draftFile) Submit(ctx context.Context, svc *service.ComposerService, owner string) (*service.SubmitResult, error) {
	d, err := svc.CreateDraft(ctx, owner)
	if err != nil {
		return nil, err
	}
	id := d.ID
	// No-op once the ticket was created.
	defer func() { _ = svc.DiscardDraft(ctx, owner, id) }()

	if f.Template != "" {
		_, err = svc.ApplyTemplate(ctx, owner, id, f.Template)
	} else {
		_, err = svc.StartBlank(ctx, owner, id)
	}
	if err != nil {
		return nil, err
	}

	// Category goes first so the subcategory can be checked against the
	// freshly fetched list.
	if f.Category != "" {
		if _, err := svc.UpdateDetails(ctx, owner, id, service.DetailsInput{Category: &f.Category}); err != nil {
			return nil, err
		}
	}
	details := service.DetailsInput{
		SubcategoryID: optional(f.Subcategory),
		Priority:      optional(f.Priority),
		Title:         optional(f.Title),
		Description:   optional(f.Description),
		ClientMood:    optional(f.ClientMood),
		TrainerName:   optional(f.Trainer),
		ClassName:     optional(f.Class),
		DynamicValues: f.Fields,
	}
	if _, err := svc.UpdateDetails(ctx, owner, id, details); err != nil {
		return nil, err
	}
	if _, err := svc.Next(ctx, owner, id); err != nil {
		return nil, err
	}

	if _, err := svc.UpdateContext(ctx, owner, id, service.ContextInput{
		StudioID:   optional(f.Studio),
		IncidentAt: f.IncidentAt,
	}); err != nil {
		return nil, err
	}
	for _, c := range f.Clients {
		client := domain.ClientRef{
			ID:        domain.FlexibleID(c.ID),
			FirstName: c.FirstName,
			LastName:  c.LastName,
			Email:     c.Email,
			Phone:     c.Phone,
		}
		if _, _, err := svc.ToggleClient(ctx, owner, id, client); err != nil {
			return nil, err
		}
	}
	if len(f.Attachments) > 0 {
		files := make([]domain.Attachment, 0, len(f.Attachments))
		for _, name := range f.Attachments {
			files = append(files, domain.Attachment{FileName: name})
		}
		if _, _, err := svc.AddAttachments(ctx, owner, id, files); err != nil {
			return nil, err
		}
	}
	if _, err := svc.Next(ctx, owner, id); err != nil {
		return nil, err
	}

	return svc.Submit(ctx, owner, id)
}
