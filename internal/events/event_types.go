package events

import (
	"time"

	"github.com/spec-kit/ticket-desk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventDraftCreated       EventType = "draft_created"
	EventTemplateApplied    EventType = "template_applied"
	EventSentimentFallback  EventType = "sentiment_fallback"
	EventTicketSubmitted    EventType = "ticket_submitted"
	EventTicketSubmitFailed EventType = "ticket_submit_failed"
)

// Event represents a domain event emitted by the composer.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	DraftID   string      `json:"draft_id"`
	Actor     string      `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// DraftCreatedPayload payload.
type DraftCreatedPayload struct {
	TicketNumber string `json:"ticket_number"`
}

// TemplateAppliedPayload payload.
type TemplateAppliedPayload struct {
	TemplateID    string `json:"template_id"`
	Category      string `json:"category"`
	SubcategoryID string `json:"subcategory_id,omitempty"`
}

// SentimentFallbackPayload payload.
type SentimentFallbackPayload struct {
	Reason string `json:"reason"`
}

// TicketSubmittedPayload payload.
type TicketSubmittedPayload struct {
	TicketID     string                `json:"ticket_id"`
	TicketNumber string                `json:"ticket_number"`
	Priority     domain.TicketPriority `json:"priority"`
	Title        string                `json:"title"`
	Sentiment    string                `json:"sentiment"`
}

// TicketSubmitFailedPayload payload.
type TicketSubmitFailedPayload struct {
	TicketNumber string `json:"ticket_number"`
	Message      string `json:"message"`
}
