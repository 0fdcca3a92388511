package domain

import (
	"encoding/json"
	"time"
)

// TicketPriority enumerates ticket urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

// Valid reports whether p is one of the known priorities.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

// Keys under which trainer and class context travel inside the dynamic field map.
const (
	DynamicKeyTrainerName   = "trainerName"
	DynamicKeyClassName     = "className"
	DynamicKeyClassDateTime = "classDateTime"
)

// SubmissionPayload is the flattened body sent to POST /api/tickets.
type SubmissionPayload struct {
	TicketNumber         string            `json:"ticketNumber"`
	StudioID             string            `json:"studioId"`
	Category             string            `json:"category"`
	CategoryID           string            `json:"categoryId,omitempty"`
	SubcategoryID        string            `json:"subcategoryId,omitempty"`
	Priority             TicketPriority    `json:"priority"`
	Title                string            `json:"title"`
	Description          string            `json:"description"`
	CustomerName         string            `json:"customerName,omitempty"`
	CustomerEmail        string            `json:"customerEmail,omitempty"`
	CustomerPhone        string            `json:"customerPhone,omitempty"`
	CustomerMembershipID string            `json:"customerMembershipId,omitempty"`
	CustomerStatus       string            `json:"customerStatus,omitempty"`
	ClientMood           string            `json:"clientMood,omitempty"`
	IncidentDate         time.Time         `json:"incidentDate"`
	DynamicFieldData     map[string]string `json:"dynamicFieldData"`
	Sentiment            string            `json:"sentiment"`
	Tags                 []string          `json:"tags"`
	Summary              string            `json:"summary"`
	ClientIDs            []string          `json:"clientIds"`
	SessionIDs           []string          `json:"sessionIds"`
	Attachments          []Attachment      `json:"attachments,omitempty"`
}

// CreatedTicket is the backend's record for a newly created ticket.
type CreatedTicket struct {
	ID           FlexibleID      `json:"id"`
	TicketNumber string          `json:"ticketNumber,omitempty"`
	Status       string          `json:"status,omitempty"`
	Raw          json.RawMessage `json:"-"`
}
