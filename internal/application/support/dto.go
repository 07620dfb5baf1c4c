package support

import (
	"time"

	"github.com/google/uuid"

	"github.com/destinpq/groow-sub007/internal/domain/support"
)

// Actor is the authenticated caller of a support operation
type Actor struct {
	UserID uuid.UUID
	Staff  bool
}

// CreateTicketRequest opens a ticket
type CreateTicketRequest struct {
	Subject     string     `json:"subject" binding:"required,min=1,max=200"`
	Description string     `json:"description" binding:"required,min=1,max=10000"`
	Category    string     `json:"category" binding:"omitempty,oneof=technical billing order shipping account product other"`
	Priority    string     `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	OrderID     *uuid.UUID `json:"orderId"`
}

// AddMessageRequest posts a reply
type AddMessageRequest struct {
	Message    string `json:"message" binding:"required,min=1,max=10000"`
	IsInternal bool   `json:"isInternal"`
}

// UpdateStatusRequest is the body of PATCH :id/status
type UpdateStatusRequest struct {
	Status     string `json:"status" binding:"required,oneof=open in_progress waiting_customer resolved closed"`
	Resolution string `json:"resolution" binding:"max=5000"`
}

// RateRequest is the body of POST :id/rating
type RateRequest struct {
	Rating   int    `json:"rating" binding:"required,min=1,max=5"`
	Feedback string `json:"feedback" binding:"max=2000"`
}

// AssignRequest hands a ticket to a staff member
type AssignRequest struct {
	AssigneeID uuid.UUID `json:"assigneeId" binding:"required"`
}

// EscalateRequest raises a ticket to urgent
type EscalateRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=2000"`
}

// ListFilter holds list query parameters
type ListFilter struct {
	Status    string `form:"status" binding:"omitempty,oneof=open in_progress waiting_customer resolved closed"`
	Priority  string `form:"priority" binding:"omitempty,oneof=low medium high urgent"`
	Category  string `form:"category"`
	Search    string `form:"search"`
	Page      int    `form:"page" binding:"omitempty,min=1"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=100"`
	SortBy    string `form:"sortBy"`
	SortOrder string `form:"sortOrder" binding:"omitempty,oneof=asc desc"`
}

// TicketResponse is the API view of a ticket
type TicketResponse struct {
	ID               uuid.UUID            `json:"id"`
	Number           string               `json:"ticketNumber"`
	CustomerID       uuid.UUID            `json:"customerId"`
	Subject          string               `json:"subject"`
	Description      string               `json:"description"`
	Category         string               `json:"category"`
	Priority         string               `json:"priority"`
	Status           string               `json:"status"`
	OrderID          *uuid.UUID           `json:"orderId,omitempty"`
	AssignedToID     *uuid.UUID           `json:"assignedToId,omitempty"`
	Resolution       string               `json:"resolution,omitempty"`
	Escalated        bool                 `json:"escalated"`
	EscalationReason string               `json:"escalationReason,omitempty"`
	Rating           *int                 `json:"rating,omitempty"`
	Feedback         string               `json:"feedback,omitempty"`
	Attachments      []support.Attachment `json:"attachments"`
	ResolvedAt       *time.Time           `json:"resolvedAt,omitempty"`
	ClosedAt         *time.Time           `json:"closedAt,omitempty"`
	CreatedAt        time.Time            `json:"createdAt"`
	UpdatedAt        time.Time            `json:"updatedAt"`
}

// MessageResponse is the API view of a ticket message
type MessageResponse struct {
	ID         uuid.UUID `json:"id"`
	TicketID   uuid.UUID `json:"ticketId"`
	AuthorID   uuid.UUID `json:"authorId"`
	AuthorRole string    `json:"authorRole"`
	Message    string    `json:"message"`
	IsInternal bool      `json:"isInternal"`
	CreatedAt  time.Time `json:"createdAt"`
}

// AttachmentURL is a time-limited download link
type AttachmentURL struct {
	AttachmentID uuid.UUID `json:"attachmentId"`
	Filename     string    `json:"filename"`
	URL          string    `json:"url"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// ToTicketResponse converts a domain ticket
func ToTicketResponse(t *support.Ticket) TicketResponse {
	attachments := t.Attachments
	if attachments == nil {
		attachments = []support.Attachment{}
	}
	return TicketResponse{
		ID:               t.ID,
		Number:           t.Number,
		CustomerID:       t.CustomerID,
		Subject:          t.Subject,
		Description:      t.Description,
		Category:         string(t.Category),
		Priority:         string(t.Priority),
		Status:           string(t.Status),
		OrderID:          t.OrderID,
		AssignedToID:     t.AssignedToID,
		Resolution:       t.Resolution,
		Escalated:        t.Escalated,
		EscalationReason: t.EscalationReason,
		Rating:           t.Rating,
		Feedback:         t.Feedback,
		Attachments:      attachments,
		ResolvedAt:       t.ResolvedAt,
		ClosedAt:         t.ClosedAt,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

// ToMessageResponse converts a domain message
func ToMessageResponse(m *support.Message) MessageResponse {
	return MessageResponse{
		ID:         m.ID,
		TicketID:   m.TicketID,
		AuthorID:   m.AuthorID,
		AuthorRole: string(m.AuthorRole),
		Message:    m.Body,
		IsInternal: m.IsInternal,
		CreatedAt:  m.CreatedAt,
	}
}
