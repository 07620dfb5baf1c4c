package support

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/destinpq/groow-sub007/internal/domain/shared"
)

// AuthorRole identifies who wrote a message
type AuthorRole string

const (
	AuthorCustomer AuthorRole = "customer"
	AuthorStaff    AuthorRole = "staff"
	AuthorSystem   AuthorRole = "system"
)

// Message is one entry in a ticket conversation
type Message struct {
	shared.BaseEntity
	TicketID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	AuthorID   uuid.UUID  `gorm:"type:uuid"`
	AuthorRole AuthorRole `gorm:"type:varchar(20);not null"`
	Body       string     `gorm:"type:text;not null"`
	IsInternal bool       `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (Message) TableName() string {
	return "support_ticket_messages"
}

// PostMessage adds a reply to the ticket. A customer reply to a ticket that
// waits on them puts it back in progress.
func (t *Ticket) PostMessage(authorID uuid.UUID, role AuthorRole, body string, internal bool) (*Message, error) {
	if t.IsClosed() {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot reply to a closed ticket")
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Message cannot be empty")
	}
	if role == AuthorCustomer {
		if authorID != t.CustomerID {
			return nil, shared.NewDomainError("FORBIDDEN", "You can only reply to your own tickets")
		}
		internal = false
		if t.Status == StatusWaitingCustomer {
			t.Status = StatusInProgress
			t.touch()
		}
	}
	return &Message{
		BaseEntity: shared.NewBaseEntity(),
		TicketID:   t.ID,
		AuthorID:   authorID,
		AuthorRole: role,
		Body:       body,
		IsInternal: internal,
	}, nil
}

// StatusNote builds the system message recorded on a status change
func StatusNote(ticketID uuid.UUID, from, to Status, resolution string) *Message {
	body := fmt.Sprintf("Ticket status changed from %s to %s", from, to)
	if resolution != "" {
		body += ". Resolution: " + resolution
	}
	return &Message{
		BaseEntity: shared.NewBaseEntity(),
		TicketID:   ticketID,
		AuthorRole: AuthorSystem,
		Body:       body,
	}
}

// VisibleTo drops internal notes for customers
func VisibleTo(messages []Message, staff bool) []Message {
	if staff {
		return messages
	}
	out := make([]Message, 0, len(messages))
	for _, m := range messages {
		if !m.IsInternal {
			out = append(out, m)
		}
	}
	return out
}
