package support

import (
	"context"

	"github.com/google/uuid"

	"github.com/destinpq/groow-sub007/internal/domain/shared"
)

// Stats aggregates ticket counts
type Stats struct {
	Total         int64              `json:"total"`
	ByStatus      map[Status]int64   `json:"byStatus"`
	ByPriority    map[Priority]int64 `json:"byPriority"`
	Escalated     int64              `json:"escalated"`
	RatedCount    int64              `json:"ratedCount"`
	AverageRating float64            `json:"averageRating"`
}

// TicketRepository defines the interface for ticket persistence
type TicketRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Ticket, error)

	// FindAll lists tickets; Filters may carry "status", "priority",
	// "category" and "customer_id"
	FindAll(ctx context.Context, filter shared.Filter) ([]Ticket, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	Save(ctx context.Context, t *Ticket) error

	// Stats computes counts; a non-nil customerID scopes them to one customer
	Stats(ctx context.Context, customerID *uuid.UUID) (*Stats, error)
}

// MessageRepository defines the interface for ticket message persistence
type MessageRepository interface {
	FindByTicket(ctx context.Context, ticketID uuid.UUID) ([]Message, error)
	Save(ctx context.Context, m *Message) error
}
