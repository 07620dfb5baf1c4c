package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/destinpq/groow-sub007/internal/domain/shared"
	"github.com/destinpq/groow-sub007/internal/domain/support"
)

// TicketSortFields contains allowed sort fields for support tickets
var TicketSortFields = sortFields("number", "subject", "status", "priority", "category")

var ticketFilterColumns = map[string]string{
	"status":      "status",
	"priority":    "priority",
	"category":    "category",
	"customer_id": "customer_id",
	"assigned_to": "assigned_to_id",
}

// labelCount is a GROUP BY row
type labelCount struct {
	Label string
	Total int64
}

// GormTicketRepository implements support.TicketRepository using GORM
type GormTicketRepository struct {
	db *gorm.DB
}

// NewGormTicketRepository creates a new GormTicketRepository
func NewGormTicketRepository(db *gorm.DB) *GormTicketRepository {
	return &GormTicketRepository{db: db}
}

// FindByID finds a ticket by its ID
func (r *GormTicketRepository) FindByID(ctx context.Context, id uuid.UUID) (*support.Ticket, error) {
	return first[support.Ticket](r.db.WithContext(ctx), "id = ?", id)
}

// FindAll finds tickets matching the filter
func (r *GormTicketRepository) FindAll(ctx context.Context, filter shared.Filter) ([]support.Ticket, error) {
	var tickets []support.Ticket
	query := r.applyFilter(r.db.WithContext(ctx).Model(&support.Ticket{}), filter)
	if err := paginate(query, filter, TicketSortFields, "created_at").Find(&tickets).Error; err != nil {
		return nil, err
	}
	return tickets, nil
}

// Count counts tickets matching the filter
func (r *GormTicketRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	return count(r.applyFilter(r.db.WithContext(ctx).Model(&support.Ticket{}), filter))
}

// Save creates or updates a ticket
func (r *GormTicketRepository) Save(ctx context.Context, t *support.Ticket) error {
	return r.db.WithContext(ctx).Save(t).Error
}

// Stats computes ticket counts, optionally for one customer
func (r *GormTicketRepository) Stats(ctx context.Context, customerID *uuid.UUID) (*support.Stats, error) {
	base := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&support.Ticket{})
		if customerID != nil {
			q = q.Where("customer_id = ?", *customerID)
		}
		return q
	}

	stats := &support.Stats{
		ByStatus:   make(map[support.Status]int64),
		ByPriority: make(map[support.Priority]int64),
	}

	var byStatus []labelCount
	if err := base().Select("status AS label, COUNT(*) AS total").Group("status").Scan(&byStatus).Error; err != nil {
		return nil, err
	}
	for _, row := range byStatus {
		stats.ByStatus[support.Status(row.Label)] = row.Total
		stats.Total += row.Total
	}

	var byPriority []labelCount
	if err := base().Select("priority AS label, COUNT(*) AS total").Group("priority").Scan(&byPriority).Error; err != nil {
		return nil, err
	}
	for _, row := range byPriority {
		stats.ByPriority[support.Priority(row.Label)] = row.Total
	}

	if err := base().Where("escalated = ?", true).Count(&stats.Escalated).Error; err != nil {
		return nil, err
	}

	var rating struct {
		Rated   int64
		Average float64
	}
	if err := base().Select("COUNT(rating) AS rated, COALESCE(AVG(rating), 0) AS average").Scan(&rating).Error; err != nil {
		return nil, err
	}
	stats.RatedCount = rating.Rated
	stats.AverageRating = rating.Average

	return stats, nil
}

func (r *GormTicketRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = search(query, filter.Search, "subject", "number", "description")
	return whereFilters(query, filter.Filters, ticketFilterColumns)
}

// GormTicketMessageRepository implements support.MessageRepository using GORM
type GormTicketMessageRepository struct {
	db *gorm.DB
}

// NewGormTicketMessageRepository creates a new GormTicketMessageRepository
func NewGormTicketMessageRepository(db *gorm.DB) *GormTicketMessageRepository {
	return &GormTicketMessageRepository{db: db}
}

// FindByTicket returns a ticket's messages, oldest first
func (r *GormTicketMessageRepository) FindByTicket(ctx context.Context, ticketID uuid.UUID) ([]support.Message, error) {
	var messages []support.Message
	if err := r.db.WithContext(ctx).
		Where("ticket_id = ?", ticketID).
		Order("created_at ASC").
		Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

// Save stores a message
func (r *GormTicketMessageRepository) Save(ctx context.Context, m *support.Message) error {
	return r.db.WithContext(ctx).Save(m).Error
}

var (
	_ support.TicketRepository  = (*GormTicketRepository)(nil)
	_ support.MessageRepository = (*GormTicketMessageRepository)(nil)
)
