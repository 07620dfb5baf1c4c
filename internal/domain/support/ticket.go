package support

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/destinpq/groow-sub007/internal/domain/shared"
)

// Status is the ticket workflow state
type Status string

const (
	StatusOpen            Status = "open"
	StatusInProgress      Status = "in_progress"
	StatusWaitingCustomer Status = "waiting_customer"
	StatusResolved        Status = "resolved"
	StatusClosed          Status = "closed"
)

var transitions = map[Status][]Status{
	StatusOpen:            {StatusInProgress, StatusWaitingCustomer, StatusResolved, StatusClosed},
	StatusInProgress:      {StatusWaitingCustomer, StatusResolved, StatusClosed},
	StatusWaitingCustomer: {StatusInProgress, StatusResolved, StatusClosed},
	StatusResolved:        {StatusInProgress, StatusClosed},
}

// IsValid reports whether s is a known status
func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusWaitingCustomer, StatusResolved, StatusClosed:
		return true
	}
	return false
}

// CanTransitionTo reports whether the workflow allows s -> to
func (s Status) CanTransitionTo(to Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Priority orders tickets for handling
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// IsValid reports whether p is a known priority
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Category routes a ticket to the right team
type Category string

const (
	CategoryTechnical Category = "technical"
	CategoryBilling   Category = "billing"
	CategoryOrder     Category = "order"
	CategoryShipping  Category = "shipping"
	CategoryAccount   Category = "account"
	CategoryProduct   Category = "product"
	CategoryOther     Category = "other"
)

// IsValid reports whether c is a known category
func (c Category) IsValid() bool {
	switch c {
	case CategoryTechnical, CategoryBilling, CategoryOrder, CategoryShipping,
		CategoryAccount, CategoryProduct, CategoryOther:
		return true
	}
	return false
}

// Attachment references a file kept in object storage
type Attachment struct {
	ID          uuid.UUID `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	Key         string    `json:"key"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

// Ticket is a customer support request
type Ticket struct {
	shared.BaseAggregateRoot
	Number           string     `gorm:"type:varchar(40);not null;uniqueIndex"`
	CustomerID       uuid.UUID  `gorm:"type:uuid;not null;index"`
	Subject          string     `gorm:"type:varchar(200);not null"`
	Description      string     `gorm:"type:text;not null"`
	Category         Category   `gorm:"type:varchar(20);not null;index"`
	Priority         Priority   `gorm:"type:varchar(20);not null;index"`
	Status           Status     `gorm:"type:varchar(20);not null;index"`
	OrderID          *uuid.UUID `gorm:"type:uuid"`
	AssignedToID     *uuid.UUID `gorm:"type:uuid;index"`
	Resolution       string     `gorm:"type:text"`
	Escalated        bool       `gorm:"not null;default:false"`
	EscalationReason string     `gorm:"type:text"`
	Rating           *int
	Feedback         string `gorm:"type:text"`
	ResolvedAt       *time.Time
	ClosedAt         *time.Time
	Attachments      []Attachment `gorm:"serializer:json"`
}

// TableName returns the table name for GORM
func (Ticket) TableName() string {
	return "support_tickets"
}

// NewTicket opens a ticket on behalf of a customer
func NewTicket(customerID uuid.UUID, subject, description string, category Category, priority Priority) (*Ticket, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, shared.NewDomainError("INVALID_SUBJECT", "Subject cannot be empty")
	}
	if len(subject) > 200 {
		return nil, shared.NewDomainError("INVALID_SUBJECT", "Subject cannot exceed 200 characters")
	}
	if strings.TrimSpace(description) == "" {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Description cannot be empty")
	}
	if category == "" {
		category = CategoryOther
	}
	if !category.IsValid() {
		return nil, shared.NewDomainError("INVALID_CATEGORY", fmt.Sprintf("Unknown category %q", category))
	}
	if priority == "" {
		priority = PriorityMedium
	}
	if !priority.IsValid() {
		return nil, shared.NewDomainError("INVALID_PRIORITY", fmt.Sprintf("Unknown priority %q", priority))
	}

	t := &Ticket{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CustomerID:        customerID,
		Subject:           subject,
		Description:       description,
		Category:          category,
		Priority:          priority,
		Status:            StatusOpen,
		Attachments:       []Attachment{},
	}
	t.Number = TicketNumber(t.CreatedAt, t.ID)
	return t, nil
}

// TicketNumber formats a human-facing ticket number, e.g. TKT-20260301-1A2B3C
func TicketNumber(at time.Time, id uuid.UUID) string {
	suffix := strings.ToUpper(strings.ReplaceAll(id.String(), "-", ""))[:6]
	return fmt.Sprintf("TKT-%s-%s", at.UTC().Format("20060102"), suffix)
}

// IsClosed reports whether the ticket accepts no more changes
func (t *Ticket) IsClosed() bool {
	return t.Status == StatusClosed
}

// ChangeStatus moves the ticket through its workflow
func (t *Ticket) ChangeStatus(to Status, resolution string, now time.Time) error {
	if !to.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Unknown status %q", to))
	}
	if !t.Status.CanTransitionTo(to) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot change ticket from %s to %s", t.Status, to))
	}
	if resolution != "" {
		t.Resolution = resolution
	}
	switch to {
	case StatusResolved:
		t.ResolvedAt = &now
	case StatusClosed:
		t.ClosedAt = &now
	case StatusInProgress:
		t.ResolvedAt = nil
	}
	t.Status = to
	t.touch()
	return nil
}

// Assign hands the ticket to a staff member; an open ticket becomes in progress
func (t *Ticket) Assign(staffID uuid.UUID) error {
	if t.IsClosed() {
		return shared.NewDomainError("INVALID_STATE", "Cannot assign a closed ticket")
	}
	if staffID == uuid.Nil {
		return shared.NewDomainError("INVALID_INPUT", "Staff ID cannot be empty")
	}
	t.AssignedToID = &staffID
	if t.Status == StatusOpen {
		t.Status = StatusInProgress
	}
	t.touch()
	return nil
}

// Escalate raises the ticket to urgent priority
func (t *Ticket) Escalate(reason string) error {
	if t.IsClosed() {
		return shared.NewDomainError("INVALID_STATE", "Cannot escalate a closed ticket")
	}
	if strings.TrimSpace(reason) == "" {
		return shared.NewDomainError("INVALID_INPUT", "Escalation reason is required")
	}
	t.Escalated = true
	t.EscalationReason = reason
	t.Priority = PriorityUrgent
	t.touch()
	return nil
}

// Rate records the customer's satisfaction score, 1-5, once
func (t *Ticket) Rate(customerID uuid.UUID, rating int, feedback string) error {
	if customerID != t.CustomerID {
		return shared.NewDomainError("FORBIDDEN", "You can only rate your own tickets")
	}
	if t.Status != StatusResolved && t.Status != StatusClosed {
		return shared.NewDomainError("INVALID_STATE", "Only resolved or closed tickets can be rated")
	}
	if t.Rating != nil {
		return shared.NewDomainError("ALREADY_RATED", "Ticket has already been rated")
	}
	if rating < 1 || rating > 5 {
		return shared.NewDomainError("INVALID_RATING", "Rating must be between 1 and 5")
	}
	t.Rating = &rating
	t.Feedback = feedback
	t.touch()
	return nil
}

// AddAttachment appends an uploaded file reference
func (t *Ticket) AddAttachment(a Attachment) error {
	if t.IsClosed() {
		return shared.NewDomainError("INVALID_STATE", "Cannot attach files to a closed ticket")
	}
	if len(t.Attachments) >= MaxAttachments {
		return shared.NewDomainError("TOO_MANY_ATTACHMENTS", fmt.Sprintf("A ticket can hold at most %d attachments", MaxAttachments))
	}
	t.Attachments = append(t.Attachments, a)
	t.touch()
	return nil
}

// MaxAttachments caps files per ticket
const MaxAttachments = 10

// CanView reports whether a user may see the ticket
func (t *Ticket) CanView(userID uuid.UUID, staff bool) bool {
	return staff || userID == t.CustomerID
}

func (t *Ticket) touch() {
	t.Touch()
	t.IncrementVersion()
}
