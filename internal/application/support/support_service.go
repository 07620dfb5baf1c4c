// Package support implements the customer support ticket use cases.
package support

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/destinpq/groow-sub007/internal/domain/shared"
	"github.com/destinpq/groow-sub007/internal/domain/support"
)

// MaxAttachmentSize caps a single uploaded file
const MaxAttachmentSize = 10 << 20

// AttachmentStorage keeps ticket attachments in object storage
type AttachmentStorage interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	GenerateDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error)
	DeleteObject(ctx context.Context, key string) error
}

// ErrStorageDisabled is returned for attachment operations without storage
var ErrStorageDisabled = shared.NewDomainError("STORAGE_DISABLED", "Attachment storage is not configured")

// Service handles support ticket operations
type Service struct {
	tickets  support.TicketRepository
	messages support.MessageRepository
	storage  AttachmentStorage
	urlTTL   time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithStorage enables attachments
func WithStorage(storage AttachmentStorage, urlTTL time.Duration) Option {
	return func(s *Service) {
		s.storage = storage
		if urlTTL > 0 {
			s.urlTTL = urlTTL
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates a new support service
func NewService(tickets support.TicketRepository, messages support.MessageRepository, opts ...Option) *Service {
	s := &Service{
		tickets:  tickets,
		messages: messages,
		urlTTL:   15 * time.Minute,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns a page of tickets; customers only see their own
func (s *Service) List(ctx context.Context, actor Actor, filter ListFilter) ([]TicketResponse, int64, error) {
	f := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.Limit,
		OrderBy:  shared.SortColumn(filter.SortBy),
		OrderDir: filter.SortOrder,
		Search:   filter.Search,
		Filters:  map[string]any{},
	}
	if filter.Status != "" {
		f.Filters["status"] = filter.Status
	}
	if filter.Priority != "" {
		f.Filters["priority"] = filter.Priority
	}
	if filter.Category != "" {
		f.Filters["category"] = filter.Category
	}
	if !actor.Staff {
		f.Filters["customer_id"] = actor.UserID
	}
	f = f.Normalize()

	list, err := s.tickets.FindAll(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.tickets.Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	out := make([]TicketResponse, len(list))
	for i := range list {
		out[i] = ToTicketResponse(&list[i])
	}
	return out, total, nil
}

// Get returns a ticket the actor may view
func (s *Service) Get(ctx context.Context, actor Actor, id uuid.UUID) (*TicketResponse, error) {
	t, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	resp := ToTicketResponse(t)
	return &resp, nil
}

// Create opens a ticket for the actor
func (s *Service) Create(ctx context.Context, actor Actor, req CreateTicketRequest) (*TicketResponse, error) {
	t, err := support.NewTicket(actor.UserID, req.Subject, req.Description,
		support.Category(req.Category), support.Priority(req.Priority))
	if err != nil {
		return nil, err
	}
	t.OrderID = req.OrderID
	if err := s.tickets.Save(ctx, t); err != nil {
		return nil, err
	}
	s.logger.Info("Support ticket created",
		zap.String("ticket", t.Number),
		zap.String("customer_id", actor.UserID.String()),
		zap.String("priority", string(t.Priority)))
	resp := ToTicketResponse(t)
	return &resp, nil
}

// Messages lists the conversation; internal notes are hidden from customers
func (s *Service) Messages(ctx context.Context, actor Actor, id uuid.UUID) ([]MessageResponse, error) {
	if _, err := s.load(ctx, actor, id); err != nil {
		return nil, err
	}
	list, err := s.messages.FindByTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	visible := support.VisibleTo(list, actor.Staff)
	out := make([]MessageResponse, len(visible))
	for i := range visible {
		out[i] = ToMessageResponse(&visible[i])
	}
	return out, nil
}

// AddMessage posts a reply from the actor
func (s *Service) AddMessage(ctx context.Context, actor Actor, id uuid.UUID, req AddMessageRequest) (*MessageResponse, error) {
	t, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	role := support.AuthorCustomer
	if actor.Staff {
		role = support.AuthorStaff
	}
	before := t.Status
	msg, err := t.PostMessage(actor.UserID, role, req.Message, req.IsInternal)
	if err != nil {
		return nil, err
	}
	if err := s.messages.Save(ctx, msg); err != nil {
		return nil, err
	}
	if t.Status != before {
		if err := s.tickets.Save(ctx, t); err != nil {
			return nil, err
		}
	}
	resp := ToMessageResponse(msg)
	return &resp, nil
}

// UpdateStatus moves a ticket through its workflow and records a note
func (s *Service) UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, req UpdateStatusRequest) (*TicketResponse, error) {
	if !actor.Staff {
		return nil, shared.ErrForbidden
	}
	t, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	from := t.Status
	if err := t.ChangeStatus(support.Status(req.Status), req.Resolution, s.now()); err != nil {
		return nil, err
	}
	if err := s.tickets.Save(ctx, t); err != nil {
		return nil, err
	}
	note := support.StatusNote(t.ID, from, t.Status, req.Resolution)
	if err := s.messages.Save(ctx, note); err != nil {
		s.logger.Warn("Failed to record status note", zap.String("ticket", t.Number), zap.Error(err))
	}
	resp := ToTicketResponse(t)
	return &resp, nil
}

// Assign hands a ticket to a staff member
func (s *Service) Assign(ctx context.Context, actor Actor, id uuid.UUID, req AssignRequest) (*TicketResponse, error) {
	return s.staffMutate(ctx, actor, id, func(t *support.Ticket) error { return t.Assign(req.AssigneeID) })
}

// Escalate raises a ticket to urgent
func (s *Service) Escalate(ctx context.Context, actor Actor, id uuid.UUID, req EscalateRequest) (*TicketResponse, error) {
	return s.staffMutate(ctx, actor, id, func(t *support.Ticket) error { return t.Escalate(req.Reason) })
}

// Rate records the customer's satisfaction score
func (s *Service) Rate(ctx context.Context, actor Actor, id uuid.UUID, req RateRequest) (*TicketResponse, error) {
	t, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := t.Rate(actor.UserID, req.Rating, req.Feedback); err != nil {
		return nil, err
	}
	if err := s.tickets.Save(ctx, t); err != nil {
		return nil, err
	}
	resp := ToTicketResponse(t)
	return &resp, nil
}

// Stats returns counts for staff, or for the customer's own tickets
func (s *Service) Stats(ctx context.Context, actor Actor) (*support.Stats, error) {
	if actor.Staff {
		return s.tickets.Stats(ctx, nil)
	}
	id := actor.UserID
	return s.tickets.Stats(ctx, &id)
}

// UploadAttachment stores a file and links it to the ticket
func (s *Service) UploadAttachment(ctx context.Context, actor Actor, id uuid.UUID, filename, contentType string, size int64, body io.Reader) (*support.Attachment, error) {
	if s.storage == nil {
		return nil, ErrStorageDisabled
	}
	if size <= 0 || size > MaxAttachmentSize {
		return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Attachment must be between 1 byte and %d bytes", MaxAttachmentSize))
	}
	t, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if t.IsClosed() {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot attach files to a closed ticket")
	}
	name := sanitizeFilename(filename)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	a := support.Attachment{
		ID:          uuid.New(),
		Filename:    name,
		ContentType: contentType,
		Size:        size,
		UploadedAt:  s.now().UTC(),
	}
	a.Key = fmt.Sprintf("tickets/%s/%s-%s", t.ID, a.ID, name)

	if err := s.storage.Upload(ctx, a.Key, body, size, contentType); err != nil {
		return nil, fmt.Errorf("upload attachment: %w", err)
	}
	if err := t.AddAttachment(a); err != nil {
		_ = s.storage.DeleteObject(ctx, a.Key)
		return nil, err
	}
	if err := s.tickets.Save(ctx, t); err != nil {
		_ = s.storage.DeleteObject(ctx, a.Key)
		return nil, err
	}
	s.logger.Info("Attachment uploaded", zap.String("ticket", t.Number), zap.String("key", a.Key), zap.Int64("size", size))
	return &a, nil
}

// AttachmentURL returns a time-limited download link
func (s *Service) AttachmentURL(ctx context.Context, actor Actor, id, attachmentID uuid.UUID) (*AttachmentURL, error) {
	if s.storage == nil {
		return nil, ErrStorageDisabled
	}
	t, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	for _, a := range t.Attachments {
		if a.ID != attachmentID {
			continue
		}
		url, expires, err := s.storage.GenerateDownloadURL(ctx, a.Key, s.urlTTL)
		if err != nil {
			return nil, fmt.Errorf("presign attachment: %w", err)
		}
		return &AttachmentURL{AttachmentID: a.ID, Filename: a.Filename, URL: url, ExpiresAt: expires}, nil
	}
	return nil, shared.ErrNotFound
}

func (s *Service) load(ctx context.Context, actor Actor, id uuid.UUID) (*support.Ticket, error) {
	t, err := s.tickets.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.CanView(actor.UserID, actor.Staff) {
		// customers cannot learn that another customer's ticket exists
		return nil, shared.ErrNotFound
	}
	return t, nil
}

func (s *Service) staffMutate(ctx context.Context, actor Actor, id uuid.UUID, fn func(*support.Ticket) error) (*TicketResponse, error) {
	if !actor.Staff {
		return nil, shared.ErrForbidden
	}
	t, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := fn(t); err != nil {
		return nil, err
	}
	if err := s.tickets.Save(ctx, t); err != nil {
		return nil, err
	}
	resp := ToTicketResponse(t)
	return &resp, nil
}

func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		case r == ' ':
			return '_'
		}
		return -1
	}, name)
	if name == "" || name == "." || name == ".." {
		return "attachment"
	}
	return name
}
