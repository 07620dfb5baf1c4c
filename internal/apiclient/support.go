package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/google/uuid"

	supportapp "github.com/destinpq/groow-sub007/internal/application/support"
	"github.com/destinpq/groow-sub007/internal/domain/support"
	"github.com/destinpq/groow-sub007/internal/envelope"
)

const ticketsPath = "/support/tickets"

// SupportService covers /support/tickets
type SupportService struct {
	c *Client
}

func ticketPath(id uuid.UUID, action string) string {
	p := ticketsPath + "/" + id.String()
	if action != "" {
		p += "/" + action
	}
	return p
}

// List pages through tickets. Filters: status, priority, category.
func (s *SupportService) List(ctx context.Context, params ListParams) (envelope.Page[supportapp.TicketResponse], error) {
	return getPage[supportapp.TicketResponse](ctx, s.c, ticketsPath, params)
}

func (s *SupportService) Get(ctx context.Context, id uuid.UUID) (*supportapp.TicketResponse, error) {
	return one[supportapp.TicketResponse](ctx, s.c, http.MethodGet, ticketPath(id, ""), nil)
}

func (s *SupportService) Create(ctx context.Context, req supportapp.CreateTicketRequest) (*supportapp.TicketResponse, error) {
	return one[supportapp.TicketResponse](ctx, s.c, http.MethodPost, ticketsPath, req)
}

func (s *SupportService) Messages(ctx context.Context, id uuid.UUID) ([]supportapp.MessageResponse, error) {
	return getItems[supportapp.MessageResponse](ctx, s.c, ticketPath(id, "messages"), nil)
}

func (s *SupportService) AddMessage(ctx context.Context, id uuid.UUID, req supportapp.AddMessageRequest) (*supportapp.MessageResponse, error) {
	return one[supportapp.MessageResponse](ctx, s.c, http.MethodPost, ticketPath(id, "messages"), req)
}

func (s *SupportService) UpdateStatus(ctx context.Context, id uuid.UUID, req supportapp.UpdateStatusRequest) (*supportapp.TicketResponse, error) {
	return one[supportapp.TicketResponse](ctx, s.c, http.MethodPatch, ticketPath(id, "status"), req)
}

func (s *SupportService) Assign(ctx context.Context, id, assigneeID uuid.UUID) (*supportapp.TicketResponse, error) {
	return one[supportapp.TicketResponse](ctx, s.c, http.MethodPost, ticketPath(id, "assign"),
		supportapp.AssignRequest{AssigneeID: assigneeID})
}

func (s *SupportService) Escalate(ctx context.Context, id uuid.UUID, reason string) (*supportapp.TicketResponse, error) {
	return one[supportapp.TicketResponse](ctx, s.c, http.MethodPost, ticketPath(id, "escalate"),
		supportapp.EscalateRequest{Reason: reason})
}

// Rate scores a resolved or closed ticket from 1 to 5
func (s *SupportService) Rate(ctx context.Context, id uuid.UUID, rating int, feedback string) (*supportapp.TicketResponse, error) {
	return one[supportapp.TicketResponse](ctx, s.c, http.MethodPost, ticketPath(id, "rating"),
		supportapp.RateRequest{Rating: rating, Feedback: feedback})
}

func (s *SupportService) Stats(ctx context.Context) (*support.Stats, error) {
	return one[support.Stats](ctx, s.c, http.MethodGet, ticketsPath+"/stats", nil)
}

// UploadAttachment sends one file as multipart form data
func (s *SupportService) UploadAttachment(ctx context.Context, id uuid.UUID, filename string, content io.Reader) (*support.Attachment, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("reading attachment: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("Content-Type", w.FormDataContentType())
	return call[*support.Attachment](ctx, s.c, Request{
		Method: http.MethodPost,
		Path:   ticketPath(id, "attachments"),
		Body:   buf.Bytes(),
		Header: header,
	})
}

// AttachmentURL returns a time-limited download link
func (s *SupportService) AttachmentURL(ctx context.Context, id, attachmentID uuid.UUID) (*supportapp.AttachmentURL, error) {
	return one[supportapp.AttachmentURL](ctx, s.c, http.MethodGet,
		ticketPath(id, "attachments/"+attachmentID.String()+"/url"), nil)
}
