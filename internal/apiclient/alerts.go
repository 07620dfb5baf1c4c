package apiclient

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	alertapp "github.com/destinpq/groow-sub007/internal/application/alert"
	"github.com/destinpq/groow-sub007/internal/domain/alert"
	"github.com/destinpq/groow-sub007/internal/envelope"
)

const alertsPath = "/inventory/alerts"

// AlertService covers /inventory/alerts. Every call needs a staff session.
type AlertService struct {
	c *Client
}

func alertPath(id uuid.UUID, action string) string {
	p := alertsPath + "/" + id.String()
	if action != "" {
		p += "/" + action
	}
	return p
}

// List pages through alerts. Filters: status, severity, alertType, productId.
func (s *AlertService) List(ctx context.Context, params ListParams) (envelope.Page[alertapp.AlertResponse], error) {
	return getPage[alertapp.AlertResponse](ctx, s.c, alertsPath, params)
}

func (s *AlertService) Get(ctx context.Context, id uuid.UUID) (*alertapp.AlertResponse, error) {
	return one[alertapp.AlertResponse](ctx, s.c, http.MethodGet, alertPath(id, ""), nil)
}

// Raise reports a condition. An alert still active for the same product and
// type is returned instead of a new one.
func (s *AlertService) Raise(ctx context.Context, req alertapp.RaiseAlertRequest) (*alertapp.AlertResponse, error) {
	return one[alertapp.AlertResponse](ctx, s.c, http.MethodPost, alertsPath, req)
}

func (s *AlertService) Acknowledge(ctx context.Context, id uuid.UUID) (*alertapp.AlertResponse, error) {
	return one[alertapp.AlertResponse](ctx, s.c, http.MethodPost, alertPath(id, "acknowledge"), nil)
}

func (s *AlertService) Resolve(ctx context.Context, id uuid.UUID, notes string) (*alertapp.AlertResponse, error) {
	return one[alertapp.AlertResponse](ctx, s.c, http.MethodPost, alertPath(id, "resolve"), alertapp.NotesRequest{Notes: notes})
}

func (s *AlertService) Dismiss(ctx context.Context, id uuid.UUID, notes string) (*alertapp.AlertResponse, error) {
	return one[alertapp.AlertResponse](ctx, s.c, http.MethodPost, alertPath(id, "dismiss"), alertapp.NotesRequest{Notes: notes})
}

func (s *AlertService) UpdateSeverity(ctx context.Context, id uuid.UUID, severity string) (*alertapp.AlertResponse, error) {
	return one[alertapp.AlertResponse](ctx, s.c, http.MethodPatch, alertPath(id, "severity"), alertapp.SeverityRequest{Severity: severity})
}

func (s *AlertService) Delete(ctx context.Context, id uuid.UUID) error {
	return sendNoContent(ctx, s.c, http.MethodDelete, alertPath(id, ""), nil)
}

func (s *AlertService) Stats(ctx context.Context) (*alert.Stats, error) {
	return one[alert.Stats](ctx, s.c, http.MethodGet, alertsPath+"/stats", nil)
}
