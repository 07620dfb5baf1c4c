package flashsale

import (
	"time"

	"github.com/destinpq/groow-sub007/internal/domain/shared"
)

// EventStatusChanged is recorded on creation and on every lifecycle transition
const EventStatusChanged = "flash_sale.status_changed"

// StatusChangedEvent records a lifecycle transition. From is empty for a
// newly created campaign.
type StatusChangedEvent struct {
	shared.EventHeader
	CampaignCode string `json:"campaign_code"`
	From         Status `json:"from,omitempty"`
	To           Status `json:"to"`
}

func NewStatusChangedEvent(fs *FlashSale, from, to Status) *StatusChangedEvent {
	return &StatusChangedEvent{
		EventHeader:  shared.NewEventHeader(EventStatusChanged, fs.ID, time.Now()),
		CampaignCode: fs.CampaignCode,
		From:         from,
		To:           to,
	}
}
