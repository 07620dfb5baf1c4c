package shared

import (
	"time"

	"github.com/google/uuid"
)

// Event is something an aggregate did that other parts of the system may
// want to react to
type Event interface {
	EventName() string
	Subject() uuid.UUID
	At() time.Time
}

// EventHeader is embedded by concrete events
type EventHeader struct {
	Name       string    `json:"name"`
	SubjectID  uuid.UUID `json:"subject_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewEventHeader(name string, subject uuid.UUID, at time.Time) EventHeader {
	return EventHeader{Name: name, SubjectID: subject, OccurredAt: at}
}

func (h EventHeader) EventName() string  { return h.Name }
func (h EventHeader) Subject() uuid.UUID { return h.SubjectID }
func (h EventHeader) At() time.Time      { return h.OccurredAt }
