package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity carries the identity and audit columns every table shares
type BaseEntity struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// NewBaseEntity stamps a fresh random ID and the current time
func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
}

// Touch marks the row as modified
func (e *BaseEntity) Touch() {
	e.UpdatedAt = time.Now()
}

// BaseAggregateRoot adds an optimistic-lock version and an in-memory event
// log. Events are never persisted; services drain them after a successful save.
type BaseAggregateRoot struct {
	BaseEntity
	Version int `gorm:"not null;default:1"`
	pending []Event
}

func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{BaseEntity: NewBaseEntity(), Version: 1}
}

func (a *BaseAggregateRoot) IncrementVersion() { a.Version++ }

// Record queues an event for the next PullEvents
func (a *BaseAggregateRoot) Record(e Event) {
	a.pending = append(a.pending, e)
}

// Events returns the queued events without clearing them
func (a *BaseAggregateRoot) Events() []Event {
	return a.pending
}

// PullEvents returns and clears the queued events
func (a *BaseAggregateRoot) PullEvents() []Event {
	out := a.pending
	a.pending = nil
	return out
}
