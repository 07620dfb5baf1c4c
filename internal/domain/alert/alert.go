package alert

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/destinpq/groow-sub007/internal/domain/shared"
)

// Type is the condition that raised the alert
type Type string

const (
	TypeLowStock     Type = "low_stock"
	TypeOutOfStock   Type = "out_of_stock"
	TypeOverstock    Type = "overstock"
	TypeExpiration   Type = "expiration"
	TypeReorderPoint Type = "reorder_point"
	TypeCustom       Type = "custom"
)

// IsValid reports whether t is a known alert type
func (t Type) IsValid() bool {
	switch t {
	case TypeLowStock, TypeOutOfStock, TypeOverstock, TypeExpiration, TypeReorderPoint, TypeCustom:
		return true
	}
	return false
}

// Severity ranks how urgent the alert is
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// IsValid reports whether s is a known severity
func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Status is the alert handling state
type Status string

const (
	StatusActive       Status = "active"
	StatusAcknowledged Status = "acknowledged"
	StatusResolved     Status = "resolved"
	StatusDismissed    Status = "dismissed"
)

// IsValid reports whether s is a known status
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusAcknowledged, StatusResolved, StatusDismissed:
		return true
	}
	return false
}

// Alert flags a stock condition on a product
type Alert struct {
	shared.BaseEntity
	ProductID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	ProductName    string     `gorm:"type:varchar(200);not null"`
	ProductSku     string     `gorm:"type:varchar(100);index"`
	AlertType      Type       `gorm:"type:varchar(20);not null;index"`
	Severity       Severity   `gorm:"type:varchar(20);not null;index"`
	Status         Status     `gorm:"type:varchar(20);not null;index"`
	CurrentStock   int        `gorm:"not null;default:0"`
	Threshold      int        `gorm:"not null;default:0"`
	Message        string     `gorm:"type:text"`
	AcknowledgedBy *uuid.UUID `gorm:"type:uuid"`
	AcknowledgedAt *time.Time
	ResolvedBy     *uuid.UUID `gorm:"type:uuid"`
	ResolvedAt     *time.Time
	Notes          string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (Alert) TableName() string {
	return "inventory_alerts"
}

// StockReading is the input used to raise an alert
type StockReading struct {
	ProductID    uuid.UUID
	ProductName  string
	ProductSku   string
	CurrentStock int
	Threshold    int
}

// NewAlert raises an alert. An empty severity is derived from the reading.
func NewAlert(r StockReading, alertType Type, severity Severity, message string) (*Alert, error) {
	if r.ProductID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if strings.TrimSpace(r.ProductName) == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product name cannot be empty")
	}
	if !alertType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ALERT_TYPE", fmt.Sprintf("Unknown alert type %q", alertType))
	}
	if r.CurrentStock < 0 || r.Threshold < 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Stock and threshold cannot be negative")
	}
	if severity == "" {
		severity = SeverityFor(alertType, r.CurrentStock, r.Threshold)
	}
	if !severity.IsValid() {
		return nil, shared.NewDomainError("INVALID_SEVERITY", fmt.Sprintf("Unknown severity %q", severity))
	}
	if message == "" {
		message = defaultMessage(alertType, r)
	}
	return &Alert{
		BaseEntity:   shared.NewBaseEntity(),
		ProductID:    r.ProductID,
		ProductName:  strings.TrimSpace(r.ProductName),
		ProductSku:   r.ProductSku,
		AlertType:    alertType,
		Severity:     severity,
		Status:       StatusActive,
		CurrentStock: r.CurrentStock,
		Threshold:    r.Threshold,
		Message:      message,
	}, nil
}

// SeverityFor derives severity from how far stock sits below threshold
func SeverityFor(alertType Type, current, threshold int) Severity {
	switch alertType {
	case TypeOutOfStock:
		return SeverityCritical
	case TypeLowStock, TypeReorderPoint:
		if current <= 0 {
			return SeverityCritical
		}
		if threshold <= 0 {
			return SeverityMedium
		}
		ratio := float64(current) / float64(threshold)
		switch {
		case ratio <= 0.25:
			return SeverityHigh
		case ratio <= 0.75:
			return SeverityMedium
		default:
			return SeverityLow
		}
	case TypeExpiration:
		return SeverityHigh
	default:
		return SeverityLow
	}
}

func defaultMessage(alertType Type, r StockReading) string {
	switch alertType {
	case TypeOutOfStock:
		return fmt.Sprintf("%s is out of stock", r.ProductName)
	case TypeLowStock:
		return fmt.Sprintf("%s is low on stock: %d left (threshold %d)", r.ProductName, r.CurrentStock, r.Threshold)
	case TypeOverstock:
		return fmt.Sprintf("%s is overstocked: %d on hand (limit %d)", r.ProductName, r.CurrentStock, r.Threshold)
	case TypeReorderPoint:
		return fmt.Sprintf("%s reached its reorder point of %d", r.ProductName, r.Threshold)
	case TypeExpiration:
		return fmt.Sprintf("%s has stock nearing expiration", r.ProductName)
	default:
		return fmt.Sprintf("Alert raised for %s", r.ProductName)
	}
}

// Acknowledge marks an active alert as seen
func (a *Alert) Acknowledge(by uuid.UUID, now time.Time) error {
	if a.Status != StatusActive {
		return a.stateError("acknowledge")
	}
	a.Status = StatusAcknowledged
	a.AcknowledgedBy = &by
	a.AcknowledgedAt = &now
	a.Touch()
	return nil
}

// Resolve closes an active or acknowledged alert
func (a *Alert) Resolve(by uuid.UUID, notes string, now time.Time) error {
	if a.Status != StatusActive && a.Status != StatusAcknowledged {
		return a.stateError("resolve")
	}
	a.Status = StatusResolved
	a.ResolvedBy = &by
	a.ResolvedAt = &now
	if notes != "" {
		a.Notes = notes
	}
	a.Touch()
	return nil
}

// Dismiss discards an active alert
func (a *Alert) Dismiss(notes string) error {
	if a.Status != StatusActive {
		return a.stateError("dismiss")
	}
	a.Status = StatusDismissed
	if notes != "" {
		a.Notes = notes
	}
	a.Touch()
	return nil
}

// SetSeverity overrides the derived severity of an open alert
func (a *Alert) SetSeverity(s Severity) error {
	if !s.IsValid() {
		return shared.NewDomainError("INVALID_SEVERITY", fmt.Sprintf("Unknown severity %q", s))
	}
	if a.Status == StatusResolved || a.Status == StatusDismissed {
		return a.stateError("change severity of")
	}
	a.Severity = s
	a.Touch()
	return nil
}

func (a *Alert) stateError(action string) error {
	return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot %s an alert in %s status", action, a.Status))
}
