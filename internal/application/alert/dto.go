package alert

import (
	"time"

	"github.com/google/uuid"

	"github.com/destinpq/groow-sub007/internal/domain/alert"
)

// RaiseAlertRequest reports a stock condition
type RaiseAlertRequest struct {
	ProductID    uuid.UUID `json:"productId" binding:"required"`
	ProductName  string    `json:"productName" binding:"required,min=1,max=200"`
	ProductSku   string    `json:"productSku" binding:"max=100"`
	AlertType    string    `json:"alertType" binding:"required,oneof=low_stock out_of_stock overstock expiration reorder_point custom"`
	Severity     string    `json:"severity" binding:"omitempty,oneof=low medium high critical"`
	CurrentStock int       `json:"currentStock" binding:"min=0"`
	Threshold    int       `json:"threshold" binding:"min=0"`
	Message      string    `json:"message" binding:"max=2000"`
}

// NotesRequest carries optional notes for resolve and dismiss
type NotesRequest struct {
	Notes string `json:"notes" binding:"max=2000"`
}

// SeverityRequest is the body of PATCH :id/severity
type SeverityRequest struct {
	Severity string `json:"severity" binding:"required,oneof=low medium high critical"`
}

// ListFilter holds list query parameters
type ListFilter struct {
	Status    string     `form:"status" binding:"omitempty,oneof=active acknowledged resolved dismissed"`
	Severity  string     `form:"severity" binding:"omitempty,oneof=low medium high critical"`
	AlertType string     `form:"alertType"`
	ProductID *uuid.UUID `form:"productId"`
	Search    string     `form:"search"`
	Page      int        `form:"page" binding:"omitempty,min=1"`
	Limit     int        `form:"limit" binding:"omitempty,min=1,max=100"`
	SortBy    string     `form:"sortBy"`
	SortOrder string     `form:"sortOrder" binding:"omitempty,oneof=asc desc"`
}

// AlertResponse is the API view of an inventory alert
type AlertResponse struct {
	ID             uuid.UUID  `json:"id"`
	ProductID      uuid.UUID  `json:"productId"`
	ProductName    string     `json:"productName"`
	ProductSku     string     `json:"productSku"`
	AlertType      string     `json:"alertType"`
	Severity       string     `json:"severity"`
	Status         string     `json:"status"`
	CurrentStock   int        `json:"currentStock"`
	Threshold      int        `json:"threshold"`
	Message        string     `json:"message"`
	Notes          string     `json:"notes,omitempty"`
	AcknowledgedBy *uuid.UUID `json:"acknowledgedBy,omitempty"`
	AcknowledgedAt *time.Time `json:"acknowledgedAt,omitempty"`
	ResolvedBy     *uuid.UUID `json:"resolvedBy,omitempty"`
	ResolvedAt     *time.Time `json:"resolvedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// ToAlertResponse converts a domain alert
func ToAlertResponse(a *alert.Alert) AlertResponse {
	return AlertResponse{
		ID:             a.ID,
		ProductID:      a.ProductID,
		ProductName:    a.ProductName,
		ProductSku:     a.ProductSku,
		AlertType:      string(a.AlertType),
		Severity:       string(a.Severity),
		Status:         string(a.Status),
		CurrentStock:   a.CurrentStock,
		Threshold:      a.Threshold,
		Message:        a.Message,
		Notes:          a.Notes,
		AcknowledgedBy: a.AcknowledgedBy,
		AcknowledgedAt: a.AcknowledgedAt,
		ResolvedBy:     a.ResolvedBy,
		ResolvedAt:     a.ResolvedAt,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}
