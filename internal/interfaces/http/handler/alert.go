package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/destinpq/groow-sub007/internal/application/alert"
)

// AlertHandler serves /inventory/alerts
type AlertHandler struct {
	BaseHandler
	service *alert.Service
}

// NewAlertHandler creates a new inventory alert handler
func NewAlertHandler(service *alert.Service) *AlertHandler {
	return &AlertHandler{service: service}
}

func (h *AlertHandler) List(c *gin.Context) {
	var filter alert.ListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	items, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.Limit)
}

func (h *AlertHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	a, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, a)
}

// Raise answers 201 for a new alert and 200 when an open one was refreshed
func (h *AlertHandler) Raise(c *gin.Context) {
	var req alert.RaiseAlertRequest
	if !h.bindJSON(c, &req) {
		return
	}
	a, created, err := h.service.Raise(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if created {
		h.Created(c, a)
		return
	}
	h.Success(c, a)
}

func (h *AlertHandler) Acknowledge(c *gin.Context) {
	who, ok := h.mustCaller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	a, err := h.service.Acknowledge(c.Request.Context(), id, who.UserID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, a)
}

func (h *AlertHandler) Resolve(c *gin.Context) {
	who, ok := h.mustCaller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req alert.NotesRequest
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return
	}
	a, err := h.service.Resolve(c.Request.Context(), id, who.UserID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, a)
}

func (h *AlertHandler) Dismiss(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req alert.NotesRequest
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return
	}
	a, err := h.service.Dismiss(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, a)
}

func (h *AlertHandler) UpdateSeverity(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req alert.SeverityRequest
	if !h.bindJSON(c, &req) {
		return
	}
	a, err := h.service.UpdateSeverity(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, a)
}

func (h *AlertHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Message(c, "Alert deleted")
}

func (h *AlertHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}
