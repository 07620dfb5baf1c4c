package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/destinpq/groow-sub007/internal/application/support"
)

// SupportHandler serves /support/tickets
type SupportHandler struct {
	BaseHandler
	service *support.Service
}

// NewSupportHandler creates a new support handler
func NewSupportHandler(service *support.Service) *SupportHandler {
	return &SupportHandler{service: service}
}

func (h *SupportHandler) actor(c *gin.Context) (support.Actor, bool) {
	who, ok := h.mustCaller(c)
	return support.Actor{UserID: who.UserID, Staff: who.Staff}, ok
}

// List returns the caller's tickets; staff see every ticket
func (h *SupportHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var filter support.ListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	items, total, err := h.service.List(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.Limit)
}

func (h *SupportHandler) Get(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	t, err := h.service.Get(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, t)
}

func (h *SupportHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req support.CreateTicketRequest
	if !h.bindJSON(c, &req) {
		return
	}
	t, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, t)
}

func (h *SupportHandler) Messages(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	msgs, err := h.service.Messages(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, msgs)
}

func (h *SupportHandler) AddMessage(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req support.AddMessageRequest
	if !h.bindJSON(c, &req) {
		return
	}
	msg, err := h.service.AddMessage(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, msg)
}

// UpdateStatus handles PATCH :id/status (staff)
func (h *SupportHandler) UpdateStatus(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req support.UpdateStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}
	t, err := h.service.UpdateStatus(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, t)
}

func (h *SupportHandler) Assign(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req support.AssignRequest
	if !h.bindJSON(c, &req) {
		return
	}
	t, err := h.service.Assign(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, t)
}

func (h *SupportHandler) Escalate(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req support.EscalateRequest
	if !h.bindJSON(c, &req) {
		return
	}
	t, err := h.service.Escalate(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, t)
}

// Rate handles POST :id/rating
func (h *SupportHandler) Rate(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req support.RateRequest
	if !h.bindJSON(c, &req) {
		return
	}
	t, err := h.service.Rate(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, t)
}

func (h *SupportHandler) Stats(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	stats, err := h.service.Stats(c.Request.Context(), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

// UploadAttachment handles multipart POST :id/attachments with a "file" part
func (h *SupportHandler) UploadAttachment(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.BadRequest(c, "file is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	att, err := h.service.UploadAttachment(c.Request.Context(), actor, id, header.Filename, contentType, header.Size, file)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, att)
}

// AttachmentURL returns a short-lived download link
func (h *SupportHandler) AttachmentURL(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	attID, ok := h.pathID(c, "attachmentId")
	if !ok {
		return
	}
	link, err := h.service.AttachmentURL(c.Request.Context(), actor, id, attID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, link)
}
