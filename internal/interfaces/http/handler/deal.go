package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/destinpq/groow-sub007/internal/application/deal"
)

// DealHandler serves /marketing/deals
type DealHandler struct {
	BaseHandler
	service *deal.Service
}

// NewDealHandler creates a new deal handler
func NewDealHandler(service *deal.Service) *DealHandler {
	return &DealHandler{service: service}
}

func (h *DealHandler) List(c *gin.Context) {
	var filter deal.ListFilter
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

// Active returns running deals, highest priority first
func (h *DealHandler) Active(c *gin.Context) {
	items, err := h.service.Active(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

func (h *DealHandler) Featured(c *gin.Context) {
	items, err := h.service.Featured(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

func (h *DealHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	d, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, d)
}

func (h *DealHandler) Create(c *gin.Context) {
	var req deal.CreateDealRequest
	if !h.bindJSON(c, &req) {
		return
	}
	d, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, d)
}

func (h *DealHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req deal.UpdateDealRequest
	if !h.bindJSON(c, &req) {
		return
	}
	d, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, d)
}

// SetStatus handles PUT :id/status {isActive}
func (h *DealHandler) SetStatus(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req deal.SetStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}
	d, err := h.service.SetStatus(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, d)
}

// SetFeatured handles PUT :id/feature {isFeatured}
func (h *DealHandler) SetFeatured(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req deal.SetFeaturedRequest
	if !h.bindJSON(c, &req) {
		return
	}
	d, err := h.service.SetFeatured(c.Request.Context(), id, *req.IsFeatured)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, d)
}

func (h *DealHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Message(c, "Deal deleted")
}

func (h *DealHandler) Analytics(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	a, err := h.service.Analytics(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, a)
}

// Apply handles POST :id/apply {orderId, orderTotal}
func (h *DealHandler) Apply(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req deal.ApplyRequest
	if !h.bindJSON(c, &req) {
		return
	}
	res, err := h.service.Apply(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}
