package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/destinpq/groow-sub007/internal/application/order"
)

// OrderHandler serves /orders
type OrderHandler struct {
	BaseHandler
	service *order.Service
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(service *order.Service) *OrderHandler {
	return &OrderHandler{service: service}
}

func (h *OrderHandler) actor(c *gin.Context) (order.Actor, bool) {
	who, ok := h.mustCaller(c)
	return order.Actor{UserID: who.UserID, Staff: who.Staff}, ok
}

// Get handles GET /orders/:id where :id is a UUID or an order number
func (h *OrderHandler) Get(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	o, err := h.service.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, o)
}

func (h *OrderHandler) MyOrders(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var filter order.ListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	items, total, err := h.service.MyOrders(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.Limit)
}

func (h *OrderHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var filter order.ListFilter
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

func (h *OrderHandler) Tracking(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	t, err := h.service.Tracking(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, t)
}

func (h *OrderHandler) Place(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req order.PlaceOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}
	o, err := h.service.Place(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, o)
}

// UpdateStatus handles PATCH /orders/:id/status
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req order.UpdateStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}
	o, err := h.service.UpdateStatus(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, o)
}
