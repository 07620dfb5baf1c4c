package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/destinpq/groow-sub007/internal/application/shipping"
)

// ShippingHandler serves carriers, methods, zones and rate quotes
type ShippingHandler struct {
	BaseHandler
	service *shipping.Service
}

// NewShippingHandler creates a new shipping handler
func NewShippingHandler(service *shipping.Service) *ShippingHandler {
	return &ShippingHandler{service: service}
}

func (h *ShippingHandler) ListCarriers(c *gin.Context) {
	var filter shipping.ListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	items, total, err := h.service.ListCarriers(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.Limit)
}

func (h *ShippingHandler) GetCarrier(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	carrier, err := h.service.GetCarrier(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, carrier)
}

func (h *ShippingHandler) CreateCarrier(c *gin.Context) {
	var req shipping.CarrierRequest
	if !h.bindJSON(c, &req) {
		return
	}
	carrier, err := h.service.CreateCarrier(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, carrier)
}

func (h *ShippingHandler) UpdateCarrier(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req shipping.CarrierRequest
	if !h.bindJSON(c, &req) {
		return
	}
	carrier, err := h.service.UpdateCarrier(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, carrier)
}

func (h *ShippingHandler) DeleteCarrier(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteCarrier(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Message(c, "Carrier deleted")
}

func (h *ShippingHandler) ListMethods(c *gin.Context) {
	var filter shipping.ListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	items, total, err := h.service.ListMethods(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.Limit)
}

func (h *ShippingHandler) GetMethod(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	method, err := h.service.GetMethod(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, method)
}

func (h *ShippingHandler) CreateMethod(c *gin.Context) {
	var req shipping.MethodRequest
	if !h.bindJSON(c, &req) {
		return
	}
	method, err := h.service.CreateMethod(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, method)
}

func (h *ShippingHandler) UpdateMethod(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req shipping.MethodRequest
	if !h.bindJSON(c, &req) {
		return
	}
	method, err := h.service.UpdateMethod(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, method)
}

func (h *ShippingHandler) DeleteMethod(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteMethod(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Message(c, "Shipping method deleted")
}

func (h *ShippingHandler) ListZones(c *gin.Context) {
	var filter shipping.ListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	items, total, err := h.service.ListZones(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.Limit)
}

func (h *ShippingHandler) GetZone(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	zone, err := h.service.GetZone(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, zone)
}

func (h *ShippingHandler) CreateZone(c *gin.Context) {
	var req shipping.ZoneRequest
	if !h.bindJSON(c, &req) {
		return
	}
	zone, err := h.service.CreateZone(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, zone)
}

func (h *ShippingHandler) UpdateZone(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req shipping.ZoneRequest
	if !h.bindJSON(c, &req) {
		return
	}
	zone, err := h.service.UpdateZone(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, zone)
}

func (h *ShippingHandler) DeleteZone(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteZone(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Message(c, "Shipping zone deleted")
}

// Rates handles POST /shipping/rates
func (h *ShippingHandler) Rates(c *gin.Context) {
	var req shipping.RatesRequest
	if !h.bindJSON(c, &req) {
		return
	}
	rates, err := h.service.Rates(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rates)
}
