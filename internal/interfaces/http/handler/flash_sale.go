package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/destinpq/groow-sub007/internal/application/flashsale"
)

// FlashSaleHandler serves /flash-sales/service-campaigns
type FlashSaleHandler struct {
	BaseHandler
	service *flashsale.Service
}

// NewFlashSaleHandler creates a new flash sale handler
func NewFlashSaleHandler(service *flashsale.Service) *FlashSaleHandler {
	return &FlashSaleHandler{service: service}
}

// QuoteRequest asks for the discount a campaign grants on an order value
type QuoteRequest struct {
	OrderValue decimal.Decimal `json:"orderValue"`
}

// List returns campaigns matching the query filters
func (h *FlashSaleHandler) List(c *gin.Context) {
	var filter flashsale.ListFilter
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

// Search handles GET search?q=
func (h *FlashSaleHandler) Search(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	items, total, err := h.service.Search(c.Request.Context(), c.Query("q"), page, limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, page, limit)
}

// Active returns campaigns that are live right now
func (h *FlashSaleHandler) Active(c *gin.Context) {
	items, err := h.service.Active(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// Upcoming handles GET upcoming?hours=. Hours defaults to 24.
func (h *FlashSaleHandler) Upcoming(c *gin.Context) {
	hours := 24
	if raw := c.Query("hours"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			h.BadRequest(c, "hours must be an integer")
			return
		}
		hours = v
	}
	items, err := h.service.Upcoming(c.Request.Context(), hours)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

func (h *FlashSaleHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	fs, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, fs)
}

func (h *FlashSaleHandler) Create(c *gin.Context) {
	var req flashsale.CreateFlashSaleRequest
	if !h.bindJSON(c, &req) {
		return
	}
	fs, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, fs)
}

func (h *FlashSaleHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req flashsale.UpdateFlashSaleRequest
	if !h.bindJSON(c, &req) {
		return
	}
	fs, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, fs)
}

func (h *FlashSaleHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Message(c, "Flash sale deleted")
}

type lifecycleAction func(context.Context, uuid.UUID) (*flashsale.FlashSaleResponse, error)

func (h *FlashSaleHandler) transition(c *gin.Context, action lifecycleAction) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	fs, err := action(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, fs)
}

func (h *FlashSaleHandler) Schedule(c *gin.Context) { h.transition(c, h.service.Schedule) }
func (h *FlashSaleHandler) Start(c *gin.Context)    { h.transition(c, h.service.Start) }
func (h *FlashSaleHandler) Pause(c *gin.Context)    { h.transition(c, h.service.Pause) }
func (h *FlashSaleHandler) Resume(c *gin.Context)   { h.transition(c, h.service.Resume) }
func (h *FlashSaleHandler) End(c *gin.Context)      { h.transition(c, h.service.End) }
func (h *FlashSaleHandler) Cancel(c *gin.Context)   { h.transition(c, h.service.Cancel) }

// Duplicate answers 201 with the new draft copy
func (h *FlashSaleHandler) Duplicate(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	fs, err := h.service.Duplicate(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, fs)
}

func (h *FlashSaleHandler) Extend(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req flashsale.ExtendRequest
	if !h.bindJSON(c, &req) {
		return
	}
	fs, err := h.service.Extend(c.Request.Context(), id, req.Minutes)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, fs)
}

func (h *FlashSaleHandler) Reserve(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req flashsale.ReserveRequest
	if !h.bindJSON(c, &req) {
		return
	}
	res, err := h.service.Reserve(c.Request.Context(), id, req.Quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

func (h *FlashSaleHandler) Quote(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req QuoteRequest
	if !h.bindJSON(c, &req) {
		return
	}
	quote, err := h.service.Quote(c.Request.Context(), id, req.OrderValue)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, quote)
}

func (h *FlashSaleHandler) Countdown(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	cd, err := h.service.Countdown(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cd)
}
