package router

import (
	"github.com/gin-gonic/gin"

	"github.com/destinpq/groow-sub007/internal/interfaces/http/handler"
	"github.com/destinpq/groow-sub007/internal/interfaces/http/middleware"
)

// Handlers bundles every HTTP handler of the marketplace API
type Handlers struct {
	Auth      *handler.AuthHandler
	FlashSale *handler.FlashSaleHandler
	Deal      *handler.DealHandler
	Shipping  *handler.ShippingHandler
	Support   *handler.SupportHandler
	Alert     *handler.AlertHandler
	Order     *handler.OrderHandler
	System    *handler.SystemHandler
}

// Options tunes route-level middleware
type Options struct {
	// AuthLimiter, when set, throttles login and refresh
	AuthLimiter gin.HandlerFunc
	// Staff guards back-office routes; defaults to middleware.RequireStaff
	Staff gin.HandlerFunc
}

// Areas builds the API areas mounted under /api/v1. Authentication is
// applied engine-wide by the JWT middleware; areas only add role guards.
func Areas(h Handlers, opts Options) []*Area {
	staff := opts.Staff
	if staff == nil {
		staff = middleware.RequireStaff()
	}
	throttle := []gin.HandlerFunc{}
	if opts.AuthLimiter != nil {
		throttle = append(throttle, opts.AuthLimiter)
	}

	system := NewArea("system", "")
	system.GET("/health", h.System.Health)
	system.GET("/ready", h.System.Ready)
	system.GET("/system/info", h.System.Info)

	auth := NewArea("auth", "/auth")
	auth.POST("/login", append(throttle, h.Auth.Login)...)
	auth.POST("/refresh", append(throttle, h.Auth.Refresh)...)
	auth.POST("/logout", h.Auth.Logout)
	auth.GET("/me", h.Auth.Me)

	fs := h.FlashSale
	flash := NewArea("flash-sales", "/flash-sales/service-campaigns")
	flash.GET("", fs.List)
	flash.GET("/active", fs.Active)
	flash.GET("/upcoming", fs.Upcoming)
	flash.GET("/search", fs.Search)
	flash.GET("/:id", fs.Get)
	flash.GET("/:id/countdown", fs.Countdown)
	flash.POST("/:id/reserve", fs.Reserve)
	flash.POST("/:id/quote", fs.Quote)
	flash.POST("", staff, fs.Create)
	flash.PUT("/:id", staff, fs.Update)
	flash.DELETE("/:id", staff, fs.Delete)
	flash.POST("/:id/schedule", staff, fs.Schedule)
	flash.POST("/:id/start", staff, fs.Start)
	flash.POST("/:id/pause", staff, fs.Pause)
	flash.POST("/:id/resume", staff, fs.Resume)
	flash.POST("/:id/end", staff, fs.End)
	flash.POST("/:id/cancel", staff, fs.Cancel)
	flash.POST("/:id/extend", staff, fs.Extend)
	flash.POST("/:id/duplicate", staff, fs.Duplicate)

	d := h.Deal
	deals := NewArea("deals", "/marketing/deals")
	deals.GET("", d.List)
	deals.GET("/active", d.Active)
	deals.GET("/featured", d.Featured)
	deals.GET("/:id", d.Get)
	deals.POST("/:id/apply", d.Apply)
	deals.POST("", staff, d.Create)
	deals.PUT("/:id", staff, d.Update)
	deals.PUT("/:id/status", staff, d.SetStatus)
	deals.PUT("/:id/feature", staff, d.SetFeatured)
	deals.DELETE("/:id", staff, d.Delete)
	deals.GET("/:id/analytics", staff, d.Analytics)

	s := h.Shipping
	shipping := NewArea("shipping", "/shipping")
	shipping.POST("/rates", s.Rates)
	carriers := shipping.Sub("carriers", "/carriers")
	carriers.GET("", s.ListCarriers)
	carriers.GET("/:id", s.GetCarrier)
	carriers.POST("", staff, s.CreateCarrier)
	carriers.PUT("/:id", staff, s.UpdateCarrier)
	carriers.DELETE("/:id", staff, s.DeleteCarrier)
	methods := shipping.Sub("methods", "/methods")
	methods.GET("", s.ListMethods)
	methods.GET("/:id", s.GetMethod)
	methods.POST("", staff, s.CreateMethod)
	methods.PUT("/:id", staff, s.UpdateMethod)
	methods.DELETE("/:id", staff, s.DeleteMethod)
	zones := shipping.Sub("zones", "/zones")
	zones.GET("", s.ListZones)
	zones.GET("/:id", s.GetZone)
	zones.POST("", staff, s.CreateZone)
	zones.PUT("/:id", staff, s.UpdateZone)
	zones.DELETE("/:id", staff, s.DeleteZone)

	st := h.Support
	tickets := NewArea("support", "/support/tickets")
	tickets.GET("", st.List)
	tickets.POST("", st.Create)
	tickets.GET("/stats", st.Stats)
	tickets.GET("/:id", st.Get)
	tickets.GET("/:id/messages", st.Messages)
	tickets.POST("/:id/messages", st.AddMessage)
	tickets.POST("/:id/rating", st.Rate)
	tickets.POST("/:id/attachments", st.UploadAttachment)
	tickets.GET("/:id/attachments/:attachmentId/url", st.AttachmentURL)
	tickets.PATCH("/:id/status", staff, st.UpdateStatus)
	tickets.POST("/:id/assign", staff, st.Assign)
	tickets.POST("/:id/escalate", staff, st.Escalate)

	a := h.Alert
	alerts := NewArea("inventory-alerts", "/inventory/alerts", staff)
	alerts.GET("", a.List)
	alerts.POST("", a.Raise)
	alerts.GET("/stats", a.Stats)
	alerts.GET("/:id", a.Get)
	alerts.POST("/:id/acknowledge", a.Acknowledge)
	alerts.POST("/:id/resolve", a.Resolve)
	alerts.POST("/:id/dismiss", a.Dismiss)
	alerts.PATCH("/:id/severity", a.UpdateSeverity)
	alerts.DELETE("/:id", a.Delete)

	o := h.Order
	orders := NewArea("orders", "/orders")
	orders.GET("/my-orders", o.MyOrders)
	orders.GET("/:id", o.Get)
	orders.GET("/:id/tracking", o.Tracking)
	orders.GET("", staff, o.List)
	orders.POST("", staff, o.Place)
	orders.PATCH("/:id/status", staff, o.UpdateStatus)

	return []*Area{system, auth, flash, deals, shipping, tickets, alerts, orders}
}
