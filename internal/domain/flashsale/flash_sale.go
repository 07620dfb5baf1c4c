package flashsale

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/destinpq/groow-sub007/internal/domain/shared"
)

// Status is the lifecycle state of a campaign
type Status string

const (
	StatusDraft     Status = "draft"
	StatusScheduled Status = "scheduled"
	StatusQueued    Status = "queued"
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusEnded     Status = "ended"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

// IsValid reports whether s is a known status
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusScheduled, StatusQueued, StatusActive,
		StatusPaused, StatusEnded, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible
func (s Status) IsTerminal() bool {
	return s == StatusEnded || s == StatusCancelled || s == StatusExpired
}

// CampaignType classifies the campaign
type CampaignType string

const (
	CampaignFlashSale           CampaignType = "flash_sale"
	CampaignDailyDeal           CampaignType = "daily_deal"
	CampaignLimitedTimeOffer    CampaignType = "limited_time_offer"
	CampaignClearance           CampaignType = "clearance"
	CampaignSeasonal            CampaignType = "seasonal"
	CampaignPromotional         CampaignType = "promotional"
	CampaignEnterpriseExclusive CampaignType = "enterprise_exclusive"
)

// IsValid reports whether t is a known campaign type
func (t CampaignType) IsValid() bool {
	switch t {
	case CampaignFlashSale, CampaignDailyDeal, CampaignLimitedTimeOffer, CampaignClearance,
		CampaignSeasonal, CampaignPromotional, CampaignEnterpriseExclusive:
		return true
	}
	return false
}

// DiscountType selects how DiscountFor computes the discount
type DiscountType string

const (
	DiscountPercentage  DiscountType = "percentage"
	DiscountFixedAmount DiscountType = "fixed_amount"
	DiscountTiered      DiscountType = "tiered"
)

// IsValid reports whether t is a supported discount type
func (t DiscountType) IsValid() bool {
	return t == DiscountPercentage || t == DiscountFixedAmount || t == DiscountTiered
}

// DiscountTier applies once the order value reaches Threshold
type DiscountTier struct {
	Threshold     decimal.Decimal `json:"threshold"`
	DiscountType  DiscountType    `json:"discountType"`
	DiscountValue decimal.Decimal `json:"discountValue"`
}

// FlashSale is a time-boxed discount campaign with its own inventory
type FlashSale struct {
	shared.BaseAggregateRoot
	CampaignCode           string       `gorm:"type:varchar(50);not null;uniqueIndex"`
	Title                  string       `gorm:"type:varchar(200);not null"`
	Description            string       `gorm:"type:text"`
	CampaignType           CampaignType `gorm:"type:varchar(30);not null"`
	Status                 Status       `gorm:"type:varchar(20);not null;index"`
	StartTime              time.Time    `gorm:"not null;index"`
	EndTime                time.Time    `gorm:"not null;index"`
	ActualStartTime        *time.Time
	ActualEndTime          *time.Time
	AutoStart              bool            `gorm:"not null;default:false"`
	AutoEnd                bool            `gorm:"not null"`
	DiscountType           DiscountType    `gorm:"type:varchar(20);not null"`
	DiscountValue          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	MaxDiscountAmount      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	MinOrderValue          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Tiers                  []DiscountTier  `gorm:"serializer:json"`
	TotalInventory         int             `gorm:"not null;default:0"`
	SoldQuantity           int             `gorm:"not null;default:0"`
	ReservedQuantity       int             `gorm:"not null;default:0"`
	MaxQuantityPerCustomer int             `gorm:"not null;default:0"`
	Priority               int             `gorm:"not null;default:0"`
	IsFeatured             bool            `gorm:"not null;default:false"`
	ShowCountdown          bool            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (FlashSale) TableName() string {
	return "flash_sales"
}

// Schedule describes the timing and discount of a campaign
type Schedule struct {
	StartTime     time.Time
	EndTime       time.Time
	DiscountType  DiscountType
	DiscountValue decimal.Decimal
	Tiers         []DiscountTier
}

// NewFlashSale creates a new campaign in draft status
func NewFlashSale(code, title string, campaignType CampaignType, sched Schedule, totalInventory int) (*FlashSale, error) {
	code = strings.TrimSpace(code)
	title = strings.TrimSpace(title)
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Campaign code cannot be empty")
	}
	if len(code) > 50 {
		return nil, shared.NewDomainError("INVALID_CODE", "Campaign code cannot exceed 50 characters")
	}
	if title == "" {
		return nil, shared.NewDomainError("INVALID_TITLE", "Title cannot be empty")
	}
	if campaignType == "" {
		campaignType = CampaignFlashSale
	}
	if !campaignType.IsValid() {
		return nil, shared.NewDomainError("INVALID_CAMPAIGN_TYPE", fmt.Sprintf("Unknown campaign type %q", campaignType))
	}
	if totalInventory < 0 {
		return nil, shared.NewDomainError("INVALID_INVENTORY", "Total inventory cannot be negative")
	}
	if err := validateSchedule(sched); err != nil {
		return nil, err
	}

	fs := &FlashSale{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CampaignCode:      strings.ToUpper(code),
		Title:             title,
		CampaignType:      campaignType,
		Status:            StatusDraft,
		AutoEnd:           true,
		ShowCountdown:     true,
		TotalInventory:    totalInventory,
	}
	fs.applySchedule(sched)
	fs.Record(NewStatusChangedEvent(fs, "", StatusDraft))
	return fs, nil
}

func validateSchedule(s Schedule) error {
	if s.StartTime.IsZero() || s.EndTime.IsZero() {
		return shared.NewDomainError("INVALID_SCHEDULE", "Start and end time are required")
	}
	if !s.EndTime.After(s.StartTime) {
		return shared.NewDomainError("INVALID_SCHEDULE", "End time must be after start time")
	}
	if !s.DiscountType.IsValid() {
		return shared.NewDomainError("INVALID_DISCOUNT_TYPE", fmt.Sprintf("Unsupported discount type %q", s.DiscountType))
	}
	switch s.DiscountType {
	case DiscountPercentage:
		if s.DiscountValue.LessThanOrEqual(decimal.Zero) || s.DiscountValue.GreaterThan(decimal.NewFromInt(100)) {
			return shared.NewDomainError("INVALID_DISCOUNT", "Percentage discount must be between 0 and 100")
		}
	case DiscountFixedAmount:
		if s.DiscountValue.LessThanOrEqual(decimal.Zero) {
			return shared.NewDomainError("INVALID_DISCOUNT", "Fixed discount must be positive")
		}
	case DiscountTiered:
		if len(s.Tiers) == 0 {
			return shared.NewDomainError("INVALID_DISCOUNT", "Tiered discount requires at least one tier")
		}
		for _, tier := range s.Tiers {
			if tier.DiscountType != DiscountPercentage && tier.DiscountType != DiscountFixedAmount {
				return shared.NewDomainError("INVALID_DISCOUNT", "Tier discount type must be percentage or fixed_amount")
			}
			if tier.DiscountValue.LessThanOrEqual(decimal.Zero) || tier.Threshold.IsNegative() {
				return shared.NewDomainError("INVALID_DISCOUNT", "Tier values must be positive")
			}
		}
	}
	return nil
}

func (fs *FlashSale) applySchedule(s Schedule) {
	fs.StartTime = s.StartTime
	fs.EndTime = s.EndTime
	fs.DiscountType = s.DiscountType
	fs.DiscountValue = s.DiscountValue
	tiers := append([]DiscountTier(nil), s.Tiers...)
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].Threshold.LessThan(tiers[j].Threshold) })
	fs.Tiers = tiers
}

// UpdateDetails changes descriptive fields; allowed in any non-terminal state
func (fs *FlashSale) UpdateDetails(title, description string, priority int, featured bool) error {
	if fs.Status.IsTerminal() {
		return fs.stateError("update")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return shared.NewDomainError("INVALID_TITLE", "Title cannot be empty")
	}
	fs.Title = title
	fs.Description = description
	fs.Priority = priority
	fs.IsFeatured = featured
	fs.touch()
	return nil
}

// Reschedule changes timing and discount; only before the campaign starts
func (fs *FlashSale) Reschedule(s Schedule) error {
	if fs.Status != StatusDraft && fs.Status != StatusScheduled {
		return fs.stateError("reschedule")
	}
	if err := validateSchedule(s); err != nil {
		return err
	}
	fs.applySchedule(s)
	fs.touch()
	return nil
}

// SetLimits updates inventory and per-customer limits
func (fs *FlashSale) SetLimits(totalInventory, maxPerCustomer int, maxDiscount, minOrder decimal.Decimal) error {
	if fs.Status.IsTerminal() {
		return fs.stateError("change limits of")
	}
	if totalInventory < fs.SoldQuantity+fs.ReservedQuantity {
		return shared.NewDomainError("INVALID_INVENTORY", "Total inventory cannot drop below sold and reserved quantity")
	}
	if maxPerCustomer < 0 || maxDiscount.IsNegative() || minOrder.IsNegative() {
		return shared.NewDomainError("INVALID_INPUT", "Limits cannot be negative")
	}
	fs.TotalInventory = totalInventory
	fs.MaxQuantityPerCustomer = maxPerCustomer
	fs.MaxDiscountAmount = maxDiscount
	fs.MinOrderValue = minOrder
	fs.touch()
	return nil
}

// SetAutomation toggles time-driven start and end
func (fs *FlashSale) SetAutomation(autoStart, autoEnd bool) {
	fs.AutoStart = autoStart
	fs.AutoEnd = autoEnd
	fs.touch()
}

// ScheduleCampaign moves a draft into the scheduled state
func (fs *FlashSale) ScheduleCampaign() error {
	if fs.Status != StatusDraft {
		return fs.stateError("schedule")
	}
	return fs.transition(StatusScheduled)
}

// Start activates a draft or scheduled campaign
func (fs *FlashSale) Start(now time.Time) error {
	if fs.Status != StatusDraft && fs.Status != StatusScheduled && fs.Status != StatusQueued {
		return fs.stateError("start")
	}
	if !now.Before(fs.EndTime) {
		return shared.NewDomainError("INVALID_STATE", "Cannot start a campaign whose end time has passed")
	}
	fs.ActualStartTime = &now
	return fs.transition(StatusActive)
}

// Pause suspends an active campaign
func (fs *FlashSale) Pause() error {
	if fs.Status != StatusActive {
		return fs.stateError("pause")
	}
	return fs.transition(StatusPaused)
}

// Resume reactivates a paused campaign that has not run past its end time
func (fs *FlashSale) Resume(now time.Time) error {
	if fs.Status != StatusPaused {
		return fs.stateError("resume")
	}
	if !now.Before(fs.EndTime) {
		return shared.NewDomainError("INVALID_STATE", "Cannot resume a campaign whose end time has passed")
	}
	return fs.transition(StatusActive)
}

// End closes an active or paused campaign
func (fs *FlashSale) End(now time.Time) error {
	if fs.Status != StatusActive && fs.Status != StatusPaused {
		return fs.stateError("end")
	}
	fs.ActualEndTime = &now
	fs.ReservedQuantity = 0
	return fs.transition(StatusEnded)
}

// Cancel aborts a campaign that has not finished
func (fs *FlashSale) Cancel(now time.Time) error {
	if fs.Status.IsTerminal() {
		return fs.stateError("cancel")
	}
	if fs.Status == StatusActive || fs.Status == StatusPaused {
		fs.ActualEndTime = &now
	}
	fs.ReservedQuantity = 0
	return fs.transition(StatusCancelled)
}

// Extend pushes the end time back by the given number of minutes
func (fs *FlashSale) Extend(minutes int) error {
	switch fs.Status {
	case StatusScheduled, StatusActive, StatusPaused:
	default:
		return fs.stateError("extend")
	}
	if minutes <= 0 {
		return shared.NewDomainError("INVALID_INPUT", "Extension must be a positive number of minutes")
	}
	fs.EndTime = fs.EndTime.Add(time.Duration(minutes) * time.Minute)
	fs.touch()
	return nil
}

// Duplicate returns a fresh draft copy under a new campaign code
func (fs *FlashSale) Duplicate(code string) (*FlashSale, error) {
	dup, err := NewFlashSale(code, fs.Title+" (copy)", fs.CampaignType, Schedule{
		StartTime:     fs.StartTime,
		EndTime:       fs.EndTime,
		DiscountType:  fs.DiscountType,
		DiscountValue: fs.DiscountValue,
		Tiers:         fs.Tiers,
	}, fs.TotalInventory)
	if err != nil {
		return nil, err
	}
	dup.Description = fs.Description
	dup.MaxDiscountAmount = fs.MaxDiscountAmount
	dup.MinOrderValue = fs.MinOrderValue
	dup.MaxQuantityPerCustomer = fs.MaxQuantityPerCustomer
	dup.Priority = fs.Priority
	dup.ShowCountdown = fs.ShowCountdown
	dup.AutoStart = fs.AutoStart
	dup.AutoEnd = fs.AutoEnd
	return dup, nil
}

// CanDelete reports whether the campaign may be removed
func (fs *FlashSale) CanDelete() bool {
	return fs.Status != StatusActive && fs.Status != StatusPaused
}

// EffectiveStatus folds the clock into the stored status: a running campaign
// past its end time reports expired.
func (fs *FlashSale) EffectiveStatus(now time.Time) Status {
	if (fs.Status == StatusActive || fs.Status == StatusPaused) && !now.Before(fs.EndTime) {
		return StatusExpired
	}
	return fs.Status
}

// IsLive reports whether the campaign accepts purchases at now
func (fs *FlashSale) IsLive(now time.Time) bool {
	return fs.EffectiveStatus(now) == StatusActive && !now.Before(fs.StartTime)
}

// RemainingQuantity is the inventory neither sold nor reserved
func (fs *FlashSale) RemainingQuantity() int {
	remaining := fs.TotalInventory - fs.SoldQuantity - fs.ReservedQuantity
	if remaining < 0 {
		return 0
	}
	return remaining
}

// SoldPercent is the share of inventory sold, 0-100
func (fs *FlashSale) SoldPercent() float64 {
	if fs.TotalInventory <= 0 {
		return 0
	}
	return float64(fs.SoldQuantity) * 100 / float64(fs.TotalInventory)
}

// Reserve holds quantity units for a pending order
func (fs *FlashSale) Reserve(quantity int, now time.Time) error {
	if !fs.IsLive(now) {
		return shared.NewDomainError("INVALID_STATE", "Campaign is not accepting purchases")
	}
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_INPUT", "Quantity must be positive")
	}
	if fs.MaxQuantityPerCustomer > 0 && quantity > fs.MaxQuantityPerCustomer {
		return shared.NewDomainError("QUANTITY_LIMIT_EXCEEDED",
			fmt.Sprintf("At most %d units per customer", fs.MaxQuantityPerCustomer))
	}
	if quantity > fs.RemainingQuantity() {
		return shared.ErrInsufficientInventory
	}
	fs.ReservedQuantity += quantity
	fs.touch()
	return nil
}

// ConfirmSale converts reserved units into sold units
func (fs *FlashSale) ConfirmSale(quantity int) error {
	if quantity <= 0 || quantity > fs.ReservedQuantity {
		return shared.NewDomainError("INVALID_INPUT", "Quantity exceeds reserved units")
	}
	fs.ReservedQuantity -= quantity
	fs.SoldQuantity += quantity
	fs.touch()
	return nil
}

// Release returns reserved units to the pool
func (fs *FlashSale) Release(quantity int) error {
	if quantity <= 0 || quantity > fs.ReservedQuantity {
		return shared.NewDomainError("INVALID_INPUT", "Quantity exceeds reserved units")
	}
	fs.ReservedQuantity -= quantity
	fs.touch()
	return nil
}

// DiscountFor returns the discount granted on an order of the given value.
// It is zero below MinOrderValue, capped by MaxDiscountAmount when set, and
// never exceeds the order value.
func (fs *FlashSale) DiscountFor(orderValue decimal.Decimal) decimal.Decimal {
	if !orderValue.IsPositive() {
		return decimal.Zero
	}
	if fs.MinOrderValue.IsPositive() && orderValue.LessThan(fs.MinOrderValue) {
		return decimal.Zero
	}

	var discount decimal.Decimal
	switch fs.DiscountType {
	case DiscountPercentage:
		discount = percentOf(orderValue, fs.DiscountValue)
	case DiscountFixedAmount:
		discount = fs.DiscountValue
	case DiscountTiered:
		for i := len(fs.Tiers) - 1; i >= 0; i-- {
			tier := fs.Tiers[i]
			if orderValue.GreaterThanOrEqual(tier.Threshold) {
				if tier.DiscountType == DiscountPercentage {
					discount = percentOf(orderValue, tier.DiscountValue)
				} else {
					discount = tier.DiscountValue
				}
				break
			}
		}
	}

	if fs.MaxDiscountAmount.IsPositive() && discount.GreaterThan(fs.MaxDiscountAmount) {
		discount = fs.MaxDiscountAmount
	}
	if discount.GreaterThan(orderValue) {
		discount = orderValue
	}
	return discount.Round(2)
}

func percentOf(v, pct decimal.Decimal) decimal.Decimal {
	return v.Mul(pct).Div(decimal.NewFromInt(100))
}

// Countdown is a point-in-time view of campaign timing and stock
type Countdown struct {
	ID                uuid.UUID `json:"id"`
	Status            Status    `json:"status"`
	StartsInSeconds   int64     `json:"startsInSeconds"`
	EndsInSeconds     int64     `json:"endsInSeconds"`
	RemainingQuantity int       `json:"remainingQuantity"`
	SoldPercent       float64   `json:"soldPercent"`
	ServerTime        time.Time `json:"serverTime"`
}

// Countdown computes the countdown snapshot at now
func (fs *FlashSale) Countdown(now time.Time) Countdown {
	return Countdown{
		ID:                fs.ID,
		Status:            fs.EffectiveStatus(now),
		StartsInSeconds:   secondsUntil(now, fs.StartTime),
		EndsInSeconds:     secondsUntil(now, fs.EndTime),
		RemainingQuantity: fs.RemainingQuantity(),
		SoldPercent:       fs.SoldPercent(),
		ServerTime:        now,
	}
}

func secondsUntil(now, t time.Time) int64 {
	d := t.Sub(now)
	if d <= 0 {
		return 0
	}
	return int64(d.Seconds())
}

func (fs *FlashSale) transition(to Status) error {
	from := fs.Status
	fs.Status = to
	fs.touch()
	fs.Record(NewStatusChangedEvent(fs, from, to))
	return nil
}

// touch stamps UpdatedAt; the repository advances Version on save
func (fs *FlashSale) touch() {
	fs.Touch()
}

func (fs *FlashSale) stateError(action string) error {
	return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot %s a campaign in %s status", action, fs.Status))
}
