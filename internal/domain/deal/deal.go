package deal

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/destinpq/groow-sub007/internal/domain/shared"
)

// Type is the kind of promotion a deal grants
type Type string

const (
	TypePercentage Type = "percentage"
	TypeFixed      Type = "fixed"
	TypeBuyXGetY   Type = "buy-x-get-y"
	TypeBundle     Type = "bundle"
	TypeFlashSale  Type = "flash-sale"
)

// IsValid reports whether t is a known deal type
func (t Type) IsValid() bool {
	switch t {
	case TypePercentage, TypeFixed, TypeBuyXGetY, TypeBundle, TypeFlashSale:
		return true
	}
	return false
}

// isPercentage reports whether Value is read as a percentage of the order.
// The remaining types grant Value as a flat amount.
func (t Type) isPercentage() bool {
	return t == TypePercentage || t == TypeFlashSale
}

// Deal is a marketing promotion applied to orders
type Deal struct {
	shared.BaseAggregateRoot
	Title              string          `gorm:"type:varchar(200);not null"`
	Description        string          `gorm:"type:text"`
	Type               Type            `gorm:"type:varchar(20);not null;index"`
	Value              decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	MinPurchase        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	MaxDiscount        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	StartDate          time.Time       `gorm:"not null"`
	EndDate            time.Time       `gorm:"not null;index"`
	UsageLimit         int             `gorm:"not null;default:0"`
	UsageCount         int             `gorm:"not null;default:0"`
	IsActive           bool            `gorm:"not null;index"`
	IsFeatured         bool            `gorm:"not null;default:false"`
	Priority           int             `gorm:"not null;default:0"`
	Stackable          bool            `gorm:"not null;default:false"`
	AutoApply          bool            `gorm:"not null;default:false"`
	Tags               []string        `gorm:"serializer:json"`
	TotalDiscountGiven decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalOrderValue    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (Deal) TableName() string {
	return "deals"
}

// Terms groups the commercial parameters of a deal
type Terms struct {
	Type        Type
	Value       decimal.Decimal
	MinPurchase decimal.Decimal
	MaxDiscount decimal.Decimal
	StartDate   time.Time
	EndDate     time.Time
	UsageLimit  int
}

// NewDeal creates an active deal
func NewDeal(title string, terms Terms) (*Deal, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, shared.NewDomainError("INVALID_TITLE", "Title cannot be empty")
	}
	if err := validateTerms(terms); err != nil {
		return nil, err
	}
	d := &Deal{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Title:             title,
		IsActive:          true,
		Tags:              []string{},
	}
	d.applyTerms(terms)
	return d, nil
}

func validateTerms(t Terms) error {
	if !t.Type.IsValid() {
		return shared.NewDomainError("INVALID_DEAL_TYPE", fmt.Sprintf("Unknown deal type %q", t.Type))
	}
	if !t.Value.IsPositive() {
		return shared.NewDomainError("INVALID_DISCOUNT", "Deal value must be positive")
	}
	if t.Type.isPercentage() && t.Value.GreaterThan(decimal.NewFromInt(100)) {
		return shared.NewDomainError("INVALID_DISCOUNT", "Percentage deal cannot exceed 100")
	}
	if t.MinPurchase.IsNegative() || t.MaxDiscount.IsNegative() || t.UsageLimit < 0 {
		return shared.NewDomainError("INVALID_INPUT", "Limits cannot be negative")
	}
	if t.StartDate.IsZero() || t.EndDate.IsZero() || !t.EndDate.After(t.StartDate) {
		return shared.NewDomainError("INVALID_SCHEDULE", "End date must be after start date")
	}
	return nil
}

func (d *Deal) applyTerms(t Terms) {
	d.Type = t.Type
	d.Value = t.Value
	d.MinPurchase = t.MinPurchase
	d.MaxDiscount = t.MaxDiscount
	d.StartDate = t.StartDate
	d.EndDate = t.EndDate
	d.UsageLimit = t.UsageLimit
}

// Update replaces the descriptive fields and terms
func (d *Deal) Update(title, description string, terms Terms) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return shared.NewDomainError("INVALID_TITLE", "Title cannot be empty")
	}
	if err := validateTerms(terms); err != nil {
		return err
	}
	if terms.UsageLimit > 0 && terms.UsageLimit < d.UsageCount {
		return shared.NewDomainError("INVALID_INPUT", "Usage limit cannot drop below current usage")
	}
	d.Title = title
	d.Description = description
	d.applyTerms(terms)
	d.touch()
	return nil
}

// SetOptions updates flags that do not affect pricing
func (d *Deal) SetOptions(priority int, stackable, autoApply bool, tags []string) {
	d.Priority = priority
	d.Stackable = stackable
	d.AutoApply = autoApply
	if tags == nil {
		tags = []string{}
	}
	d.Tags = tags
	d.touch()
}

// SetActive toggles the deal on or off
func (d *Deal) SetActive(active bool) {
	d.IsActive = active
	d.touch()
}

// SetFeatured toggles featured placement
func (d *Deal) SetFeatured(featured bool) {
	d.IsFeatured = featured
	d.touch()
}

// IsRunning reports whether the deal is active and now falls in its window
func (d *Deal) IsRunning(now time.Time) bool {
	return d.IsActive && !now.Before(d.StartDate) && now.Before(d.EndDate)
}

// RemainingUses returns -1 when usage is unlimited
func (d *Deal) RemainingUses() int {
	if d.UsageLimit <= 0 {
		return -1
	}
	if d.UsageCount >= d.UsageLimit {
		return 0
	}
	return d.UsageLimit - d.UsageCount
}

// DiscountFor computes the discount on orderTotal without recording usage
func (d *Deal) DiscountFor(orderTotal decimal.Decimal) decimal.Decimal {
	if !orderTotal.IsPositive() {
		return decimal.Zero
	}
	discount := d.Value
	if d.Type.isPercentage() {
		discount = orderTotal.Mul(d.Value).Div(decimal.NewFromInt(100))
	}
	if d.MaxDiscount.IsPositive() && discount.GreaterThan(d.MaxDiscount) {
		discount = d.MaxDiscount
	}
	if discount.GreaterThan(orderTotal) {
		discount = orderTotal
	}
	return discount.Round(2)
}

// Apply validates the deal against an order and records one use
func (d *Deal) Apply(orderTotal decimal.Decimal, now time.Time) (decimal.Decimal, error) {
	if !d.IsActive {
		return decimal.Zero, shared.NewDomainError("INVALID_STATE", "Deal is not active")
	}
	if now.Before(d.StartDate) || !now.Before(d.EndDate) {
		return decimal.Zero, shared.ErrOutsideCampaignWindow
	}
	if d.RemainingUses() == 0 {
		return decimal.Zero, shared.ErrUsageLimitReached
	}
	if !orderTotal.IsPositive() {
		return decimal.Zero, shared.NewDomainError("INVALID_INPUT", "Order total must be positive")
	}
	if d.MinPurchase.IsPositive() && orderTotal.LessThan(d.MinPurchase) {
		return decimal.Zero, shared.ErrMinimumNotMet
	}

	discount := d.DiscountFor(orderTotal)
	d.UsageCount++
	d.TotalDiscountGiven = d.TotalDiscountGiven.Add(discount)
	d.TotalOrderValue = d.TotalOrderValue.Add(orderTotal)
	d.touch()
	return discount, nil
}

// Analytics summarizes deal usage
type Analytics struct {
	UsageCount         int             `json:"usageCount"`
	UsageLimit         int             `json:"usageLimit"`
	RemainingUses      int             `json:"remainingUses"`
	TotalDiscountGiven decimal.Decimal `json:"totalDiscountGiven"`
	TotalOrderValue    decimal.Decimal `json:"totalOrderValue"`
	AverageDiscount    decimal.Decimal `json:"averageDiscount"`
	AverageOrderValue  decimal.Decimal `json:"averageOrderValue"`
	Running            bool            `json:"running"`
}

// Analytics computes usage statistics at now
func (d *Deal) Analytics(now time.Time) Analytics {
	a := Analytics{
		UsageCount:         d.UsageCount,
		UsageLimit:         d.UsageLimit,
		RemainingUses:      d.RemainingUses(),
		TotalDiscountGiven: d.TotalDiscountGiven,
		TotalOrderValue:    d.TotalOrderValue,
		AverageDiscount:    decimal.Zero,
		AverageOrderValue:  decimal.Zero,
		Running:            d.IsRunning(now),
	}
	if d.UsageCount > 0 {
		n := decimal.NewFromInt(int64(d.UsageCount))
		a.AverageDiscount = d.TotalDiscountGiven.Div(n).Round(2)
		a.AverageOrderValue = d.TotalOrderValue.Div(n).Round(2)
	}
	return a
}

// touch stamps UpdatedAt; the repository advances Version on save
func (d *Deal) touch() {
	d.Touch()
}
