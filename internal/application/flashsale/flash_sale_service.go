// Package flashsale implements the flash sale campaign use cases.
package flashsale

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/destinpq/groow-sub007/internal/domain/flashsale"
	"github.com/destinpq/groow-sub007/internal/domain/shared"
	"github.com/destinpq/groow-sub007/internal/infrastructure/cache"
)

// ActiveCacheKey holds the cached list of live campaigns
const ActiveCacheKey = "flash-sales:active"

// conflictRetries bounds how often a contended write is reloaded and retried
const conflictRetries = 5

// Service handles flash sale campaign operations
type Service struct {
	repo      flashsale.Repository
	cache     cache.Store
	activeTTL time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// Option configures the service
type Option func(*Service)

// WithCache caches the active list in store for ttl
func WithCache(store cache.Store, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = store
		s.activeTTL = ttl
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new flash sale service
func NewService(repo flashsale.Repository, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns a page of campaigns
func (s *Service) List(ctx context.Context, filter ListFilter) ([]FlashSaleResponse, int64, error) {
	f := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.Limit,
		OrderBy:  shared.SortColumn(filter.SortBy),
		OrderDir: filter.SortOrder,
		Search:   filter.Search,
		Filters:  map[string]any{},
	}
	if filter.Status != "" {
		f.Filters["status"] = filter.Status
	}
	if filter.CampaignType != "" {
		f.Filters["campaign_type"] = filter.CampaignType
	}
	if filter.Featured != nil {
		f.Filters["featured"] = *filter.Featured
	}
	f = f.Normalize()

	list, err := s.repo.FindAll(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	return ToFlashSaleResponses(list, s.now()), total, nil
}

// Search matches campaigns by title, code or description
func (s *Service) Search(ctx context.Context, q string, page, limit int) ([]FlashSaleResponse, int64, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, 0, shared.NewDomainError("INVALID_INPUT", "Search query is required")
	}
	return s.List(ctx, ListFilter{Search: q, Page: page, Limit: limit})
}

// Get returns one campaign
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*FlashSaleResponse, error) {
	fs, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToFlashSaleResponse(fs, s.now())
	return &resp, nil
}

// Create creates a draft campaign. A missing campaign code is generated.
func (s *Service) Create(ctx context.Context, req CreateFlashSaleRequest) (*FlashSaleResponse, error) {
	code := strings.ToUpper(strings.TrimSpace(req.CampaignCode))
	if code == "" {
		generated, err := s.freshCode(ctx, "FS")
		if err != nil {
			return nil, err
		}
		code = generated
	} else {
		exists, err := s.repo.ExistsByCode(ctx, code)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "Campaign with this code already exists")
		}
	}

	fs, err := flashsale.NewFlashSale(code, req.Title, flashsale.CampaignType(req.CampaignType), flashsale.Schedule{
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		DiscountType:  flashsale.DiscountType(req.DiscountType),
		DiscountValue: req.DiscountValue,
		Tiers:         toDomainTiers(req.Tiers),
	}, req.TotalInventory)
	if err != nil {
		return nil, err
	}

	if err := fs.UpdateDetails(req.Title, req.Description, req.Priority, req.IsFeatured); err != nil {
		return nil, err
	}
	maxDiscount := decimalOr(req.MaxDiscountAmount, decimal.Zero)
	minOrder := decimalOr(req.MinOrderValue, decimal.Zero)
	if err := fs.SetLimits(req.TotalInventory, req.MaxQuantityPerCustomer, maxDiscount, minOrder); err != nil {
		return nil, err
	}
	fs.SetAutomation(boolOr(req.AutoStart, false), boolOr(req.AutoEnd, true))
	fs.ShowCountdown = boolOr(req.ShowCountdown, true)

	if err := s.save(ctx, fs); err != nil {
		return nil, err
	}
	s.logger.Info("Flash sale created", zap.String("id", fs.ID.String()), zap.String("code", fs.CampaignCode))
	resp := ToFlashSaleResponse(fs, s.now())
	return &resp, nil
}

// Update applies the non-nil fields of req
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateFlashSaleRequest) (*FlashSaleResponse, error) {
	fs, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil || req.Description != nil || req.Priority != nil || req.IsFeatured != nil {
		if err := fs.UpdateDetails(
			stringOr(req.Title, fs.Title),
			stringOr(req.Description, fs.Description),
			intOr(req.Priority, fs.Priority),
			boolOr(req.IsFeatured, fs.IsFeatured),
		); err != nil {
			return nil, err
		}
	}

	if req.StartTime != nil || req.EndTime != nil || req.DiscountType != nil || req.DiscountValue != nil || req.Tiers != nil {
		sched := flashsale.Schedule{
			StartTime:     timeOr(req.StartTime, fs.StartTime),
			EndTime:       timeOr(req.EndTime, fs.EndTime),
			DiscountType:  fs.DiscountType,
			DiscountValue: decimalOr(req.DiscountValue, fs.DiscountValue),
			Tiers:         fs.Tiers,
		}
		if req.DiscountType != nil {
			sched.DiscountType = flashsale.DiscountType(*req.DiscountType)
		}
		if req.Tiers != nil {
			sched.Tiers = toDomainTiers(req.Tiers)
		}
		if err := fs.Reschedule(sched); err != nil {
			return nil, err
		}
	}

	if req.TotalInventory != nil || req.MaxQuantityPerCustomer != nil || req.MaxDiscountAmount != nil || req.MinOrderValue != nil {
		if err := fs.SetLimits(
			intOr(req.TotalInventory, fs.TotalInventory),
			intOr(req.MaxQuantityPerCustomer, fs.MaxQuantityPerCustomer),
			decimalOr(req.MaxDiscountAmount, fs.MaxDiscountAmount),
			decimalOr(req.MinOrderValue, fs.MinOrderValue),
		); err != nil {
			return nil, err
		}
	}

	if req.AutoStart != nil || req.AutoEnd != nil {
		fs.SetAutomation(boolOr(req.AutoStart, fs.AutoStart), boolOr(req.AutoEnd, fs.AutoEnd))
	}
	if req.ShowCountdown != nil {
		fs.ShowCountdown = *req.ShowCountdown
	}

	if err := s.save(ctx, fs); err != nil {
		return nil, err
	}
	s.invalidateActive(ctx)
	resp := ToFlashSaleResponse(fs, s.now())
	return &resp, nil
}

// Delete removes a campaign that is not running
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	fs, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !fs.CanDelete() {
		return shared.NewDomainError("INVALID_STATE", "Cannot delete a running campaign; end or cancel it first")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateActive(ctx)
	return nil
}

// Schedule moves a draft to scheduled
func (s *Service) Schedule(ctx context.Context, id uuid.UUID) (*FlashSaleResponse, error) {
	return s.mutate(ctx, id, "schedule", func(fs *flashsale.FlashSale, _ time.Time) error {
		return fs.ScheduleCampaign()
	})
}

// Start activates a campaign now
func (s *Service) Start(ctx context.Context, id uuid.UUID) (*FlashSaleResponse, error) {
	return s.mutate(ctx, id, "start", func(fs *flashsale.FlashSale, now time.Time) error {
		return fs.Start(now)
	})
}

// Pause suspends an active campaign
func (s *Service) Pause(ctx context.Context, id uuid.UUID) (*FlashSaleResponse, error) {
	return s.mutate(ctx, id, "pause", func(fs *flashsale.FlashSale, _ time.Time) error {
		return fs.Pause()
	})
}

// Resume reactivates a paused campaign
func (s *Service) Resume(ctx context.Context, id uuid.UUID) (*FlashSaleResponse, error) {
	return s.mutate(ctx, id, "resume", func(fs *flashsale.FlashSale, now time.Time) error {
		return fs.Resume(now)
	})
}

// End closes a running campaign
func (s *Service) End(ctx context.Context, id uuid.UUID) (*FlashSaleResponse, error) {
	return s.mutate(ctx, id, "end", func(fs *flashsale.FlashSale, now time.Time) error {
		return fs.End(now)
	})
}

// Cancel aborts an unfinished campaign
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*FlashSaleResponse, error) {
	return s.mutate(ctx, id, "cancel", func(fs *flashsale.FlashSale, now time.Time) error {
		return fs.Cancel(now)
	})
}

// Extend pushes the end time back
func (s *Service) Extend(ctx context.Context, id uuid.UUID, minutes int) (*FlashSaleResponse, error) {
	return s.mutate(ctx, id, "extend", func(fs *flashsale.FlashSale, _ time.Time) error {
		return fs.Extend(minutes)
	})
}

// Duplicate copies a campaign into a new draft with a fresh code
func (s *Service) Duplicate(ctx context.Context, id uuid.UUID) (*FlashSaleResponse, error) {
	src, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	code, err := s.freshCode(ctx, baseCode(src.CampaignCode))
	if err != nil {
		return nil, err
	}
	dup, err := src.Duplicate(code)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, dup); err != nil {
		return nil, err
	}
	s.logger.Info("Flash sale duplicated",
		zap.String("source_id", src.ID.String()),
		zap.String("id", dup.ID.String()),
		zap.String("code", dup.CampaignCode))
	resp := ToFlashSaleResponse(dup, s.now())
	return &resp, nil
}

// Reserve holds units of campaign stock. The check is repeated
// against a fresh copy when another request saved the campaign first
func (s *Service) Reserve(ctx context.Context, id uuid.UUID, quantity int) (*ReservationResponse, error) {
	var fs *flashsale.FlashSale
	err := shared.RetryOnConflict(conflictRetries, func() error {
		var err error
		if fs, err = s.repo.FindByID(ctx, id); err != nil {
			return err
		}
		if err := fs.Reserve(quantity, s.now()); err != nil {
			return err
		}
		return s.save(ctx, fs)
	})
	if err != nil {
		return nil, err
	}
	s.invalidateActive(ctx)
	return &ReservationResponse{
		FlashSaleID:       fs.ID,
		Quantity:          quantity,
		ReservedQuantity:  fs.ReservedQuantity,
		RemainingQuantity: fs.RemainingQuantity(),
	}, nil
}

// Quote computes the discount the campaign grants on orderValue
func (s *Service) Quote(ctx context.Context, id uuid.UUID, orderValue decimal.Decimal) (*DiscountQuote, error) {
	if orderValue.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Order value cannot be negative")
	}
	fs, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	live := fs.IsLive(now)
	discount := decimal.Zero
	if live {
		discount = fs.DiscountFor(orderValue)
	}
	return &DiscountQuote{
		FlashSaleID: fs.ID,
		OrderValue:  orderValue,
		Discount:    discount,
		FinalPrice:  orderValue.Sub(discount),
		Live:        live,
	}, nil
}

// Active returns the live campaigns, served from cache when fresh
func (s *Service) Active(ctx context.Context) ([]FlashSaleResponse, error) {
	if s.cache != nil {
		var cached []FlashSaleResponse
		ok, err := cache.GetJSON(ctx, s.cache, ActiveCacheKey, &cached)
		if err != nil {
			s.logger.Warn("Reading active flash sale cache failed", zap.Error(err))
		} else if ok {
			return cached, nil
		}
	}

	now := s.now()
	list, err := s.repo.FindActive(ctx, now)
	if err != nil {
		return nil, err
	}
	resp := ToFlashSaleResponses(list, now)

	if s.cache != nil {
		if err := cache.SetJSON(ctx, s.cache, ActiveCacheKey, resp, s.activeTTL); err != nil {
			s.logger.Warn("Writing active flash sale cache failed", zap.Error(err))
		}
	}
	return resp, nil
}

// Upcoming lists scheduled campaigns starting within hours
func (s *Service) Upcoming(ctx context.Context, hours int) ([]FlashSaleResponse, error) {
	if hours <= 0 {
		hours = 24
	}
	if hours > 720 {
		hours = 720
	}
	now := s.now()
	list, err := s.repo.FindUpcoming(ctx, now, now.Add(time.Duration(hours)*time.Hour))
	if err != nil {
		return nil, err
	}
	return ToFlashSaleResponses(list, now), nil
}

// Countdown returns the timing snapshot of a campaign
func (s *Service) Countdown(ctx context.Context, id uuid.UUID) (*flashsale.Countdown, error) {
	fs, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	cd := fs.Countdown(s.now())
	return &cd, nil
}

// SweepDue starts scheduled campaigns whose start time has come and ends
// running ones whose end time has passed, for campaigns that opted in.
// A failing campaign is logged and skipped so one bad row cannot stall the rest.
func (s *Service) SweepDue(ctx context.Context) (SweepResult, error) {
	var result SweepResult
	now := s.now()
	due, err := s.repo.FindDue(ctx, now)
	if err != nil {
		return result, err
	}

	for i := range due {
		fs := &due[i]
		var action string
		var err error
		switch {
		case fs.AutoEnd && (fs.Status == flashsale.StatusActive || fs.Status == flashsale.StatusPaused) && !now.Before(fs.EndTime):
			action = "end"
			err = fs.End(now)
		case fs.AutoStart && fs.Status == flashsale.StatusScheduled && !now.Before(fs.StartTime):
			action = "start"
			err = fs.Start(now)
		default:
			continue
		}
		if err == nil {
			err = s.save(ctx, fs)
		}
		if err != nil {
			result.Failed++
			s.logger.Warn("Flash sale automation failed",
				zap.String("id", fs.ID.String()),
				zap.String("action", action),
				zap.Error(err))
			continue
		}
		if action == "end" {
			result.Ended++
		} else {
			result.Started++
		}
	}

	if result.Started+result.Ended > 0 {
		s.invalidateActive(ctx)
		s.logger.Info("Flash sale sweep applied",
			zap.Int("started", result.Started),
			zap.Int("ended", result.Ended))
	}
	return result, nil
}

func (s *Service) mutate(ctx context.Context, id uuid.UUID, action string, fn func(*flashsale.FlashSale, time.Time) error) (*FlashSaleResponse, error) {
	fs, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	from := fs.Status
	if err := fn(fs, now); err != nil {
		return nil, err
	}
	if err := s.save(ctx, fs); err != nil {
		return nil, err
	}
	s.invalidateActive(ctx)
	s.logger.Info("Flash sale "+action,
		zap.String("id", fs.ID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(fs.Status)))
	resp := ToFlashSaleResponse(fs, now)
	return &resp, nil
}

func (s *Service) invalidateActive(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, ActiveCacheKey); err != nil {
		s.logger.Warn("Invalidating active flash sale cache failed", zap.Error(err))
	}
}

// freshCode returns prefix-YYYYMMDD-XXXX that no campaign uses yet
func (s *Service) freshCode(ctx context.Context, prefix string) (string, error) {
	day := s.now().UTC().Format("20060102")
	for attempt := 0; attempt < 5; attempt++ {
		suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:4]
		code := fmt.Sprintf("%s-%s-%s", prefix, day, suffix)
		if len(code) > 50 {
			code = code[len(code)-50:]
		}
		exists, err := s.repo.ExistsByCode(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", errors.New("could not generate a unique campaign code")
}

// baseCode strips a previously generated date suffix so copies of copies
// stay readable
func baseCode(code string) string {
	parts := strings.Split(code, "-")
	if len(parts) >= 3 && len(parts[len(parts)-2]) == 8 {
		return strings.Join(parts[:len(parts)-2], "-")
	}
	return code
}

func decimalOr(v *decimal.Decimal, def decimal.Decimal) decimal.Decimal {
	if v == nil {
		return def
	}
	return *v
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func stringOr(v *string, def string) string {
	if v == nil {
		return def
	}
	return *v
}

func timeOr(v *time.Time, def time.Time) time.Time {
	if v == nil {
		return def
	}
	return *v
}

// save persists fs and then drains the events it recorded
func (s *Service) save(ctx context.Context, fs *flashsale.FlashSale) error {
	if err := s.repo.Save(ctx, fs); err != nil {
		return err
	}
	for _, e := range fs.PullEvents() {
		changed, ok := e.(*flashsale.StatusChangedEvent)
		if !ok {
			continue
		}
		s.logger.Debug("Flash sale status changed",
			zap.String("id", changed.Subject().String()),
			zap.String("campaign_code", changed.CampaignCode),
			zap.String("from", string(changed.From)),
			zap.String("to", string(changed.To)),
			zap.Time("at", changed.At()))
	}
	return nil
}
