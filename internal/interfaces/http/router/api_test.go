package router

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	alertapp "github.com/destinpq/groow-sub007/internal/application/alert"
	dealapp "github.com/destinpq/groow-sub007/internal/application/deal"
	flashsaleapp "github.com/destinpq/groow-sub007/internal/application/flashsale"
	identityapp "github.com/destinpq/groow-sub007/internal/application/identity"
	orderapp "github.com/destinpq/groow-sub007/internal/application/order"
	shippingapp "github.com/destinpq/groow-sub007/internal/application/shipping"
	supportapp "github.com/destinpq/groow-sub007/internal/application/support"
	"github.com/destinpq/groow-sub007/internal/domain/identity"
	"github.com/destinpq/groow-sub007/internal/envelope"
	"github.com/destinpq/groow-sub007/internal/infrastructure/auth"
	"github.com/destinpq/groow-sub007/internal/infrastructure/cache"
	"github.com/destinpq/groow-sub007/internal/infrastructure/config"
	"github.com/destinpq/groow-sub007/internal/infrastructure/persistence"
	"github.com/destinpq/groow-sub007/internal/infrastructure/storage"
	"github.com/destinpq/groow-sub007/internal/interfaces/http/handler"
	"github.com/destinpq/groow-sub007/internal/interfaces/http/middleware"
)

const (
	adminEmail    = "admin@groow.test"
	customerEmail = "buyer@groow.test"
	otherEmail    = "other@groow.test"
	testPassword  = "Secret123!"
)

type apiEnv struct {
	engine  *gin.Engine
	storage *storage.MemoryAttachments
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	middleware.SetupValidator()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(persistence.Models()...))

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars",
		RefreshSecret:          "test-refresh-secret-key-32-chars",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: time.Hour,
		Issuer:                 "groow-test",
		MaxRefreshCount:        5,
	})
	blacklist := auth.NewInMemoryTokenBlacklist()
	authService := identityapp.NewAuthService(persistence.NewGormUserRepository(db), jwtService, blacklist,
		identityapp.DefaultAuthServiceConfig(), nil)

	ctx := context.Background()
	for email, role := range map[string]identity.Role{
		adminEmail:    identity.RoleAdmin,
		customerEmail: identity.RoleCustomer,
		otherEmail:    identity.RoleCustomer,
	} {
		_, err := authService.EnsureUser(ctx, email, testPassword, "Test "+string(role), role)
		require.NoError(t, err)
	}

	objects := storage.NewMemoryAttachments()
	h := Handlers{
		Auth: handler.NewAuthHandler(authService),
		FlashSale: handler.NewFlashSaleHandler(flashsaleapp.NewService(persistence.NewGormFlashSaleRepository(db),
			flashsaleapp.WithCache(cache.NewInMemoryStore(), time.Minute))),
		Deal: handler.NewDealHandler(dealapp.NewService(persistence.NewGormDealRepository(db), nil)),
		Shipping: handler.NewShippingHandler(shippingapp.NewService(persistence.NewGormCarrierRepository(db),
			persistence.NewGormMethodRepository(db), persistence.NewGormZoneRepository(db), nil)),
		Support: handler.NewSupportHandler(supportapp.NewService(persistence.NewGormTicketRepository(db),
			persistence.NewGormTicketMessageRepository(db), supportapp.WithStorage(objects, 15*time.Minute))),
		Alert:  handler.NewAlertHandler(alertapp.NewService(persistence.NewGormAlertRepository(db), nil)),
		Order:  handler.NewOrderHandler(orderapp.NewService(persistence.NewGormOrderRepository(db), nil)),
		System: handler.NewSystemHandler("groow-test", "test", nil),
	}

	jwtCfg := middleware.DefaultJWTConfig(jwtService)
	jwtCfg.TokenBlacklist = blacklist

	engine := gin.New()
	engine.Use(middleware.RequestID(), middleware.JWTAuthMiddlewareWithConfig(jwtCfg))
	Mount(engine, DefaultVersion, Areas(h, Options{})...)

	return &apiEnv{engine: engine, storage: objects}
}

func (e *apiEnv) do(t *testing.T, method, path, token string, body any) (int, any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, "/api/v1"+path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return e.serve(t, req, token)
}

func (e *apiEnv) serve(t *testing.T, req *http.Request, token string) (int, any) {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.engine.ServeHTTP(rec, req)
	doc, err := envelope.Parse(rec.Body.Bytes())
	require.NoError(t, err, rec.Body.String())
	return rec.Code, doc
}

func (e *apiEnv) login(t *testing.T, email string) (string, string) {
	t.Helper()
	status, doc := e.do(t, http.MethodPost, "/auth/login", "", gin.H{"email": email, "password": testPassword})
	require.Equal(t, http.StatusOK, status)
	token := envelope.ExtractToken(doc)
	require.NotEmpty(t, token)
	return token, envelope.ExtractRefreshToken(doc)
}

func data(t *testing.T, doc any) map[string]any {
	t.Helper()
	m, ok := envelope.Unwrap(doc).(map[string]any)
	require.True(t, ok, "expected object payload, got %T", envelope.Unwrap(doc))
	return m
}

// number reads a JSON number decoded by envelope.Parse
func number(t *testing.T, v any) int64 {
	t.Helper()
	n, ok := v.(json.Number)
	require.True(t, ok, "expected a JSON number, got %T", v)
	i, err := n.Int64()
	require.NoError(t, err)
	return i
}

func TestAPI_HealthIsPublic(t *testing.T) {
	env := newAPIEnv(t)

	status, doc := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", data(t, doc)["status"])
}

func TestAPI_AuthFlow(t *testing.T) {
	env := newAPIEnv(t)

	status, doc := env.do(t, http.MethodGet, "/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.NotEmpty(t, envelope.ErrorMessage(doc))

	status, doc = env.do(t, http.MethodPost, "/auth/login", "", gin.H{"email": customerEmail, "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "ERR_INVALID_CREDENTIALS", envelope.ErrorCode(doc))

	status, doc = env.do(t, http.MethodPost, "/auth/login", "", gin.H{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "ERR_VALIDATION", envelope.ErrorCode(doc))

	token, refresh := env.login(t, customerEmail)
	status, doc = env.do(t, http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, customerEmail, data(t, doc)["email"])
	assert.Equal(t, "customer", data(t, doc)["role"])

	status, doc = env.do(t, http.MethodPost, "/auth/refresh", "", gin.H{"refreshToken": refresh})
	require.Equal(t, http.StatusOK, status)
	rotated := envelope.ExtractToken(doc)
	require.NotEmpty(t, rotated)

	status, _ = env.do(t, http.MethodPost, "/auth/logout", rotated, nil)
	require.Equal(t, http.StatusOK, status)

	status, doc = env.do(t, http.MethodGet, "/auth/me", rotated, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "ERR_TOKEN_REVOKED", envelope.ErrorCode(doc))
}

func TestAPI_DealsRoleGuardAndApply(t *testing.T) {
	env := newAPIEnv(t)
	admin, _ := env.login(t, adminEmail)
	customer, _ := env.login(t, customerEmail)

	now := time.Now().UTC()
	body := gin.H{
		"title":      "Spring 20",
		"type":       "percentage",
		"value":      "20",
		"startDate":  now.Add(-time.Hour),
		"endDate":    now.Add(24 * time.Hour),
		"usageLimit": 5,
	}

	status, doc := env.do(t, http.MethodPost, "/marketing/deals", customer, body)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "ERR_FORBIDDEN", envelope.ErrorCode(doc))

	status, doc = env.do(t, http.MethodPost, "/marketing/deals", admin, body)
	require.Equal(t, http.StatusCreated, status)
	id := data(t, doc)["id"].(string)

	status, doc = env.do(t, http.MethodGet, "/marketing/deals?page=1&limit=10", customer, nil)
	require.Equal(t, http.StatusOK, status)
	list := envelope.UnwrapList(doc)
	assert.Len(t, list.Items, 1)
	assert.Equal(t, envelope.PaginationInfo{Page: 1, Limit: 10, Total: 1, TotalPages: 1}, list.Pagination)

	status, doc = env.do(t, http.MethodPost, "/marketing/deals/"+id+"/apply", customer, gin.H{"orderId": "ORD-1", "orderTotal": "100"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "20", data(t, doc)["discount"])
	assert.Equal(t, "80", data(t, doc)["finalTotal"])

	status, _ = env.do(t, http.MethodPut, "/marketing/deals/"+id+"/status", admin, gin.H{"isActive": false})
	require.Equal(t, http.StatusOK, status)

	status, doc = env.do(t, http.MethodPost, "/marketing/deals/"+id+"/apply", customer, gin.H{"orderId": "ORD-2", "orderTotal": "100"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "ERR_INVALID_STATE", envelope.ErrorCode(doc))

	status, _ = env.do(t, http.MethodGet, "/marketing/deals/not-a-uuid", customer, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAPI_FlashSaleLifecycle(t *testing.T) {
	env := newAPIEnv(t)
	admin, _ := env.login(t, adminEmail)
	customer, _ := env.login(t, customerEmail)

	now := time.Now().UTC()
	status, doc := env.do(t, http.MethodPost, "/flash-sales/service-campaigns", admin, gin.H{
		"title":                  "Midnight madness",
		"startTime":              now.Add(-time.Minute),
		"endTime":                now.Add(2 * time.Hour),
		"discountType":           "percentage",
		"discountValue":          "25",
		"totalInventory":         10,
		"maxQuantityPerCustomer": 3,
	})
	require.Equal(t, http.StatusCreated, status)
	id := data(t, doc)["id"].(string)

	status, doc = env.do(t, http.MethodPost, "/flash-sales/service-campaigns/"+id+"/reserve", customer, gin.H{"quantity": 1})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "ERR_INVALID_STATE", envelope.ErrorCode(doc))

	status, _ = env.do(t, http.MethodPost, "/flash-sales/service-campaigns/"+id+"/start", admin, nil)
	require.Equal(t, http.StatusOK, status)

	status, doc = env.do(t, http.MethodGet, "/flash-sales/service-campaigns/active", customer, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, envelope.UnwrapList(doc).Items, 1)

	status, doc = env.do(t, http.MethodPost, "/flash-sales/service-campaigns/"+id+"/reserve", customer, gin.H{"quantity": 4})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "ERR_QUANTITY_LIMIT_EXCEEDED", envelope.ErrorCode(doc))

	status, doc = env.do(t, http.MethodPost, "/flash-sales/service-campaigns/"+id+"/reserve", customer, gin.H{"quantity": 3})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(7), number(t, data(t, doc)["remainingQuantity"]))

	status, doc = env.do(t, http.MethodGet, "/flash-sales/service-campaigns/"+id+"/countdown", customer, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "active", data(t, doc)["status"])

	status, _ = env.do(t, http.MethodPost, "/flash-sales/service-campaigns/"+id+"/pause", customer, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, doc = env.do(t, http.MethodPost, "/flash-sales/service-campaigns/"+id+"/end", admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ended", data(t, doc)["status"])

	status, doc = env.do(t, http.MethodPost, "/flash-sales/service-campaigns/"+id+"/resume", admin, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "ERR_INVALID_STATE", envelope.ErrorCode(doc))
}

func TestAPI_ShippingRates(t *testing.T) {
	env := newAPIEnv(t)
	admin, _ := env.login(t, adminEmail)
	customer, _ := env.login(t, customerEmail)

	status, doc := env.do(t, http.MethodPost, "/shipping/carriers", admin, gin.H{
		"code": "DHL", "name": "DHL Express", "supportedCountries": []string{"DE", "US"},
	})
	require.Equal(t, http.StatusCreated, status)
	carrierID := data(t, doc)["id"].(string)

	status, _ = env.do(t, http.MethodPost, "/shipping/methods", admin, gin.H{
		"carrierId": carrierID, "code": "DHL-STD", "name": "Standard", "serviceType": "standard",
		"minDays": 2, "maxDays": 5, "baseRate": "4.99", "weightMultiplier": "1.5",
	})
	require.Equal(t, http.StatusCreated, status)

	status, doc = env.do(t, http.MethodPost, "/shipping/rates", customer, gin.H{"country": "de", "weightKg": "2", "orderTotal": "50"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "DE", data(t, doc)["country"])
	assert.Equal(t, int64(1), number(t, data(t, doc)["count"]))

	status, doc = env.do(t, http.MethodDelete, "/shipping/carriers/"+carrierID, admin, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "ERR_INVALID_STATE", envelope.ErrorCode(doc))
}

func TestAPI_SupportTickets(t *testing.T) {
	env := newAPIEnv(t)
	admin, _ := env.login(t, adminEmail)
	customer, _ := env.login(t, customerEmail)
	other, _ := env.login(t, otherEmail)

	status, doc := env.do(t, http.MethodPost, "/support/tickets", customer, gin.H{
		"subject": "Parcel missing", "description": "Order ORD-9 never arrived", "category": "shipping",
	})
	require.Equal(t, http.StatusCreated, status)
	id := data(t, doc)["id"].(string)
	assert.NotEmpty(t, data(t, doc)["ticketNumber"])

	status, _ = env.do(t, http.MethodGet, "/support/tickets/"+id, other, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = env.do(t, http.MethodPost, "/support/tickets/"+id+"/messages", admin, gin.H{"message": "Checking with the carrier"})
	require.Equal(t, http.StatusCreated, status)

	status, doc = env.do(t, http.MethodGet, "/support/tickets/"+id+"/messages", customer, nil)
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, envelope.UnwrapList(doc).Items)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "receipt.txt")
	require.NoError(t, err)
	_, _ = part.Write([]byte("paid in full"))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/support/tickets/"+id+"/attachments", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	status, doc = env.serve(t, req, customer)
	require.Equal(t, http.StatusCreated, status)
	attID := data(t, doc)["id"].(string)
	key := data(t, doc)["key"].(string)
	stored, _, ok := env.storage.Object(key)
	require.True(t, ok)
	assert.Equal(t, "paid in full", string(stored))

	status, doc = env.do(t, http.MethodGet, "/support/tickets/"+id+"/attachments/"+attID+"/url", customer, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, data(t, doc)["url"], "https://storage.example.com/download/")

	status, _ = env.do(t, http.MethodPatch, "/support/tickets/"+id+"/status", customer, gin.H{"status": "resolved"})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = env.do(t, http.MethodPatch, "/support/tickets/"+id+"/status", admin, gin.H{"status": "resolved", "resolution": "Reshipped"})
	require.Equal(t, http.StatusOK, status)

	status, doc = env.do(t, http.MethodPost, "/support/tickets/"+id+"/rating", customer, gin.H{"rating": 5})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(5), number(t, data(t, doc)["rating"]))

	status, doc = env.do(t, http.MethodGet, "/support/tickets/stats", customer, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(1), number(t, data(t, doc)["total"]))
}

func TestAPI_InventoryAlerts(t *testing.T) {
	env := newAPIEnv(t)
	admin, _ := env.login(t, adminEmail)
	customer, _ := env.login(t, customerEmail)

	raise := gin.H{
		"productId":    uuid.NewString(),
		"productName":  "Trail shoe",
		"alertType":    "low_stock",
		"currentStock": 3,
		"threshold":    10,
	}

	status, _ := env.do(t, http.MethodGet, "/inventory/alerts", customer, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, doc := env.do(t, http.MethodPost, "/inventory/alerts", admin, raise)
	require.Equal(t, http.StatusCreated, status)
	id := data(t, doc)["id"].(string)

	raise["currentStock"] = 1
	status, doc = env.do(t, http.MethodPost, "/inventory/alerts", admin, raise)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, id, data(t, doc)["id"])

	status, doc = env.do(t, http.MethodPost, "/inventory/alerts/"+id+"/acknowledge", admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "acknowledged", data(t, doc)["status"])

	status, doc = env.do(t, http.MethodPost, "/inventory/alerts/"+id+"/dismiss", admin, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "ERR_INVALID_STATE", envelope.ErrorCode(doc))

	status, doc = env.do(t, http.MethodGet, "/inventory/alerts/stats", admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(1), number(t, data(t, doc)["total"]))
}

func TestAPI_OrderTracking(t *testing.T) {
	env := newAPIEnv(t)
	admin, _ := env.login(t, adminEmail)
	customer, _ := env.login(t, customerEmail)
	other, _ := env.login(t, otherEmail)

	status, doc := env.do(t, http.MethodGet, "/auth/me", customer, nil)
	require.Equal(t, http.StatusOK, status)
	customerID := data(t, doc)["id"].(string)

	status, _ = env.do(t, http.MethodPost, "/orders", admin, gin.H{
		"orderNumber": "ORD-1001", "customerId": customerID, "total": "59.90", "currency": "USD", "itemCount": 2,
	})
	require.Equal(t, http.StatusCreated, status)

	status, doc = env.do(t, http.MethodGet, "/orders/my-orders", customer, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, envelope.UnwrapList(doc).Pagination.Total)

	status, _ = env.do(t, http.MethodGet, "/orders/ORD-1001", other, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = env.do(t, http.MethodPatch, "/orders/ORD-1001/status", admin, gin.H{
		"status": "shipped", "carrier": "DHL", "trackingNumber": "JD0001", "location": "Leipzig hub",
	})
	require.Equal(t, http.StatusOK, status)

	status, doc = env.do(t, http.MethodGet, "/orders/ORD-1001/tracking", customer, nil)
	require.Equal(t, http.StatusOK, status)
	tracking := data(t, doc)
	assert.Equal(t, "shipped", tracking["status"])
	assert.Equal(t, "DHL", tracking["carrier"])
	assert.NotEmpty(t, tracking["updates"])
}
