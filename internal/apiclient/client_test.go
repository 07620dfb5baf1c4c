package apiclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(maxRetries int) *RetryConfig {
	return &RetryConfig{
		MaxRetries:   maxRetries,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2,
	}
}

func newTestClient(t *testing.T, handler http.Handler, mutate ...func(*Config)) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := Config{BaseURL: srv.URL, APIPrefix: "api/v1", Retry: fastRetry(2)}
	for _, m := range mutate {
		m(&cfg)
	}
	c, err := New(cfg)
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestNew_ValidatesBaseURL(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	_, err = New(Config{BaseURL: "localhost"})
	assert.Error(t, err)

	c, err := New(Config{BaseURL: "http://api.test/", APIPrefix: "/api/v1/"})
	require.NoError(t, err)
	assert.Equal(t, "http://api.test/api/v1/deals?page=2", c.url("deals", map[string][]string{"page": {"2"}}))
	assert.Equal(t, 10, c.cfg.MaxConcurrent)
	assert.Equal(t, DefaultRetryConfig(), *c.cfg.Retry)
}

func TestNew_RetryConfig(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeJSON(w, http.StatusInternalServerError, `{"success":false}`)
	}))
	t.Cleanup(srv.Close)

	t.Run("empty config disables retries", func(t *testing.T) {
		hits.Store(0)
		retry := &RetryConfig{}
		c, err := New(Config{BaseURL: srv.URL, Retry: retry})
		require.NoError(t, err)
		assert.Equal(t, 0, c.cfg.Retry.MaxRetries)
		assert.Equal(t, time.Second, c.cfg.Retry.InitialDelay)
		assert.Equal(t, RetryConfig{}, *retry, "the caller's config is not modified")

		_, err = c.Do(context.Background(), Request{Method: http.MethodPost, Path: "/orders", Body: map[string]any{"n": 1}})
		require.Error(t, err)
		assert.EqualValues(t, 1, hits.Load())
	})

	t.Run("negative retries clamp to zero", func(t *testing.T) {
		c, err := New(Config{BaseURL: srv.URL, Retry: &RetryConfig{MaxRetries: -1}})
		require.NoError(t, err)
		assert.Equal(t, 0, c.cfg.Retry.MaxRetries)
	})
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			writeJSON(w, http.StatusServiceUnavailable, `{"success":false}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"success":true,"data":{"ok":true}}`)
	}))

	resp, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/ping"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3, resp.Attempts)
	assert.Equal(t, int32(3), hits.Load())
}

func TestClient_GivesUpAfterMaxRetries(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeJSON(w, http.StatusInternalServerError,
			`{"success":false,"error":{"code":"ERR_INTERNAL","message":"db exploded","request_id":"req-9"}}`)
	}))

	resp, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/ping"})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, int32(3), hits.Load())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "ERR_INTERNAL", apiErr.Code)
	assert.Equal(t, MsgServer, apiErr.Message)
	assert.Equal(t, "req-9", apiErr.RequestID)
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("X-Request-ID", "hdr-1")
		writeJSON(w, http.StatusNotFound, `{"success":false,"error":{"code":"ERR_NOT_FOUND","message":"Deal not found"}}`)
	}))

	_, err := c.Deals.Get(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
	assert.True(t, IsNotFound(err))
	assert.Equal(t, http.StatusNotFound, StatusOf(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Deal not found", apiErr.Message)
	assert.Equal(t, "hdr-1", apiErr.RequestID)
	assert.Equal(t, "404 ERR_NOT_FOUND: Deal not found", apiErr.Error())
}

func TestClient_ErrorMessages(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"slow"}}`, MsgRateLimited},
		{"plain message field", http.StatusBadRequest, `{"message":"bad input"}`, "bad input"},
		{"no body", http.StatusForbidden, ``, "Forbidden"},
		{"unknown status", 499, `not json`, MsgUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			}), func(cfg *Config) { cfg.Retry = fastRetry(0) })

			_, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/x"})
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.message, apiErr.Message)
		})
	}
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := New(Config{BaseURL: base, Retry: fastRetry(1)})
	require.NoError(t, err)

	resp, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/health"})
	assert.Nil(t, resp)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 0, apiErr.StatusCode)
	assert.Equal(t, "NETWORK_ERROR", apiErr.Code)
	assert.Equal(t, MsgNetwork, apiErr.Error())
	assert.NotNil(t, errors.Unwrap(apiErr))
}

func TestClient_ContextCancelStopsRetries(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadGateway, `{}`)
	}), func(cfg *Config) {
		cfg.Retry = &RetryConfig{MaxRetries: 5, InitialDelay: time.Second, MaxDelay: time.Second, Multiplier: 1}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/x"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

// authServer accepts only "Bearer <valid>" and rotates on /auth/refresh.
type authServer struct {
	mu        sync.Mutex
	valid     string
	refreshes atomic.Int32
	refreshOK bool
}

func (s *authServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/v1/auth/refresh":
		s.refreshes.Add(1)
		if !s.refreshOK {
			writeJSON(w, http.StatusUnauthorized, `{"success":false,"error":{"code":"ERR_TOKEN_REVOKED","message":"revoked"}}`)
			return
		}
		s.mu.Lock()
		s.valid = "access-2"
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, `{"success":true,"data":{"accessToken":"access-2","refreshToken":"refresh-2"}}`)
	default:
		s.mu.Lock()
		valid := s.valid
		s.mu.Unlock()
		if r.Header.Get("Authorization") != "Bearer "+valid {
			writeJSON(w, http.StatusUnauthorized, `{"success":false,"error":{"code":"ERR_UNAUTHORIZED","message":"expired"}}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"success":true,"data":{"id":"u1","email":"a@b.c"}}`)
	}
}

func TestClient_RefreshesOnceOn401(t *testing.T) {
	srv := &authServer{valid: "access-1", refreshOK: true}
	c := newTestClient(t, srv)
	c.Tokens().SetTokens("stale", "refresh-1")

	resp, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/auth/me"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "access-2", c.Tokens().AccessToken())
	assert.Equal(t, "refresh-2", c.Tokens().RefreshToken())
	assert.Equal(t, int32(1), srv.refreshes.Load())
}

func TestClient_ConcurrentUnauthorizedShareOneRefresh(t *testing.T) {
	srv := &authServer{valid: "access-0", refreshOK: true}
	c := newTestClient(t, srv)
	c.Tokens().SetTokens("stale", "refresh-1")

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/auth/me"})
		}()
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), srv.refreshes.Load())
}

func TestClient_FailedRefreshClearsSession(t *testing.T) {
	srv := &authServer{valid: "access-1"}
	c := newTestClient(t, srv)
	c.Tokens().SetTokens("stale", "refresh-1")

	_, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/auth/me"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, http.StatusUnauthorized, StatusOf(err))
	assert.Empty(t, c.Tokens().AccessToken())
	assert.Empty(t, c.Tokens().RefreshToken())
}

func TestClient_NoAuthSkipsBearerAndRefresh(t *testing.T) {
	var auth atomic.Value
	srv := &authServer{}
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/health" {
			auth.Store(r.Header.Get("Authorization"))
			writeJSON(w, http.StatusOK, `{"success":true,"data":{"status":"ok"}}`)
			return
		}
		srv.ServeHTTP(w, r)
	}))
	c.Tokens().SetTokens("access-1", "refresh-1")

	require.NoError(t, c.HealthCheck(context.Background()))
	assert.Equal(t, "", auth.Load())

	_, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/public", NoAuth: true})
	assert.Equal(t, http.StatusUnauthorized, StatusOf(err))
	assert.Equal(t, int32(0), srv.refreshes.Load())
	assert.Equal(t, "access-1", c.Tokens().AccessToken())
}

func TestClient_ConcurrencyCap(t *testing.T) {
	var inflight, peak atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inflight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inflight.Add(-1)
		writeJSON(w, http.StatusOK, fmt.Sprintf(`{"success":true,"data":%q}`, r.URL.Query().Get("n")))
	}), func(cfg *Config) { cfg.MaxConcurrent = 2 })

	reqs := make([]Request, 6)
	for i := range reqs {
		reqs[i] = Request{Method: http.MethodGet, Path: "/echo", Query: map[string][]string{"n": {fmt.Sprint(i)}}}
	}
	results := c.Batch(context.Background(), reqs)

	require.Len(t, results, 6)
	for i, r := range results {
		require.True(t, r.OK())
		assert.Contains(t, string(r.Value.Body), fmt.Sprintf(`"%d"`, i))
	}
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestAll_KeepsOrderAndErrors(t *testing.T) {
	boom := errors.New("boom")
	results := All(context.Background(),
		func(context.Context) (int, error) { return 1, nil },
		func(context.Context) (int, error) { return 0, boom },
		func(context.Context) (int, error) { return 3, nil },
	)
	require.Len(t, results, 3)
	assert.Equal(t, 1, results[0].Value)
	assert.ErrorIs(t, results[1].Err, boom)
	v, err := results[2].Unwrap()
	assert.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestClient_ListUnwrapsEnvelopes(t *testing.T) {
	id := uuid.New()
	item := fmt.Sprintf(`{"id":%q,"title":"Spring","value":"15","isActive":true}`, id)
	tests := []struct {
		name       string
		body       string
		total      int
		page       int
		totalPages int
	}{
		{
			name:       "canonical meta",
			body:       `{"success":true,"data":[` + item + `],"meta":{"total":3,"page":2,"limit":1,"totalPages":3}}`,
			total:      3,
			page:       2,
			totalPages: 3,
		},
		{
			name:       "nested items",
			body:       `{"data":{"items":[` + item + `],"total":7}}`,
			total:      7,
			page:       2,
			totalPages: 7,
		},
		{
			name:       "bare array",
			body:       `[` + item + `]`,
			total:      1,
			page:       2,
			totalPages: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var query string
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				query = r.URL.RawQuery
				writeJSON(w, http.StatusOK, tt.body)
			}))

			page, err := c.Deals.List(context.Background(), ListParams{Page: 2, Limit: 1, Filters: map[string]string{"isActive": "true"}})
			require.NoError(t, err)
			require.Len(t, page.Items, 1)
			assert.Equal(t, id, page.Items[0].ID)
			assert.Equal(t, "15", page.Items[0].Value.String())
			assert.Equal(t, tt.total, page.Pagination.Total)
			assert.Equal(t, tt.page, page.Pagination.Page)
			assert.Equal(t, tt.totalPages, page.Pagination.TotalPages)
			assert.Contains(t, query, "isActive=true")
			assert.Contains(t, query, "page=2")
		})
	}
}

func TestAuthService_LoginAndLogout(t *testing.T) {
	var logoutBody string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/login":
			assert.Empty(t, r.Header.Get("Authorization"))
			writeJSON(w, http.StatusOK, `{"success":true,"data":{"accessToken":"a1","refreshToken":"r1","tokenType":"Bearer","expiresIn":900}}`)
		case "/api/v1/auth/logout":
			raw, _ := io.ReadAll(r.Body)
			logoutBody = string(raw)
			writeJSON(w, http.StatusInternalServerError, `{}`)
		}
	}), func(cfg *Config) { cfg.Retry = fastRetry(0) })

	tokens, err := c.Auth.Login(context.Background(), "a@b.c", "pw")
	require.NoError(t, err)
	assert.Equal(t, "a1", tokens.AccessToken)
	assert.Equal(t, int64(900), tokens.ExpiresIn)
	assert.Equal(t, "a1", c.Tokens().AccessToken())

	err = c.Auth.Logout(context.Background())
	assert.Error(t, err)
	assert.Contains(t, logoutBody, `"refreshToken":"r1"`)
	assert.Empty(t, c.Tokens().AccessToken())
	assert.Empty(t, c.Tokens().RefreshToken())
}

func TestAuthService_RefreshWithoutToken(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler())
	_, err := c.Auth.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestSupportService_UploadAttachment(t *testing.T) {
	ticketID := uuid.New()
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/support/tickets/"+ticketID.String()+"/attachments", r.URL.Path)
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))
		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		raw, _ := io.ReadAll(file)
		assert.Equal(t, "receipt.txt", header.Filename)
		assert.Equal(t, "paid", string(raw))
		writeJSON(w, http.StatusCreated, `{"success":true,"data":{"filename":"receipt.txt","size":4}}`)
	}))

	att, err := c.Support.UploadAttachment(context.Background(), ticketID, "receipt.txt", strings.NewReader("paid"))
	require.NoError(t, err)
	require.NotNil(t, att)
	assert.Equal(t, "receipt.txt", att.Filename)
	assert.Equal(t, int64(4), att.Size)
}

func TestMemoryTokenStore_KeepsRefreshOnEmpty(t *testing.T) {
	s := NewMemoryTokenStore()
	s.SetTokens("a1", "r1")
	s.SetTokens("a2", "")
	assert.Equal(t, "a2", s.AccessToken())
	assert.Equal(t, "r1", s.RefreshToken())
	s.Clear()
	assert.Empty(t, s.RefreshToken())
}
