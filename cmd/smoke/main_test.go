package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runSmoke executes the CLI in-process and returns stdout, stderr and the exit code
func runSmoke(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

func writeSuite(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// backend answers like a freshly seeded server: lists work, unknown ids 404,
// everything behind /orders needs a token.
func backend(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v1/auth/login":
			_, _ = w.Write([]byte(`{"success":true,"data":{"accessToken":"cli-token"}}`))
		case "/api/v1/marketing/deals":
			_, _ = w.Write([]byte(`{"success":true,"data":[],"meta":{"total":0,"page":1,"limit":20}}`))
		case "/api/v1/orders/my-orders":
			if r.Header.Get("Authorization") != "Bearer cli-token" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(`{"success":true,"data":[]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCLI_Help(t *testing.T) {
	_, stderr, code := runSmoke(t, "-help")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stderr, "API Smoke Runner")
	assert.Contains(t, stderr, "-suite")
	assert.Contains(t, stderr, "EXIT CODES:")
}

func TestCLI_Version(t *testing.T) {
	stdout, _, code := runSmoke(t, "-version")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "smoke dev")
}

func TestCLI_ConfigErrors(t *testing.T) {
	dir := t.TempDir()
	bad := writeSuite(t, dir, "bad.yaml", "name: broken\nendpoints: []\n")

	tests := []struct {
		name string
		args []string
	}{
		{"no suite", []string{"-env-file", ""}},
		{"unknown flag", []string{"-bogus"}},
		{"missing file", []string{"-env-file", "", "-suite", filepath.Join(dir, "missing.yaml")}},
		{"invalid suite", []string{"-env-file", "", "-suite", bad}},
		{"bad mode", []string{"-env-file", "", "-suite", "../../configs/smoke", "-mode", "chaos"}},
		{"bad base url", []string{"-env-file", "", "-suite", "../../configs/smoke", "-base-url", "nowhere"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, code := runSmoke(t, tt.args...)
			assert.Equal(t, exitConfig, code)
		})
	}
}

func TestCLI_ListBundledSuites(t *testing.T) {
	stdout, _, code := runSmoke(t, "-env-file", "", "-suite", "../../configs/smoke", "-list")
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "Flash Sales")
	assert.Contains(t, stdout, "/flash-sales/service-campaigns/test-id/countdown")
	assert.Contains(t, stdout, "/support/tickets/test-id/messages")
	assert.Contains(t, stdout, "IoT Analytics [real-backend]")
}

func TestCLI_RunPassesAndWritesReports(t *testing.T) {
	srv := backend(t)
	dir := t.TempDir()
	suite := writeSuite(t, dir, "orders.yaml", `
name: Orders
requiresAuth: true
endpoints:
  - method: GET
    path: /orders/my-orders
  - method: GET
    path: /marketing/deals
    requiresAuth: false
`)
	envFile := writeSuite(t, dir, ".env", "ADMIN_EMAIL=admin@groow.test\nADMIN_PASSWORD=admin123\n")
	t.Cleanup(func() {
		_ = os.Unsetenv("ADMIN_EMAIL")
		_ = os.Unsetenv("ADMIN_PASSWORD")
	})
	out := filepath.Join(dir, "reports")

	stdout, _, code := runSmoke(t,
		"-env-file", envFile,
		"-suite", suite,
		"-base-url", srv.URL+"/api/v1",
		"-output", out,
	)

	assert.Equal(t, exitOK, code, stdout)
	assert.Contains(t, stdout, "Passed: 2")

	data, err := os.ReadFile(filepath.Join(out, "api-smoke-report.json"))
	require.NoError(t, err)
	var report map[string]any
	require.NoError(t, json.Unmarshal(data, &report))
	assert.EqualValues(t, 2, report["passed"])
	assert.FileExists(t, filepath.Join(out, "api-smoke-report.html"))
}

func TestCLI_FailuresExitOne(t *testing.T) {
	srv := backend(t)
	dir := t.TempDir()
	suite := writeSuite(t, dir, "orders.yaml", `
name: Orders
endpoints:
  - method: GET
    path: /orders/my-orders
  - method: GET
    path: /orders/:id
`)

	stdout, _, code := runSmoke(t,
		"-env-file", "",
		"-no-login",
		"-suite", suite,
		"-base-url", srv.URL+"/api/v1",
		"-output", filepath.Join(dir, "reports"),
	)
	assert.Equal(t, exitFailed, code)
	assert.Contains(t, stdout, "FAILURES (2)")

	// The same endpoints tolerate 401 and 404 against a real backend.
	_, _, code = runSmoke(t,
		"-env-file", "",
		"-no-login",
		"-suite", suite,
		"-mode", "real-backend",
		"-base-url", srv.URL+"/api/v1",
		"-output", filepath.Join(dir, "reports"),
	)
	assert.Equal(t, exitOK, code)
}
