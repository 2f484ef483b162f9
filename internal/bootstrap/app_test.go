package bootstrap

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ssobridge "github.com/target/sso-bridge"
	"github.com/target/sso-bridge/config"
	"github.com/target/sso-bridge/internal/adapters/devdirectory"
	domainauth "github.com/target/sso-bridge/internal/domain/auth"
	"github.com/target/sso-bridge/internal/ports"
)

const testDN = "dc=example,dc=com"

func testConfig() *config.AppConfig {
	cfg := &config.AppConfig{
		Directory: config.DirectoryConfig{
			Mode:          config.DirectoryModeMemory,
			AdminUser:     "admin",
			AdminPassword: "secret",
			DefaultDN:     testDN,
			Timeout:       time.Second,
			DevUID:        "euler",
			DevPassword:   "mypassword",
		},
		Login: config.LoginConfig{AllowedContinueDomain: "example.com", Caption: "Test"},
		Store: config.StoreConfig{Backend: config.StoreBackendMemory},
		HTTP:  config.HTTPConfig{Addr: "127.0.0.1:0"},
	}
	cfg.Sanitize()
	return cfg
}

func newTestApp(t *testing.T, cfg *config.AppConfig) *App {
	t.Helper()
	app, err := NewApp(context.Background(), AppDeps{
		Config:     cfg,
		Build:      BuildInfo{Version: "0.0.1", GitRev: "deadbeef"},
		TemplateFS: ssobridge.TemplateFS,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, app.Close()) })
	return app
}

func TestNewApp_LoginAndLookup(t *testing.T) {
	app := newTestApp(t, testConfig())
	h := app.Handler()

	form := url.Values{"user_name": {"euler"}, "password": {"mypassword"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	var login struct {
		Result string `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	require.Len(t, login.Result, domainauth.TokenLength)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/lookup?access_token="+login.Result, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"error":{"code":0,"desc":""},"result":{"uid":"euler","dn":"dc=example,dc=com"}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `ssobridge_login_total{state="token_issued"} 1`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewApp_RequiresConfig(t *testing.T) {
	_, err := NewApp(context.Background(), AppDeps{})
	require.Error(t, err)
}

func TestNewApp_SeparateMetricsListener(t *testing.T) {
	cfg := testConfig()
	cfg.Observability.PrometheusAddr = "127.0.0.1:0"
	app := newTestApp(t, cfg)

	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApp_ServeStopsOnCancel(t *testing.T) {
	app := newTestApp(t, testConfig())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	metricsLn, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Serve(ctx, ln, metricsLn) }()

	client := &http.Client{Timeout: 2 * time.Second}
	require.Eventually(t, func() bool {
		resp, err := client.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	resp, err := client.Get("http://" + metricsLn.Addr().String() + "/metrics")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

// flakyDirectory refuses connections until fails reaches zero.
type flakyDirectory struct {
	inner    ports.DirectoryClient
	fails    atomic.Int32
	attempts atomic.Int32
}

func (f *flakyDirectory) Connect(ctx context.Context) (ports.DirectorySession, error) {
	f.attempts.Add(1)
	if f.fails.Add(-1) >= 0 {
		return nil, fmt.Errorf("%w: connection refused", domainauth.ErrDirectoryConnect)
	}
	return f.inner.Connect(ctx)
}

func newProbeTarget(t *testing.T, fails int32) *flakyDirectory {
	t.Helper()
	dir, err := devdirectory.NewDirectory(devdirectory.Config{AdminDN: "cn=admin," + testDN, AdminPassword: "secret"})
	require.NoError(t, err)
	f := &flakyDirectory{inner: dir}
	f.fails.Store(fails)
	return f
}

func TestProbeDirectory(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	base := config.DirectoryConfig{AdminUser: "admin", AdminPassword: "secret", DefaultDN: testDN, Timeout: time.Second}

	t.Run("recovers within retries", func(t *testing.T) {
		dir := newProbeTarget(t, 1)
		cfg := base
		cfg.StartupRetries = 1
		require.NoError(t, ProbeDirectory(context.Background(), dir, cfg, logger))
		assert.Equal(t, int32(2), dir.attempts.Load())
	})

	t.Run("gives up after retries", func(t *testing.T) {
		dir := newProbeTarget(t, 5)
		cfg := base
		cfg.StartupRetries = 0
		err := ProbeDirectory(context.Background(), dir, cfg, logger)
		require.ErrorIs(t, err, domainauth.ErrDirectoryConnect)
		assert.Equal(t, int32(1), dir.attempts.Load())
	})

	t.Run("refused credentials are not retried", func(t *testing.T) {
		dir := newProbeTarget(t, 0)
		cfg := base
		cfg.AdminPassword = "wrong"
		cfg.StartupRetries = 3
		err := ProbeDirectory(context.Background(), dir, cfg, logger)
		require.ErrorIs(t, err, domainauth.ErrDirectoryBind)
		assert.Equal(t, int32(1), dir.attempts.Load())
	})
}
