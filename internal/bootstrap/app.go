package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"

	"github.com/target/sso-bridge/config"
	domainauth "github.com/target/sso-bridge/internal/domain/auth"
	httpx "github.com/target/sso-bridge/internal/http"
	"github.com/target/sso-bridge/internal/observability/metrics"
	"github.com/target/sso-bridge/internal/observability/statsd"
	"github.com/target/sso-bridge/internal/ports"
	"github.com/target/sso-bridge/internal/service"
	"golang.org/x/sync/errgroup"
)

// BuildInfo is stamped into the binary at link time.
type BuildInfo struct {
	Version string
	GitRev  string
}

// AppDeps groups what NewApp needs. Directory and TokenKV override the
// configured backends when set.
type AppDeps struct {
	Config     *config.AppConfig
	Build      BuildInfo
	TemplateFS fs.FS
	Logger     *slog.Logger

	Directory ports.DirectoryClient
	TokenKV   *TokenKV
}

// App is the wired login service.
type App struct {
	cfg     *config.AppConfig
	logger  *slog.Logger
	handler http.Handler
	metrics http.Handler

	Sessions *service.SessionManager

	closers []func() error
}

// NewApp builds every component of the service. Close must be called when
// NewApp succeeds.
func NewApp(ctx context.Context, deps AppDeps) (_ *App, err error) {
	if deps.Config == nil {
		return nil, errors.New("app config is required")
	}
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	app := &App{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			_ = app.Close()
		}
	}()

	directory := deps.Directory
	if directory == nil {
		if directory, err = BuildDirectory(ctx, cfg.Directory, logger); err != nil {
			return nil, err
		}
	}

	kv := deps.TokenKV
	if kv == nil {
		if kv, err = OpenTokenKV(ctx, cfg, logger); err != nil {
			return nil, err
		}
	}
	if kv.Close != nil {
		app.closers = append(app.closers, kv.Close)
	}

	recorder, err := app.buildMetrics(deps.Build)
	if err != nil {
		return nil, err
	}

	validator, err := domainauth.NewContinueValidator(cfg.Login.AllowedContinueDomain)
	if err != nil {
		return nil, fmt.Errorf("allowed continue domain: %w", err)
	}

	app.Sessions, err = service.NewSessionManager(service.SessionManagerOptions{
		Directory:     directory,
		Tokens:        service.NewTokenStore(service.TokenStoreOptions{KV: kv.KV}),
		Validator:     validator,
		AdminUser:     cfg.Directory.AdminUser,
		AdminPassword: cfg.Directory.AdminPassword,
		DefaultDN:     cfg.Directory.DefaultDN,
		Timeout:       cfg.Directory.Timeout,
		Logger:        logger,
		Metrics:       recorder,
	})
	if err != nil {
		return nil, err
	}

	var checks []httpx.HealthCheck
	if kv.Health != nil {
		checks = append(checks, kv.Health)
	}
	services := httpx.RouterServices{
		Sessions:     app.Sessions,
		TemplateFS:   deps.TemplateFS,
		LoginCaption: cfg.Login.Caption,
		DefaultDN:    cfg.Directory.DefaultDN,
		Version:      deps.Build.Version,
		GitRev:       deps.Build.GitRev,
		HealthChecks: checks,
		Logger:       logger,
	}
	if cfg.Observability.PrometheusAddr == "" {
		services.Metrics = app.metrics
	}
	app.handler, err = buildHTTPHandler(httpHandlerConfig{Logger: logger, Services: services, HTTP: cfg.HTTP})
	if err != nil {
		return nil, err
	}
	return app, nil
}

func (a *App) buildMetrics(build BuildInfo) (*metrics.Recorder, error) {
	reg := metrics.NewRegistry()
	a.metrics = metrics.Handler(reg)

	sink, err := statsd.NewClient(statsd.Config{
		Enabled:    a.cfg.Observability.Metrics.IsEnabled(),
		Address:    a.cfg.Observability.Metrics.StatsdAddress,
		Prefix:     a.cfg.Observability.Metrics.Prefix,
		Logger:     a.logger,
		GlobalTags: map[string]string{"version": build.Version},
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, sink.Close)
	return &metrics.Recorder{Sink: sink, Collectors: metrics.NewCollectors(reg)}, nil
}

// Handler exposes the fully wrapped HTTP handler.
func (a *App) Handler() http.Handler { return a.handler }

// Run serves HTTP (and the separate metrics listener, if configured) until ctx
// is canceled or a server fails.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.HTTP.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.cfg.HTTP.Addr, err)
	}
	var metricsLn net.Listener
	if addr := a.cfg.Observability.PrometheusAddr; addr != "" {
		if metricsLn, err = net.Listen("tcp", addr); err != nil {
			_ = ln.Close()
			return fmt.Errorf("listen %s: %w", addr, err)
		}
	}
	return a.Serve(ctx, ln, metricsLn)
}

// Serve runs the servers on already-open listeners. metricsLn may be nil.
func (a *App) Serve(ctx context.Context, ln, metricsLn net.Listener) error {
	httpCfg := a.cfg.HTTP
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		srv := newServer(httpCfg.Addr, a.handler, httpCfg)
		return serveUntilDone(gctx, srv, ln, httpCfg.ShutdownTimeout, a.logger, "http")
	})
	if metricsLn != nil {
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", a.metrics)
		g.Go(func() error {
			srv := newServer(metricsLn.Addr().String(), mux, httpCfg)
			return serveUntilDone(gctx, srv, metricsLn, httpCfg.ShutdownTimeout, a.logger, "metrics")
		})
	}
	return g.Wait()
}

// Close releases the token store and metrics sink.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
