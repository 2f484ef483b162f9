package httpx

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"time"
)

// RouterServices holds everything the HTTP router needs.
type RouterServices struct {
	Sessions   SessionService
	TemplateFS fs.FS

	LoginCaption string
	DefaultDN    string
	Version      string
	GitRev       string

	// Metrics, when set, is served at /metrics.
	Metrics http.Handler
	// HealthChecks gate /healthz.
	HealthChecks []HealthCheck

	Now    func() time.Time
	Logger *slog.Logger
}

// NewRouter creates the HTTP router for the login form and the JSON API.
func NewRouter(services RouterServices) (http.Handler, error) {
	if services.Sessions == nil {
		return nil, errors.New("session service is required")
	}
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	renderer, err := NewTemplateRenderer(TemplateRendererConfig{
		TemplateFS: services.TemplateFS,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	login := NewLoginHandlers(LoginHandlers{
		Sessions:  services.Sessions,
		Renderer:  renderer,
		Caption:   services.LoginCaption,
		Version:   services.Version,
		DefaultDN: services.DefaultDN,
		Logger:    logger,
	})
	api := &APIHandlers{
		Sessions: services.Sessions,
		GitRev:   services.GitRev,
		Version:  services.Version,
		Now:      services.Now,
		Logger:   logger,
	}
	health := healthHandler(logger, services.HealthChecks...)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", login.Form)
	mux.HandleFunc("POST /login", login.Login)
	mux.HandleFunc("GET /api/lookup", api.Lookup)
	mux.HandleFunc("GET /api/system/info", api.SystemInfo)
	mux.Handle("GET /healthz", health)
	mux.Handle("HEAD /healthz", health)
	if services.Metrics != nil {
		mux.Handle("GET /metrics", services.Metrics)
	}
	return mux, nil
}
