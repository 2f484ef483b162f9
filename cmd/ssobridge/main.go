// Command ssobridge serves the directory-backed login form and token lookup API.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	ssobridge "github.com/target/sso-bridge"
	"github.com/target/sso-bridge/config"
	"github.com/target/sso-bridge/internal/bootstrap"
)

// Set at link time with -ldflags "-X main.version=... -X main.gitRev=...".
var (
	version = "dev"
	gitRev  = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := bootstrap.InitLogger(false)
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		stop()
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	if cfg.IsDev {
		logger = bootstrap.InitLogger(true)
	}
	logStartupInfo(ctx, logger, &cfg)

	app, err := bootstrap.NewApp(ctx, bootstrap.AppDeps{
		Config:     &cfg,
		Build:      bootstrap.BuildInfo{Version: version, GitRev: gitRev},
		TemplateFS: ssobridge.TemplateFS,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := app.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close app failed", "error", cerr)
		}
	}()

	return app.Run(ctx)
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting sso bridge",
		"version", version,
		"git_rev", gitRev,
		"directory_mode", cfg.Directory.Mode,
		"ldap_uri", cfg.Directory.URI,
		"default_dn", cfg.Directory.DefaultDN,
		"store_backend", cfg.Store.Backend,
		"http_addr", cfg.HTTP.Addr,
		"dev", cfg.IsDev)
}
