package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/target/sso-bridge/config"
	"github.com/target/sso-bridge/internal/adapters/devdirectory"
	"github.com/target/sso-bridge/internal/adapters/ldap"
	domainauth "github.com/target/sso-bridge/internal/domain/auth"
	"github.com/target/sso-bridge/internal/ports"
	"github.com/target/sso-bridge/internal/service"
)

const probeBaseBackoff = 500 * time.Millisecond

// BuildDirectory returns the configured directory client. In ldap mode the
// administrative bind is probed first, with retries, and failure is fatal.
//
//nolint:ireturn // the concrete directory depends on configuration.
func BuildDirectory(ctx context.Context, cfg config.DirectoryConfig, logger *slog.Logger) (ports.DirectoryClient, error) {
	switch cfg.Mode {
	case config.DirectoryModeMemory:
		adminPassword := cfg.AdminPassword
		if adminPassword == "" {
			adminPassword = cfg.DevPassword
		}
		dir, err := devdirectory.NewDirectory(devdirectory.Config{
			AdminDN:       service.AdminBindDN(cfg.AdminUser, cfg.DefaultDN),
			AdminPassword: adminPassword,
			BaseDN:        cfg.DefaultDN,
			Users:         map[string]string{cfg.DevUID: cfg.DevPassword},
		})
		if err != nil {
			return nil, err
		}
		logger.WarnContext(ctx, "using in-memory dev directory", "uid", cfg.DevUID, "base_dn", cfg.DefaultDN)
		return dir, nil

	case config.DirectoryModeLDAP, "":
		client, err := ldap.NewClient(ldap.Config{URL: cfg.URI, Timeout: cfg.Timeout})
		if err != nil {
			return nil, err
		}
		if err := ProbeDirectory(ctx, client, cfg, logger); err != nil {
			return nil, err
		}
		return client, nil

	default:
		return nil, fmt.Errorf("unsupported directory mode %q", cfg.Mode)
	}
}

// ProbeDirectory performs the administrative bind against the default DN.
// Connection failures are retried up to cfg.StartupRetries times; refused credentials are not.
func ProbeDirectory(ctx context.Context, dir ports.DirectoryClient, cfg config.DirectoryConfig, logger *slog.Logger) error {
	backoff := retry.WithMaxRetries(uint64(max(cfg.StartupRetries, 0)), retry.NewExponential(probeBaseBackoff))
	attempt := 0

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := probeOnce(ctx, dir, cfg)
		if err == nil {
			return nil
		}
		logger.WarnContext(ctx, "directory probe failed", "attempt", attempt, "error", err)
		if errors.Is(err, domainauth.ErrDirectoryBind) {
			return err
		}
		return retry.RetryableError(err)
	})
	if err != nil {
		return fmt.Errorf("directory probe %s: %w", cfg.URI, err)
	}
	logger.InfoContext(ctx, "directory reachable", "uri", cfg.URI, "attempts", attempt)
	return nil
}

func probeOnce(ctx context.Context, dir ports.DirectoryClient, cfg config.DirectoryConfig) error {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	sess, err := dir.Connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()
	return sess.Bind(ctx, service.AdminBindDN(cfg.AdminUser, cfg.DefaultDN), cfg.AdminPassword)
}
