package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/target/sso-bridge/config"
)

// envFileVar names an alternative dotenv file; the default is ./.env.
const envFileVar = "SSO_ENV_FILE"

// InitLogger installs a JSON logger on stdout as the slog default. Dev mode
// lowers the level to debug.
func InitLogger(isDev bool) *slog.Logger {
	level := slog.LevelInfo
	if isDev {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})).
		With("service", "ssobridge")
	slog.SetDefault(logger)
	return logger
}

// LoadConfig reads an optional dotenv file, parses the environment into
// AppConfig, then sanitizes and validates it.
func LoadConfig() (config.AppConfig, error) {
	path := os.Getenv(envFileVar)
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return config.AppConfig{}, fmt.Errorf("load %s: %w", path, err)
		}
	}

	var cfg config.AppConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	cfg.Sanitize()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
