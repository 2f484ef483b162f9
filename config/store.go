package config

import (
	"fmt"
	"strings"
)

// StoreBackend selects where tokens are persisted.
type StoreBackend string

const (
	// StoreBackendBadger persists tokens in an embedded Badger database.
	StoreBackendBadger StoreBackend = "badger"
	// StoreBackendRedis keeps tokens in Redis.
	StoreBackendRedis StoreBackend = "redis"
	// StoreBackendMemory keeps tokens in an in-memory Badger instance.
	StoreBackendMemory StoreBackend = "memory"
)

// UnmarshalText implements encoding.TextUnmarshaler for StoreBackend.
func (b *StoreBackend) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "badger", "redis", "memory":
		*b = StoreBackend(v)
		return nil
	default:
		return fmt.Errorf("invalid StoreBackend: %q (valid options: badger, redis, memory)", v)
	}
}

// StoreConfig contains token store configuration.
type StoreConfig struct {
	Backend StoreBackend `env:"STORE_BACKEND" envDefault:"badger"`
	Path    string       `env:"STORE_PATH"    envDefault:"/tmp/sso-store" validate:"required_if=Backend badger"`

	// KeyPrefix namespaces redis keys. With REDIS_USE_CLUSTER it is wrapped in a
	// hash tag ("{ssobridge}:") so a token's keys share one slot.
	KeyPrefix string `env:"STORE_KEY_PREFIX" envDefault:"ssobridge:"`
}

// Sanitize trims store settings.
func (c *StoreConfig) Sanitize() {
	c.Path = strings.TrimSpace(c.Path)
}

// RedisConfig contains Redis configuration.
type RedisConfig struct {
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`
}
