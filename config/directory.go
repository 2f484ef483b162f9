package config

import (
	"fmt"
	"strings"
	"time"
)

// DirectoryMode selects the directory backend.
type DirectoryMode string

const (
	// DirectoryModeLDAP talks to a real LDAP server.
	DirectoryModeLDAP DirectoryMode = "ldap"
	// DirectoryModeMemory serves a seeded in-process directory (development only).
	DirectoryModeMemory DirectoryMode = "memory"
)

// UnmarshalText implements encoding.TextUnmarshaler for DirectoryMode.
func (m *DirectoryMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "ldap", "memory":
		*m = DirectoryMode(v)
		return nil
	default:
		return fmt.Errorf("invalid DirectoryMode: %q (valid options: ldap, memory)", v)
	}
}

// DirectoryConfig controls how the service reaches the user directory.
type DirectoryConfig struct {
	Mode DirectoryMode `env:"DIRECTORY_MODE" envDefault:"ldap"`

	URI string `env:"LDAP_URI" envDefault:"ldap://localhost:389" validate:"required_if=Mode ldap"`

	// AdminUser is a bare cn (bound as cn=<user>,<dn>) or a full DN.
	AdminUser     string `env:"LDAP_ADMIN_USER"     envDefault:"admin" validate:"required"`
	AdminPassword string `env:"LDAP_ADMIN_PASSWORD"`

	// DefaultDN is used when a login request does not name a base DN.
	DefaultDN string `env:"LDAP_DEFAULT_DN" envDefault:"dc=ansvia,dc=org" validate:"required"`

	Timeout        time.Duration `env:"LDAP_TIMEOUT"         envDefault:"10s" validate:"gt=0"`
	StartupRetries int           `env:"LDAP_STARTUP_RETRIES" envDefault:"3"   validate:"gte=0"`

	// Dev user seeded into the memory directory.
	DevUID      string `env:"DEV_DIRECTORY_UID"      envDefault:"dev"`
	DevPassword string `env:"DEV_DIRECTORY_PASSWORD" envDefault:"dev"`
}

// Sanitize trims and clamps directory settings.
func (c *DirectoryConfig) Sanitize() {
	c.URI = strings.TrimSpace(c.URI)
	c.AdminUser = strings.TrimSpace(c.AdminUser)
	c.DefaultDN = strings.TrimSpace(c.DefaultDN)
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.StartupRetries < 0 {
		c.StartupRetries = 0
	}
}

// LoginConfig controls the login form and post-login redirects.
type LoginConfig struct {
	// AllowedContinueDomain is the domain (and its subdomains) a login may redirect to.
	// Empty allows no redirects.
	AllowedContinueDomain string `env:"ALLOWED_CONTINUE_DOMAIN"`
	Caption               string `env:"LOGIN_CAPTION"           envDefault:"Login"`
}

// Sanitize trims login settings.
func (c *LoginConfig) Sanitize() {
	c.AllowedContinueDomain = strings.TrimSpace(c.AllowedContinueDomain)
}
