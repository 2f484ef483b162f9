// Package testutil holds helpers for tests that talk to a live Redis or LDAP server.
//
// Both helpers skip the calling test when the server cannot be reached, unless
// TEST_REQUIRE_INFRA (or the backend specific TEST_REQUIRE_REDIS /
// TEST_REQUIRE_LDAP) is truthy, in which case the test fails instead.
package testutil

import (
	"context"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const connectTimeout = 2 * time.Second

// TestingTB is the subset of testing.TB the helpers need.
type TestingTB interface {
	Helper()
	Skipf(format string, args ...any)
	Fatalf(format string, args ...any)
	Logf(format string, args ...any)
	Cleanup(func())
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func envBool(key string) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "y":
		return true
	}
	return false
}

func required(backend string) bool {
	return envBool("TEST_REQUIRE_INFRA") || envBool("TEST_REQUIRE_"+backend)
}

// unavailable skips or fails t depending on the TEST_REQUIRE_* variables.
func unavailable(t TestingTB, backend, format string, args ...any) {
	t.Helper()
	if required(backend) {
		t.Fatalf(format, args...)
	}
	t.Skipf(format, args...)
}

// FixedTimeFunc returns a clock frozen at t.
func FixedTimeFunc(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// TestTime is the instant used by frozen clocks in tests.
func TestTime() time.Time {
	return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

// SetupTestRedis connects to REDIS_ADDR (default localhost:6379), selects
// TEST_REDIS_DB (default 1) and flushes it. The client is closed on cleanup.
func SetupTestRedis(t TestingTB) *redis.Client {
	t.Helper()

	addr := getEnvOrDefault("REDIS_ADDR", "localhost:6379")
	db := 1
	if v := os.Getenv("TEST_REDIS_DB"); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil || i < 0 {
			t.Fatalf("invalid TEST_REDIS_DB=%q", v)
		}
		db = i
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		unavailable(t, "REDIS", "redis not available at %s: %v", addr, err)
		return nil
	}
	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Logf("warning: flush redis db %d: %v", db, err)
	}
	t.Cleanup(func() {
		if err := client.Close(); err != nil {
			t.Logf("warning: close redis client: %v", err)
		}
	})
	return client
}

// LDAPServer describes a directory reachable from tests.
type LDAPServer struct {
	URI           string
	AdminDN       string
	AdminPassword string
	BaseDN        string
}

// SetupTestLDAP returns the server named by TEST_LDAP_URI once a TCP dial to
// it succeeds. Credentials come from TEST_LDAP_ADMIN_DN, TEST_LDAP_ADMIN_PASSWORD
// and TEST_LDAP_BASE_DN.
func SetupTestLDAP(t TestingTB) LDAPServer {
	t.Helper()

	uri := os.Getenv("TEST_LDAP_URI")
	if uri == "" {
		unavailable(t, "LDAP", "TEST_LDAP_URI not set")
		return LDAPServer{}
	}
	u, err := url.Parse(uri)
	if err != nil || u.Host == "" {
		t.Fatalf("invalid TEST_LDAP_URI=%q", uri)
	}
	host := u.Host
	if u.Port() == "" {
		port := "389"
		if u.Scheme == "ldaps" {
			port = "636"
		}
		host = net.JoinHostPort(u.Hostname(), port)
	}

	conn, err := net.DialTimeout("tcp", host, connectTimeout)
	if err != nil {
		unavailable(t, "LDAP", "ldap not available at %s: %v", host, err)
		return LDAPServer{}
	}
	_ = conn.Close()

	base := getEnvOrDefault("TEST_LDAP_BASE_DN", "dc=example,dc=org")
	return LDAPServer{
		URI:           uri,
		AdminDN:       getEnvOrDefault("TEST_LDAP_ADMIN_DN", "cn=admin,"+base),
		AdminPassword: os.Getenv("TEST_LDAP_ADMIN_PASSWORD"),
		BaseDN:        base,
	}
}
