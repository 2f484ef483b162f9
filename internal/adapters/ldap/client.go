// Package ldap adapts a go-ldap connection to the DirectoryClient port.
package ldap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	goldap "github.com/go-ldap/ldap/v3"
	domainauth "github.com/target/sso-bridge/internal/domain/auth"
	"github.com/target/sso-bridge/internal/ports"
)

const (
	defaultTimeout = 10 * time.Second
	matchAllFilter = "(objectClass=*)"
)

// Config controls how the client reaches the directory.
type Config struct {
	URL     string
	Timeout time.Duration // default 10s when zero
}

// Client implements ports.DirectoryClient over LDAP.
type Client struct {
	url     string
	timeout time.Duration
}

var _ ports.DirectoryClient = (*Client)(nil)

// NewClient validates cfg and returns a Client. No connection is opened.
func NewClient(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("ldap: URL is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{url: cfg.URL, timeout: timeout}, nil
}

// Connect dials the directory. The deadline of ctx, when sooner, caps the dial and every later operation.
func (c *Client) Connect(ctx context.Context) (ports.DirectorySession, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domainauth.ErrDirectoryConnect, err)
	}
	timeout := c.effectiveTimeout(ctx)

	conn, err := goldap.DialURL(c.url, goldap.DialWithDialer(&net.Dialer{Timeout: timeout}))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domainauth.ErrDirectoryConnect, err)
	}
	conn.SetTimeout(timeout)
	return &session{conn: conn}, nil
}

func (c *Client) effectiveTimeout(ctx context.Context) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		if remaining := time.Until(dl); remaining < c.timeout {
			return max(remaining, time.Millisecond)
		}
	}
	return c.timeout
}

type session struct {
	conn *goldap.Conn
}

func (s *session) Bind(ctx context.Context, dn, password string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", domainauth.ErrDirectoryConnect, err)
	}
	if err := s.conn.Bind(dn, password); err != nil {
		return mapBindError(err)
	}
	return nil
}

func (s *session) Search(ctx context.Context, req ports.SearchRequest) ([]domainauth.DirectoryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res, err := s.conn.Search(buildSearchRequest(req))
	if err != nil {
		return nil, mapSearchError(err)
	}
	out := make([]domainauth.DirectoryEntry, 0, len(res.Entries))
	for _, e := range res.Entries {
		out = append(out, toDomainEntry(e))
	}
	return out, nil
}

func (s *session) Close() error {
	s.conn.Close()
	return nil
}

func buildSearchRequest(req ports.SearchRequest) *goldap.SearchRequest {
	filter := req.Filter
	if filter == "" {
		filter = matchAllFilter
	}
	return goldap.NewSearchRequest(
		req.BaseDN,
		mapScope(req.Scope),
		goldap.NeverDerefAliases,
		0, 0, false,
		filter,
		nil, // all user attributes
		nil,
	)
}

func mapScope(s domainauth.SearchScope) int {
	switch s {
	case domainauth.ScopeOneLevel:
		return goldap.ScopeSingleLevel
	case domainauth.ScopeSubtree:
		return goldap.ScopeWholeSubtree
	default:
		return goldap.ScopeBaseObject
	}
}

func toDomainEntry(e *goldap.Entry) domainauth.DirectoryEntry {
	attrs := make([]domainauth.EntryAttribute, 0, len(e.Attributes))
	for _, a := range e.Attributes {
		attrs = append(attrs, domainauth.EntryAttribute{
			Name:   a.Name,
			Values: append([]string(nil), a.Values...),
		})
	}
	return domainauth.DirectoryEntry{DN: e.DN, Attributes: attrs}
}

// mapBindError separates transport failures from refused credentials.
func mapBindError(err error) error {
	var lerr *goldap.Error
	if errors.As(err, &lerr) && lerr.ResultCode != goldap.ErrorNetwork {
		return fmt.Errorf("%w: %w", domainauth.ErrDirectoryBind, err)
	}
	return fmt.Errorf("%w: %w", domainauth.ErrDirectoryConnect, err)
}

// mapSearchError carries the directory result code through as a SearchError.
func mapSearchError(err error) error {
	var lerr *goldap.Error
	if !errors.As(err, &lerr) {
		return err
	}
	msg := ""
	if lerr.Err != nil {
		msg = lerr.Err.Error()
	}
	if lerr.ResultCode == goldap.ErrorNetwork {
		return fmt.Errorf("%w: %s", domainauth.ErrDirectoryConnect, msg)
	}
	return &domainauth.SearchError{Code: int(lerr.ResultCode), Message: msg}
}
