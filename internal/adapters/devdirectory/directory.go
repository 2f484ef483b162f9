// Package devdirectory provides an in-memory, config-driven directory for local development and tests.
package devdirectory

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	domainauth "github.com/target/sso-bridge/internal/domain/auth"
	"github.com/target/sso-bridge/internal/ports"
)

// ResultInsufficientAccess mirrors the directory code for an unauthenticated search.
const ResultInsufficientAccess = 50

// Config controls the dev directory.
// AdminDN and AdminPassword are required. Users may be empty.
type Config struct {
	AdminDN       string
	AdminPassword string
	// BaseDN is the naming context under which Users are placed.
	BaseDN string
	// Users maps uid to plaintext password; each is stored as an SSHA credential.
	Users map[string]string
}

// Directory implements ports.DirectoryClient backed by a map of entries.
type Directory struct {
	adminDN       string
	adminPassword string

	mu          sync.RWMutex
	entries     map[string]domainauth.DirectoryEntry
	unreachable bool
}

var _ ports.DirectoryClient = (*Directory)(nil)

// NewDirectory constructs a dev directory from Config.
func NewDirectory(cfg Config) (*Directory, error) {
	if cfg.AdminDN == "" {
		return nil, errors.New("dev directory: AdminDN is required")
	}
	if cfg.AdminPassword == "" {
		return nil, errors.New("dev directory: AdminPassword is required")
	}
	d := &Directory{
		adminDN:       cfg.AdminDN,
		adminPassword: cfg.AdminPassword,
		entries:       make(map[string]domainauth.DirectoryEntry),
	}
	for uid, password := range cfg.Users {
		if err := d.AddUser(uid, password, cfg.BaseDN); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// AddUser stores a person entry at uid=<uid>,ou=People,<base> with an SSHA userPassword.
func (d *Directory) AddUser(uid, password, base string) error {
	if uid == "" {
		return errors.New("dev directory: uid is required")
	}
	hashed, err := domainauth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password for %s: %w", uid, err)
	}
	d.AddEntry(domainauth.DirectoryEntry{
		DN: domainauth.UserEntryDN(domainauth.EscapeDNValue(uid), base),
		Attributes: []domainauth.EntryAttribute{
			{Name: "objectClass", Values: []string{"inetOrgPerson"}},
			{Name: "uid", Values: []string{uid}},
			{Name: domainauth.PasswordAttribute, Values: []string{hashed}},
		},
	})
	return nil
}

// AddEntry stores entry as-is, replacing any entry with the same DN.
func (d *Directory) AddEntry(entry domainauth.DirectoryEntry) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries[normalizeDN(entry.DN)] = entry
}

// SetUnreachable makes subsequent Connect calls fail.
func (d *Directory) SetUnreachable(v bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.unreachable = v
}

// Connect opens an unbound session.
func (d *Directory) Connect(ctx context.Context) (ports.DirectorySession, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domainauth.ErrDirectoryConnect, err)
	}
	d.mu.RLock()
	down := d.unreachable
	d.mu.RUnlock()
	if down {
		return nil, fmt.Errorf("%w: dev directory marked unreachable", domainauth.ErrDirectoryConnect)
	}
	return &session{dir: d}, nil
}

type session struct {
	dir    *Directory
	bound  bool
	closed bool
}

func (s *session) Bind(_ context.Context, dn, password string) error {
	if s.closed {
		return errors.New("dev directory: session closed")
	}
	if normalizeDN(dn) != normalizeDN(s.dir.adminDN) || password != s.dir.adminPassword {
		return fmt.Errorf("%w: invalid credentials for %q", domainauth.ErrDirectoryBind, dn)
	}
	s.bound = true
	return nil
}

func (s *session) Search(ctx context.Context, req ports.SearchRequest) ([]domainauth.DirectoryEntry, error) {
	if s.closed {
		return nil, errors.New("dev directory: session closed")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !s.bound {
		return nil, &domainauth.SearchError{Code: ResultInsufficientAccess, Message: "bind required"}
	}

	match, err := compileFilter(req.Filter)
	if err != nil {
		return nil, err
	}

	base := normalizeDN(req.BaseDN)

	s.dir.mu.RLock()
	defer s.dir.mu.RUnlock()

	if _, ok := s.dir.entries[base]; !ok && req.Scope == domainauth.ScopeBase {
		return nil, &domainauth.SearchError{Code: domainauth.ResultNoSuchObject, Message: "no such object"}
	}

	var out []domainauth.DirectoryEntry
	for key, entry := range s.dir.entries {
		if !inScope(key, base, req.Scope) || !match(entry) {
			continue
		}
		out = append(out, entry)
	}
	if len(out) == 0 && req.Scope != domainauth.ScopeBase && !s.dir.hasSuffixLocked(base) {
		return nil, &domainauth.SearchError{Code: domainauth.ResultNoSuchObject, Message: "no such object"}
	}
	return out, nil
}

func (s *session) Close() error {
	s.closed = true
	return nil
}

// hasSuffixLocked reports whether any entry lives at or under base. Caller holds mu.
func (d *Directory) hasSuffixLocked(base string) bool {
	for key := range d.entries {
		if key == base || strings.HasSuffix(key, ","+base) {
			return true
		}
	}
	return false
}

func inScope(key, base string, scope domainauth.SearchScope) bool {
	switch scope {
	case domainauth.ScopeBase:
		return key == base
	case domainauth.ScopeOneLevel:
		parent, ok := parentDN(key)
		return ok && parent == base
	case domainauth.ScopeSubtree:
		return key == base || strings.HasSuffix(key, ","+base)
	default:
		return false
	}
}

func parentDN(dn string) (string, bool) {
	idx := strings.Index(dn, ",")
	if idx < 0 {
		return "", false
	}
	return dn[idx+1:], true
}

// normalizeDN lowercases and strips spaces around RDN separators.
func normalizeDN(dn string) string {
	parts := strings.Split(dn, ",")
	for i, p := range parts {
		parts[i] = strings.ToLower(strings.TrimSpace(p))
	}
	return strings.Join(parts, ",")
}

var equalityFilter = regexp.MustCompile(`^\(([A-Za-z][A-Za-z0-9-]*)=([^()*]*|\*)\)$`)

// compileFilter supports empty filters, presence (attr=*) and equality (attr=value).
func compileFilter(filter string) (func(domainauth.DirectoryEntry) bool, error) {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return func(domainauth.DirectoryEntry) bool { return true }, nil
	}
	m := equalityFilter.FindStringSubmatch(filter)
	if m == nil {
		return nil, fmt.Errorf("dev directory: unsupported filter %q", filter)
	}
	attr, want := m[1], m[2]
	if want == "*" {
		if strings.EqualFold(attr, "objectClass") {
			return func(domainauth.DirectoryEntry) bool { return true }, nil
		}
		return func(e domainauth.DirectoryEntry) bool { return len(e.Values(attr)) > 0 }, nil
	}
	return func(e domainauth.DirectoryEntry) bool {
		for _, v := range e.Values(attr) {
			if strings.EqualFold(v, want) {
				return true
			}
		}
		return false
	}, nil
}
