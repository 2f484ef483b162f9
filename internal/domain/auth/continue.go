package auth

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ContinueKind classifies a post-login continuation target.
type ContinueKind int

const (
	// ContinueOpaque is not a redirect request; the token is handed back directly.
	ContinueOpaque ContinueKind = iota
	// ContinueAllowedRedirect is an absolute URL inside the allowed domain.
	ContinueAllowedRedirect
	// ContinueRejectedExternal is an absolute URL outside the allowed domain.
	// It must never be redirected to.
	ContinueRejectedExternal
)

func (k ContinueKind) String() string {
	switch k {
	case ContinueAllowedRedirect:
		return "allowed_redirect"
	case ContinueRejectedExternal:
		return "rejected_external_url"
	default:
		return "opaque"
	}
}

// ContinueDecision is the result of classifying a continuation target.
type ContinueDecision struct {
	Kind ContinueKind
	// URL is set only for ContinueAllowedRedirect.
	URL *url.URL
	// Raw is the continuation exactly as supplied.
	Raw string
}

var absoluteURLPattern = regexp.MustCompile(`^https?://.+$`)

// ContinueValidator decides whether a continuation target may receive a token redirect.
// It is safe for concurrent use.
type ContinueValidator struct {
	allowed *regexp.Regexp
	domain  string
}

// NewContinueValidator compiles the allow-pattern for allowedDomain.
// An empty domain yields a validator that allows no redirects at all.
func NewContinueValidator(allowedDomain string) (*ContinueValidator, error) {
	domain := strings.TrimSpace(allowedDomain)
	v := &ContinueValidator{domain: domain}
	if domain == "" {
		return v, nil
	}

	pattern := `^https?://[a-zA-Z0-9.\-_]*(` + regexp.QuoteMeta(domain) + `).*$`
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid allowed continue domain %q: %w", domain, err)
	}
	v.allowed = re
	return v, nil
}

// Domain returns the configured allowed domain.
func (v *ContinueValidator) Domain() string { return v.domain }

// Classify checks the allow-list first and URL shape second.
func (v *ContinueValidator) Classify(continuation string) ContinueDecision {
	d := ContinueDecision{Raw: continuation}

	if v.allowed != nil && v.allowed.MatchString(continuation) {
		// The pattern alone accepts "https://example.com@evil.com/" and
		// "https://example.com.evil.net/"; the parsed host must be the domain or
		// a subdomain of it.
		u, err := url.Parse(continuation)
		if err == nil && u.User == nil && v.hostAllowed(u.Hostname()) {
			d.Kind = ContinueAllowedRedirect
			d.URL = u
			return d
		}
		d.Kind = ContinueRejectedExternal
		return d
	}

	if absoluteURLPattern.MatchString(continuation) {
		d.Kind = ContinueRejectedExternal
		return d
	}

	d.Kind = ContinueOpaque
	return d
}

// hostAllowed reports whether host equals the allowed domain or ends in
// "."+domain, ignoring case and a trailing root dot.
func (v *ContinueValidator) hostAllowed(host string) bool {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	domain := strings.Trim(strings.ToLower(v.domain), ".")
	if host == "" || domain == "" {
		return false
	}
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// AppendToken returns u with a token query parameter appended.
// Existing query parameters are kept.
func AppendToken(u *url.URL, token string) string {
	out := *u
	q := out.Query()
	q.Add("token", token)
	out.RawQuery = q.Encode()
	return out.String()
}
