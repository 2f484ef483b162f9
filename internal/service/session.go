package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	domainauth "github.com/target/sso-bridge/internal/domain/auth"
	apperrors "github.com/target/sso-bridge/internal/errors"
	"github.com/target/sso-bridge/internal/observability/metrics"
	"github.com/target/sso-bridge/internal/ports"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// User-facing failure messages. Causes are logged, never shown.
const (
	MessageCredentialsNotRecognized = "Username or password is incorrect. Please make sure the identity and password you entered are correct."
	MessageInternalError            = "Internal server error. Could not connect to the directory server."
)

const defaultDirectoryTimeout = 10 * time.Second

var tracer = otel.Tracer("ssobridge/service")

// ResponseKind tells the transport how to materialize a login outcome.
type ResponseKind int

const (
	// ResponseJSON hands the token back in the response body.
	ResponseJSON ResponseKind = iota
	// ResponseRedirect sends the client to URL, which already carries the token.
	ResponseRedirect
	// ResponseErrorPage re-renders the login page with Message.
	ResponseErrorPage
)

func (k ResponseKind) String() string {
	switch k {
	case ResponseRedirect:
		return "redirect"
	case ResponseErrorPage:
		return "error_page"
	default:
		return "json"
	}
}

// Response is the transport-neutral shape of a login outcome.
type Response struct {
	Kind    ResponseKind
	URL     string
	Message string
	Status  int
	Code    apperrors.ErrorCode
}

// LoginRequest carries one login attempt.
type LoginRequest struct {
	Username string
	Password string
	// DN is the directory base; the configured default applies when empty.
	DN string
	// Continue is the post-login target exactly as supplied.
	Continue string
}

// LoginResult is the terminal state of a login plus how to respond.
type LoginResult struct {
	State    domainauth.LoginState
	Identity domainauth.Identity
	// Token is set only when State is StateTokenIssued.
	Token    string
	Continue domainauth.ContinueDecision
	Response Response
}

// SessionManagerOptions groups dependencies for SessionManager.
type SessionManagerOptions struct {
	Directory ports.DirectoryClient
	Tokens    ports.TokenStore
	Validator *domainauth.ContinueValidator

	// AdminUser is either a bare cn or a full DN.
	AdminUser     string
	AdminPassword string
	DefaultDN     string
	// Timeout bounds every directory call. Defaults to 10s.
	Timeout time.Duration

	Logger  *slog.Logger
	Metrics *metrics.Recorder
}

// SessionManager drives the login state machine against the directory and token store.
type SessionManager struct {
	directory     ports.DirectoryClient
	tokens        ports.TokenStore
	validator     *domainauth.ContinueValidator
	adminUser     string
	adminPassword string
	defaultDN     string
	timeout       time.Duration
	logger        *slog.Logger
	metrics       *metrics.Recorder
}

// NewSessionManager constructs a SessionManager.
func NewSessionManager(opts SessionManagerOptions) (*SessionManager, error) {
	if opts.Directory == nil {
		return nil, errors.New("directory client is required")
	}
	if opts.Tokens == nil {
		return nil, errors.New("token store is required")
	}
	validator := opts.Validator
	if validator == nil {
		v, err := domainauth.NewContinueValidator("")
		if err != nil {
			return nil, err
		}
		validator = v
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultDirectoryTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionManager{
		directory:     opts.Directory,
		tokens:        opts.Tokens,
		validator:     validator,
		adminUser:     opts.AdminUser,
		adminPassword: opts.AdminPassword,
		defaultDN:     opts.DefaultDN,
		timeout:       timeout,
		logger:        logger.With("component", "session_manager"),
		metrics:       opts.Metrics,
	}, nil
}

// AdminBindDN returns the DN used for the administrative bind under base.
func AdminBindDN(adminUser, base string) string {
	if strings.Contains(adminUser, "=") {
		return adminUser
	}
	return "cn=" + adminUser + "," + base
}

// Login runs one login attempt to a terminal state. It never returns raw backend errors.
func (m *SessionManager) Login(ctx context.Context, req LoginRequest) *LoginResult {
	start := time.Now()
	dn := req.DN
	if dn == "" {
		dn = m.defaultDN
	}

	ctx, span := tracer.Start(ctx, "sso.login",
		trace.WithAttributes(
			attribute.String("sso.uid", req.Username),
			attribute.String("sso.dn", dn),
		),
	)
	defer span.End()

	res, cause := m.login(ctx, req, dn)

	span.SetAttributes(
		attribute.String("sso.state", string(res.State)),
		attribute.String("sso.continue", res.Continue.Kind.String()),
	)
	if cause != nil {
		span.RecordError(cause)
		span.SetStatus(codes.Error, string(res.State))
	}
	m.logOutcome(ctx, req.Username, dn, res, cause)
	m.metrics.EmitLogin(metrics.LoginMetric{
		State:    res.State,
		Duration: time.Since(start),
		Err:      cause,
	})
	return res
}

func (m *SessionManager) login(ctx context.Context, req LoginRequest, dn string) (*LoginResult, error) {
	res := &LoginResult{
		State:    domainauth.StateStart,
		Continue: domainauth.ContinueDecision{Raw: req.Continue},
	}

	sess, err := m.connect(ctx, dn)
	if err != nil {
		return m.fail(res, domainauth.StateDirectoryUnreachable), err
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			m.logger.DebugContext(ctx, "directory session close failed", "error", cerr)
		}
	}()
	res.State = domainauth.StateDirectoryBound

	entry, err := m.findEntry(ctx, sess, req.Username, dn)
	if err != nil {
		if errors.Is(err, domainauth.ErrNoSuchObject) {
			return m.fail(res, domainauth.StateEntryNotFound), err
		}
		return m.fail(res, domainauth.StateDirectoryUnreachable), err
	}
	res.State = domainauth.StateEntryFound

	stored := entry.FirstValue(domainauth.PasswordAttribute)
	ok, verr := domainauth.VerifyPassword(stored, req.Password)
	if !ok {
		cause := verr
		if cause == nil {
			cause = errors.New("password mismatch")
		}
		return m.fail(res, domainauth.StatePasswordRejected), cause
	}
	res.State = domainauth.StatePasswordChecked

	res.Continue = m.validator.Classify(req.Continue)
	if res.Continue.Kind == domainauth.ContinueRejectedExternal {
		cause := fmt.Errorf("continue target %q is outside the allowed domain", req.Continue)
		res.Response = Response{
			Kind:    ResponseErrorPage,
			Message: MessageCredentialsNotRecognized,
			Status:  http.StatusUnauthorized,
			Code:    apperrors.ErrCodeUnauthorized,
		}
		return res, cause
	}

	token, err := m.tokens.Rotate(ctx, req.Username, dn)
	if err != nil {
		return m.fail(res, domainauth.StateStoreFailure), err
	}
	res.State = domainauth.StateTokenIssued
	res.Token = token
	res.Identity = domainauth.Identity{UID: req.Username, DN: dn}

	if res.Continue.Kind == domainauth.ContinueAllowedRedirect {
		res.Response = Response{
			Kind:   ResponseRedirect,
			URL:    domainauth.AppendToken(res.Continue.URL, token),
			Status: http.StatusFound,
		}
		return res, nil
	}
	res.Response = Response{Kind: ResponseJSON, Status: http.StatusOK}
	return res, nil
}

// connect opens a session and performs the administrative bind.
func (m *SessionManager) connect(ctx context.Context, dn string) (ports.DirectorySession, error) {
	cctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	sess, err := m.directory.Connect(cctx)
	if err != nil {
		return nil, err
	}
	if err := sess.Bind(cctx, AdminBindDN(m.adminUser, dn), m.adminPassword); err != nil {
		_ = sess.Close()
		return nil, err
	}
	return sess, nil
}

// findEntry runs the base-object search for the user's entry.
func (m *SessionManager) findEntry(
	ctx context.Context,
	sess ports.DirectorySession,
	username, dn string,
) (domainauth.DirectoryEntry, error) {
	sctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	entries, err := sess.Search(sctx, ports.SearchRequest{
		BaseDN: domainauth.UserEntryDN(domainauth.EscapeDNValue(username), dn),
		Scope:  domainauth.ScopeBase,
	})
	if err != nil {
		return domainauth.DirectoryEntry{}, err
	}
	if len(entries) == 0 {
		return domainauth.DirectoryEntry{}, domainauth.ErrNoSuchObject
	}
	return entries[0], nil
}

func (m *SessionManager) fail(res *LoginResult, state domainauth.LoginState) *LoginResult {
	res.State = state
	res.Token = ""
	switch state {
	case domainauth.StateEntryNotFound, domainauth.StatePasswordRejected:
		res.Response = Response{
			Kind:    ResponseErrorPage,
			Message: MessageCredentialsNotRecognized,
			Status:  http.StatusUnauthorized,
			Code:    apperrors.ErrCodeUnauthorized,
		}
	case domainauth.StateDirectoryUnreachable:
		res.Response = Response{
			Kind:    ResponseErrorPage,
			Message: MessageInternalError,
			Status:  http.StatusServiceUnavailable,
			Code:    apperrors.ErrCodeUnavailable,
		}
	default:
		res.Response = Response{
			Kind:    ResponseErrorPage,
			Message: MessageInternalError,
			Status:  http.StatusInternalServerError,
			Code:    apperrors.ErrCodeInternal,
		}
	}
	return res
}

func (m *SessionManager) logOutcome(ctx context.Context, uid, dn string, res *LoginResult, cause error) {
	attrs := []any{"uid", uid, "dn", dn, "state", string(res.State), "continue", res.Continue.Kind.String()}
	switch res.State {
	case domainauth.StateTokenIssued:
		m.logger.InfoContext(ctx, "login succeeded", attrs...)
	case domainauth.StateDirectoryUnreachable, domainauth.StateStoreFailure:
		m.logger.ErrorContext(ctx, "login failed", append(attrs, "error", cause)...)
	default:
		m.logger.WarnContext(ctx, "login rejected", append(attrs, "error", cause)...)
	}
}

// Lookup resolves a token to its identity.
func (m *SessionManager) Lookup(ctx context.Context, token string) (domainauth.Identity, bool, error) {
	id, ok, err := m.tokens.Lookup(ctx, token)
	switch {
	case err != nil:
		m.metrics.EmitLookup(metrics.ResultError)
		m.logger.ErrorContext(ctx, "token lookup failed", "error", err)
		return domainauth.Identity{}, false, apperrors.Wrap(err, apperrors.ErrCodeInternal, "token lookup failed")
	case !ok:
		m.metrics.EmitLookup(metrics.ResultMiss)
		return domainauth.Identity{}, false, nil
	default:
		m.metrics.EmitLookup(metrics.ResultHit)
		return id, true, nil
	}
}
