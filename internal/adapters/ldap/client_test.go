package ldap

import (
	"context"
	"errors"
	"testing"
	"time"

	goldap "github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/sso-bridge/internal/domain/auth"
	"github.com/target/sso-bridge/internal/ports"
	"github.com/target/sso-bridge/internal/testutil"
)

func TestNewClient(t *testing.T) {
	_, err := NewClient(Config{})
	require.Error(t, err)

	c, err := NewClient(Config{URL: "ldap://127.0.0.1:389"})
	require.NoError(t, err)
	assert.Equal(t, defaultTimeout, c.timeout)
}

func TestEffectiveTimeout(t *testing.T) {
	c, err := NewClient(Config{URL: "ldap://127.0.0.1:389", Timeout: time.Minute})
	require.NoError(t, err)

	assert.Equal(t, time.Minute, c.effectiveTimeout(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	got := c.effectiveTimeout(ctx)
	assert.LessOrEqual(t, got, 2*time.Second)
	assert.Positive(t, got)
}

func TestConnect_CanceledContext(t *testing.T) {
	c, err := NewClient(Config{URL: "ldap://127.0.0.1:389"})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = c.Connect(ctx)
	require.ErrorIs(t, err, domainauth.ErrDirectoryConnect)
}

func TestConnect_Unreachable(t *testing.T) {
	// Port 1 on loopback is refused on any sane host.
	c, err := NewClient(Config{URL: "ldap://127.0.0.1:1", Timeout: time.Second})
	require.NoError(t, err)

	_, err = c.Connect(context.Background())
	require.ErrorIs(t, err, domainauth.ErrDirectoryConnect)
}

func TestBuildSearchRequest(t *testing.T) {
	req := buildSearchRequest(ports.SearchRequest{
		BaseDN: "uid=euler,ou=People,dc=example,dc=com",
		Scope:  domainauth.ScopeBase,
	})
	assert.Equal(t, "uid=euler,ou=People,dc=example,dc=com", req.BaseDN)
	assert.Equal(t, goldap.ScopeBaseObject, req.Scope)
	assert.Equal(t, matchAllFilter, req.Filter)

	req = buildSearchRequest(ports.SearchRequest{BaseDN: "dc=x", Scope: domainauth.ScopeSubtree, Filter: "(uid=a)"})
	assert.Equal(t, goldap.ScopeWholeSubtree, req.Scope)
	assert.Equal(t, "(uid=a)", req.Filter)

	assert.Equal(t, goldap.ScopeSingleLevel, mapScope(domainauth.ScopeOneLevel))
}

func TestToDomainEntry(t *testing.T) {
	e := goldap.NewEntry("uid=euler,ou=People,dc=example,dc=com", map[string][]string{
		"userPassword": {"{SSHA}abc", "{SSHA}def"},
	})
	got := toDomainEntry(e)
	assert.Equal(t, "uid=euler,ou=People,dc=example,dc=com", got.DN)
	assert.Equal(t, []string{"{SSHA}abc", "{SSHA}def"}, got.Values(domainauth.PasswordAttribute))
}

func TestMapSearchError(t *testing.T) {
	err := mapSearchError(goldap.NewError(goldap.LDAPResultNoSuchObject, errors.New("no such object")))
	require.ErrorIs(t, err, domainauth.ErrNoSuchObject)

	var se *domainauth.SearchError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, domainauth.ResultNoSuchObject, se.Code)

	err = mapSearchError(goldap.NewError(goldap.LDAPResultInsufficientAccessRights, errors.New("denied")))
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 50, se.Code)
	assert.NotErrorIs(t, err, domainauth.ErrNoSuchObject)

	err = mapSearchError(goldap.NewError(goldap.ErrorNetwork, errors.New("reset")))
	require.ErrorIs(t, err, domainauth.ErrDirectoryConnect)

	plain := errors.New("boom")
	assert.Equal(t, plain, mapSearchError(plain))
}

func TestMapBindError(t *testing.T) {
	err := mapBindError(goldap.NewError(goldap.LDAPResultInvalidCredentials, errors.New("bad")))
	require.ErrorIs(t, err, domainauth.ErrDirectoryBind)

	err = mapBindError(goldap.NewError(goldap.ErrorNetwork, errors.New("closed")))
	require.ErrorIs(t, err, domainauth.ErrDirectoryConnect)
}

func TestClient_LiveDirectory(t *testing.T) {
	srv := testutil.SetupTestLDAP(t)

	c, err := NewClient(Config{URL: srv.URI, Timeout: 5 * time.Second})
	require.NoError(t, err)

	ctx := context.Background()
	sess, err := c.Connect(ctx)
	require.NoError(t, err)
	defer sess.Close()

	require.NoError(t, sess.Bind(ctx, srv.AdminDN, srv.AdminPassword))

	entries, err := sess.Search(ctx, ports.SearchRequest{BaseDN: srv.BaseDN, Scope: domainauth.ScopeBase})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, srv.BaseDN, entries[0].DN)

	_, err = sess.Search(ctx, ports.SearchRequest{
		BaseDN: domainauth.UserEntryDN("no-such-user", srv.BaseDN),
		Scope:  domainauth.ScopeBase,
	})
	require.ErrorIs(t, err, domainauth.ErrNoSuchObject)

	bad, err := c.Connect(ctx)
	require.NoError(t, err)
	defer bad.Close()
	require.ErrorIs(t, bad.Bind(ctx, srv.AdminDN, srv.AdminPassword+"-wrong"), domainauth.ErrDirectoryBind)
}
