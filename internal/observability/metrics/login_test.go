package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/sso-bridge/internal/domain/auth"
	"github.com/target/sso-bridge/internal/observability/statsd"
)

func TestRecorder_EmitLogin(t *testing.T) {
	reg := NewRegistry()
	sink := &statsd.Recorder{}
	r := &Recorder{Sink: sink, Collectors: NewCollectors(reg)}

	r.EmitLogin(LoginMetric{State: domainauth.StateTokenIssued, Duration: 20 * time.Millisecond})
	r.EmitLogin(LoginMetric{
		State: domainauth.StateDirectoryUnreachable,
		Err:   domainauth.ErrDirectoryConnect,
	})

	assert.InDelta(t, 1, testutil.ToFloat64(r.Collectors.LoginTotal.WithLabelValues("token_issued")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.Collectors.LoginTotal.WithLabelValues("directory_unreachable")), 0)

	attempts := sink.Named("login.attempt")
	require.Len(t, attempts, 2)
	assert.Equal(t, "directory_connect", attempts[1].Tags["error_class"])
	assert.Len(t, sink.Named("login.duration"), 1)
}

func TestRecorder_EmitLookup(t *testing.T) {
	r := &Recorder{Collectors: NewCollectors(nil)}
	r.EmitLookup(ResultMiss)
	r.EmitLookup(ResultMiss)
	assert.InDelta(t, 2, testutil.ToFloat64(r.Collectors.LookupTotal.WithLabelValues(ResultMiss)), 0)
}

func TestRecorder_NilSafe(t *testing.T) {
	var r *Recorder
	r.EmitLogin(LoginMetric{State: domainauth.StateTokenIssued, Err: errors.New("x")})
	r.EmitLookup(ResultHit)

	(&Recorder{}).EmitLogin(LoginMetric{State: domainauth.StateTokenIssued})
}

func TestHandler_ExposesCollectors(t *testing.T) {
	reg := NewRegistry()
	c := NewCollectors(reg)
	c.LoginTotal.WithLabelValues("token_issued").Inc()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `ssobridge_login_total{state="token_issued"} 1`))
}

func TestCloneTags(t *testing.T) {
	assert.Nil(t, CloneTags(nil))
	src := map[string]string{"a": "1"}
	cp := CloneTags(src)
	cp["a"] = "2"
	assert.Equal(t, "1", src["a"])
}
