package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	domainauth "github.com/target/sso-bridge/internal/domain/auth"
	obserrors "github.com/target/sso-bridge/internal/observability/errors"
	"github.com/target/sso-bridge/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultHit   = "hit"
	ResultMiss  = "miss"
	ResultError = "error"
)

// Collectors holds the Prometheus instruments for login and token lookups.
type Collectors struct {
	LoginTotal    *prometheus.CounterVec
	LoginDuration prometheus.Histogram
	LookupTotal   *prometheus.CounterVec
}

// NewCollectors creates the instruments and registers them on reg.
func NewCollectors(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		LoginTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ssobridge_login_total",
			Help: "Login attempts by terminal state",
		}, []string{"state"}),
		LoginDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ssobridge_login_duration_seconds",
			Help:    "Login latency in seconds, directory round trips included",
			Buckets: prometheus.DefBuckets,
		}),
		LookupTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ssobridge_token_lookup_total",
			Help: "Token lookups by result",
		}, []string{"result"}),
	}
	if reg != nil {
		reg.MustRegister(c.LoginTotal, c.LoginDuration, c.LookupTotal)
	}
	return c
}

// NewRegistry returns a private registry carrying the Go and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// Handler exposes reg in the Prometheus text and OpenMetrics formats.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// LoginMetric captures the outcome of a single login for metric emission.
type LoginMetric struct {
	State    domainauth.LoginState
	Duration time.Duration
	Err      error
}

// Recorder fans login and lookup outcomes out to StatsD and Prometheus.
// Either side may be nil.
type Recorder struct {
	Sink       statsd.Sink
	Collectors *Collectors
}

// EmitLogin records a finished login attempt.
func (r *Recorder) EmitLogin(in LoginMetric) {
	if r == nil {
		return
	}
	state := string(in.State)

	if r.Collectors != nil {
		r.Collectors.LoginTotal.WithLabelValues(state).Inc()
		if in.Duration > 0 {
			r.Collectors.LoginDuration.Observe(in.Duration.Seconds())
		}
	}

	if r.Sink == nil {
		return
	}
	tags := map[string]string{"state": state}
	if in.Err != nil {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}
	r.Sink.Count("login.attempt", 1, tags)
	if in.Duration > 0 {
		r.Sink.Timing("login.duration", in.Duration, CloneTags(tags))
	}
}

// EmitLookup records a token lookup with ResultHit, ResultMiss or ResultError.
func (r *Recorder) EmitLookup(result string) {
	if r == nil {
		return
	}
	if r.Collectors != nil {
		r.Collectors.LookupTotal.WithLabelValues(result).Inc()
	}
	if r.Sink != nil {
		r.Sink.Count("token.lookup", 1, map[string]string{"result": result})
	}
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
