package httpx

import (
	"log/slog"
	"net/http"
	"time"
)

// APIHandlers serves the JSON API used by relying applications.
type APIHandlers struct {
	Sessions SessionService
	GitRev   string
	Version  string
	Now      func() time.Time
	Logger   *slog.Logger
}

// Lookup resolves access_token to the identity it was issued for.
func (h *APIHandlers) Lookup(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("access_token")

	id, ok, err := h.Sessions.Lookup(r.Context(), token)
	switch {
	case err != nil:
		WriteError(w, ErrorParams{Status: http.StatusInternalServerError, Code: CodeInternal, Desc: DescInternal})
	case !ok:
		h.logger().DebugContext(r.Context(), "invalid or retired access token")
		WriteError(w, ErrorParams{Code: CodeInvalidToken, Desc: DescInvalidToken})
	default:
		WriteSuccess(w, Credential{UID: id.UID, DN: id.DN})
	}
}

// SystemInfo reports server time in epoch milliseconds and build metadata.
func (h *APIHandlers) SystemInfo(w http.ResponseWriter, _ *http.Request) {
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	WriteSuccess(w, SystemInfo{
		ServerTime: now().UnixMilli(),
		GitRev:     h.GitRev,
		Version:    h.Version,
	})
}

func (h *APIHandlers) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}
