package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-playground/validator/v10"
	domainauth "github.com/target/sso-bridge/internal/domain/auth"
	"github.com/target/sso-bridge/internal/service"
)

const (
	loginTemplate = "login"
	// defaultContinue is used when the continue query parameter is absent.
	defaultContinue = "?"
	maxFormBytes    = 64 << 10
)

// SessionService is the login and lookup surface the handlers depend on.
type SessionService interface {
	Login(ctx context.Context, req service.LoginRequest) *service.LoginResult
	Lookup(ctx context.Context, token string) (domainauth.Identity, bool, error)
}

var _ SessionService = (*service.SessionManager)(nil)

type loginForm struct {
	UserName string `validate:"required,max=256"`
	Password string `validate:"required,max=1024"`
}

// loginPage is the data the login template renders.
type loginPage struct {
	LoginCaption string
	Version      string
	Continue     string
	TargetDN     string
	Action       string
	Error        bool
	ErrorDesc    string
}

// LoginHandlers serves the login form and processes submissions.
type LoginHandlers struct {
	Sessions  SessionService
	Renderer  *TemplateRenderer
	Caption   string
	Version   string
	DefaultDN string
	Logger    *slog.Logger

	validate *validator.Validate
}

// NewLoginHandlers wires LoginHandlers with a form validator.
func NewLoginHandlers(h LoginHandlers) *LoginHandlers {
	h.validate = validator.New(validator.WithRequiredStructEnabled())
	if h.Logger == nil {
		h.Logger = slog.Default()
	}
	return &h
}

// Form renders the empty login page.
func (h *LoginHandlers) Form(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.render(w, r, http.StatusOK, h.page(q.Get("continue"), q.Get("dn"), ""))
}

// Login authenticates the submitted credentials and responds with a redirect,
// a JSON token envelope, or the login page carrying an error message.
func (h *LoginHandlers) Login(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cont := defaultContinue
	if q.Has("continue") {
		cont = q.Get("continue")
	}
	dn := q.Get("dn")

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		h.Logger.WarnContext(r.Context(), "login form unreadable", "error", err)
		h.render(w, r, http.StatusBadRequest, h.page(cont, dn, DescBadRequest))
		return
	}
	form := loginForm{
		UserName: r.PostForm.Get("user_name"),
		Password: r.PostForm.Get("password"),
	}
	if err := h.validate.Struct(form); err != nil {
		h.Logger.WarnContext(r.Context(), "login form rejected", "error", err)
		h.render(w, r, http.StatusBadRequest, h.page(cont, dn, service.MessageCredentialsNotRecognized))
		return
	}

	res := h.Sessions.Login(r.Context(), service.LoginRequest{
		Username: form.UserName,
		Password: form.Password,
		DN:       dn,
		Continue: cont,
	})

	switch res.Response.Kind {
	case service.ResponseRedirect:
		http.Redirect(w, r, res.Response.URL, res.Response.Status)
	case service.ResponseJSON:
		WriteSuccess(w, res.Token)
	default:
		h.render(w, r, res.Response.Status, h.page(cont, dn, res.Response.Message))
	}
}

func (h *LoginHandlers) page(cont, dn, errDesc string) loginPage {
	target := dn
	if target == "" {
		target = h.DefaultDN
	}
	return loginPage{
		LoginCaption: h.Caption,
		Version:      h.Version,
		Continue:     cont,
		TargetDN:     target,
		Action:       loginAction(cont, dn),
		Error:        errDesc != "",
		ErrorDesc:    errDesc,
	}
}

// loginAction keeps continue and dn on the form's POST target.
func loginAction(cont, dn string) string {
	v := url.Values{}
	if cont != "" {
		v.Set("continue", cont)
	}
	if dn != "" {
		v.Set("dn", dn)
	}
	if len(v) == 0 {
		return "/login"
	}
	return "/login?" + v.Encode()
}

func (h *LoginHandlers) render(w http.ResponseWriter, r *http.Request, status int, page loginPage) {
	if err := h.Renderer.Render(w, status, loginTemplate, page); err != nil {
		h.Logger.ErrorContext(r.Context(), "login page render failed", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
