package httptransport

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"authgate/internal/gateway"
	"authgate/pkg/platform/middleware/device"
)

//go:generate mockgen -source=gateway.go -destination=mocks/gateway-mocks.go -package=mocks GatewayService

// GatewayService is the surface the gateway handler needs; narrowed to an
// interface so handler tests can mock the flow.
type GatewayService interface {
	StartLogin(ctx context.Context) (redirectURL, state string, err error)
	HandleCallback(ctx context.Context, cb gateway.Callback) (string, error)
	CookieTTL() time.Duration
	SecureCookies() bool
}

// GatewayHandler serves the two endpoints of the login flow.
type GatewayHandler struct {
	svc GatewayService
}

func NewGatewayHandler(svc GatewayService) *GatewayHandler {
	return &GatewayHandler{svc: svc}
}

// NewGatewayRouter wires the gateway's public endpoints.
func NewGatewayRouter(h *GatewayHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(device.Capture)

	r.Get("/login", h.handleLogin)
	r.Get("/callback", h.handleCallback)
	r.Get("/healthz", handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return r
}

func (h *GatewayHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	redirectURL, state, err := h.svc.StartLogin(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	http.SetCookie(w, gateway.StateCookie(state, h.svc.CookieTTL(), h.svc.SecureCookies()))
	http.Redirect(w, r, redirectURL, http.StatusFound)
}

func (h *GatewayHandler) handleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	cb := gateway.Callback{
		Error: query.Get("error"),
		Code:  query.Get("code"),
		State: query.Get("state"),
	}
	if cookie, err := r.Cookie(gateway.StateCookieName); err == nil {
		cb.CookieState = cookie.Value
		cb.CookiePresent = true
	}

	// The state cookie is single-use: cleared on every exit path.
	http.SetCookie(w, gateway.ClearStateCookie(h.svc.SecureCookies()))

	redirectURL, err := h.svc.HandleCallback(r.Context(), cb)
	if err != nil {
		writeError(w, err)
		return
	}
	http.Redirect(w, r, redirectURL, http.StatusFound)
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
