package httptransport

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"authgate/internal/consumer"
	"authgate/internal/gateway"
	"authgate/internal/sessiontoken"
	"authgate/pkg/platform/middleware/device"
)

// ConsumerService is the surface the consumer handler needs.
type ConsumerService interface {
	VerifySessionToken(ctx context.Context, token string) (sessiontoken.Identity, error)
	ProcessLoginApproval(ctx context.Context, claims sessiontoken.Identity) (bool, string, error)
	IsApproved(ctx context.Context, identityKey string) bool
	EstablishSession(ctx context.Context, claims sessiontoken.Identity, ttl time.Duration) (consumer.Session, error)
	FindSession(ctx context.Context, id string) (consumer.Session, error)
	Logout(ctx context.Context, id string) error
}

// ConsumerConfig carries the transport-level settings of the consumer app.
type ConsumerConfig struct {
	LoginURL      string // gateway /login endpoint to send unauthenticated users to
	SessionTTL    time.Duration
	SecureCookies bool
}

// ConsumerHandler serves the downstream application's authentication
// surface: one-time token consumption, the protected resource, logout.
type ConsumerHandler struct {
	svc    ConsumerService
	cfg    ConsumerConfig
	health func(ctx context.Context) error
}

func NewConsumerHandler(svc ConsumerService, cfg ConsumerConfig, health func(ctx context.Context) error) *ConsumerHandler {
	return &ConsumerHandler{svc: svc, cfg: cfg, health: health}
}

// NewConsumerRouter wires the consumer's endpoints.
func NewConsumerRouter(h *ConsumerHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(device.Capture)

	r.Get("/", h.handleRoot)
	r.Get("/resource", h.handleResource)
	r.Post("/logout", h.handleLogout)
	r.Get("/healthz", h.handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return r
}

// handleRoot is the landing endpoint the gateway redirects back to. It
// consumes the one-time auth_token parameter, surfaces allow-list rejections
// from the gateway, and otherwise reports session state.
func (h *ConsumerHandler) handleRoot(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	// Allow-list rejection relayed by the gateway: an expected outcome, not
	// a fault.
	if query.Get(gateway.ErrorParam) == gateway.UnauthorizedValue {
		writeJSON(w, http.StatusForbidden, map[string]string{
			"error":   "unauthorized_user",
			"message": "this email address is not permitted to use the application",
			"email":   query.Get(gateway.EmailParam),
		})
		return
	}

	if token := query.Get(gateway.TokenParam); token != "" {
		h.consumeToken(w, r, token)
		return
	}

	// No token: report session state so the frontend can decide to render or
	// to send the user to the gateway.
	if session, err := h.currentSession(r); err == nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"authenticated": true,
			"email":         session.Email,
			"name":          session.Name,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": false,
		"login_url":     h.cfg.LoginURL,
	})
}

// consumeToken handles the one-time bearer credential. On success the
// browser is redirected to the bare base path, scrubbing the token from the
// visible URL.
func (h *ConsumerHandler) consumeToken(w http.ResponseWriter, r *http.Request, token string) {
	ctx := r.Context()

	claims, err := h.svc.VerifySessionToken(ctx, token)
	if err != nil {
		// One generic message for every verification failure kind.
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"error":     "invalid_session",
			"message":   "session invalid, please log in again",
			"login_url": h.cfg.LoginURL,
		})
		return
	}

	approved, _, err := h.svc.ProcessLoginApproval(ctx, claims)
	if err != nil {
		writeError(w, err)
		return
	}
	if !approved {
		writeJSON(w, http.StatusForbidden, map[string]string{
			"error":   "unauthorized_user",
			"message": "this email address is not permitted to use the application",
			"email":   claims.Email,
		})
		return
	}

	session, err := h.svc.EstablishSession(ctx, claims, h.cfg.SessionTTL)
	if err != nil {
		writeError(w, err)
		return
	}

	http.SetCookie(w, h.sessionCookie(session.ID, h.cfg.SessionTTL))
	http.Redirect(w, r, "/", http.StatusFound)
}

// handleResource is the protected endpoint. The approved claim is re-read
// from the durable store on every call, so external revocation bites on the
// next request.
func (h *ConsumerHandler) handleResource(w http.ResponseWriter, r *http.Request) {
	session, err := h.currentSession(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"error":     "invalid_session",
			"message":   "session invalid, please log in again",
			"login_url": h.cfg.LoginURL,
		})
		return
	}

	if !h.svc.IsApproved(r.Context(), session.Subject) {
		writeJSON(w, http.StatusForbidden, map[string]string{
			"error":   "not_approved",
			"message": "access has been revoked for this account",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"subject": session.Subject,
		"email":   session.Email,
		"name":    session.Name,
	})
}

func (h *ConsumerHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(consumer.SessionCookieName); err == nil {
		if err := h.svc.Logout(r.Context(), cookie.Value); err != nil {
			writeError(w, err)
			return
		}
	}
	http.SetCookie(w, h.sessionCookie("", -1))
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

func (h *ConsumerHandler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "degraded",
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *ConsumerHandler) currentSession(r *http.Request) (consumer.Session, error) {
	cookie, err := r.Cookie(consumer.SessionCookieName)
	if err != nil {
		return consumer.Session{}, consumer.ErrSessionNotFound
	}
	return h.svc.FindSession(r.Context(), cookie.Value)
}

func (h *ConsumerHandler) sessionCookie(value string, ttl time.Duration) *http.Cookie {
	maxAge := int(ttl.Seconds())
	if ttl < 0 {
		maxAge = -1
	}
	return &http.Cookie{
		Name:     consumer.SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}
