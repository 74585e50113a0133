// Package gateway implements the authentication side of the system: it
// starts the authorization-code flow against the external identity provider,
// walks the callback through its verification gates, and mints the signed
// session token handed to the downstream application.
package gateway

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"authgate/internal/allowlist"
	"authgate/internal/audit"
	"authgate/internal/gateway/metrics"
	"authgate/internal/oidc"
	"authgate/internal/platform/config"
	"authgate/internal/sessiontoken"
	"authgate/pkg/platform/middleware/device"
)

// Query parameters of the redirect back to the downstream application.
const (
	TokenParam        = "auth_token"
	ErrorParam        = "auth_error"
	EmailParam        = "email"
	UnauthorizedValue = "unauthorized_user"
)

// Callback carries everything the callback endpoint received. CookiePresent
// distinguishes "no cookie" from "empty cookie": both fail, with different
// diagnostics.
type Callback struct {
	Error         string
	Code          string
	State         string
	CookieState   string
	CookiePresent bool
}

// Service drives the login flow. It holds no per-request state; the state
// token lives in the browser cookie and nowhere else.
type Service struct {
	cfg     config.Gateway
	idp     oidc.Client
	tokens  *sessiontoken.Service
	allow   *allowlist.Cache
	audit   audit.Publisher
	metrics *metrics.Metrics
	logger  *slog.Logger
	tracer  trace.Tracer
}

// Option configures a Service.
type Option func(*Service)

// WithAudit sets the audit publisher.
func WithAudit(publisher audit.Publisher) Option {
	return func(s *Service) {
		if publisher != nil {
			s.audit = publisher
		}
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService wires the login flow. The allow-list cache is owned by the
// caller so the gateway and any co-located components can share refresh
// policy.
func NewService(
	cfg config.Gateway,
	idp oidc.Client,
	tokens *sessiontoken.Service,
	allow *allowlist.Cache,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		cfg:    cfg,
		idp:    idp,
		tokens: tokens,
		allow:  allow,
		audit:  audit.NewMemoryPublisher(),
		logger: logger,
		tracer: otel.Tracer("authgate/gateway"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// StartLogin generates the anti-CSRF state token and the authorization
// request URL. The returned state goes into the short-lived state cookie; the
// gateway stores nothing server-side.
func (s *Service) StartLogin(ctx context.Context) (redirectURL, state string, err error) {
	if s.idp == nil || s.cfg.ClientID == "" || s.cfg.ClientSecret == "" || s.cfg.RedirectURI == "" {
		return "", "", ErrNotConfigured
	}

	state, err = NewStateToken()
	if err != nil {
		s.logger.ErrorContext(ctx, "state token generation failed", "error", err)
		return "", "", ErrTokenMinting
	}

	s.metrics.IncrementLoginsStarted()
	s.emit(ctx, audit.NewEvent(audit.ActionLoginStarted))
	return s.idp.AuthCodeURL(state), state, nil
}

// HandleCallback walks the callback through its gates in order. Every gate is
// terminal on failure. Allow-list rejection is not an error: control returns
// to the downstream application via the error redirect, so the user lands in
// the app they started from.
func (s *Service) HandleCallback(ctx context.Context, cb Callback) (string, error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveCallbackLatency(time.Since(start))
	}()

	// Gate 1: the IdP reported an error. Checked before anything else so an
	// error response with a stray code still surfaces as an IdP error.
	if cb.Error != "" {
		s.logger.WarnContext(ctx, "identity provider returned error", "idp_error", cb.Error)
		return s.fail(ctx, "idp_error", ErrIdentityProvider)
	}

	// Gate 2: an authorization code must be present.
	if cb.Code == "" {
		return s.fail(ctx, "missing_code", ErrMissingCode)
	}

	// Gate 3: the state cookie must have survived the round-trip.
	if !cb.CookiePresent || cb.CookieState == "" {
		return s.fail(ctx, "missing_state_cookie", ErrMissingStateCookie)
	}

	// Gate 4: CSRF check. The state parameter must equal the cookie value.
	if !StateMatches(cb.State, cb.CookieState) {
		s.logger.WarnContext(ctx, "state mismatch on callback", "request_id", middleware.GetReqID(ctx))
		return s.fail(ctx, "csrf_mismatch", ErrStateMismatch)
	}

	// Gate 5: exchange the code for tokens at the IdP.
	exchangeCtx, cancel := context.WithTimeout(ctx, s.cfg.IdPTimeout)
	defer cancel()

	exchangeCtx, span := s.tracer.Start(exchangeCtx, "oidc.exchange")
	rawIDToken, err := s.idp.Exchange(exchangeCtx, cb.Code)
	span.End()
	if err != nil {
		s.logger.ErrorContext(ctx, "code exchange failed", "error", err)
		return s.fail(ctx, "exchange_failed", ErrTokenExchange)
	}

	// Gate 6: verify the ID token signature and audience.
	verifyCtx, span := s.tracer.Start(exchangeCtx, "oidc.verify")
	claims, err := s.idp.VerifyIDToken(verifyCtx, rawIDToken)
	span.End()
	if err != nil {
		s.logger.ErrorContext(ctx, "id token verification failed", "error", err)
		return s.fail(ctx, "id_token_invalid", ErrIdentityToken)
	}

	// Gate 7: allow-list authorization. Rejection redirects back to the
	// downstream app instead of dead-ending on an error page.
	if !s.allow.Get(ctx).Contains(claims.Email) {
		s.logger.WarnContext(ctx, "email not on allow-list", "email", claims.Email)
		s.metrics.IncrementOutcome("unauthorized")
		event := audit.NewEvent(audit.ActionLoginUnauthorized)
		event.Subject = claims.Subject
		event.Email = claims.Email
		s.emit(ctx, event)
		return s.unauthorizedRedirect(claims.Email), nil
	}

	// Gate 8: mint the session token.
	token, err := s.tokens.Mint(sessiontoken.Identity{
		Subject: claims.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
	}, s.cfg.TokenTTL)
	if err != nil {
		s.logger.ErrorContext(ctx, "session token minting failed", "error", err)
		return s.fail(ctx, "minting_failed", ErrTokenMinting)
	}

	// Gate 9: success redirect with the token attached.
	s.metrics.IncrementOutcome("success")
	event := audit.NewEvent(audit.ActionLoginSucceeded)
	event.Subject = claims.Subject
	event.Email = claims.Email
	s.emit(ctx, event)

	return s.cfg.DownstreamURL + "?" + url.Values{TokenParam: {token}}.Encode(), nil
}

// CookieTTL exposes the configured state cookie lifetime to the transport
// layer.
func (s *Service) CookieTTL() time.Duration {
	return s.cfg.StateCookieTTL
}

// SecureCookies reports whether cookies should carry the Secure flag, based
// on the gateway's external URL scheme.
func (s *Service) SecureCookies() bool {
	u, err := url.Parse(s.cfg.BaseURL)
	return err == nil && u.Scheme == "https"
}

func (s *Service) fail(ctx context.Context, outcome string, err error) (string, error) {
	s.metrics.IncrementOutcome(outcome)
	event := audit.NewEvent(audit.ActionLoginFailed)
	event.Reason = outcome
	s.emit(ctx, event)
	return "", err
}

func (s *Service) unauthorizedRedirect(email string) string {
	params := url.Values{
		ErrorParam: {UnauthorizedValue},
		EmailParam: {email},
	}
	return s.cfg.DownstreamURL + "?" + params.Encode()
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	info := device.GetInfo(ctx)
	event.Browser = info.Browser
	event.OS = info.OS
	event.RequestID = middleware.GetReqID(ctx)
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}
