package gateway

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"authgate/internal/allowlist"
	"authgate/internal/audit"
	"authgate/internal/oidc"
	"authgate/internal/platform/config"
	"authgate/internal/sessiontoken"
)

// fakeIdP scripts the provider side of the flow.
type fakeIdP struct {
	exchangeErr error
	verifyErr   error
	claims      oidc.Claims

	exchangedCode string
}

func (f *fakeIdP) AuthCodeURL(state string) string {
	return "https://idp.test/auth?state=" + url.QueryEscape(state)
}

func (f *fakeIdP) Exchange(_ context.Context, code string) (string, error) {
	f.exchangedCode = code
	if f.exchangeErr != nil {
		return "", f.exchangeErr
	}
	return "raw-id-token", nil
}

func (f *fakeIdP) VerifyIDToken(_ context.Context, _ string) (oidc.Claims, error) {
	if f.verifyErr != nil {
		return oidc.Claims{}, f.verifyErr
	}
	return f.claims, nil
}

type GatewayServiceSuite struct {
	suite.Suite
	idp    *fakeIdP
	tokens *sessiontoken.Service
	events *audit.MemoryPublisher
	svc    *Service
}

func TestGatewayServiceSuite(t *testing.T) {
	suite.Run(t, new(GatewayServiceSuite))
}

func (s *GatewayServiceSuite) SetupTest() {
	s.idp = &fakeIdP{
		claims: oidc.Claims{
			Subject:       "idp-subject-1",
			Email:         "alice@example.com",
			EmailVerified: true,
			Name:          "Alice",
		},
	}
	s.tokens = sessiontoken.New("test-secret", "https://gateway.test", "https://app.test")
	s.events = audit.NewMemoryPublisher()

	cfg := config.Gateway{
		IssuerURL:      "https://idp.test",
		ClientID:       "client-id",
		ClientSecret:   "client-secret",
		RedirectURI:    "https://gateway.test/callback",
		BaseURL:        "https://gateway.test",
		DownstreamURL:  "https://app.test",
		StateCookieTTL: 10 * time.Minute,
		TokenTTL:       5 * time.Minute,
		IdPTimeout:     10 * time.Second,
	}
	allow := allowlist.NewCache(allowlist.StaticLoader([]string{"alice@example.com"}), 0)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.svc = NewService(cfg, s.idp, s.tokens, allow, logger, WithAudit(s.events))
}

// validCallback returns a callback that passes every gate.
func validCallback() Callback {
	return Callback{
		Code:          "auth-code",
		State:         "state-token",
		CookieState:   "state-token",
		CookiePresent: true,
	}
}

func (s *GatewayServiceSuite) lastAction() string {
	events := s.events.Events()
	s.Require().NotEmpty(events)
	return events[len(events)-1].Action
}

func (s *GatewayServiceSuite) TestStartLogin() {
	redirectURL, state, err := s.svc.StartLogin(context.Background())
	s.Require().NoError(err)

	s.NotEmpty(state)
	s.Contains(redirectURL, url.QueryEscape(state))
	s.True(strings.HasPrefix(redirectURL, "https://idp.test/auth"))
	s.Equal(audit.ActionLoginStarted, s.lastAction())

	_, second, err := s.svc.StartLogin(context.Background())
	s.Require().NoError(err)
	s.NotEqual(state, second, "each login gets a fresh state token")
}

func (s *GatewayServiceSuite) TestStartLogin_NotConfigured() {
	cfg := config.Gateway{BaseURL: "https://gateway.test"}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	allow := allowlist.NewCache(allowlist.StaticLoader(nil), 0)
	svc := NewService(cfg, s.idp, s.tokens, allow, logger)

	_, _, err := svc.StartLogin(context.Background())
	s.Require().ErrorIs(err, ErrNotConfigured)
}

func (s *GatewayServiceSuite) TestHandleCallback_Gates() {
	ctx := context.Background()

	s.Run("provider error wins even with a code present", func() {
		cb := validCallback()
		cb.Error = "access_denied"
		_, err := s.svc.HandleCallback(ctx, cb)
		s.Require().ErrorIs(err, ErrIdentityProvider)
		s.Empty(s.idp.exchangedCode, "no exchange attempted")
	})

	s.Run("missing code", func() {
		cb := validCallback()
		cb.Code = ""
		_, err := s.svc.HandleCallback(ctx, cb)
		s.Require().ErrorIs(err, ErrMissingCode)
	})

	s.Run("missing state cookie", func() {
		cb := validCallback()
		cb.CookieState = ""
		cb.CookiePresent = false
		_, err := s.svc.HandleCallback(ctx, cb)
		s.Require().ErrorIs(err, ErrMissingStateCookie)
	})

	s.Run("empty state cookie", func() {
		cb := validCallback()
		cb.CookieState = ""
		_, err := s.svc.HandleCallback(ctx, cb)
		s.Require().ErrorIs(err, ErrMissingStateCookie)
	})

	s.Run("state mismatch", func() {
		cb := validCallback()
		cb.State = "tampered"
		_, err := s.svc.HandleCallback(ctx, cb)
		s.Require().ErrorIs(err, ErrStateMismatch)
		s.Equal(audit.ActionLoginFailed, s.lastAction())
	})

	s.Run("exchange failure", func() {
		s.idp.exchangeErr = errors.New("idp unreachable")
		defer func() { s.idp.exchangeErr = nil }()
		_, err := s.svc.HandleCallback(ctx, validCallback())
		s.Require().ErrorIs(err, ErrTokenExchange)
	})

	s.Run("id token verification failure", func() {
		s.idp.verifyErr = errors.New("bad signature")
		defer func() { s.idp.verifyErr = nil }()
		_, err := s.svc.HandleCallback(ctx, validCallback())
		s.Require().ErrorIs(err, ErrIdentityToken)
	})
}

func (s *GatewayServiceSuite) TestHandleCallback_UnauthorizedEmail() {
	s.idp.claims.Email = "mallory@example.com"

	redirectURL, err := s.svc.HandleCallback(context.Background(), validCallback())
	s.Require().NoError(err, "allow-list rejection is a redirect, not an error")

	parsed, err := url.Parse(redirectURL)
	s.Require().NoError(err)
	s.Equal("app.test", parsed.Host)
	s.Equal(UnauthorizedValue, parsed.Query().Get(ErrorParam))
	s.Equal("mallory@example.com", parsed.Query().Get(EmailParam))
	s.Empty(parsed.Query().Get(TokenParam))
	s.Equal(audit.ActionLoginUnauthorized, s.lastAction())
}

func (s *GatewayServiceSuite) TestHandleCallback_Success() {
	redirectURL, err := s.svc.HandleCallback(context.Background(), validCallback())
	s.Require().NoError(err)
	s.Equal("auth-code", s.idp.exchangedCode)

	parsed, err := url.Parse(redirectURL)
	s.Require().NoError(err)
	s.Equal("app.test", parsed.Host)

	token := parsed.Query().Get(TokenParam)
	s.Require().NotEmpty(token)

	id, err := s.tokens.Verify(token)
	s.Require().NoError(err)
	s.Equal("idp-subject-1", id.Subject)
	s.Equal("alice@example.com", id.Email)
	s.Equal("Alice", id.Name)
	s.Equal(audit.ActionLoginSucceeded, s.lastAction())
}

func (s *GatewayServiceSuite) TestSecureCookies() {
	s.True(s.svc.SecureCookies())

	cfg := config.Gateway{BaseURL: "http://localhost:8080"}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	allow := allowlist.NewCache(allowlist.StaticLoader(nil), 0)
	plain := NewService(cfg, s.idp, s.tokens, allow, logger)
	s.False(plain.SecureCookies())
}

func (s *GatewayServiceSuite) TestCookieTTL() {
	s.Equal(10*time.Minute, s.svc.CookieTTL())
}
