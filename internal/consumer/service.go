// Package consumer implements the downstream side of the handoff: it
// verifies the gateway-minted session token, runs the secondary authorization
// check against the durable identity store, and owns the consumer's own
// login sessions.
package consumer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"authgate/internal/allowlist"
	"authgate/internal/audit"
	"authgate/internal/identity"
	"authgate/internal/sessiontoken"
)

// Service carries the consumer's authentication logic. The allow-list cache
// is this component's own, loaded independently of the gateway's.
type Service struct {
	tokens       *sessiontoken.Service
	store        identity.Store
	allow        *allowlist.Cache
	sessions     SessionStore
	audit        audit.Publisher
	logger       *slog.Logger
	tracer       trace.Tracer
	storeTimeout time.Duration
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

// WithStoreTimeout bounds identity store calls.
func WithStoreTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		if timeout > 0 {
			s.storeTimeout = timeout
		}
	}
}

func NewService(
	tokens *sessiontoken.Service,
	store identity.Store,
	allow *allowlist.Cache,
	sessions SessionStore,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		tokens:       tokens,
		store:        store,
		allow:        allow,
		sessions:     sessions,
		audit:        audit.NewMemoryPublisher(),
		logger:       logger,
		tracer:       otel.Tracer("authgate/consumer"),
		storeTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// VerifySessionToken checks the one-time token from the URL parameter.
// Failure kinds stay distinguishable for logs and metrics; callers show the
// user one generic message regardless.
func (s *Service) VerifySessionToken(ctx context.Context, token string) (sessiontoken.Identity, error) {
	id, err := s.tokens.Verify(token)
	if err != nil {
		s.logger.WarnContext(ctx, "session token rejected",
			"error", err,
			"request_id", middleware.GetReqID(ctx),
		)
		return sessiontoken.Identity{}, err
	}
	return id, nil
}

// ProcessLoginApproval re-checks the allow-list and upserts the durable
// identity record. The returned identity key is the subject even on denial,
// so callers can log and diagnose. Every failure path reports approved=false.
func (s *Service) ProcessLoginApproval(ctx context.Context, claims sessiontoken.Identity) (bool, string, error) {
	if claims.Subject == "" || claims.Email == "" {
		return false, claims.Subject, ErrIncompleteIdentity
	}

	// Secondary allow-list gate. The gateway already checked in its own
	// process; this one is the consumer's, so a compromised or stale gateway
	// cannot grant access on its own.
	if !s.allow.Get(ctx).Contains(claims.Email) {
		event := audit.NewEvent(audit.ActionApprovalDenied)
		event.Subject = claims.Subject
		event.Email = claims.Email
		event.Reason = "not_on_allow_list"
		s.emit(ctx, event)
		return false, claims.Subject, nil
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	storeCtx, span := s.tracer.Start(storeCtx, "identity.upsert")
	defer span.End()

	name := claims.Name
	if name == "" {
		name = claims.Email
	}
	record, err := s.store.Upsert(storeCtx, identity.Identity{
		Subject:     claims.Subject,
		Email:       claims.Email,
		DisplayName: name,
		Approved:    true,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "identity upsert failed", "error", err)
		return false, claims.Subject, ErrStoreUnavailable
	}

	event := audit.NewEvent(audit.ActionApprovalGranted)
	event.Subject = record.Subject
	event.Email = record.Email
	s.emit(ctx, event)
	return record.Approved, record.Subject, nil
}

// IsApproved is the read-only secondary check run on every protected-resource
// access, so out-of-band revocation takes effect on the next request. An
// unreachable store or an unknown key both read as "not approved".
func (s *Service) IsApproved(ctx context.Context, identityKey string) bool {
	if identityKey == "" {
		return false
	}
	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	record, err := s.store.Find(storeCtx, identityKey)
	if err != nil {
		if !errors.Is(err, identity.ErrNotFound) {
			s.logger.ErrorContext(ctx, "approval check failed", "error", err, "subject", identityKey)
		}
		return false
	}
	return record.Approved
}

// EstablishSession creates the consumer's own session once the token has
// been verified and the identity approved.
func (s *Service) EstablishSession(ctx context.Context, claims sessiontoken.Identity, ttl time.Duration) (Session, error) {
	session, err := NewSession(claims.Subject, claims.Email, claims.Name, ttl)
	if err != nil {
		return Session{}, err
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		s.logger.ErrorContext(ctx, "session save failed", "error", err)
		return Session{}, ErrStoreUnavailable
	}
	return session, nil
}

// FindSession resolves a session cookie value.
func (s *Service) FindSession(ctx context.Context, id string) (Session, error) {
	if id == "" {
		return Session{}, ErrSessionNotFound
	}
	return s.sessions.Find(ctx, id)
}

// Logout destroys a session. Unknown sessions are not an error.
func (s *Service) Logout(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return s.sessions.Delete(ctx, id)
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	event.RequestID = middleware.GetReqID(ctx)
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}
