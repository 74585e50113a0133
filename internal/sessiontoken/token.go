// Package sessiontoken mints and verifies the signed assertion that carries
// an authenticated identity from the gateway to the consumer. The scheme is
// pinned to HS256 under a shared secret; there is no algorithm negotiation.
package sessiontoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "authgate/pkg/domain-errors"
)

// Verification failure kinds. Distinguished for diagnostics; the transport
// layer collapses all of them into one generic user-facing message.
var (
	ErrExpired       = dErrors.New(dErrors.CodeUnauthorized, "session token has expired")
	ErrWrongAudience = dErrors.New(dErrors.CodeUnauthorized, "session token audience mismatch")
	ErrWrongIssuer   = dErrors.New(dErrors.CodeUnauthorized, "session token issuer mismatch")
	ErrInvalid       = dErrors.New(dErrors.CodeUnauthorized, "invalid session token")
)

// leeway absorbs clock skew between the gateway and the consumer on
// expiry/issued-at checks.
const leeway = 60 * time.Second

// Claims is the session token payload. Subject carries the IdP's stable user
// identifier; email is the authorization key; name is display-only.
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Identity is the verified result handed to callers, decoupled from the JWT
// library types.
type Identity struct {
	Subject string
	Email   string
	Name    string
}

// Service mints and verifies session tokens under one shared secret.
type Service struct {
	signingKey []byte
	issuer     string
	audience   string
	clock      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the time source for testability.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func New(signingKey, issuer, audience string, opts ...Option) *Service {
	s := &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
		clock:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Mint signs a short-lived token for the given identity. The display name
// defaults to the email when the IdP did not provide one.
func (s *Service) Mint(id Identity, ttl time.Duration) (string, error) {
	name := id.Name
	if name == "" {
		name = id.Email
	}
	now := s.clock()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email: id.Email,
		Name:  name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Subject,
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	})

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// Verify checks the signature, issuer, audience and time window, and returns
// the embedded identity. Failure kinds map to the package error values.
func (s *Service) Verify(tokenString string) (Identity, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithLeeway(leeway),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.clock),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return Identity{}, ErrExpired
		case errors.Is(err, jwt.ErrTokenInvalidAudience):
			return Identity{}, ErrWrongAudience
		case errors.Is(err, jwt.ErrTokenInvalidIssuer):
			return Identity{}, ErrWrongIssuer
		default:
			return Identity{}, ErrInvalid
		}
	}
	if !parsed.Valid {
		return Identity{}, ErrInvalid
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.Subject == "" {
		return Identity{}, ErrInvalid
	}
	return Identity{
		Subject: claims.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
	}, nil
}
