// Package config builds the immutable process configuration. Both binaries
// resolve their configuration exactly once at startup and pass it by value to
// constructors; nothing here is re-read or re-initialized later.
package config

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"authgate/internal/allowlist"
	"authgate/internal/platform/secrets"
	dErrors "authgate/pkg/domain-errors"
)

// Names of the secret-managed settings. These go through the secrets.Provider
// indirection; everything else is plain environment.
const (
	SecretClientID      = "OIDC_CLIENT_ID"
	SecretClientSecret  = "OIDC_CLIENT_SECRET"
	SecretSigningKey    = "SESSION_SIGNING_SECRET"
	SecretAllowedEmails = "ALLOWED_EMAILS"
)

// Gateway holds everything Component A needs. Secrets, the redirect URI and
// the allow-list are never defaulted: a missing value fails startup.
type Gateway struct {
	Addr string

	IssuerURL    string // external IdP
	ClientID     string
	ClientSecret string
	RedirectURI  string // <BaseURL>/callback

	BaseURL       string // this service; used as session token issuer
	DownstreamURL string // consumer app; used as session token audience

	SigningSecret string
	AllowedEmails []string

	StateCookieTTL time.Duration
	TokenTTL       time.Duration
	IdPTimeout     time.Duration

	KafkaBrokers []string
	AuditTopic   string
}

// Consumer holds everything Component B needs.
type Consumer struct {
	Addr string

	BaseURL        string // expected token audience
	GatewayBaseURL string // expected token issuer

	SigningSecret string
	AllowedEmails []string

	DatabaseURL string
	RedisURL    string

	SessionTTL   time.Duration
	StoreTimeout time.Duration
}

// ProviderFromEnv selects the secret source once, per SECRET_SOURCE
// (env or file) and SECRET_FILE.
func ProviderFromEnv() (secrets.Provider, error) {
	return secrets.Select(secrets.Source(os.Getenv("SECRET_SOURCE")), os.Getenv("SECRET_FILE"))
}

// GatewayFromEnv resolves the gateway configuration. All secret lookups go
// through the provider so the same code path serves every deployment mode.
func GatewayFromEnv(ctx context.Context, provider secrets.Provider) (Gateway, error) {
	cfg := Gateway{
		Addr:           envOr("GATEWAY_ADDR", ":8080"),
		IssuerURL:      envOr("OIDC_ISSUER_URL", "https://accounts.google.com"),
		BaseURL:        strings.TrimRight(os.Getenv("GATEWAY_BASE_URL"), "/"),
		DownstreamURL:  strings.TrimRight(os.Getenv("DOWNSTREAM_APP_URL"), "/"),
		StateCookieTTL: durationOr("STATE_COOKIE_TTL", 10*time.Minute),
		TokenTTL:       durationOr("SESSION_TOKEN_TTL", 5*time.Minute),
		IdPTimeout:     durationOr("IDP_TIMEOUT", 10*time.Second),
		AuditTopic:     envOr("AUDIT_TOPIC", "authgate.logins"),
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}

	var err error
	if cfg.ClientID, err = provider.Resolve(ctx, SecretClientID); err != nil {
		return Gateway{}, err
	}
	if cfg.ClientSecret, err = provider.Resolve(ctx, SecretClientSecret); err != nil {
		return Gateway{}, err
	}
	if cfg.SigningSecret, err = provider.Resolve(ctx, SecretSigningKey); err != nil {
		return Gateway{}, err
	}
	rawList, err := provider.Resolve(ctx, SecretAllowedEmails)
	if err != nil {
		return Gateway{}, err
	}
	if cfg.AllowedEmails, err = allowlist.ParseJSON(rawList); err != nil {
		return Gateway{}, err
	}

	if cfg.BaseURL != "" {
		cfg.RedirectURI = cfg.BaseURL + "/callback"
	}
	return cfg, cfg.Validate()
}

// Validate fails fast with every missing required setting named, so a broken
// deployment surfaces one actionable error instead of a drip of them.
func (c Gateway) Validate() error {
	var missing []string
	for key, value := range map[string]string{
		"OIDC_CLIENT_ID":         c.ClientID,
		"OIDC_CLIENT_SECRET":     c.ClientSecret,
		"OIDC_ISSUER_URL":        c.IssuerURL,
		"GATEWAY_BASE_URL":       c.BaseURL,
		"DOWNSTREAM_APP_URL":     c.DownstreamURL,
		"SESSION_SIGNING_SECRET": c.SigningSecret,
		"redirect URI":           c.RedirectURI,
	} {
		if value == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return dErrors.New(dErrors.CodeConfiguration,
			fmt.Sprintf("missing required settings: %s", strings.Join(sorted(missing), ", ")))
	}
	return nil
}

// ConsumerFromEnv resolves the consumer configuration.
func ConsumerFromEnv(ctx context.Context, provider secrets.Provider) (Consumer, error) {
	cfg := Consumer{
		Addr:           envOr("CONSUMER_ADDR", ":8081"),
		BaseURL:        strings.TrimRight(os.Getenv("CONSUMER_BASE_URL"), "/"),
		GatewayBaseURL: strings.TrimRight(os.Getenv("GATEWAY_BASE_URL"), "/"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		SessionTTL:     durationOr("SESSION_TTL", 12*time.Hour),
		StoreTimeout:   durationOr("STORE_TIMEOUT", 5*time.Second),
	}

	var err error
	if cfg.SigningSecret, err = provider.Resolve(ctx, SecretSigningKey); err != nil {
		return Consumer{}, err
	}
	rawList, err := provider.Resolve(ctx, SecretAllowedEmails)
	if err != nil {
		return Consumer{}, err
	}
	if cfg.AllowedEmails, err = allowlist.ParseJSON(rawList); err != nil {
		return Consumer{}, err
	}
	return cfg, cfg.Validate()
}

func (c Consumer) Validate() error {
	var missing []string
	for key, value := range map[string]string{
		"CONSUMER_BASE_URL":      c.BaseURL,
		"GATEWAY_BASE_URL":       c.GatewayBaseURL,
		"SESSION_SIGNING_SECRET": c.SigningSecret,
	} {
		if value == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return dErrors.New(dErrors.CodeConfiguration,
			fmt.Sprintf("missing required settings: %s", strings.Join(sorted(missing), ", ")))
	}
	return nil
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func sorted(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	sort.Strings(out)
	return out
}
