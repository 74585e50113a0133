// Package oidc wraps the relying-party side of the authorization-code flow:
// discovery, authorization URL construction, code exchange and ID-token
// verification against the provider's published keys.
package oidc

import (
	"context"
	"fmt"
	"net/http"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// Claims is the verified identity extracted from an ID token.
type Claims struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
}

// Client is the provider-facing surface the gateway depends on. Split into
// the three steps of the callback state machine so each failure keeps its own
// error kind.
type Client interface {
	// AuthCodeURL returns the authorization request URL with the given
	// anti-CSRF state embedded.
	AuthCodeURL(state string) string

	// Exchange trades an authorization code for the raw ID token. A token
	// response without an ID token is an exchange failure.
	Exchange(ctx context.Context, code string) (string, error)

	// VerifyIDToken checks the ID token's signature against the provider's
	// current keys and its audience against the configured client ID.
	VerifyIDToken(ctx context.Context, rawIDToken string) (Claims, error)
}

// Config carries the relying-party registration.
type Config struct {
	IssuerURL    string
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

type client struct {
	oauth    oauth2.Config
	verifier *gooidc.IDTokenVerifier
}

// NewClient discovers the provider's endpoints and builds a client. The
// http.Client carried by ctx bounds every subsequent provider call.
func NewClient(ctx context.Context, cfg Config, httpClient *http.Client) (Client, error) {
	if httpClient != nil {
		ctx = gooidc.ClientContext(ctx, httpClient)
	}
	provider, err := gooidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("discover provider %s: %w", cfg.IssuerURL, err)
	}

	return &client{
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{gooidc.ScopeOpenID, "email", "profile"},
		},
		verifier: provider.Verifier(&gooidc.Config{ClientID: cfg.ClientID}),
	}, nil
}

func (c *client) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

func (c *client) Exchange(ctx context.Context, code string) (string, error) {
	token, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("exchange authorization code: %w", err)
	}
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return "", fmt.Errorf("token response did not include an id_token")
	}
	return rawIDToken, nil
}

func (c *client) VerifyIDToken(ctx context.Context, rawIDToken string) (Claims, error) {
	idToken, err := c.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return Claims{}, fmt.Errorf("verify id_token: %w", err)
	}

	var payload struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
	}
	if err := idToken.Claims(&payload); err != nil {
		return Claims{}, fmt.Errorf("decode id_token claims: %w", err)
	}
	return Claims{
		Subject:       idToken.Subject,
		Email:         payload.Email,
		EmailVerified: payload.EmailVerified,
		Name:          payload.Name,
	}, nil
}
