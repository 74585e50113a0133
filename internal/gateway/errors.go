package gateway

import dErrors "authgate/pkg/domain-errors"

// Terminal failure kinds of the login flow. Each callback gate aborts with
// exactly one of these; the transport layer maps codes to HTTP statuses and
// keeps upstream detail out of responses.
var (
	// ErrNotConfigured means a required OIDC setting is absent. Detected at
	// startup normally, re-checked at first use so a partially wired service
	// can never redirect anywhere.
	ErrNotConfigured = dErrors.New(dErrors.CodeConfiguration, "oidc client is not configured")

	// ErrIdentityProvider is the IdP reporting an error on the callback
	// (user denied consent, bad request upstream).
	ErrIdentityProvider = dErrors.New(dErrors.CodeBadRequest, "identity provider returned an error")

	// ErrMissingCode means the callback carried no authorization code.
	ErrMissingCode = dErrors.New(dErrors.CodeBadRequest, "no authorization code in callback")

	// ErrMissingStateCookie signals an expired or replayed login attempt:
	// the browser presented no state cookie.
	ErrMissingStateCookie = dErrors.New(dErrors.CodeBadRequest, "state cookie missing or expired")

	// ErrStateMismatch is the CSRF gate: the state parameter did not match
	// the cookie value bytewise.
	ErrStateMismatch = dErrors.New(dErrors.CodeBadRequest, "state parameter does not match cookie")

	// ErrTokenExchange covers network failures, IdP rejections and token
	// responses without an ID token.
	ErrTokenExchange = dErrors.New(dErrors.CodeUpstream, "authorization code exchange failed")

	// ErrIdentityToken means the ID token's signature or audience failed
	// verification.
	ErrIdentityToken = dErrors.New(dErrors.CodeUpstream, "identity token verification failed")

	// ErrTokenMinting means signing the session token failed.
	ErrTokenMinting = dErrors.New(dErrors.CodeInternal, "session token minting failed")
)
