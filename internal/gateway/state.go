package gateway

import (
	"crypto/subtle"
	"net/http"
	"time"

	"authgate/internal/platform/secrets"
)

// StateCookieName is the fixed name of the anti-CSRF state cookie. The state
// lives only in this cookie, which is what keeps the gateway stateless across
// the redirect round-trip.
const StateCookieName = "authgate_state"

// NewStateToken generates the per-login anti-CSRF nonce: 256 bits of
// entropy, URL-safe encoded.
func NewStateToken() (string, error) {
	return secrets.Generate()
}

// StateMatches compares the returned state parameter against the cookie
// value in constant time.
func StateMatches(param, cookie string) bool {
	return subtle.ConstantTimeCompare([]byte(param), []byte(cookie)) == 1
}

// StateCookie builds the short-lived state cookie. HttpOnly always; Secure
// tracks whether the gateway is served over TLS; SameSite=Lax survives the
// top-level redirect back from the IdP while still blocking cross-site
// subresource requests.
func StateCookie(value string, ttl time.Duration, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     StateCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearStateCookie expires the state cookie. Sent on every callback exit
// path, success or failure.
func ClearStateCookie(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     StateCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}
