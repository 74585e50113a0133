package consumer

import dErrors "authgate/pkg/domain-errors"

var (
	// ErrStoreUnavailable means the identity store could not be reached.
	// Every caller treats it as "not approved" so the gate fails closed.
	ErrStoreUnavailable = dErrors.New(dErrors.CodeUnavailable, "identity store unavailable")

	// ErrIncompleteIdentity means the verified claims were missing the
	// subject or the email, so no authorization decision can be made.
	ErrIncompleteIdentity = dErrors.New(dErrors.CodeInvalidInput, "claims missing subject or email")

	// ErrSessionNotFound means the browser presented a session ID the store
	// does not know (expired, logged out, or fabricated).
	ErrSessionNotFound = dErrors.New(dErrors.CodeUnauthorized, "session not found")
)
