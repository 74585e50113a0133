// Package identity owns the durable record behind the consumer's secondary
// authorization check: one row per stable subject identifier with a
// monotonic approved claim.
package identity

import (
	"context"
	"time"

	dErrors "authgate/pkg/domain-errors"
)

// ErrNotFound keeps store-specific 404s consistent across the in-memory and
// postgres implementations.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "identity not found")

// Identity is the persisted record. Approved is only ever raised by the
// login-approval step; revocation happens out of band, directly in the store.
type Identity struct {
	Subject     string
	Email       string
	DisplayName string
	Approved    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Store is interface-driven so the approval service stays testable and the
// backing store swappable.
//
// Upsert must be idempotent and monotonic on Approved: writing a record with
// Approved=true can never be undone by a concurrent write with
// Approved=false, so racing logins converge. Email and display name are
// last-write-wins.
type Store interface {
	Upsert(ctx context.Context, record Identity) (Identity, error)
	Find(ctx context.Context, subject string) (Identity, error)
}
