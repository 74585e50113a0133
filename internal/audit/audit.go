// Package audit records login outcomes. Events are ops-grade, fail-open:
// a publishing failure is logged and never blocks the login path.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Actions emitted by the authentication flow.
const (
	ActionLoginStarted      = "login_started"
	ActionLoginSucceeded    = "login_succeeded"
	ActionLoginUnauthorized = "login_unauthorized"
	ActionLoginFailed       = "login_failed"
	ActionApprovalGranted   = "approval_granted"
	ActionApprovalDenied    = "approval_denied"
)

// Event is one login-flow outcome. Subject is the IdP's stable user
// identifier when known; Reason carries the failure kind, never raw upstream
// detail.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Subject   string    `json:"subject,omitempty"`
	Email     string    `json:"email,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Browser   string    `json:"browser,omitempty"`
	OS        string    `json:"os,omitempty"`
}

// NewEvent stamps an event with identity and time.
func NewEvent(action string) Event {
	return Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Action:    action,
	}
}

// Publisher delivers events to wherever the audit stream lives.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
	Close()
}
