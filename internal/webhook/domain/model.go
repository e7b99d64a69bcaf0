package domain

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrNotConfigured means the signing secret is absent. Operator error,
	// kept distinct from ErrInvalidSignature which may be an attack.
	ErrNotConfigured = errors.New("webhook_not_configured")
	// ErrInvalidSignature covers missing, stale or mismatched signatures.
	ErrInvalidSignature = errors.New("webhook_invalid_signature")
	// ErrMalformedEvent means a relevant event whose payload or metadata
	// cannot be decoded.
	ErrMalformedEvent = errors.New("webhook_malformed_event")
)

const (
	// EventTypeCheckoutCompleted is the only event that triggers ledger writes.
	EventTypeCheckoutCompleted = "checkout.session.completed"
	// EventTypeIgnored marks a validly signed event of a type this system
	// does not act on.
	EventTypeIgnored = "ignored"
)

// Event is an authenticated provider callback. For ignored types only Type
// and RawPayload are populated.
type Event struct {
	Type       string
	SessionID  string
	BuyerID    uuid.UUID
	ItemIDs    []int64
	RawPayload []byte
}

// Completed reports whether the event carries a finished purchase.
func (e *Event) Completed() bool {
	return e.Type == EventTypeCheckoutCompleted
}

// Authenticator verifies and parses provider callbacks. Verification always
// operates over the exact bytes received, never a re-serialization.
type Authenticator interface {
	Authenticate(ctx context.Context, payload []byte, signatureHeader string) (*Event, error)
}
