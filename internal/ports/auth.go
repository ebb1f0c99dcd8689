package ports

// Package ports defines interfaces (hexagonal ports) for the request gateway.
// Implementations live in internal/adapters and internal/data; orchestration
// in internal/service.

import (
	"context"
	"errors"

	"github.com/clinova/platform/internal/domain/identity"
)

// ErrProfileNotFound is returned by ProfileStore.GetByID when no profile row
// exists for a caller ID.
var ErrProfileNotFound = errors.New("profile not found")

// BeginInput carries inputs for initiating an auth flow.
type BeginInput struct {
	RedirectURL string
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// AuthProvider initiates and completes an authentication flow against the
// external identity service.
type AuthProvider interface {
	// Begin starts the login flow and returns the provider auth URL, an opaque state, and a nonce.
	Begin(ctx context.Context, in BeginInput) (authURL, state, nonce string, err error)

	// Exchange completes the login flow, verifying state and nonce, and returns the authenticated identity.
	Exchange(ctx context.Context, in ExchangeInput) (identity.Identity, error)
}

// SessionStore persists and retrieves sessions. The gateway reads sessions;
// the login flow writes them.
type SessionStore interface {
	Save(ctx context.Context, sess identity.Session) error
	Get(ctx context.Context, id string) (identity.Session, error)
	Delete(ctx context.Context, id string) error
}

// UpsertProfileInput carries the fields written by profile auto-provisioning.
type UpsertProfileInput struct {
	ID       string
	Email    string
	Role     string
	ClinicID *string
	BranchID *string
}

// ProfileStore exposes the user-profile rows the gateway reads and, on first
// authenticated contact, lazily creates. Upsert must be idempotent per ID:
// concurrent first-requests for the same new caller resolve to one row.
type ProfileStore interface {
	GetByID(ctx context.Context, id string) (*identity.Profile, error)
	Upsert(ctx context.Context, in UpsertProfileInput) (*identity.Profile, error)
}
