package identity

// Package identity contains domain-level types for authentication, sessions,
// and user profiles. It is pure and free of framework/adapter concerns.

import "time"

// Session is the server-side record the identity service keeps for an
// authenticated caller. The gateway only reads these; they are created at
// login and destroyed at logout/expiry.
// ID is an opaque session identifier (e.g., random URL-safe string).
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	// Role is the raw role string carried in trusted session metadata.
	// It is advisory: profile provisioning only honors it when it is one of
	// the allow-listed provisionable roles.
	Role string `json:"role"`
	// ClinicID is the tenant hint from provider claims, empty when absent.
	// Provisioning copies it onto the new profile row so clinic staff get
	// their scope on first contact.
	ClinicID  string    `json:"clinic_id,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Identity represents the authenticated principal returned by the identity
// provider. Adapters map provider-specific claims into this shape.
type Identity struct {
	UserID    string // stable caller identifier (sub or equivalent)
	FirstName string
	LastName  string
	Email     string
	// Role is the raw role extracted from the provider's role claim, empty
	// when the claim is absent.
	Role      string
	ClinicID  string // tenant hint from provider claims, empty when absent
	ExpiresAt time.Time // absolute expiry from IdP token
}

// Profile is the persisted user-profile row keyed by caller ID. The role is
// stored in whatever historical spelling was used at creation time;
// normalization happens on read via Normalize.
type Profile struct {
	ID        string    `db:"id"         json:"id"`
	Email     string    `db:"email"      json:"email"`
	Role      string    `db:"role"       json:"role"`
	ClinicID  *string   `db:"clinic_id"  json:"clinic_id,omitempty"`
	BranchID  *string   `db:"branch_id"  json:"branch_id,omitempty"`
	Tier      Tier      `db:"tier"       json:"tier"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// AuthContext is the short-lived per-request value produced by identity
// resolution and handed to downstream handlers. It is never persisted and
// never shared across requests.
type AuthContext struct {
	CallerID string
	Email    string
	// Role is the canonical role used for route-level decisions.
	Role CanonicalRole
	// RawRole is the profile's role string as stored; the handler-level
	// authorization wrappers compare against this vocabulary, not the
	// canonical one.
	RawRole  string
	ClinicID *string
	BranchID *string
}

// HasClinicScope reports whether the context carries a tenant identifier.
func (c AuthContext) HasClinicScope() bool {
	return c.ClinicID != nil && *c.ClinicID != ""
}
