package config

import (
	"fmt"
	"strings"
	"time"
)

// AuthMode represents the authentication mode for the application.
type AuthMode string

const (
	// AuthModeOAuth uses OAuth/OIDC for authentication.
	AuthModeOAuth AuthMode = "oauth"
	// AuthModeMock uses mock/dev authentication (for development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "oauth", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: oauth, mock)", v)
	}
}

// OAuthConfig contains OAuth/OIDC configuration.
type OAuthConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURL  string `env:"REDIRECT_URL"  envDefault:"http://localhost:8080/auth/callback"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email"`
	DiscoveryURL string `env:"DISCOVERY_URL"`
	LogoutURL    string `env:"LOGOUT_URL"`

	// RoleClaimPath is a JMESPath expression selecting the role hint from the
	// ID token claims (e.g. "role" or "realm_access.roles[0]").
	RoleClaimPath string `env:"ROLE_CLAIM_PATH" envDefault:"role"`

	// ClinicClaimPath is a JMESPath expression selecting the clinic binding
	// from the ID token claims, when the identity service carries one.
	ClinicClaimPath string `env:"CLINIC_CLAIM_PATH" envDefault:"clinic_id"`
}

// DevAuthConfig controls mock/dev authentication identity.
// Used when AUTH_MODE=mock for development and testing. The bootstrap
// refuses to start with this mode in production.
type DevAuthConfig struct {
	UserID   string `env:"USER_ID"   envDefault:"dev-user"`
	Email    string `env:"EMAIL"     envDefault:"dev@example.com"`
	Role     string `env:"ROLE"      envDefault:"customer"`
	ClinicID string `env:"CLINIC_ID" envDefault:""`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which authentication provider to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"oauth"`

	// OAuth configuration (used when Mode=oauth).
	OAuth OAuthConfig `envPrefix:"OAUTH_"`

	// DevAuth configuration (used when Mode=mock).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`

	// SessionDuration is how long a login session stays valid.
	SessionDuration time.Duration `env:"SESSION_DURATION" envDefault:"24h"`

	// SessionCookieName is the cookie the gateway reads the session ID from.
	SessionCookieName string `env:"SESSION_COOKIE_NAME" envDefault:"clinova_session"`

	// TestIdentityEnabled allows the X-Test-Identity header to inject a
	// synthetic caller for integration tests. Ignored in production.
	TestIdentityEnabled bool `env:"TEST_IDENTITY_ENABLED" envDefault:"false"`
}
