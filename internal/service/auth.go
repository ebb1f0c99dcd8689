package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinova/platform/internal/domain/identity"
	"github.com/clinova/platform/internal/ports"
)

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Provider ports.AuthProvider
	Sessions ports.SessionStore
}

// AuthService orchestrates login flows: it drives the identity provider and
// persists the resulting session. The gateway itself only ever reads the
// sessions this service writes.
type AuthService struct {
	provider ports.AuthProvider
	sessions ports.SessionStore
}

var errSessionExpired = errors.New("session expired")

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	return &AuthService{
		provider: opts.Provider,
		sessions: opts.Sessions,
	}
}

// BeginLoginResult contains the result of beginning a login flow.
type BeginLoginResult struct {
	AuthURL string
	State   string
	Nonce   string
}

// BeginLogin initiates an authentication flow and returns the provider auth URL with state and nonce.
func (s *AuthService) BeginLogin(ctx context.Context, redirectURL string) (*BeginLoginResult, error) {
	if redirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}

	authURL, state, nonce, err := s.provider.Begin(ctx, ports.BeginInput{RedirectURL: redirectURL})
	if err != nil {
		return nil, fmt.Errorf("begin auth flow: %w", err)
	}

	return &BeginLoginResult{
		AuthURL: authURL,
		State:   state,
		Nonce:   nonce,
	}, nil
}

// CompleteLoginInput groups parameters for completing a login flow.
type CompleteLoginInput struct {
	Code  string
	State string
	Nonce string
}

// CompleteLoginResult contains the result of completing a login flow.
type CompleteLoginResult struct {
	Session identity.Session
}

// CompleteLogin completes an authentication flow by exchanging the code for
// an identity and persisting a session carrying the provider's role hint.
func (s *AuthService) CompleteLogin(ctx context.Context, input CompleteLoginInput) (*CompleteLoginResult, error) {
	if input.Code == "" {
		return nil, errors.New("authorization code is required")
	}
	if input.State == "" {
		return nil, errors.New("state parameter is required")
	}
	if input.Nonce == "" {
		return nil, errors.New("nonce parameter is required")
	}

	id, err := s.provider.Exchange(ctx, ports.ExchangeInput{
		Code:  input.Code,
		State: input.State,
		Nonce: input.Nonce,
	})
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	session := identity.Session{
		ID:        generateSessionID(),
		UserID:    id.UserID,
		FirstName: id.FirstName,
		LastName:  id.LastName,
		Email:     id.Email,
		Role:      id.Role,
		ClinicID:  id.ClinicID,
		ExpiresAt: id.ExpiresAt,
	}

	if saveErr := s.sessions.Save(ctx, session); saveErr != nil {
		return nil, fmt.Errorf("save session: %w", saveErr)
	}

	return &CompleteLoginResult{Session: session}, nil
}

// GetSession retrieves a session by ID.
func (s *AuthService) GetSession(ctx context.Context, sessionID string) (*identity.Session, error) {
	if sessionID == "" {
		return nil, errors.New("session ID is required")
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if time.Now().After(session.ExpiresAt) {
		if deleteErr := s.sessions.Delete(ctx, sessionID); deleteErr != nil {
			return nil, errors.Join(errSessionExpired, fmt.Errorf("delete session: %w", deleteErr))
		}
		return nil, errSessionExpired
	}

	return &session, nil
}

// Logout removes a session.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil // Nothing to logout
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	return nil
}

// generateSessionID creates a cryptographically secure random session ID.
func generateSessionID() string {
	return uuid.New().String()
}
