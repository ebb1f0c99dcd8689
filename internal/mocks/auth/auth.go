package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/clinova/platform/internal/domain/identity"
	"github.com/clinova/platform/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.AuthProvider = (*MockAuthProvider)(nil)
	_ ports.SessionStore = (*MemorySessionStore)(nil)
	_ ports.ProfileStore = (*MemoryProfileStore)(nil)
)

// MockAuthProvider simulates an IdP for tests with deterministic state/nonce handling.
type MockAuthProvider struct {
	BeginFunc    func(ctx context.Context, in ports.BeginInput) (authURL, state, nonce string, err error)
	ExchangeFunc func(ctx context.Context, in ports.ExchangeInput) (identity.Identity, error)

	// Deterministic values for predictable testing
	AuthURL     string
	StatePrefix string
	NoncePrefix string
	DefaultUser identity.Identity

	// Internal state tracking for deterministic behavior
	callCount int
}

// NewMockAuthProvider creates a MockAuthProvider with sensible defaults.
func NewMockAuthProvider() *MockAuthProvider {
	return &MockAuthProvider{
		AuthURL:     "https://mock-idp/auth",
		StatePrefix: "state",
		NoncePrefix: "nonce",
		DefaultUser: identity.Identity{
			UserID:    "mock-user-1",
			FirstName: "Mock",
			LastName:  "User",
			Email:     "mock.user@example.com",
			Role:      "customer",
			ExpiresAt: time.Now().Add(time.Hour),
		},
	}
}

func (m *MockAuthProvider) Begin(ctx context.Context, in ports.BeginInput) (string, string, string, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx, in)
	}

	m.callCount++
	authURL := m.AuthURL
	if authURL == "" {
		authURL = "https://mock-idp/auth"
	}

	// Generate deterministic state and nonce based on call count
	statePrefix := m.StatePrefix
	if statePrefix == "" {
		statePrefix = "state"
	}
	noncePrefix := m.NoncePrefix
	if noncePrefix == "" {
		noncePrefix = "nonce"
	}

	state := fmt.Sprintf("%s-%d", statePrefix, m.callCount)
	nonce := fmt.Sprintf("%s-%d", noncePrefix, m.callCount)

	return authURL, state, nonce, nil
}

func (m *MockAuthProvider) Exchange(ctx context.Context, in ports.ExchangeInput) (identity.Identity, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, in)
	}

	// Return a copy of the default user with a fresh expiration time
	user := m.DefaultUser
	if user.UserID == "" {
		user = identity.Identity{
			UserID:    "mock-user-1",
			FirstName: "Mock",
			LastName:  "User",
			Email:     "mock.user@example.com",
			Role:      "customer",
		}
	}
	user.ExpiresAt = time.Now().Add(time.Hour)

	return user, nil
}

// MemorySessionStore is an in-memory session store for unit tests.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]identity.Session
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]identity.Session),
	}
}

func (m *MemorySessionStore) Save(_ context.Context, sess identity.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = sess
	return nil
}

func (m *MemorySessionStore) Get(_ context.Context, id string) (identity.Session, error) {
	if id == "" {
		return identity.Session{}, ErrNotFound
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return identity.Session{}, ErrNotFound
	}
	return sess, nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	if id == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// ErrNotFound is returned by mocks when an entity is not present.
type notFoundError struct{}

func (notFoundError) Error() string { return "not found" }

var ErrNotFound error = notFoundError{}

// MemoryProfileStore is an in-memory profile store with upsert semantics
// matching the real repository: the first insert per ID wins, later upserts
// return the existing row.
type MemoryProfileStore struct {
	mu       sync.Mutex
	profiles map[string]identity.Profile
}

// NewMemoryProfileStore creates a new in-memory profile store.
func NewMemoryProfileStore() *MemoryProfileStore {
	return &MemoryProfileStore{
		profiles: make(map[string]identity.Profile),
	}
}

func (m *MemoryProfileStore) GetByID(_ context.Context, id string) (*identity.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	profile, ok := m.profiles[id]
	if !ok {
		return nil, ports.ErrProfileNotFound
	}
	out := profile
	return &out, nil
}

func (m *MemoryProfileStore) Upsert(_ context.Context, in ports.UpsertProfileInput) (*identity.Profile, error) {
	if in.ID == "" {
		return nil, errors.New("profile ID cannot be empty")
	}
	if in.Email == "" {
		return nil, errors.New("profile email cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.profiles[in.ID]; ok {
		out := existing
		return &out, nil
	}

	role := in.Role
	if role == "" {
		role = "customer"
	}
	now := time.Now().UTC()
	profile := identity.Profile{
		ID:        in.ID,
		Email:     in.Email,
		Role:      role,
		ClinicID:  in.ClinicID,
		BranchID:  in.BranchID,
		Tier:      identity.TierFor(identity.Normalize(role)),
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.profiles[in.ID] = profile
	out := profile
	return &out, nil
}

// Seed inserts a profile row directly, bypassing upsert validation.
func (m *MemoryProfileStore) Seed(profile identity.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[profile.ID] = profile
}
