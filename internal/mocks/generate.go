// Package mocks provides mock implementations for testing the gateway.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for the port interfaces.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	mockStore := mocks.NewMockProfileStore(ctrl)
//	mockStore.EXPECT().GetByID(gomock.Any(), "u1").Return(profile, nil)
package mocks

// Generate mock for AuthProvider interface from internal/ports.
// This creates MockAuthProvider with Begin and Exchange.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=auth_provider_mock.go github.com/clinova/platform/internal/ports AuthProvider

// Generate mock for SessionStore interface from internal/ports.
// This creates MockSessionStore with Save, Get, and Delete.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=session_store_mock.go github.com/clinova/platform/internal/ports SessionStore

// Generate mock for ProfileStore interface from internal/ports.
// This creates MockProfileStore with GetByID and Upsert.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=profile_store_mock.go github.com/clinova/platform/internal/ports ProfileStore

// Generate mock for RateLimiter interface from internal/ports.
// This creates MockRateLimiter with Check.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=rate_limiter_mock.go github.com/clinova/platform/internal/ports RateLimiter
