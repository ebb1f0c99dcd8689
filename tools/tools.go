//go:build tools
// +build tools

// Package tools documents development tool dependencies.
// These tools are installed globally via `go install` and are not tracked in go.mod
// since they are development tools, not runtime dependencies.
package tools

// Development tools (install via `go install`):
//
// mockgen - Mock generation for port interfaces (see internal/mocks)
//   Install: go install go.uber.org/mock/mockgen@v0.5.2
//   Docs: https://github.com/uber-go/mock
//
// Air - Live reload for Go apps
//   Install: go install github.com/air-verse/air@v1.63.0
//   Docs: https://github.com/air-verse/air
