//go:build tools
// +build tools

// Package tools documents development tool dependencies.
// These tools are installed globally via `go install` and are not tracked in go.mod
// since they are development tools, not runtime dependencies.
package tools

// Development tools (install via `go install`):
//
// mockgen - regenerates internal/mocks (go generate ./internal/mocks)
//   Install: go install go.uber.org/mock/mockgen@v0.6.0
//   Version: v0.6.0, matching the go.uber.org/mock runtime in go.mod
//   Docs: https://github.com/uber-go/mock
//
// migrate - applies internal/migrate/migrations by hand outside checkqueue-admin
//   Install: go install -tags 'pgx5' github.com/golang-migrate/migrate/v4/cmd/migrate@v4.19.1
//   Docs: https://github.com/golang-migrate/migrate
