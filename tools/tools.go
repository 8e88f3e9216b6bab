//go:build tools
// +build tools

// Package tools documents development tool dependencies.
// These tools are not part of the runtime build.
package tools

// Development tools:
//
// mockgen - Generates the checked-in mocks under internal/mocks
//   Runs via `go run go.uber.org/mock/mockgen` (see internal/mocks/generate.go),
//   so it needs no global install. Regenerate with:
//     go generate ./internal/mocks/...
//   Docs: https://github.com/uber-go/mock
