//go:build tools
// +build tools

// Package tools pins the code generators run by `go generate`.
// mockgen builds the doubles of mocks/ from the //go:generate headers.
package ticket_chat

import (
	_ "go.uber.org/mock/mockgen"
)
