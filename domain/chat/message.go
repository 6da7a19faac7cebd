// Package chat contains core concepts of the event chat.
// This file defines Message entities and the optimistic identifier rules.
// Confirmed messages are immutable; optimistic ones live only on the client.
package chat

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const optimisticPrefix = "optimistic-"

type MessageID string

// NewOptimisticID returns a client-side temporary identifier.
// It never collides with a server identifier.
func NewOptimisticID() MessageID {
	return MessageID(optimisticPrefix + uuid.NewString())
}

func (id MessageID) IsOptimistic() bool {
	return strings.HasPrefix(string(id), optimisticPrefix)
}

func (id MessageID) String() string {
	return string(id)
}

// Message represents a chat message of a group.
// Author carries the denormalized profile of AuthorID when the backend provides it.
type Message struct {
	ID        MessageID
	GroupID   GroupID
	AuthorID  UserID
	Author    *Profile
	Content   string
	CreatedAt time.Time
	Pending   bool // optimistic entry waiting for server confirmation
}

// NewMessage is the payload of an insert request.
type NewMessage struct {
	GroupID  GroupID
	AuthorID UserID
	Content  string
}
