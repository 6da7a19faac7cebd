// Package event defines what the backend emits after a state change.
// Events are facts: they are never modified once published.
package event

import (
	"ticket-chat/domain/chat"
	"time"
)

type Type string

const (
	MessageInsertedType Type = "MESSAGE_INSERTED"
	CensorshipHitType   Type = "CENSORSHIP_HIT"
)

// Event is the envelope flowing through the fan-out worker.
type Event struct {
	Type      Type
	CreatedAt time.Time
	Payload   any
}

// GroupEvent is implemented by payloads scoped to one group.
type GroupEvent interface {
	Group() chat.GroupID
}

// MessageInserted is published once a message row has been stored.
// CensoredWords lists the banned words replaced before storage.
type MessageInserted struct {
	Message       chat.Message
	CensoredWords []string
}

func (m MessageInserted) Group() chat.GroupID {
	return m.Message.GroupID
}

// Censored is published for each banned word found in an inserted message.
type Censored struct {
	GroupID chat.GroupID
	Word    string
}

func (c Censored) Group() chat.GroupID {
	return c.GroupID
}

func NewMessageInserted(message chat.Message, censoredWords ...string) Event {
	return Event{
		Type:      MessageInsertedType,
		CreatedAt: time.Now().UTC(),
		Payload:   MessageInserted{Message: message, CensoredWords: censoredWords},
	}
}

func NewCensored(groupID chat.GroupID, word string) Event {
	return Event{Type: CensorshipHitType, CreatedAt: time.Now().UTC(), Payload: Censored{GroupID: groupID, Word: word}}
}
