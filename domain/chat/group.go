package chat

import "time"

type GroupID string
type EventID string

// Event is the ticketed event a group belongs to.
type Event struct {
	ID          EventID
	Title       string
	Venue       string
	Description string
	Date        time.Time
}

// Group is the chat room of one ticketed event.
type Group struct {
	ID      GroupID
	EventID EventID
	Event   Event
}

// Membership associates a user with a group.
// A user may be listed more than once for the same group through several tickets.
type Membership struct {
	UserID  UserID
	GroupID GroupID
	Group   Group
}
