package hosted

import (
	"ticket-chat/domain/chat"
	"time"
)

// Select clauses of the PostgREST queries issued by the client.
const (
	membershipSelect = "group_id,event_groups!inner(id,event_id,events(*))"
	messageSelect    = "*,profiles(full_name,avatar_url)"
	messageOrder     = "created_at.asc"
)

type EventRow struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Venue       string    `json:"venue"`
	Description string    `json:"description"`
	Date        time.Time `json:"event_date"`
}

type GroupRow struct {
	ID      string    `json:"id"`
	EventID string    `json:"event_id"`
	Event   *EventRow `json:"events"`
}

type MembershipRow struct {
	GroupID string   `json:"group_id"`
	UserID  string   `json:"user_id,omitempty"`
	Group   GroupRow `json:"event_groups"`
}

type ProfileRow struct {
	ID        string `json:"id,omitempty"`
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url"`
}

type MessageRow struct {
	ID        string      `json:"id"`
	GroupID   string      `json:"group_id"`
	UserID    string      `json:"user_id"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
	Profile   *ProfileRow `json:"profiles,omitempty"`
}

type InsertRow struct {
	GroupID string `json:"group_id"`
	UserID  string `json:"user_id"`
	Content string `json:"content"`
}

func (r MembershipRow) toChat(userID chat.UserID) chat.Membership {
	group := chat.Group{
		ID:      chat.GroupID(r.Group.ID),
		EventID: chat.EventID(r.Group.EventID),
	}
	if group.ID == "" {
		group.ID = chat.GroupID(r.GroupID)
	}
	if r.Group.Event != nil {
		group.Event = r.Group.Event.toChat()
	}
	if group.Event.ID == "" {
		group.Event.ID = group.EventID
	}
	return chat.Membership{UserID: userID, GroupID: chat.GroupID(r.GroupID), Group: group}
}

func (r EventRow) toChat() chat.Event {
	return chat.Event{
		ID:          chat.EventID(r.ID),
		Title:       r.Title,
		Venue:       r.Venue,
		Description: r.Description,
		Date:        r.Date,
	}
}

func (r MessageRow) toChat() chat.Message {
	msg := chat.Message{
		ID:        chat.MessageID(r.ID),
		GroupID:   chat.GroupID(r.GroupID),
		AuthorID:  chat.UserID(r.UserID),
		Content:   r.Content,
		CreatedAt: r.CreatedAt,
	}
	if r.Profile != nil {
		msg.Author = &chat.Profile{FullName: r.Profile.FullName, AvatarURL: r.Profile.AvatarURL}
	}
	return msg
}
