// Package projection builds the local timeline of the active group.
// Handles ordering, deduplication and the lifecycle of optimistic entries.
// Does not perform I/O or interact with UI directly.
package projection

import (
	"ticket-chat/domain/chat"
)

// Timeline holds the ordered messages of one group.
// Confirmed messages are kept in non-decreasing CreatedAt order,
// optimistic ones are appended at the tail.
type Timeline struct {
	groupID  chat.GroupID
	messages []chat.Message
	// promoted holds server ids of optimistic entries confirmed locally
	// whose server copy has not been merged yet
	promoted map[chat.MessageID]struct{}
}

func NewTimeline(groupID chat.GroupID) *Timeline {
	return &Timeline{
		groupID:  groupID,
		promoted: make(map[chat.MessageID]struct{}),
	}
}

func (t *Timeline) GroupID() chat.GroupID {
	return t.groupID
}

// Reset empties the timeline and scopes it to another group.
func (t *Timeline) Reset(groupID chat.GroupID) {
	t.groupID = groupID
	t.messages = nil
	t.promoted = make(map[chat.MessageID]struct{})
}

// Load merges a fetched history. Already known messages are skipped,
// so it can be called again after a reconnection.
func (t *Timeline) Load(history []chat.Message) bool {
	changed := false
	for _, message := range history {
		if t.Merge(message) {
			changed = true
		}
	}
	return changed
}

// Merge adds a server message. It returns false when nothing changed.
// The server copy of a locally confirmed entry replaces it and is moved
// to the position of its server creation time.
func (t *Timeline) Merge(message chat.Message) bool {
	if message.GroupID != "" && message.GroupID != t.groupID {
		return false
	}
	message.Pending = false
	if i := t.index(message.ID); i >= 0 {
		if _, ok := t.promoted[message.ID]; !ok {
			return false
		}
		delete(t.promoted, message.ID)
		t.removeAt(i)
		t.insert(message)
		return true
	}
	t.insert(message)
	return true
}

// AppendOptimistic adds a pending entry at the tail.
func (t *Timeline) AppendOptimistic(message chat.Message) {
	message.Pending = true
	t.messages = append(t.messages, message)
}

// Confirm promotes an optimistic entry once the insert returned its server id.
// The promoted entry joins the confirmed messages at its local creation time.
// When the server copy already arrived through realtime, the optimistic entry is dropped.
func (t *Timeline) Confirm(tempID, serverID chat.MessageID) bool {
	i := t.index(tempID)
	if i < 0 {
		return false
	}
	if t.index(serverID) >= 0 {
		t.removeAt(i)
		return true
	}
	confirmed := t.messages[i]
	confirmed.ID = serverID
	confirmed.Pending = false
	t.removeAt(i)
	t.insert(confirmed)
	t.promoted[serverID] = struct{}{}
	return true
}

// Remove rolls back an optimistic entry.
func (t *Timeline) Remove(tempID chat.MessageID) bool {
	i := t.index(tempID)
	if i < 0 || !t.messages[i].Pending {
		return false
	}
	t.removeAt(i)
	return true
}

// Messages returns a copy of the timeline.
func (t *Timeline) Messages() []chat.Message {
	out := make([]chat.Message, len(t.messages))
	copy(out, t.messages)
	return out
}

func (t *Timeline) Len() int {
	return len(t.messages)
}

func (t *Timeline) index(id chat.MessageID) int {
	for i := len(t.messages) - 1; i >= 0; i-- {
		if t.messages[i].ID == id {
			return i
		}
	}
	return -1
}

// insert places a confirmed message after every confirmed message created
// at or before it and before the optimistic tail.
func (t *Timeline) insert(message chat.Message) {
	pos := len(t.messages)
	for i, current := range t.messages {
		if current.Pending || current.CreatedAt.After(message.CreatedAt) {
			pos = i
			break
		}
	}
	t.messages = append(t.messages, chat.Message{})
	copy(t.messages[pos+1:], t.messages[pos:])
	t.messages[pos] = message
}

func (t *Timeline) removeAt(i int) {
	t.messages = append(t.messages[:i], t.messages[i+1:]...)
}
