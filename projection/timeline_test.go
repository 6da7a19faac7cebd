package projection

import (
	"testing"
	"ticket-chat/domain/chat"
	"time"

	"github.com/stretchr/testify/require"
)

var origin = time.Date(2026, 6, 1, 20, 0, 0, 0, time.UTC)

func message(id string, offset time.Duration) chat.Message {
	return chat.Message{
		ID:        chat.MessageID(id),
		GroupID:   "group-1",
		AuthorID:  "alice",
		Content:   "content " + id,
		CreatedAt: origin.Add(offset),
	}
}

func ids(messages []chat.Message) []chat.MessageID {
	out := make([]chat.MessageID, 0, len(messages))
	for _, m := range messages {
		out = append(out, m.ID)
	}
	return out
}

func TestTimeline_Load_Keeps_CreatedAt_Order_And_Dedup(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline("group-1")

	// Given a fetched history
	req.True(timeline.Load([]chat.Message{message("m1", 0), message("m3", 2*time.Second)}))

	// When realtime delivers out of order messages and a duplicate
	req.True(timeline.Merge(message("m2", time.Second)))
	req.False(timeline.Merge(message("m3", 2*time.Second)))
	req.True(timeline.Merge(message("m4", 3*time.Second)))

	// Then the timeline stays ordered without duplicates
	req.Equal([]chat.MessageID{"m1", "m2", "m3", "m4"}, ids(timeline.Messages()))

	// And a history reload after a reconnection adds only what was missed
	req.True(timeline.Load([]chat.Message{message("m1", 0), message("m5", 4*time.Second)}))
	req.Equal([]chat.MessageID{"m1", "m2", "m3", "m4", "m5"}, ids(timeline.Messages()))
	req.False(timeline.Load([]chat.Message{message("m5", 4*time.Second)}))
}

func TestTimeline_Merge_Equal_CreatedAt_Is_Stable(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline("group-1")

	timeline.Merge(message("m1", 0))
	timeline.Merge(message("m2", 0))
	timeline.Merge(message("m3", 0))

	req.Equal([]chat.MessageID{"m1", "m2", "m3"}, ids(timeline.Messages()))
}

func TestTimeline_Merge_Ignores_Other_Group(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline("group-1")

	other := message("m1", 0)
	other.GroupID = "group-2"

	req.False(timeline.Merge(other))
	req.Zero(timeline.Len())
}

func TestTimeline_Optimistic_Stays_At_Tail(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline("group-1")
	timeline.Load([]chat.Message{message("m1", 0)})

	// Given an optimistic message
	tempID := chat.NewOptimisticID()
	timeline.AppendOptimistic(chat.Message{ID: tempID, GroupID: "group-1", Content: "hello", CreatedAt: origin.Add(time.Minute)})

	// When a message from someone else arrives
	timeline.Merge(message("m2", 2*time.Minute))

	// Then the optimistic message is still last and pending
	messages := timeline.Messages()
	req.Equal([]chat.MessageID{"m1", "m2", tempID}, ids(messages))
	req.True(messages[2].Pending)
}

func TestTimeline_Remove_Rolls_Back_Only_Optimistic(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline("group-1")
	timeline.Load([]chat.Message{message("m1", 0)})
	tempID := chat.NewOptimisticID()
	timeline.AppendOptimistic(chat.Message{ID: tempID, Content: "hello"})

	req.True(timeline.Remove(tempID))
	req.False(timeline.Remove(tempID))
	req.False(timeline.Remove("m1"))
	req.Equal([]chat.MessageID{"m1"}, ids(timeline.Messages()))
}

func TestTimeline_Confirm_Then_Realtime_Replaces_Local_Copy(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline("group-1")
	tempID := chat.NewOptimisticID()
	timeline.AppendOptimistic(chat.Message{ID: tempID, GroupID: "group-1", AuthorID: "alice", Content: "hello", CreatedAt: origin})

	// When the insert succeeds
	req.True(timeline.Confirm(tempID, "m1"))

	// Then the entry stays, no longer pending
	messages := timeline.Messages()
	req.Len(messages, 1)
	req.Equal(chat.MessageID("m1"), messages[0].ID)
	req.False(messages[0].Pending)
	req.Equal("hello", messages[0].Content)

	// When the realtime copy arrives
	server := message("m1", time.Second)
	server.Author = &chat.Profile{FullName: "Alice Martin"}
	req.True(timeline.Merge(server))

	// Then it replaces the local copy without duplicating it
	messages = timeline.Messages()
	req.Len(messages, 1)
	req.Equal("Alice Martin", messages[0].Author.FullName)

	// And later duplicates are ignored
	req.False(timeline.Merge(server))
}

func TestTimeline_Realtime_Then_Confirm_Drops_Optimistic(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline("group-1")
	tempID := chat.NewOptimisticID()
	timeline.AppendOptimistic(chat.Message{ID: tempID, GroupID: "group-1", Content: "hello", CreatedAt: origin})

	// Given the realtime copy arrived before the insert result
	timeline.Merge(message("m1", 0))
	req.Equal(2, timeline.Len())

	// When the insert result is applied
	req.True(timeline.Confirm(tempID, "m1"))

	// Then only the server copy is left
	req.Equal([]chat.MessageID{"m1"}, ids(timeline.Messages()))
	req.False(timeline.Confirm(tempID, "m1"))
}

// requireOrdered fails when a message is created before the one preceding it.
func requireOrdered(t *testing.T, messages []chat.Message) {
	t.Helper()
	for i := 1; i < len(messages); i++ {
		require.False(t, messages[i].CreatedAt.Before(messages[i-1].CreatedAt),
			"%s (%s) after %s (%s)", messages[i].ID, messages[i].CreatedAt, messages[i-1].ID, messages[i-1].CreatedAt)
	}
}

func TestTimeline_Server_Copies_Reorder_Confirmed_Sends(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline("group-1")

	// Given two sends confirmed in the order they were typed
	first, second := chat.NewOptimisticID(), chat.NewOptimisticID()
	timeline.AppendOptimistic(chat.Message{ID: first, GroupID: "group-1", Content: "first", CreatedAt: origin.Add(time.Second)})
	timeline.AppendOptimistic(chat.Message{ID: second, GroupID: "group-1", Content: "second", CreatedAt: origin.Add(2 * time.Second)})
	req.True(timeline.Confirm(first, "a"))
	req.True(timeline.Confirm(second, "b"))

	// When the server stored them the other way round
	req.True(timeline.Merge(message("b", 3*time.Second)))
	req.True(timeline.Merge(message("a", 4*time.Second)))

	// Then the timeline follows the server creation times
	messages := timeline.Messages()
	req.Equal([]chat.MessageID{"b", "a"}, ids(messages))
	requireOrdered(t, messages)
}

func TestTimeline_Server_Copy_Moves_Before_Later_Messages(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline("group-1")

	// Given a confirmed send and a later message from someone else
	tempID := chat.NewOptimisticID()
	timeline.AppendOptimistic(chat.Message{ID: tempID, GroupID: "group-1", Content: "mine", CreatedAt: origin.Add(6 * time.Second)})
	req.True(timeline.Confirm(tempID, "mine"))
	other := message("other", 5*time.Second)
	other.AuthorID = "bob"
	req.True(timeline.Merge(other))

	// When the server copy stamped earlier comes back with the history refetch
	req.True(timeline.Load([]chat.Message{other, message("mine", 2*time.Second)}))

	// Then it is placed before the other message
	messages := timeline.Messages()
	req.Equal([]chat.MessageID{"mine", "other"}, ids(messages))
	requireOrdered(t, messages)
}

func TestTimeline_Confirm_Keeps_Confirmed_Before_Pending(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline("group-1")

	// Given two pending sends
	first, second := chat.NewOptimisticID(), chat.NewOptimisticID()
	timeline.AppendOptimistic(chat.Message{ID: first, GroupID: "group-1", Content: "first", CreatedAt: origin})
	timeline.AppendOptimistic(chat.Message{ID: second, GroupID: "group-1", Content: "second", CreatedAt: origin.Add(time.Second)})

	// When the second one is confirmed first
	req.True(timeline.Confirm(second, "b"))

	// Then it leaves the pending tail
	messages := timeline.Messages()
	req.Equal([]chat.MessageID{"b", first}, ids(messages))
	req.False(messages[0].Pending)
	req.True(messages[1].Pending)
}

func TestTimeline_Reset(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline("group-1")
	timeline.Load([]chat.Message{message("m1", 0)})

	timeline.Reset("group-2")

	req.Zero(timeline.Len())
	req.Equal(chat.GroupID("group-2"), timeline.GroupID())
}
