package runtime

import (
	"context"
	"testing"
	"ticket-chat/domain/chat"
	"ticket-chat/domain/event"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type Sink struct {
	name string
}

func (s Sink) Consume(ctx context.Context, e event.Event) error {
	return nil
}

func TestRegistry_Subscribe_One_Group_One_Connection(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	connectionID := uuid.NewString()
	groupID := chat.GroupID("group-1")
	sink := Sink{name: "alice"}

	// Given no connection is registered
	// And no group exists
	req.Empty(registry.Sessions)
	req.Empty(registry.GroupMembers)

	// When a connection subscribes a group
	registry.Subscribe(connectionID, groupID, sink)

	// Then
	req.Len(registry.Sessions, 1)
	req.Equal(sink, registry.Sessions[connectionID])

	req.Len(registry.GroupMembers, 1)
	req.Contains(registry.GroupMembers[groupID], connectionID)

	req.Len(registry.GetSinksForGroup(groupID), 1)
	req.Contains(registry.GetSinksForGroup(groupID), sink)
}

func TestRegistry_Subscribe_One_Group_Multiple_Connections(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	connectionID1 := uuid.NewString()
	connectionID2 := uuid.NewString()
	groupID := chat.GroupID("group-1")
	sink1 := Sink{name: "alice"}
	sink2 := Sink{name: "bob"}

	// When connections subscribe a group
	registry.Subscribe(connectionID1, groupID, sink1)
	registry.Subscribe(connectionID2, groupID, sink2)

	// Then
	req.Len(registry.Sessions, 2)
	req.Len(registry.GroupMembers[groupID], 2)

	req.Len(registry.GetSinksForGroup(groupID), 2)
	req.Contains(registry.GetSinksForGroup(groupID), sink1)
}

func TestRegistry_UnSubscribe_One_Group_One_Connection(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	connectionID := uuid.NewString()
	groupID := chat.GroupID("group-1")
	sink := Sink{name: "alice"}

	// Given a connection subscribes a group
	registry.Subscribe(connectionID, groupID, sink)

	// When the connection unsubscribes the group
	registry.Unsubscribe(connectionID, groupID)

	// Then no connection left
	// And the group doesn't exist anymore
	req.Empty(registry.Sessions)
	req.Empty(registry.GroupMembers)

	// And no sink left in group
	req.Nil(registry.GetSinksForGroup(groupID))
}

func TestRegistry_UnSubscribe_Keeps_Sink_Of_Connection_Still_Listening(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	connectionID := uuid.NewString()
	sink := Sink{name: "alice"}

	// Given a connection listening to two groups
	registry.Subscribe(connectionID, "group-1", sink)
	registry.Subscribe(connectionID, "group-2", sink)

	// When it leaves one of them
	registry.Unsubscribe(connectionID, "group-1")

	// Then its sink is still registered for the other one
	req.Len(registry.Sessions, 1)
	req.Nil(registry.GetSinksForGroup("group-1"))
	req.Len(registry.GetSinksForGroup("group-2"), 1)
}

func TestRegistry_UnsubscribeAll(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	sink1 := Sink{name: "alice"}
	sink2 := Sink{name: "bob"}

	// Given two connections, the first one listening to two groups
	registry.Subscribe("c1", "group-1", sink1)
	registry.Subscribe("c1", "group-2", sink1)
	registry.Subscribe("c2", "group-2", sink2)

	// When the first connection goes away
	registry.UnsubscribeAll("c1")

	// Then only the second one is left
	req.Len(registry.Sessions, 1)
	req.NotContains(registry.GroupMembers, chat.GroupID("group-1"))
	req.Equal([]any{sink2}, toAny(registry.GetSinksForGroup("group-2")))
}

func toAny[T any](items []T) []any {
	out := make([]any, 0, len(items))
	for _, item := range items {
		out = append(out, item)
	}
	return out
}
