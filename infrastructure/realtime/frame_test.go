package realtime

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMessagesTopic_Round_Trip(t *testing.T) {
	req := require.New(t)

	topic := MessagesTopic("g-1")
	req.Equal("realtime:messages:g-1", topic)

	groupID, ok := GroupFromTopic(topic)
	req.True(ok)
	req.Equal("g-1", groupID)

	_, ok = GroupFromTopic("realtime:messages:")
	req.False(ok)
	_, ok = GroupFromTopic(TopicPhoenix)
	req.False(ok)
}

func TestMessageInserts_Filters_On_Group(t *testing.T) {
	req := require.New(t)

	payload := MessageInserts("g-1", "token")

	req.Len(payload.Config.PostgresChanges, 1)
	filter := payload.Config.PostgresChanges[0]
	req.True(filter.Accepts())
	req.Equal("group_id=eq.g-1", filter.Filter)
	req.Equal("token", payload.AccessToken)
	req.False(ChangeFilter{Event: "DELETE", Schema: "public", Table: "messages"}.Accepts())
}

func TestInsertedID(t *testing.T) {
	req := require.New(t)

	// Given an insert frame carrying a full record
	frame, err := Inserted(MessagesTopic("g-1"), map[string]string{"id": "m-1", "content": "hello"})
	req.NoError(err)

	// When the id is extracted
	id, err := InsertedID(frame)

	// Then only the id is kept
	req.NoError(err)
	req.Equal("m-1", id)

	// A record without id is refused
	frame, err = Inserted(MessagesTopic("g-1"), map[string]string{"content": "hello"})
	req.NoError(err)
	_, err = InsertedID(frame)
	req.Error(err)

	// Garbage is refused
	_, err = InsertedID(Frame{Payload: json.RawMessage(`"nope"`)})
	req.Error(err)
}

func TestReply_Encodes_Status(t *testing.T) {
	req := require.New(t)

	frame, err := Reply("realtime:messages:g-1", "1", StatusError, ReplyError{Code: "42501", Message: "denied"})
	req.NoError(err)
	req.Equal(EventReply, frame.Event)
	req.Equal("1", frame.Ref)

	var reply ReplyPayload
	req.NoError(json.Unmarshal(frame.Payload, &reply))
	req.Equal(StatusError, reply.Status)

	var replyErr ReplyError
	req.NoError(json.Unmarshal(reply.Response, &replyErr))
	req.Equal("42501", replyErr.Code)
}
