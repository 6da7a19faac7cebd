// Package realtime defines the Phoenix channel frames exchanged on the realtime websocket.
package realtime

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	EventJoin            = "phx_join"
	EventLeave           = "phx_leave"
	EventReply           = "phx_reply"
	EventClose           = "phx_close"
	EventError           = "phx_error"
	EventHeartbeat       = "heartbeat"
	EventPostgresChanges = "postgres_changes"

	TopicPhoenix = "phoenix"
	StatusOK     = "ok"
	StatusError  = "error"

	Version     = "1.0.0"
	topicPrefix = "realtime:"
	channelName = "messages:"
	insert      = "INSERT"
	schema      = "public"
	table       = "messages"
)

// Frame is one message of the Phoenix protocol v1 (JSON object serializer).
type Frame struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ref     string          `json:"ref,omitempty"`
	JoinRef string          `json:"join_ref,omitempty"`
}

type JoinPayload struct {
	Config      JoinConfig `json:"config"`
	AccessToken string     `json:"access_token,omitempty"`
}

type JoinConfig struct {
	PostgresChanges []ChangeFilter `json:"postgres_changes"`
}

type ChangeFilter struct {
	Event  string `json:"event"`
	Schema string `json:"schema"`
	Table  string `json:"table"`
	Filter string `json:"filter,omitempty"`
}

type ReplyPayload struct {
	Status   string          `json:"status"`
	Response json.RawMessage `json:"response"`
}

// ReplyError is the response of an error reply.
type ReplyError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

type ChangePayload struct {
	Data ChangeData `json:"data"`
}

type ChangeData struct {
	Type   string          `json:"type"`
	Schema string          `json:"schema"`
	Table  string          `json:"table"`
	Record json.RawMessage `json:"record"`
}

// MessagesTopic is the channel topic of the inserts of a group.
func MessagesTopic(groupID string) string {
	return topicPrefix + channelName + groupID
}

// GroupFromTopic returns the group of a messages topic.
func GroupFromTopic(topic string) (string, bool) {
	groupID, ok := strings.CutPrefix(topic, topicPrefix+channelName)
	return groupID, ok && groupID != ""
}

// MessageInserts subscribes to the inserted messages of one group.
func MessageInserts(groupID, accessToken string) JoinPayload {
	return JoinPayload{
		Config: JoinConfig{PostgresChanges: []ChangeFilter{{
			Event:  insert,
			Schema: schema,
			Table:  table,
			Filter: "group_id=eq." + groupID,
		}}},
		AccessToken: accessToken,
	}
}

// Accepts tells if a filter asks for the inserts of the messages table.
func (f ChangeFilter) Accepts() bool {
	return (f.Event == insert || f.Event == "*") && f.Schema == schema && f.Table == table
}

func NewFrame(topic, event, ref string, payload any) (Frame, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, fmt.Errorf("encode %s payload: %w", event, err)
	}
	return Frame{Topic: topic, Event: event, Payload: data, Ref: ref}, nil
}

func Reply(topic, ref, status string, response any) (Frame, error) {
	data, err := json.Marshal(response)
	if err != nil {
		return Frame{}, fmt.Errorf("encode reply: %w", err)
	}
	return NewFrame(topic, EventReply, ref, ReplyPayload{Status: status, Response: data})
}

// Inserted is the frame pushed for a new row of the messages table.
func Inserted(topic string, record any) (Frame, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return Frame{}, fmt.Errorf("encode record: %w", err)
	}
	return NewFrame(topic, EventPostgresChanges, "", ChangePayload{Data: ChangeData{
		Type:   insert,
		Schema: schema,
		Table:  table,
		Record: data,
	}})
}

// InsertedID extracts the id of the record of an insert frame.
func InsertedID(frame Frame) (string, error) {
	var payload ChangePayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil {
		return "", fmt.Errorf("decode change: %w", err)
	}
	if payload.Data.Type != insert {
		return "", fmt.Errorf("unexpected change type %q", payload.Data.Type)
	}
	var record struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(payload.Data.Record, &record); err != nil {
		return "", fmt.Errorf("decode record: %w", err)
	}
	if record.ID == "" {
		return "", fmt.Errorf("record without id")
	}
	return record.ID, nil
}
