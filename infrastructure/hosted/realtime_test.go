package hosted

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"ticket-chat/domain/chat"
	"ticket-chat/errors"
	"ticket-chat/infrastructure/realtime"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// phoenixServer accepts one join per socket and hands the socket to the test.
type phoenixServer struct {
	t       *testing.T
	refuse  bool
	joins   chan realtime.JoinPayload
	sockets chan *websocket.Conn
	query   chan map[string][]string
}

func newPhoenixServer(t *testing.T, refuse bool) *phoenixServer {
	return &phoenixServer{
		t:       t,
		refuse:  refuse,
		joins:   make(chan realtime.JoinPayload, 4),
		sockets: make(chan *websocket.Conn, 4),
		query:   make(chan map[string][]string, 4),
	}
}

func (p *phoenixServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	p.query <- r.URL.Query()

	var frame realtime.Frame
	if err := conn.ReadJSON(&frame); err != nil || frame.Event != realtime.EventJoin {
		_ = conn.Close()
		return
	}
	var join realtime.JoinPayload
	_ = json.Unmarshal(frame.Payload, &join)
	p.joins <- join

	status, response := realtime.StatusOK, any(struct{}{})
	if p.refuse {
		status, response = realtime.StatusError, realtime.ReplyError{Code: errors.CodeForbidden, Message: "not a member"}
	}
	reply, _ := realtime.Reply(frame.Topic, frame.Ref, status, response)
	_ = conn.WriteJSON(reply)
	p.sockets <- conn
}

func (p *phoenixServer) socket() *websocket.Conn {
	select {
	case conn := <-p.sockets:
		p.t.Cleanup(func() { _ = conn.Close() })
		return conn
	case <-time.After(2 * time.Second):
		p.t.Fatal("no socket joined")
		return nil
	}
}

func TestSubscribe_Delivers_Inserted_IDs(t *testing.T) {
	req := require.New(t)

	// Given a joined subscription on group g-1
	server := newPhoenixServer(t, false)
	client := newTestClient(t, server, WithAccessToken(func() string { return "user-token" }))

	sub, err := client.Subscribe(context.Background(), "g-1")
	req.NoError(err)
	defer func() { _ = client.Unsubscribe(sub) }()
	conn := server.socket()

	join := <-server.joins
	req.Equal("group_id=eq.g-1", join.Config.PostgresChanges[0].Filter)
	req.Equal("user-token", join.AccessToken)
	query := <-server.query
	req.Equal([]string{"anon"}, query["apikey"])

	// When the server pushes an insert of another topic, then one of the group
	other, _ := realtime.Inserted(realtime.MessagesTopic("g-2"), map[string]string{"id": "m-0"})
	req.NoError(conn.WriteJSON(other))
	frame, _ := realtime.Inserted(realtime.MessagesTopic("g-1"), map[string]string{"id": "m-1", "group_id": "g-1"})
	req.NoError(conn.WriteJSON(frame))

	// Then only the group insert is notified
	select {
	case id := <-sub.Inserts():
		req.Equal(chat.MessageID("m-1"), id)
	case <-time.After(2 * time.Second):
		req.Fail("no insert delivered")
	}
	req.Equal(chat.GroupID("g-1"), sub.GroupID())
}

func TestSubscribe_Join_Refused(t *testing.T) {
	req := require.New(t)

	server := newPhoenixServer(t, true)
	client := newTestClient(t, server)

	_, err := client.Subscribe(context.Background(), "g-1")

	req.ErrorIs(err, errors.ErrForbidden)
	req.Equal("not a member", errors.UserMessage(err))
}

func TestUnsubscribe_Closes_Without_Error(t *testing.T) {
	req := require.New(t)

	// Given a joined subscription
	server := newPhoenixServer(t, false)
	client := newTestClient(t, server)
	sub, err := client.Subscribe(context.Background(), "g-1")
	req.NoError(err)
	conn := server.socket()

	// When it is released twice
	req.NoError(client.Unsubscribe(sub))
	req.NoError(client.Unsubscribe(sub))

	// Then the server sees the leave and the inserts channel is closed without error
	var leave realtime.Frame
	req.NoError(conn.ReadJSON(&leave))
	req.Equal(realtime.EventLeave, leave.Event)
	req.Equal(realtime.MessagesTopic("g-1"), leave.Topic)

	select {
	case _, ok := <-sub.Inserts():
		req.False(ok)
	case <-time.After(2 * time.Second):
		req.Fail("inserts not closed")
	}
	req.NoError(sub.Err())
}

func TestSubscription_Server_Drop_Sets_Err(t *testing.T) {
	req := require.New(t)

	server := newPhoenixServer(t, false)
	client := newTestClient(t, server)
	sub, err := client.Subscribe(context.Background(), "g-1")
	req.NoError(err)
	defer func() { _ = client.Unsubscribe(sub) }()
	conn := server.socket()

	// When the server closes the socket
	_ = conn.Close()

	// Then the subscription ends with an error
	select {
	case _, ok := <-sub.Inserts():
		req.False(ok)
	case <-time.After(2 * time.Second):
		req.Fail("inserts not closed")
	}
	req.Error(sub.Err())
}

func TestSubscription_Sends_Heartbeats(t *testing.T) {
	req := require.New(t)

	server := newPhoenixServer(t, false)
	client := newTestClient(t, server, WithHeartbeat(20*time.Millisecond))
	sub, err := client.Subscribe(context.Background(), "g-1")
	req.NoError(err)
	defer func() { _ = client.Unsubscribe(sub) }()
	conn := server.socket()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame realtime.Frame
	req.NoError(conn.ReadJSON(&frame))
	req.Equal(realtime.TopicPhoenix, frame.Topic)
	req.Equal(realtime.EventHeartbeat, frame.Event)
}
