package httpapi

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"ticket-chat/domain/chat"
	"ticket-chat/domain/event"
	"ticket-chat/errors"
	"ticket-chat/infrastructure/hosted"
	"ticket-chat/infrastructure/realtime"
	"ticket-chat/sink"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 << 10
	replyBuffer    = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are checked by the CORS layer of the server
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// connection is one realtime socket.
// The read pump owns topics, the write pump owns the socket writes.
type connection struct {
	id      string
	conn    *websocket.Conn
	sink    *sink.ConnectionSink
	replies chan realtime.Frame
	done    chan struct{}
	token   string
	topics  map[string]chat.GroupID
	h       *Handler
	log     *slog.Logger
}

// HandleWebSocket handles GET /realtime/v1/websocket
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade error", "error", err)
		return
	}
	id := uuid.NewString()
	c := &connection{
		id:      id,
		conn:    conn,
		sink:    sink.NewConnectionSink(h.log, id, h.bufferSize),
		replies: make(chan realtime.Frame, replyBuffer),
		done:    make(chan struct{}),
		token:   r.URL.Query().Get("access_token"),
		topics:  make(map[string]chat.GroupID),
		h:       h,
		log:     h.log.With("connection_id", id),
	}
	c.log.Debug("Realtime connection opened")

	go c.writePump()
	go c.readPump()
}

func (c *connection) readPump() {
	defer func() {
		c.h.registry.UnsubscribeAll(c.id)
		close(c.done)
		_ = c.conn.Close()
		c.log.Debug("Realtime connection closed")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.h.heartbeatWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.h.heartbeatWait))
	})

	for {
		var frame realtime.Frame
		if err := c.conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.log.Warn("WebSocket error", "error", err)
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(c.h.heartbeatWait))

		switch frame.Event {
		case realtime.EventHeartbeat:
			c.reply(frame, realtime.StatusOK, struct{}{})
		case realtime.EventJoin:
			c.join(frame)
		case realtime.EventLeave:
			c.leave(frame)
		default:
			c.reply(frame, realtime.StatusError, realtime.ReplyError{Reason: "unmatched topic"})
		}
	}
}

// join checks the identity and the membership before registering the sink.
func (c *connection) join(frame realtime.Frame) {
	groupID, ok := realtime.GroupFromTopic(frame.Topic)
	if !ok {
		c.reply(frame, realtime.StatusError, realtime.ReplyError{Reason: "unknown topic"})
		return
	}
	var payload realtime.JoinPayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil {
		c.reply(frame, realtime.StatusError, realtime.ReplyError{Code: errors.CodeBadRequest, Message: "invalid join payload"})
		return
	}
	if !acceptsInserts(payload) {
		c.reply(frame, realtime.StatusError, realtime.ReplyError{Code: errors.CodeBadRequest, Message: "only message inserts can be subscribed"})
		return
	}

	token := payload.AccessToken
	if token == "" {
		token = c.token
	}
	userID, err := c.h.authService.Verify(token)
	if err != nil {
		c.reply(frame, realtime.StatusError, realtime.ReplyError{Code: errors.CodeUnauthorized, Message: errors.ErrInvalidToken.Error()})
		return
	}
	if err := c.h.messageService.CanRead(userID, groupID); err != nil {
		c.log.Info("Realtime join refused", "group_id", groupID, "user_id", userID, "error", err)
		if stderrors.Is(err, errors.ErrForbidden) {
			c.reply(frame, realtime.StatusError, realtime.ReplyError{Code: errors.CodeForbidden, Message: "not a member of this group"})
			return
		}
		c.reply(frame, realtime.StatusError, realtime.ReplyError{Message: err.Error()})
		return
	}

	c.topics[frame.Topic] = chat.GroupID(groupID)
	c.h.registry.Subscribe(c.id, chat.GroupID(groupID), c.sink)
	c.log.Debug("Realtime channel joined", "group_id", groupID, "user_id", userID)
	c.reply(frame, realtime.StatusOK, map[string]any{"postgres_changes": payload.Config.PostgresChanges})
}

func (c *connection) leave(frame realtime.Frame) {
	if groupID, ok := c.topics[frame.Topic]; ok {
		delete(c.topics, frame.Topic)
		c.h.registry.Unsubscribe(c.id, groupID)
	}
	c.reply(frame, realtime.StatusOK, struct{}{})
}

func (c *connection) reply(frame realtime.Frame, status string, response any) {
	reply, err := realtime.Reply(frame.Topic, frame.Ref, status, response)
	if err != nil {
		c.log.Error("Cannot encode reply", "error", err)
		return
	}
	reply.JoinRef = frame.JoinRef
	select {
	case c.replies <- reply:
	case <-c.done:
	}
}

func (c *connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case frame := <-c.replies:
			if err := c.write(frame); err != nil {
				return
			}
		case evt := <-c.sink.ConnectedUserEvent:
			inserted, ok := evt.Payload.(event.MessageInserted)
			if !ok {
				continue
			}
			frame, err := realtime.Inserted(realtime.MessagesTopic(string(inserted.Message.GroupID)), toInsertedRecord(inserted.Message))
			if err != nil {
				c.log.Error("Cannot encode insert", "error", err)
				continue
			}
			if err := c.write(frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *connection) write(frame realtime.Frame) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(frame); err != nil {
		c.log.Debug("Realtime write failed", "error", err)
		return err
	}
	return nil
}

func acceptsInserts(payload realtime.JoinPayload) bool {
	for _, filter := range payload.Config.PostgresChanges {
		if filter.Accepts() {
			return true
		}
	}
	return false
}

// toInsertedRecord is the bare row, the realtime payload carries no joined profile.
func toInsertedRecord(m chat.Message) hosted.MessageRow {
	return hosted.MessageRow{
		ID:        string(m.ID),
		GroupID:   string(m.GroupID),
		UserID:    string(m.AuthorID),
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}
