package hosted

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"ticket-chat/contract"
	"ticket-chat/domain/chat"
	"ticket-chat/errors"
	"ticket-chat/infrastructure/realtime"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait    = 5 * time.Second
	insertBuffer = 64
	joinRef      = "1"
	codeJoin     = "REALTIME_JOIN_ERROR"
)

// Subscribe opens one websocket per group and joins the inserts channel of the group.
// It returns once the server acknowledged the join.
func (c *Client) Subscribe(ctx context.Context, groupID chat.GroupID) (contract.Subscription, error) {
	endpoint, err := c.realtimeURL()
	if err != nil {
		return nil, err
	}
	conn, resp, err := c.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			return nil, decodeError(resp)
		}
		return nil, errors.Transport(err)
	}

	sub := &subscription{
		groupID: groupID,
		topic:   realtime.MessagesTopic(string(groupID)),
		conn:    conn,
		inserts: make(chan chat.MessageID, insertBuffer),
		done:    make(chan struct{}),
		wait:    2 * c.heartbeat,
		log:     c.log.With("group_id", groupID),
	}
	sub.ref.Store(1)

	if err := sub.join(ctx, c.accessToken()); err != nil {
		_ = conn.Close()
		return nil, err
	}

	go sub.readLoop()
	go sub.heartbeatLoop(c.heartbeat)
	return sub, nil
}

func (c *Client) Unsubscribe(sub contract.Subscription) error {
	s, ok := sub.(*subscription)
	if !ok {
		return fmt.Errorf("unknown subscription %T", sub)
	}
	s.close()
	return nil
}

func (c *Client) realtimeURL() (string, error) {
	endpoint := *c.baseURL
	switch endpoint.Scheme {
	case "https":
		endpoint.Scheme = "wss"
	case "http":
		endpoint.Scheme = "ws"
	default:
		return "", fmt.Errorf("unsupported scheme %q", endpoint.Scheme)
	}
	endpoint.Path = realtimePath
	query := url.Values{"apikey": {c.anonKey}, "vsn": {realtime.Version}}
	if token := c.accessToken(); token != "" {
		query.Set("access_token", token)
	}
	endpoint.RawQuery = query.Encode()
	return endpoint.String(), nil
}

// subscription is a joined channel.
// Only readLoop closes inserts, writes are serialized by writeMu.
type subscription struct {
	groupID chat.GroupID
	topic   string
	conn    *websocket.Conn
	inserts chan chat.MessageID
	done    chan struct{}
	wait    time.Duration
	log     *slog.Logger

	writeMu   sync.Mutex
	ref       atomic.Int64
	closeOnce sync.Once
	closing   atomic.Bool

	mu  sync.Mutex
	err error
}

func (s *subscription) GroupID() chat.GroupID {
	return s.groupID
}

func (s *subscription) Inserts() <-chan chat.MessageID {
	return s.inserts
}

func (s *subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *subscription) join(ctx context.Context, accessToken string) error {
	frame, err := realtime.NewFrame(s.topic, realtime.EventJoin, joinRef, realtime.MessageInserts(string(s.groupID), accessToken))
	if err != nil {
		return &errors.BackendError{Code: errors.CodeDecode, Message: "cannot encode join", Details: err.Error()}
	}
	frame.JoinRef = joinRef
	if err := s.write(frame); err != nil {
		return errors.Transport(err)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(s.wait)
	}
	_ = s.conn.SetReadDeadline(deadline)
	for {
		var reply realtime.Frame
		if err := s.conn.ReadJSON(&reply); err != nil {
			if ctx.Err() != nil {
				return errors.Transport(ctx.Err())
			}
			var netErr interface{ Timeout() bool }
			if stderrors.As(err, &netErr) && netErr.Timeout() {
				return errors.Transport(context.DeadlineExceeded)
			}
			return errors.Transport(err)
		}
		if reply.Event != realtime.EventReply || reply.Ref != joinRef {
			continue
		}
		var payload realtime.ReplyPayload
		if err := json.Unmarshal(reply.Payload, &payload); err != nil {
			return &errors.BackendError{Code: errors.CodeDecode, Message: "invalid join reply", Details: err.Error()}
		}
		if payload.Status == realtime.StatusOK {
			return nil
		}
		return joinError(payload.Response)
	}
}

func joinError(response json.RawMessage) error {
	var replyErr realtime.ReplyError
	_ = json.Unmarshal(response, &replyErr)
	backendErr := &errors.BackendError{
		Code:    replyErr.Code,
		Message: firstNonEmpty(replyErr.Message, replyErr.Reason, "realtime join refused"),
	}
	if backendErr.Code == "" {
		backendErr.Code = codeJoin
	}
	return backendErr
}

func (s *subscription) readLoop() {
	defer close(s.inserts)
	defer s.conn.Close()

	for {
		_ = s.conn.SetReadDeadline(time.Now().Add(s.wait))
		var frame realtime.Frame
		if err := s.conn.ReadJSON(&frame); err != nil {
			if !s.closing.Load() {
				s.log.Warn("Realtime connection lost", "error", err)
				s.fail(errors.Transport(err))
			}
			return
		}
		if frame.Topic != s.topic {
			continue
		}
		switch frame.Event {
		case realtime.EventPostgresChanges:
			id, err := realtime.InsertedID(frame)
			if err != nil {
				s.log.Warn("Change dropped", "error", err)
				continue
			}
			select {
			case s.inserts <- chat.MessageID(id):
			case <-s.done:
				return
			}
		case realtime.EventClose, realtime.EventError:
			if !s.closing.Load() {
				s.log.Warn("Realtime channel closed by server", "event", frame.Event)
				s.fail(errors.ErrSubscriptionClosed)
			}
			return
		}
	}
}

func (s *subscription) heartbeatLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			frame, _ := realtime.NewFrame(realtime.TopicPhoenix, realtime.EventHeartbeat, s.nextRef(), struct{}{})
			if err := s.write(frame); err != nil {
				s.log.Debug("Heartbeat failed", "error", err)
				return
			}
		}
	}
}

func (s *subscription) nextRef() string {
	return strconv.FormatInt(s.ref.Add(1), 10)
}

func (s *subscription) write(frame realtime.Frame) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(frame)
}

func (s *subscription) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

// close leaves the channel and closes the socket, it's safe to call twice.
func (s *subscription) close() {
	s.closeOnce.Do(func() {
		s.closing.Store(true)
		close(s.done)
		if frame, err := realtime.NewFrame(s.topic, realtime.EventLeave, s.nextRef(), struct{}{}); err == nil {
			_ = s.write(frame)
		}
		s.writeMu.Lock()
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		s.writeMu.Unlock()
		_ = s.conn.Close()
	})
}
