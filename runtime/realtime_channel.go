package runtime

import (
	"context"
	"log/slog"
	"sync"
	"ticket-chat/contract"
	"ticket-chat/domain/chat"
	"ticket-chat/errors"
	"time"
)

const feedBufferSize = 32

// RealtimeChannel turns insert notifications of a group into full messages.
type RealtimeChannel struct {
	backend contract.Backend
	timeout time.Duration
	log     *slog.Logger
}

func NewRealtimeChannel(backend contract.Backend, timeout time.Duration, log *slog.Logger) *RealtimeChannel {
	return &RealtimeChannel{backend: backend, timeout: timeout, log: log}
}

// Open subscribes to the inserts of a group.
// Every notification is resolved with a fetch by id before delivery,
// a failed fetch drops the notification.
func (c *RealtimeChannel) Open(ctx context.Context, groupID chat.GroupID) (*GroupFeed, error) {
	subCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	sub, err := c.backend.Subscribe(subCtx, groupID)
	if err != nil {
		return nil, err
	}

	feedCtx, stop := context.WithCancel(context.Background())
	feed := &GroupFeed{
		groupID:  groupID,
		backend:  c.backend,
		sub:      sub,
		timeout:  c.timeout,
		log:      c.log.With("group_id", groupID),
		messages: make(chan chat.Message, feedBufferSize),
		ctx:      feedCtx,
		stop:     stop,
	}
	go feed.run()
	c.log.Debug("Realtime feed opened", "group_id", groupID)
	return feed, nil
}

// GroupFeed is the live subscription of one group.
// Messages is closed when the feed ends, Err then tells why.
type GroupFeed struct {
	groupID  chat.GroupID
	backend  contract.Backend
	sub      contract.Subscription
	timeout  time.Duration
	log      *slog.Logger
	messages chan chat.Message
	ctx      context.Context
	stop     context.CancelFunc

	closeOnce sync.Once
	closeErr  error
	mu        sync.Mutex
	err       error
}

func (f *GroupFeed) GroupID() chat.GroupID {
	return f.groupID
}

func (f *GroupFeed) Messages() <-chan chat.Message {
	return f.messages
}

// Err is nil while the feed runs and after Close.
// It is errors.ErrSubscriptionClosed or the transport error when the backend ended it.
func (f *GroupFeed) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Close releases the subscription. It is safe to call more than once.
func (f *GroupFeed) Close() error {
	f.closeOnce.Do(func() {
		f.stop()
		f.closeErr = f.backend.Unsubscribe(f.sub)
		f.log.Debug("Realtime feed closed")
	})
	return f.closeErr
}

func (f *GroupFeed) run() {
	defer close(f.messages)
	inserts := f.sub.Inserts()
	for {
		select {
		case <-f.ctx.Done():
			return
		case id, ok := <-inserts:
			if !ok {
				f.ended()
				return
			}
			message, ok := f.resolve(id)
			if !ok {
				continue
			}
			select {
			case f.messages <- message:
			case <-f.ctx.Done():
				return
			}
		}
	}
}

func (f *GroupFeed) resolve(id chat.MessageID) (chat.Message, bool) {
	ctx, cancel := context.WithTimeout(f.ctx, f.timeout)
	defer cancel()

	message, err := f.backend.FetchMessageByID(ctx, id)
	if err != nil {
		f.log.Warn("Dropping realtime notification", "message_id", id, "error", err)
		return chat.Message{}, false
	}
	if message.GroupID != "" && message.GroupID != f.groupID {
		f.log.Warn("Dropping message of another group", "message_id", id, "other_group_id", message.GroupID)
		return chat.Message{}, false
	}
	return message, true
}

func (f *GroupFeed) ended() {
	if f.ctx.Err() != nil {
		return
	}
	err := f.sub.Err()
	if err == nil {
		err = errors.ErrSubscriptionClosed
	}
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
	f.log.Warn("Realtime subscription ended", "error", err)
}
