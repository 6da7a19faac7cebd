package sink

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"ticket-chat/domain/chat"
	"ticket-chat/domain/event"

	"github.com/stretchr/testify/require"
)

func TestConnectionSink_Consume(t *testing.T) {
	req := require.New(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	// Given a sink able to buffer a single event
	s := NewConnectionSink(log, "conn-1", 1)
	first := event.NewMessageInserted(chat.Message{ID: "m-1", GroupID: "g-1"})
	second := event.NewMessageInserted(chat.Message{ID: "m-2", GroupID: "g-1"})

	// When two events are consumed without reader
	req.NoError(s.Consume(context.Background(), first))
	req.NoError(s.Consume(context.Background(), second))

	// Then the first is buffered and the second dropped
	req.Equal(int64(1), s.Dropped())
	got := <-s.ConnectedUserEvent
	req.Equal(chat.MessageID("m-1"), got.Payload.(event.MessageInserted).Message.ID)
}

func TestConnectionSink_Consume_Cancelled(t *testing.T) {
	req := require.New(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	s := NewConnectionSink(log, "conn-1", 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Consume(ctx, event.NewCensored("g-1", "bad"))

	req.ErrorIs(err, context.Canceled)
	req.Zero(s.Dropped())
}
