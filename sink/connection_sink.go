package sink

import (
	"context"
	"log/slog"
	"sync/atomic"
	"ticket-chat/domain/event"
)

// ConnectionSink buffers the events of one realtime connection.
// The connection handler drains Events and writes them on its socket.
type ConnectionSink struct {
	ConnectedUserEvent chan event.Event
	connectionID       string
	dropped            atomic.Int64
	log                *slog.Logger
}

func NewConnectionSink(log *slog.Logger, connectionID string, bufferSize int) *ConnectionSink {
	return &ConnectionSink{
		ConnectedUserEvent: make(chan event.Event, bufferSize),
		connectionID:       connectionID,
		log:                log,
	}
}

// Consume is called by fanout
// Redirect the event through the concerned owner of the channel
// A slow connection loses events instead of blocking the fanout
func (s *ConnectionSink) Consume(ctx context.Context, e event.Event) error {
	select {
	case s.ConnectedUserEvent <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		s.dropped.Add(1)
		s.log.Warn("Connection buffer full, event dropped",
			"connection_id", s.connectionID, "event_type", e.Type)
		return nil
	}
}

// Dropped returns the number of events lost on backpressure.
func (s *ConnectionSink) Dropped() int64 {
	return s.dropped.Load()
}
