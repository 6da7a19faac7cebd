package workers

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"ticket-chat/contract"
	"ticket-chat/domain/chat"
	"ticket-chat/domain/event"
	"ticket-chat/mocks"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestEventFanout_Fanout_To_Group_Sinks(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	mockRegistry := mocks.NewMockIRegistry(ctrl)
	mockSink := mocks.NewMockEventSink(ctrl)
	groupSinks := []contract.EventSink{mockSink, mockSink}

	fanout := NewEventFanout(log, nil, mockRegistry, time.Second)

	done := make(chan struct{})
	var count atomic.Int32
	// Given two sinks listen to the group
	mockRegistry.EXPECT().GetSinksForGroup(chat.GroupID("group-1")).Return(groupSinks).Times(1)
	// Given both are consumed
	mockSink.EXPECT().Consume(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, evt event.Event) error {
			if count.Add(1) == 2 {
				close(done)
			}
			return nil
		}).
		Times(2)

	evt := event.NewMessageInserted(chat.Message{ID: "m1", GroupID: "group-1"})

	// When an event is handled by the worker
	fanout.Fanout(context.Background(), evt)

	// Then every sink received it
	select {
	case <-done:
	case <-time.After(1 * time.Second):
		req.Fail("Goroutine did not terminated at time")
	}
}

func TestEventFanout_SinkTimeout(t *testing.T) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	mockRegistry := mocks.NewMockIRegistry(ctrl)
	mockSink := mocks.NewMockEventSink(ctrl)

	fanout := NewEventFanout(log, nil, mockRegistry, 20*time.Millisecond)
	released := make(chan struct{})

	// Given a sink never consuming before its deadline
	mockRegistry.EXPECT().GetSinksForGroup(gomock.Any()).Return([]contract.EventSink{mockSink}).Times(1)
	mockSink.EXPECT().Consume(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, evt event.Event) error {
			<-ctx.Done()
			close(released)
			return ctx.Err()
		}).
		Times(1)

	// When an event is handled
	fanout.Fanout(context.Background(), event.NewMessageInserted(chat.Message{GroupID: "group-1"}))

	// Then the sink is released by the timeout
	select {
	case <-released:
	case <-time.After(time.Second):
		t.Fatal("sink was not released by its timeout")
	}
}

func TestEventFanout_Censored_Goes_To_Handlers_Only(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	mockRegistry := mocks.NewMockIRegistry(ctrl)
	handler := event.NewCensoredHandler(log)
	events := make(chan event.Event, 1)

	fanout := NewEventFanout(log, events, mockRegistry, time.Second, handler)

	// Given a censorship event waiting in the channel
	mockRegistry.EXPECT().GetSinksForGroup(gomock.Any()).Times(0)
	events <- event.NewCensored("group-1", "scam")
	close(events)

	// When the worker runs until the channel is closed
	req.NoError(fanout.Run(context.Background()))

	// Then the handler counted it
	req.Equal(uint64(1), handler.Hits("scam"))
	req.Equal(uint64(1), handler.Total())
}
