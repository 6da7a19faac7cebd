package workers

import (
	"context"
	"log/slog"
	"testing"
	"ticket-chat/domain/chat"
	"ticket-chat/domain/event"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestModerationWorker_Forwards_Message_After_Censored_Events(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	stored := make(chan event.Event, 1)
	events := make(chan event.Event, 3)
	worker := NewModerationWorker(stored, events, log)

	// Given a stored message where two words were censored
	message := chat.Message{ID: "m1", GroupID: "group-1", Content: "this is a **** and a ****"}
	stored <- event.NewMessageInserted(message, "scam", "spam")
	close(stored)

	// When the worker drains the channel
	req.NoError(worker.Run(context.Background()))

	// Then one event per word, then the message itself
	req.Len(events, 3)
	first, second, third := <-events, <-events, <-events
	req.Equal(event.CensorshipHitType, first.Type)
	req.Equal(event.Censored{GroupID: "group-1", Word: "scam"}, first.Payload)
	req.Equal(event.Censored{GroupID: "group-1", Word: "spam"}, second.Payload)
	req.Equal(event.MessageInsertedType, third.Type)
	req.Equal(message, third.Payload.(event.MessageInserted).Message)
}

func TestModerationWorker_Stops_On_Context(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	worker := NewModerationWorker(make(chan event.Event), make(chan event.Event), log)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	req.NoError(worker.Run(ctx))
}
