package event

import (
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestCensoredHandler_Counts_Hits_Per_Word(t *testing.T) {
	req := require.New(t)
	handler := NewCensoredHandler(logs.GetLoggerFromLevel(slog.LevelDebug))

	// Given two hits on the same word and one on another
	handler.Handle(NewCensored("group-1", "badger"))
	handler.Handle(NewCensored("group-1", "badger"))
	handler.Handle(NewCensored("group-2", "snake"))

	// And an event of another type
	handler.Handle(Event{Type: MessageInsertedType, Payload: MessageInserted{}})

	// Then only censorship hits are counted
	req.Equal(uint64(2), handler.Hits("badger"))
	req.Equal(uint64(1), handler.Hits("snake"))
	req.Equal(uint64(3), handler.Total())
}

func TestCensoredHandler_Ignores_Invalid_Payload(t *testing.T) {
	req := require.New(t)
	handler := NewCensoredHandler(logs.GetLoggerFromLevel(slog.LevelDebug))

	handler.Handle(Event{Type: CensorshipHitType, Payload: "not a payload"})

	req.Zero(handler.Total())
}
