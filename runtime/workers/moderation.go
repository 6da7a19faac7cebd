package workers

import (
	"context"
	"log/slog"
	"ticket-chat/domain/event"

	"github.com/abadojack/whatlanggo"
)

// ModerationWorker follows stored messages: it tags their language in the logs,
// turns every censored word into a Censored event and forwards the message to the fanout.
type ModerationWorker struct {
	stored <-chan event.Event
	events chan<- event.Event
	log    *slog.Logger
}

func NewModerationWorker(stored <-chan event.Event, events chan<- event.Event, log *slog.Logger) *ModerationWorker {
	return &ModerationWorker{stored: stored, events: events, log: log}
}

func (w *ModerationWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping worker")
			return nil
		case e, ok := <-w.stored:
			if !ok {
				w.log.Debug("Channel is closed")
				return nil
			}
			evt, ok := e.Payload.(event.MessageInserted)
			if !ok {
				continue
			}
			for _, out := range w.toEvents(evt, e) {
				select {
				case <-ctx.Done():
					w.log.Debug("Stopping worker")
					return nil
				case w.events <- out:
				}
			}
		}
	}
}

func (w *ModerationWorker) toEvents(evt event.MessageInserted, original event.Event) []event.Event {
	info := whatlanggo.Detect(evt.Message.Content)
	w.log.Debug("Message stored",
		"group_id", evt.Message.GroupID,
		"message_id", evt.Message.ID,
		"lang", info.Lang.Iso6391(),
		"confidence", info.Confidence)

	out := make([]event.Event, 0, len(evt.CensoredWords)+1)
	for _, word := range evt.CensoredWords {
		out = append(out, event.NewCensored(evt.Message.GroupID, word))
	}
	return append(out, original)
}
