package workers

import (
	"context"
	"log/slog"
	"ticket-chat/contract"
	"ticket-chat/domain/event"
	"time"
)

// EventFanout broadcasts backend events to in-process consumers.
//
// Group scoped events go to the sinks the registry holds for the group,
// each delivery bounded by the sink timeout so a slow connection cannot
// stall the others. Every event is also passed to the handlers.
//
// Delivery is best effort: no retries, no durability.
type EventFanout struct {
	log         *slog.Logger
	events      <-chan event.Event
	registry    contract.IRegistry
	handlers    []event.Handler
	sinkTimeout time.Duration
}

func NewEventFanout(log *slog.Logger, events <-chan event.Event, registry contract.IRegistry,
	sinkTimeout time.Duration, handlers ...event.Handler) *EventFanout {
	return &EventFanout{
		log:         log,
		events:      events,
		registry:    registry,
		handlers:    handlers,
		sinkTimeout: sinkTimeout,
	}
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case evt, ok := <-w.events:
			if !ok {
				w.log.Debug("Event channel closed, stopping fanout")
				return nil
			}
			w.Fanout(ctx, evt)
		case <-ctx.Done():
			w.log.Debug("Context done, stopping fanout")
			return nil
		}
	}
}

// Fanout delivers one event. Sinks are consumed concurrently.
func (w *EventFanout) Fanout(ctx context.Context, evt event.Event) {
	for _, handler := range w.handlers {
		handler.Handle(evt)
	}

	if evt.Type != event.MessageInsertedType {
		return
	}
	scoped, ok := evt.Payload.(event.GroupEvent)
	if !ok {
		w.log.Warn("Event without group", "type", evt.Type)
		return
	}
	groupID := scoped.Group()
	for _, sink := range w.registry.GetSinksForGroup(groupID) {
		go func(sink contract.EventSink) {
			sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
			defer cancel()
			if err := sink.Consume(sinkCtx, evt); err != nil {
				w.log.Debug("Sink dropped event", "group_id", groupID, "error", err)
			}
		}(sink)
	}
}
