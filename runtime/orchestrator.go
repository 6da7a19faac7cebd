// Package runtime wires the event pipeline of the development backend and
// the realtime feed of the client.
// It orchestrates components without containing business rules.
package runtime

import (
	"context"
	"log/slog"
	"sync"
	"ticket-chat/contract"
	"ticket-chat/domain/event"
	"ticket-chat/runtime/workers"
	"time"
)

// Orchestrator owns the channels of the backend pipeline:
// stored messages -> moderation worker -> events -> fanout -> registry sinks.
type Orchestrator struct {
	mu             sync.Mutex
	log            *slog.Logger
	supervisor     contract.ISupervisor
	registry       contract.IRegistry
	handlers       []event.Handler
	stored         chan event.Event
	events         chan event.Event
	sinkTimeout    time.Duration
	metricInterval time.Duration
	started        bool
}

func NewOrchestrator(log *slog.Logger, supervisor contract.ISupervisor, registry contract.IRegistry,
	bufferSize int, sinkTimeout, metricInterval time.Duration, handlers ...event.Handler) *Orchestrator {
	return &Orchestrator{
		log:            log,
		supervisor:     supervisor,
		registry:       registry,
		handlers:       handlers,
		stored:         make(chan event.Event, bufferSize),
		events:         make(chan event.Event, bufferSize),
		sinkTimeout:    sinkTimeout,
		metricInterval: metricInterval,
	}
}

// Stored is where the message service publishes freshly stored messages.
func (o *Orchestrator) Stored() chan<- event.Event {
	return o.stored
}

func (o *Orchestrator) Registry() contract.IRegistry {
	return o.registry
}

// Start registers the workers and runs the supervisor until ctx is done or Stop is called.
func (o *Orchestrator) Start(ctx context.Context) {
	o.mu.Lock()
	if o.started {
		o.mu.Unlock()
		o.log.Warn("Orchestrator already started")
		return
	}
	o.started = true
	o.supervisor.Add(
		workers.NewModerationWorker(o.stored, o.events, o.log),
		workers.NewEventFanout(o.log, o.events, o.registry, o.sinkTimeout, o.handlers...),
		workers.NewChannelCapacityWorker(o.log, []workers.NamedChannel{
			{Name: "stored", Channel: o.stored},
			{Name: "events", Channel: o.events},
		}, o.metricInterval),
	)
	o.mu.Unlock()

	o.log.Info("Starting orchestrator and all supervised workers")
	o.supervisor.Run(ctx)
}

// Stop cancels the supervised workers.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.supervisor.Stop()
}
