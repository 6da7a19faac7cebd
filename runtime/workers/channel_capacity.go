package workers

import (
	"context"
	"log/slog"
	"reflect"
	"time"
)

type NamedChannel struct {
	Name    string
	Channel any
}

// ChannelCapacityWorker periodically logs the length and capacity of the backend channels.
// Reading len(channel) and cap(channel) is non-blocking.
// A channel filling up means the fanout cannot keep up with inserts.
type ChannelCapacityWorker struct {
	log            *slog.Logger
	channels       []NamedChannel
	metricInterval time.Duration
}

func NewChannelCapacityWorker(log *slog.Logger, channels []NamedChannel, metricInterval time.Duration) *ChannelCapacityWorker {
	return &ChannelCapacityWorker{log: log, channels: channels, metricInterval: metricInterval}
}

func (w *ChannelCapacityWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping channel capacity report")
			return nil
		case <-ticker.C:
			w.Report()
		}
	}
}

// Report logs one sample per channel.
func (w *ChannelCapacityWorker) Report() []ChannelUsage {
	usages := make([]ChannelUsage, 0, len(w.channels))
	for _, nc := range w.channels {
		v := reflect.ValueOf(nc.Channel)
		if v.Kind() != reflect.Chan {
			w.log.Error("Provided object is not a channel", "name", nc.Name)
			continue
		}
		usage := ChannelUsage{Name: nc.Name, Capacity: v.Cap(), Length: v.Len()}
		usages = append(usages, usage)
		if usage.Capacity > 0 && usage.Length*2 >= usage.Capacity {
			w.log.Warn("Channel half full", "name", usage.Name, "length", usage.Length, "capacity", usage.Capacity)
			continue
		}
		w.log.Debug("Channel capacity", "name", usage.Name, "length", usage.Length, "capacity", usage.Capacity)
	}
	return usages
}

type ChannelUsage struct {
	Name     string
	Capacity int
	Length   int
}
