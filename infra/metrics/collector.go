package metrics

import (
	"context"

	coremetrics "github.com/kilianp07/powermatch/core/metrics"
	"github.com/kilianp07/powermatch/infra/logger"
	"github.com/kilianp07/powermatch/internal/eventbus"
)

// StartEventCollector subscribes to the bus and records every event on sink.
// It returns a channel closed once the collector has drained and exited,
// which happens when ctx is cancelled or the bus is closed.
func StartEventCollector(ctx context.Context, bus *eventbus.TypedBus[coremetrics.Event], sink coremetrics.MetricsSink) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	log := logger.New("collector")
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := coremetrics.Record(sink, ev); err != nil {
					log.Warnf("record %T: %v", ev, err)
				}
			}
		}
	}()
	return done
}
