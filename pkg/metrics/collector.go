package metrics

import (
	"github.com/ticketmesh/ticketmesh/pkg/events"
)

// Collector consumes broker events and keeps the event-driven counters
// current. Gauge-style raft metrics are pushed directly by the consensus
// node; this covers everything that arrives as an event.
type Collector struct {
	broker *events.Broker
	sub    events.Subscriber
	stopCh chan struct{}
}

// NewCollector creates a collector subscribed to the broker.
func NewCollector(broker *events.Broker) *Collector {
	return &Collector{
		broker: broker,
		stopCh: make(chan struct{}),
	}
}

// Start begins consuming events.
func (c *Collector) Start() {
	c.sub = c.broker.Subscribe()
	go c.run()
}

// Stop stops the collector.
func (c *Collector) Stop() {
	close(c.stopCh)
	c.broker.Unsubscribe(c.sub)
}

func (c *Collector) run() {
	for {
		select {
		case evt, ok := <-c.sub:
			if !ok {
				return
			}
			c.observe(evt)
		case <-c.stopCh:
			return
		}
	}
}

func (c *Collector) observe(evt *events.Event) {
	switch evt.Type {
	case events.EventSeatReserved:
		SeatsReserved.Inc()
	case events.EventSeatReleased:
		SeatsReserved.Dec()
	case events.EventShowAdded:
		ShowsTotal.Inc()
	case events.EventLeaderElected:
		RaftIsLeader.Set(1)
	case events.EventLeaderStepDown:
		RaftIsLeader.Set(0)
	}
}
