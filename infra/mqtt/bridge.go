package mqtt

import (
	"context"
	"encoding/json"

	"github.com/chargesim/chargesim/core/events"
	"github.com/chargesim/chargesim/infra/logger"
	"github.com/chargesim/chargesim/internal/eventbus"
)

// VehicleEventSource hands out per-vehicle event subscriptions. The simulation
// driver implements it.
type VehicleEventSource interface {
	SubscribeVehicleEvents() <-chan events.VehicleEvent
	UnsubscribeVehicleEvents(<-chan events.VehicleEvent)
}

// Bridge republishes simulation events to an MQTT broker. Batched snapshots
// come from the event bus, per-vehicle events from the driver. Each event
// type gets its own subtopic under the configured prefix.
type Bridge struct {
	bus      eventbus.EventBus
	vehicles VehicleEventSource
	pub      Publisher
	prefix   string
	log      logger.Logger
}

// NewBridge creates a bridge between the simulation and the publisher.
// The vehicle source may be nil to bridge snapshots only.
func NewBridge(bus eventbus.EventBus, vehicles VehicleEventSource, pub Publisher, prefix string) *Bridge {
	return &Bridge{bus: bus, vehicles: vehicles, pub: pub, prefix: prefix, log: logger.New("mqtt_bridge")}
}

// Start consumes events until the context is canceled or the sources close.
func (b *Bridge) Start(ctx context.Context) {
	ch := b.bus.Subscribe()
	var vch <-chan events.VehicleEvent
	if b.vehicles != nil {
		vch = b.vehicles.SubscribeVehicleEvents()
	}
	go func() {
		defer b.bus.Unsubscribe(ch)
		if vch != nil {
			defer b.vehicles.UnsubscribeVehicleEvents(vch)
		}
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-ch:
				if !ok {
					ch = nil
					if vch == nil {
						return
					}
					continue
				}
				b.publishSnapshot(ev)
			case ev, ok := <-vch:
				if !ok {
					vch = nil
					if ch == nil {
						return
					}
					continue
				}
				b.publish(b.prefix+"/vehicles", ev)
			}
		}
	}()
}

func (b *Bridge) publishSnapshot(ev eventbus.Event) {
	switch ev.(type) {
	case events.StationsUpdated:
		b.publish(b.prefix+"/stations", ev)
	case events.StatisticsUpdated:
		b.publish(b.prefix+"/stats", ev)
	case events.ClockUpdated:
		b.publish(b.prefix+"/clock", ev)
	}
}

func (b *Bridge) publish(topic string, ev any) {
	payload, err := json.Marshal(ev)
	if err != nil {
		b.log.Errorf("marshal event: %v", err)
		return
	}
	if err := b.pub.Publish(topic, payload); err != nil {
		b.log.Errorf("publish to %s: %v", topic, err)
	}
}
