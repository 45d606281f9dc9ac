package metrics

import (
	"time"

	"github.com/chargesim/chargesim/core/events"
)

// TickSample is the per-tick facility measurement recorded by sinks.
type TickSample struct {
	RunID          string
	Time           time.Time
	Tick           int64
	ChargingCount  int
	WaitingCount   int
	TotalPowerKW   float64
	UtilizationPct float64
	Generated      int64
	Rejected       int64
	Processed      int64
}

// MetricsSink records simulation samples for observability purposes.
type MetricsSink interface {
	RecordTick(s TickSample) error
}

// VehicleEventRecorder is implemented by sinks able to record per-vehicle
// lifecycle events.
type VehicleEventRecorder interface {
	RecordVehicleEvent(ev events.VehicleEvent) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordTick(TickSample) error { return nil }

// Ensure NopSink implements VehicleEventRecorder.
func (NopSink) RecordVehicleEvent(events.VehicleEvent) error { return nil }
