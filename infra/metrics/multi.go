package metrics

import (
	"github.com/chargesim/chargesim/core/events"
	coremetrics "github.com/chargesim/chargesim/core/metrics"
)

// MultiSink fans samples out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordTick forwards the sample to all sinks, returning the first error
// encountered.
func (m *MultiSink) RecordTick(t coremetrics.TickSample) error {
	for _, s := range m.Sinks {
		if err := s.RecordTick(t); err != nil {
			return err
		}
	}
	return nil
}

// RecordVehicleEvent forwards the event to sinks that record vehicle
// lifecycles.
func (m *MultiSink) RecordVehicleEvent(ev events.VehicleEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.VehicleEventRecorder); ok {
			if err := rec.RecordVehicleEvent(ev); err != nil {
				return err
			}
		}
	}
	return nil
}
