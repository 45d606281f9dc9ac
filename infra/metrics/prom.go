package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/chargesim/chargesim/core/events"
	coremetrics "github.com/chargesim/chargesim/core/metrics"
)

// PromSink records simulation samples in Prometheus metrics.
type PromSink struct {
	charging    prometheus.Gauge
	waiting     prometheus.Gauge
	power       prometheus.Gauge
	utilization prometheus.Gauge
	generated   prometheus.Gauge
	rejected    prometheus.Gauge
	processed   prometheus.Gauge
	vehicles    *prometheus.CounterVec
}

// NewPromSink registers simulation metrics on the default Prometheus
// registerer. The Prometheus server is started separately.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		charging: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chargesim_vehicles_charging",
			Help: "Vehicles currently occupying a charging slot",
		}),
		waiting: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chargesim_vehicles_waiting",
			Help: "Vehicles currently queued at a station",
		}),
		power: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chargesim_power_kw",
			Help: "Total nominal power drawn across all stations",
		}),
		utilization: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chargesim_utilization_pct",
			Help: "Mean slot utilization across all stations",
		}),
		generated: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chargesim_vehicles_generated_total",
			Help: "Vehicles generated since the run started",
		}),
		rejected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chargesim_vehicles_rejected_total",
			Help: "Vehicles rejected since the run started",
		}),
		processed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chargesim_vehicles_processed_total",
			Help: "Vehicles completed since the run started",
		}),
		vehicles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chargesim_vehicle_events_total",
			Help: "Per-vehicle lifecycle events",
		}, []string{"kind", "class"}),
	}

	collectors := []prometheus.Collector{
		s.charging, s.waiting, s.power, s.utilization,
		s.generated, s.rejected, s.processed, s.vehicles,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return nil, err
			}
		}
	}
	return s, nil
}

// RecordTick updates the facility gauges.
func (s *PromSink) RecordTick(t coremetrics.TickSample) error {
	s.charging.Set(float64(t.ChargingCount))
	s.waiting.Set(float64(t.WaitingCount))
	s.power.Set(t.TotalPowerKW)
	s.utilization.Set(t.UtilizationPct)
	s.generated.Set(float64(t.Generated))
	s.rejected.Set(float64(t.Rejected))
	s.processed.Set(float64(t.Processed))
	return nil
}

// RecordVehicleEvent increments the lifecycle counter.
func (s *PromSink) RecordVehicleEvent(ev events.VehicleEvent) error {
	s.vehicles.WithLabelValues(ev.KindName, ev.Vehicle.Class).Inc()
	return nil
}
