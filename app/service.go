package app

import (
	"context"
	"fmt"

	"github.com/chargesim/chargesim/config"
	coremetrics "github.com/chargesim/chargesim/core/metrics"
	"github.com/chargesim/chargesim/core/sim"
	"github.com/chargesim/chargesim/infra/logger"
	"github.com/chargesim/chargesim/infra/metrics"
	"github.com/chargesim/chargesim/infra/mqtt"
	"github.com/chargesim/chargesim/internal/eventbus"
)

// Service wires the simulation driver to the configured sinks and bridges.
type Service struct {
	Driver      *sim.Driver
	bus         eventbus.EventBus
	log         logger.Logger
	params      sim.Params
	promEnabled bool
	promPort    string
	bridge      *mqtt.Bridge
	publisher   mqtt.Publisher
	influx      *metrics.InfluxSink
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	svc := &Service{
		log:         logg,
		params:      cfg.Simulation,
		promEnabled: cfg.Metrics.PrometheusEnabled,
		promPort:    cfg.Metrics.PrometheusPort,
	}

	var sinks []coremetrics.MetricsSink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink()
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sink := metrics.NewInfluxSinkWithFallback(
			cfg.Metrics.InfluxURL, cfg.Metrics.InfluxToken,
			cfg.Metrics.InfluxOrg, cfg.Metrics.InfluxBucket)
		if influx, ok := sink.(*metrics.InfluxSink); ok {
			svc.influx = influx
		}
		sinks = append(sinks, sink)
	}
	var sink coremetrics.MetricsSink = coremetrics.NopSink{}
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	bus := eventbus.New()
	driver := sim.New(logg, bus, sink)
	svc.bus = bus
	svc.Driver = driver

	if cfg.MQTT.Enabled {
		pub, err := mqtt.NewPahoPublisher(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		svc.publisher = pub
		svc.bridge = mqtt.NewBridge(bus, driver, pub, cfg.MQTT.TopicPrefix)
	}
	return svc, nil
}

// Run executes one simulation run and blocks until it completes or the
// context is canceled.
func (s *Service) Run(ctx context.Context) error {
	if err := s.Driver.Initialize(s.params); err != nil {
		return fmt.Errorf("initialize simulation: %w", err)
	}
	if s.promEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if s.bridge != nil {
		s.bridge.Start(ctx)
	}

	s.log.Infof("starting run %s", s.Driver.RunID())
	if err := s.Driver.Run(ctx); err != nil {
		return err
	}
	stats := s.Driver.Statistics()
	s.log.Infof("run %s finished: generated=%d processed=%d rejected=%d",
		s.Driver.RunID(), stats.Generated, stats.Processed, stats.Rejected)
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() {
	s.Driver.Stop()
	if s.publisher != nil {
		s.publisher.Disconnect()
	}
	if s.influx != nil {
		s.influx.Close()
	}
	s.bus.Close()
}
