package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/chargesim/chargesim/core/events"
	coremetrics "github.com/chargesim/chargesim/core/metrics"
	"github.com/chargesim/chargesim/infra/logger"
)

// InfluxSink writes simulation samples to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	client := influxdb2.NewClientWithOptions(url, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and returns a
// NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordTick writes the per-tick facility measurement.
func (s *InfluxSink) RecordTick(t coremetrics.TickSample) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("facility_tick").
		AddTag("run_id", t.RunID).
		AddField("tick", t.Tick).
		AddField("charging", t.ChargingCount).
		AddField("waiting", t.WaitingCount).
		AddField("power_kw", round3(t.TotalPowerKW)).
		AddField("utilization_pct", round3(t.UtilizationPct)).
		AddField("generated", t.Generated).
		AddField("rejected", t.Rejected).
		AddField("processed", t.Processed).
		SetTime(t.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordVehicleEvent writes a per-vehicle lifecycle event.
func (s *InfluxSink) RecordVehicleEvent(ev events.VehicleEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("vehicle_event").
		AddTag("run_id", ev.RunID).
		AddTag("kind", ev.KindName).
		AddTag("class", ev.Vehicle.Class).
		AddTag("station_id", strconv.Itoa(ev.StationID)).
		AddField("vehicle_id", ev.Vehicle.ID).
		AddField("level", round3(ev.Vehicle.Level)).
		AddField("energy_kwh", round3(ev.Vehicle.EnergyKWh)).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
