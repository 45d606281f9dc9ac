package sim

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/chargesim/chargesim/core/arrivals"
	"github.com/chargesim/chargesim/core/assign"
	"github.com/chargesim/chargesim/core/events"
	"github.com/chargesim/chargesim/core/logger"
	"github.com/chargesim/chargesim/core/metrics"
	"github.com/chargesim/chargesim/core/model"
	"github.com/chargesim/chargesim/core/station"
	"github.com/chargesim/chargesim/core/stats"
	"github.com/chargesim/chargesim/internal/eventbus"
)

var (
	// ErrRunning is returned when Run or Initialize is invoked while a run
	// is in progress.
	ErrRunning = errors.New("sim: already running")
	// ErrNotInitialized is returned by Run before Initialize succeeded.
	ErrNotInitialized = errors.New("sim: not initialized")
)

// SystemMetrics aggregates the facility state across all stations.
type SystemMetrics struct {
	TotalCharging int     `json:"total_charging"`
	TotalWaiting  int     `json:"total_waiting"`
	TotalPowerKW  float64 `json:"total_power_kw"`
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)         {}
func (nopLogger) Debugw(string, map[string]any) {}
func (nopLogger) Infof(string, ...any)          {}
func (nopLogger) Warnf(string, ...any)          {}
func (nopLogger) Errorf(string, ...any)         {}

// Driver owns the simulated clock and drives the per-minute tick loop. It is
// the single writer of all simulation state; the query surface and every
// emitted notification hand out copies only.
type Driver struct {
	log           logger.Logger
	bus           eventbus.EventBus
	vehicleEvents *eventbus.TypedBus[events.VehicleEvent]
	sink          metrics.MetricsSink
	policy        assign.Policy

	mu          sync.RWMutex
	params      Params
	runID       string
	clock       time.Time
	tick        int64
	stations    []*station.Station
	gen         *arrivals.Generator
	agg         *stats.Aggregator
	initialized bool

	running atomic.Bool
	cancel  context.CancelFunc // set for the duration of a run
	rng     arrivals.Rand      // overrides the seeded source when set
}

// New creates a Driver. A nil bus disables snapshot notifications and a nil
// sink disables metrics recording.
func New(log logger.Logger, bus eventbus.EventBus, sink metrics.MetricsSink) *Driver {
	if log == nil {
		log = nopLogger{}
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Driver{
		log:           log,
		bus:           bus,
		vehicleEvents: eventbus.NewTyped[events.VehicleEvent](),
		sink:          sink,
		policy:        assign.LeastLoad{},
	}
}

// SetRand injects the random source used for arrivals. It must be called
// before Run; reproducible tests pass scripted or seeded sources here.
func (d *Driver) SetRand(r arrivals.Rand) {
	d.mu.Lock()
	d.rng = r
	d.mu.Unlock()
}

// SubscribeVehicleEvents registers a consumer for per-occurrence vehicle
// events (arrival, rejection, completion).
func (d *Driver) SubscribeVehicleEvents() <-chan events.VehicleEvent {
	return d.vehicleEvents.Subscribe()
}

// UnsubscribeVehicleEvents removes a vehicle-event consumer.
func (d *Driver) UnsubscribeVehicleEvents(ch <-chan events.VehicleEvent) {
	d.vehicleEvents.Unsubscribe(ch)
}

// Initialize resets all state and creates stations per configuration. It may
// only be called when no run is in progress.
func (d *Driver) Initialize(p Params) error {
	if d.running.Load() {
		return ErrRunning
	}
	p.SetDefaults()
	if err := p.Validate(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	stations := make([]*station.Station, 0, p.StationCount)
	for i := 1; i <= p.StationCount; i++ {
		s, err := station.New(i, p.SlotsPerStation, p.MaxQueueSize)
		if err != nil {
			return err
		}
		stations = append(stations, s)
	}

	rng := d.rng
	if rng == nil {
		seed := p.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		rng = rand.New(rand.NewSource(seed))
	}
	gen, err := arrivals.NewGenerator(p.rates(), p.RushMultiplier, p.profiles(), rng)
	if err != nil {
		return err
	}

	d.params = p
	d.runID = uuid.NewString()
	d.stations = stations
	d.gen = gen
	d.agg = stats.NewAggregator()
	d.clock = time.Time{}
	d.tick = 0
	d.initialized = true
	d.log.Infof("initialized run %s: %d stations x %d slots, queue bound %d",
		d.runID, p.StationCount, p.SlotsPerStation, p.MaxQueueSize)
	return nil
}

// Run executes the tick loop until the configured duration elapses, the
// context is canceled or Stop is called. Cancellation is a normal termination
// path: Run returns nil after emitting a final snapshot. Run must not be
// invoked concurrently with itself.
func (d *Driver) Run(ctx context.Context) error {
	if !d.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer d.running.Store(false)

	d.mu.Lock()
	if !d.initialized {
		d.mu.Unlock()
		return ErrNotInitialized
	}
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	start := time.Now()
	d.clock = start
	d.tick = 0
	d.agg.Reset(start)
	end := start.Add(time.Duration(d.params.DurationHours * float64(time.Hour)))
	batch := batchSizeFor(d.params.SpeedMultiplier)
	delay := pacingDelay(d.params.SpeedMultiplier)
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.cancel = nil
		d.mu.Unlock()
		cancel()
	}()
	d.log.Infof("run %s started: %.2fh of virtual time, speed %gx, batch %d",
		d.runID, d.params.DurationHours, d.params.SpeedMultiplier, batch)

	for {
		// Cancellation is checked at the top of every tick.
		select {
		case <-ctx.Done():
			d.emitSnapshots()
			d.log.Infof("run %s stopped after %d ticks", d.runID, d.tick)
			return nil
		default:
		}

		d.mu.RLock()
		done := !d.clock.Before(end)
		d.mu.RUnlock()
		if done {
			break
		}

		if err := d.step(); err != nil {
			d.emitSnapshots()
			return fmt.Errorf("sim: tick %d: %w", d.tick, err)
		}
		d.mu.RLock()
		emit := d.tick%int64(batch) == 0
		d.mu.RUnlock()
		if emit {
			d.emitSnapshots()
		}

		// The pacing delay is the only intentional suspension in a tick;
		// cancellation interrupts it as well.
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			d.emitSnapshots()
			d.log.Infof("run %s stopped after %d ticks", d.runID, d.tick)
			return nil
		case <-timer.C:
		}
	}

	d.emitSnapshots()
	d.log.Infof("run %s finished after %d ticks", d.runID, d.tick)
	return nil
}

// Stop requests cooperative cancellation of a running simulation. It is
// idempotent and safe to call at any time, including when not running.
func (d *Driver) Stop() {
	d.mu.RLock()
	cancel := d.cancel
	d.mu.RUnlock()
	if cancel != nil {
		cancel()
	}
}

// step advances the simulation by one minute of virtual time.
func (d *Driver) step() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.clock

	newVehicles, err := d.gen.Generate(now)
	if err != nil {
		return err
	}
	d.agg.RecordArrivals(len(newVehicles))

	for _, v := range newVehicles {
		target, ok := d.policy.Pick(d.stations, now)
		if !ok {
			if err := v.Reject(); err != nil {
				return err
			}
			d.agg.RecordRejection()
			d.publishVehicleEvent(events.VehicleRejected, v, -1, now,
				fmt.Sprintf("%s (%s) was rejected: every queue is full", v.DisplayID(), v.Class))
			continue
		}
		outcome, err := target.Admit(v, now)
		if err != nil {
			return err
		}
		switch outcome {
		case station.AdmitCharging:
			d.publishVehicleEvent(events.VehicleArrived, v, target.ID, now,
				fmt.Sprintf("%s (%s) arrived and started charging at station %d", v.DisplayID(), v.Class, target.ID))
		case station.AdmitQueued:
			d.publishVehicleEvent(events.VehicleArrived, v, target.ID, now,
				fmt.Sprintf("%s (%s) arrived and is waiting at station %d", v.DisplayID(), v.Class, target.ID))
		case station.AdmitRejected:
			d.agg.RecordRejection()
			d.publishVehicleEvent(events.VehicleRejected, v, target.ID, now,
				fmt.Sprintf("%s (%s) was rejected at station %d", v.DisplayID(), v.Class, target.ID))
		}
	}

	for _, s := range d.stations {
		completed, err := s.Tick(now)
		if err != nil {
			return err
		}
		for _, v := range completed {
			d.agg.RecordCompletion(v)
			d.publishVehicleEvent(events.VehicleCompleted, v, s.ID, now,
				fmt.Sprintf("%s (%s) finished charging at station %d (%.1f kWh delivered)",
					v.DisplayID(), v.Class, s.ID, v.EnergyDelivered(now)))
		}
	}

	d.agg.RecordTick(now, d.stations)
	if err := d.sink.RecordTick(d.tickSampleLocked(now)); err != nil {
		d.log.Errorf("metrics sink: %v", err)
	}

	d.tick++
	d.clock = now.Add(time.Minute)
	return nil
}

// publishVehicleEvent emits a per-occurrence event and forwards it to sinks
// that record vehicle lifecycles. Callers hold d.mu.
func (d *Driver) publishVehicleEvent(kind events.VehicleEventKind, v *model.Vehicle, stationID int, now time.Time, desc string) {
	ev := events.VehicleEvent{
		RunID:       d.runID,
		Kind:        kind,
		KindName:    kind.String(),
		Vehicle:     v.Snapshot(now),
		StationID:   stationID,
		Description: desc,
		Time:        now,
	}
	d.vehicleEvents.Publish(ev)
	if rec, ok := d.sink.(metrics.VehicleEventRecorder); ok {
		if err := rec.RecordVehicleEvent(ev); err != nil {
			d.log.Errorf("metrics sink: %v", err)
		}
	}
	d.log.Debugf("%s", desc)
}

// tickSampleLocked builds the per-tick measurement. Callers hold d.mu.
func (d *Driver) tickSampleLocked(now time.Time) metrics.TickSample {
	var charging, waiting int
	var power, util float64
	for _, s := range d.stations {
		charging += s.ChargingCount()
		waiting += s.WaitingCount()
		power += s.PowerKW()
		util += s.UtilizationPct()
	}
	if len(d.stations) > 0 {
		util /= float64(len(d.stations))
	}
	return metrics.TickSample{
		RunID:          d.runID,
		Time:           now,
		Tick:           d.tick,
		ChargingCount:  charging,
		WaitingCount:   waiting,
		TotalPowerKW:   power,
		UtilizationPct: util,
		Generated:      d.agg.Generated(),
		Rejected:       d.agg.Rejected(),
		Processed:      d.agg.Processed(),
	}
}

// emitSnapshots publishes the batched stations, statistics and clock
// notifications. Payloads are copied before publication.
func (d *Driver) emitSnapshots() {
	if d.bus == nil {
		return
	}
	d.mu.RLock()
	now := d.clock
	tick := d.tick
	runID := d.runID
	snaps := make([]station.Snapshot, 0, len(d.stations))
	for _, s := range d.stations {
		snaps = append(snaps, s.Snapshot(now))
	}
	statsSnap := d.agg.Snapshot()
	d.mu.RUnlock()

	d.bus.Publish(events.StationsUpdated{RunID: runID, Time: now, Tick: tick, Stations: snaps})
	d.bus.Publish(events.StatisticsUpdated{RunID: runID, Stats: statsSnap})
	d.bus.Publish(events.ClockUpdated{RunID: runID, Time: now, Tick: tick})
}

// Station returns a copy of the station with the given id.
func (d *Driver) Station(id int) (station.Snapshot, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, s := range d.stations {
		if s.ID == id {
			return s.Snapshot(d.clock), true
		}
	}
	return station.Snapshot{}, false
}

// Stations returns copies of all stations.
func (d *Driver) Stations() []station.Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]station.Snapshot, 0, len(d.stations))
	for _, s := range d.stations {
		out = append(out, s.Snapshot(d.clock))
	}
	return out
}

// ActiveVehicles lists the charging and queued vehicles across all stations.
func (d *Driver) ActiveVehicles() []model.VehicleSnapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []model.VehicleSnapshot
	for _, s := range d.stations {
		for _, v := range s.Vehicles() {
			out = append(out, v.Snapshot(d.clock))
		}
	}
	return out
}

// SystemMetrics aggregates the current facility state.
func (d *Driver) SystemMetrics() SystemMetrics {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var m SystemMetrics
	for _, s := range d.stations {
		m.TotalCharging += s.ChargingCount()
		m.TotalWaiting += s.WaitingCount()
		m.TotalPowerKW += s.PowerKW()
	}
	return m
}

// Statistics returns a copy of the aggregated statistics.
func (d *Driver) Statistics() stats.Statistics {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.agg == nil {
		return stats.Statistics{}
	}
	return d.agg.Snapshot()
}

// RunID identifies the current initialization; it changes on every Initialize.
func (d *Driver) RunID() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.runID
}

// Running reports whether the tick loop is active.
func (d *Driver) Running() bool { return d.running.Load() }

// batchSizeFor bounds snapshot overhead at high speeds: snapshots are emitted
// once every batchSize ticks.
func batchSizeFor(speed float64) int {
	switch {
	case speed <= 1:
		return 1
	case speed <= 10:
		return 5
	case speed <= 50:
		return 10
	default:
		return 20
	}
}

// pacingDelay gives low-speed runs a perceptible real-time feel.
// delay(ms) = clamp(100/speed, 1, 100).
func pacingDelay(speed float64) time.Duration {
	ms := 100 / speed
	if ms < 1 {
		ms = 1
	}
	if ms > 100 {
		ms = 100
	}
	return time.Duration(ms * float64(time.Millisecond))
}
