package stats

import (
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/chargesim/chargesim/core/model"
	"github.com/chargesim/chargesim/core/station"
)

// HistoryWindow bounds the rolling metric histories.
const HistoryWindow = 1000

// CompletedCharge is the per-vehicle record retained for derived aggregates.
type CompletedCharge struct {
	VehicleID     int64     `json:"vehicle_id"`
	Class         string    `json:"class"`
	ArrivedAt     time.Time `json:"arrived_at"`
	ChargingStart time.Time `json:"charging_start"`
	ChargingEnd   time.Time `json:"charging_end"`
	EnergyKWh     float64   `json:"energy_kwh"`
}

// Aggregator accumulates counters, rolling time series and derived metrics
// from driver-reported events. It is owned by the driver; consumers only ever
// see Snapshot copies.
type Aggregator struct {
	startedAt time.Time
	now       time.Time

	generated int64
	rejected  int64
	processed int64

	utilization *History // mean station utilization %, one sample per tick
	power       *History // total facility power kW, one sample per tick
	queueLen    *History // total queued vehicles, one sample per tick

	completed   []CompletedCharge
	peakPowerKW float64
	ticks       int64
}

// NewAggregator creates an aggregator with its histories reset.
func NewAggregator() *Aggregator {
	a := &Aggregator{}
	a.Reset(time.Time{})
	return a
}

// Reset clears all counters, histories and the completed-vehicle record.
func (a *Aggregator) Reset(start time.Time) {
	a.startedAt = start
	a.now = start
	a.generated = 0
	a.rejected = 0
	a.processed = 0
	a.utilization = NewHistory(HistoryWindow)
	a.power = NewHistory(HistoryWindow)
	a.queueLen = NewHistory(HistoryWindow)
	a.completed = nil
	a.peakPowerKW = 0
	a.ticks = 0
}

// RecordArrivals counts newly generated vehicles.
func (a *Aggregator) RecordArrivals(n int) { a.generated += int64(n) }

// RecordRejection counts a vehicle turned away at admission.
func (a *Aggregator) RecordRejection() { a.rejected++ }

// RecordCompletion folds a completed vehicle into the permanent record.
func (a *Aggregator) RecordCompletion(v *model.Vehicle) {
	a.processed++
	a.completed = append(a.completed, CompletedCharge{
		VehicleID:     v.ID,
		Class:         v.Class.String(),
		ArrivedAt:     v.ArrivedAt,
		ChargingStart: v.ChargingStart,
		ChargingEnd:   v.ChargingEnd,
		EnergyKWh:     v.EnergyDelivered(v.ChargingEnd),
	})
}

// RecordTick folds per-tick station metrics into the rolling histories.
func (a *Aggregator) RecordTick(now time.Time, stations []*station.Station) {
	a.now = now
	a.ticks++

	var utilSum, powerSum float64
	var queued int
	for _, s := range stations {
		utilSum += s.UtilizationPct()
		powerSum += s.PowerKW()
		queued += s.WaitingCount()
	}
	util := 0.0
	if len(stations) > 0 {
		util = utilSum / float64(len(stations))
	}
	a.utilization.Push(util)
	a.power.Push(powerSum)
	a.queueLen.Push(float64(queued))
	if powerSum > a.peakPowerKW {
		a.peakPowerKW = powerSum
	}
}

// Generated returns the monotonic count of generated vehicles.
func (a *Aggregator) Generated() int64 { return a.generated }

// Rejected returns the monotonic count of rejected vehicles.
func (a *Aggregator) Rejected() int64 { return a.rejected }

// Processed returns the monotonic count of completed vehicles.
func (a *Aggregator) Processed() int64 { return a.processed }

// UtilizationHistory exposes the rolling utilization series.
func (a *Aggregator) UtilizationHistory() *History { return a.utilization }

// Snapshot copies the current statistics. Derived aggregates are recomputed
// from the full completed-vehicle record.
func (a *Aggregator) Snapshot() Statistics {
	s := Statistics{
		Generated:          a.generated,
		Rejected:           a.rejected,
		Processed:          a.processed,
		PeakPowerKW:        a.peakPowerKW,
		Ticks:              a.ticks,
		SimTime:            a.now,
		UtilizationHistory: a.utilization.Values(),
		PowerHistory:       a.power.Values(),
		QueueLengthHistory: a.queueLen.Values(),
		Completed:          append([]CompletedCharge(nil), a.completed...),
	}
	if len(a.completed) > 0 {
		waits := make([]float64, len(a.completed))
		for i, c := range a.completed {
			waits[i] = c.ChargingStart.Sub(c.ArrivedAt).Minutes()
		}
		s.AvgWaitMinutes = stat.Mean(waits, nil)
	}
	if len(s.UtilizationHistory) > 0 {
		s.AvgUtilizationPct = stat.Mean(s.UtilizationHistory, nil)
	}
	if elapsed := a.now.Sub(a.startedAt).Hours(); elapsed > 0 {
		s.ThroughputPerHour = float64(a.processed) / elapsed
	}
	return s
}

// Statistics is a read-only snapshot of the aggregator.
type Statistics struct {
	Generated int64 `json:"generated"`
	Rejected  int64 `json:"rejected"`
	Processed int64 `json:"processed"`

	AvgWaitMinutes    float64 `json:"avg_wait_minutes"`
	AvgUtilizationPct float64 `json:"avg_utilization_pct"`
	PeakPowerKW       float64 `json:"peak_power_kw"`
	ThroughputPerHour float64 `json:"throughput_per_hour"`

	UtilizationHistory []float64 `json:"utilization_history"`
	PowerHistory       []float64 `json:"power_history"`
	QueueLengthHistory []float64 `json:"queue_length_history"`

	Completed []CompletedCharge `json:"-"`
	Ticks     int64             `json:"ticks"`
	SimTime   time.Time         `json:"sim_time"`
}
