package stats

import (
	"math"
	"testing"
	"time"

	"github.com/chargesim/chargesim/core/model"
	"github.com/chargesim/chargesim/core/station"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func completedVehicle(t *testing.T, id int64, waitMin, chargeMin float64) *model.Vehicle {
	t.Helper()
	v, err := model.NewVehicle(id, model.ClassCar, 60, 0, 100, 60*60/chargeMin, base)
	if err != nil {
		t.Fatalf("new vehicle: %v", err)
	}
	if err := v.StartCharging(base.Add(time.Duration(waitMin * float64(time.Minute)))); err != nil {
		t.Fatalf("start charging: %v", err)
	}
	if err := v.Complete(); err != nil {
		t.Fatalf("complete: %v", err)
	}
	return v
}

func TestAggregatorCounters(t *testing.T) {
	a := NewAggregator()
	a.Reset(base)
	a.RecordArrivals(3)
	a.RecordArrivals(2)
	a.RecordRejection()
	a.RecordCompletion(completedVehicle(t, 1, 0, 30))
	if a.Generated() != 5 || a.Rejected() != 1 || a.Processed() != 1 {
		t.Fatalf("unexpected counters %d/%d/%d", a.Generated(), a.Rejected(), a.Processed())
	}
}

func TestAggregatorDerivedMetrics(t *testing.T) {
	a := NewAggregator()
	a.Reset(base)
	a.RecordCompletion(completedVehicle(t, 1, 10, 30))
	a.RecordCompletion(completedVehicle(t, 2, 20, 30))

	s, err := station.New(1, 2, 5)
	if err != nil {
		t.Fatalf("new station: %v", err)
	}
	v, err := model.NewVehicle(3, model.ClassCar, 60, 0, 100, 100, base)
	if err != nil {
		t.Fatalf("new vehicle: %v", err)
	}
	if _, err := s.Admit(v, base); err != nil {
		t.Fatalf("admit: %v", err)
	}
	a.RecordTick(base.Add(time.Hour), []*station.Station{s})

	snap := a.Snapshot()
	if math.Abs(snap.AvgWaitMinutes-15) > 1e-9 {
		t.Fatalf("expected 15m average wait got %v", snap.AvgWaitMinutes)
	}
	if math.Abs(snap.AvgUtilizationPct-50) > 1e-9 {
		t.Fatalf("expected 50%% average utilization got %v", snap.AvgUtilizationPct)
	}
	if snap.PeakPowerKW != 100 {
		t.Fatalf("expected 100 kW peak got %v", snap.PeakPowerKW)
	}
	// 2 completions over one simulated hour.
	if math.Abs(snap.ThroughputPerHour-2) > 1e-9 {
		t.Fatalf("expected throughput 2/h got %v", snap.ThroughputPerHour)
	}
}

func TestAggregatorReset(t *testing.T) {
	a := NewAggregator()
	a.Reset(base)
	a.RecordArrivals(4)
	a.RecordRejection()
	a.Reset(base.Add(time.Hour))
	snap := a.Snapshot()
	if snap.Generated != 0 || snap.Rejected != 0 || snap.Processed != 0 {
		t.Fatalf("reset did not clear counters: %+v", snap)
	}
	if len(snap.UtilizationHistory) != 0 {
		t.Fatalf("reset did not clear histories")
	}
}

func TestAggregatorSnapshotIsolation(t *testing.T) {
	a := NewAggregator()
	a.Reset(base)
	a.RecordTick(base.Add(time.Minute), nil)
	snap := a.Snapshot()
	if len(snap.UtilizationHistory) != 1 {
		t.Fatalf("expected one sample got %d", len(snap.UtilizationHistory))
	}
	snap.UtilizationHistory[0] = 999
	if v, _ := a.UtilizationHistory().Oldest(); v == 999 {
		t.Fatal("snapshot mutation leaked into aggregator")
	}
}
