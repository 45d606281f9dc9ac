package station

import (
	"testing"
	"time"

	"github.com/chargesim/chargesim/core/model"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// newVehicle creates a vehicle whose charge duration is exactly the given
// number of minutes (capacity 60 kWh, 0 -> 100, power scaled accordingly).
func newVehicle(t *testing.T, id int64, minutes float64) *model.Vehicle {
	t.Helper()
	v, err := model.NewVehicle(id, model.ClassCar, 60, 0, 100, 60*60/minutes, base)
	if err != nil {
		t.Fatalf("new vehicle: %v", err)
	}
	if v.ChargeDuration() != time.Duration(minutes*float64(time.Minute)) {
		t.Fatalf("expected %vm duration got %v", minutes, v.ChargeDuration())
	}
	return v
}

func TestNewValidation(t *testing.T) {
	if _, err := New(1, 0, 5); err == nil {
		t.Error("zero capacity should fail")
	}
	if _, err := New(1, 2, -1); err == nil {
		t.Error("negative queue size should fail")
	}
	if _, err := New(1, 1, 0); err != nil {
		t.Errorf("queue size zero is valid: %v", err)
	}
}

func TestAdmitFillsSlotsThenQueue(t *testing.T) {
	s, err := New(1, 2, 5)
	if err != nil {
		t.Fatalf("new station: %v", err)
	}
	for i := int64(1); i <= 2; i++ {
		out, err := s.Admit(newVehicle(t, i, 30), base)
		if err != nil {
			t.Fatalf("admit %d: %v", i, err)
		}
		if out != AdmitCharging {
			t.Fatalf("vehicle %d: expected charging got %s", i, out)
		}
	}
	out, err := s.Admit(newVehicle(t, 3, 30), base)
	if err != nil {
		t.Fatalf("admit 3: %v", err)
	}
	if out != AdmitQueued {
		t.Fatalf("expected queued got %s", out)
	}
	if s.ChargingCount() != 2 || s.WaitingCount() != 1 || s.Load() != 3 {
		t.Fatalf("unexpected counts: charging=%d waiting=%d", s.ChargingCount(), s.WaitingCount())
	}
	if s.ChargingCount() > s.Capacity {
		t.Fatal("capacity invariant violated")
	}
}

func TestRejectionBoundary(t *testing.T) {
	// Capacity 1, queue bound 0: the second arrival is rejected immediately.
	s, err := New(1, 1, 0)
	if err != nil {
		t.Fatalf("new station: %v", err)
	}
	if out, _ := s.Admit(newVehicle(t, 1, 30), base); out != AdmitCharging {
		t.Fatalf("expected charging got %s", out)
	}
	v2 := newVehicle(t, 2, 30)
	out, err := s.Admit(v2, base)
	if err != nil {
		t.Fatalf("admit: %v", err)
	}
	if out != AdmitRejected {
		t.Fatalf("expected rejected got %s", out)
	}
	if v2.Status != model.StatusRejected {
		t.Fatalf("expected Rejected status got %s", v2.Status)
	}
}

func TestTickReclaimsAndPromotesFIFO(t *testing.T) {
	s, err := New(1, 1, 3)
	if err != nil {
		t.Fatalf("new station: %v", err)
	}
	v1 := newVehicle(t, 1, 10)
	v2 := newVehicle(t, 2, 10)
	v3 := newVehicle(t, 3, 10)
	if out, _ := s.Admit(v1, base); out != AdmitCharging {
		t.Fatal("v1 should charge")
	}
	if out, _ := s.Admit(v2, base); out != AdmitQueued {
		t.Fatal("v2 should queue")
	}
	if out, _ := s.Admit(v3, base); out != AdmitQueued {
		t.Fatal("v3 should queue")
	}

	// Before the charge elapses nothing happens.
	done, err := s.Tick(base.Add(5 * time.Minute))
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if len(done) != 0 {
		t.Fatalf("expected no completions got %d", len(done))
	}

	now := base.Add(10 * time.Minute)
	done, err = s.Tick(now)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if len(done) != 1 || done[0].ID != 1 {
		t.Fatalf("expected v1 completed, got %v", done)
	}
	if v1.Status != model.StatusCompleted || v1.Level != 100 {
		t.Fatalf("completion must force level to target: %s %v", v1.Status, v1.Level)
	}
	// v2 was the queue head and must be promoted with a fresh end time.
	if v2.Status != model.StatusCharging {
		t.Fatalf("expected v2 charging got %s", v2.Status)
	}
	if !v2.ChargingEnd.Equal(now.Add(10 * time.Minute)) {
		t.Fatalf("promoted vehicle must restart from now, end=%v", v2.ChargingEnd)
	}
	if v3.Status != model.StatusWaiting {
		t.Fatalf("expected v3 still waiting got %s", v3.Status)
	}
}

func TestEstimatedWait(t *testing.T) {
	s, err := New(1, 2, 5)
	if err != nil {
		t.Fatalf("new station: %v", err)
	}
	v1 := newVehicle(t, 1, 30)
	if _, err := s.Admit(v1, base); err != nil {
		t.Fatalf("admit: %v", err)
	}
	// One free slot left: estimated wait is zero.
	if got := s.EstimatedWait(base); got != 0 {
		t.Fatalf("expected 0 got %v", got)
	}
	v2 := newVehicle(t, 2, 10)
	if _, err := s.Admit(v2, base); err != nil {
		t.Fatalf("admit: %v", err)
	}
	// Both slots busy: mean of 30m and 10m remaining.
	if got := s.EstimatedWait(base); got != 20*time.Minute {
		t.Fatalf("expected 20m got %v", got)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	s, err := New(7, 2, 5)
	if err != nil {
		t.Fatalf("new station: %v", err)
	}
	if _, err := s.Admit(newVehicle(t, 1, 30), base); err != nil {
		t.Fatalf("admit: %v", err)
	}
	snap := s.Snapshot(base)
	if snap.ID != 7 || len(snap.Charging) != 1 || len(snap.Waiting) != 0 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if snap.UtilizationPct != 50 {
		t.Fatalf("expected 50%% utilization got %v", snap.UtilizationPct)
	}
	snap.Charging[0].Level = 99
	if got := s.Vehicles()[0].CurrentLevel(base); got == 99 {
		t.Fatal("snapshot mutation leaked into station")
	}
}

func TestUtilizationAndPower(t *testing.T) {
	s, err := New(1, 4, 5)
	if err != nil {
		t.Fatalf("new station: %v", err)
	}
	if _, err := s.Admit(newVehicle(t, 1, 60), base); err != nil {
		t.Fatalf("admit: %v", err)
	}
	if _, err := s.Admit(newVehicle(t, 2, 60), base); err != nil {
		t.Fatalf("admit: %v", err)
	}
	if got := s.UtilizationPct(); got != 50 {
		t.Fatalf("expected 50 got %v", got)
	}
	if got := s.PowerKW(); got != 120 {
		t.Fatalf("expected 120 kW got %v", got)
	}
}
