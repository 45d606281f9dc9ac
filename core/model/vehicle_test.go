package model

import (
	"math"
	"testing"
	"time"
)

func newTestVehicle(t *testing.T) *Vehicle {
	t.Helper()
	// 50 kWh battery, 20% -> 80%, 30 kW: 30 kWh needed / 30 kW = 1h.
	v, err := NewVehicle(1, ClassCar, 50, 20, 80, 30, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("new vehicle: %v", err)
	}
	return v
}

func TestNewVehicleValidation(t *testing.T) {
	base := time.Now()
	cases := []struct {
		name     string
		capacity float64
		level    float64
		target   float64
		power    float64
	}{
		{"zero capacity", 0, 20, 80, 10},
		{"zero power", 50, 20, 80, 0},
		{"target below level", 50, 80, 20, 10},
		{"target equals level", 50, 50, 50, 10},
		{"level out of range", 50, -5, 80, 10},
		{"target out of range", 50, 20, 120, 10},
	}
	for _, c := range cases {
		if _, err := NewVehicle(1, ClassCar, c.capacity, c.level, c.target, c.power, base); err == nil {
			t.Errorf("%s: expected error", c.name)
		}
	}
}

func TestVehicleChargeDuration(t *testing.T) {
	v := newTestVehicle(t)
	if got := v.ChargeDuration(); got != time.Hour {
		t.Fatalf("expected 1h got %v", got)
	}
}

func TestVehicleDisplayID(t *testing.T) {
	v := newTestVehicle(t)
	if got := v.DisplayID(); got != "EV-0001" {
		t.Fatalf("expected EV-0001 got %q", got)
	}
}

func TestVehicleHappyPath(t *testing.T) {
	v := newTestVehicle(t)
	start := v.ArrivedAt.Add(10 * time.Minute)
	if err := v.StartCharging(start); err != nil {
		t.Fatalf("start charging: %v", err)
	}
	if v.Status != StatusCharging {
		t.Fatalf("expected Charging got %s", v.Status)
	}
	if !v.ChargingEnd.Equal(start.Add(time.Hour)) {
		t.Fatalf("wrong end time %v", v.ChargingEnd)
	}
	if got := v.WaitDuration(); got != 10*time.Minute {
		t.Fatalf("expected 10m wait got %v", got)
	}
	if err := v.Complete(); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if v.Level != 80 {
		t.Fatalf("completion must force level to target, got %v", v.Level)
	}
	if got := v.EnergyDelivered(v.ChargingEnd); math.Abs(got-30) > 1e-12 {
		t.Fatalf("expected 30 kWh got %v", got)
	}
}

func TestVehicleLevelMonotonicWhileCharging(t *testing.T) {
	v := newTestVehicle(t)
	start := v.ArrivedAt
	if err := v.StartCharging(start); err != nil {
		t.Fatalf("start charging: %v", err)
	}
	prev := v.CurrentLevel(start)
	for m := 1; m <= 60; m++ {
		lvl := v.CurrentLevel(start.Add(time.Duration(m) * time.Minute))
		if lvl < prev {
			t.Fatalf("level decreased at minute %d: %v < %v", m, lvl, prev)
		}
		if lvl < 20 || lvl > 80 {
			t.Fatalf("level out of bounds at minute %d: %v", m, lvl)
		}
		prev = lvl
	}
	// The curve alone never reaches the target.
	if end := v.CurrentLevel(start.Add(time.Hour)); end >= 80 {
		t.Fatalf("curve should taper below target, got %v", end)
	}
	if err := v.Complete(); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got := v.CurrentLevel(start.Add(2 * time.Hour)); got != 80 {
		t.Fatalf("expected target level after completion, got %v", got)
	}
}

func TestVehicleLevelOutsideCharging(t *testing.T) {
	v := newTestVehicle(t)
	if got := v.CurrentLevel(v.ArrivedAt.Add(time.Hour)); got != 20 {
		t.Fatalf("waiting vehicle level must not change, got %v", got)
	}
	if err := v.Reject(); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if got := v.CurrentLevel(v.ArrivedAt.Add(time.Hour)); got != 20 {
		t.Fatalf("rejected vehicle level must not change, got %v", got)
	}
}

func TestVehicleStateMachineOneWay(t *testing.T) {
	now := time.Now()

	v := newTestVehicle(t)
	if err := v.Complete(); err == nil {
		t.Error("complete from Waiting should fail")
	}
	if err := v.Reject(); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if err := v.StartCharging(now); err == nil {
		t.Error("start from Rejected should fail")
	}
	if err := v.Reject(); err == nil {
		t.Error("reject is terminal")
	}

	v = newTestVehicle(t)
	if err := v.StartCharging(now); err != nil {
		t.Fatalf("start charging: %v", err)
	}
	if err := v.Reject(); err == nil {
		t.Error("reject from Charging should fail")
	}
	if err := v.StartCharging(now); err == nil {
		t.Error("double start should fail")
	}
	if err := v.Complete(); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := v.Complete(); err == nil {
		t.Error("completed is terminal")
	}
}

func TestVehicleSnapshotCopies(t *testing.T) {
	v := newTestVehicle(t)
	now := v.ArrivedAt
	snap := v.Snapshot(now)
	if snap.DisplayID != "EV-0001" || snap.Class != "Car" || snap.Status != "Waiting" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	snap.Level = 99
	if v.Level != 20 {
		t.Fatalf("snapshot mutation leaked into vehicle")
	}
}
