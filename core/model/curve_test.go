package model

import (
	"math"
	"testing"
)

func TestChargeProgressEndpoints(t *testing.T) {
	if got := ChargeProgress(0); got != 0 {
		t.Fatalf("expected 0 got %v", got)
	}
	if got := ChargeProgress(1); math.Abs(got-0.8) > 1e-12 {
		t.Fatalf("expected 0.8 got %v", got)
	}
	// Out-of-range inputs clamp.
	if got := ChargeProgress(-0.5); got != 0 {
		t.Fatalf("expected 0 got %v", got)
	}
	if got := ChargeProgress(2); math.Abs(got-0.8) > 1e-12 {
		t.Fatalf("expected 0.8 got %v", got)
	}
}

func TestChargeProgressMonotonic(t *testing.T) {
	prev := -1.0
	for i := 0; i <= 100; i++ {
		x := float64(i) / 100
		p := ChargeProgress(x)
		if p <= prev && i > 0 {
			t.Fatalf("progress not increasing at x=%v: %v <= %v", x, p, prev)
		}
		prev = p
	}
}

func TestLevelAndEnergyAt(t *testing.T) {
	// Halfway through a 20->80 charge on a 50 kWh battery.
	p := ChargeProgress(0.5)
	wantLevel := 20 + 60*p
	if got := LevelAt(20, 80, 0.5); math.Abs(got-wantLevel) > 1e-12 {
		t.Fatalf("level: expected %v got %v", wantLevel, got)
	}
	wantEnergy := 50 * 0.6 * p
	if got := EnergyAt(50, 20, 80, 0.5); math.Abs(got-wantEnergy) > 1e-12 {
		t.Fatalf("energy: expected %v got %v", wantEnergy, got)
	}
}
