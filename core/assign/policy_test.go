package assign

import (
	"testing"
	"time"

	"github.com/chargesim/chargesim/core/model"
	"github.com/chargesim/chargesim/core/station"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newStation(t *testing.T, id, capacity, maxQueue int) *station.Station {
	t.Helper()
	s, err := station.New(id, capacity, maxQueue)
	if err != nil {
		t.Fatalf("new station: %v", err)
	}
	return s
}

// fill admits n vehicles charging for the given number of minutes each.
func fill(t *testing.T, s *station.Station, n int, minutes float64) {
	t.Helper()
	for i := 0; i < n; i++ {
		v, err := model.NewVehicle(int64(s.ID*100+i), model.ClassCar, 60, 0, 100, 60*60/minutes, base)
		if err != nil {
			t.Fatalf("new vehicle: %v", err)
		}
		if _, err := s.Admit(v, base); err != nil {
			t.Fatalf("admit: %v", err)
		}
	}
}

func TestPickLeastLoaded(t *testing.T) {
	s1 := newStation(t, 1, 4, 5)
	s2 := newStation(t, 2, 4, 5)
	fill(t, s1, 3, 30)
	fill(t, s2, 1, 30)
	got, ok := LeastLoad{}.Pick([]*station.Station{s1, s2}, base)
	if !ok || got.ID != 2 {
		t.Fatalf("expected station 2, got %v ok=%v", got, ok)
	}
}

func TestPickEstimatedWaitTieBreak(t *testing.T) {
	// Same load, both saturated: the shorter mean remaining charge wins.
	s1 := newStation(t, 1, 2, 5)
	s2 := newStation(t, 2, 2, 5)
	fill(t, s1, 2, 50)
	fill(t, s2, 2, 10)
	got, ok := LeastLoad{}.Pick([]*station.Station{s1, s2}, base)
	if !ok || got.ID != 2 {
		t.Fatalf("expected station 2, got %v ok=%v", got, ok)
	}
}

func TestPickStationIDTieBreak(t *testing.T) {
	s2 := newStation(t, 2, 2, 5)
	s1 := newStation(t, 1, 2, 5)
	got, ok := LeastLoad{}.Pick([]*station.Station{s2, s1}, base)
	if !ok || got.ID != 1 {
		t.Fatalf("expected station 1, got %v ok=%v", got, ok)
	}
}

func TestPickSkipsFullQueues(t *testing.T) {
	// Station 1 has MaxQueueSize=0, so its queue is always full and the
	// station is ineligible despite the lower total load.
	s1 := newStation(t, 1, 1, 0)
	fill(t, s1, 1, 30)
	s2 := newStation(t, 2, 1, 2)
	fill(t, s2, 1, 30)
	fill(t, s2, 1, 30) // queued
	got, ok := LeastLoad{}.Pick([]*station.Station{s1, s2}, base)
	if !ok || got.ID != 2 {
		t.Fatalf("expected station 2, got %v ok=%v", got, ok)
	}
}

func TestPickNoEligibleStation(t *testing.T) {
	s1 := newStation(t, 1, 1, 0)
	fill(t, s1, 1, 30)
	if _, ok := (LeastLoad{}.Pick([]*station.Station{s1}, base)); ok {
		t.Fatal("expected no eligible station")
	}
}
