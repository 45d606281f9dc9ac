package station

import (
	"fmt"
	"time"

	"github.com/chargesim/chargesim/core/model"
)

// AdmitOutcome is the result of offering a vehicle to a station.
type AdmitOutcome int

const (
	AdmitCharging AdmitOutcome = iota
	AdmitQueued
	AdmitRejected
)

// String returns a human-readable representation of the outcome.
func (o AdmitOutcome) String() string {
	switch o {
	case AdmitCharging:
		return "charging"
	case AdmitQueued:
		return "queued"
	case AdmitRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Station owns a bounded set of charging slots and a bounded FIFO waiting
// queue. It is not safe for concurrent use: the simulation driver is the
// single writer and serializes all access.
type Station struct {
	ID           int
	Capacity     int
	MaxQueueSize int

	charging []*model.Vehicle
	waiting  []*model.Vehicle
}

// New creates an empty station.
func New(id, capacity, maxQueueSize int) (*Station, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("station %d: capacity must be positive, got %d", id, capacity)
	}
	if maxQueueSize < 0 {
		return nil, fmt.Errorf("station %d: max queue size must not be negative, got %d", id, maxQueueSize)
	}
	return &Station{ID: id, Capacity: capacity, MaxQueueSize: maxQueueSize}, nil
}

// Admit places an arriving vehicle: into a free slot, else into the waiting
// queue, else it is rejected. The vehicle status is transitioned accordingly.
func (s *Station) Admit(v *model.Vehicle, now time.Time) (AdmitOutcome, error) {
	if s.FreeSlots() > 0 {
		if err := v.StartCharging(now); err != nil {
			return AdmitRejected, err
		}
		s.charging = append(s.charging, v)
		return AdmitCharging, nil
	}
	if len(s.waiting) < s.MaxQueueSize {
		s.waiting = append(s.waiting, v)
		return AdmitQueued, nil
	}
	if err := v.Reject(); err != nil {
		return AdmitRejected, err
	}
	return AdmitRejected, nil
}

// Tick reclaims slots from vehicles whose charge time has elapsed and promotes
// waiting vehicles in FIFO order. It returns the vehicles completed this tick.
func (s *Station) Tick(now time.Time) ([]*model.Vehicle, error) {
	var completed []*model.Vehicle
	kept := s.charging[:0]
	for _, v := range s.charging {
		if !now.Before(v.ChargingEnd) {
			if err := v.Complete(); err != nil {
				return nil, err
			}
			completed = append(completed, v)
			continue
		}
		kept = append(kept, v)
	}
	s.charging = kept

	for s.FreeSlots() > 0 && len(s.waiting) > 0 {
		head := s.waiting[0]
		s.waiting = s.waiting[1:]
		// The charge duration restarts from now, not from the arrival time.
		if err := head.StartCharging(now); err != nil {
			return nil, err
		}
		s.charging = append(s.charging, head)
	}
	return completed, nil
}

// FreeSlots returns the number of unoccupied charging slots.
func (s *Station) FreeSlots() int { return s.Capacity - len(s.charging) }

// ChargingCount returns the number of occupied slots.
func (s *Station) ChargingCount() int { return len(s.charging) }

// WaitingCount returns the length of the waiting queue.
func (s *Station) WaitingCount() int { return len(s.waiting) }

// Load returns the total number of vehicles at the station.
func (s *Station) Load() int { return len(s.charging) + len(s.waiting) }

// QueueFull reports whether the waiting queue is at its bound.
func (s *Station) QueueFull() bool { return len(s.waiting) >= s.MaxQueueSize }

// EstimatedWait returns the mean remaining charge time across occupied slots
// when no slot is free, zero otherwise.
func (s *Station) EstimatedWait(now time.Time) time.Duration {
	if s.FreeSlots() > 0 || len(s.charging) == 0 {
		return 0
	}
	var total time.Duration
	for _, v := range s.charging {
		total += v.RemainingCharge(now)
	}
	return total / time.Duration(len(s.charging))
}

// UtilizationPct returns the fraction of occupied slots as a percentage.
func (s *Station) UtilizationPct() float64 {
	return float64(len(s.charging)) / float64(s.Capacity) * 100
}

// PowerKW returns the total nominal power drawn by charging vehicles.
func (s *Station) PowerKW() float64 {
	var total float64
	for _, v := range s.charging {
		total += v.PowerKW
	}
	return total
}

// Vehicles returns the vehicles currently owned by the station, chargers
// first then the waiting queue in FIFO order. The returned slice is a copy
// but the pointers reference live vehicles; only the driver may use it.
func (s *Station) Vehicles() []*model.Vehicle {
	out := make([]*model.Vehicle, 0, len(s.charging)+len(s.waiting))
	out = append(out, s.charging...)
	out = append(out, s.waiting...)
	return out
}

// Snapshot copies the station state as observed at the given time.
func (s *Station) Snapshot(now time.Time) Snapshot {
	snap := Snapshot{
		ID:             s.ID,
		Capacity:       s.Capacity,
		MaxQueueSize:   s.MaxQueueSize,
		UtilizationPct: s.UtilizationPct(),
		PowerKW:        s.PowerKW(),
		EstimatedWait:  s.EstimatedWait(now),
		Charging:       make([]model.VehicleSnapshot, 0, len(s.charging)),
		Waiting:        make([]model.VehicleSnapshot, 0, len(s.waiting)),
	}
	for _, v := range s.charging {
		snap.Charging = append(snap.Charging, v.Snapshot(now))
	}
	for _, v := range s.waiting {
		snap.Waiting = append(snap.Waiting, v.Snapshot(now))
	}
	return snap
}

// Snapshot is an immutable copy of a station handed out to consumers.
type Snapshot struct {
	ID             int                     `json:"id"`
	Capacity       int                     `json:"capacity"`
	MaxQueueSize   int                     `json:"max_queue_size"`
	UtilizationPct float64                 `json:"utilization_pct"`
	PowerKW        float64                 `json:"power_kw"`
	EstimatedWait  time.Duration           `json:"estimated_wait_ns"`
	Charging       []model.VehicleSnapshot `json:"charging"`
	Waiting        []model.VehicleSnapshot `json:"waiting"`
}
