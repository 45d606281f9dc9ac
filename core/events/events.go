// Package events defines the notifications the simulation driver publishes to
// consumers. Every payload is a copy; consumers must treat them as read-only.
package events

import (
	"time"

	"github.com/chargesim/chargesim/core/model"
	"github.com/chargesim/chargesim/core/station"
	"github.com/chargesim/chargesim/core/stats"
)

// VehicleEventKind classifies a per-occurrence vehicle event.
type VehicleEventKind int

const (
	VehicleArrived VehicleEventKind = iota
	VehicleRejected
	VehicleCompleted
)

// String returns a human-readable representation of the kind.
func (k VehicleEventKind) String() string {
	switch k {
	case VehicleArrived:
		return "arrived"
	case VehicleRejected:
		return "rejected"
	case VehicleCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// StationsUpdated is the batched station snapshot emitted at batch boundaries.
type StationsUpdated struct {
	RunID    string             `json:"run_id"`
	Time     time.Time          `json:"time"`
	Tick     int64              `json:"tick"`
	Stations []station.Snapshot `json:"stations"`
}

// StatisticsUpdated is the batched statistics snapshot.
type StatisticsUpdated struct {
	RunID string           `json:"run_id"`
	Stats stats.Statistics `json:"stats"`
}

// ClockUpdated carries the current virtual time.
type ClockUpdated struct {
	RunID string    `json:"run_id"`
	Time  time.Time `json:"time"`
	Tick  int64     `json:"tick"`
}

// VehicleEvent is emitted once per arrival, rejection and completion.
// StationID is -1 for rejections that no station accepted.
type VehicleEvent struct {
	RunID       string                `json:"run_id"`
	Kind        VehicleEventKind      `json:"-"`
	KindName    string                `json:"kind"`
	Vehicle     model.VehicleSnapshot `json:"vehicle"`
	StationID   int                   `json:"station_id"`
	Description string                `json:"description"`
	Time        time.Time             `json:"time"`
}
