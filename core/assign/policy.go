package assign

import (
	"sort"
	"time"

	"github.com/chargesim/chargesim/core/station"
)

// Policy chooses which station receives a newly arrived vehicle.
type Policy interface {
	Pick(stations []*station.Station, now time.Time) (*station.Station, bool)
}

// LeastLoad is a greedy, stateless-per-decision heuristic. Stations with a
// full waiting queue are ineligible even when a slot is free. Eligible
// stations are ranked by ascending total load, then ascending estimated wait,
// then ascending station id as a deterministic tie-break. There is no
// lookahead and no rebalancing of already-queued vehicles.
type LeastLoad struct{}

// Pick returns the best eligible station, or false when every queue is full.
func (LeastLoad) Pick(stations []*station.Station, now time.Time) (*station.Station, bool) {
	eligible := make([]*station.Station, 0, len(stations))
	for _, s := range stations {
		if !s.QueueFull() {
			eligible = append(eligible, s)
		}
	}
	if len(eligible) == 0 {
		return nil, false
	}
	sort.Slice(eligible, func(i, j int) bool {
		a, b := eligible[i], eligible[j]
		if a.Load() != b.Load() {
			return a.Load() < b.Load()
		}
		wa, wb := a.EstimatedWait(now), b.EstimatedWait(now)
		if wa != wb {
			return wa < wb
		}
		return a.ID < b.ID
	})
	return eligible[0], true
}
