package model

import (
	"fmt"
	"time"
)

// VehicleClass identifies the kind of electric vehicle.
type VehicleClass int

const (
	ClassCar VehicleClass = iota
	ClassTruck
	ClassBus
)

// Classes lists all vehicle classes in a stable order.
var Classes = []VehicleClass{ClassCar, ClassTruck, ClassBus}

// String returns a human-readable representation of the vehicle class.
func (c VehicleClass) String() string {
	switch c {
	case ClassCar:
		return "Car"
	case ClassTruck:
		return "Truck"
	case ClassBus:
		return "Bus"
	default:
		return "unknown"
	}
}

// VehicleStatus is the lifecycle state of a vehicle. Transitions are strictly
// one-way: Waiting -> Charging -> Completed, or Waiting -> Rejected.
type VehicleStatus int

const (
	StatusWaiting VehicleStatus = iota
	StatusCharging
	StatusCompleted
	StatusRejected
)

// String returns a human-readable representation of the status.
func (s VehicleStatus) String() string {
	switch s {
	case StatusWaiting:
		return "Waiting"
	case StatusCharging:
		return "Charging"
	case StatusCompleted:
		return "Completed"
	case StatusRejected:
		return "Rejected"
	default:
		return "unknown"
	}
}

// Vehicle represents an electric vehicle passing through the facility.
type Vehicle struct {
	ID          int64
	Class       VehicleClass
	CapacityKWh float64 // battery capacity
	Level       float64 // state of charge in percent at arrival, forced to TargetLevel on completion
	TargetLevel float64 // requested state of charge in percent
	PowerKW     float64 // nominal charging power

	ArrivedAt     time.Time
	ChargingStart time.Time // zero until charging begins
	ChargingEnd   time.Time // zero until charging begins
	Status        VehicleStatus

	duration   time.Duration // charge duration, computed once at creation
	startLevel float64       // level at arrival, base of the charging curve
}

// NewVehicle creates a vehicle in the Waiting state. The charge duration is
// derived once from the energy needed and the nominal power.
func NewVehicle(id int64, class VehicleClass, capacityKWh, level, targetLevel, powerKW float64, arrivedAt time.Time) (*Vehicle, error) {
	if capacityKWh <= 0 {
		return nil, fmt.Errorf("vehicle %d: capacity must be positive, got %v", id, capacityKWh)
	}
	if powerKW <= 0 {
		return nil, fmt.Errorf("vehicle %d: power must be positive, got %v", id, powerKW)
	}
	if level < 0 || level > 100 || targetLevel < 0 || targetLevel > 100 {
		return nil, fmt.Errorf("vehicle %d: levels must be within [0,100], got %v and %v", id, level, targetLevel)
	}
	if targetLevel <= level {
		return nil, fmt.Errorf("vehicle %d: target level %v must exceed current level %v", id, targetLevel, level)
	}
	energyKWh := capacityKWh * (targetLevel - level) / 100
	minutes := energyKWh / powerKW * 60
	return &Vehicle{
		ID:          id,
		Class:       class,
		CapacityKWh: capacityKWh,
		Level:       level,
		TargetLevel: targetLevel,
		PowerKW:     powerKW,
		ArrivedAt:   arrivedAt,
		Status:      StatusWaiting,
		duration:    time.Duration(minutes * float64(time.Minute)),
		startLevel:  level,
	}, nil
}

// DisplayID formats the sequential id for human consumption.
func (v *Vehicle) DisplayID() string { return fmt.Sprintf("EV-%04d", v.ID) }

// ChargeDuration returns the duration computed at creation. It does not change
// when a vehicle is dequeued after waiting.
func (v *Vehicle) ChargeDuration() time.Duration { return v.duration }

// StartCharging transitions the vehicle from Waiting to Charging. The end time
// is always now plus the charge duration, even for vehicles that waited.
func (v *Vehicle) StartCharging(now time.Time) error {
	if v.Status != StatusWaiting {
		return fmt.Errorf("vehicle %s: cannot start charging from %s", v.DisplayID(), v.Status)
	}
	v.Status = StatusCharging
	v.ChargingStart = now
	v.ChargingEnd = now.Add(v.duration)
	return nil
}

// Complete transitions the vehicle from Charging to Completed and forces the
// level to the target, bypassing float rounding from the charging curve.
func (v *Vehicle) Complete() error {
	if v.Status != StatusCharging {
		return fmt.Errorf("vehicle %s: cannot complete from %s", v.DisplayID(), v.Status)
	}
	v.Status = StatusCompleted
	v.Level = v.TargetLevel
	return nil
}

// Reject transitions the vehicle from Waiting to Rejected. Rejected is
// terminal, the vehicle never charges.
func (v *Vehicle) Reject() error {
	if v.Status != StatusWaiting {
		return fmt.Errorf("vehicle %s: cannot reject from %s", v.DisplayID(), v.Status)
	}
	v.Status = StatusRejected
	return nil
}

// CurrentLevel returns the state of charge in percent at the given time.
// While charging the level follows the charging curve; outside the Charging
// state the stored level is returned unchanged.
func (v *Vehicle) CurrentLevel(now time.Time) float64 {
	if v.Status != StatusCharging {
		return v.Level
	}
	return LevelAt(v.startLevel, v.TargetLevel, v.elapsedFraction(now))
}

// EnergyDelivered returns the energy in kWh delivered so far. A completed
// vehicle reports the full requested energy.
func (v *Vehicle) EnergyDelivered(now time.Time) float64 {
	switch v.Status {
	case StatusCompleted:
		return v.CapacityKWh * (v.TargetLevel - v.startLevel) / 100
	case StatusCharging:
		return EnergyAt(v.CapacityKWh, v.startLevel, v.TargetLevel, v.elapsedFraction(now))
	default:
		return 0
	}
}

// RemainingCharge returns the time left until the charge ends, zero when the
// vehicle is not charging or the end time has passed.
func (v *Vehicle) RemainingCharge(now time.Time) time.Duration {
	if v.Status != StatusCharging || !now.Before(v.ChargingEnd) {
		return 0
	}
	return v.ChargingEnd.Sub(now)
}

// WaitDuration returns how long the vehicle waited before charging started.
func (v *Vehicle) WaitDuration() time.Duration {
	if v.ChargingStart.IsZero() {
		return 0
	}
	return v.ChargingStart.Sub(v.ArrivedAt)
}

func (v *Vehicle) elapsedFraction(now time.Time) float64 {
	if v.duration <= 0 {
		return 1
	}
	x := float64(now.Sub(v.ChargingStart)) / float64(v.duration)
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
