package model

import "time"

// VehicleSnapshot is an immutable copy of a vehicle handed out to consumers.
type VehicleSnapshot struct {
	ID            int64         `json:"id"`
	DisplayID     string        `json:"display_id"`
	Class         string        `json:"class"`
	Status        string        `json:"status"`
	CapacityKWh   float64       `json:"capacity_kwh"`
	Level         float64       `json:"level"`
	TargetLevel   float64       `json:"target_level"`
	PowerKW       float64       `json:"power_kw"`
	EnergyKWh     float64       `json:"energy_kwh"`
	ArrivedAt     time.Time     `json:"arrived_at"`
	ChargingStart time.Time     `json:"charging_start,omitempty"`
	ChargingEnd   time.Time     `json:"charging_end,omitempty"`
	Remaining     time.Duration `json:"remaining_ns,omitempty"`
}

// Snapshot copies the vehicle state as observed at the given time.
func (v *Vehicle) Snapshot(now time.Time) VehicleSnapshot {
	return VehicleSnapshot{
		ID:            v.ID,
		DisplayID:     v.DisplayID(),
		Class:         v.Class.String(),
		Status:        v.Status.String(),
		CapacityKWh:   v.CapacityKWh,
		Level:         v.CurrentLevel(now),
		TargetLevel:   v.TargetLevel,
		PowerKW:       v.PowerKW,
		EnergyKWh:     v.EnergyDelivered(now),
		ArrivedAt:     v.ArrivedAt,
		ChargingStart: v.ChargingStart,
		ChargingEnd:   v.ChargingEnd,
		Remaining:     v.RemainingCharge(now),
	}
}
