package autoaim

import (
	"time"
)

// AimState is the shared aiming context for one control cycle. It has a
// single owner, the control loop, which updates it once per cycle and hands
// it to consumers by reference; consumers must not retain it across cycles
// or mutate it.
type AimState struct {
	Shot           ShotData
	DistanceMeters float64
	UpdatedAt      time.Time
}

// Update refreshes the state from the table for the measured distance.
func (s *AimState) Update(table *Table[ShotData], distanceMeters float64, at time.Time) error {
	shot, err := table.Lookup(distanceMeters)
	if err != nil {
		return err
	}
	s.Shot = shot
	s.DistanceMeters = distanceMeters
	s.UpdatedAt = at
	return nil
}
