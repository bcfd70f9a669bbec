package swerve

import "time"

// SignalType enumerates the raw odometry channels produced by the
// high-frequency sampler.
type SignalType uint8

// The supported channel kinds.
const (
	SignalDriveDistance SignalType = iota // cumulative wheel travel, meters
	SignalSteerAngle                      // absolute azimuth angle, radians
	SignalGyroYaw                         // absolute gyro yaw, radians
)

// GyroModule is the module index sentinel used for the single gyro channel.
const GyroModule = -1

// A SignalID identifies one channel within a sample. Keys are unique per
// sample.
type SignalID struct {
	Type   SignalType
	Module int
}

// GyroYawID is the signal key for the gyro channel.
var GyroYawID = SignalID{Type: SignalGyroYaw, Module: GyroModule}

// A Sample is an immutable timestamped record of raw channel readings. A
// channel that could not be read at the sample time is simply absent from
// Values; absence is an expected operating condition, not an error.
type Sample struct {
	Time   time.Time
	Values map[SignalID]float64
}

// Value looks up a channel reading, reporting whether it was present.
func (s Sample) Value(id SignalID) (float64, bool) {
	v, ok := s.Values[id]
	return v, ok
}

// A ModulePosition is the cumulative distance traveled and absolute steer
// angle of one module, the reconciler's last-known state per module.
type ModulePosition struct {
	DistanceMeters float64
	AngleRads      float64
}

// A ModuleDelta is the distance change since the previous reconciled sample
// paired with the current absolute steer angle. Deltas are transient and
// never persisted.
type ModuleDelta struct {
	DistanceMeters float64
	AngleRads      float64
}
