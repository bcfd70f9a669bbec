// Package autoaim turns a measured distance to target into firing parameters
// by interpolating over calibration data.
package autoaim

// ShotData holds the firing parameters for one calibrated distance. The two
// wheel speeds are independent so the shooter can impart spin.
type ShotData struct {
	AngleRads      float64 // hood/pivot angle
	LeftSpeedRPS   float64 // left flywheel, rotations per second
	RightSpeedRPS  float64 // right flywheel, rotations per second
	FlightTimeSecs float64 // expected projectile flight time
}

// Interpolate linearly blends each field toward end at fraction t. Angles
// are treated as plain scalars; calibration data is expected to vary
// smoothly, so shortest-arc handling is deliberately not applied.
func (s ShotData) Interpolate(end ShotData, t float64) ShotData {
	return ShotData{
		AngleRads:      lerp(s.AngleRads, end.AngleRads, t),
		LeftSpeedRPS:   lerp(s.LeftSpeedRPS, end.LeftSpeedRPS, t),
		RightSpeedRPS:  lerp(s.RightSpeedRPS, end.RightSpeedRPS, t),
		FlightTimeSecs: lerp(s.FlightTimeSecs, end.FlightTimeSecs, t),
	}
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
