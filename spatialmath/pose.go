// Package spatialmath provides planar pose and twist math for field-relative
// robot tracking.
package spatialmath

import (
	"math"

	"github.com/golang/geo/r2"
)

// A Twist is an instantaneous incremental robot-frame motion over one
// odometry step.
type Twist struct {
	Dx     float64 // meters, robot forward
	Dy     float64 // meters, robot left
	Dtheta float64 // radians, counterclockwise
}

// A Pose is a field-frame position and heading.
type Pose struct {
	Translation r2.Point
	Theta       float64 // radians
}

// NewPose returns a pose at (x, y) meters with the given heading in radians.
func NewPose(x, y, theta float64) Pose {
	return Pose{Translation: r2.Point{X: x, Y: y}, Theta: theta}
}

// Exp integrates a twist onto the pose assuming constant curvature over the
// step. For small rotations the sin/cos ratios are replaced by their series
// expansions to avoid dividing by a near-zero angle.
func (p Pose) Exp(tw Twist) Pose {
	var s, c float64
	if math.Abs(tw.Dtheta) < 1e-9 {
		s = 1.0 - tw.Dtheta*tw.Dtheta/6.0
		c = 0.5 * tw.Dtheta
	} else {
		s = math.Sin(tw.Dtheta) / tw.Dtheta
		c = (1.0 - math.Cos(tw.Dtheta)) / tw.Dtheta
	}

	// Step in the frame the robot started the step in, then rotate into the
	// field frame.
	dx := tw.Dx*s - tw.Dy*c
	dy := tw.Dx*c + tw.Dy*s
	sinP := math.Sin(p.Theta)
	cosP := math.Cos(p.Theta)

	return Pose{
		Translation: r2.Point{
			X: p.Translation.X + dx*cosP - dy*sinP,
			Y: p.Translation.Y + dx*sinP + dy*cosP,
		},
		Theta: p.Theta + tw.Dtheta,
	}
}

// DistanceFrom returns the planar distance in meters between two poses.
func (p Pose) DistanceFrom(other Pose) float64 {
	return p.Translation.Sub(other.Translation).Norm()
}

// NormalizeAngle wraps an angle in radians to (-pi, pi].
func NormalizeAngle(theta float64) float64 {
	theta = math.Mod(theta, 2*math.Pi)
	switch {
	case theta > math.Pi:
		theta -= 2 * math.Pi
	case theta <= -math.Pi:
		theta += 2 * math.Pi
	}
	return theta
}
