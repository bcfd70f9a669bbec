// Package estimate maintains the robot's field pose from odometry updates
// and intermittent vision corrections.
package estimate

import (
	"math"
	"sync"
	"time"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"github.com/SCool62/Crescendo/spatialmath"
	"github.com/SCool62/Crescendo/swerve"
)

// defaultMaxVisionLatency bounds how stale a vision measurement may be,
// relative to the newest applied odometry update, before it is rejected.
const defaultMaxVisionLatency = 500 * time.Millisecond

// odometryTrustStdDev is the assumed odometry noise per axis used to weight
// vision corrections: x, y in meters, heading in radians. Matches the drive
// team's tuned values.
var odometryTrustStdDev = [3]float64{0.3, 0.3, 0.01}

// An Estimator is the pose container fed by the odometry reconciler and the
// vision pipeline. Odometry is integrated by dead reckoning against the
// estimator's own copy of the last module positions; vision measurements
// nudge the pose with a per-axis gain derived from the reported standard
// deviations. Vision arrives asynchronously, so all state is mutex-guarded.
type Estimator struct {
	mu     sync.Mutex
	kin    *swerve.Kinematics
	logger golog.Logger

	pose          spatialmath.Pose
	lastPositions []swerve.ModulePosition
	havePositions bool
	lastYawRads   float64
	lastUpdate    time.Time

	maxVisionLatency time.Duration
}

// NewEstimator returns an estimator at the origin pose.
func NewEstimator(kin *swerve.Kinematics, logger golog.Logger) *Estimator {
	return &Estimator{
		kin:              kin,
		logger:           logger,
		maxVisionLatency: defaultMaxVisionLatency,
	}
}

// ApplyOdometry integrates one time-ordered odometry update. The first call
// only seeds the reference state.
func (e *Estimator) ApplyOdometry(t time.Time, yawRads float64, positions []swerve.ModulePosition) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.havePositions {
		e.lastPositions = append([]swerve.ModulePosition{}, positions...)
		e.lastYawRads = yawRads
		e.pose.Theta = yawRads
		e.havePositions = true
		e.lastUpdate = t
		return
	}

	deltas := make([]swerve.ModuleDelta, len(positions))
	for i, pos := range positions {
		deltas[i] = swerve.ModuleDelta{
			DistanceMeters: pos.DistanceMeters - e.lastPositions[i].DistanceMeters,
			AngleRads:      pos.AngleRads,
		}
	}
	tw, err := e.kin.ToTwist(deltas)
	if err != nil {
		e.logger.Errorw("skipping odometry update", "error", err)
		return
	}
	// Heading comes from the reconciler's absolute yaw, not wheel integration.
	tw.Dtheta = spatialmath.NormalizeAngle(yawRads - e.lastYawRads)
	e.pose = e.pose.Exp(tw)

	copy(e.lastPositions, positions)
	e.lastYawRads = yawRads
	e.lastUpdate = t
}

// ApplyVisionMeasurement blends an externally computed pose into the
// estimate. stdDevs are the measurement's per-axis uncertainties (x meters,
// y meters, heading radians); larger values pull the estimate less.
// Measurements older than the latency window relative to the newest odometry
// update are rejected.
func (e *Estimator) ApplyVisionMeasurement(pose spatialmath.Pose, t time.Time, stdDevs [3]float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.lastUpdate.IsZero() && e.lastUpdate.Sub(t) > e.maxVisionLatency {
		return errors.Errorf("vision measurement is %v old, rejecting", e.lastUpdate.Sub(t))
	}

	gainX := visionGain(odometryTrustStdDev[0], stdDevs[0])
	gainY := visionGain(odometryTrustStdDev[1], stdDevs[1])
	gainTheta := visionGain(odometryTrustStdDev[2], stdDevs[2])

	e.pose.Translation = r2.Point{
		X: e.pose.Translation.X + gainX*(pose.Translation.X-e.pose.Translation.X),
		Y: e.pose.Translation.Y + gainY*(pose.Translation.Y-e.pose.Translation.Y),
	}
	e.pose.Theta += gainTheta * spatialmath.NormalizeAngle(pose.Theta-e.pose.Theta)
	return nil
}

// Pose returns the current field-frame pose estimate.
func (e *Estimator) Pose() spatialmath.Pose {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pose
}

// Reset forces the estimate to a known pose, keeping the module reference
// state so the next odometry update computes a sane delta.
func (e *Estimator) Reset(pose spatialmath.Pose) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pose = pose
}

// visionGain weights a correction by how confident the measurement is
// relative to odometry drift. A zero-uncertainty measurement replaces the
// axis outright; an uninformative one barely moves it.
func visionGain(odoStd, visionStd float64) float64 {
	if visionStd < 0 || math.IsNaN(visionStd) {
		return 0
	}
	return odoStd / (odoStd + visionStd)
}
