// Package swerve maintains a swerve drivetrain's field position from
// high-frequency encoder and gyro samples.
package swerve

import (
	"time"

	"github.com/edaniels/golog"

	"github.com/SCool62/Crescendo/spatialmath"
)

// A PoseSink receives time-ordered odometry updates from the reconciler.
// Implementations own latency compensation and vision blending; the
// reconciler only promises that calls arrive in batch order with absolute
// yaw and absolute per-module positions.
type PoseSink interface {
	ApplyOdometry(t time.Time, yawRads float64, positions []ModulePosition)
}

// OutcomeKind classifies what the reconciler did with one sample. Every
// sample in a batch gets exactly one classification.
type OutcomeKind uint8

const (
	// OutcomeFull means all modules were present and a translation and
	// rotation update was applied.
	OutcomeFull OutcomeKind = iota
	// OutcomeRotationOnly means at least one module channel was missing but
	// the gyro was available, so only heading was refreshed.
	OutcomeRotationOnly
	// OutcomeDropped means neither a complete module set nor a gyro reading
	// was available and the sample was discarded.
	OutcomeDropped
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeFull:
		return "full"
	case OutcomeRotationOnly:
		return "rotation_only"
	case OutcomeDropped:
		return "dropped"
	default:
		return "unknown"
	}
}

// An Outcome is the diagnostics record for one reconciled sample.
type Outcome struct {
	Time           time.Time
	Kind           OutcomeKind
	MissingModules []int // module indexes with an absent channel, nil when complete
	GyroUsed       bool
	// Twist is the applied incremental motion. Zero for rotation-only and
	// dropped samples.
	Twist   spatialmath.Twist
	YawRads float64 // rotation accumulator after this sample
}

// A Reconciler turns batches of partially-complete signal samples into
// ordered pose updates. It owns the per-module last-known position cache and
// the rotation accumulator, and must only be called from the single control
// loop goroutine.
type Reconciler struct {
	kin    *Kinematics
	sink   PoseSink
	logger golog.Logger

	last        []ModulePosition
	lastEmitted []ModulePosition // positions as of the last sink call
	yawRads     float64
	lastGyroYaw float64
}

// NewReconciler returns a reconciler with a zeroed module cache and identity
// heading.
func NewReconciler(kin *Kinematics, sink PoseSink, logger golog.Logger) *Reconciler {
	return &Reconciler{
		kin:         kin,
		sink:        sink,
		logger:      logger,
		last:        make([]ModulePosition, kin.NumModules()),
		lastEmitted: make([]ModulePosition, kin.NumModules()),
	}
}

// Yaw returns the current rotation accumulator in radians.
func (r *Reconciler) Yaw() float64 {
	return r.yawRads
}

// ModulePositions returns a copy of the last-known per-module positions.
func (r *Reconciler) ModulePositions() []ModulePosition {
	return append([]ModulePosition{}, r.last...)
}

// Reconcile processes a time-ordered batch of samples, applying pose updates
// to the sink and refreshing the module cache. gyroConnected reports whether
// the gyro hardware is currently attached; a connected gyro can still miss
// individual samples. Missing channels never abort the batch. An empty batch
// is a legal no-op. The returned slice classifies every sample in order.
func (r *Reconciler) Reconcile(batch []Sample, gyroConnected bool) []Outcome {
	outcomes := make([]Outcome, 0, len(batch))
	for _, sample := range batch {
		outcomes = append(outcomes, r.reconcileOne(sample, gyroConnected))
	}
	return outcomes
}

func (r *Reconciler) reconcileOne(sample Sample, gyroConnected bool) Outcome {
	n := r.kin.NumModules()
	positions := make([]ModulePosition, n)
	deltas := make([]ModuleDelta, n)
	var missing []int
	for i := 0; i < n; i++ {
		dist, distOK := sample.Value(SignalID{Type: SignalDriveDistance, Module: i})
		angle, angleOK := sample.Value(SignalID{Type: SignalSteerAngle, Module: i})
		if !distOK || !angleOK {
			missing = append(missing, i)
			// Keep the cached position so the next complete sample's delta is
			// computed against the last real observation.
			positions[i] = r.last[i]
			continue
		}
		positions[i] = ModulePosition{DistanceMeters: dist, AngleRads: angle}
		deltas[i] = ModuleDelta{DistanceMeters: dist - r.last[i].DistanceMeters, AngleRads: angle}
		r.last[i] = positions[i]
	}

	gyroYaw, gyroOK := sample.Value(GyroYawID)
	gyroOK = gyroOK && gyroConnected

	outcome := Outcome{Time: sample.Time, MissingModules: missing, GyroUsed: gyroOK}

	if len(missing) > 0 {
		if !gyroOK {
			// Nothing trustworthy in this sample; the pose estimate free-runs.
			outcome.Kind = OutcomeDropped
			outcome.YawRads = r.yawRads
			r.logger.Debugw("dropped odometry sample", "time", sample.Time, "missing_modules", missing)
			return outcome
		}
		// Keep heading tracking alive through the dropout without fabricating
		// translation. Re-emitting the last emitted positions guarantees the
		// sink sees zero wheel deltas for this update.
		r.yawRads = gyroYaw
		r.lastGyroYaw = gyroYaw
		r.sink.ApplyOdometry(sample.Time, r.yawRads, append([]ModulePosition{}, r.lastEmitted...))
		outcome.Kind = OutcomeRotationOnly
		outcome.YawRads = r.yawRads
		return outcome
	}

	tw, err := r.kin.ToTwist(deltas)
	if err != nil {
		// Only reachable with a degenerate module layout.
		r.logger.Errorw("kinematic transform failed, dropping sample", "error", err)
		outcome.Kind = OutcomeDropped
		outcome.YawRads = r.yawRads
		return outcome
	}

	if gyroOK {
		// The gyro's absolute reading wins over wheel-integrated heading.
		tw.Dtheta = spatialmath.NormalizeAngle(gyroYaw - r.lastGyroYaw)
		r.yawRads = gyroYaw
		r.lastGyroYaw = gyroYaw
	} else {
		r.yawRads += tw.Dtheta
	}

	copy(r.lastEmitted, positions)
	r.sink.ApplyOdometry(sample.Time, r.yawRads, positions)
	outcome.Kind = OutcomeFull
	outcome.Twist = tw
	outcome.YawRads = r.yawRads
	return outcome
}
