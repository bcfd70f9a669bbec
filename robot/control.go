// Package robot wires the odometry sampler, reconciler, pose estimator and
// aiming table into the control loop.
package robot

import (
	"time"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"github.com/SCool62/Crescendo/autoaim"
	"github.com/SCool62/Crescendo/estimate"
	"github.com/SCool62/Crescendo/swerve"
)

// droppedSampleWarnThreshold is how many consecutive dropped samples count
// as sustained sensor loss worth surfacing beyond per-sample diagnostics.
const droppedSampleWarnThreshold = 50

// A ControlLoop drains the high-rate sampler once per cycle, reconciles the
// batch into the pose estimate, and refreshes the aiming state from the
// robot's distance to target. It must be ticked from a single goroutine.
type ControlLoop struct {
	sampler    *swerve.Sampler
	reconciler *swerve.Reconciler
	estimator  *estimate.Estimator
	table      *autoaim.Table[autoaim.ShotData]
	target     r2.Point
	logger     golog.Logger

	aim                autoaim.AimState
	consecutiveDropped int
}

// NewControlLoop assembles the loop. The target is the field-frame point
// shots are ranged against.
func NewControlLoop(
	sampler *swerve.Sampler,
	reconciler *swerve.Reconciler,
	estimator *estimate.Estimator,
	table *autoaim.Table[autoaim.ShotData],
	target r2.Point,
	logger golog.Logger,
) (*ControlLoop, error) {
	// An empty table is a setup error; fail here once rather than every cycle.
	if _, err := table.Lookup(0); err != nil {
		return nil, errors.Wrap(err, "aiming table unusable")
	}
	return &ControlLoop{
		sampler:    sampler,
		reconciler: reconciler,
		estimator:  estimator,
		table:      table,
		target:     target,
		logger:     logger,
	}, nil
}

// Tick runs one control cycle and returns the per-sample reconciliation
// outcomes for telemetry.
func (c *ControlLoop) Tick(now time.Time) ([]swerve.Outcome, error) {
	batch := c.sampler.Drain()
	outcomes := c.reconciler.Reconcile(batch, c.sampler.GyroConnected())

	for _, o := range outcomes {
		if o.Kind == swerve.OutcomeDropped {
			c.consecutiveDropped++
		} else {
			c.consecutiveDropped = 0
		}
	}
	if c.consecutiveDropped >= droppedSampleWarnThreshold {
		c.logger.Warnw("pose estimate free-running on stale data",
			"consecutive_dropped", c.consecutiveDropped)
	}

	pose := c.estimator.Pose()
	distance := pose.Translation.Sub(c.target).Norm()
	if err := c.aim.Update(c.table, distance, now); err != nil {
		return outcomes, err
	}
	return outcomes, nil
}

// AimState returns the loop-owned aiming context. The reference stays valid
// between ticks; consumers read it, only Tick writes it.
func (c *ControlLoop) AimState() *autoaim.AimState {
	return &c.aim
}

// DistanceToTarget returns the current planar range to the target in meters.
func (c *ControlLoop) DistanceToTarget() float64 {
	pose := c.estimator.Pose()
	return pose.Translation.Sub(c.target).Norm()
}
