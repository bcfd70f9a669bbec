package swerve

import (
	"math"
	"testing"
	"time"

	"github.com/edaniels/golog"
	"go.viam.com/test"

	"github.com/SCool62/Crescendo/spatialmath"
)

type recordedUpdate struct {
	t         time.Time
	yaw       float64
	positions []ModulePosition
}

type fakeSink struct {
	updates []recordedUpdate
}

func (f *fakeSink) ApplyOdometry(t time.Time, yawRads float64, positions []ModulePosition) {
	f.updates = append(f.updates, recordedUpdate{t: t, yaw: yawRads, positions: positions})
}

func testReconciler(t *testing.T) (*Reconciler, *fakeSink) {
	t.Helper()
	kin := testKinematics(t)
	sink := &fakeSink{}
	return NewReconciler(kin, sink, golog.NewTestLogger(t)), sink
}

// completeSample builds a sample where every module has traveled to dist at
// angle zero.
func completeSample(at time.Time, dist float64) Sample {
	values := map[SignalID]float64{}
	for i := 0; i < 4; i++ {
		values[SignalID{Type: SignalDriveDistance, Module: i}] = dist
		values[SignalID{Type: SignalSteerAngle, Module: i}] = 0
	}
	return Sample{Time: at, Values: values}
}

func withGyro(s Sample, yaw float64) Sample {
	s.Values[GyroYawID] = yaw
	return s
}

func TestReconcileEmptyBatch(t *testing.T) {
	r, sink := testReconciler(t)
	outcomes := r.Reconcile(nil, true)
	test.That(t, outcomes, test.ShouldHaveLength, 0)
	test.That(t, sink.updates, test.ShouldHaveLength, 0)
}

func TestReconcileGyroWinsOverKinematics(t *testing.T) {
	r, sink := testReconciler(t)
	t0 := time.Now()

	// Straight-line wheel data claims no rotation, but the gyro disagrees;
	// the emitted yaw must be the gyro's absolute reading exactly.
	outcomes := r.Reconcile([]Sample{
		withGyro(completeSample(t0, 0.5), 0.2),
		withGyro(completeSample(t0.Add(4*time.Millisecond), 1.0), 0.3),
	}, true)

	test.That(t, outcomes, test.ShouldHaveLength, 2)
	for _, o := range outcomes {
		test.That(t, o.Kind, test.ShouldEqual, OutcomeFull)
		test.That(t, o.GyroUsed, test.ShouldBeTrue)
	}
	test.That(t, outcomes[0].YawRads, test.ShouldAlmostEqual, 0.2)
	test.That(t, outcomes[1].YawRads, test.ShouldAlmostEqual, 0.3)
	test.That(t, outcomes[1].Twist.Dtheta, test.ShouldAlmostEqual, 0.1, 1e-9)
	test.That(t, sink.updates, test.ShouldHaveLength, 2)
	test.That(t, sink.updates[1].yaw, test.ShouldAlmostEqual, 0.3)
	test.That(t, r.Yaw(), test.ShouldAlmostEqual, 0.3)
}

func TestReconcileDisconnectedGyroIntegratesKinematics(t *testing.T) {
	r, sink := testReconciler(t)
	t0 := time.Now()

	// Pure spin wheel data with the gyro disconnected: heading must come from
	// integrating the kinematic twist.
	omega := 0.05
	dist := omega * math.Sqrt2
	spin := Sample{Time: t0, Values: map[SignalID]float64{
		{Type: SignalDriveDistance, Module: 0}: dist,
		{Type: SignalSteerAngle, Module: 0}:    3 * math.Pi / 4,
		{Type: SignalDriveDistance, Module: 1}: dist,
		{Type: SignalSteerAngle, Module: 1}:    math.Pi / 4,
		{Type: SignalDriveDistance, Module: 2}: dist,
		{Type: SignalSteerAngle, Module: 2}:    -3 * math.Pi / 4,
		{Type: SignalDriveDistance, Module: 3}: dist,
		{Type: SignalSteerAngle, Module: 3}:    -math.Pi / 4,
	}}

	outcomes := r.Reconcile([]Sample{spin}, false)
	test.That(t, outcomes, test.ShouldHaveLength, 1)
	test.That(t, outcomes[0].Kind, test.ShouldEqual, OutcomeFull)
	test.That(t, outcomes[0].GyroUsed, test.ShouldBeFalse)
	test.That(t, outcomes[0].Twist.Dtheta, test.ShouldAlmostEqual, omega, 1e-9)
	test.That(t, r.Yaw(), test.ShouldAlmostEqual, omega, 1e-9)
	test.That(t, sink.updates, test.ShouldHaveLength, 1)
	test.That(t, sink.updates[0].yaw, test.ShouldAlmostEqual, omega, 1e-9)
}

func TestReconcileConnectedGyroMissingReading(t *testing.T) {
	r, _ := testReconciler(t)
	t0 := time.Now()

	// Gyro hardware attached but no reading in this sample: fall back to the
	// kinematic heading for this sample only.
	outcomes := r.Reconcile([]Sample{completeSample(t0, 0.5)}, true)
	test.That(t, outcomes[0].Kind, test.ShouldEqual, OutcomeFull)
	test.That(t, outcomes[0].GyroUsed, test.ShouldBeFalse)
	test.That(t, outcomes[0].Twist.Dx, test.ShouldAlmostEqual, 0.5, 1e-9)
}

func TestReconcileDropsSampleWithoutModulesOrGyro(t *testing.T) {
	r, sink := testReconciler(t)
	t0 := time.Now()

	full := completeSample(t0, 0.5)
	incomplete := completeSample(t0.Add(4*time.Millisecond), 1.0)
	delete(incomplete.Values, SignalID{Type: SignalDriveDistance, Module: 2})

	outcomes := r.Reconcile([]Sample{full, incomplete}, false)
	test.That(t, outcomes, test.ShouldHaveLength, 2)
	test.That(t, outcomes[0].Kind, test.ShouldEqual, OutcomeFull)
	test.That(t, outcomes[1].Kind, test.ShouldEqual, OutcomeDropped)
	test.That(t, outcomes[1].MissingModules, test.ShouldResemble, []int{2})

	// Only the full sample produced an update.
	test.That(t, sink.updates, test.ShouldHaveLength, 1)

	// Module 2 stays at the last complete observation; the others advanced.
	positions := r.ModulePositions()
	test.That(t, positions[2].DistanceMeters, test.ShouldAlmostEqual, 0.5)
	test.That(t, positions[0].DistanceMeters, test.ShouldAlmostEqual, 1.0)
	test.That(t, positions[1].DistanceMeters, test.ShouldAlmostEqual, 1.0)
	test.That(t, positions[3].DistanceMeters, test.ShouldAlmostEqual, 1.0)
}

func TestReconcileRotationOnlyFallback(t *testing.T) {
	r, sink := testReconciler(t)
	t0 := time.Now()

	// Batch of 3: sample 2 is missing module 2's steer angle but has a gyro
	// reading. Expect 2 full updates and 1 rotation-only update.
	s1 := withGyro(completeSample(t0, 0.5), 0.1)
	s2 := withGyro(completeSample(t0.Add(4*time.Millisecond), 1.0), 0.2)
	delete(s2.Values, SignalID{Type: SignalSteerAngle, Module: 2})
	s3 := withGyro(completeSample(t0.Add(8*time.Millisecond), 1.5), 0.3)

	outcomes := r.Reconcile([]Sample{s1, s2, s3}, true)
	test.That(t, outcomes, test.ShouldHaveLength, 3)
	test.That(t, outcomes[0].Kind, test.ShouldEqual, OutcomeFull)
	test.That(t, outcomes[1].Kind, test.ShouldEqual, OutcomeRotationOnly)
	test.That(t, outcomes[1].MissingModules, test.ShouldResemble, []int{2})
	test.That(t, outcomes[2].Kind, test.ShouldEqual, OutcomeFull)

	// The rotation-only update carried the gyro's absolute heading and left
	// translation state untouched for the missing module.
	test.That(t, sink.updates, test.ShouldHaveLength, 3)
	test.That(t, sink.updates[1].yaw, test.ShouldAlmostEqual, 0.2)
	for i := 0; i < 4; i++ {
		test.That(t, sink.updates[1].positions[i].DistanceMeters, test.ShouldAlmostEqual, 0.5)
	}

	// Sample 3 was complete, so module 2 caught back up.
	positions := r.ModulePositions()
	test.That(t, positions[2].DistanceMeters, test.ShouldAlmostEqual, 1.5)
	test.That(t, r.Yaw(), test.ShouldAlmostEqual, 0.3)
}

func TestReconcileGyroDeltaWraps(t *testing.T) {
	r, _ := testReconciler(t)
	t0 := time.Now()

	outcomes := r.Reconcile([]Sample{
		withGyro(completeSample(t0, 0.1), math.Pi-0.05),
		withGyro(completeSample(t0.Add(4*time.Millisecond), 0.2), -math.Pi+0.05),
	}, true)
	// Crossing the pi boundary is a small positive rotation, not a full turn.
	test.That(t, outcomes[1].Twist.Dtheta, test.ShouldAlmostEqual, 0.1, 1e-9)
}

func TestReconcileTwistMatchesPoseIntegration(t *testing.T) {
	r, _ := testReconciler(t)
	t0 := time.Now()

	pose := spatialmath.NewPose(0, 0, 0)
	outcomes := r.Reconcile([]Sample{
		completeSample(t0, 0.5),
		completeSample(t0.Add(4*time.Millisecond), 1.25),
	}, false)
	for _, o := range outcomes {
		pose = pose.Exp(o.Twist)
	}
	test.That(t, pose.Translation.X, test.ShouldAlmostEqual, 1.25, 1e-9)
	test.That(t, pose.Translation.Y, test.ShouldAlmostEqual, 0, 1e-9)
}
