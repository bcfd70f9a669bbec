// Package vision forwards externally computed vision pose estimates into the
// pose container. Camera calibration and tag solving live outside this
// module; by the time a measurement arrives here it is already a pose with a
// timestamp and per-axis uncertainty.
package vision

import (
	"math"
	"time"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/SCool62/Crescendo/spatialmath"
)

// A Measurement is one externally computed vision pose estimate. StdDevs are
// the per-axis uncertainties: x meters, y meters, heading radians.
type Measurement struct {
	Pose    spatialmath.Pose
	Time    time.Time
	StdDevs [3]float64
}

// A Sink accepts vision measurements; implemented by the pose estimator.
// Measurements may arrive with timestamps older than the most recent
// odometry update; bounded out-of-order tolerance is the sink's contract.
type Sink interface {
	ApplyVisionMeasurement(pose spatialmath.Pose, t time.Time, stdDevs [3]float64) error
}

// An Ingestor validates measurements and forwards them to the sink.
type Ingestor struct {
	sink   Sink
	logger golog.Logger
}

// NewIngestor returns an ingestor feeding the given sink.
func NewIngestor(sink Sink, logger golog.Logger) *Ingestor {
	return &Ingestor{sink: sink, logger: logger}
}

// Ingest forwards one measurement. Malformed measurements and sink
// rejections are returned as errors for the caller's diagnostics; neither is
// fatal to the pipeline.
func (in *Ingestor) Ingest(m Measurement) error {
	if err := m.validate(); err != nil {
		in.logger.Debugw("discarding vision measurement", "error", err)
		return err
	}
	if err := in.sink.ApplyVisionMeasurement(m.Pose, m.Time, m.StdDevs); err != nil {
		in.logger.Debugw("pose container rejected vision measurement", "error", err)
		return err
	}
	return nil
}

func (m Measurement) validate() error {
	if m.Time.IsZero() {
		return errors.New("measurement has no timestamp")
	}
	for _, v := range []float64{m.Pose.Translation.X, m.Pose.Translation.Y, m.Pose.Theta} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New("measurement pose is not finite")
		}
	}
	for _, sd := range m.StdDevs {
		if sd < 0 || math.IsNaN(sd) {
			return errors.Errorf("measurement std dev %f is invalid", sd)
		}
	}
	return nil
}
