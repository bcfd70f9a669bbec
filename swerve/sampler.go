package swerve

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	goutils "go.viam.com/utils"
)

// DefaultSamplePeriod matches a 250Hz signal refresh, several times faster
// than a typical 50Hz control loop.
const DefaultSamplePeriod = 4 * time.Millisecond

// maxPendingSamples bounds the drain buffer if the control loop stalls.
// Oldest samples are discarded first; the pose estimate free-runs over the
// gap.
const maxPendingSamples = 512

// ModuleSignals reads one module's raw odometry channels. The bool reports
// whether the reading was available; unavailable channels are recorded as
// absent in the sample, not as errors.
type ModuleSignals interface {
	DriveDistanceMeters() (float64, bool)
	SteerAngleRads() (float64, bool)
}

// GyroSignals reads the gyro channel.
type GyroSignals interface {
	Connected() bool
	YawRads() (float64, bool)
}

// A Sampler polls signal sources on its own goroutine at a fixed period,
// buffering timestamped samples for the control loop to drain. Timestamps
// are monotonically non-decreasing within any drained batch.
type Sampler struct {
	period  time.Duration
	clk     clock.Clock
	modules []ModuleSignals
	gyro    GyroSignals
	logger  golog.Logger

	mu      sync.Mutex
	pending []Sample
	dropped int

	cancel                  context.CancelFunc
	activeBackgroundWorkers sync.WaitGroup
}

// NewSampler starts a sampler over the given sources. Close must be called
// to release the polling goroutine.
func NewSampler(
	modules []ModuleSignals,
	gyro GyroSignals,
	period time.Duration,
	clk clock.Clock,
	logger golog.Logger,
) *Sampler {
	if period <= 0 {
		period = DefaultSamplePeriod
	}
	if clk == nil {
		clk = clock.New()
	}
	s := &Sampler{
		period:  period,
		clk:     clk,
		modules: modules,
		gyro:    gyro,
		logger:  logger,
	}
	cancelCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.activeBackgroundWorkers.Add(1)
	goutils.ManagedGo(func() {
		s.poll(cancelCtx)
	}, s.activeBackgroundWorkers.Done)
	return s
}

func (s *Sampler) poll(ctx context.Context) {
	ticker := s.clk.Ticker(s.period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sampleOnce(s.clk.Now())
		}
	}
}

// sampleOnce reads every channel once and appends the sample to the pending
// buffer. A channel read that fails is left out of the sample.
func (s *Sampler) sampleOnce(now time.Time) {
	values := make(map[SignalID]float64, 2*len(s.modules)+1)
	for i, m := range s.modules {
		if dist, ok := m.DriveDistanceMeters(); ok {
			values[SignalID{Type: SignalDriveDistance, Module: i}] = dist
		}
		if angle, ok := m.SteerAngleRads(); ok {
			values[SignalID{Type: SignalSteerAngle, Module: i}] = angle
		}
	}
	if s.gyro != nil && s.gyro.Connected() {
		if yaw, ok := s.gyro.YawRads(); ok {
			values[GyroYawID] = yaw
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) >= maxPendingSamples {
		s.pending = s.pending[1:]
		s.dropped++
	}
	s.pending = append(s.pending, Sample{Time: now, Values: values})
}

// Drain returns all buffered samples in time order and resets the buffer.
// The returned batch is owned by the caller.
func (s *Sampler) Drain() []Sample {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch := s.pending
	s.pending = nil
	if s.dropped > 0 {
		s.logger.Warnw("sample buffer overflowed since last drain", "dropped", s.dropped)
		s.dropped = 0
	}
	return batch
}

// GyroConnected reports whether the gyro source is currently attached.
func (s *Sampler) GyroConnected() bool {
	return s.gyro != nil && s.gyro.Connected()
}

// Close stops the polling goroutine and waits for it to exit.
func (s *Sampler) Close() {
	s.cancel()
	s.activeBackgroundWorkers.Wait()
}
