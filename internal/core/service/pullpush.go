package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/berfenger/v2ca/internal/core/domain"
	"github.com/berfenger/v2ca/internal/core/port"
	"github.com/berfenger/v2ca/internal/metrics"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// PullPushService polls a provider at a fixed interval and pushes every
// present value to a callback. The first cycle runs as soon as the service
// starts. Cycles never overlap and a failing cycle does not end the loop.
type PullPushService[T any] struct {
	*GuardedService
	provider port.Provider[*T]
	callback port.Callback[T]
	interval time.Duration
	clock    clockwork.Clock

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewPullPushService[T any](name string, provider port.Provider[*T], callback port.Callback[T],
	interval time.Duration, logger *zap.Logger) *PullPushService[T] {
	s := &PullPushService[T]{
		provider: provider,
		callback: callback,
		interval: interval,
		clock:    clockwork.NewRealClock(),
	}
	s.GuardedService = Guard(name, s, logger)
	return s
}

// WithClock replaces the time source used between cycles.
func (s *PullPushService[T]) WithClock(clock clockwork.Clock) *PullPushService[T] {
	s.clock = clock
	return s
}

func (s *PullPushService[T]) Interval() time.Duration {
	return s.interval
}

func (s *PullPushService[T]) DoStart(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return domain.ErrAlreadyRunning
	}
	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.loop(loopCtx, s.done)
	return nil
}

// DoStop requests cancellation and returns without waiting for an
// in-flight cycle.
func (s *PullPushService[T]) DoStop(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	return nil
}

// Done is closed when the most recently started loop has exited.
func (s *PullPushService[T]) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

func (s *PullPushService[T]) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	logger := s.Logger()
	logger.Debug("pullpush@loop started", zap.Duration("interval", s.interval))
	for ctx.Err() == nil {
		// the in-flight cycle is not interrupted by stop
		s.cycle(context.WithoutCancel(ctx))
		if ctx.Err() != nil {
			break
		}
		timer := s.clock.NewTimer(s.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
		case <-timer.Chan():
		}
	}
	logger.Debug("pullpush@loop exited")
}

func (s *PullPushService[T]) cycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			metrics.PollFailures.WithLabelValues(s.Name()).Inc()
			s.Logger().Error("pullpush@cycle panic", zap.String("panic", fmt.Sprint(r)))
		}
	}()
	defer metrics.PollCycles.WithLabelValues(s.Name()).Inc()

	value, err := s.provider.Get(ctx)
	if err != nil {
		metrics.PollFailures.WithLabelValues(s.Name()).Inc()
		s.Logger().Error("pullpush@cycle could not fetch value", zap.Error(err))
		return
	}
	if value == nil {
		s.Logger().Debug("pullpush@cycle no value")
		return
	}
	if err := s.callback(ctx, *value); err != nil {
		metrics.PollFailures.WithLabelValues(s.Name()).Inc()
		s.Logger().Error("pullpush@cycle callback failed", zap.Error(err))
	}
}
