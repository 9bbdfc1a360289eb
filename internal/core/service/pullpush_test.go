package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/berfenger/v2ca/internal/core/domain"
	"github.com/berfenger/v2ca/internal/core/port"
	"github.com/berfenger/v2ca/internal/core/provider"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const waitTimeout = 2 * time.Second

func collect(ch chan domain.EnergyInformation) port.Callback[domain.EnergyInformation] {
	return func(_ context.Context, v domain.EnergyInformation) error {
		ch <- v
		return nil
	}
}

func receive(t *testing.T, ch chan domain.EnergyInformation) domain.EnergyInformation {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for callback")
		return domain.EnergyInformation{}
	}
}

func assertSilent(t *testing.T, ch chan domain.EnergyInformation) {
	t.Helper()
	select {
	case v := <-ch:
		t.Fatalf("unexpected callback with %v", v)
	case <-time.After(100 * time.Millisecond):
	}
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(waitTimeout):
		t.Fatal("loop did not exit")
	}
}

func TestPullPushFirstCycleImmediateThenInterval(t *testing.T) {

	assert := assert.New(t)
	require := require.New(t)

	clock := clockwork.NewFakeClock()
	values := make(chan domain.EnergyInformation, 10)
	p := provider.NewFixedValueProvider(&domain.EnergyInformation{Power: 100})

	s := NewPullPushService("grid", p, collect(values), time.Second, zap.NewNop()).WithClock(clock)
	require.NoError(s.Start(context.Background()))

	assert.Equal(100.0, receive(t, values).Power, "first cycle runs immediately")

	clock.BlockUntil(1)
	assertSilent(t, values)

	p.Set(&domain.EnergyInformation{Power: 250})
	clock.Advance(time.Second)
	assert.Equal(250.0, receive(t, values).Power)

	clock.BlockUntil(1)
	clock.Advance(time.Second)
	assert.Equal(250.0, receive(t, values).Power)

	require.NoError(s.Stop(context.Background()))
	waitDone(t, s.Done())
}

func TestPullPushNoCallbackAfterStop(t *testing.T) {

	require := require.New(t)

	clock := clockwork.NewFakeClock()
	values := make(chan domain.EnergyInformation, 10)
	p := provider.NewFixedValueProvider(&domain.EnergyInformation{Power: 1})

	s := NewPullPushService("grid", p, collect(values), time.Minute, zap.NewNop()).WithClock(clock)
	require.NoError(s.Start(context.Background()))
	receive(t, values)
	clock.BlockUntil(1)

	// cancellation preempts the inter-cycle wait without advancing the clock
	require.NoError(s.Stop(context.Background()))
	waitDone(t, s.Done())

	clock.Advance(time.Hour)
	assertSilent(t, values)
}

func TestPullPushSurvivesFailingCycle(t *testing.T) {

	assert := assert.New(t)
	require := require.New(t)

	clock := clockwork.NewFakeClock()
	values := make(chan domain.EnergyInformation, 10)

	var calls atomic.Int32
	p := port.ProviderFunc[*domain.EnergyInformation](func(context.Context) (*domain.EnergyInformation, error) {
		switch calls.Add(1) {
		case 1:
			return nil, errors.New("device offline")
		case 2:
			panic("malformed reading")
		default:
			return &domain.EnergyInformation{Power: 3}, nil
		}
	})

	s := NewPullPushService("solar", p, collect(values), time.Second, zap.NewNop()).WithClock(clock)
	require.NoError(s.Start(context.Background()))

	clock.BlockUntil(1)
	clock.Advance(time.Second)
	clock.BlockUntil(1)
	clock.Advance(time.Second)

	assert.Equal(3.0, receive(t, values).Power)
	assert.Equal(int32(3), calls.Load())

	require.NoError(s.Stop(context.Background()))
	waitDone(t, s.Done())
}

func TestPullPushCallbackErrorDoesNotStopLoop(t *testing.T) {

	require := require.New(t)

	clock := clockwork.NewFakeClock()
	var calls atomic.Int32
	p := provider.NewFixedValueProvider(&domain.EnergyInformation{Power: 5})
	cb := func(context.Context, domain.EnergyInformation) error {
		calls.Add(1)
		return errors.New("publish failed")
	}

	s := NewPullPushService("grid", p, cb, time.Second, zap.NewNop()).WithClock(clock)
	require.NoError(s.Start(context.Background()))

	clock.BlockUntil(1)
	clock.Advance(time.Second)
	clock.BlockUntil(1)

	require.Equal(int32(2), calls.Load())
	require.NoError(s.Stop(context.Background()))
	waitDone(t, s.Done())
}

func TestPullPushAbsentValueSkipsCallback(t *testing.T) {

	require := require.New(t)

	clock := clockwork.NewFakeClock()
	values := make(chan domain.EnergyInformation, 10)
	p := provider.NewFixedValueProvider[domain.EnergyInformation](nil)

	s := NewPullPushService("grid", p, collect(values), time.Second, zap.NewNop()).WithClock(clock)
	require.NoError(s.Start(context.Background()))

	clock.BlockUntil(1)
	assertSilent(t, values)

	require.NoError(s.Stop(context.Background()))
	waitDone(t, s.Done())
}

func TestPullPushZeroIntervalRunsBackToBack(t *testing.T) {

	require := require.New(t)

	var calls atomic.Int32
	reached := make(chan struct{})
	p := provider.NewFixedValueProvider(&domain.EnergyInformation{Power: 9})
	cb := func(context.Context, domain.EnergyInformation) error {
		if calls.Add(1) == 5 {
			close(reached)
		}
		return nil
	}

	s := NewPullPushService("grid", p, cb, 0, zap.NewNop()).WithClock(clockwork.NewFakeClock())
	require.NoError(s.Start(context.Background()))

	waitDone(t, reached)

	require.NoError(s.Stop(context.Background()))
	waitDone(t, s.Done())
}

func TestPullPushDoStartTwice(t *testing.T) {

	assert := assert.New(t)

	p := provider.NewFixedValueProvider[domain.EnergyInformation](nil)
	s := NewPullPushService("grid", p, collect(make(chan domain.EnergyInformation, 1)), time.Minute, zap.NewNop()).
		WithClock(clockwork.NewFakeClock())

	assert.NoError(s.DoStart(context.Background()))
	assert.ErrorIs(s.DoStart(context.Background()), domain.ErrAlreadyRunning)
	assert.NoError(s.DoStop(context.Background()))
	waitDone(t, s.Done())
}

func TestPullPushRestart(t *testing.T) {

	require := require.New(t)

	clock := clockwork.NewFakeClock()
	values := make(chan domain.EnergyInformation, 10)
	p := provider.NewFixedValueProvider(&domain.EnergyInformation{Power: 11})

	s := NewPullPushService("grid", p, collect(values), time.Second, zap.NewNop()).WithClock(clock)
	ctx := context.Background()

	require.NoError(s.Start(ctx))
	receive(t, values)
	require.NoError(s.Stop(ctx))
	waitDone(t, s.Done())

	require.NoError(s.Start(ctx))
	receive(t, values)
	require.NoError(s.Stop(ctx))
	waitDone(t, s.Done())
}
