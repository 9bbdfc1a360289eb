package actor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/berfenger/v2ca/internal/core/domain"
	"github.com/berfenger/v2ca/internal/core/port"
	"github.com/berfenger/v2ca/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func actPowerAdapter() port.Adapter[*domain.RawDeviceStatus, *domain.EnergyInformation] {
	return port.AdapterFunc[*domain.RawDeviceStatus, *domain.EnergyInformation](
		func(_ context.Context, s *domain.RawDeviceStatus) (*domain.EnergyInformation, error) {
			if s.ActPower == nil {
				return nil, nil
			}
			if *s.ActPower < 0 {
				return nil, errors.New("negative reading")
			}
			return &domain.EnergyInformation{Power: *s.ActPower}, nil
		})
}

type recorder struct {
	mu     sync.Mutex
	values []float64
	notify chan struct{}
}

func newRecorder() *recorder {
	return &recorder{notify: make(chan struct{}, 100)}
}

func (r *recorder) callback(_ context.Context, v domain.EnergyInformation) error {
	// slow consumer so later messages pile up in the stash
	time.Sleep(5 * time.Millisecond)
	r.mu.Lock()
	r.values = append(r.values, v.Power)
	r.mu.Unlock()
	r.notify <- struct{}{}
	return nil
}

func (r *recorder) waitFor(t *testing.T, n int) []float64 {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		r.mu.Lock()
		if len(r.values) >= n {
			out := append([]float64(nil), r.values...)
			r.mu.Unlock()
			return out
		}
		r.mu.Unlock()
		select {
		case <-r.notify:
		case <-deadline:
			t.Fatalf("timed out waiting for %d values", n)
			return nil
		}
	}
}

func spawnBridge(t *testing.T, rec *recorder) (*actor.ActorSystem, *actor.PID) {
	logger := zap.Must(zap.NewDevelopment())
	as := actorutil.NewActorSystemWithZapLogger(logger)
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewBridgeDispatchActor[domain.RawDeviceStatus, domain.EnergyInformation]("shelly/grid", actPowerAdapter(), rec.callback, logger)
	})
	pid := as.Root.Spawn(props)
	t.Cleanup(func() {
		_ = as.Root.StopFuture(pid).Wait()
		as.Shutdown()
	})
	return as, pid
}

func TestBridgeDispatchPreservesOrder(t *testing.T) {

	assert := assert.New(t)

	rec := newRecorder()
	as, pid := spawnBridge(t, rec)

	payloads := []string{
		`{"id":0,"act_power":1}`,
		`{"id":0,"act_power":2}`,
		`{"id":0,"act_power":3}`,
		`{"id":0,"act_power":4}`,
	}
	for _, p := range payloads {
		as.Root.Send(pid, InboundMessage{Topic: "shelly/grid", Payload: []byte(p)})
	}

	assert.Equal([]float64{1, 2, 3, 4}, rec.waitFor(t, 4))
}

func TestBridgeDispatchSurvivesBadMessages(t *testing.T) {

	assert := assert.New(t)

	rec := newRecorder()
	as, pid := spawnBridge(t, rec)

	as.Root.Send(pid, InboundMessage{Topic: "shelly/grid", Payload: []byte(`not json`)})
	as.Root.Send(pid, InboundMessage{Topic: "shelly/grid", Payload: []byte(`{"id":0,"act_power":-5}`)})
	as.Root.Send(pid, InboundMessage{Topic: "shelly/grid", Payload: []byte(`{"id":0,"calibration":"factory"}`)})
	as.Root.Send(pid, InboundMessage{Topic: "shelly/other", Payload: []byte(`{"id":0,"act_power":99}`)})
	as.Root.Send(pid, InboundMessage{Topic: "shelly/grid", Payload: []byte(`{"id":0,"act_power":250}`)})

	assert.Equal([]float64{250}, rec.waitFor(t, 1))
}

func TestBridgeDispatchDrainsStashPastForeignTopics(t *testing.T) {

	assert := assert.New(t)

	rec := newRecorder()
	as, pid := spawnBridge(t, rec)

	as.Root.Send(pid, InboundMessage{Topic: "shelly/grid", Payload: []byte(`{"id":0,"act_power":1}`)})
	as.Root.Send(pid, InboundMessage{Topic: "shelly/other", Payload: []byte(`{"id":0,"act_power":99}`)})
	as.Root.Send(pid, InboundMessage{Topic: "shelly/other", Payload: []byte(`{"id":0,"act_power":98}`)})
	as.Root.Send(pid, InboundMessage{Topic: "shelly/grid", Payload: []byte(`{"id":0,"act_power":2}`)})

	assert.Equal([]float64{1, 2}, rec.waitFor(t, 2))
}

func TestBridgeDispatchHealth(t *testing.T) {

	require := require.New(t)

	rec := newRecorder()
	as, pid := spawnBridge(t, rec)

	result, err := as.Root.RequestFuture(pid, domain.ActorHealthRequest{}, 2*time.Second).Result()
	require.NoError(err)
	resp, ok := result.(domain.ActorHealthResponse)
	require.True(ok)
	require.True(resp.Healthy)
	require.Equal(domain.ACTOR_ID_BRIDGE, resp.Id)
	require.Equal("idle", resp.State)
}
