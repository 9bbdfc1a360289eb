package broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	adactor "github.com/berfenger/v2ca/internal/adapter/actor"
	"github.com/berfenger/v2ca/internal/core/domain"
	"github.com/berfenger/v2ca/internal/core/port"
	"github.com/berfenger/v2ca/internal/core/service"
	"github.com/berfenger/v2ca/internal/mqtt"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

const subscribeTimeout = 5 * time.Second

type BridgeConfig struct {
	URL   string
	Topic string
}

// BridgeService subscribes to a topic and forwards every inbound message to
// a dispatch actor that decodes, adapts and delivers it through the callback.
type BridgeService[T, K any] struct {
	*service.GuardedService
	cfg      BridgeConfig
	dialer   mqtt.Dialer
	system   *actor.ActorSystem
	adapter  port.Adapter[*T, *K]
	callback port.Callback[K]

	mu     sync.Mutex
	client mqtt.Client
	pid    *actor.PID
}

func NewBridgeService[T, K any](cfg BridgeConfig, dialer mqtt.Dialer, system *actor.ActorSystem,
	adapter port.Adapter[*T, *K], callback port.Callback[K], logger *zap.Logger) *BridgeService[T, K] {
	s := &BridgeService[T, K]{
		cfg:      cfg,
		dialer:   dialer,
		system:   system,
		adapter:  adapter,
		callback: callback,
	}
	s.GuardedService = service.Guard("mqtt-bridge", s, logger.With(zap.String("topic", cfg.Topic)))
	return s
}

func (s *BridgeService[T, K]) DoStart(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	root := s.system.Root
	props := actor.PropsFromProducer(func() actor.Actor {
		return adactor.NewBridgeDispatchActor(s.cfg.Topic, s.adapter, s.callback, s.Logger())
	})
	pid := root.Spawn(props)

	client := s.dialer(s.cfg.URL)
	err := mqtt.Await(func(continuation func(error)) {
		client.Connect(continuation, connectTimeout)
	})
	if err != nil {
		root.Stop(pid)
		return fmt.Errorf("%w: connect %s: %v", domain.ErrSourceUnavailable, s.cfg.URL, err)
	}

	s.Logger().Info("subscribing to MQTT topic")
	err = mqtt.Await(func(continuation func(error)) {
		client.Subscribe(s.cfg.Topic, 0, func(topic string, payload []byte) {
			root.Send(pid, adactor.InboundMessage{Topic: topic, Payload: payload})
		}, continuation, subscribeTimeout)
	})
	if err != nil {
		client.Disconnect(250 * time.Millisecond)
		root.Stop(pid)
		return fmt.Errorf("subscribe %s: %w", s.cfg.Topic, err)
	}

	s.client = client
	s.pid = pid
	return nil
}

// DoStop is safe to call when the service never connected.
func (s *BridgeService[T, K]) DoStop(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		err := mqtt.Await(func(continuation func(error)) {
			s.client.Unsubscribe(s.cfg.Topic, continuation, subscribeTimeout)
		})
		if err != nil {
			s.Logger().Warn("bridge@stop unsubscribe failed", zap.Error(err))
		}
		s.client.Disconnect(250 * time.Millisecond)
		s.client = nil
	}
	if s.pid != nil {
		if err := s.system.Root.StopFuture(s.pid).Wait(); err != nil {
			s.Logger().Warn("bridge@stop dispatcher did not stop cleanly", zap.Error(err))
		}
		s.pid = nil
	}
	return nil
}

// Healthy asks the dispatch actor for a health response.
func (s *BridgeService[T, K]) Healthy(_ context.Context) bool {
	s.mu.Lock()
	pid := s.pid
	s.mu.Unlock()
	if pid == nil {
		return false
	}
	res, err := s.system.Root.RequestFuture(pid, domain.ActorHealthRequest{}, 2*time.Second).Result()
	if err != nil {
		return false
	}
	resp, ok := res.(domain.ActorHealthResponse)
	return ok && resp.Healthy
}
