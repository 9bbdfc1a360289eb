package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/berfenger/v2ca/internal/core/domain"
	"github.com/berfenger/v2ca/internal/core/service"
	"github.com/berfenger/v2ca/internal/metrics"
	"github.com/berfenger/v2ca/internal/mqtt"

	"go.uber.org/zap"
)

const (
	TOPIC_GRID_POWER = "trydan_v2c_grid_power"
	TOPIC_SUN_POWER  = "trydan_v2c_sun_power"

	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

type PublisherConfig struct {
	URL               string
	BaseTopic         string
	HADiscoveryEnable bool
	HADiscoveryTopic  string
	Device            domain.Device
}

// Publisher owns the outbound MQTT connection of the mqtt surface and
// publishes grid and solar power as plain decimal strings.
type Publisher struct {
	*service.GuardedService
	cfg    PublisherConfig
	dialer mqtt.Dialer

	mu     sync.RWMutex
	client mqtt.Client
}

func NewPublisher(cfg PublisherConfig, dialer mqtt.Dialer, logger *zap.Logger) *Publisher {
	p := &Publisher{
		cfg:    cfg,
		dialer: dialer,
	}
	p.GuardedService = service.Guard("mqtt-publisher", p, logger)
	return p
}

func (p *Publisher) DoStart(_ context.Context) error {
	client := p.dialer(p.cfg.URL)
	err := mqtt.Await(func(continuation func(error)) {
		client.Connect(continuation, connectTimeout)
	})
	if err != nil {
		return fmt.Errorf("%w: connect %s: %v", domain.ErrSourceUnavailable, p.cfg.URL, err)
	}

	p.mu.Lock()
	p.client = client
	p.mu.Unlock()

	if p.cfg.BaseTopic != "" {
		p.publishRetained(mqtt.BridgeStateTopic(p.cfg.BaseTopic), mqtt.MQTT_PAYLOAD_ONLINE)
	}
	if p.cfg.HADiscoveryEnable {
		if err := p.publishDiscovery(); err != nil {
			p.Logger().Error("publisher@start discovery failed", zap.Error(err))
		}
	}
	return nil
}

func (p *Publisher) DoStop(_ context.Context) error {
	p.mu.Lock()
	client := p.client
	p.client = nil
	p.mu.Unlock()
	if client == nil {
		return nil
	}
	if p.cfg.BaseTopic != "" {
		err := mqtt.Await(func(continuation func(error)) {
			client.Publish(mqtt.BridgeStateTopic(p.cfg.BaseTopic), mqtt.MQTT_PAYLOAD_OFFLINE, 0, true, continuation, 500*time.Millisecond)
		})
		if err != nil {
			p.Logger().Warn("publisher@stop could not publish offline state", zap.Error(err))
		}
	}
	client.Disconnect(500 * time.Millisecond)
	return nil
}

func (p *Publisher) PublishGridPower(ctx context.Context, power float64) error {
	return p.publishPower(ctx, TOPIC_GRID_POWER, power)
}

func (p *Publisher) PublishSunPower(ctx context.Context, power float64) error {
	return p.publishPower(ctx, TOPIC_SUN_POWER, power)
}

func (p *Publisher) publishPower(_ context.Context, topic string, power float64) error {
	p.mu.RLock()
	client := p.client
	p.mu.RUnlock()
	if client == nil {
		return fmt.Errorf("%w: publish to %s", domain.ErrNotStarted, topic)
	}
	payload := strconv.FormatFloat(power, 'f', -1, 64)
	p.Logger().Debug("publisher@publish", zap.String("topic", topic), zap.String("payload", payload))
	err := mqtt.Await(func(continuation func(error)) {
		client.Publish(topic, payload, 0, false, continuation, publishTimeout)
	})
	metrics.PublishedMessages.WithLabelValues(topic, metrics.Result(err)).Inc()
	return err
}

func (p *Publisher) publishRetained(topic, payload string) {
	p.mu.RLock()
	client := p.client
	p.mu.RUnlock()
	client.Publish(topic, payload, 0, true, func(err error) {
		if err != nil {
			p.Logger().Warn("publisher@publish retained message failed", zap.String("topic", topic), zap.Error(err))
		}
	}, publishTimeout)
}

func (p *Publisher) publishDiscovery() error {
	for _, sensor := range domain.PowerSensors(p.cfg.Device, TOPIC_GRID_POWER, TOPIC_SUN_POWER) {
		msg := mqtt.GenericSensorToHADiscoveryMessage(p.cfg.BaseTopic, sensor)
		payload, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		p.publishRetained(mqtt.HADiscoverySensorTopic(p.cfg.HADiscoveryTopic, sensor), string(payload))
	}
	return nil
}
