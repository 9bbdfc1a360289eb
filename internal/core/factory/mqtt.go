package factory

import (
	"fmt"

	"github.com/berfenger/v2ca/internal/adapter/broker"
	"github.com/berfenger/v2ca/internal/config"
	"github.com/berfenger/v2ca/internal/core/domain"
	"github.com/berfenger/v2ca/internal/core/port"
	"github.com/berfenger/v2ca/internal/core/service"
	"github.com/berfenger/v2ca/internal/mqtt"
	"github.com/berfenger/v2ca/internal/server"
	"github.com/carlmjohnson/versioninfo"
)

// MqttServiceFactory composes the mqtt surface: the publisher, both meter
// feeds and the optional status server.
type MqttServiceFactory struct {
	deps  Dependencies
	feeds *FeedServiceFactory
}

func NewMqttServiceFactory(deps Dependencies) *MqttServiceFactory {
	return &MqttServiceFactory{deps: deps, feeds: NewFeedServiceFactory(deps)}
}

func (f *MqttServiceFactory) Create(cfg config.MqttConfig) (port.ExecutableService, error) {
	dialer := f.deps.dialer(mqtt.Options{
		Username:  cfg.Username,
		Password:  cfg.Password,
		ClientId:  domain.DEVICE_ID_BRIDGE,
		BaseTopic: cfg.BaseTopic,
		Will:      true,
	})
	publisher := broker.NewPublisher(broker.PublisherConfig{
		URL:               cfg.URL,
		BaseTopic:         cfg.BaseTopic,
		HADiscoveryEnable: cfg.HADiscoveryEnable,
		HADiscoveryTopic:  cfg.HADiscoveryTopic,
		Device:            bridgeDevice(cfg.Device),
	}, dialer, f.deps.Logger)

	grid, err := f.feeds.Create(FeedServiceOptions{
		EnergyType: domain.EnergyTypeGrid,
		Device:     cfg.Device,
		Mode:       cfg.Grid,
		Publisher:  publisher,
		Username:   cfg.Username,
		Password:   cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("grid meter: %w", err)
	}
	solar, err := f.feeds.Create(FeedServiceOptions{
		EnergyType: domain.EnergyTypeSolar,
		Device:     cfg.Device,
		Mode:       cfg.Solar,
		Publisher:  publisher,
		Username:   cfg.Username,
		Password:   cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("solar meter: %w", err)
	}

	surface := service.NewGroup("mqtt", f.deps.Logger, publisher, grid, solar)
	if cfg.StatusPort == 0 {
		return surface, nil
	}
	status := server.NewStatusServer(cfg.StatusPort, f.deps.HttpLog, surface, f.deps.Logger)
	return service.NewGroup("mqtt-status", f.deps.Logger, surface, status), nil
}

func bridgeDevice(model string) domain.Device {
	if model == "" {
		model = "mock"
	}
	return domain.Device{
		Id:           domain.DEVICE_ID_BRIDGE,
		Name:         "V2C energy bridge",
		Version:      versioninfo.Short(),
		Model:        model,
		Manufacturer: "v2ca",
	}
}
