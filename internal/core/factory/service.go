package factory

import (
	"github.com/berfenger/v2ca/internal/config"
	"github.com/berfenger/v2ca/internal/core/port"
)

// ExecutableServiceFactory selects the output surface named by the configuration.
type ExecutableServiceFactory struct {
	rest *RestServiceFactory
	mqtt *MqttServiceFactory
}

func NewExecutableServiceFactory(deps Dependencies) *ExecutableServiceFactory {
	return &ExecutableServiceFactory{
		rest: NewRestServiceFactory(deps),
		mqtt: NewMqttServiceFactory(deps),
	}
}

func (f *ExecutableServiceFactory) Create(cfg config.ProviderConfig) (port.ExecutableService, error) {
	switch c := cfg.(type) {
	case config.RestConfig:
		return f.rest.Create(c)
	case config.MqttConfig:
		return f.mqtt.Create(c)
	default:
		return nil, unsupported("provider", c)
	}
}
