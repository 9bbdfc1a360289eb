package factory

import (
	"github.com/asynkron/protoactor-go/actor"
	"github.com/berfenger/v2ca/internal/core/domain"
	"github.com/berfenger/v2ca/internal/core/port"
	"github.com/berfenger/v2ca/internal/mqtt"
	"github.com/berfenger/v2ca/internal/registry"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

type (
	StatusProvider        = port.Provider[*domain.RawDeviceStatus]
	DeviceProviderFactory = port.ProviderFactory[domain.DeviceProviderOptions, *domain.RawDeviceStatus]
	StatusAdapter         = port.Adapter[*domain.RawDeviceStatus, *domain.EnergyInformation]
	EnergyCallback        = port.Callback[domain.EnergyInformation]
)

// Dependencies are the process wide collaborators shared by every factory.
type Dependencies struct {
	Providers *registry.Registry[DeviceProviderFactory]
	Adapters  *registry.Registry[StatusAdapter]
	System    *actor.ActorSystem
	// Dialer builds MQTT dialers, defaults to paho backed clients.
	Dialer  func(opts mqtt.Options) mqtt.Dialer
	Clock   clockwork.Clock
	HttpLog bool
	Logger  *zap.Logger
}

func (d Dependencies) dialer(opts mqtt.Options) mqtt.Dialer {
	if d.Dialer != nil {
		return d.Dialer(opts)
	}
	return mqtt.NewDialer(opts, d.Logger)
}

func (d Dependencies) clock() clockwork.Clock {
	if d.Clock != nil {
		return d.Clock
	}
	return clockwork.NewRealClock()
}

func (d Dependencies) provider(device string) (DeviceProviderFactory, error) {
	f, ok := d.Providers.Get(device)
	if !ok {
		return nil, notRegistered("provider", device)
	}
	return f, nil
}

func (d Dependencies) adapter(device string) (StatusAdapter, error) {
	a, ok := d.Adapters.Get(device)
	if !ok {
		return nil, notRegistered("adapter", device)
	}
	return a, nil
}
