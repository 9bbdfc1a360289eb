package factory

import (
	"fmt"

	"github.com/berfenger/v2ca/internal/config"
	"github.com/berfenger/v2ca/internal/core/domain"
	"github.com/berfenger/v2ca/internal/core/port"
	"github.com/berfenger/v2ca/internal/core/provider"
	"github.com/berfenger/v2ca/internal/core/service"
)

type PullServiceOptions struct {
	EnergyType domain.EnergyType
	Device     string
	Mode       config.PullMode
	Callback   EnergyCallback
}

// PullServiceFactory polls the configured feed at a fixed interval.
type PullServiceFactory struct {
	deps Dependencies
}

func NewPullServiceFactory(deps Dependencies) *PullServiceFactory {
	return &PullServiceFactory{deps: deps}
}

func (f *PullServiceFactory) Create(opts PullServiceOptions) (port.ExecutableService, error) {
	p, err := f.energyProvider(opts)
	if err != nil {
		return nil, err
	}
	name := fmt.Sprintf("pull-%s", opts.EnergyType)
	return service.NewPullPushService(name, p, opts.Callback, opts.Mode.Interval, f.deps.Logger).
		WithClock(f.deps.clock()), nil
}

func (f *PullServiceFactory) energyProvider(opts PullServiceOptions) (port.Provider[*domain.EnergyInformation], error) {
	switch feed := opts.Mode.Feed.(type) {
	case config.PullAdapterFeed:
		deviceFactory, err := f.deps.provider(opts.Device)
		if err != nil {
			return nil, err
		}
		adapter, err := f.deps.adapter(opts.Device)
		if err != nil {
			return nil, err
		}
		return provider.NewAdapterProviderFactory(deviceFactory, adapter).Create(domain.DeviceProviderOptions{
			EnergyType: opts.EnergyType,
			Host:       feed.TargetIp,
		})
	case config.PullMockFeed:
		return provider.NewFixedValueProvider(feed.Value), nil
	case config.OffFeed:
		return provider.NewFixedValueProvider[domain.EnergyInformation](nil), nil
	default:
		return nil, unsupported("pull feed", feed)
	}
}
