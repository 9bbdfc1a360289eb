package factory

import (
	"github.com/berfenger/v2ca/internal/config"
	"github.com/berfenger/v2ca/internal/core/domain"
	"github.com/berfenger/v2ca/internal/core/provider"
)

type StatusProviderOptions struct {
	EnergyType domain.EnergyType
	Device     string
	Feed       config.RestFeed
}

// StatusProviderFactory builds the status provider of a rest surface meter.
type StatusProviderFactory struct {
	deps Dependencies
}

func NewStatusProviderFactory(deps Dependencies) *StatusProviderFactory {
	return &StatusProviderFactory{deps: deps}
}

func (f *StatusProviderFactory) Create(opts StatusProviderOptions) (StatusProvider, error) {
	switch feed := opts.Feed.(type) {
	case config.RestAdapterFeed:
		deviceFactory, err := f.deps.provider(opts.Device)
		if err != nil {
			return nil, err
		}
		return deviceFactory.Create(domain.DeviceProviderOptions{
			EnergyType: opts.EnergyType,
			Host:       feed.Ip,
		})
	case config.RestMockFeed:
		return provider.NewFixedValueProvider(feed.Value), nil
	case config.OffFeed:
		return provider.NewFixedValueProvider[domain.RawDeviceStatus](nil), nil
	default:
		return nil, unsupported("rest feed", feed)
	}
}
