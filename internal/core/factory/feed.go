package factory

import (
	"context"

	"github.com/berfenger/v2ca/internal/config"
	"github.com/berfenger/v2ca/internal/core/domain"
	"github.com/berfenger/v2ca/internal/core/port"
)

type FeedServiceOptions struct {
	EnergyType domain.EnergyType
	Device     string
	Mode       config.MeterMode
	Publisher  port.PowerPublisher
	Username   string
	Password   string
}

// FeedServiceFactory wires one mqtt surface meter to its publish callback.
type FeedServiceFactory struct {
	pull *PullServiceFactory
	push *PushServiceFactory
}

func NewFeedServiceFactory(deps Dependencies) *FeedServiceFactory {
	return &FeedServiceFactory{
		pull: NewPullServiceFactory(deps),
		push: NewPushServiceFactory(deps),
	}
}

func (f *FeedServiceFactory) Create(opts FeedServiceOptions) (port.ExecutableService, error) {
	callback := powerCallback(opts.EnergyType, opts.Publisher)
	switch mode := opts.Mode.(type) {
	case config.PullMode:
		return f.pull.Create(PullServiceOptions{
			EnergyType: opts.EnergyType,
			Device:     opts.Device,
			Mode:       mode,
			Callback:   callback,
		})
	case config.PushMode:
		return f.push.Create(PushServiceOptions{
			EnergyType: opts.EnergyType,
			Device:     opts.Device,
			Mode:       mode,
			Callback:   callback,
			Username:   opts.Username,
			Password:   opts.Password,
		})
	default:
		return nil, unsupported("meter mode", mode)
	}
}

func powerCallback(energyType domain.EnergyType, publisher port.PowerPublisher) EnergyCallback {
	publish := publisher.PublishGridPower
	if energyType == domain.EnergyTypeSolar {
		publish = publisher.PublishSunPower
	}
	return func(ctx context.Context, info domain.EnergyInformation) error {
		return publish(ctx, info.Power)
	}
}
