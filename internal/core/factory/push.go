package factory

import (
	"fmt"

	"github.com/berfenger/v2ca/internal/adapter/broker"
	"github.com/berfenger/v2ca/internal/config"
	"github.com/berfenger/v2ca/internal/core/domain"
	"github.com/berfenger/v2ca/internal/core/port"
	"github.com/berfenger/v2ca/internal/core/service"
	"github.com/berfenger/v2ca/internal/mqtt"
	"go.uber.org/zap"
)

type PushServiceOptions struct {
	EnergyType domain.EnergyType
	Device     string
	Mode       config.PushMode
	Callback   EnergyCallback
	Username   string
	Password   string
}

// PushServiceFactory delivers a reading every time a device status arrives
// on the bridged topic.
type PushServiceFactory struct {
	deps Dependencies
}

func NewPushServiceFactory(deps Dependencies) *PushServiceFactory {
	return &PushServiceFactory{deps: deps}
}

func (f *PushServiceFactory) Create(opts PushServiceOptions) (port.ExecutableService, error) {
	switch feed := opts.Mode.Feed.(type) {
	case config.BridgeFeed:
		adapter, err := f.deps.adapter(opts.Device)
		if err != nil {
			return nil, err
		}
		dialer := f.deps.dialer(mqtt.Options{
			Username: opts.Username,
			Password: opts.Password,
			ClientId: fmt.Sprintf("%s_%s", domain.DEVICE_ID_BRIDGE, opts.EnergyType),
		})
		return broker.NewBridgeService[domain.RawDeviceStatus, domain.EnergyInformation](
			broker.BridgeConfig{URL: feed.URL, Topic: feed.Topic},
			dialer,
			f.deps.System,
			adapter,
			opts.Callback,
			f.deps.Logger.With(zap.String("meter", string(opts.EnergyType))),
		), nil
	case config.OffFeed:
		return service.NewNoOpService(fmt.Sprintf("push-%s-off", opts.EnergyType), f.deps.Logger), nil
	default:
		return nil, unsupported("push feed", feed)
	}
}
