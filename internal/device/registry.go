package device

import (
	"github.com/berfenger/v2ca/internal/core/domain"
	"github.com/berfenger/v2ca/internal/core/port"
	"github.com/berfenger/v2ca/internal/device/shellyproem"
	"github.com/berfenger/v2ca/internal/device/sunspec"
	"github.com/berfenger/v2ca/internal/registry"
	"go.uber.org/zap"
)

type StatusProviderFactory = port.ProviderFactory[domain.DeviceProviderOptions, *domain.RawDeviceStatus]

type StatusAdapter = port.Adapter[*domain.RawDeviceStatus, *domain.EnergyInformation]

// Process wide registries, filled by RegisterAll before any service is built.
var (
	Providers = registry.New[StatusProviderFactory]()
	Adapters  = registry.New[StatusAdapter]()
)

// RegisterAll registers every built-in device module.
func RegisterAll(logger *zap.Logger) {
	Providers.Register(shellyproem.DEVICE_NAME, shellyproem.NewProviderFactory(nil))
	Adapters.Register(shellyproem.DEVICE_NAME, shellyproem.EnergyInformationAdapter{})

	Providers.Register(sunspec.DEVICE_NAME, sunspec.NewProviderFactory(logger.With(zap.String("device", sunspec.DEVICE_NAME))))
	Adapters.Register(sunspec.DEVICE_NAME, shellyproem.EnergyInformationAdapter{})

	logger.Debug("device modules registered", zap.Strings("devices", []string{shellyproem.DEVICE_NAME, sunspec.DEVICE_NAME}))
}
