package factory

import (
	"fmt"

	"github.com/berfenger/v2ca/internal/config"
	"github.com/berfenger/v2ca/internal/core/domain"
	"github.com/berfenger/v2ca/internal/core/port"
	"github.com/berfenger/v2ca/internal/server"
)

// RestServiceFactory builds the status RPC emulator of the rest surface.
type RestServiceFactory struct {
	deps      Dependencies
	providers *StatusProviderFactory
}

func NewRestServiceFactory(deps Dependencies) *RestServiceFactory {
	return &RestServiceFactory{deps: deps, providers: NewStatusProviderFactory(deps)}
}

func (f *RestServiceFactory) Create(cfg config.RestConfig) (port.ExecutableService, error) {
	grid, err := f.providers.Create(StatusProviderOptions{
		EnergyType: domain.EnergyTypeGrid,
		Device:     cfg.Device,
		Feed:       cfg.Grid,
	})
	if err != nil {
		return nil, fmt.Errorf("grid meter: %w", err)
	}
	solar, err := f.providers.Create(StatusProviderOptions{
		EnergyType: domain.EnergyTypeSolar,
		Device:     cfg.Device,
		Feed:       cfg.Solar,
	})
	if err != nil {
		return nil, fmt.Errorf("solar meter: %w", err)
	}
	return server.NewRestService(server.RestOptions{
		Port:           cfg.Port,
		HttpLog:        f.deps.HttpLog,
		RateLimit:      cfg.RateLimit,
		RateLimitBurst: cfg.RateLimitBurst,
	}, grid, solar, f.deps.Logger), nil
}
