package provider

import (
	"context"

	"github.com/berfenger/v2ca/internal/core/port"
)

// AdapterProvider fetches from a wrapped provider and adapts the result.
// Errors of the wrapped provider are returned unchanged.
type AdapterProvider[T, K any] struct {
	provider port.Provider[T]
	adapter  port.Adapter[T, K]
}

func NewAdapterProvider[T, K any](provider port.Provider[T], adapter port.Adapter[T, K]) *AdapterProvider[T, K] {
	return &AdapterProvider[T, K]{
		provider: provider,
		adapter:  adapter,
	}
}

func (p *AdapterProvider[T, K]) Get(ctx context.Context) (K, error) {
	value, err := p.provider.Get(ctx)
	if err != nil {
		var zero K
		return zero, err
	}
	return p.adapter.Adapt(ctx, value)
}

// AdapterProviderFactory composes a provider factory with a fixed adapter.
type AdapterProviderFactory[O, T, K any] struct {
	factory port.ProviderFactory[O, T]
	adapter port.Adapter[T, K]
}

func NewAdapterProviderFactory[O, T, K any](factory port.ProviderFactory[O, T], adapter port.Adapter[T, K]) *AdapterProviderFactory[O, T, K] {
	return &AdapterProviderFactory[O, T, K]{
		factory: factory,
		adapter: adapter,
	}
}

func (f *AdapterProviderFactory[O, T, K]) Create(options O) (port.Provider[K], error) {
	p, err := f.factory.Create(options)
	if err != nil {
		return nil, err
	}
	return NewAdapterProvider(p, f.adapter), nil
}
