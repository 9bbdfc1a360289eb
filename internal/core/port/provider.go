package port

import "context"

// Provider yields a value on demand. Each call performs a fresh fetch;
// implementations must not cache. Absent values are represented by a nil T
// when T is a pointer type.
type Provider[T any] interface {
	Get(ctx context.Context) (T, error)
}

// Adapter converts a value of one type into another. Adapt is pure and may
// return an absent result without an error.
type Adapter[T, K any] interface {
	Adapt(ctx context.Context, value T) (K, error)
}

// Factory builds a T from options. Create performs no I/O.
type Factory[O, T any] interface {
	Create(options O) (T, error)
}

type ProviderFactory[O, T any] interface {
	Factory[O, Provider[T]]
}

// ProviderFunc adapts a plain function to the Provider interface.
type ProviderFunc[T any] func(ctx context.Context) (T, error)

func (f ProviderFunc[T]) Get(ctx context.Context) (T, error) {
	return f(ctx)
}

type AdapterFunc[T, K any] func(ctx context.Context, value T) (K, error)

func (f AdapterFunc[T, K]) Adapt(ctx context.Context, value T) (K, error) {
	return f(ctx, value)
}

type ProviderFactoryFunc[O, T any] func(options O) (Provider[T], error)

func (f ProviderFactoryFunc[O, T]) Create(options O) (Provider[T], error) {
	return f(options)
}
