package provider

import (
	"context"
	"sync/atomic"

	"github.com/berfenger/v2ca/internal/core/port"
)

// FixedValueProvider holds a single optional value. Get never fails and
// returns nil when the slot is empty.
type FixedValueProvider[T any] struct {
	slot atomic.Pointer[T]
}

func NewFixedValueProvider[T any](value *T) *FixedValueProvider[T] {
	p := &FixedValueProvider[T]{}
	p.slot.Store(value)
	return p
}

func (p *FixedValueProvider[T]) Get(_ context.Context) (*T, error) {
	return p.slot.Load(), nil
}

func (p *FixedValueProvider[T]) Value() *T {
	return p.slot.Load()
}

// Set replaces the held value. Readers observe either the previous or the new
// value, never a partial one.
func (p *FixedValueProvider[T]) Set(value *T) {
	p.slot.Store(value)
}

// FixedValueProviderFactory creates providers seeded with a configured value.
// The options passed to Create are ignored.
type FixedValueProviderFactory[O, T any] struct {
	value *T
}

func NewFixedValueProviderFactory[O, T any](value *T) *FixedValueProviderFactory[O, T] {
	return &FixedValueProviderFactory[O, T]{value: value}
}

func (f *FixedValueProviderFactory[O, T]) Create(_ O) (port.Provider[*T], error) {
	return NewFixedValueProvider(f.value), nil
}
