package registry

// Registry is a string-keyed lookup table populated once at startup.
// Registering an existing key overwrites the previous value.
// It is not synchronised and must not be written after services start.
type Registry[T any] struct {
	entries map[string]T
}

func New[T any]() *Registry[T] {
	return &Registry[T]{entries: make(map[string]T)}
}

func (r *Registry[T]) Register(key string, value T) {
	r.entries[key] = value
}

func (r *Registry[T]) Get(key string) (T, bool) {
	v, ok := r.entries[key]
	return v, ok
}
