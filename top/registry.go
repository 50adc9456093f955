package top

import "sync"

// Registry holds named values for the lifetime of one request. The first
// Set of a name wins.
type Registry struct {
	mutex   sync.RWMutex
	entries map[string]any
}

func NewRegistry() *Registry {
	return &Registry{
		entries: map[string]any{},
	}
}

// Set stores the value built by factory unless name is already present.
// It reports whether the value was stored. The factory is not called for
// names that already exist.
func (registry *Registry) Set(name string, factory func() any) bool {
	registry.mutex.RLock()
	_, found := registry.entries[name]
	registry.mutex.RUnlock()
	if found {
		return false
	}

	value := factory()

	registry.mutex.Lock()
	defer registry.mutex.Unlock()

	if _, found := registry.entries[name]; found {
		return false
	}
	registry.entries[name] = value

	return true
}

func (registry *Registry) Get(name string) (any, error) {
	registry.mutex.RLock()
	defer registry.mutex.RUnlock()

	value, found := registry.entries[name]
	if !found {
		return nil, &RegistryError{Name: name, Err: ErrNotRegistered}
	}

	return value, nil
}

func (registry *Registry) Unset(name string) {
	registry.mutex.Lock()
	defer registry.mutex.Unlock()

	delete(registry.entries, name)
}

// Lookup returns the value registered under name as a T.
func Lookup[T any](registry *Registry, name string) (T, error) {
	value, err := registry.Get(name)
	if err != nil {
		return *new(T), err
	}

	typed, ok := value.(T)
	if !ok {
		return *new(T), &RegistryError{Name: name, Err: ErrWrongType}
	}

	return typed, nil
}
