package pipeline

import (
	"reflect"
	"sync"
)

// Services is a type-keyed store for shared singletons (loggers, metric
// sinks, limiter state) that middleware can look up without global variables.
//
// It is typically populated once when a Pipeline is constructed and shared
// read-mostly across all requests it processes; the lock makes late Provide
// calls safe regardless.
type Services struct {
	mu      sync.RWMutex
	entries map[reflect.Type]any
}

// NewServices creates an empty registry.
func NewServices() *Services {
	return &Services{entries: make(map[reflect.Type]any)}
}

// Provide registers instance as the singleton for type T.
// Registration is idempotent per type: the last Provide wins.
func Provide[T any](s *Services, instance T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[typeOf[T]()] = instance
}

// Lookup returns the instance registered for type T.
// Absence is a normal, expected outcome (ok == false); Lookup never panics
// and never constructs a default instance.
func Lookup[T any](s *Services) (T, bool) {
	s.mu.RLock()
	v, ok := s.entries[typeOf[T]()]
	s.mu.RUnlock()

	if !ok {
		var zero T
		return zero, false
	}
	return v.(T), true
}

// Has reports whether a singleton for type T was provided.
func Has[T any](s *Services) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[typeOf[T]()]
	return ok
}

// typeOf returns the identity key for T, including interface types.
func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
