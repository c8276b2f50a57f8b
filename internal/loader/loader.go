// Package loader memoises point lookups for the lifetime of one request.
// A Loader must not outlive the request that created it.
package loader

import (
	"context"
	"sync"
)

// FetchFunc loads one value by key. A nil value with a nil error means "not found".
type FetchFunc[T any] func(ctx context.Context, key string) (*T, error)

type entry[T any] struct {
	val *T
	err error
}

// Loader caches FetchFunc results by key, errors included.
type Loader[T any] struct {
	fetch FetchFunc[T]
	mu    sync.Mutex
	cache map[string]entry[T]
}

// New creates a request-scoped loader.
func New[T any](fetch FetchFunc[T]) *Loader[T] {
	return &Loader[T]{fetch: fetch, cache: make(map[string]entry[T])}
}

// Load returns the value for key, fetching it at most once.
func (l *Loader[T]) Load(ctx context.Context, key string) (*T, error) {
	l.mu.Lock()
	if e, ok := l.cache[key]; ok {
		l.mu.Unlock()
		return e.val, e.err
	}
	l.mu.Unlock()

	val, err := l.fetch(ctx, key)

	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.cache[key]; ok {
		return e.val, e.err
	}
	l.cache[key] = entry[T]{val: val, err: err}
	return val, err
}

// Prime stores a known value, e.g. a record that was just written.
func (l *Loader[T]) Prime(key string, val *T) {
	l.mu.Lock()
	l.cache[key] = entry[T]{val: val}
	l.mu.Unlock()
}

