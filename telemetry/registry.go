// Copyright (c) 2025 GraphRAG Accelerator Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package telemetry provisions uniquely named logging channels bound to a
// telemetry export pipeline.
package telemetry

import "sync"

// Registry tracks the channel names already claimed within this process.
// Names are never released for the lifetime of the process.
type Registry struct {
	mu    sync.Mutex
	names map[string]struct{}
}

// NewRegistry returns an empty [Registry].
func NewRegistry() *Registry {
	return &Registry{
		names: make(map[string]struct{}),
	}
}

// Claim reserves the given name. It reports false if the name
// is already claimed.
func (r *Registry) Claim(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.names[name]
	if ok {
		return false
	}
	r.names[name] = struct{}{}
	return true
}

// Contains reports whether the given name has been claimed.
func (r *Registry) Contains(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.names[name]
	return ok
}

// Len returns the number of claimed names.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.names)
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide [Registry] shared by all
// provisioners that do not supply their own.
func DefaultRegistry() *Registry {
	return defaultRegistry
}
