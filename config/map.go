// Copyright (c) 2025 GraphRAG Accelerator Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"fmt"
	"strings"
)

// Map is an ordinary map[string]any but implements the [Source] interface.
type Map map[string]any

// Apply implements the [Source] interface. It recursively walks the
// underlying map to find key value pairs to set on the given store.
func (m Map) Apply(store Store) error {
	return walkMap(m, nil, store)
}

func walkMap(m map[string]any, path []string, store Store) error {
	for k, v := range m {
		sub, ok := v.(map[string]any)
		if !ok {
			err := store.Set(append(path, k), v)
			if err != nil {
				return err
			}
			continue
		}

		err := walkMap(sub, append(path, k), store)
		if err != nil {
			return err
		}
	}
	return nil
}

// nestedStore rebuilds the nested map structure from key paths so the
// merged view can be decoded directly with mapstructure.
type nestedStore map[string]any

// EmptyPathError occurs when a [Source] tries to set a value with no key.
type EmptyPathError struct {
	Value any
}

// Error implements the [builtin.error] interface.
func (e EmptyPathError) Error() string {
	return fmt.Sprintf("attempted to set config value with an empty key path: %v", e.Value)
}

// KeyShadowingError occurs when a [Source] tries to nest values under
// a key that a previous source already set to a scalar value.
type KeyShadowingError struct {
	Path []string
}

// Error implements the [builtin.error] interface.
func (e KeyShadowingError) Error() string {
	return fmt.Sprintf("config key already holds a non-map value: %s", strings.Join(e.Path, "."))
}

// Set implements the [Store] interface.
func (s nestedStore) Set(path []string, value any) error {
	if len(path) == 0 {
		return EmptyPathError{Value: value}
	}
	if len(path) == 1 {
		s[path[0]] = value
		return nil
	}

	old, ok := s[path[0]]
	if !ok {
		old = make(nestedStore)
		s[path[0]] = old
	}
	sub, ok := old.(nestedStore)
	if !ok {
		return KeyShadowingError{Path: path}
	}
	return sub.Set(path[1:], value)
}
