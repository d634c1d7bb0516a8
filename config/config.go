// Copyright (c) 2025 GraphRAG Accelerator Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package config provides easy to use and extensible configuration
// management capabilities for the accelerator's logging components.
package config

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Store represents a general key value structure. Keys are paths of
// nested segments, e.g. ["monitor", "index_name"].
type Store interface {
	Set(path []string, value any) error
}

// Source defines valid config sources as those who can serialize
// themselves into a key value like structure.
type Source interface {
	Apply(Store) error
}

// Manager holds the merged view of one or more [Source]s.
type Manager struct {
	store nestedStore
}

// Read applies the given sources in order. Subsequent sources
// override previous sources.
func Read(srcs ...Source) (*Manager, error) {
	store := make(nestedStore)
	for _, src := range srcs {
		err := src.Apply(store)
		if err != nil {
			return nil, err
		}
	}
	return &Manager{store: store}, nil
}

// Unmarshal decodes the merged config values into v. Struct fields are
// matched via the "config" tag. String values are coerced into
// [time.Duration]s and [encoding.TextUnmarshaler] implementations.
func (m *Manager) Unmarshal(v any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "config",
		Result:  v,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.TextUnmarshallerHookFunc(),
		),
	})
	if err != nil {
		return err
	}

	err = dec.Decode(map[string]any(m.store))
	if err != nil {
		return UnmarshalError{Cause: err}
	}
	return nil
}

// UnmarshalError occurs when the merged config values can not be
// decoded into the caller supplied type.
type UnmarshalError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e UnmarshalError) Error() string {
	return fmt.Sprintf("failed to unmarshal config: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e UnmarshalError) Unwrap() error {
	return e.Cause
}
