// Copyright (c) 2025 GraphRAG Accelerator Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package workflow

import "context"

// NoopCallbacks discards every lifecycle notification. Embed it to implement
// [Callbacks] while only overriding the hooks you care about.
type NoopCallbacks struct{}

var _ Callbacks = NoopCallbacks{}

// OnWorkflowStart implements the [Callbacks] interface.
func (NoopCallbacks) OnWorkflowStart(ctx context.Context, name string, instance any) error {
	return nil
}

// OnWorkflowEnd implements the [Callbacks] interface.
func (NoopCallbacks) OnWorkflowEnd(ctx context.Context, name string, instance any) error {
	return nil
}

// OnError implements the [Callbacks] interface.
func (NoopCallbacks) OnError(ctx context.Context, message string, cause error, stack string, details map[string]any) error {
	return nil
}

// OnWarning implements the [Callbacks] interface.
func (NoopCallbacks) OnWarning(ctx context.Context, message string, details map[string]any) error {
	return nil
}

// OnLog implements the [Callbacks] interface.
func (NoopCallbacks) OnLog(ctx context.Context, message string, details map[string]any) error {
	return nil
}

// OnMeasure implements the [Callbacks] interface.
func (NoopCallbacks) OnMeasure(ctx context.Context, name string, value float64, details map[string]any) error {
	return nil
}
