// Copyright (c) 2025 GraphRAG Accelerator Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package workflow defines the lifecycle notification contract emitted by the
// indexing engine while its workflows run.
package workflow

import "context"

// Callbacks is the set of lifecycle hooks the indexing engine invokes while
// running workflows. Hooks are called synchronously, one at a time, and their
// return values are not consumed by the engine. Implementations must not fail
// for the logging hooks under valid input; OnMeasure is the only hook an
// implementation may declare unsupported.
type Callbacks interface {
	// OnWorkflowStart is invoked when a workflow starts. The instance value
	// is an opaque marker owned by the engine.
	OnWorkflowStart(ctx context.Context, name string, instance any) error

	// OnWorkflowEnd is invoked when a workflow completes.
	OnWorkflowEnd(ctx context.Context, name string, instance any) error

	// OnError is invoked when an error occurs. The cause and stack may be
	// absent and details may be nil.
	OnError(ctx context.Context, message string, cause error, stack string, details map[string]any) error

	// OnWarning is invoked when a warning occurs.
	OnWarning(ctx context.Context, message string, details map[string]any) error

	// OnLog is invoked for plain log messages.
	OnLog(ctx context.Context, message string, details map[string]any) error

	// OnMeasure is invoked when a numeric measurement is reported.
	OnMeasure(ctx context.Context, name string, value float64, details map[string]any) error
}
