// Copyright (c) 2025 GraphRAG Accelerator Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package workflow

import (
	"context"
	"errors"
)

type multiCallbacks []Callbacks

// MultiCallbacks returns a [Callbacks] that's the logical concatenation of
// the provided [Callbacks]. Every hook is forwarded to each of them
// sequentially, regardless of whether a previous one returned an error, and
// any errors are joined together. Nil entries are skipped.
func MultiCallbacks(cbs ...Callbacks) Callbacks {
	filtered := make(multiCallbacks, 0, len(cbs))
	for _, cb := range cbs {
		if cb != nil {
			filtered = append(filtered, cb)
		}
	}
	return filtered
}

func (mc multiCallbacks) each(f func(Callbacks) error) error {
	errs := make([]error, 0, len(mc))
	for _, cb := range mc {
		err := f(cb)
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}

// OnWorkflowStart implements the [Callbacks] interface.
func (mc multiCallbacks) OnWorkflowStart(ctx context.Context, name string, instance any) error {
	return mc.each(func(cb Callbacks) error {
		return cb.OnWorkflowStart(ctx, name, instance)
	})
}

// OnWorkflowEnd implements the [Callbacks] interface.
func (mc multiCallbacks) OnWorkflowEnd(ctx context.Context, name string, instance any) error {
	return mc.each(func(cb Callbacks) error {
		return cb.OnWorkflowEnd(ctx, name, instance)
	})
}

// OnError implements the [Callbacks] interface.
func (mc multiCallbacks) OnError(ctx context.Context, message string, cause error, stack string, details map[string]any) error {
	return mc.each(func(cb Callbacks) error {
		return cb.OnError(ctx, message, cause, stack, details)
	})
}

// OnWarning implements the [Callbacks] interface.
func (mc multiCallbacks) OnWarning(ctx context.Context, message string, details map[string]any) error {
	return mc.each(func(cb Callbacks) error {
		return cb.OnWarning(ctx, message, details)
	})
}

// OnLog implements the [Callbacks] interface.
func (mc multiCallbacks) OnLog(ctx context.Context, message string, details map[string]any) error {
	return mc.each(func(cb Callbacks) error {
		return cb.OnLog(ctx, message, details)
	})
}

// OnMeasure implements the [Callbacks] interface.
func (mc multiCallbacks) OnMeasure(ctx context.Context, name string, value float64, details map[string]any) error {
	return mc.each(func(cb Callbacks) error {
		return cb.OnMeasure(ctx, name, value, details)
	})
}
