// Copyright (c) 2025 GraphRAG Accelerator Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package insights adapts workflow lifecycle notifications into structured
// log records shipped to an Application Insights workspace.
package insights

import (
	"context"
	"fmt"
	"time"

	"github.com/rhassan91/graphrag-accelerator/azuremonitor"
	"github.com/rhassan91/graphrag-accelerator/internal/try"
	"github.com/rhassan91/graphrag-accelerator/telemetry"
	"github.com/rhassan91/graphrag-accelerator/workflow"

	"go.opentelemetry.io/otel/log"
)

// namePrefix prefixes every channel name provisioned by this package.
const namePrefix = "WorkflowCallbacks"

// Config carries the recognized construction options for [New].
type Config struct {
	// ConnectionString identifies the workspace records are shipped to.
	// Required unless an exporter is injected with [WithExporter].
	ConnectionString string `config:"connection_string"`

	// LoggerName is a display name for the logging channel. It is
	// recorded but always overridden by the collision-free name the
	// provisioner generates.
	LoggerName string `config:"logger_name"`

	// MinimumSeverity is the lowest severity the export pipeline ships.
	// Defaults to [telemetry.SeverityInfo].
	MinimumSeverity telemetry.Severity `config:"minimum_severity"`

	// IndexName prefixes every message with "Index: {name} -- " when set.
	IndexName string `config:"index_name"`

	// NumWorkflowSteps enables the " (i/N)" progress suffix on workflow
	// start and end messages when non-zero.
	NumWorkflowSteps int `config:"num_workflow_steps"`

	// FlushInterval is how often buffered records are exported.
	// Defaults to [telemetry.DefaultFlushInterval].
	FlushInterval time.Duration `config:"flush_interval"`

	// Properties are merged into every record's custom dimensions.
	Properties map[string]any `config:"properties"`
}

type options struct {
	exporter    telemetry.ExporterBuilder
	registry    *telemetry.Registry
	retryBudget int
}

// Option configures [New] beyond the recognized [Config] options.
type Option func(*options)

// WithExporter injects the exporter the channel's pipeline wraps,
// instead of building one from the connection string.
func WithExporter(b telemetry.ExporterBuilder) Option {
	return func(o *options) {
		o.exporter = b
	}
}

// WithRegistry sets the channel name registry used during provisioning.
// Defaults to [telemetry.DefaultRegistry].
func WithRegistry(r *telemetry.Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}

// WithRetryBudget sets how many candidate channel names provisioning
// tries before failing. Defaults to [telemetry.DefaultRetryBudget].
func WithRetryBudget(n int) Option {
	return func(o *options) {
		o.retryBudget = n
	}
}

// WorkflowCallbacks writes workflow lifecycle notifications to an
// Application Insights workspace.
//
// Hooks are expected to be invoked synchronously by a single caller,
// one at a time; the step history is not guarded against concurrent
// appends.
type WorkflowCallbacks struct {
	channel          *telemetry.Channel
	properties       map[string]any
	workflowName     string
	indexName        string
	numWorkflowSteps int
	processedSteps   []string
}

var _ workflow.Callbacks = (*WorkflowCallbacks)(nil)

// New provisions a collision-free logging channel bound to the
// workspace's export pipeline and returns a [WorkflowCallbacks] writing
// to it. If no channel name can be claimed within the retry budget it
// fails with [telemetry.ProvisioningExhaustedError] and no callbacks
// value exists.
func New(ctx context.Context, cfg Config, opts ...Option) (_ *WorkflowCallbacks, err error) {
	defer try.Recover(&err)

	o := &options{
		registry:    telemetry.DefaultRegistry(),
		retryBudget: telemetry.DefaultRetryBudget,
	}
	for _, opt := range opts {
		opt(o)
	}

	exporter := o.exporter
	if exporter == nil {
		cs, err := azuremonitor.ParseConnectionString(cfg.ConnectionString)
		if err != nil {
			return nil, err
		}
		exporter = azuremonitor.BuildHTTPLogExporter(cs)
	}

	minSeverity := cfg.MinimumSeverity
	if minSeverity == "" {
		minSeverity = telemetry.SeverityInfo
	}
	flushInterval := cfg.FlushInterval
	if flushInterval <= 0 {
		flushInterval = telemetry.DefaultFlushInterval
	}

	p := telemetry.NewProvisioner(
		namePrefix,
		exporter,
		telemetry.WithRegistry(o.registry),
		telemetry.WithRetryBudget(o.retryBudget),
		telemetry.WithFlushInterval(flushInterval),
		telemetry.WithMinimumSeverity(minSeverity),
	)
	channel, err := p.Provision(ctx)
	if err != nil {
		return nil, err
	}

	properties := cfg.Properties
	if properties == nil {
		properties = make(map[string]any)
	}

	return &WorkflowCallbacks{
		channel:          channel,
		properties:       properties,
		workflowName:     "N/A",
		indexName:        cfg.IndexName,
		numWorkflowSteps: cfg.NumWorkflowSteps,
	}, nil
}

// LoggerName returns the collision-free name the logging channel was
// provisioned under.
func (c *WorkflowCallbacks) LoggerName() string {
	return c.channel.Name()
}

// WorkflowName returns the name of the most recently started workflow,
// or "N/A" before any workflow has started.
func (c *WorkflowCallbacks) WorkflowName() string {
	return c.workflowName
}

// Flush forces the underlying export pipeline to ship all buffered records.
func (c *WorkflowCallbacks) Flush(ctx context.Context) error {
	return c.channel.Flush(ctx)
}

// Shutdown flushes and shuts down the underlying export pipeline.
func (c *WorkflowCallbacks) Shutdown(ctx context.Context) error {
	return c.channel.Shutdown(ctx)
}

// OnWorkflowStart implements the [workflow.Callbacks] interface. It
// appends the workflow to the step history and emits an informational
// record announcing the start.
func (c *WorkflowCallbacks) OnWorkflowStart(ctx context.Context, name string, instance any) error {
	c.workflowName = name
	c.processedSteps = append(c.processedSteps, name)

	details := map[string]any{"workflow_name": name}
	if c.indexName != "" {
		details["index_name"] = c.indexName
	}

	c.channel.Submit(ctx, telemetry.Record{
		Severity:   log.SeverityInfo,
		Message:    fmt.Sprintf("%sWorkflow%s: %s started.", c.indexPrefix(), c.progressSuffix(), name),
		Dimensions: c.formatDimensions(details),
	})
	return nil
}

// OnWorkflowEnd implements the [workflow.Callbacks] interface. The step
// history is only updated on start, so the progress suffix reports the
// count as of the last started workflow.
func (c *WorkflowCallbacks) OnWorkflowEnd(ctx context.Context, name string, instance any) error {
	details := map[string]any{"workflow_name": name}
	if c.indexName != "" {
		details["index_name"] = c.indexName
	}

	c.channel.Submit(ctx, telemetry.Record{
		Severity:   log.SeverityInfo,
		Message:    fmt.Sprintf("%sWorkflow%s: %s complete.", c.indexPrefix(), c.progressSuffix(), name),
		Dimensions: c.formatDimensions(details),
	})
	return nil
}

// OnError implements the [workflow.Callbacks] interface. The record's
// dimensions always carry the stringified cause and the stack, even
// when both are absent; caller supplied details win on key collision.
func (c *WorkflowCallbacks) OnError(ctx context.Context, message string, cause error, stack string, details map[string]any) error {
	merged := map[string]any{
		"cause": fmt.Sprint(cause),
		"stack": stack,
	}
	for k, v := range details {
		merged[k] = v
	}

	rec := telemetry.Record{
		Severity:   log.SeverityError,
		Message:    message,
		Dimensions: c.formatDimensions(merged),
	}
	if cause != nil {
		rec.Exception = &telemetry.ExceptionInfo{
			Type:       fmt.Sprintf("%T", cause),
			Message:    cause.Error(),
			Stacktrace: stack,
		}
	}

	c.channel.Submit(ctx, rec)
	return nil
}

// OnWarning implements the [workflow.Callbacks] interface.
func (c *WorkflowCallbacks) OnWarning(ctx context.Context, message string, details map[string]any) error {
	c.channel.Submit(ctx, telemetry.Record{
		Severity:   log.SeverityWarn,
		Message:    message,
		Dimensions: c.formatDimensions(details),
	})
	return nil
}

// OnLog implements the [workflow.Callbacks] interface.
func (c *WorkflowCallbacks) OnLog(ctx context.Context, message string, details map[string]any) error {
	c.channel.Submit(ctx, telemetry.Record{
		Severity:   log.SeverityInfo,
		Message:    message,
		Dimensions: c.formatDimensions(details),
	})
	return nil
}

// OnMeasure implements the [workflow.Callbacks] interface. Numeric
// measurements are not supported by this logger: it always fails with
// [UnsupportedOperationError] and never emits a record.
func (c *WorkflowCallbacks) OnMeasure(ctx context.Context, name string, value float64, details map[string]any) error {
	return UnsupportedOperationError{Operation: "OnMeasure"}
}

func (c *WorkflowCallbacks) indexPrefix() string {
	if c.indexName == "" {
		return ""
	}
	return fmt.Sprintf("Index: %s -- ", c.indexName)
}

// progressSuffix takes the form " (1/4)".
func (c *WorkflowCallbacks) progressSuffix() string {
	if c.numWorkflowSteps == 0 {
		return ""
	}
	return fmt.Sprintf(" (%d/%d)", len(c.processedSteps), c.numWorkflowSteps)
}

// UnsupportedOperationError occurs when a hook this logger declares no
// support for is invoked.
type UnsupportedOperationError struct {
	Operation string
}

// Error implements the [builtin.error] interface.
func (e UnsupportedOperationError) Error() string {
	return fmt.Sprintf("%s is not supported by this logger", e.Operation)
}
