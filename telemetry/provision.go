// Copyright (c) 2025 GraphRAG Accelerator Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/contrib/processors/minsev"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	// DefaultRetryBudget is how many candidate names a provisioner tries
	// before giving up.
	DefaultRetryBudget = 10

	// DefaultFlushInterval is how often the export pipeline ships
	// buffered records to the backend.
	DefaultFlushInterval = 60 * time.Second
)

// ExporterBuilder constructs the network exporter a channel's pipeline
// wraps. It is the injection point for the external telemetry sink, so
// tests can substitute an in-memory fake.
type ExporterBuilder interface {
	Build(ctx context.Context) (sdklog.Exporter, error)
}

// ExporterBuilderFunc is a functional implementation of
// the [ExporterBuilder] interface.
type ExporterBuilderFunc func(ctx context.Context) (sdklog.Exporter, error)

// Build implements the [ExporterBuilder] interface.
func (f ExporterBuilderFunc) Build(ctx context.Context) (sdklog.Exporter, error) {
	return f(ctx)
}

// ProvisioningExhaustedError occurs when a provisioner runs out of retry
// budget before finding an unclaimed channel name. No channel exists when
// it is returned.
type ProvisioningExhaustedError struct {
	Prefix   string
	Attempts int
}

// Error implements the [builtin.error] interface.
func (e ProvisioningExhaustedError) Error() string {
	return fmt.Sprintf("failed to disambiguate channel name for %q after %d attempts", e.Prefix, e.Attempts)
}

// Provisioner creates collision-free named channels, each bound once to
// its own export pipeline.
type Provisioner struct {
	prefix        string
	exporter      ExporterBuilder
	registry      *Registry
	retryBudget   int
	flushInterval time.Duration
	minSeverity   Severity
	now           func() time.Time
}

// ProvisionerOption configures a [Provisioner].
type ProvisionerOption func(*Provisioner)

// WithRegistry sets the name registry the provisioner claims channel
// names from. Defaults to [DefaultRegistry].
func WithRegistry(r *Registry) ProvisionerOption {
	return func(p *Provisioner) {
		p.registry = r
	}
}

// WithRetryBudget sets how many candidate names are tried before
// provisioning fails. Defaults to [DefaultRetryBudget].
func WithRetryBudget(n int) ProvisionerOption {
	return func(p *Provisioner) {
		p.retryBudget = n
	}
}

// WithFlushInterval sets the export pipeline's flush interval.
// Defaults to [DefaultFlushInterval].
func WithFlushInterval(d time.Duration) ProvisionerOption {
	return func(p *Provisioner) {
		p.flushInterval = d
	}
}

// WithMinimumSeverity sets the lowest severity the pipeline exports.
// Defaults to [SeverityInfo].
func WithMinimumSeverity(s Severity) ProvisionerOption {
	return func(p *Provisioner) {
		p.minSeverity = s
	}
}

// NewProvisioner returns a [Provisioner] which names its channels with
// the given prefix and ships their records through exporters built by
// the given [ExporterBuilder].
func NewProvisioner(prefix string, exporter ExporterBuilder, opts ...ProvisionerOption) *Provisioner {
	p := &Provisioner{
		prefix:        prefix,
		exporter:      exporter,
		registry:      DefaultRegistry(),
		retryBudget:   DefaultRetryBudget,
		flushInterval: DefaultFlushInterval,
		minSeverity:   SeverityInfo,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Provision creates a channel under a name no other channel in this
// process uses. Each candidate name is derived from the current time;
// claimed names are retried with a fresh candidate until the retry
// budget is exhausted, which fails with [ProvisioningExhaustedError].
//
// A successful provision registers the channel's logger provider as the
// process-wide default, as a byproduct of binding the export pipeline.
func (p *Provisioner) Provision(ctx context.Context) (*Channel, error) {
	for attempt := 0; attempt < p.retryBudget; attempt++ {
		name := CandidateName(p.prefix, attempt, p.now())
		if !p.registry.Claim(name) {
			continue
		}

		exporter, err := p.exporter.Build(ctx)
		if err != nil {
			return nil, err
		}

		processor := sdklog.NewBatchProcessor(
			exporter,
			sdklog.WithExportInterval(p.flushInterval),
		)
		provider := sdklog.NewLoggerProvider(
			sdklog.WithResource(resource.NewWithAttributes(
				semconv.SchemaURL,
				semconv.ServiceName(p.prefix),
			)),
			sdklog.WithProcessor(minsev.NewLogProcessor(processor, p.minSeverity.minimum())),
		)
		global.SetLoggerProvider(provider)

		return &Channel{
			name:     name,
			logger:   provider.Logger(name),
			provider: provider,
		}, nil
	}

	return nil, ProvisioningExhaustedError{
		Prefix:   p.prefix,
		Attempts: p.retryBudget,
	}
}
