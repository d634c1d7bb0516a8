// Copyright (c) 2025 GraphRAG Accelerator Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package telemetry

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// DimensionsKey is the single top-level attribute key the telemetry
// backend expects structured properties under.
const DimensionsKey = "custom_dimensions"

// ExceptionInfo carries exception capture metadata for error records.
type ExceptionInfo struct {
	Type       string
	Message    string
	Stacktrace string
}

// Record is one structured log record submitted to a [Channel].
type Record struct {
	Severity log.Severity

	Message string

	// Dimensions is the flat structured-property bag attached to the
	// record under [DimensionsKey]. A nil map attaches nothing.
	Dimensions map[string]any

	Exception *ExceptionInfo
}

// Channel is a named logging destination bound once to an export pipeline.
// Submission is fire-and-forget: buffering, batching and delivery are owned
// by the pipeline.
type Channel struct {
	name     string
	logger   log.Logger
	provider *sdklog.LoggerProvider
}

// Name returns the collision-free name the channel was provisioned under.
func (c *Channel) Name() string {
	return c.name
}

// Submit enqueues one record onto the channel's export pipeline.
func (c *Channel) Submit(ctx context.Context, rec Record) {
	var r log.Record
	r.SetTimestamp(time.Now())
	r.SetSeverity(rec.Severity)
	r.SetSeverityText(severityText(rec.Severity))
	r.SetBody(log.StringValue(rec.Message))

	if rec.Dimensions != nil {
		r.AddAttributes(log.Map(DimensionsKey, dimensionKVs(rec.Dimensions)...))
	}
	if rec.Exception != nil {
		r.AddAttributes(
			log.String("exception.type", rec.Exception.Type),
			log.String("exception.message", rec.Exception.Message),
			log.String("exception.stacktrace", rec.Exception.Stacktrace),
		)
	}

	c.logger.Emit(ctx, r)
}

// Flush forces the channel's pipeline to export all buffered records.
func (c *Channel) Flush(ctx context.Context) error {
	return c.provider.ForceFlush(ctx)
}

// Shutdown flushes and shuts down the channel's pipeline. The channel
// must not be used afterwards.
func (c *Channel) Shutdown(ctx context.Context) error {
	return c.provider.Shutdown(ctx)
}

func dimensionKVs(dims map[string]any) []log.KeyValue {
	kvs := make([]log.KeyValue, 0, len(dims))
	for _, k := range slices.Sorted(maps.Keys(dims)) {
		kvs = append(kvs, log.KeyValue{Key: k, Value: dimensionValue(dims[k])})
	}
	return kvs
}

func dimensionValue(v any) log.Value {
	switch x := v.(type) {
	case nil:
		return log.StringValue("")
	case string:
		return log.StringValue(x)
	case bool:
		return log.BoolValue(x)
	case int:
		return log.Int64Value(int64(x))
	case int8:
		return log.Int64Value(int64(x))
	case int16:
		return log.Int64Value(int64(x))
	case int32:
		return log.Int64Value(int64(x))
	case int64:
		return log.Int64Value(x)
	case uint:
		return log.Int64Value(int64(x))
	case uint8:
		return log.Int64Value(int64(x))
	case uint16:
		return log.Int64Value(int64(x))
	case uint32:
		return log.Int64Value(int64(x))
	case float32:
		return log.Float64Value(float64(x))
	case float64:
		return log.Float64Value(x)
	case []byte:
		return log.BytesValue(x)
	case error:
		return log.StringValue(x.Error())
	case fmt.Stringer:
		return log.StringValue(x.String())
	default:
		return log.StringValue(fmt.Sprint(x))
	}
}
