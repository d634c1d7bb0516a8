// Copyright (c) 2025 GraphRAG Accelerator Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package azuremonitor

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/rhassan91/graphrag-accelerator/httpclient"
	"github.com/rhassan91/graphrag-accelerator/telemetry"

	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"google.golang.org/grpc"
)

const instrumentationKeyHeader = "x-instrumentation-key"

type exporterOptions struct {
	client *http.Client
}

// ExporterOption configures the exporter builders.
type ExporterOption func(*exporterOptions)

// HTTPClient sets the HTTP client log records are shipped over.
// Defaults to [httpclient.New].
func HTTPClient(c *http.Client) ExporterOption {
	return func(o *exporterOptions) {
		o.client = c
	}
}

// BuildHTTPLogExporter returns a builder that creates a log exporter
// which ships records to the workspace's ingestion endpoint over
// OTLP/HTTP, authenticated with the instrumentation key.
func BuildHTTPLogExporter(cs ConnectionString, opts ...ExporterOption) telemetry.ExporterBuilder {
	o := &exporterOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.client == nil {
		o.client = httpclient.New()
	}

	return telemetry.ExporterBuilderFunc(func(ctx context.Context) (sdklog.Exporter, error) {
		endpoint, err := url.JoinPath(cs.IngestionEndpoint, "v1", "logs")
		if err != nil {
			return nil, err
		}

		return otlploghttp.New(
			ctx,
			otlploghttp.WithEndpointURL(endpoint),
			otlploghttp.WithHeaders(map[string]string{
				instrumentationKeyHeader: cs.InstrumentationKey,
			}),
			otlploghttp.WithHTTPClient(o.client),
		)
	})
}

// BuildGRPCLogExporter returns a builder that creates a log exporter
// which ships records to an OTLP-compatible collector over the provided
// gRPC connection.
func BuildGRPCLogExporter(conn *grpc.ClientConn) telemetry.ExporterBuilder {
	return telemetry.ExporterBuilderFunc(func(ctx context.Context) (sdklog.Exporter, error) {
		return otlploggrpc.New(
			ctx,
			otlploggrpc.WithGRPCConn(conn),
		)
	})
}

// BuildStdoutLogExporter returns a builder that creates a log exporter
// which writes records to the given writer in a human-readable format.
// It is meant for local development.
func BuildStdoutLogExporter(w io.Writer) telemetry.ExporterBuilder {
	return telemetry.ExporterBuilderFunc(func(ctx context.Context) (sdklog.Exporter, error) {
		return stdoutlog.New(
			stdoutlog.WithWriter(w),
			stdoutlog.WithPrettyPrint(),
		)
	})
}
