// Copyright (c) 2025 GraphRAG Accelerator Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package insights

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rhassan91/graphrag-accelerator/telemetry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

type captureExporter struct {
	mu      sync.Mutex
	records []sdklog.Record
}

var _ sdklog.Exporter = (*captureExporter)(nil)

func (e *captureExporter) Export(ctx context.Context, records []sdklog.Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, rec := range records {
		e.records = append(e.records, rec.Clone())
	}
	return nil
}

func (e *captureExporter) Shutdown(ctx context.Context) error {
	return nil
}

func (e *captureExporter) ForceFlush(ctx context.Context) error {
	return nil
}

func (e *captureExporter) Records(t *testing.T, cb *WorkflowCallbacks) []sdklog.Record {
	t.Helper()
	require.Nil(t, cb.Flush(context.Background()))

	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]sdklog.Record(nil), e.records...)
}

func newTestCallbacks(t *testing.T, cfg Config) (*WorkflowCallbacks, *captureExporter) {
	t.Helper()

	exporter := &captureExporter{}
	cb, err := New(
		context.Background(),
		cfg,
		WithExporter(telemetry.ExporterBuilderFunc(func(ctx context.Context) (sdklog.Exporter, error) {
			return exporter, nil
		})),
		WithRegistry(telemetry.NewRegistry()),
	)
	require.Nil(t, err)
	t.Cleanup(func() {
		_ = cb.Shutdown(context.Background())
	})
	return cb, exporter
}

func dimensions(t *testing.T, rec sdklog.Record) map[string]log.Value {
	t.Helper()

	var dims map[string]log.Value
	rec.WalkAttributes(func(kv log.KeyValue) bool {
		if kv.Key != telemetry.DimensionsKey {
			return true
		}
		dims = make(map[string]log.Value)
		for _, entry := range kv.Value.AsMap() {
			dims[entry.Key] = entry.Value
		}
		return false
	})
	return dims
}

func attributes(rec sdklog.Record) map[string]log.Value {
	attrs := make(map[string]log.Value)
	rec.WalkAttributes(func(kv log.KeyValue) bool {
		attrs[kv.Key] = kv.Value
		return true
	})
	return attrs
}

func TestWorkflowCallbacks_OnWorkflowStart(t *testing.T) {
	t.Run("will report progress", func(t *testing.T) {
		t.Run("if a step count is configured", func(t *testing.T) {
			cb, exporter := newTestCallbacks(t, Config{NumWorkflowSteps: 3})

			ctx := context.Background()
			require.Nil(t, cb.OnWorkflowStart(ctx, "create_base_text_units", nil))
			require.Nil(t, cb.OnWorkflowStart(ctx, "create_final_entities", nil))

			records := exporter.Records(t, cb)
			require.Len(t, records, 2)

			assert.Equal(t, "Workflow (1/3): create_base_text_units started.", records[0].Body().AsString())
			assert.Equal(t, "Workflow (2/3): create_final_entities started.", records[1].Body().AsString())
		})
	})

	t.Run("will omit the progress suffix", func(t *testing.T) {
		t.Run("if no step count is configured", func(t *testing.T) {
			cb, exporter := newTestCallbacks(t, Config{})

			require.Nil(t, cb.OnWorkflowStart(context.Background(), "create_base_text_units", nil))

			records := exporter.Records(t, cb)
			require.Len(t, records, 1)
			assert.Equal(t, "Workflow: create_base_text_units started.", records[0].Body().AsString())
		})
	})

	t.Run("will prefix the index label", func(t *testing.T) {
		t.Run("if an index name is configured", func(t *testing.T) {
			cb, exporter := newTestCallbacks(t, Config{IndexName: "myindex", NumWorkflowSteps: 3})

			ctx := context.Background()
			require.Nil(t, cb.OnWorkflowStart(ctx, "one", nil))
			require.Nil(t, cb.OnWorkflowEnd(ctx, "one", nil))

			records := exporter.Records(t, cb)
			require.Len(t, records, 2)
			for _, rec := range records {
				assert.True(
					t,
					strings.HasPrefix(rec.Body().AsString(), "Index: myindex -- "),
					"message %q is missing the index prefix",
					rec.Body().AsString(),
				)
			}

			dims := dimensions(t, records[0])
			require.NotNil(t, dims)
			assert.Equal(t, "myindex", dims["index_name"].AsString())
		})
	})

	t.Run("will omit the index prefix and dimension", func(t *testing.T) {
		t.Run("if no index name is configured", func(t *testing.T) {
			cb, exporter := newTestCallbacks(t, Config{})

			require.Nil(t, cb.OnWorkflowStart(context.Background(), "one", nil))

			records := exporter.Records(t, cb)
			require.Len(t, records, 1)

			rec := records[0]
			assert.False(t, strings.Contains(rec.Body().AsString(), "Index:"))

			dims := dimensions(t, rec)
			require.NotNil(t, dims)
			assert.Equal(t, "one", dims["workflow_name"].AsString())
			_, ok := dims["index_name"]
			assert.False(t, ok)
		})
	})

	t.Run("will track the workflow name", func(t *testing.T) {
		t.Run("if workflows start in sequence", func(t *testing.T) {
			cb, _ := newTestCallbacks(t, Config{})

			assert.Equal(t, "N/A", cb.WorkflowName())

			ctx := context.Background()
			require.Nil(t, cb.OnWorkflowStart(ctx, "one", nil))
			assert.Equal(t, "one", cb.WorkflowName())

			require.Nil(t, cb.OnWorkflowStart(ctx, "two", nil))
			assert.Equal(t, "two", cb.WorkflowName())
		})
	})
}

func TestWorkflowCallbacks_OnWorkflowEnd(t *testing.T) {
	t.Run("will not advance progress", func(t *testing.T) {
		t.Run("if a workflow ends", func(t *testing.T) {
			cb, exporter := newTestCallbacks(t, Config{NumWorkflowSteps: 3})

			ctx := context.Background()
			require.Nil(t, cb.OnWorkflowStart(ctx, "one", nil))
			require.Nil(t, cb.OnWorkflowEnd(ctx, "one", nil))
			require.Nil(t, cb.OnWorkflowStart(ctx, "two", nil))

			records := exporter.Records(t, cb)
			require.Len(t, records, 3)

			assert.Equal(t, "Workflow (1/3): one started.", records[0].Body().AsString())
			// progress reports the count as of the last start
			assert.Equal(t, "Workflow (1/3): one complete.", records[1].Body().AsString())
			assert.Equal(t, "Workflow (2/3): two started.", records[2].Body().AsString())
		})
	})
}

func TestWorkflowCallbacks_OnError(t *testing.T) {
	t.Run("will carry cause and stack dimensions", func(t *testing.T) {
		t.Run("if both are absent", func(t *testing.T) {
			cb, exporter := newTestCallbacks(t, Config{})

			require.Nil(t, cb.OnError(context.Background(), "workflow failed", nil, "", nil))

			records := exporter.Records(t, cb)
			require.Len(t, records, 1)

			rec := records[0]
			assert.Equal(t, log.SeverityError, rec.Severity())

			dims := dimensions(t, rec)
			require.NotNil(t, dims)
			assert.Equal(t, "<nil>", dims["cause"].AsString())
			assert.Equal(t, "", dims["stack"].AsString())

			_, ok := attributes(rec)["exception.type"]
			assert.False(t, ok)
		})

		t.Run("if a cause and stack are supplied", func(t *testing.T) {
			cb, exporter := newTestCallbacks(t, Config{})

			cause := errors.New("no entities found")
			require.Nil(t, cb.OnError(context.Background(), "workflow failed", cause, "goroutine 1 [running]:", nil))

			records := exporter.Records(t, cb)
			require.Len(t, records, 1)

			rec := records[0]
			dims := dimensions(t, rec)
			require.NotNil(t, dims)
			assert.Equal(t, "no entities found", dims["cause"].AsString())
			assert.Equal(t, "goroutine 1 [running]:", dims["stack"].AsString())

			attrs := attributes(rec)
			assert.Equal(t, "*errors.errorString", attrs["exception.type"].AsString())
			assert.Equal(t, "no entities found", attrs["exception.message"].AsString())
			assert.Equal(t, "goroutine 1 [running]:", attrs["exception.stacktrace"].AsString())
		})
	})

	t.Run("will let caller details win", func(t *testing.T) {
		t.Run("if a detail key collides with cause or stack", func(t *testing.T) {
			cb, exporter := newTestCallbacks(t, Config{})

			cause := errors.New("original cause")
			details := map[string]any{"cause": "overridden", "extra": 1}
			require.Nil(t, cb.OnError(context.Background(), "workflow failed", cause, "", details))

			records := exporter.Records(t, cb)
			require.Len(t, records, 1)

			dims := dimensions(t, records[0])
			require.NotNil(t, dims)
			assert.Equal(t, "overridden", dims["cause"].AsString())
			assert.Equal(t, int64(1), dims["extra"].AsInt64())
		})
	})
}

func TestWorkflowCallbacks_OnWarning(t *testing.T) {
	t.Run("will emit a warning record", func(t *testing.T) {
		t.Run("if details are supplied", func(t *testing.T) {
			cb, exporter := newTestCallbacks(t, Config{})

			require.Nil(t, cb.OnWarning(context.Background(), "rate limited", map[string]any{"retries": 2}))

			records := exporter.Records(t, cb)
			require.Len(t, records, 1)

			rec := records[0]
			assert.Equal(t, log.SeverityWarn, rec.Severity())
			assert.Equal(t, "rate limited", rec.Body().AsString())

			dims := dimensions(t, rec)
			require.NotNil(t, dims)
			assert.Equal(t, int64(2), dims["retries"].AsInt64())
		})
	})
}

func TestWorkflowCallbacks_OnLog(t *testing.T) {
	t.Run("will flatten nested details", func(t *testing.T) {
		t.Run("if details nest arbitrarily deep", func(t *testing.T) {
			cb, exporter := newTestCallbacks(t, Config{})

			details := map[string]any{
				"a": map[string]any{
					"b": map[string]any{
						"c": 1,
					},
				},
			}
			require.Nil(t, cb.OnLog(context.Background(), "hello", details))

			records := exporter.Records(t, cb)
			require.Len(t, records, 1)

			dims := dimensions(t, records[0])
			require.NotNil(t, dims)
			assert.Equal(t, int64(1), dims["a_b_c"].AsInt64())
		})
	})

	t.Run("will merge the fixed property bag", func(t *testing.T) {
		t.Run("if details collide with fixed properties", func(t *testing.T) {
			cb, exporter := newTestCallbacks(t, Config{
				Properties: map[string]any{"environment": "prod", "region": "eastus"},
			})

			require.Nil(t, cb.OnLog(context.Background(), "hello", map[string]any{"environment": "dev"}))

			records := exporter.Records(t, cb)
			require.Len(t, records, 1)

			dims := dimensions(t, records[0])
			require.NotNil(t, dims)
			assert.Equal(t, "dev", dims["environment"].AsString())
			assert.Equal(t, "eastus", dims["region"].AsString())
		})
	})

	t.Run("will attach no dimensions", func(t *testing.T) {
		t.Run("if details are absent", func(t *testing.T) {
			cb, exporter := newTestCallbacks(t, Config{
				Properties: map[string]any{"environment": "prod"},
			})

			require.Nil(t, cb.OnLog(context.Background(), "hello", nil))

			records := exporter.Records(t, cb)
			require.Len(t, records, 1)
			assert.Nil(t, dimensions(t, records[0]))
		})
	})
}

func TestWorkflowCallbacks_OnMeasure(t *testing.T) {
	t.Run("will fail", func(t *testing.T) {
		t.Run("if invoked with any arguments", func(t *testing.T) {
			cb, exporter := newTestCallbacks(t, Config{})

			err := cb.OnMeasure(context.Background(), "entities", 42.0, map[string]any{"source": "graph"})

			var uerr UnsupportedOperationError
			if !assert.ErrorAs(t, err, &uerr) {
				return
			}
			assert.Equal(t, "OnMeasure", uerr.Operation)
			assert.Empty(t, exporter.Records(t, cb))
		})
	})
}

func TestNew(t *testing.T) {
	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the connection string is invalid and no exporter is injected", func(t *testing.T) {
			_, err := New(context.Background(), Config{ConnectionString: ""})
			assert.NotNil(t, err)
		})

		t.Run("if the retry budget is exhausted", func(t *testing.T) {
			registry := telemetry.NewRegistry()

			// a zero budget means no candidate name is ever tried
			cb, err := New(
				context.Background(),
				Config{},
				WithExporter(telemetry.ExporterBuilderFunc(func(ctx context.Context) (sdklog.Exporter, error) {
					return &captureExporter{}, nil
				})),
				WithRegistry(registry),
				WithRetryBudget(0),
			)
			assert.Nil(t, cb)

			var perr telemetry.ProvisioningExhaustedError
			assert.ErrorAs(t, err, &perr)
		})
	})

	t.Run("will provision a uniquely named channel", func(t *testing.T) {
		t.Run("if two adapters are constructed against the same registry", func(t *testing.T) {
			registry := telemetry.NewRegistry()
			builder := telemetry.ExporterBuilderFunc(func(ctx context.Context) (sdklog.Exporter, error) {
				return &captureExporter{}, nil
			})

			a, err := New(context.Background(), Config{}, WithExporter(builder), WithRegistry(registry))
			require.Nil(t, err)
			defer a.Shutdown(context.Background())

			b, err := New(context.Background(), Config{}, WithExporter(builder), WithRegistry(registry))
			require.Nil(t, err)
			defer b.Shutdown(context.Background())

			assert.True(t, strings.HasPrefix(a.LoggerName(), "WorkflowCallbacks-"))
			assert.NotEqual(t, a.LoggerName(), b.LoggerName())
		})
	})

	t.Run("will honor the flush interval", func(t *testing.T) {
		t.Run("if records are left to the pipeline's own cycle", func(t *testing.T) {
			exporter := &captureExporter{}
			cb, err := New(
				context.Background(),
				Config{FlushInterval: 10 * time.Millisecond},
				WithExporter(telemetry.ExporterBuilderFunc(func(ctx context.Context) (sdklog.Exporter, error) {
					return exporter, nil
				})),
				WithRegistry(telemetry.NewRegistry()),
			)
			require.Nil(t, err)
			defer cb.Shutdown(context.Background())

			require.Nil(t, cb.OnLog(context.Background(), "hello", nil))

			assert.Eventually(t, func() bool {
				exporter.mu.Lock()
				defer exporter.mu.Unlock()
				return len(exporter.records) == 1
			}, time.Second, 10*time.Millisecond)
		})
	})
}
