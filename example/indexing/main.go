// Copyright (c) 2025 GraphRAG Accelerator Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Command indexing simulates an indexing pipeline reporting its
// lifecycle through [insights.WorkflowCallbacks]. Records are written
// to stdout instead of a live workspace so the example runs anywhere.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/rhassan91/graphrag-accelerator/azuremonitor"
	"github.com/rhassan91/graphrag-accelerator/config"
	"github.com/rhassan91/graphrag-accelerator/insights"
)

const configYaml = `
monitor:
  index_name: wikipedia
  num_workflow_steps: 3
  flush_interval: 1s
  properties:
    environment: example
`

type appConfig struct {
	Monitor insights.Config `config:"monitor"`
}

func main() {
	// MONITOR__INDEX_NAME=books overrides monitor.index_name above.
	m, err := config.Read(
		config.FromYaml(strings.NewReader(configYaml)),
		config.FromEnv(),
	)
	if err != nil {
		slog.Error("failed to read config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var cfg appConfig
	if err := m.Unmarshal(&cfg); err != nil {
		slog.Error("failed to unmarshal config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()
	callbacks, err := insights.New(
		ctx,
		cfg.Monitor,
		insights.WithExporter(azuremonitor.BuildStdoutLogExporter(os.Stdout)),
	)
	if err != nil {
		slog.Error("failed to initialize workflow callbacks", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer callbacks.Shutdown(ctx)

	slog.Info("provisioned logging channel", slog.String("name", callbacks.LoggerName()))

	workflows := []string{
		"create_base_text_units",
		"create_final_entities",
		"create_final_community_reports",
	}
	for _, name := range workflows {
		_ = callbacks.OnWorkflowStart(ctx, name, nil)

		_ = callbacks.OnLog(ctx, "processing documents", map[string]any{
			"batch": map[string]any{"size": 64, "source": "wikipedia"},
		})

		if name == "create_final_entities" {
			_ = callbacks.OnWarning(ctx, "rate limited by model endpoint", map[string]any{
				"retry_after": 2 * time.Second,
			})
			_ = callbacks.OnError(ctx, "entity extraction failed for a batch",
				errors.New("context length exceeded"), "", map[string]any{
					"document_id": "doc-41",
				})
		}

		_ = callbacks.OnWorkflowEnd(ctx, name, nil)
	}

	if err := callbacks.Flush(ctx); err != nil {
		slog.Error("failed to flush records", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
