// Copyright (c) 2025 GraphRAG Accelerator Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package telemetry

import (
	"fmt"
	"strings"

	"go.opentelemetry.io/contrib/processors/minsev"
	"go.opentelemetry.io/otel/log"
)

// Severity names the minimum record severity admitted into a channel's
// export pipeline. The channel itself passes every record through;
// filtering happens at the processor layer.
type Severity string

const (
	SeverityDebug   Severity = "debug"
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// InvalidSeverityError occurs when parsing an unrecognized severity name.
type InvalidSeverityError struct {
	Value string
}

// Error implements the [builtin.error] interface.
func (e InvalidSeverityError) Error() string {
	return fmt.Sprintf("unrecognized severity: %q", e.Value)
}

// UnmarshalText implements the [encoding.TextUnmarshaler] interface.
// It accepts the severity names case-insensitively, along with the
// "warn" alias for [SeverityWarning].
func (s *Severity) UnmarshalText(text []byte) error {
	switch v := strings.ToLower(string(text)); v {
	case string(SeverityDebug), string(SeverityInfo), string(SeverityError):
		*s = Severity(v)
	case string(SeverityWarning), "warn":
		*s = SeverityWarning
	default:
		return InvalidSeverityError{Value: string(text)}
	}
	return nil
}

func (s Severity) minimum() minsev.Severity {
	switch s {
	case SeverityDebug:
		return minsev.SeverityDebug
	case SeverityWarning:
		return minsev.SeverityWarn
	case SeverityError:
		return minsev.SeverityError
	default:
		return minsev.SeverityInfo
	}
}

func severityText(s log.Severity) string {
	switch {
	case s <= log.SeverityTrace4:
		return "TRACE"
	case s <= log.SeverityDebug4:
		return "DEBUG"
	case s <= log.SeverityInfo4:
		return "INFO"
	case s <= log.SeverityWarn4:
		return "WARN"
	case s <= log.SeverityError4:
		return "ERROR"
	default:
		return "FATAL"
	}
}
