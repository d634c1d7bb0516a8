// Copyright (c) 2025 GraphRAG Accelerator Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package azuremonitor binds the telemetry export pipeline to an
// Application Insights workspace.
package azuremonitor

import (
	"fmt"
	"strings"
)

// DefaultIngestionEndpoint is used when a connection string does not
// carry its own IngestionEndpoint field.
const DefaultIngestionEndpoint = "https://dc.services.visualstudio.com/"

// ConnectionString is the parsed form of an Application Insights
// connection string: semicolon separated key=value pairs, e.g.
//
//	InstrumentationKey=00000000-0000-0000-0000-000000000000;IngestionEndpoint=https://workspace.in.example.com/
type ConnectionString struct {
	InstrumentationKey string
	IngestionEndpoint  string
	LiveEndpoint       string
	ApplicationID      string
}

// EmptyConnectionStringError occurs when the connection string is blank.
type EmptyConnectionStringError struct{}

// Error implements the [builtin.error] interface.
func (e EmptyConnectionStringError) Error() string {
	return "connection string must not be empty"
}

// MalformedConnectionStringError occurs when a connection string
// segment is not a key=value pair.
type MalformedConnectionStringError struct {
	Segment string
}

// Error implements the [builtin.error] interface.
func (e MalformedConnectionStringError) Error() string {
	return fmt.Sprintf("connection string segment is not a key=value pair: %q", e.Segment)
}

// MissingInstrumentationKeyError occurs when a connection string does
// not carry an InstrumentationKey field.
type MissingInstrumentationKeyError struct{}

// Error implements the [builtin.error] interface.
func (e MissingInstrumentationKeyError) Error() string {
	return "connection string is missing an InstrumentationKey field"
}

// ParseConnectionString parses s into a [ConnectionString]. Field names
// are matched case-insensitively and unrecognized fields are ignored.
// The InstrumentationKey field is required.
func ParseConnectionString(s string) (ConnectionString, error) {
	if strings.TrimSpace(s) == "" {
		return ConnectionString{}, EmptyConnectionStringError{}
	}

	cs := ConnectionString{
		IngestionEndpoint: DefaultIngestionEndpoint,
	}
	for _, segment := range strings.Split(s, ";") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}

		k, v, ok := strings.Cut(segment, "=")
		if !ok {
			return ConnectionString{}, MalformedConnectionStringError{Segment: segment}
		}

		switch strings.ToLower(strings.TrimSpace(k)) {
		case "instrumentationkey":
			cs.InstrumentationKey = strings.TrimSpace(v)
		case "ingestionendpoint":
			cs.IngestionEndpoint = strings.TrimSpace(v)
		case "liveendpoint":
			cs.LiveEndpoint = strings.TrimSpace(v)
		case "applicationid":
			cs.ApplicationID = strings.TrimSpace(v)
		}
	}

	if cs.InstrumentationKey == "" {
		return ConnectionString{}, MissingInstrumentationKeyError{}
	}
	return cs, nil
}
