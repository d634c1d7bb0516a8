// Copyright (c) 2025 GraphRAG Accelerator Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package httpclient provides a production ready http.Client for shipping
// telemetry. Network retry and circuit breaking live here, below the
// exporter; the callback adapter never retries.
package httpclient

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sony/gobreaker"
)

type options struct {
	timeout    time.Duration
	base       http.RoundTripper
	logHandler slog.Handler

	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration

	tripAfter   uint32
	openTimeout time.Duration
}

// Option configures the client returned by [New].
type Option func(*options)

// Timeout sets a global timeout for every request.
func Timeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// RoundTripper sets the base transport requests are sent over.
func RoundTripper(rt http.RoundTripper) Option {
	return func(o *options) {
		o.base = rt
	}
}

// LogHandler enables request/response logging onto the given handler.
func LogHandler(h slog.Handler) Option {
	return func(o *options) {
		o.logHandler = h
	}
}

// Retries bounds how often a failed request is retried and how long to
// back off between attempts.
func Retries(max int, waitMin, waitMax time.Duration) Option {
	return func(o *options) {
		o.retryMax = max
		o.retryWaitMin = waitMin
		o.retryWaitMax = waitMax
	}
}

// TripAfter sets how many consecutive failures open the circuit.
// Server errors (5xx) count as failures.
func TripAfter(consecutive uint32) Option {
	return func(o *options) {
		o.tripAfter = consecutive
	}
}

// OpenStateTimeout sets how long the circuit stays open before letting
// a probe request through.
func OpenStateTimeout(d time.Duration) Option {
	return func(o *options) {
		o.openTimeout = d
	}
}

// New returns an [http.Client] with bounded retries, a circuit breaker
// and optional request logging layered over the base transport.
func New(opts ...Option) *http.Client {
	o := &options{
		timeout:      30 * time.Second,
		base:         http.DefaultTransport,
		logHandler:   slog.DiscardHandler,
		retryMax:     4,
		retryWaitMin: 1 * time.Second,
		retryWaitMax: 30 * time.Second,
		tripAfter:    5,
		openTimeout:  60 * time.Second,
	}
	for _, opt := range opts {
		opt(o)
	}

	logger := slog.New(o.logHandler)

	var rt http.RoundTripper = &logRoundTripper{
		base: o.base,
		log:  logger,
	}
	rt = &breakerRoundTripper{
		base: rt,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "telemetry",
			Timeout: o.openTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= o.tripAfter
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				switch to {
				case gobreaker.StateOpen:
					logger.Error("circuit has been opened")
				case gobreaker.StateHalfOpen:
					logger.Warn("circuit is now half open and letting some requests through")
				case gobreaker.StateClosed:
					logger.Info("circuit has been closed")
				}
			},
		}),
	}

	rc := retryablehttp.Client{
		HTTPClient: &http.Client{
			Timeout:   o.timeout,
			Transport: rt,
		},
		RetryWaitMin: o.retryWaitMin,
		RetryWaitMax: o.retryWaitMax,
		RetryMax:     o.retryMax,
		CheckRetry:   retryablehttp.DefaultRetryPolicy,
		Backoff:      retryablehttp.DefaultBackoff,
		ErrorHandler: retryablehttp.PassthroughErrorHandler,
	}
	return rc.StandardClient()
}

type logRoundTripper struct {
	base http.RoundTripper
	log  *slog.Logger
}

func (rt *logRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	start := time.Now()

	resp, err := rt.base.RoundTrip(req)
	if err != nil {
		rt.log.ErrorContext(
			ctx,
			"request failed",
			slog.String("url", req.URL.String()),
			slog.Any("error", err),
		)
		return nil, err
	}

	rt.log.DebugContext(
		ctx,
		"response received",
		slog.String("url", req.URL.String()),
		slog.Int("status_code", resp.StatusCode),
		slog.Duration("latency", time.Since(start)),
	)
	return resp, nil
}

type statusCodeError struct {
	code int
}

func (e statusCodeError) Error() string {
	return fmt.Sprintf("server responded with status code: %d", e.code)
}

type breakerRoundTripper struct {
	base http.RoundTripper
	cb   *gobreaker.CircuitBreaker
}

func (rt *breakerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	v, err := rt.cb.Execute(func() (any, error) {
		resp, err := rt.base.RoundTrip(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return resp, statusCodeError{code: resp.StatusCode}
		}
		return resp, nil
	})

	// A server error trips the breaker's failure counter but the
	// response is still returned to the retry layer above.
	var sce statusCodeError
	if errors.As(err, &sce) {
		return v.(*http.Response), nil
	}
	if err != nil {
		return nil, err
	}
	return v.(*http.Response), nil
}
