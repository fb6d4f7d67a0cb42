// Package observability provides structured logging setup and
// OpenTelemetry counters for the capture service.
package observability

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the capture-path counters. A nil *Metrics is a valid
// no-op receiver so the engine can run without telemetry wired.
type Metrics struct {
	captures    metric.Int64Counter
	conversions metric.Int64Counter
	failures    metric.Int64Counter
	beacons     metric.Int64Counter
}

// NewMetrics registers the capture counters on the given meter. Passing a
// nil meter uses the global provider.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		meter = otel.Meter("brightbasket.capture")
	}

	m := &Metrics{}
	var err error

	if m.captures, err = meter.Int64Counter("capture.writes",
		metric.WithDescription("Incomplete-order capture writes attempted")); err != nil {
		return nil, fmt.Errorf("register capture.writes: %w", err)
	}
	if m.conversions, err = meter.Int64Counter("capture.conversions",
		metric.WithDescription("Pending captures transitioned to converted")); err != nil {
		return nil, fmt.Errorf("register capture.conversions: %w", err)
	}
	if m.failures, err = meter.Int64Counter("capture.failures",
		metric.WithDescription("Swallowed capture persistence failures")); err != nil {
		return nil, fmt.Errorf("register capture.failures: %w", err)
	}
	if m.beacons, err = meter.Int64Counter("capture.beacon_dispatches",
		metric.WithDescription("Unload-flush beacon dispatches")); err != nil {
		return nil, fmt.Errorf("register capture.beacon_dispatches: %w", err)
	}
	return m, nil
}

// RecordWrite counts one persistence attempt for the given operation
// ("create" or "update").
func (m *Metrics) RecordWrite(ctx context.Context, op string) {
	if m == nil || m.captures == nil {
		return
	}
	m.captures.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}

// RecordConversion counts one pending→converted transition.
func (m *Metrics) RecordConversion(ctx context.Context) {
	if m == nil || m.conversions == nil {
		return
	}
	m.conversions.Add(ctx, 1)
}

// RecordFailure counts one swallowed failure for the given operation.
func (m *Metrics) RecordFailure(ctx context.Context, op string) {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}

// RecordBeacon counts one unload-flush dispatch.
func (m *Metrics) RecordBeacon(ctx context.Context) {
	if m == nil || m.beacons == nil {
		return
	}
	m.beacons.Add(ctx, 1)
}

// NewLogger builds the service's slog.Logger at the given level
// ("DEBUG", "INFO", "WARN", "ERROR"), writing JSON to stderr.
func NewLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToUpper(level) {
	case "DEBUG":
		lvl = slog.LevelDebug
	case "WARN":
		lvl = slog.LevelWarn
	case "ERROR":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
