package cleaner

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name for cleanup metrics.
const meterName = "github.com/athulya-anil/queue-sweeper"

// cycleMetrics holds the instruments recorded by every cycle. If no
// MeterProvider is installed the global one hands out noop instruments.
type cycleMetrics struct {
	deleted  metric.Int64Counter
	skipped  metric.Int64Counter
	failures metric.Int64Counter
	duration metric.Float64Histogram
}

func defaultMeter() metric.Meter {
	return otel.Meter(meterName)
}

func newCycleMetrics(meter metric.Meter) *cycleMetrics {
	// On error the API returns noop instruments, so the errors are dropped.
	deleted, _ := meter.Int64Counter(
		"queue_sweeper.entries.deleted",
		metric.WithDescription("Queue entries removed and blocklisted"),
		metric.WithUnit("{entry}"),
	)
	skipped, _ := meter.Int64Counter(
		"queue_sweeper.entries.skipped",
		metric.WithDescription("Queue entries skipped for missing required fields"),
		metric.WithUnit("{entry}"),
	)
	failures, _ := meter.Int64Counter(
		"queue_sweeper.delete.failures",
		metric.WithDescription("Delete calls that returned an error"),
		metric.WithUnit("{call}"),
	)
	duration, _ := meter.Float64Histogram(
		"queue_sweeper.cycle.duration",
		metric.WithDescription("Duration of one cleanup cycle in seconds"),
		metric.WithUnit("s"),
	)

	return &cycleMetrics{
		deleted:  deleted,
		skipped:  skipped,
		failures: failures,
		duration: duration,
	}
}

func (m *cycleMetrics) record(ctx context.Context, service string, fetched bool, deleted, skipped, failed int, elapsed time.Duration) {
	svc := metric.WithAttributes(attribute.String("service", service))

	if deleted > 0 {
		m.deleted.Add(ctx, int64(deleted), svc)
	}
	if skipped > 0 {
		m.skipped.Add(ctx, int64(skipped), svc)
	}
	if failed > 0 {
		m.failures.Add(ctx, int64(failed), svc)
	}
	m.duration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("service", service),
		attribute.Bool("fetched", fetched),
	))
}
