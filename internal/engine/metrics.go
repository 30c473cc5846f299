package engine

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// packMetrics are the instruments recorded by a Packer. They are no-ops
// until a meter provider is registered.
type packMetrics struct {
	attempts   metric.Int64Counter
	failures   metric.Int64Counter
	efficiency metric.Float64Histogram
}

func newPackMetrics(m metric.Meter) packMetrics {
	var pm packMetrics
	var err error
	if pm.attempts, err = m.Int64Counter("spritepack.attempts",
		metric.WithDescription("Layout attempts evaluated"),
		metric.WithUnit("{attempt}"),
	); err != nil {
		otel.Handle(err)
	}
	if pm.failures, err = m.Int64Counter("spritepack.attempts.failed",
		metric.WithDescription("Layout attempts that hit the size ceiling"),
		metric.WithUnit("{attempt}"),
	); err != nil {
		otel.Handle(err)
	}
	if pm.efficiency, err = m.Float64Histogram("spritepack.efficiency",
		metric.WithDescription("Used share of the winning layout"),
		metric.WithUnit("%"),
	); err != nil {
		otel.Handle(err)
	}
	return pm
}

// recordAttempts counts a batch of finished attempts.
func (pm packMetrics) recordAttempts(ctx context.Context, attempts []attempt, phase string) {
	failed := 0
	for _, a := range attempts {
		if !a.ok() {
			failed++
		}
	}
	set := metric.WithAttributes(attribute.String("phase", phase))
	if pm.attempts != nil {
		pm.attempts.Add(ctx, int64(len(attempts)), set)
	}
	if pm.failures != nil && failed > 0 {
		pm.failures.Add(ctx, int64(failed), set)
	}
}

func (pm packMetrics) recordEfficiency(ctx context.Context, pct float64) {
	if pm.efficiency != nil {
		pm.efficiency.Record(ctx, pct)
	}
}
