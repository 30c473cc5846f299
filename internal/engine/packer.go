package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/piwi3910/SpritePack/internal/model"
)

// Packer runs the ordering search and keeps the smallest layout.
type Packer struct {
	Settings model.Settings

	logger  *slog.Logger
	tracer  trace.Tracer
	metrics packMetrics
}

// Option defines a functional configuration override.
type Option func(*Packer)

// New creates a packer with the given settings.
func New(settings model.Settings, opts ...Option) *Packer {
	p := &Packer{
		Settings: settings,
		logger:   slog.New(slog.DiscardHandler),
		tracer:   otel.Tracer("spritepack/engine"),
		metrics:  newPackMetrics(otel.Meter("spritepack/engine")),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Packer) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithTracer sets the tracer used for pack and attempt spans.
func WithTracer(t trace.Tracer) Option {
	return func(p *Packer) {
		if t != nil {
			p.tracer = t
		}
	}
}

// WithMeter sets the meter for attempt counts and layout efficiency.
func WithMeter(m metric.Meter) Option {
	return func(p *Packer) {
		if m != nil {
			p.metrics = newPackMetrics(m)
		}
	}
}

// Pack places every rect using the configured hints. The input slice is
// never modified; placements in the result follow the input order.
func (p *Packer) Pack(ctx context.Context, rects []model.Rect) (model.PackResult, error) {
	return p.PackWithHints(ctx, rects, p.Settings.Hints)
}

// PackWithHints places every rect trying the caller order first and then one
// ordering per hint bit. The smallest bounding area wins, then the smallest
// perimeter, then the earliest candidate.
func (p *Packer) PackWithHints(ctx context.Context, rects []model.Rect, hints model.Hint) (model.PackResult, error) {
	ctx, span := p.tracer.Start(ctx, "Packer.Pack", trace.WithAttributes(
		attribute.Int("rects", len(rects)),
		attribute.String("hints", hints.String()),
	))
	defer span.End()

	if err := p.validate(rects); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid input")
		return model.PackResult{}, err
	}

	candidates := candidateHints(hints)
	attempts := p.runAttempts(ctx, rects, candidates)
	if skipped(attempts) {
		return model.PackResult{}, ctx.Err()
	}

	best, ok := pickBest(attempts)
	if !ok {
		err := fmt.Errorf("%w: all %d orderings exceeded the %d ceiling", ErrPackingFailed, len(attempts), p.Settings.MaxSide)
		span.RecordError(err)
		span.SetStatus(codes.Error, "packing failed")
		return model.PackResult{}, err
	}

	result := model.PackResult{
		Width:    best.width,
		Height:   best.height,
		Hint:     best.hint,
		Attempts: len(attempts),
	}

	if p.Settings.Generations > 0 && len(rects) > 2 {
		refined, evaluated, err := p.refine(ctx, rects, best)
		if err != nil {
			return model.PackResult{}, err
		}
		result.Attempts += evaluated
		if better(refined, best) {
			p.logger.Debug("refined ordering wins",
				"area", refined.area(),
				"previous_area", best.area(),
			)
			best = refined
			result.Width, result.Height = best.width, best.height
			result.Refined = true
		}
	}

	result.Placements = best.placements()

	span.SetAttributes(
		attribute.Int("width", result.Width),
		attribute.Int("height", result.Height),
		attribute.String("winner", result.Hint.String()),
	)
	p.metrics.recordEfficiency(ctx, result.Efficiency())
	p.logger.Info("pack complete",
		"rects", len(rects),
		"width", result.Width,
		"height", result.Height,
		"hint", result.Hint.String(),
		"refined", result.Refined,
		"efficiency", fmt.Sprintf("%.1f%%", result.Efficiency()),
	)
	return result, nil
}

// validate rejects empty input, non-positive sizes and unusable settings
// before any attempt runs.
func (p *Packer) validate(rects []model.Rect) error {
	if err := p.Settings.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if len(rects) == 0 {
		return fmt.Errorf("%w: no rectangles", ErrInvalidInput)
	}
	for _, r := range rects {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
	}
	return nil
}

// candidateHints lists the caller order (0) followed by every single hint
// in canonical order.
func candidateHints(hints model.Hint) []model.Hint {
	return append([]model.Hint{0}, hints.Expand()...)
}

// runAttempts evaluates one attempt per candidate. Results are stored by
// candidate index, so the outcome does not depend on scheduling.
func (p *Packer) runAttempts(ctx context.Context, rects []model.Rect, candidates []model.Hint) []attempt {
	attempts := make([]attempt, len(candidates))
	for i := range attempts {
		attempts[i] = attempt{hint: candidates[i], state: stateFailed, err: errNotRun}
	}
	p.forEach(ctx, len(candidates), func(i int) {
		attempts[i] = p.attempt(ctx, rects, candidates[i])
	})
	p.metrics.recordAttempts(ctx, attempts, "hints")
	return attempts
}

// skipped reports whether cancellation left any candidate unevaluated.
func skipped(attempts []attempt) bool {
	for _, a := range attempts {
		if errors.Is(a.err, errNotRun) {
			return true
		}
	}
	return false
}

func (p *Packer) attempt(ctx context.Context, rects []model.Rect, h model.Hint) attempt {
	_, span := p.tracer.Start(ctx, "Packer.attempt", trace.WithAttributes(
		attribute.String("hint", h.String()),
	))
	defer span.End()

	a := runAttempt(rects, h, p.Settings, p.logger.With("hint", h.String()))
	if a.err != nil {
		span.RecordError(a.err)
		return a
	}
	span.SetAttributes(
		attribute.Int64("area", int64(a.area())),
		attribute.Int("growths", a.growths),
	)
	return a
}

// forEach runs fn for 0..n-1 on at most workerCount goroutines. It stops
// handing out work once ctx is done.
func (p *Packer) forEach(ctx context.Context, n int, fn func(i int)) {
	workers := p.workerCount(n)
	if workers <= 1 {
		for i := 0; i < n; i++ {
			if ctx.Err() != nil {
				return
			}
			fn(i)
		}
		return
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(i int) {
			defer func() {
				<-sem
				wg.Done()
			}()
			fn(i)
		}(i)
	}
	wg.Wait()
}

func (p *Packer) workerCount(n int) int {
	workers := p.Settings.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return max(1, min(workers, n))
}
