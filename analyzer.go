package apidoc

import (
	"context"
	"log/slog"
	"time"

	"github.com/broady/apidoc/analysis"
	"github.com/broady/apidoc/docs"
	"github.com/broady/apidoc/ir"
	"github.com/broady/apidoc/schema"
	"github.com/hashicorp/go-multierror"
	slogctx "github.com/veqryn/slog-context"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const instrumentationName = "github.com/broady/apidoc"

// Option configures an Analyzer.
type Option func(*analyzerConfig)

type analyzerConfig struct {
	logger         *slog.Logger
	docs           docs.Lookup
	probe          analysis.DefaultProbe
	clock          func() time.Time
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

// WithLogger sets the logger. If not set, slog.Default() will be used.
func WithLogger(logger *slog.Logger) Option {
	return func(c *analyzerConfig) { c.logger = logger }
}

// WithDocs sets the documentation lookup.
func WithDocs(l docs.Lookup) Option {
	return func(c *analyzerConfig) { c.docs = l }
}

// WithProbe sets the default probe, e.g. App.Types().Probe().
func WithProbe(p analysis.DefaultProbe) Option {
	return func(c *analyzerConfig) { c.probe = p }
}

// WithClock fixes the time used for date examples.
func WithClock(now func() time.Time) Option {
	return func(c *analyzerConfig) { c.clock = now }
}

// WithTracerProvider sets a custom tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *analyzerConfig) { c.tracerProvider = tp }
}

// WithMeterProvider sets a custom meter provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *analyzerConfig) { c.meterProvider = mp }
}

// Analyzer turns operations into schema trees.
// It is safe for concurrent use.
type Analyzer struct {
	cfg     Config
	builder *analysis.Builder
	logger  *slog.Logger
	tracer  trace.Tracer

	analyzed metric.Int64Counter
	failed   metric.Int64Counter
	duration metric.Float64Histogram
}

// NewAnalyzer validates cfg and returns an Analyzer for it.
func NewAnalyzer(cfg Config, opts ...Option) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &analyzerConfig{
		logger:         slog.Default(),
		tracerProvider: otel.GetTracerProvider(),
		meterProvider:  otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		opt(c)
	}

	bopts, err := cfg.options()
	if err != nil {
		return nil, err
	}
	bopts.Docs = c.docs
	bopts.Probe = c.probe
	bopts.Clock = c.clock

	meter := c.meterProvider.Meter(instrumentationName)
	a := &Analyzer{
		cfg:     cfg,
		builder: analysis.New(bopts),
		logger:  c.logger,
		tracer:  c.tracerProvider.Tracer(instrumentationName),
	}
	a.analyzed, _ = meter.Int64Counter(
		"apidoc.operations",
		metric.WithDescription("Operations analysed"),
		metric.WithUnit("{operation}"),
	)
	a.failed, _ = meter.Int64Counter(
		"apidoc.operation.failures",
		metric.WithDescription("Operations whose analysis failed"),
		metric.WithUnit("{operation}"),
	)
	a.duration, _ = meter.Float64Histogram(
		"apidoc.operation.duration",
		metric.WithDescription("Duration of one operation's analysis"),
		metric.WithUnit("ms"),
	)
	return a, nil
}

// Analyze builds the schema of one operation. Member construction failures
// are returned as an *OperationError.
func (a *Analyzer) Analyze(ctx context.Context, op *ir.Operation) (*schema.Operation, error) {
	ctx, span := a.tracer.Start(ctx, "apidoc.Analyze",
		trace.WithAttributes(attribute.String("apidoc.operation", op.Key)),
	)
	defer span.End()

	ctx = slogctx.NewCtx(ctx, a.logger.With(slog.String("operation", op.Key)))
	start := time.Now()
	attrs := metric.WithAttributes(attribute.String("apidoc.service", op.Service))

	out, err := a.builder.Operation(ctx, op)
	a.duration.Record(ctx, float64(time.Since(start).Milliseconds()), attrs)
	a.analyzed.Add(ctx, 1, attrs)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		a.failed.Add(ctx, 1, attrs)
		return nil, &OperationError{Key: op.Key, Err: err}
	}

	span.SetAttributes(attribute.Int("apidoc.parameters", len(out.Parameters)))
	span.SetStatus(codes.Ok, "")
	slogctx.Debug(ctx, "operation analysed", slog.Int("parameters", len(out.Parameters)))
	return out, nil
}

// Result is the outcome of analysing a set of operations.
type Result struct {
	// Document holds the operations that were analysed successfully, in
	// input order.
	Document *schema.Document

	// Failures holds the operations that could not be analysed.
	Failures []*OperationError
}

// Err returns the failures combined into one error, or nil.
func (r *Result) Err() error {
	var errs *multierror.Error
	for _, f := range r.Failures {
		errs = multierror.Append(errs, f)
	}
	return errs.ErrorOrNil()
}

// AnalyzeAll analyses ops concurrently. A failing operation is logged and
// recorded in Result.Failures without affecting the others. The returned
// error is non-nil only if ctx is done.
func (a *Analyzer) AnalyzeAll(ctx context.Context, ops []*ir.Operation) (*Result, error) {
	ctx, span := a.tracer.Start(ctx, "apidoc.AnalyzeAll",
		trace.WithAttributes(attribute.Int("apidoc.operations", len(ops))),
	)
	defer span.End()

	results := make([]*schema.Operation, len(ops))
	failures := make([]*OperationError, len(ops))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.workers())
	for i, op := range ops {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := a.Analyze(gctx, op)
			if err != nil {
				a.logger.Warn("operation analysis failed",
					slog.String("operation", op.Key),
					slog.Any("error", err))
				failures[i] = err.(*OperationError)
				return nil
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	res := &Result{Document: &schema.Document{Title: a.cfg.Title, Operations: []*schema.Operation{}}}
	for i := range ops {
		if results[i] != nil {
			res.Document.Operations = append(res.Document.Operations, results[i])
		}
		if failures[i] != nil {
			res.Failures = append(res.Failures, failures[i])
		}
	}
	span.SetAttributes(attribute.Int("apidoc.failures", len(res.Failures)))
	return res, nil
}
