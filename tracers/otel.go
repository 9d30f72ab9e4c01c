package tracers

import (
	"context"
	"fmt"

	"github.com/colorfulnotion/evm/vm"
	"github.com/ethereum/go-ethereum/core/types"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/colorfulnotion/evm/tracers"

// OtelInspector opens one span per frame, nested like the frames
// themselves, and records logs as span events.
type OtelInspector struct {
	vm.NoopInspector
	tracer trace.Tracer
	root   context.Context
	ctxs   []context.Context
	spans  []trace.Span
}

// NewOtelInspector parents the outermost frame span on ctx.
func NewOtelInspector(ctx context.Context, tp trace.TracerProvider) *OtelInspector {
	return &OtelInspector{tracer: tp.Tracer(instrumentationName), root: ctx}
}

func (o *OtelInspector) parent() context.Context {
	if n := len(o.ctxs); n > 0 {
		return o.ctxs[n-1]
	}
	return o.root
}

func (o *OtelInspector) OnFrameEnter(e *vm.FrameEvent) {
	attrs := []attribute.KeyValue{
		attribute.String("evm.from", e.From.Hex()),
		attribute.String("evm.to", e.To.Hex()),
		attribute.Int("evm.depth", e.Depth),
		attribute.Int64("evm.gas", int64(e.Gas)),
		attribute.Int("evm.input_size", len(e.Input)),
	}
	if e.Value != nil && !e.Value.IsZero() {
		attrs = append(attrs, attribute.String("evm.value", e.Value.Dec()))
	}
	ctx, span := o.tracer.Start(o.parent(), e.Kind.String(), trace.WithAttributes(attrs...))
	o.ctxs = append(o.ctxs, ctx)
	o.spans = append(o.spans, span)
}

func (o *OtelInspector) OnFrameExit(e *vm.FrameEvent, r *vm.FrameResult) {
	n := len(o.spans)
	if n == 0 {
		return
	}
	span := o.spans[n-1]
	o.spans, o.ctxs = o.spans[:n-1], o.ctxs[:n-1]

	span.SetAttributes(
		attribute.Int64("evm.gas_used", int64(r.GasUsed)),
		attribute.String("evm.status", r.Status.String()),
		attribute.Int("evm.output_size", len(r.Output)),
	)
	if r.Status == vm.Errored && r.Err != nil {
		span.RecordError(r.Err)
		span.SetStatus(codes.Error, r.Err.Error())
	}
	span.End()
}

func (o *OtelInspector) OnLog(l *types.Log) {
	if n := len(o.spans); n > 0 {
		o.spans[n-1].AddEvent("log", trace.WithAttributes(
			attribute.String("evm.address", l.Address.Hex()),
			attribute.Int("evm.topics", len(l.Topics)),
			attribute.Int("evm.data_size", len(l.Data)),
		))
	}
}

// NewOTLPProvider returns a tracer provider exporting over OTLP/HTTP to
// endpoint (host:port). Callers must Shutdown it to flush spans.
func NewOTLPProvider(ctx context.Context, endpoint string) (*sdktrace.TracerProvider, error) {
	exp, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(endpoint), otlptracehttp.WithInsecure())
	if err != nil {
		return nil, fmt.Errorf("otlp exporter: %w", err)
	}
	return sdktrace.NewTracerProvider(sdktrace.WithBatcher(exp)), nil
}
