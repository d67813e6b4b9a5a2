package observability

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	pwerrors "github.com/randalmurphal/piecework/pkg/piecework/errors"
)

// Span names and attribute keys.
const (
	DispatchSpanName = "piecework.dispatch"

	AttrMessageID = attribute.Key("message.id")
	AttrChannelID = attribute.Key("channel.id")
	AttrPieceKind = attribute.Key("piece.kind")
	AttrPieceName = attribute.Key("piece.name")
	AttrPanicked  = attribute.Key("piece.panicked")
)

// SpanManager opens and closes the spans around message dispatch and piece
// runs. Use NewSpanManager for OpenTelemetry or NoopSpanManager{} to disable.
type SpanManager interface {
	// StartDispatchSpan opens the root span for one inbound message.
	StartDispatchSpan(ctx context.Context, messageID, channelID string) (context.Context, trace.Span)

	// StartPieceSpan opens a span for one piece run, parented on ctx.
	StartPieceSpan(ctx context.Context, kind, name string) (context.Context, trace.Span)

	// EndSpanWithError sets the span status from err and ends it.
	EndSpanWithError(span trace.Span, err error)
}

// SpanOption configures NewSpanManager.
type SpanOption func(*otelSpans)

// WithTracerProvider uses tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) SpanOption {
	return func(s *otelSpans) { s.provider = tp }
}

type otelSpans struct {
	provider trace.TracerProvider
	tracer   trace.Tracer
}

// NewSpanManager returns an OpenTelemetry SpanManager. Without
// WithTracerProvider it uses the provider installed by otel.SetTracerProvider
// at the time of the call.
func NewSpanManager(opts ...SpanOption) SpanManager {
	s := &otelSpans{}
	for _, opt := range opts {
		opt(s)
	}
	if s.provider == nil {
		s.provider = otel.GetTracerProvider()
	}
	s.tracer = s.provider.Tracer("piecework")
	return s
}

func (s *otelSpans) StartDispatchSpan(ctx context.Context, messageID, channelID string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, DispatchSpanName,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(AttrMessageID.String(messageID), AttrChannelID.String(channelID)),
	)
}

// Piece spans are named "piecework.<kind>.<name>", e.g. piecework.command.ping.
func (s *otelSpans) StartPieceSpan(ctx context.Context, kind, name string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "piecework."+kind+"."+name,
		trace.WithAttributes(AttrPieceKind.String(kind), AttrPieceName.String(name)),
	)
}

func (s *otelSpans) EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	defer span.End()

	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}
	var pe *pwerrors.PanicError
	if errors.As(err, &pe) {
		span.SetAttributes(AttrPanicked.Bool(true))
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
