package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/bookmark-notes/backend/internal/service"

func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name)
}

// endSpan marks the span failed. Sentinel outcomes listed in expected are
// not recorded as exceptions.
func endSpan(span trace.Span, err error, expected ...error) {
	defer span.End()
	if err == nil {
		return
	}
	span.SetStatus(codes.Error, err.Error())
	for _, e := range expected {
		if errors.Is(err, e) {
			return
		}
	}
	span.RecordError(err)
}
