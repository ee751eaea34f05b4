package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// DBSpan opens a client span for one database statement. The caller ends it
// when the query returns; pkg/db wires this into the pgx query tracer so
// every pool query is covered without per-call wrapping.
func DBSpan(ctx context.Context, operation, statement string) (context.Context, trace.Span) {
	if len(statement) > 200 {
		statement = statement[:200] + "..."
	}
	return Tracer().Start(ctx, "db."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.DBSystemPostgreSQL,
			attribute.String("db.operation", operation),
			attribute.String("db.statement", statement),
		),
	)
}

// EndDBSpan closes a DBSpan, recording the error if the statement failed.
func EndDBSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
