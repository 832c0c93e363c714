package backend

import (
	"context"
	"time"

	"context-retriever-be/pkg/metrics"
	"context-retriever-be/pkg/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// Instrumented wraps a Backend with latency metrics and a trace span.
type Instrumented struct {
	inner Backend
}

var _ Backend = (*Instrumented)(nil)

func Instrument(b Backend) *Instrumented {
	return &Instrumented{inner: b}
}

func (i *Instrumented) Name() string {
	return i.inner.Name()
}

func (i *Instrumented) Search(ctx context.Context, query string) []store.Document {
	ctx, span := otel.Tracer("backend").Start(ctx, "backend.Search")
	defer span.End()

	start := time.Now()
	docs := i.inner.Search(ctx, query)
	metrics.ObserveBackend(i.inner.Name(), start, len(docs))

	span.SetAttributes(
		attribute.String("backend.name", i.inner.Name()),
		attribute.Int("backend.results", len(docs)),
	)
	return docs
}
