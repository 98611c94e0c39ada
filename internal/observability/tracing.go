package observability

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// tracerName identifies conduit's spans.
const tracerName = "github.com/haasonsaas/conduit"

// Tracer returns the tracer used for orchestration spans. It resolves
// through the global provider, so hosts that install an SDK exporter get
// real spans and everyone else gets no-ops.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}
