// Package tracing provides OpenTelemetry tracing integration.
//
// HTTP requests get a server span from Middleware; ingestion runs and
// query resolution open internal spans with StartSpan.
//
// Example usage:
//
//	import "newsportal/internal/observability/tracing"
//
//	func main() {
//	    _, shutdown := tracing.InitTracer(1.0)
//	    defer shutdown(context.Background())
//	}
//
//	func ingest(ctx context.Context, channelID string) (err error) {
//	    ctx, span := tracing.StartSpan(ctx, "ingest.run", attribute.String("channel", channelID))
//	    defer func() { tracing.EndSpan(span, err) }()
//	    // ...
//	}
package tracing
