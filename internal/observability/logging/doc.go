// Package logging provides structured logging utilities with context propagation.
//
// Key features:
//   - JSON and text output formats
//   - Request ID and channel propagation
//   - Configurable log levels
//
// Example usage:
//
//	import "newsportal/internal/observability/logging"
//
//	func main() {
//	    logger := logging.NewLogger()
//	    slog.SetDefault(logger)
//	}
//
//	func handleRequest(ctx context.Context, channelID string) {
//	    logger := logging.WithChannel(logging.WithRequestID(ctx, slog.Default()), channelID)
//	    logger.Info("resolving articles")
//	}
package logging
