// Package logging provides structured logging for ragchat.
//
// The Logger wraps Zap with:
//   - a Trace level (-2) for raw model payloads and tool arguments
//   - correlation fields taken from the context (trace_id, session.id, request.id, turn)
//   - key and pattern based redaction in the encoder
//   - sampling below Error, so errors are never dropped
//   - an optional OpenTelemetry log bridge
//
// Usage:
//
//	cfg, err := logging.FromAppConfig(appCfg.Logging)
//	logger, err := logging.NewLogger(cfg, nil)
//	defer logger.Sync()
//
//	ctx = logging.WithSessionID(ctx, session.ID)
//	logger.Info(ctx, "turn completed", zap.Int("tool_calls", n))
//
// Logs go to stderr by default. stdout belongs to the chat console and to the
// MCP stdio transport.
//
// Components that only need a *zap.Logger receive logger.Underlying().
// Tests use NewTestLogger and its assertions.
package logging
