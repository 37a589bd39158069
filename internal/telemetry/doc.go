// Package telemetry wires OpenTelemetry traces and metrics for ragchat.
//
// Telemetry is opt-in. When enabled, spans and metrics are exported over
// OTLP/gRPC to Config.Endpoint:
//
//	tel, err := telemetry.New(ctx, telemetry.FromAppConfig(cfg.Telemetry, version), logger)
//	defer tel.Shutdown(context.Background())
//
//	ctx, span := tel.Tracer("ragchat/retrieval").Start(ctx, "retrieval.search")
//	defer span.End()
//
// Components record metrics through otel.Meter; they pick up the provider New
// installs. Vector store metrics also go to the Prometheus registry served on
// /metrics.
package telemetry
