// internal/logging/otel.go
package logging

import (
	"fmt"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/log"
	"go.uber.org/zap/zapcore"
)

// newCore tees the writer core with the OTEL bridge when both are available,
// then applies sampling.
func newCore(cfg *Config, otelProvider log.LoggerProvider, ws zapcore.WriteSyncer) (zapcore.Core, error) {
	encoder, err := NewRedactingEncoder(newEncoder(cfg.Format), cfg.Redaction)
	if err != nil {
		return nil, fmt.Errorf("failed to create redacting encoder: %w", err)
	}

	core := zapcore.NewCore(encoder, ws, cfg.Level)

	if cfg.Output.OTEL && otelProvider != nil {
		otelCore := otelzap.NewCore("ragchat",
			otelzap.WithLoggerProvider(otelProvider),
		)
		core = zapcore.NewTee(core, otelCore)
	}

	return newSampledCore(core, cfg.Sampling), nil
}
