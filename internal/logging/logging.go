// internal/logging/logging.go
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New cria o logger estruturado usado por todo o sistema.
// Com verbose ativo o nível mínimo passa a DEBUG.
func New(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}
