// Package logging builds the zap logger used across the server,
// toggling between the JSON and console encoders the way
// ConfigTracing.json selects between tracing_subscriber's JSON and
// human-readable formatters.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a *zap.SugaredLogger. json selects the JSON encoder for
// production log shipping; false gives a human-readable console
// encoder for local development.
func New(json bool) (*zap.SugaredLogger, error) {
	cfg := zap.NewProductionConfig()
	if !json {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}
