// Package logging builds the zap loggers every Cortex component receives
// at construction time. There is no package-level global; callers hold
// their own *zap.Logger, scoped with With(...) for the component name.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production or development zap logger depending on env.
// Production uses the JSON encoder with sampling to avoid log floods under
// burst ingest; development uses the colorized console encoder.
func New(env string) (*zap.Logger, error) {
	var cfg zap.Config

	if env == "production" {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
		cfg.Sampling = &zap.SamplingConfig{Initial: 100, Thereafter: 100}
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	return cfg.Build(zap.AddCaller(), zap.AddCallerSkip(1))
}

// Component scopes a logger under a named component (store, sieve, gate,
// lifecycle, ...) so every log line is attributable.
func Component(base *zap.Logger, name string) *zap.Logger {
	return base.With(zap.String("component", name))
}
