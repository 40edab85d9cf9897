// Package observability builds the structured logger used across skirmish.
package observability

import (
	"cmp"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/skirmish/internal/config"
)

// Service is attached to every log line as the "service" field.
const Service = "skirmish"

// formats maps LoggingConfig.Format to a base zap configuration.
var formats = map[string]func() zap.Config{
	"json": zap.NewProductionConfig,
	"console": func() zap.Config {
		c := zap.NewDevelopmentConfig()
		// Stack traces from Error up only.
		c.Development = false
		return c
	},
}

// NewLogger builds the process logger. Lines go to cfg.Output (stderr when
// empty) so stdout stays free for encounter reports, and each carries the
// service field.
//
// Precondition: cfg.Level is debug, info, warn, or error and cfg.Format is
// json or console.
func NewLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
	}
	base, ok := formats[cfg.Format]
	if !ok {
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	zc := base()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{cmp.Or(cfg.Output, "stderr")}
	zc.ErrorOutputPaths = []string{"stderr"}
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.InitialFields = map[string]any{"service": Service}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}
