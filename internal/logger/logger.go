package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ServiceName is attached to every log entry.
const ServiceName = "metasearch"

// Options selects the encoding and level of a logger.
type Options struct {
	// Env is prod (JSON) or local, dev, docker, test (console).
	Env string
	// Level overrides the environment default: debug, info, warn, error.
	Level string
	// Stack names the deployment and is attached to every entry when set.
	Stack string
}

// New builds a zap logger. Every entry carries the service name.
func New(opts Options) (*zap.Logger, error) {
	cfg, err := config(opts)
	if err != nil {
		return nil, err
	}
	l, err := cfg.Build(
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Fields(baseFields(opts)...),
	)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return l, nil
}

func config(opts Options) (zap.Config, error) {
	var cfg zap.Config
	switch opts.Env {
	case "prod":
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	case "local", "dev", "docker", "test":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return cfg, fmt.Errorf("unknown environment %q for logger", opts.Env)
	}

	if opts.Level != "" {
		var level zapcore.Level
		if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
			return cfg, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		cfg.Level = zap.NewAtomicLevelAt(level)
	}
	return cfg, nil
}

func baseFields(opts Options) []zap.Field {
	fields := []zap.Field{zap.String("service", ServiceName)}
	if opts.Stack != "" {
		fields = append(fields, zap.String("stack", opts.Stack))
	}
	return fields
}
