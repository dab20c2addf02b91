// Package logging builds the process-wide zap logger. All output goes to
// standard output.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a logger writing to stdout at level, as JSON or console text.
func New(level, format string) (*zap.Logger, error) {
	return NewWithSink(level, format, zapcore.Lock(os.Stdout))
}

// NewWithSink is New with an explicit destination.
func NewWithSink(level, format string, sink zapcore.WriteSyncer) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	switch format {
	case "", "json":
		enc = zapcore.NewJSONEncoder(encCfg)
	case "console":
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	core := zapcore.NewCore(enc, sink, zap.NewAtomicLevelAt(lvl))
	return zap.New(core, zap.AddCaller()), nil
}
