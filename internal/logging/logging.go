// Package logging builds the zap loggers used by the command line tools.
package logging

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a logger writing to stderr at the named level ("debug",
// "info", "warn", "error"). JSON output is meant for log collectors; the
// default is a console encoder.
func New(level string, json bool) (*zap.Logger, error) {
	return NewWithWriter(level, json, os.Stderr)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(level string, json bool, w io.Writer) (*zap.Logger, error) {
	if level == "" {
		level = "info"
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrapf(err, "logging: level %q", level)
	}

	var enc zapcore.Encoder
	if json {
		enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		enc = zapcore.NewConsoleEncoder(cfg)
	}
	core := zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(w)), lvl)
	return zap.New(core), nil
}
