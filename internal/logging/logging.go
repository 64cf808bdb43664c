// Package logging builds the process logger.
package logging

import (
	"os"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/guardiancare/server/internal/gelf"
)

const service = "guardiancare"

// New returns a JSON zap logger writing to stderr at level. When gelfAddr is
// set, entries are also shipped to Graylog. The returned func flushes and
// releases the outputs.
func New(level, gelfAddr string) (*zap.Logger, func(), error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "logging: level %q", level)
	}

	enc := zapcore.NewJSONEncoder(encoderConfig())
	cores := []zapcore.Core{
		zapcore.NewCore(enc, zapcore.Lock(os.Stderr), lvl),
	}

	var gw *gelf.Writer
	if gelfAddr != "" {
		gw, err = gelf.New(gelfAddr, service)
		if err != nil {
			return nil, nil, err
		}
		cores = append(cores, zapcore.NewCore(enc.Clone(), zapcore.Lock(gw), lvl))
	}

	log := zap.New(zapcore.NewTee(cores...), zap.AddCaller()).With(zap.String("service", service))
	if gw != nil {
		log.Info("GELF logging enabled", zap.String("addr", gelfAddr))
	}
	cleanup := func() {
		_ = log.Sync()
		if gw != nil {
			_ = gw.Close()
		}
	}
	return log, cleanup, nil
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.MessageKey = "msg"
	cfg.LevelKey = "level"
	cfg.EncodeTime = zapcore.EpochTimeEncoder
	return cfg
}
