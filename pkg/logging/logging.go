package logging

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// TimeNowFunc lets tests control the clock used by request logging.
var TimeNowFunc = time.Now

// TimeFormat is the time format used in request logs.
var TimeFormat = time.RFC3339

const (
	// RequestIDKey is the log field and gin context key carrying the request id.
	RequestIDKey = "request-id"

	// RequestIDHeader is set by Google front ends on every request.
	RequestIDHeader = "X-Cloud-Trace-Context"

	// RequestLoggerKey is the gin context key of the per-request logger.
	RequestLoggerKey = "request-logger"
)

// NewLogger builds a zap logger writing to stdout and, when a filename is
// configured, to a rotating log file.
func NewLogger(config *Config) (*zap.Logger, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid logging config: %w", err)
	}

	level, err := config.toZapCoreLevel()
	if err != nil {
		return nil, fmt.Errorf("constructing log level: %w", err)
	}
	encoder := newEncoder(config)

	var cores []zapcore.Core
	if config.Filename != "" {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(&config.Logger), level))
	}
	if !config.DisableConsoleOutput {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), nil
}

func newEncoder(config *Config) zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	if config.Debug {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	if config.EncodeTimeAsRFC3339Nano {
		encoderConfig.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	}

	if config.Debug {
		return zapcore.NewConsoleEncoder(encoderConfig)
	}
	return zapcore.NewJSONEncoder(encoderConfig)
}
