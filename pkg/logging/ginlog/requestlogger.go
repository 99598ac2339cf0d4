package ginlog

import (
	"fmt"
	"regexp"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sgl-project/gcs2drive/pkg/logging"
)

const (
	RequestIDKey     = logging.RequestIDKey
	RequestIDHeader  = logging.RequestIDHeader
	RequestLoggerKey = logging.RequestLoggerKey
)

// RequestLoggerConfig is the "server.request_logger" config section.
type RequestLoggerConfig struct {
	// ExcludeQueryParameters strips the raw query from access logs.
	ExcludeQueryParameters bool `mapstructure:"exclude_query_parameters"`

	// LevelByPath sets the access log level for exact paths,
	// e.g. "/healthz" -> "debug". Other paths log at info.
	LevelByPath map[string]string `mapstructure:"level_by_path"`

	// LevelByRegexPath sets the access log level for paths matching a pattern.
	LevelByRegexPath map[string]string `mapstructure:"level_by_regex_path"`
}

// Validate checks that every regex path compiles.
func (rec RequestLoggerConfig) Validate() error {
	for pattern := range rec.LevelByRegexPath {
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("error compiling pattern %q: %w", pattern, err)
		}
	}
	return nil
}

// Opts converts the config into RequestLogger options.
func (rec RequestLoggerConfig) Opts() []RequestLoggerOption {
	opts := []RequestLoggerOption{WithRequestLoggerExcludeQueryParameters(rec.ExcludeQueryParameters)}
	if len(rec.LevelByPath) != 0 {
		opts = append(opts, WithRequestLoggerLevelByPath(parseLevelByPath(rec)))
	}
	if len(rec.LevelByRegexPath) != 0 {
		opts = append(opts, WithRequestLoggerLevelByRegexPath(parseLevelByRegexPath(rec)))
	}
	return opts
}

// parseLevel falls back to info for unknown level names; Validate does not
// reject them because a typo in a log level should not stop the service.
func parseLevel(s string) zapcore.Level {
	lvl := zapcore.InfoLevel
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

func parseLevelByPath(rec RequestLoggerConfig) map[string]zapcore.Level {
	levels := make(map[string]zapcore.Level, len(rec.LevelByPath))
	for path, lvl := range rec.LevelByPath {
		levels[path] = parseLevel(lvl)
	}
	return levels
}

// parseLevelByRegexPath expects a config that passed Validate.
func parseLevelByRegexPath(rec RequestLoggerConfig) map[*regexp.Regexp]zapcore.Level {
	levels := make(map[*regexp.Regexp]zapcore.Level, len(rec.LevelByRegexPath))
	for pattern, lvl := range rec.LevelByRegexPath {
		levels[regexp.MustCompile(pattern)] = parseLevel(lvl)
	}
	return levels
}

// GetRequestLogger returns the logger bound to the current request. It
// carries the request id field.
func GetRequestLogger(ctx *gin.Context) *zap.Logger {
	if l, ok := ctx.Get(RequestLoggerKey); ok {
		return l.(*zap.Logger)
	}
	return zap.NewNop()
}

// GetRequestLogging is GetRequestLogger wrapped as logging.Interface.
func GetRequestLogging(ctx *gin.Context) logging.Interface {
	return logging.ForZap(GetRequestLogger(ctx))
}

type requestLogger struct {
	logger                 *zap.Logger
	levelByPath            map[string]zapcore.Level
	levelByRegexPath       map[*regexp.Regexp]zapcore.Level
	excludeQueryParameters bool
}

// RequestLoggerOption configures RequestLogger.
type RequestLoggerOption func(*requestLogger)

// WithRequestLoggerLevelByPath sets a custom logging level depending on path.
func WithRequestLoggerLevelByPath(levelByPath map[string]zapcore.Level) RequestLoggerOption {
	return func(rl *requestLogger) { rl.levelByPath = levelByPath }
}

// WithRequestLoggerLevelByRegexPath sets a custom logging level depending on regex path.
func WithRequestLoggerLevelByRegexPath(levelByRegexPath map[*regexp.Regexp]zapcore.Level) RequestLoggerOption {
	return func(rl *requestLogger) { rl.levelByRegexPath = levelByRegexPath }
}

// WithRequestLoggerExcludeQueryParameters controls whether the query string is logged.
func WithRequestLoggerExcludeQueryParameters(value bool) RequestLoggerOption {
	return func(rl *requestLogger) { rl.excludeQueryParameters = value }
}

// RequestLogger returns a gin middleware that binds a request-scoped zap
// logger to the context and writes one access log line per request.
// Requests that recorded gin errors are logged at error level together
// with those errors.
func RequestLogger(logger *zap.Logger, opts ...RequestLoggerOption) gin.HandlerFunc {
	rl := &requestLogger{logger: logger}
	for _, opt := range opts {
		opt(rl)
	}
	return rl.handle
}

func (rl *requestLogger) handle(ctx *gin.Context) {
	start := logging.TimeNowFunc()

	// captured before handlers get a chance to rewrite them
	path := ctx.Request.URL.Path
	query := ctx.Request.URL.RawQuery

	reqLogger := rl.logger.With(zap.String(RequestIDKey, GetOrCreateRequestID(ctx)))
	ctx.Set(RequestLoggerKey, reqLogger)

	ctx.Next()

	end := logging.TimeNowFunc()
	fields := []zap.Field{
		zap.String("method", ctx.Request.Method),
		zap.String("path", path),
		zap.String("ip", ctx.ClientIP()),
		zap.String("user-agent", ctx.Request.UserAgent()),
		zap.Int("status", ctx.Writer.Status()),
		zap.String("time", end.Format(logging.TimeFormat)),
		zap.Duration("latency", end.Sub(start)),
	}
	if !rl.excludeQueryParameters {
		fields = append(fields, zap.String("query", query))
	}

	if len(ctx.Errors) > 0 {
		fields = append(fields, zap.Strings("errors", ctx.Errors.Errors()))
		reqLogger.Error(path, fields...)
		return
	}

	if ce := reqLogger.Check(rl.levelFor(path), path); ce != nil {
		ce.Write(fields...)
	}
}

func (rl *requestLogger) levelFor(path string) zapcore.Level {
	if lvl, ok := rl.levelByPath[path]; ok {
		return lvl
	}
	for re, lvl := range rl.levelByRegexPath {
		if re.MatchString(path) {
			return lvl
		}
	}
	return zapcore.InfoLevel
}
