package gologger

import (
	"context"
	"io"
	"maps"
	"slices"
	"strings"

	glog "github.com/goliatone/go-logger/glog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level is a zap level; trace sits one step below debug.
type Level = zapcore.Level

const (
	LevelTrace Level = zapcore.DebugLevel - 1
	LevelDebug Level = zapcore.DebugLevel
	LevelInfo  Level = zapcore.InfoLevel
	LevelWarn  Level = zapcore.WarnLevel
	LevelError Level = zapcore.ErrorLevel
	LevelFatal Level = zapcore.FatalLevel
)

// ParseLevel maps a level name to a Level, defaulting to info.
func ParseLevel(value string) Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "trace":
		return LevelTrace
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "fatal":
		return LevelFatal
	default:
		return LevelInfo
	}
}

// Resolve uses deterministic precedence provider > logger > nop.
func Resolve(name string, provider glog.LoggerProvider, logger glog.Logger) (glog.LoggerProvider, glog.Logger) {
	return glog.Resolve(name, provider, logger)
}

// WriterLogger adapts a zap logger writing JSON lines to the glog contracts.
// Fatal logs at fatal level and leaves process termination to the caller.
type WriterLogger struct {
	base  *zap.Logger
	sugar *zap.SugaredLogger
}

func NewWriterLogger(out io.Writer, level Level) *WriterLogger {
	if out == nil {
		out = io.Discard
	}
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	encoderConfig.EncodeLevel = encodeLevel
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.Lock(zapcore.AddSync(out)),
		zap.NewAtomicLevelAt(level),
	)
	return wrap(zap.New(core, zap.WithFatalHook(keepRunning{})))
}

// FromZap wraps an existing zap logger.
func FromZap(logger *zap.Logger) *WriterLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return wrap(logger)
}

func wrap(logger *zap.Logger) *WriterLogger {
	return &WriterLogger{base: logger, sugar: logger.Sugar()}
}

func (l *WriterLogger) Named(name string) *WriterLogger {
	name = strings.TrimSpace(name)
	if name == "" {
		return l
	}
	return wrap(l.base.Named(name))
}

// Zap exposes the underlying logger.
func (l *WriterLogger) Zap() *zap.Logger { return l.base }

func (l *WriterLogger) Trace(msg string, args ...any) { l.sugar.Logw(LevelTrace, msg, args...) }
func (l *WriterLogger) Debug(msg string, args ...any) { l.sugar.Debugw(msg, args...) }
func (l *WriterLogger) Info(msg string, args ...any)  { l.sugar.Infow(msg, args...) }
func (l *WriterLogger) Warn(msg string, args ...any)  { l.sugar.Warnw(msg, args...) }
func (l *WriterLogger) Error(msg string, args ...any) { l.sugar.Errorw(msg, args...) }
func (l *WriterLogger) Fatal(msg string, args ...any) { l.sugar.Fatalw(msg, args...) }

func (l *WriterLogger) WithContext(context.Context) glog.Logger {
	return l
}

func (l *WriterLogger) WithFields(fields map[string]any) glog.Logger {
	if len(fields) == 0 {
		return l
	}
	zapFields := make([]zap.Field, 0, len(fields))
	for _, key := range slices.Sorted(maps.Keys(fields)) {
		zapFields = append(zapFields, zap.Any(key, fields[key]))
	}
	return wrap(l.base.With(zapFields...))
}

func (l *WriterLogger) Sync() error {
	return l.base.Sync()
}

func encodeLevel(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	if level == LevelTrace {
		enc.AppendString("trace")
		return
	}
	zapcore.LowercaseLevelEncoder(level, enc)
}

type keepRunning struct{}

func (keepRunning) OnWrite(*zapcore.CheckedEntry, []zapcore.Field) {}

// Provider hands out named children of a shared WriterLogger.
type Provider struct {
	root *WriterLogger
}

func NewProvider(root *WriterLogger) *Provider {
	return &Provider{root: root}
}

func (p *Provider) GetLogger(name string) glog.Logger {
	if p == nil || p.root == nil {
		return glog.Nop()
	}
	return p.root.Named(name)
}

var (
	_ glog.Logger         = (*WriterLogger)(nil)
	_ glog.FieldsLogger   = (*WriterLogger)(nil)
	_ glog.LoggerProvider = (*Provider)(nil)
)
