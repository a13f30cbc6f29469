// Package vlog provides the framework's structured logging: a factory that
// produces per-channel loggers with inherited bindings, lazily evaluated
// metadata, and an optional sink that receives every entry both formatted
// and structured. It is a thin facade over go.uber.org/zap.
package vlog

import (
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LazyFields defers metadata construction until the entry is known to pass
// the level threshold. The function is invoked at most once per log call,
// and never for suppressed entries.
type LazyFields func() []zap.Field

// Fields adapts eagerly constructed fields to the lazy calling convention,
// for call sites where the metadata is cheap.
func Fields(fields ...zap.Field) LazyFields {
	return func() []zap.Field { return fields }
}

// Entry is the structured form of one log entry as delivered to a [Sink].
type Entry struct {
	Time    time.Time
	Level   string
	Channel string
	Message string
	Fields  map[string]any
}

// Sink receives every emitted entry, formatted and structured. Implement it
// to redirect framework logging into another system.
type Sink interface {
	Write(formatted string, entry Entry)
}

// Option configures a [Factory].
type Option func(*factoryConfig)

type factoryConfig struct {
	level zapcore.Level
	sink  Sink
	zlog  *zap.Logger
}

// WithLevel sets the minimum level, info by default.
func WithLevel(level zapcore.Level) Option {
	return func(c *factoryConfig) { c.level = level }
}

// WithSink routes entries to a custom sink instead of the default JSON
// writer on stderr.
func WithSink(s Sink) Option {
	return func(c *factoryConfig) { c.sink = s }
}

// WithZap builds the factory on an existing zap logger, for applications
// that already configured one. The factory's level option is ignored in
// that case; the given logger's core decides.
func WithZap(l *zap.Logger) Option {
	return func(c *factoryConfig) { c.zlog = l }
}

// Factory produces per-channel loggers. All loggers derived from one
// factory share its level threshold.
type Factory struct {
	base  *zap.Logger
	level zap.AtomicLevel
}

// NewFactory inits a factory. Without options it writes JSON entries to
// stderr at info level.
func NewFactory(opts ...Option) *Factory {
	cfg := factoryConfig{level: zapcore.InfoLevel}
	for _, opt := range opts {
		opt(&cfg)
	}

	level := zap.NewAtomicLevelAt(cfg.level)

	if cfg.zlog != nil {
		return &Factory{base: cfg.zlog, level: level}
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var core zapcore.Core
	if cfg.sink != nil {
		core = &sinkCore{
			LevelEnabler: level,
			enc:          zapcore.NewJSONEncoder(encCfg),
			sink:         cfg.sink,
		}
	} else {
		core = zapcore.NewCore(
			zapcore.NewJSONEncoder(encCfg),
			zapcore.Lock(os.Stderr),
			level,
		)
	}

	return &Factory{base: zap.New(core), level: level}
}

// NewNop returns a factory whose loggers discard everything.
func NewNop() *Factory {
	return &Factory{base: zap.NewNop(), level: zap.NewAtomicLevelAt(zapcore.FatalLevel)}
}

// SetLevel changes the threshold for all loggers derived from the factory.
func (f *Factory) SetLevel(level zapcore.Level) {
	f.level.SetLevel(level)
}

// Channel returns a logger for the named channel with the given bindings
// merged into every entry it emits.
func (f *Factory) Channel(name string, bindings ...zap.Field) *Logger {
	return &Logger{z: f.base.Named(name).With(bindings...)}
}

// Logger emits entries for one channel. Loggers are cheap to derive and
// safe for concurrent use.
type Logger struct {
	z *zap.Logger
}

// With returns a child logger with additional inherited bindings.
func (l *Logger) With(bindings ...zap.Field) *Logger {
	return &Logger{z: l.z.With(bindings...)}
}

// Debug logs at debug level. Lazy metadata is evaluated only if the entry
// passes the threshold.
func (l *Logger) Debug(msg string, lazy ...LazyFields) { l.log(zapcore.DebugLevel, msg, lazy) }

// Info logs at info level.
func (l *Logger) Info(msg string, lazy ...LazyFields) { l.log(zapcore.InfoLevel, msg, lazy) }

// Warn logs at warn level.
func (l *Logger) Warn(msg string, lazy ...LazyFields) { l.log(zapcore.WarnLevel, msg, lazy) }

// Error logs at error level.
func (l *Logger) Error(msg string, lazy ...LazyFields) { l.log(zapcore.ErrorLevel, msg, lazy) }

func (l *Logger) log(level zapcore.Level, msg string, lazy []LazyFields) {
	ce := l.z.Check(level, msg)
	if ce == nil {
		return
	}

	var fields []zap.Field
	for _, fn := range lazy {
		fields = append(fields, fn()...)
	}

	ce.Write(fields...)
}

// sinkCore delivers entries to a [Sink], formatted by the encoder and
// structured via a map object encoder.
type sinkCore struct {
	zapcore.LevelEnabler

	enc    zapcore.Encoder
	sink   Sink
	fields []zapcore.Field
}

func (c *sinkCore) With(fields []zapcore.Field) zapcore.Core {
	clone := *c
	clone.fields = append(clone.fields[:len(c.fields):len(c.fields)], fields...)

	return &clone
}

func (c *sinkCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}

	return ce
}

func (c *sinkCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	all := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	all = append(all, c.fields...)
	all = append(all, fields...)

	buf, err := c.enc.EncodeEntry(ent, all)
	if err != nil {
		return err
	}
	formatted := buf.String()
	buf.Free()

	mapEnc := zapcore.NewMapObjectEncoder()
	for _, f := range all {
		f.AddTo(mapEnc)
	}

	c.sink.Write(formatted, Entry{
		Time:    ent.Time,
		Level:   ent.Level.String(),
		Channel: ent.LoggerName,
		Message: ent.Message,
		Fields:  mapEnc.Fields,
	})

	return nil
}

func (c *sinkCore) Sync() error { return nil }
