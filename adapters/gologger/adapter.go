package gologger

import (
	"context"
	"fmt"
	"strings"

	glog "github.com/goliatone/go-logger/glog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Resolve uses deterministic precedence provider > logger > nop.
func Resolve(name string, provider glog.LoggerProvider, logger glog.Logger) (glog.LoggerProvider, glog.Logger) {
	return glog.Resolve(name, provider, logger)
}

// NewZap builds the process logger. An unparsable level falls back to info.
func NewZap(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)

	if level = strings.TrimSpace(level); level != "" {
		if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
			cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
		}
	}
	return cfg.Build(zap.AddStacktrace(zap.ErrorLevel))
}

// ZapLogger exposes a zap logger through the glog contract. Variadic args are key/value pairs.
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

func NewZapLogger(base *zap.Logger) *ZapLogger {
	if base == nil {
		base = zap.NewNop()
	}
	return &ZapLogger{sugar: base.Sugar()}
}

func (l *ZapLogger) Trace(msg string, args ...any) { l.sugar.Debugw(msg, normalizeArgs(args)...) }
func (l *ZapLogger) Debug(msg string, args ...any) { l.sugar.Debugw(msg, normalizeArgs(args)...) }
func (l *ZapLogger) Info(msg string, args ...any)  { l.sugar.Infow(msg, normalizeArgs(args)...) }
func (l *ZapLogger) Warn(msg string, args ...any)  { l.sugar.Warnw(msg, normalizeArgs(args)...) }
func (l *ZapLogger) Error(msg string, args ...any) { l.sugar.Errorw(msg, normalizeArgs(args)...) }
func (l *ZapLogger) Fatal(msg string, args ...any) { l.sugar.Fatalw(msg, normalizeArgs(args)...) }

func (l *ZapLogger) WithContext(context.Context) glog.Logger { return l }

func (l *ZapLogger) WithFields(fields map[string]any) glog.Logger {
	if len(fields) == 0 {
		return l
	}
	kv := make([]any, 0, len(fields)*2)
	for key, value := range fields {
		kv = append(kv, key, value)
	}
	return &ZapLogger{sugar: l.sugar.With(kv...)}
}

// Sync flushes buffered entries.
func (l *ZapLogger) Sync() error {
	return l.sugar.Sync()
}

// ZapProvider hands out named children of one zap logger.
type ZapProvider struct {
	base *zap.Logger
}

func NewZapProvider(base *zap.Logger) *ZapProvider {
	if base == nil {
		base = zap.NewNop()
	}
	return &ZapProvider{base: base}
}

func (p *ZapProvider) GetLogger(name string) glog.Logger {
	name = strings.TrimSpace(name)
	if name == "" {
		return NewZapLogger(p.base)
	}
	return NewZapLogger(p.base.Named(name))
}

// normalizeArgs pads odd argument lists and stringifies non-string keys so zap never drops a pair.
func normalizeArgs(args []any) []any {
	if len(args) == 0 {
		return nil
	}
	out := make([]any, 0, len(args)+1)
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		if i+1 < len(args) {
			out = append(out, key, args[i+1])
			continue
		}
		out = append(out, "extra", args[i])
	}
	return out
}

var (
	_ glog.Logger         = (*ZapLogger)(nil)
	_ glog.FieldsLogger   = (*ZapLogger)(nil)
	_ glog.LoggerProvider = (*ZapProvider)(nil)
)
