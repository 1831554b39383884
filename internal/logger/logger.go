package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Package-level logger to be used across packages after Init.
var S *zap.SugaredLogger

// Logger is the structured logging surface shared by the runtime packages.
// It matches the Logger contracts declared by pkg/apiclient and pkg/publishers.
type Logger interface {
	InfoObj(msg, key string, obj interface{})
	DebugObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

// Init initializes a zap SugaredLogger at the given level ("debug", "info", "warn", "error").
func Init(level string) (*zap.SugaredLogger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.AddSync(zapcore.Lock(os.Stderr)),
		parseLevel(level),
	)

	logger := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel))
	sugar := logger.Sugar()
	S = sugar
	return sugar, nil
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Close flushes any buffered loggers.
func Close() error {
	if S == nil {
		return nil
	}
	return S.Sync()
}

// Zap adapts a SugaredLogger to the Logger interface.
type Zap struct {
	sugar *zap.SugaredLogger
}

// NewZap wraps sugar; a nil sugar falls back to the package-level logger at call time.
func NewZap(sugar *zap.SugaredLogger) *Zap {
	return &Zap{sugar: sugar}
}

func (z *Zap) base() *zap.Logger {
	if z != nil && z.sugar != nil {
		return z.sugar.Desugar()
	}
	if S != nil {
		return S.Desugar()
	}
	return nil
}

func (z *Zap) InfoObj(msg, key string, obj interface{}) {
	if l := z.base(); l != nil {
		l.Info(msg, zap.Any(key, obj))
	}
}

func (z *Zap) DebugObj(msg, key string, obj interface{}) {
	if l := z.base(); l != nil {
		l.Debug(msg, zap.Any(key, obj))
	}
}

func (z *Zap) WarnObj(msg, key string, obj interface{}) {
	if l := z.base(); l != nil {
		l.Warn(msg, zap.Any(key, obj))
	}
}

func (z *Zap) ErrorObj(msg, key string, obj interface{}) {
	if l := z.base(); l != nil {
		l.Error(msg, zap.Any(key, obj))
	}
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) InfoObj(string, string, interface{})  {}
func (NopLogger) DebugObj(string, string, interface{}) {}
func (NopLogger) WarnObj(string, string, interface{})  {}
func (NopLogger) ErrorObj(string, string, interface{}) {}

// Minimal object logging helpers -------------------------------------------------
// These log the given object as a structured field named `key` on the
// package-level logger and are no-ops before Init.
func InfoObj(msg, key string, obj interface{})  { NewZap(nil).InfoObj(msg, key, obj) }
func DebugObj(msg, key string, obj interface{}) { NewZap(nil).DebugObj(msg, key, obj) }
func WarnObj(msg, key string, obj interface{})  { NewZap(nil).WarnObj(msg, key, obj) }
func ErrorObj(msg, key string, obj interface{}) { NewZap(nil).ErrorObj(msg, key, obj) }
