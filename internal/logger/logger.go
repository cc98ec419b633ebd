// Package logger provides the process-wide structured logger.
package logger

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu    sync.RWMutex
	sugar = newSugar(zapcore.WarnLevel)
)

// newSugar builds a console logger on stderr so stdout stays reserved for data.
func newSugar(level zapcore.Level) *zap.SugaredLogger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	encCfg.TimeKey = ""
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(os.Stderr),
		zap.NewAtomicLevelAt(level),
	)
	return zap.New(core).Sugar()
}

// ParseLevel converts a level name into a zap level.
func ParseLevel(name string) (zapcore.Level, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(name)))); err != nil {
		return zapcore.WarnLevel, fmt.Errorf("invalid log level %q (expected debug, info, warn or error)", name)
	}
	return level, nil
}

// Init replaces the global logger with one at the given level.
func Init(levelName string) error {
	level, err := ParseLevel(levelName)
	if err != nil {
		return err
	}
	Set(newSugar(level))
	return nil
}

// Set swaps the global logger, mainly so tests can observe output.
func Set(l *zap.SugaredLogger) {
	mu.Lock()
	defer mu.Unlock()
	sugar = l
}

// L returns the current global logger.
func L() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

// Debugf logs at debug level.
func Debugf(template string, args ...any) { L().Debugf(template, args...) }

// Infof logs at info level.
func Infof(template string, args ...any) { L().Infof(template, args...) }

// Warnf logs at warn level.
func Warnf(template string, args ...any) { L().Warnf(template, args...) }

// Errorf logs at error level.
func Errorf(template string, args ...any) { L().Errorf(template, args...) }

// Sync flushes buffered entries.
func Sync() {
	_ = L().Sync()
}
