// Package logger holds the process-wide zap logger. The helpers are no-ops
// until Setup or Attach runs.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kobzarvs/qscribe/internal/config"
)

// Stderr is the destination that sends log lines to standard error.
const Stderr = "-"

var (
	L *zap.Logger
	S *zap.SugaredLogger

	level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	out   *os.File
)

// Setup points the global logger at dest: a file path, Stderr, or "" for
// the default file. A log file is truncated on each run.
func Setup(dest string, debug bool) error {
	if dest == Stderr {
		Attach(os.Stderr, debug)
		return nil
	}
	if dest == "" {
		var err error
		if dest, err = DefaultPath(); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	Close()
	out = f
	Attach(f, debug)
	S.Infow("logger initialized", "path", dest, "debug", debug)
	return nil
}

// DefaultPath is $QSCRIBE_LOG_FILE, or qscribe.log in the config directory.
func DefaultPath() (string, error) {
	if v := os.Getenv("QSCRIBE_LOG_FILE"); v != "" {
		return v, nil
	}
	dir, err := config.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "qscribe.log"), nil
}

// Attach builds the global logger on w.
func Attach(w io.Writer, debug bool) {
	SetDebug(debug)
	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = "ts"
	enc.FunctionKey = zapcore.OmitKey
	enc.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(zapcore.AddSync(w)), level)
	L = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(2), zap.AddStacktrace(zapcore.ErrorLevel))
	S = L.Sugar()
}

// SetDebug switches debug messages on or off without rebuilding the logger.
func SetDebug(debug bool) {
	if debug {
		level.SetLevel(zapcore.DebugLevel)
		return
	}
	level.SetLevel(zapcore.InfoLevel)
}

// Close flushes the logger and closes the log file, if any.
func Close() {
	if L != nil {
		_ = L.Sync()
	}
	if out != nil {
		_ = out.Close()
		out = nil
	}
}

func Debug(msg string, keysAndValues ...any) { write(zapcore.DebugLevel, msg, keysAndValues) }
func Info(msg string, keysAndValues ...any)  { write(zapcore.InfoLevel, msg, keysAndValues) }
func Warn(msg string, keysAndValues ...any)  { write(zapcore.WarnLevel, msg, keysAndValues) }
func Error(msg string, keysAndValues ...any) { write(zapcore.ErrorLevel, msg, keysAndValues) }

func write(lvl zapcore.Level, msg string, kv []any) {
	if S == nil || !level.Enabled(lvl) {
		return
	}
	switch lvl {
	case zapcore.DebugLevel:
		S.Debugw(msg, kv...)
	case zapcore.InfoLevel:
		S.Infow(msg, kv...)
	case zapcore.WarnLevel:
		S.Warnw(msg, kv...)
	default:
		S.Errorw(msg, kv...)
	}
}
