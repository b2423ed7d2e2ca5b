// Package logging owns the process-wide structured logger.
package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

var (
	mu       sync.Mutex
	logFile  *os.File
	core     zapcore.Core
	logger   = slog.New(slog.NewTextHandler(io.Discard, nil))
	consoleW io.Writer = os.Stderr
)

// Init routes log output to logPath (JSON lines) and, when console is set,
// to stderr as well. Calling Init again replaces the previous sinks.
func Init(logPath string, console bool) error {
	mu.Lock()
	defer mu.Unlock()

	closeLocked()

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var cores []zapcore.Core
	if logPath != "" {
		if dir := filepath.Dir(logPath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		logFile = file
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(file), zapcore.DebugLevel))
	}
	if console {
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(consoleW), zapcore.DebugLevel))
	}
	if len(cores) == 0 {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		return nil
	}

	core = zapcore.NewTee(cores...)
	logger = slog.New(zapslog.NewHandler(core, zapslog.WithCaller(true)))
	return nil
}

// Close flushes pending entries and releases the log file.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	return closeLocked()
}

func closeLocked() error {
	var err error
	if core != nil {
		_ = core.Sync()
		core = nil
	}
	if logFile != nil {
		err = logFile.Close()
		logFile = nil
	}
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return err
}

// Logger returns the current structured logger. It never returns nil.
func Logger() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}

// LogEvent writes a formatted informational line.
func LogEvent(format string, args ...any) {
	Logger().Info(fmt.Sprintf(format, args...))
}

// LogWarn writes a formatted warning line.
func LogWarn(format string, args ...any) {
	Logger().Warn(fmt.Sprintf(format, args...))
}

// LogRequest records one side of an HTTP exchange with the backend.
func LogRequest(direction, host, path string, payload any) {
	Logger().Log(context.Background(), slog.LevelDebug, buildRequestMessage(direction, host, path, payload))
}

func buildRequestMessage(direction, host, path string, payload any) string {
	dir := strings.ToUpper(strings.TrimSpace(direction))
	hostValue := strings.TrimSpace(host)
	if hostValue == "" {
		hostValue = "unknown"
	}
	pathValue := strings.TrimSpace(path)
	if pathValue == "" {
		pathValue = "/"
	}
	parts := []string{fmt.Sprintf("[%s]", dir)}
	parts = append(parts, fmt.Sprintf("host=%s", hostValue))
	parts = append(parts, fmt.Sprintf("path=%s", pathValue))
	parts = append(parts, fmt.Sprintf("payload=%s", formatPayload(payload)))
	return strings.Join(parts, " ")
}

func formatPayload(payload any) string {
	switch v := payload.(type) {
	case nil:
		return "null"
	case string:
		if strings.TrimSpace(v) == "" {
			return `""`
		}
		return v
	case []byte:
		if len(v) == 0 {
			return "[]"
		}
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}
