// internal/utils/logger.go
package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// LogLevel represents the logging level
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARNING
	ERROR
	FATAL
)

// Logger is a structured logger backed by charmbracelet/log
type Logger struct {
	mu      sync.Mutex
	file    *os.File
	backend *log.Logger
}

var (
	globalLogger *Logger
	loggerOnce   sync.Once
)

// NewLogger creates a logger writing to w
func NewLogger(w io.Writer, level LogLevel) *Logger {
	return &Logger{
		backend: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "2006-01-02 15:04:05.000",
			Level:           toBackendLevel(level),
		}),
	}
}

// GetLogger returns the global logger instance
func GetLogger() *Logger {
	loggerOnce.Do(func() {
		globalLogger = NewLogger(os.Stderr, INFO)
	})
	return globalLogger
}

// InitLogger tees the global logger into a daily log file under logDir
func InitLogger(logDir string) error {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	logFile := filepath.Join(logDir, fmt.Sprintf("vmt_%s.log", time.Now().Format("20060102")))
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	logger := GetLogger()
	logger.mu.Lock()
	defer logger.mu.Unlock()

	if logger.file != nil {
		logger.file.Close()
	}
	logger.file = file
	logger.backend.SetOutput(io.MultiWriter(os.Stderr, file))
	return nil
}

// SetLogLevel sets the minimum level for logging
func (l *Logger) SetLogLevel(level LogLevel) {
	l.backend.SetLevel(toBackendLevel(level))
}

// Close releases the log file, if any
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	l.backend.SetOutput(os.Stderr)
	err := l.file.Close()
	l.file = nil
	return err
}

func toBackendLevel(level LogLevel) log.Level {
	switch level {
	case DEBUG:
		return log.DebugLevel
	case WARNING:
		return log.WarnLevel
	case ERROR:
		return log.ErrorLevel
	case FATAL:
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

// keyvals flattens fields into sorted key/value pairs
func keyvals(fields map[string]interface{}) []interface{} {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	kv := make([]interface{}, 0, len(keys)*2)
	for _, k := range keys {
		kv = append(kv, k, fields[k])
	}
	return kv
}

// Debug logs a debug message
func (l *Logger) Debug(message string, fields map[string]interface{}) {
	l.backend.Debug(message, keyvals(fields)...)
}

// Info logs an info message
func (l *Logger) Info(message string, fields map[string]interface{}) {
	l.backend.Info(message, keyvals(fields)...)
}

// Warn logs a warning message
func (l *Logger) Warn(message string, fields map[string]interface{}) {
	l.backend.Warn(message, keyvals(fields)...)
}

// Error logs an error message
func (l *Logger) Error(message string, fields map[string]interface{}) {
	l.backend.Error(message, keyvals(fields)...)
}

// Fatal logs a fatal message and exits
func (l *Logger) Fatal(message string, fields map[string]interface{}) {
	l.backend.Fatal(message, keyvals(fields)...)
}

// Debugf logs a formatted debug message
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.backend.Debugf(format, args...)
}

// Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.backend.Infof(format, args...)
}

// Warnf logs a formatted warning message
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.backend.Warnf(format, args...)
}

// Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.backend.Errorf(format, args...)
}

// Fatalf logs a formatted fatal message and exits
func (l *Logger) Fatalf(format string, args ...interface{}) {
	l.backend.Fatalf(format, args...)
}
