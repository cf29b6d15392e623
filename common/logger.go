// Package common provides shared constants, types, and utilities
// used across the Nebula Tower application.
package common

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents the severity level of a log message.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// AppLogger is the application's log sink. Lines are human readable, carry the
// LogTag name and are appended to the debug log when file output is enabled.
// The file is never rotated or truncated.
type AppLogger struct {
	mu        sync.Mutex
	level     zap.AtomicLevel
	base      *zap.Logger
	sugar     *zap.SugaredLogger
	shorthand *zap.SugaredLogger
	logFile   *os.File
	filePath  string
}

// LogConfig holds configuration options for the logger.
type LogConfig struct {
	Level LogLevel
	// FilePath enables append-only file output when set.
	FilePath string
	// Console receives a copy of every line. Defaults to stdout.
	Console io.Writer
}

var (
	defaultLogger *AppLogger
	loggerOnce    sync.Once
)

// GetLogger returns the singleton logger instance.
func GetLogger() *AppLogger {
	loggerOnce.Do(func() {
		level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
		defaultLogger = &AppLogger{level: level}
		defaultLogger.install(newCore(zapcore.AddSync(os.Stdout), level), nil, "")
	})
	return defaultLogger
}

// InitLogger initializes the logger with custom configuration.
// Should be called early in application startup.
func InitLogger(config LogConfig) error {
	return GetLogger().Configure(config)
}

// NewAppLogger wraps an existing zap logger. Used by tests to observe entries.
func NewAppLogger(base *zap.Logger) *AppLogger {
	l := &AppLogger{level: zap.NewAtomicLevelAt(zapcore.DebugLevel)}
	l.mu.Lock()
	l.setBase(base)
	l.mu.Unlock()
	return l
}

// Configure rebuilds the output cores according to config.
func (l *AppLogger) Configure(config LogConfig) error {
	l.level.SetLevel(config.Level.zapLevel())

	console := config.Console
	if console == nil {
		console = os.Stdout
	}
	sinks := []zapcore.WriteSyncer{zapcore.AddSync(console)}

	var file *os.File
	if config.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(config.FilePath), 0700); err != nil {
			return err
		}
		f, err := os.OpenFile(config.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return err
		}
		file = f
		sinks = append(sinks, zapcore.AddSync(f))
	}

	l.install(newCore(zapcore.NewMultiWriteSyncer(sinks...), l.level), file, config.FilePath)
	return nil
}

func newCore(ws zapcore.WriteSyncer, level zap.AtomicLevel) zapcore.Core {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006/01/02 15:04:05")
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encCfg.ConsoleSeparator = " "
	return zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), ws, level)
}

func (l *AppLogger) install(core zapcore.Core, file *os.File, path string) {
	base := zap.New(core, zap.AddCaller()).Named(LogTag)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.base != nil {
		_ = l.base.Sync()
	}
	if l.logFile != nil {
		l.logFile.Close()
	}
	l.logFile = file
	l.filePath = path
	l.setBase(base)
}

// setBase must be called with l.mu held.
func (l *AppLogger) setBase(base *zap.Logger) {
	l.base = base
	l.sugar = base.WithOptions(zap.AddCallerSkip(1)).Sugar()
	l.shorthand = base.WithOptions(zap.AddCallerSkip(2)).Sugar()
}

// SetLevel sets the minimum log level.
func (l *AppLogger) SetLevel(level LogLevel) {
	l.level.SetLevel(level.zapLevel())
}

// FilePath returns the debug log path, or "" when file output is disabled.
func (l *AppLogger) FilePath() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.filePath
}

func (l *AppLogger) sugared() *zap.SugaredLogger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sugar
}

func (l *AppLogger) short() *zap.SugaredLogger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.shorthand
}

// Debug logs a debug message.
func (l *AppLogger) Debug(msg string, args ...interface{}) {
	l.sugared().Debugf(msg, args...)
}

// Info logs an informational message.
func (l *AppLogger) Info(msg string, args ...interface{}) {
	l.sugared().Infof(msg, args...)
}

// Warn logs a warning message.
func (l *AppLogger) Warn(msg string, args ...interface{}) {
	l.sugared().Warnf(msg, args...)
}

// Error logs an error message.
func (l *AppLogger) Error(msg string, args ...interface{}) {
	l.sugared().Errorf(msg, args...)
}

// Shorthand functions for default logger.

// LogDebug logs a debug message to the default logger.
func LogDebug(msg string, args ...interface{}) {
	GetLogger().short().Debugf(msg, args...)
}

// LogInfo logs an info message to the default logger.
func LogInfo(msg string, args ...interface{}) {
	GetLogger().short().Infof(msg, args...)
}

// LogWarn logs a warning message to the default logger.
func LogWarn(msg string, args ...interface{}) {
	GetLogger().short().Warnf(msg, args...)
}

// LogError logs an error message to the default logger.
func LogError(msg string, args ...interface{}) {
	GetLogger().short().Errorf(msg, args...)
}

// Close flushes buffered entries and closes the log file.
func (l *AppLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.base != nil {
		_ = l.base.Sync()
	}
	if l.logFile != nil {
		err := l.logFile.Close()
		l.logFile = nil
		if err != nil {
			return fmt.Errorf("close log file: %w", err)
		}
	}
	return nil
}

// CloseLogger closes the default logger.
func CloseLogger() error {
	return GetLogger().Close()
}
